package testutil

import (
	"context"
	"sort"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/websocket"
)

// MockClientRepository is a mock implementation of domain.ClientRepository
type MockClientRepository struct {
	Clients    map[int32]*domain.Client
	LoanCounts map[int32]int64
	NextID     int32
}

// NewMockClientRepository creates a new MockClientRepository
func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{
		Clients:    make(map[int32]*domain.Client),
		LoanCounts: make(map[int32]int64),
		NextID:     1,
	}
}

// Create creates a new client
func (m *MockClientRepository) Create(client *domain.Client) (*domain.Client, error) {
	client.ID = m.NextID
	m.NextID++
	m.Clients[client.ID] = client
	return client, nil
}

// GetByID retrieves a client by ID
func (m *MockClientRepository) GetByID(id int32) (*domain.Client, error) {
	if client, ok := m.Clients[id]; ok {
		return client, nil
	}
	return nil, domain.ErrClientNotFound
}

// GetAll retrieves all clients ordered by ID
func (m *MockClientRepository) GetAll() ([]*domain.Client, error) {
	clients := make([]*domain.Client, 0, len(m.Clients))
	for _, client := range m.Clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

// Update updates an existing client
func (m *MockClientRepository) Update(client *domain.Client) (*domain.Client, error) {
	if _, ok := m.Clients[client.ID]; !ok {
		return nil, domain.ErrClientNotFound
	}
	m.Clients[client.ID] = client
	return client, nil
}

// UpdateCategory sets a client's category
func (m *MockClientRepository) UpdateCategory(id int32, category domain.ClientCategory) error {
	client, ok := m.Clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	client.Category = category
	return nil
}

// UpdateCategoryTx sets a client's category within a transaction
func (m *MockClientRepository) UpdateCategoryTx(tx interface{}, id int32, category domain.ClientCategory) error {
	return m.UpdateCategory(id, category)
}

// Delete removes a client
func (m *MockClientRepository) Delete(id int32) error {
	if _, ok := m.Clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	delete(m.Clients, id)
	return nil
}

// CountLoans returns the number of loans a client has
func (m *MockClientRepository) CountLoans(id int32) (int64, error) {
	return m.LoanCounts[id], nil
}

// AddClient adds a client to the mock repository (helper for tests)
func (m *MockClientRepository) AddClient(client *domain.Client) {
	if client.ID >= m.NextID {
		m.NextID = client.ID + 1
	}
	m.Clients[client.ID] = client
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans  map[int32]*domain.Loan
	NextID int32
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans:  make(map[int32]*domain.Loan),
		NextID: 1,
	}
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	loan.ID = m.NextID
	m.NextID++
	m.Loans[loan.ID] = loan
	return loan, nil
}

// CreateTx creates a new loan within a transaction
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	return m.Create(loan)
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(id int32) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

// GetActiveByClient retrieves the client's active loan
func (m *MockLoanRepository) GetActiveByClient(clientID int32) (*domain.Loan, error) {
	for _, loan := range m.Loans {
		if loan.ClientID == clientID && loan.Status == domain.LoanActive {
			return loan, nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

// GetAllByClient retrieves all loans of a client
func (m *MockLoanRepository) GetAllByClient(clientID int32) ([]*domain.Loan, error) {
	return m.loansByClient(clientID, nil), nil
}

// GetFinishedByClient retrieves the client's finished loans
func (m *MockLoanRepository) GetFinishedByClient(clientID int32) ([]*domain.Loan, error) {
	finished := domain.LoanFinished
	return m.loansByClient(clientID, &finished), nil
}

// GetFinishedByClientTx retrieves finished loans within a transaction
func (m *MockLoanRepository) GetFinishedByClientTx(tx interface{}, clientID int32) ([]*domain.Loan, error) {
	return m.GetFinishedByClient(clientID)
}

// UpdateStatus sets a loan's status
func (m *MockLoanRepository) UpdateStatus(id int32, status domain.LoanStatus) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.Status = status
	return nil
}

// UpdateStatusTx sets a loan's status within a transaction
func (m *MockLoanRepository) UpdateStatusTx(tx interface{}, id int32, status domain.LoanStatus) error {
	return m.UpdateStatus(id, status)
}

// SetRenewedByTx records which loan replaced this one
func (m *MockLoanRepository) SetRenewedByTx(tx interface{}, id int32, newLoanID int32) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.RenewedByLoanID = &newLoanID
	return nil
}

// UpdateInstallmentCountTx updates the agreed installment count
func (m *MockLoanRepository) UpdateInstallmentCountTx(tx interface{}, id int32, count int32) error {
	loan, ok := m.Loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.InstallmentCount = count
	return nil
}

// AddLoan adds a loan to the mock repository (helper for tests)
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	if loan.ID >= m.NextID {
		m.NextID = loan.ID + 1
	}
	m.Loans[loan.ID] = loan
}

func (m *MockLoanRepository) loansByClient(clientID int32, status *domain.LoanStatus) []*domain.Loan {
	var loans []*domain.Loan
	for _, loan := range m.Loans {
		if loan.ClientID != clientID {
			continue
		}
		if status != nil && loan.Status != *status {
			continue
		}
		loans = append(loans, loan)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans
}

// MockInstallmentRepository is a mock implementation of domain.InstallmentRepository
type MockInstallmentRepository struct {
	Installments map[int32]*domain.Installment
	NextID       int32
	// ForUpdateErr, when set, is returned by GetByIDForUpdateTx to simulate
	// a row lock conflict
	ForUpdateErr error
}

// NewMockInstallmentRepository creates a new MockInstallmentRepository
func NewMockInstallmentRepository() *MockInstallmentRepository {
	return &MockInstallmentRepository{
		Installments: make(map[int32]*domain.Installment),
		NextID:       1,
	}
}

// CreateBatchTx inserts a loan's full schedule
func (m *MockInstallmentRepository) CreateBatchTx(tx interface{}, installments []*domain.Installment) error {
	for _, inst := range installments {
		if _, err := m.CreateTx(tx, inst); err != nil {
			return err
		}
	}
	return nil
}

// CreateTx inserts a single installment
func (m *MockInstallmentRepository) CreateTx(tx interface{}, installment *domain.Installment) (*domain.Installment, error) {
	installment.ID = m.NextID
	m.NextID++
	m.Installments[installment.ID] = installment
	return installment, nil
}

// GetByID retrieves an installment by ID
func (m *MockInstallmentRepository) GetByID(id int32) (*domain.Installment, error) {
	if inst, ok := m.Installments[id]; ok {
		return inst, nil
	}
	return nil, domain.ErrInstallmentNotFound
}

// GetByIDForUpdateTx retrieves an installment with a row lock
func (m *MockInstallmentRepository) GetByIDForUpdateTx(tx interface{}, id int32) (*domain.Installment, error) {
	if m.ForUpdateErr != nil {
		return nil, m.ForUpdateErr
	}
	return m.GetByID(id)
}

// GetByLoanID retrieves all installments of a loan ordered by number
func (m *MockInstallmentRepository) GetByLoanID(loanID int32) ([]*domain.Installment, error) {
	return m.byLoanIDs([]int32{loanID}), nil
}

// GetByLoanIDs retrieves installments for a set of loans
func (m *MockInstallmentRepository) GetByLoanIDs(loanIDs []int32) ([]*domain.Installment, error) {
	return m.byLoanIDs(loanIDs), nil
}

// GetByLoanIDsTx retrieves installments for a set of loans within a transaction
func (m *MockInstallmentRepository) GetByLoanIDsTx(tx interface{}, loanIDs []int32) ([]*domain.Installment, error) {
	return m.byLoanIDs(loanIDs), nil
}

// GetNextOpenTx returns the lowest-numbered open installment after the given number
func (m *MockInstallmentRepository) GetNextOpenTx(tx interface{}, loanID int32, afterNumber int32) (*domain.Installment, error) {
	var next *domain.Installment
	for _, inst := range m.Installments {
		if inst.LoanID != loanID || inst.Number <= afterNumber || !inst.Status.Open() {
			continue
		}
		if next == nil || inst.Number < next.Number {
			next = inst
		}
	}
	if next == nil {
		return nil, domain.ErrInstallmentNotFound
	}
	return next, nil
}

// UpdateTx persists payment state for an installment
func (m *MockInstallmentRepository) UpdateTx(tx interface{}, installment *domain.Installment) error {
	if _, ok := m.Installments[installment.ID]; !ok {
		return domain.ErrInstallmentNotFound
	}
	m.Installments[installment.ID] = installment
	return nil
}

// MaxNumberTx returns the highest installment number of a loan
func (m *MockInstallmentRepository) MaxNumberTx(tx interface{}, loanID int32) (int32, error) {
	var max int32
	for _, inst := range m.Installments {
		if inst.LoanID == loanID && inst.Number > max {
			max = inst.Number
		}
	}
	return max, nil
}

// CountOpenTx counts installments that still owe money on a loan
func (m *MockInstallmentRepository) CountOpenTx(tx interface{}, loanID int32) (int64, error) {
	var count int64
	for _, inst := range m.Installments {
		if inst.LoanID == loanID && inst.Status.Open() {
			count++
		}
	}
	return count, nil
}

// AddInstallment adds an installment to the mock repository (helper for tests)
func (m *MockInstallmentRepository) AddInstallment(inst *domain.Installment) {
	if inst.ID >= m.NextID {
		m.NextID = inst.ID + 1
	}
	m.Installments[inst.ID] = inst
}

func (m *MockInstallmentRepository) byLoanIDs(loanIDs []int32) []*domain.Installment {
	wanted := make(map[int32]bool, len(loanIDs))
	for _, id := range loanIDs {
		wanted[id] = true
	}
	var installments []*domain.Installment
	for _, inst := range m.Installments {
		if wanted[inst.LoanID] {
			installments = append(installments, inst)
		}
	}
	sort.Slice(installments, func(i, j int) bool {
		if installments[i].LoanID != installments[j].LoanID {
			return installments[i].LoanID < installments[j].LoanID
		}
		return installments[i].Number < installments[j].Number
	})
	return installments
}

// MockBusinessTypeRepository is a mock implementation of domain.BusinessTypeRepository
type MockBusinessTypeRepository struct {
	Types map[int32]*domain.BusinessType
}

// NewMockBusinessTypeRepository creates a new MockBusinessTypeRepository
func NewMockBusinessTypeRepository() *MockBusinessTypeRepository {
	return &MockBusinessTypeRepository{Types: make(map[int32]*domain.BusinessType)}
}

// GetByID retrieves a business type by ID
func (m *MockBusinessTypeRepository) GetByID(id int32) (*domain.BusinessType, error) {
	if bt, ok := m.Types[id]; ok {
		return bt, nil
	}
	return nil, domain.ErrBusinessTypeNotFound
}

// GetAllActive retrieves active business types
func (m *MockBusinessTypeRepository) GetAllActive() ([]*domain.BusinessType, error) {
	var types []*domain.BusinessType
	for _, bt := range m.Types {
		if bt.Active {
			types = append(types, bt)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].SortOrder < types[j].SortOrder })
	return types, nil
}

// MockConfigRepository is a mock implementation of domain.ConfigRepository
type MockConfigRepository struct {
	CreditConfigs map[domain.ClientCategory]*domain.CreditConfiguration
	MoraConfig    *domain.MoraConfiguration
}

// NewMockConfigRepository creates a new MockConfigRepository
func NewMockConfigRepository() *MockConfigRepository {
	return &MockConfigRepository{
		CreditConfigs: make(map[domain.ClientCategory]*domain.CreditConfiguration),
	}
}

// GetCreditConfig retrieves the lending rules for a category
func (m *MockConfigRepository) GetCreditConfig(category domain.ClientCategory) (*domain.CreditConfiguration, error) {
	if cfg, ok := m.CreditConfigs[category]; ok {
		return cfg, nil
	}
	return nil, domain.ErrCreditConfigNotFound
}

// GetAllCreditConfigs retrieves the lending rules for every category
func (m *MockConfigRepository) GetAllCreditConfigs() ([]*domain.CreditConfiguration, error) {
	var configs []*domain.CreditConfiguration
	for _, cfg := range m.CreditConfigs {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Category < configs[j].Category })
	return configs, nil
}

// GetMoraConfig retrieves the late interest configuration
func (m *MockConfigRepository) GetMoraConfig() (*domain.MoraConfiguration, error) {
	if m.MoraConfig == nil {
		return nil, domain.ErrMoraConfigNotFound
	}
	return m.MoraConfig, nil
}

// MockTxManager is a mock implementation of domain.TxManager that runs the
// callback with a nil transaction handle
type MockTxManager struct {
	// Err, when set, is returned without running the callback
	Err error
}

// WithinTx runs fn with a nil transaction
func (m *MockTxManager) WithinTx(ctx context.Context, fn func(tx interface{}) error) error {
	if m.Err != nil {
		return m.Err
	}
	return fn(nil)
}

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	Events []websocket.Event
}

// Publish records the event
func (m *MockEventPublisher) Publish(event websocket.Event) {
	m.Events = append(m.Events, event)
}
