package service

import (
	"strings"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ClientService handles client management and risk categorization
type ClientService struct {
	clientRepo      domain.ClientRepository
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo domain.ClientRepository, loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository) *ClientService {
	return &ClientService{
		clientRepo:      clientRepo,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
	}
}

// CreateClientInput contains input for creating a client
type CreateClientInput struct {
	FirstName       string
	LastName        string
	Phone           string
	Address         string
	IndividualLimit decimal.Decimal
	BusinessTypeID  *int32
	Notes           *string
}

// CreateClient registers a new client. New clients always start in the "new"
// category; the categorizer only ever moves them once loans finish.
func (s *ClientService) CreateClient(input CreateClientInput) (*domain.Client, error) {
	client := &domain.Client{
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Phone:           strings.TrimSpace(input.Phone),
		Address:         strings.TrimSpace(input.Address),
		Category:        domain.CategoryNew,
		Status:          domain.ClientActive,
		IndividualLimit: input.IndividualLimit,
		BusinessTypeID:  input.BusinessTypeID,
		Notes:           input.Notes,
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	return s.clientRepo.Create(client)
}

// GetClient retrieves a client by ID
func (s *ClientService) GetClient(id int32) (*domain.Client, error) {
	return s.clientRepo.GetByID(id)
}

// GetClients retrieves all clients
func (s *ClientService) GetClients() ([]*domain.Client, error) {
	return s.clientRepo.GetAll()
}

// UpdateClientInput contains updatable client fields
type UpdateClientInput struct {
	FirstName       string
	LastName        string
	Phone           string
	Address         string
	Status          domain.ClientStatus
	IndividualLimit decimal.Decimal
	BusinessTypeID  *int32
	Notes           *string
}

// UpdateClient updates a client's editable fields. The category is owned by
// the categorizer and is never touched here.
func (s *ClientService) UpdateClient(id int32, input UpdateClientInput) (*domain.Client, error) {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	client.FirstName = strings.TrimSpace(input.FirstName)
	client.LastName = strings.TrimSpace(input.LastName)
	client.Phone = strings.TrimSpace(input.Phone)
	client.Address = strings.TrimSpace(input.Address)
	client.Status = input.Status
	client.IndividualLimit = input.IndividualLimit
	client.BusinessTypeID = input.BusinessTypeID
	client.Notes = input.Notes

	if err := client.Validate(); err != nil {
		return nil, err
	}
	return s.clientRepo.Update(client)
}

// DeleteClient removes a client. Clients with loan history are protected.
func (s *ClientService) DeleteClient(id int32) error {
	count, err := s.clientRepo.CountLoans(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrClientHasLoans
	}
	return s.clientRepo.Delete(id)
}

// RecalculateCategory recomputes a client's risk category from the on-time
// payment ratio across all finished loans.
func (s *ClientService) RecalculateCategory(clientID int32) error {
	loans, err := s.loanRepo.GetFinishedByClient(clientID)
	if err != nil {
		return err
	}
	installments, err := s.installmentRepo.GetByLoanIDs(loanIDs(loans))
	if err != nil {
		return err
	}

	category, ok := CategorizeFromHistory(installments)
	if !ok {
		return nil
	}
	return s.clientRepo.UpdateCategory(clientID, category)
}

// RecalculateCategoryTx is the transactional variant used when a payment
// finishes a loan: the freshly finished loan is only visible inside the
// payment's transaction. Returns the assigned category and whether one was
// assigned, so callers can report the change.
func (s *ClientService) RecalculateCategoryTx(tx interface{}, clientID int32) (domain.ClientCategory, bool, error) {
	loans, err := s.loanRepo.GetFinishedByClientTx(tx, clientID)
	if err != nil {
		return "", false, err
	}
	installments, err := s.installmentRepo.GetByLoanIDsTx(tx, loanIDs(loans))
	if err != nil {
		return "", false, err
	}

	category, ok := CategorizeFromHistory(installments)
	if !ok {
		return "", false, nil
	}
	if err := s.clientRepo.UpdateCategoryTx(tx, clientID, category); err != nil {
		return "", false, err
	}
	return category, true, nil
}

// CategorizeFromHistory derives a risk category from the installments of a
// client's finished loans. Returns false when there is no history to judge,
// in which case the current category stands.
func CategorizeFromHistory(installments []*domain.Installment) (domain.ClientCategory, bool) {
	if len(installments) == 0 {
		return "", false
	}

	onTime := 0
	for _, inst := range installments {
		if inst.PaidOnTime() {
			onTime++
		}
	}

	ratio := float64(onTime) / float64(len(installments)) * 100
	switch {
	case ratio >= 95:
		return domain.CategoryExcellent, true
	case ratio >= 70:
		return domain.CategoryRegular, true
	default:
		return domain.CategoryDelinquent, true
	}
}

func loanIDs(loans []*domain.Loan) []int32 {
	ids := make([]int32, len(loans))
	for i, l := range loans {
		ids[i] = l.ID
	}
	return ids
}
