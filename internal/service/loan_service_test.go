package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loanFixture struct {
	svc             *LoanService
	clientRepo      *testutil.MockClientRepository
	loanRepo        *testutil.MockLoanRepository
	installmentRepo *testutil.MockInstallmentRepository
	configRepo      *testutil.MockConfigRepository
	publisher       *testutil.MockEventPublisher
	creditService   *CreditService
}

func newLoanFixture() *loanFixture {
	clientRepo := testutil.NewMockClientRepository()
	loanRepo := testutil.NewMockLoanRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()
	businessTypeRepo := testutil.NewMockBusinessTypeRepository()
	configRepo := testutil.NewMockConfigRepository()
	publisher := &testutil.MockEventPublisher{}

	configRepo.CreditConfigs[domain.CategoryNew] = &domain.CreditConfiguration{
		Category:      domain.CategoryNew,
		MaxLoanAmount: decimal.NewFromInt(50000),
	}
	configRepo.CreditConfigs[domain.CategoryRegular] = &domain.CreditConfiguration{
		Category:             domain.CategoryRegular,
		MaxLoanAmount:        decimal.NewFromInt(100000),
		DebtMultiplePercent:  decimal.NewFromInt(30),
		AllowRenewalWithDebt: true,
		MinDaysBeforeRenewal: 5,
	}

	creditService := NewCreditService(clientRepo, loanRepo, installmentRepo, businessTypeRepo, configRepo)
	clientService := NewClientService(clientRepo, loanRepo, installmentRepo)
	svc := NewLoanService(&testutil.MockTxManager{}, loanRepo, installmentRepo, clientRepo, creditService, clientService)
	svc.SetEventPublisher(publisher)
	svc.now = func() time.Time {
		return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	}
	creditService.now = svc.now

	return &loanFixture{
		svc:             svc,
		clientRepo:      clientRepo,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		configRepo:      configRepo,
		publisher:       publisher,
		creditService:   creditService,
	}
}

func (f *loanFixture) addClient(category domain.ClientCategory, status domain.ClientStatus) *domain.Client {
	client := &domain.Client{
		ID: 1, FirstName: "Ana", LastName: "Pérez", Phone: "555-0101",
		Category: category, Status: status,
	}
	f.clientRepo.AddClient(client)
	return client
}

func weeklyTerms(clientID int32) CreateLoanInput {
	return CreateLoanInput{
		ClientID:         clientID,
		Principal:        decimal.NewFromInt(20000),
		RatePercent:      decimal.NewFromInt(20),
		InstallmentCount: 4,
		Frequency:        domain.FrequencyWeekly,
		StartDate:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateLoan_PersistsLoanAndSchedule(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientActive)

	loan, err := f.svc.CreateLoan(context.Background(), weeklyTerms(client.ID))

	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, loan.Status)
	assert.True(t, loan.TotalPayable.Equal(decimal.NewFromInt(24000)), "total: %s", loan.TotalPayable)
	assert.Equal(t, int32(4), loan.InstallmentCount)
	assert.Equal(t, time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC), loan.EndDate)

	installments, _ := f.installmentRepo.GetByLoanID(loan.ID)
	require.Len(t, installments, 4)
	for i, inst := range installments {
		assert.Equal(t, int32(i+1), inst.Number)
		assert.True(t, inst.Amount.Equal(decimal.NewFromInt(6000)))
		assert.Equal(t, domain.InstallmentPending, inst.Status)
	}

	require.Len(t, f.publisher.Events, 1)
	assert.Equal(t, "loan.created", f.publisher.Events[0].Type)
}

func TestCreateLoan_InactiveClient(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientInactive)

	_, err := f.svc.CreateLoan(context.Background(), weeklyTerms(client.ID))
	assert.Equal(t, domain.ErrClientInactive, err)
}

func TestCreateLoan_ClientAlreadyHasActiveLoan(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientActive)
	f.loanRepo.AddLoan(&domain.Loan{ClientID: client.ID, Status: domain.LoanActive})

	_, err := f.svc.CreateLoan(context.Background(), weeklyTerms(client.ID))
	assert.Equal(t, domain.ErrClientHasActiveLoan, err)
}

func TestCreateLoan_CeilingExceeded(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientActive)

	terms := weeklyTerms(client.ID)
	terms.Principal = decimal.NewFromInt(60000) // new category caps at 50000
	_, err := f.svc.CreateLoan(context.Background(), terms)

	var limitErr domain.CreditLimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.True(t, limitErr.Limit.Equal(decimal.NewFromInt(50000)))
	assert.Empty(t, f.publisher.Events)
}

func TestCreateLoan_InvalidTerms(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientActive)

	terms := weeklyTerms(client.ID)
	terms.InstallmentCount = 0
	_, err := f.svc.CreateLoan(context.Background(), terms)

	assert.Equal(t, domain.ErrLoanInstallmentsInvalid, err)
}

func TestRenewLoan_FoldsOutstandingIntoNewPrincipal(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryRegular, domain.ClientActive)

	// Active loan started 30 days ago with 14000 still owed
	old := &domain.Loan{
		ID:                  1,
		ClientID:            client.ID,
		Principal:           decimal.NewFromInt(20000),
		InterestRatePercent: decimal.NewFromInt(20),
		TotalPayable:        decimal.NewFromInt(24000),
		InstallmentCount:    2,
		Frequency:           domain.FrequencyWeekly,
		StartDate:           time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
		Status:              domain.LoanActive,
	}
	f.loanRepo.AddLoan(old)
	paid := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	f.installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: old.ID, Number: 1,
		Amount: decimal.NewFromInt(12000), AmountPaid: decimal.NewFromInt(10000),
		DueDate: paid, Status: domain.InstallmentPartiallyPaid,
	})
	f.installmentRepo.AddInstallment(&domain.Installment{
		ID: 2, LoanID: old.ID, Number: 2,
		Amount: decimal.NewFromInt(12000), AmountPaid: decimal.Zero,
		DueDate: time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC), Status: domain.InstallmentPending,
	})

	renewed, err := f.svc.RenewLoan(context.Background(), old.ID, RenewLoanInput{
		NewCapital:       decimal.NewFromInt(10000),
		RatePercent:      decimal.NewFromInt(20),
		InstallmentCount: 4,
		Frequency:        domain.FrequencyWeekly,
	})

	require.NoError(t, err)
	// 10000 new capital + 14000 prior balance
	assert.True(t, renewed.Principal.Equal(decimal.NewFromInt(24000)), "principal: %s", renewed.Principal)
	assert.Equal(t, domain.LoanActive, renewed.Status)
	require.NotNil(t, renewed.Notes)
	assert.Equal(t, "Renewal of loan #1. Prior balance: 14000.00", *renewed.Notes)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), renewed.StartDate)

	oldAfter, _ := f.loanRepo.GetByID(old.ID)
	assert.Equal(t, domain.LoanRenewed, oldAfter.Status)
	require.NotNil(t, oldAfter.RenewedByLoanID)
	assert.Equal(t, renewed.ID, *oldAfter.RenewedByLoanID)

	// Old open installments are closed out
	for _, id := range []int32{1, 2} {
		inst, _ := f.installmentRepo.GetByID(id)
		assert.Equal(t, domain.InstallmentPaid, inst.Status)
		assert.True(t, inst.AmountPaid.Equal(inst.Amount))
	}

	newSchedule, _ := f.installmentRepo.GetByLoanID(renewed.ID)
	assert.Len(t, newSchedule, 4)

	require.Len(t, f.publisher.Events, 1)
	assert.Equal(t, "loan.renewed", f.publisher.Events[0].Type)
}

func TestRenewLoan_CategoryForbidsRenewalWithDebt(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientActive)

	old := &domain.Loan{
		ClientID:     client.ID,
		TotalPayable: decimal.NewFromInt(24000),
		StartDate:    time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
		Status:       domain.LoanActive,
	}
	f.loanRepo.AddLoan(old)
	f.installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: old.ID, Number: 1,
		Amount: decimal.NewFromInt(24000), AmountPaid: decimal.Zero,
		DueDate: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), Status: domain.InstallmentPending,
	})

	_, err := f.svc.RenewLoan(context.Background(), old.ID, RenewLoanInput{
		NewCapital:       decimal.NewFromInt(5000),
		RatePercent:      decimal.NewFromInt(20),
		InstallmentCount: 2,
		Frequency:        domain.FrequencyWeekly,
	})

	var renewErr domain.RenewalNotAllowedError
	require.True(t, errors.As(err, &renewErr))
}

func TestRenewLoan_OnlyActiveLoans(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryRegular, domain.ClientActive)
	old := &domain.Loan{ClientID: client.ID, Status: domain.LoanFinished}
	f.loanRepo.AddLoan(old)

	_, err := f.svc.RenewLoan(context.Background(), old.ID, RenewLoanInput{
		NewCapital:       decimal.NewFromInt(5000),
		RatePercent:      decimal.NewFromInt(20),
		InstallmentCount: 2,
		Frequency:        domain.FrequencyWeekly,
	})

	assert.Equal(t, domain.ErrLoanNotActive, err)
}

func TestSettleLoan_ClosesEverythingToday(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientActive)

	loan := &domain.Loan{
		ClientID:     client.ID,
		TotalPayable: decimal.NewFromInt(24000),
		StartDate:    time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
		Status:       domain.LoanActive,
	}
	f.loanRepo.AddLoan(loan)
	f.installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: loan.ID, Number: 1,
		Amount: decimal.NewFromInt(12000), AmountPaid: decimal.NewFromInt(12000),
		DueDate:  time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		Status:   domain.InstallmentPaid,
		PaidDate: &loan.StartDate,
	})
	f.installmentRepo.AddInstallment(&domain.Installment{
		ID: 2, LoanID: loan.ID, Number: 2,
		Amount: decimal.NewFromInt(12000), AmountPaid: decimal.NewFromInt(3000),
		DueDate: time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC),
		Status:  domain.InstallmentPartiallyPaid,
	})

	settled, err := f.svc.SettleLoan(context.Background(), loan.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanFinished, settled.Status)

	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	inst, _ := f.installmentRepo.GetByID(2)
	assert.Equal(t, domain.InstallmentPaid, inst.Status)
	assert.True(t, inst.AmountPaid.Equal(inst.Amount))
	require.NotNil(t, inst.PaidDate)
	assert.Equal(t, today, *inst.PaidDate)

	require.Len(t, f.publisher.Events, 2)
	assert.Equal(t, "loan.finished", f.publisher.Events[0].Type)
	assert.Equal(t, "client.recategorized", f.publisher.Events[1].Type)
}

func TestSettleLoan_RecalculatesCategory(t *testing.T) {
	f := newLoanFixture()
	client := f.addClient(domain.CategoryNew, domain.ClientActive)

	loan := &domain.Loan{
		ClientID:     client.ID,
		TotalPayable: decimal.NewFromInt(12000),
		StartDate:    time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC),
		Status:       domain.LoanActive,
	}
	f.loanRepo.AddLoan(loan)
	// Settlement lands after the due date, so the history reads delinquent
	f.installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: loan.ID, Number: 1,
		Amount: decimal.NewFromInt(12000), AmountPaid: decimal.Zero,
		DueDate: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		Status:  domain.InstallmentPending,
	})

	_, err := f.svc.SettleLoan(context.Background(), loan.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.CategoryDelinquent, f.clientRepo.Clients[client.ID].Category)
}

func TestProgressOf(t *testing.T) {
	loan := &domain.Loan{
		TotalPayable:     decimal.NewFromInt(24000),
		InstallmentCount: 4,
	}
	installments := []*domain.Installment{
		{Amount: decimal.NewFromInt(6000), AmountPaid: decimal.NewFromInt(6000), Status: domain.InstallmentPaid},
		{Amount: decimal.NewFromInt(6000), AmountPaid: decimal.NewFromInt(2500), Status: domain.InstallmentPartiallyPaid},
		{Amount: decimal.NewFromInt(6000), Status: domain.InstallmentPending},
		{Amount: decimal.NewFromInt(6000), Status: domain.InstallmentPending},
	}

	progress := ProgressOf(loan, installments)

	if !progress.AmountPaid.Equal(decimal.NewFromInt(8500)) {
		t.Errorf("Expected 8500 paid, got %s", progress.AmountPaid)
	}
	if !progress.RemainingBalance.Equal(decimal.NewFromInt(15500)) {
		t.Errorf("Expected 15500 remaining, got %s", progress.RemainingBalance)
	}
	if progress.PaidInstallments != 1 {
		t.Errorf("Expected 1 paid installment, got %d", progress.PaidInstallments)
	}
	if progress.ProgressPercent != 25 {
		t.Errorf("Expected 25%%, got %d", progress.ProgressPercent)
	}
}

func TestProgressOf_EmptyLoan(t *testing.T) {
	loan := &domain.Loan{TotalPayable: decimal.Zero}

	progress := ProgressOf(loan, nil)

	if progress.ProgressPercent != 0 {
		t.Errorf("Expected 0%%, got %d", progress.ProgressPercent)
	}
}
