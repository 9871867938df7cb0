package service

import (
	"errors"
	"testing"
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResolveCeiling_NoRulesIsUnlimited(t *testing.T) {
	ceiling := ResolveCeiling(decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)

	if !ceiling.Unlimited {
		t.Error("Expected unlimited ceiling with no rules configured")
	}
}

func TestResolveCeiling_MostRestrictiveWins(t *testing.T) {
	// individual 80000, category 100000, business 60000: business wins
	ceiling := ResolveCeiling(
		decimal.NewFromInt(80000),
		decimal.NewFromInt(100000),
		decimal.NewFromInt(60000),
		decimal.Zero,
		decimal.Zero,
	)

	if ceiling.Unlimited {
		t.Fatal("Expected a bounded ceiling")
	}
	if !ceiling.Amount.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("Expected 60000, got %s", ceiling.Amount.String())
	}
}

func TestResolveCeiling_DebtReducesLimits(t *testing.T) {
	// category 100000 with 30000 outstanding: 70000 left
	ceiling := ResolveCeiling(
		decimal.Zero,
		decimal.NewFromInt(100000),
		decimal.Zero,
		decimal.Zero,
		decimal.NewFromInt(30000),
	)

	if !ceiling.Amount.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("Expected 70000, got %s", ceiling.Amount.String())
	}
}

func TestResolveCeiling_DebtMultiple(t *testing.T) {
	// 30% of a 50000 debt = 15000, tighter than the 100000 category cap minus debt
	ceiling := ResolveCeiling(
		decimal.Zero,
		decimal.NewFromInt(100000),
		decimal.Zero,
		decimal.NewFromInt(30),
		decimal.NewFromInt(50000),
	)

	if !ceiling.Amount.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("Expected 15000, got %s", ceiling.Amount.String())
	}
}

func TestResolveCeiling_DebtMultipleIgnoredWithoutDebt(t *testing.T) {
	// No debt: the multiple contributes nothing, category cap stands
	ceiling := ResolveCeiling(
		decimal.Zero,
		decimal.NewFromInt(100000),
		decimal.Zero,
		decimal.NewFromInt(30),
		decimal.Zero,
	)

	if !ceiling.Amount.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("Expected 100000, got %s", ceiling.Amount.String())
	}
}

func TestResolveCeiling_FlooredAtZero(t *testing.T) {
	// Debt above the limit never produces a negative ceiling
	ceiling := ResolveCeiling(
		decimal.NewFromInt(10000),
		decimal.Zero,
		decimal.Zero,
		decimal.Zero,
		decimal.NewFromInt(25000),
	)

	if !ceiling.Amount.IsZero() {
		t.Errorf("Expected zero, got %s", ceiling.Amount.String())
	}
}

func TestOutstandingBalance(t *testing.T) {
	loan := &domain.Loan{TotalPayable: decimal.NewFromInt(120000)}
	installments := []*domain.Installment{
		{AmountPaid: decimal.NewFromInt(12000)},
		{AmountPaid: decimal.NewFromInt(7000)},
		{AmountPaid: decimal.Zero},
	}

	result := OutstandingBalance(loan, installments)
	expected := decimal.NewFromInt(101000)

	if !result.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected.String(), result.String())
	}
}

func newCreditServiceFixture() (*CreditService, *testutil.MockClientRepository, *testutil.MockLoanRepository, *testutil.MockInstallmentRepository, *testutil.MockConfigRepository) {
	clientRepo := testutil.NewMockClientRepository()
	loanRepo := testutil.NewMockLoanRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()
	businessTypeRepo := testutil.NewMockBusinessTypeRepository()
	configRepo := testutil.NewMockConfigRepository()
	svc := NewCreditService(clientRepo, loanRepo, installmentRepo, businessTypeRepo, configRepo)
	return svc, clientRepo, loanRepo, installmentRepo, configRepo
}

func TestComputeMaxLendable_WithActiveDebt(t *testing.T) {
	svc, clientRepo, loanRepo, installmentRepo, configRepo := newCreditServiceFixture()

	clientRepo.AddClient(&domain.Client{ID: 1, Category: domain.CategoryRegular, Status: domain.ClientActive})
	configRepo.CreditConfigs[domain.CategoryRegular] = &domain.CreditConfiguration{
		Category:      domain.CategoryRegular,
		MaxLoanAmount: decimal.NewFromInt(100000),
	}
	loanRepo.AddLoan(&domain.Loan{
		ID:           1,
		ClientID:     1,
		TotalPayable: decimal.NewFromInt(60000),
		Status:       domain.LoanActive,
	})
	installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: 1, Number: 1,
		Amount:     decimal.NewFromInt(60000),
		AmountPaid: decimal.NewFromInt(20000),
		Status:     domain.InstallmentPartiallyPaid,
	})

	// 100000 cap minus 40000 outstanding
	ceiling, err := svc.ComputeMaxLendable(1)
	assert.NoError(t, err)
	assert.False(t, ceiling.Unlimited)
	assert.True(t, ceiling.Amount.Equal(decimal.NewFromInt(60000)), "got %s", ceiling.Amount)
}

func TestComputeMaxLendableForRenewal_AddsDebtBack(t *testing.T) {
	svc, clientRepo, loanRepo, installmentRepo, configRepo := newCreditServiceFixture()

	clientRepo.AddClient(&domain.Client{ID: 1, Category: domain.CategoryRegular, Status: domain.ClientActive})
	configRepo.CreditConfigs[domain.CategoryRegular] = &domain.CreditConfiguration{
		Category:      domain.CategoryRegular,
		MaxLoanAmount: decimal.NewFromInt(100000),
	}
	loanRepo.AddLoan(&domain.Loan{
		ID:           1,
		ClientID:     1,
		TotalPayable: decimal.NewFromInt(60000),
		Status:       domain.LoanActive,
	})
	installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: 1, Number: 1,
		Amount: decimal.NewFromInt(60000),
		Status: domain.InstallmentPending,
	})

	// The folded-in balance is not net new lending: (100000 - 60000) + 60000
	ceiling, err := svc.ComputeMaxLendableForRenewal(1)
	assert.NoError(t, err)
	assert.True(t, ceiling.Amount.Equal(decimal.NewFromInt(100000)), "got %s", ceiling.Amount)
}

func TestCanRenew_NoActiveLoan(t *testing.T) {
	svc, clientRepo, _, _, _ := newCreditServiceFixture()

	clientRepo.AddClient(&domain.Client{ID: 1, Category: domain.CategoryNew, Status: domain.ClientActive})

	assert.NoError(t, svc.CanRenew(1))
}

func TestCanRenew_DebtNotAllowed(t *testing.T) {
	svc, clientRepo, loanRepo, installmentRepo, configRepo := newCreditServiceFixture()

	clientRepo.AddClient(&domain.Client{ID: 1, Category: domain.CategoryNew, Status: domain.ClientActive})
	configRepo.CreditConfigs[domain.CategoryNew] = &domain.CreditConfiguration{
		Category:             domain.CategoryNew,
		AllowRenewalWithDebt: false,
	}
	loanRepo.AddLoan(&domain.Loan{
		ID:           1,
		ClientID:     1,
		TotalPayable: decimal.NewFromInt(60000),
		StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:       domain.LoanActive,
	})
	installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: 1, Number: 1,
		Amount: decimal.NewFromInt(60000),
		Status: domain.InstallmentPending,
	})

	err := svc.CanRenew(1)
	var renewErr domain.RenewalNotAllowedError
	assert.True(t, errors.As(err, &renewErr), "expected RenewalNotAllowedError, got %v", err)
}

func TestCanRenew_MinimumDays(t *testing.T) {
	svc, clientRepo, loanRepo, installmentRepo, configRepo := newCreditServiceFixture()
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC) }

	clientRepo.AddClient(&domain.Client{ID: 1, Category: domain.CategoryRegular, Status: domain.ClientActive})
	configRepo.CreditConfigs[domain.CategoryRegular] = &domain.CreditConfiguration{
		Category:             domain.CategoryRegular,
		AllowRenewalWithDebt: true,
		MinDaysBeforeRenewal: 5,
	}
	// Loan started 3 days ago, 5 required
	loanRepo.AddLoan(&domain.Loan{
		ID:           1,
		ClientID:     1,
		TotalPayable: decimal.NewFromInt(60000),
		StartDate:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:       domain.LoanActive,
	})
	installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: 1, Number: 1,
		Amount: decimal.NewFromInt(60000),
		Status: domain.InstallmentPending,
	})

	err := svc.CanRenew(1)
	var renewErr domain.RenewalNotAllowedError
	assert.True(t, errors.As(err, &renewErr), "expected RenewalNotAllowedError, got %v", err)

	// 6 days in, renewal opens up
	svc.now = func() time.Time { return time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC) }
	assert.NoError(t, svc.CanRenew(1))
}
