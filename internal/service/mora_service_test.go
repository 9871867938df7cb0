package service

import (
	"testing"
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestLateInterest_Basic(t *testing.T) {
	// 10000 remaining, 10 days late, 0.5% daily, 3 grace days
	// 7 effective days: 10000 * 0.005 * 7 = 350
	cfg := &domain.MoraConfiguration{
		DailyRatePercent: decimal.NewFromFloat(0.5),
		GraceDays:        3,
	}

	result := LateInterest(decimal.NewFromInt(10000), 10, cfg)
	expected := decimal.NewFromInt(350)

	if !result.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected.String(), result.String())
	}
}

func TestLateInterest_WithinGrace(t *testing.T) {
	cfg := &domain.MoraConfiguration{
		DailyRatePercent: decimal.NewFromFloat(0.5),
		GraceDays:        5,
	}

	result := LateInterest(decimal.NewFromInt(10000), 5, cfg)

	if !result.IsZero() {
		t.Errorf("Expected zero within grace period, got %s", result.String())
	}
}

func TestLateInterest_NotLate(t *testing.T) {
	cfg := &domain.MoraConfiguration{DailyRatePercent: decimal.NewFromFloat(0.5)}

	result := LateInterest(decimal.NewFromInt(10000), 0, cfg)

	if !result.IsZero() {
		t.Errorf("Expected zero for on-time installment, got %s", result.String())
	}
}

func TestLateInterest_BelowMinimumWaived(t *testing.T) {
	// 100 * 0.005 * 1 = 0.50, below the 10 minimum: waived, not floored
	cfg := &domain.MoraConfiguration{
		DailyRatePercent:    decimal.NewFromFloat(0.5),
		MinimumChargeAmount: decimal.NewFromInt(10),
	}

	result := LateInterest(decimal.NewFromInt(100), 1, cfg)

	if !result.IsZero() {
		t.Errorf("Expected charge below minimum to be waived, got %s", result.String())
	}
}

func TestLateInterest_RoundsToCents(t *testing.T) {
	// 3333.33 * 0.005 * 3 = 49.99995 → 50.00
	cfg := &domain.MoraConfiguration{DailyRatePercent: decimal.NewFromFloat(0.5)}

	result := LateInterest(decimal.NewFromFloat(3333.33), 3, cfg)
	expected := decimal.NewFromInt(50)

	if !result.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected.String(), result.String())
	}
}

func TestComputeMora_OverdueInstallment(t *testing.T) {
	installmentRepo := testutil.NewMockInstallmentRepository()
	configRepo := testutil.NewMockConfigRepository()
	configRepo.MoraConfig = &domain.MoraConfiguration{
		DailyRatePercent: decimal.NewFromFloat(0.5),
	}

	svc := NewMoraService(installmentRepo, configRepo)
	svc.now = func() time.Time { return time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC) }

	installmentRepo.AddInstallment(&domain.Installment{
		ID:      1,
		LoanID:  1,
		Number:  1,
		Amount:  decimal.NewFromInt(10000),
		DueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:  domain.InstallmentPending,
	})

	// 10 days late: 10000 * 0.005 * 10 = 500
	result, err := svc.ComputeMora(1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected 500, got %s", result.String())
	}
}

func TestComputeMora_PaidInstallment(t *testing.T) {
	installmentRepo := testutil.NewMockInstallmentRepository()
	configRepo := testutil.NewMockConfigRepository()
	configRepo.MoraConfig = &domain.MoraConfiguration{
		DailyRatePercent: decimal.NewFromFloat(0.5),
	}

	svc := NewMoraService(installmentRepo, configRepo)
	svc.now = func() time.Time { return time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC) }

	paidDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	installmentRepo.AddInstallment(&domain.Installment{
		ID:         1,
		LoanID:     1,
		Number:     1,
		Amount:     decimal.NewFromInt(10000),
		AmountPaid: decimal.NewFromInt(10000),
		DueDate:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:     domain.InstallmentPaid,
		PaidDate:   &paidDate,
	})

	result, err := svc.ComputeMora(1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.IsZero() {
		t.Errorf("Expected zero for paid installment, got %s", result.String())
	}
}

func TestComputeMora_InstallmentNotFound(t *testing.T) {
	svc := NewMoraService(testutil.NewMockInstallmentRepository(), testutil.NewMockConfigRepository())

	_, err := svc.ComputeMora(99)
	if err != domain.ErrInstallmentNotFound {
		t.Errorf("Expected ErrInstallmentNotFound, got %v", err)
	}
}
