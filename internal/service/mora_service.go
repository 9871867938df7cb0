package service

import (
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MoraService computes late-payment interest for overdue installments
type MoraService struct {
	installmentRepo domain.InstallmentRepository
	configRepo      domain.ConfigRepository
	now             func() time.Time
}

// NewMoraService creates a new MoraService
func NewMoraService(installmentRepo domain.InstallmentRepository, configRepo domain.ConfigRepository) *MoraService {
	return &MoraService{
		installmentRepo: installmentRepo,
		configRepo:      configRepo,
		now:             time.Now,
	}
}

// ComputeMora returns the late interest currently accrued on an installment.
// Returns zero for installments that are paid or within the grace period.
func (s *MoraService) ComputeMora(installmentID int32) (decimal.Decimal, error) {
	installment, err := s.installmentRepo.GetByID(installmentID)
	if err != nil {
		return decimal.Zero, err
	}

	cfg, err := s.configRepo.GetMoraConfig()
	if err != nil {
		return decimal.Zero, err
	}

	daysLate := installment.DaysOverdue(s.now())
	return LateInterest(installment.Remaining(), daysLate, cfg), nil
}

// LateInterest calculates mora for a remaining balance a number of days late.
// Days inside the grace period accrue nothing. A computed charge below the
// configured minimum is waived entirely, not raised to the minimum.
func LateInterest(remaining decimal.Decimal, daysLate int, cfg *domain.MoraConfiguration) decimal.Decimal {
	effectiveDays := daysLate - int(cfg.GraceDays)
	if effectiveDays <= 0 {
		return decimal.Zero
	}

	dailyRate := cfg.DailyRatePercent.Div(decimal.NewFromInt(100))
	interest := remaining.Mul(dailyRate).Mul(decimal.NewFromInt(int64(effectiveDays))).Round(2)

	if interest.LessThan(cfg.MinimumChargeAmount) {
		return decimal.Zero
	}
	return interest
}
