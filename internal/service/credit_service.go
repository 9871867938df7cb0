package service

import (
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/util"
	"github.com/shopspring/decimal"
)

// LendingCeiling is the resolved maximum additional amount a client may
// borrow. Unlimited is set when no limit rule applies at any level.
type LendingCeiling struct {
	Amount    decimal.Decimal `json:"amount"`
	Unlimited bool            `json:"unlimited"`
}

// CreditService resolves lending ceilings and renewal eligibility
type CreditService struct {
	clientRepo       domain.ClientRepository
	loanRepo         domain.LoanRepository
	installmentRepo  domain.InstallmentRepository
	businessTypeRepo domain.BusinessTypeRepository
	configRepo       domain.ConfigRepository
	now              func() time.Time
}

// NewCreditService creates a new CreditService
func NewCreditService(clientRepo domain.ClientRepository, loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository, businessTypeRepo domain.BusinessTypeRepository, configRepo domain.ConfigRepository) *CreditService {
	return &CreditService{
		clientRepo:       clientRepo,
		loanRepo:         loanRepo,
		installmentRepo:  installmentRepo,
		businessTypeRepo: businessTypeRepo,
		configRepo:       configRepo,
		now:              time.Now,
	}
}

// ComputeMaxLendable resolves the lending ceiling for a client against their
// current outstanding debt.
func (s *CreditService) ComputeMaxLendable(clientID int32) (*LendingCeiling, error) {
	client, err := s.clientRepo.GetByID(clientID)
	if err != nil {
		return nil, err
	}

	debt, _, err := s.outstandingDebt(clientID)
	if err != nil {
		return nil, err
	}

	return s.resolveCeiling(client, debt)
}

// ComputeMaxLendableForRenewal resolves the ceiling for new capital in a
// renewal. The old balance is folded into the new loan rather than being a
// net new obligation, so it is added back on top of the regular ceiling.
func (s *CreditService) ComputeMaxLendableForRenewal(clientID int32) (*LendingCeiling, error) {
	client, err := s.clientRepo.GetByID(clientID)
	if err != nil {
		return nil, err
	}

	debt, _, err := s.outstandingDebt(clientID)
	if err != nil {
		return nil, err
	}

	ceiling, err := s.resolveCeiling(client, debt)
	if err != nil {
		return nil, err
	}
	if ceiling.Unlimited {
		return ceiling, nil
	}
	return &LendingCeiling{Amount: ceiling.Amount.Add(debt)}, nil
}

// CanRenew checks a client's renewal eligibility against the category rules.
// A nil error means renewal is allowed; otherwise a RenewalNotAllowedError
// explains the refusal.
func (s *CreditService) CanRenew(clientID int32) error {
	client, err := s.clientRepo.GetByID(clientID)
	if err != nil {
		return err
	}

	activeLoan, err := s.loanRepo.GetActiveByClient(clientID)
	if err == domain.ErrLoanNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := s.configRepo.GetCreditConfig(client.Category)
	if err != nil {
		return err
	}

	debt, _, err := s.outstandingDebt(clientID)
	if err != nil {
		return err
	}

	if !cfg.AllowRenewalWithDebt && debt.IsPositive() {
		return domain.RenewalNotAllowedError{Reason: "category does not allow renewal with outstanding debt"}
	}
	if days := util.DaysBetween(activeLoan.StartDate, s.now()); days < int(cfg.MinDaysBeforeRenewal) {
		return domain.RenewalNotAllowedError{Reason: "minimum days before renewal not reached"}
	}
	return nil
}

// outstandingDebt returns the active loan's remaining payable and the loan
// itself, or zero and nil when the client has no active loan.
func (s *CreditService) outstandingDebt(clientID int32) (decimal.Decimal, *domain.Loan, error) {
	loan, err := s.loanRepo.GetActiveByClient(clientID)
	if err == domain.ErrLoanNotFound {
		return decimal.Zero, nil, nil
	}
	if err != nil {
		return decimal.Zero, nil, err
	}

	installments, err := s.installmentRepo.GetByLoanID(loan.ID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return OutstandingBalance(loan, installments), loan, nil
}

func (s *CreditService) resolveCeiling(client *domain.Client, debt decimal.Decimal) (*LendingCeiling, error) {
	cfg, err := s.configRepo.GetCreditConfig(client.Category)
	if err != nil {
		return nil, err
	}

	var businessLimit decimal.Decimal
	if client.BusinessTypeID != nil {
		bt, err := s.businessTypeRepo.GetByID(*client.BusinessTypeID)
		if err != nil && err != domain.ErrBusinessTypeNotFound {
			return nil, err
		}
		if bt != nil {
			businessLimit = bt.SuggestedLimit
		}
	}

	return ResolveCeiling(client.IndividualLimit, cfg.MaxLoanAmount, businessLimit, cfg.DebtMultiplePercent, debt), nil
}

// ResolveCeiling applies the configured limit rules against current debt.
// Each configured rule contributes one candidate ceiling; the most
// restrictive one wins, floored at zero. With no rules configured the result
// is unlimited.
func ResolveCeiling(individualLimit, categoryMax, businessLimit, debtMultiplePercent, debt decimal.Decimal) *LendingCeiling {
	var candidates []decimal.Decimal

	if individualLimit.IsPositive() {
		candidates = append(candidates, individualLimit.Sub(debt))
	}
	if categoryMax.IsPositive() {
		candidates = append(candidates, categoryMax.Sub(debt))
	}
	if businessLimit.IsPositive() {
		candidates = append(candidates, businessLimit.Sub(debt))
	}
	// The debt multiple grants headroom proportional to debt already owed,
	// so it is not reduced by the debt itself.
	if debtMultiplePercent.IsPositive() && debt.IsPositive() {
		candidates = append(candidates, debt.Mul(debtMultiplePercent).Div(decimal.NewFromInt(100)).Round(2))
	}

	if len(candidates) == 0 {
		return &LendingCeiling{Unlimited: true}
	}

	min := candidates[0]
	for _, c := range candidates[1:] {
		if c.LessThan(min) {
			min = c
		}
	}
	if min.IsNegative() {
		min = decimal.Zero
	}
	return &LendingCeiling{Amount: min}
}

// OutstandingBalance returns a loan's total payable minus everything paid
// across its installments.
func OutstandingBalance(loan *domain.Loan, installments []*domain.Installment) decimal.Decimal {
	paid := decimal.Zero
	for _, inst := range installments {
		paid = paid.Add(inst.AmountPaid)
	}
	return loan.TotalPayable.Sub(paid)
}
