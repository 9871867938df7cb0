package service

import (
	"context"
	"fmt"
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/util"
	"github.com/castellar/prestago/prestago-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// LoanService handles loan creation, renewal and settlement
type LoanService struct {
	txManager       domain.TxManager
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	clientRepo      domain.ClientRepository
	creditService   *CreditService
	clientService   *ClientService
	eventPublisher  websocket.EventPublisher
	now             func() time.Time
}

// NewLoanService creates a new LoanService
func NewLoanService(txManager domain.TxManager, loanRepo domain.LoanRepository, installmentRepo domain.InstallmentRepository, clientRepo domain.ClientRepository, creditService *CreditService, clientService *ClientService) *LoanService {
	return &LoanService{
		txManager:       txManager,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		clientRepo:      clientRepo,
		creditService:   creditService,
		clientService:   clientService,
		now:             time.Now,
	}
}

// SetEventPublisher sets the publisher for real-time dashboard updates
func (s *LoanService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LoanService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CreateLoanInput contains input for creating a loan
type CreateLoanInput struct {
	ClientID         int32
	Principal        decimal.Decimal
	RatePercent      decimal.Decimal
	InstallmentCount int32
	Frequency        domain.LoanFrequency
	StartDate        time.Time
	EndDateOverride  *time.Time
	Notes            *string
}

// CreateLoan validates the terms against the client's credit ceiling, builds
// the repayment schedule and persists the loan with all its installments in
// one transaction.
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput) (*domain.Loan, error) {
	client, err := s.clientRepo.GetByID(input.ClientID)
	if err != nil {
		return nil, err
	}
	if client.Status != domain.ClientActive {
		return nil, domain.ErrClientInactive
	}

	if _, err := s.loanRepo.GetActiveByClient(client.ID); err == nil {
		return nil, domain.ErrClientHasActiveLoan
	} else if err != domain.ErrLoanNotFound {
		return nil, err
	}

	plans, endDate, err := BuildSchedule(ScheduleInput{
		Principal:        input.Principal,
		RatePercent:      input.RatePercent,
		InstallmentCount: input.InstallmentCount,
		Frequency:        input.Frequency,
		StartDate:        input.StartDate,
		EndDateOverride:  input.EndDateOverride,
	})
	if err != nil {
		return nil, err
	}

	ceiling, err := s.creditService.ComputeMaxLendable(client.ID)
	if err != nil {
		return nil, err
	}
	if !ceiling.Unlimited && input.Principal.GreaterThan(ceiling.Amount) {
		return nil, domain.CreditLimitExceededError{Requested: input.Principal, Limit: ceiling.Amount}
	}

	loan := &domain.Loan{
		ClientID:            client.ID,
		Principal:           input.Principal,
		InterestRatePercent: input.RatePercent,
		TotalPayable:        TotalPayable(input.Principal, input.RatePercent),
		InstallmentCount:    int32(len(plans)),
		Frequency:           input.Frequency,
		StartDate:           util.TruncateToDay(input.StartDate),
		EndDate:             endDate,
		Status:              domain.LoanActive,
		Notes:               input.Notes,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Loan
	err = s.txManager.WithinTx(ctx, func(tx interface{}) error {
		created, err = s.loanRepo.CreateTx(tx, loan)
		if err != nil {
			return err
		}
		return s.installmentRepo.CreateBatchTx(tx, installmentsFromPlans(created.ID, plans))
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.LoanCreated(created))
	return created, nil
}

// LoanDetail is a loan with its schedule and repayment progress
type LoanDetail struct {
	Loan         *domain.Loan          `json:"loan"`
	Installments []*domain.Installment `json:"installments"`
	Progress     domain.LoanProgress   `json:"progress"`
}

// GetLoan retrieves a loan with its full schedule
func (s *LoanService) GetLoan(id int32) (*LoanDetail, error) {
	loan, err := s.loanRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	installments, err := s.installmentRepo.GetByLoanID(id)
	if err != nil {
		return nil, err
	}
	return &LoanDetail{
		Loan:         loan,
		Installments: installments,
		Progress:     ProgressOf(loan, installments),
	}, nil
}

// GetClientLoans retrieves all loans of a client
func (s *LoanService) GetClientLoans(clientID int32) ([]*domain.Loan, error) {
	if _, err := s.clientRepo.GetByID(clientID); err != nil {
		return nil, err
	}
	return s.loanRepo.GetAllByClient(clientID)
}

// PreviewSchedule builds a schedule without persisting anything
func (s *LoanService) PreviewSchedule(input CreateLoanInput) ([]InstallmentPlan, decimal.Decimal, error) {
	plans, _, err := BuildSchedule(ScheduleInput{
		Principal:        input.Principal,
		RatePercent:      input.RatePercent,
		InstallmentCount: input.InstallmentCount,
		Frequency:        input.Frequency,
		StartDate:        input.StartDate,
		EndDateOverride:  input.EndDateOverride,
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return plans, TotalPayable(input.Principal, input.RatePercent), nil
}

// RenewLoanInput contains the terms of the replacement loan
type RenewLoanInput struct {
	NewCapital       decimal.Decimal
	RatePercent      decimal.Decimal
	InstallmentCount int32
	Frequency        domain.LoanFrequency
	EndDateOverride  *time.Time
}

// RenewLoan folds a loan's outstanding balance into a new loan. The old
// loan's open installments are closed as a bookkeeping measure (the balance
// moves into the new principal, no cash changes hands) and the old loan is
// marked renewed with a back-reference to its replacement.
func (s *LoanService) RenewLoan(ctx context.Context, loanID int32, input RenewLoanInput) (*domain.Loan, error) {
	oldLoan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return nil, err
	}
	if oldLoan.Status != domain.LoanActive {
		return nil, domain.ErrLoanNotActive
	}

	if err := s.creditService.CanRenew(oldLoan.ClientID); err != nil {
		return nil, err
	}

	if input.NewCapital.IsNegative() {
		return nil, domain.ErrLoanPrincipalInvalid
	}
	ceiling, err := s.creditService.ComputeMaxLendableForRenewal(oldLoan.ClientID)
	if err != nil {
		return nil, err
	}
	if !ceiling.Unlimited && input.NewCapital.GreaterThan(ceiling.Amount) {
		return nil, domain.CreditLimitExceededError{Requested: input.NewCapital, Limit: ceiling.Amount}
	}

	installments, err := s.installmentRepo.GetByLoanID(oldLoan.ID)
	if err != nil {
		return nil, err
	}
	outstanding := OutstandingBalance(oldLoan, installments)

	today := util.TruncateToDay(s.now())
	principal := input.NewCapital.Add(outstanding)

	plans, endDate, err := BuildSchedule(ScheduleInput{
		Principal:        principal,
		RatePercent:      input.RatePercent,
		InstallmentCount: input.InstallmentCount,
		Frequency:        input.Frequency,
		StartDate:        today,
		EndDateOverride:  input.EndDateOverride,
	})
	if err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("Renewal of loan #%d. Prior balance: %s", oldLoan.ID, outstanding.StringFixed(2))
	newLoan := &domain.Loan{
		ClientID:            oldLoan.ClientID,
		Principal:           principal,
		InterestRatePercent: input.RatePercent,
		TotalPayable:        TotalPayable(principal, input.RatePercent),
		InstallmentCount:    int32(len(plans)),
		Frequency:           input.Frequency,
		StartDate:           today,
		EndDate:             endDate,
		Status:              domain.LoanActive,
		Notes:               &notes,
	}
	if err := newLoan.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Loan
	err = s.txManager.WithinTx(ctx, func(tx interface{}) error {
		// Close out what the old loan still owed; the debt now lives in the
		// new principal.
		for _, inst := range installments {
			if !inst.Status.Open() {
				continue
			}
			inst.AmountPaid = inst.Amount
			inst.Status = domain.InstallmentPaid
			inst.PaidDate = &today
			if err := s.installmentRepo.UpdateTx(tx, inst); err != nil {
				return err
			}
		}

		if err := s.loanRepo.UpdateStatusTx(tx, oldLoan.ID, domain.LoanRenewed); err != nil {
			return err
		}

		created, err = s.loanRepo.CreateTx(tx, newLoan)
		if err != nil {
			return err
		}
		if err := s.installmentRepo.CreateBatchTx(tx, installmentsFromPlans(created.ID, plans)); err != nil {
			return err
		}
		return s.loanRepo.SetRenewedByTx(tx, oldLoan.ID, created.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.LoanRenewed(created))
	return created, nil
}

// SettleLoan marks every open installment as paid today and finishes the
// loan, then recomputes the client's category.
func (s *LoanService) SettleLoan(ctx context.Context, loanID int32) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanActive {
		return nil, domain.ErrLoanNotActive
	}

	installments, err := s.installmentRepo.GetByLoanID(loan.ID)
	if err != nil {
		return nil, err
	}

	today := util.TruncateToDay(s.now())
	var recategorized *domain.ClientCategory
	err = s.txManager.WithinTx(ctx, func(tx interface{}) error {
		for _, inst := range installments {
			if !inst.Status.Open() {
				continue
			}
			inst.AmountPaid = inst.Amount
			inst.Status = domain.InstallmentPaid
			inst.PaidDate = &today
			if err := s.installmentRepo.UpdateTx(tx, inst); err != nil {
				return err
			}
		}
		if err := s.loanRepo.UpdateStatusTx(tx, loan.ID, domain.LoanFinished); err != nil {
			return err
		}
		category, changed, err := s.clientService.RecalculateCategoryTx(tx, loan.ClientID)
		if err != nil {
			return err
		}
		if changed {
			recategorized = &category
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loan.Status = domain.LoanFinished
	s.publishEvent(websocket.LoanFinished(loan))
	if recategorized != nil {
		s.publishEvent(websocket.ClientRecategorized(map[string]interface{}{
			"clientId": loan.ClientID,
			"category": *recategorized,
		}))
	}
	return loan, nil
}

// ProgressOf aggregates repayment progress over a loan's installments
func ProgressOf(loan *domain.Loan, installments []*domain.Installment) domain.LoanProgress {
	paid := decimal.Zero
	var paidCount int32
	for _, inst := range installments {
		paid = paid.Add(inst.AmountPaid)
		if inst.Status == domain.InstallmentPaid {
			paidCount++
		}
	}

	var percent int32
	if loan.InstallmentCount > 0 {
		percent = paidCount * 100 / loan.InstallmentCount
	}
	return domain.LoanProgress{
		AmountPaid:       paid,
		RemainingBalance: loan.TotalPayable.Sub(paid),
		PaidInstallments: paidCount,
		ProgressPercent:  percent,
	}
}

func installmentsFromPlans(loanID int32, plans []InstallmentPlan) []*domain.Installment {
	installments := make([]*domain.Installment, len(plans))
	for i, plan := range plans {
		installments[i] = &domain.Installment{
			LoanID:  loanID,
			Number:  plan.Number,
			Amount:  plan.Amount,
			DueDate: plan.DueDate,
			Status:  domain.InstallmentPending,
		}
	}
	return installments
}
