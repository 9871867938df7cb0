package service

import (
	"context"
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/util"
	"github.com/castellar/prestago/prestago-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService is the installment state machine. It applies collection
// events to installments, routes partial-payment overflow per policy, and
// cascades loan completion into client recategorization.
type PaymentService struct {
	txManager       domain.TxManager
	installmentRepo domain.InstallmentRepository
	loanRepo        domain.LoanRepository
	clientService   *ClientService
	eventPublisher  websocket.EventPublisher
	now             func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(txManager domain.TxManager, installmentRepo domain.InstallmentRepository, loanRepo domain.LoanRepository, clientService *ClientService) *PaymentService {
	return &PaymentService{
		txManager:       txManager,
		installmentRepo: installmentRepo,
		loanRepo:        loanRepo,
		clientService:   clientService,
		now:             time.Now,
	}
}

// SetEventPublisher sets the publisher for real-time dashboard updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PaymentService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// RegisterPaymentInput contains a single collection event
type RegisterPaymentInput struct {
	// Amount defaults to the installment's remaining balance when nil
	Amount         *decimal.Decimal
	OverflowPolicy domain.OverflowPolicy
	// SpecialDate is the due date of the carved-out installment; required by
	// the special overflow policy
	SpecialDate    *time.Time
	PaymentMethod  domain.PaymentMethod
	CashAmount     *decimal.Decimal
	TransferAmount *decimal.Decimal
	// LateInterest, when positive, accumulates onto the installment's mora
	// charge
	LateInterest *decimal.Decimal
}

func (input RegisterPaymentInput) validate() error {
	if !input.PaymentMethod.Valid() {
		return domain.ErrInvalidPaymentMethod
	}
	if !input.OverflowPolicy.Valid() {
		return domain.ErrInvalidOverflowPolicy
	}
	if input.OverflowPolicy == domain.OverflowSpecial && input.SpecialDate == nil {
		return domain.ErrSpecialDateRequired
	}
	if input.Amount != nil && input.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrPaymentAmountInvalid
	}
	return nil
}

// RegisterPayment applies a payment to an installment. The whole call runs in
// one transaction with the installment row locked, so two collectors racing
// on the same installment cannot both succeed.
func (s *PaymentService) RegisterPayment(ctx context.Context, installmentID int32, input RegisterPaymentInput) (*domain.Installment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var (
		result        *domain.Installment
		finishedLoan  *domain.Loan
		recategorized *domain.ClientCategory
	)

	err := s.txManager.WithinTx(ctx, func(tx interface{}) error {
		installment, err := s.installmentRepo.GetByIDForUpdateTx(tx, installmentID)
		if err != nil {
			return err
		}
		if !installment.Status.Open() {
			return domain.ErrInstallmentAlreadyPaid
		}

		loan, err := s.loanRepo.GetByID(installment.LoanID)
		if err != nil {
			return err
		}

		amount := installment.Remaining()
		if input.Amount != nil {
			amount = *input.Amount
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			return domain.ErrPaymentAmountInvalid
		}

		if err := s.recordSplit(installment, amount, input); err != nil {
			return err
		}

		today := util.TruncateToDay(s.now())
		overflow := Allocate(installment, amount, today)

		receipt := uuid.NewString()
		installment.ReceiptID = &receipt
		method := input.PaymentMethod
		installment.PaymentMethod = &method
		if input.LateInterest != nil && input.LateInterest.IsPositive() {
			installment.LateInterestCharged = installment.LateInterestCharged.Add(*input.LateInterest)
		}

		if overflow.IsPositive() {
			if err := s.routeOverflow(tx, installment, loan, overflow, input); err != nil {
				return err
			}
		}

		if err := s.installmentRepo.UpdateTx(tx, installment); err != nil {
			return err
		}

		open, err := s.installmentRepo.CountOpenTx(tx, loan.ID)
		if err != nil {
			return err
		}
		if open == 0 {
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
			loan.Status = domain.LoanFinished
			finishedLoan = loan
		}

		result = installment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.PaymentRecorded(result))
	if finishedLoan != nil {
		s.publishEvent(websocket.LoanFinished(finishedLoan))
	}
	if recategorized != nil && finishedLoan != nil {
		s.publishEvent(websocket.ClientRecategorized(map[string]interface{}{
			"clientId": finishedLoan.ClientID,
			"category": *recategorized,
		}))
	}
	return result, nil
}

// Allocate applies a payment amount to the installment and returns the
// overflow: what the installment's previous remaining balance still exceeds
// the payment by. A non-positive overflow means the installment was fully
// covered (any excess beyond its own amount is clamped off, never absorbed
// here).
func Allocate(installment *domain.Installment, amount decimal.Decimal, today time.Time) decimal.Decimal {
	previousRemaining := installment.Remaining()

	installment.AmountPaid = installment.AmountPaid.Add(amount)
	if installment.AmountPaid.GreaterThan(installment.Amount) {
		installment.AmountPaid = installment.Amount
	}
	installment.PaidDate = &today

	if installment.AmountPaid.GreaterThanOrEqual(installment.Amount) {
		installment.Status = domain.InstallmentPaid
	} else {
		installment.Status = domain.InstallmentPartiallyPaid
	}

	return previousRemaining.Sub(amount)
}

// routeOverflow moves an unpaid remainder off the installment per policy.
// With the ignore policy the remainder simply stays owed here.
func (s *PaymentService) routeOverflow(tx interface{}, installment *domain.Installment, loan *domain.Loan, overflow decimal.Decimal, input RegisterPaymentInput) error {
	switch input.OverflowPolicy {
	case domain.OverflowIgnore:
		return nil

	case domain.OverflowNext:
		next, err := s.installmentRepo.GetNextOpenTx(tx, loan.ID, installment.Number)
		if err == domain.ErrInstallmentNotFound {
			// No later installment to carry the debt; it stays here.
			return nil
		}
		if err != nil {
			return err
		}
		next.Amount = next.Amount.Add(overflow)
		if err := s.installmentRepo.UpdateTx(tx, next); err != nil {
			return err
		}
		// The deficit moved forward, so today's installment counts as paid.
		installment.Status = domain.InstallmentPaid
		return nil

	case domain.OverflowSpecial:
		maxNumber, err := s.installmentRepo.MaxNumberTx(tx, loan.ID)
		if err != nil {
			return err
		}
		special := &domain.Installment{
			LoanID:  loan.ID,
			Number:  maxNumber + 1,
			Amount:  overflow,
			DueDate: util.TruncateToDay(*input.SpecialDate),
			Status:  domain.InstallmentPending,
		}
		if _, err := s.installmentRepo.CreateTx(tx, special); err != nil {
			return err
		}
		if err := s.loanRepo.UpdateInstallmentCountTx(tx, loan.ID, maxNumber+1); err != nil {
			return err
		}
		installment.Status = domain.InstallmentPaid
		return nil
	}
	return domain.ErrInvalidOverflowPolicy
}

// recordSplit books the cash/transfer components of the payment
func (s *PaymentService) recordSplit(installment *domain.Installment, amount decimal.Decimal, input RegisterPaymentInput) error {
	switch input.PaymentMethod {
	case domain.MethodCash:
		installment.CashAmount = installment.CashAmount.Add(amount)
	case domain.MethodTransfer:
		installment.TransferAmount = installment.TransferAmount.Add(amount)
	case domain.MethodMixed:
		if input.CashAmount == nil || input.TransferAmount == nil {
			return domain.ErrMixedSplitInvalid
		}
		if !input.CashAmount.Add(*input.TransferAmount).Equal(amount) {
			return domain.ErrMixedSplitInvalid
		}
		installment.CashAmount = installment.CashAmount.Add(*input.CashAmount)
		installment.TransferAmount = installment.TransferAmount.Add(*input.TransferAmount)
	}
	return nil
}

// GetInstallment retrieves a single installment
func (s *PaymentService) GetInstallment(id int32) (*domain.Installment, error) {
	return s.installmentRepo.GetByID(id)
}
