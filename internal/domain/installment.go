package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrInstallmentAlreadyPaid = errors.New("installment is already paid")
	ErrPaymentAmountInvalid   = errors.New("payment amount must be positive")
	ErrInvalidOverflowPolicy  = errors.New("invalid overflow policy")
	ErrSpecialDateRequired    = errors.New("special installment date is required")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrMixedSplitInvalid      = errors.New("mixed payment split must add up to the paid amount")
	ErrConcurrentModification = errors.New("installment was modified by a concurrent payment")
)

type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "pending"
	InstallmentPaid          InstallmentStatus = "paid"
	InstallmentPartiallyPaid InstallmentStatus = "partially_paid"
)

func (s InstallmentStatus) Valid() bool {
	switch s {
	case InstallmentPending, InstallmentPaid, InstallmentPartiallyPaid:
		return true
	}
	return false
}

// Open reports whether the installment still owes money.
func (s InstallmentStatus) Open() bool {
	return s == InstallmentPending || s == InstallmentPartiallyPaid
}

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodMixed    PaymentMethod = "mixed"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodTransfer, MethodMixed:
		return true
	}
	return false
}

// OverflowPolicy decides where the unpaid remainder of an installment goes
// after a partial payment.
type OverflowPolicy string

const (
	// OverflowIgnore leaves the remainder owed on the same installment.
	OverflowIgnore OverflowPolicy = "ignore"
	// OverflowNext moves the remainder onto the next open installment and
	// closes the current one.
	OverflowNext OverflowPolicy = "next"
	// OverflowSpecial carves the remainder into a brand-new installment due
	// on a caller-supplied date and closes the current one.
	OverflowSpecial OverflowPolicy = "special"
)

func (p OverflowPolicy) Valid() bool {
	switch p {
	case OverflowIgnore, OverflowNext, OverflowSpecial:
		return true
	}
	return false
}

type Installment struct {
	ID                  int32             `json:"id"`
	LoanID              int32             `json:"loanId"`
	Number              int32             `json:"number"`
	Amount              decimal.Decimal   `json:"amount"`
	AmountPaid          decimal.Decimal   `json:"amountPaid"`
	DueDate             time.Time         `json:"dueDate"`
	Status              InstallmentStatus `json:"status"`
	PaidDate            *time.Time        `json:"paidDate,omitempty"`
	PaymentMethod       *PaymentMethod    `json:"paymentMethod,omitempty"`
	CashAmount          decimal.Decimal   `json:"cashAmount"`
	TransferAmount      decimal.Decimal   `json:"transferAmount"`
	LateInterestCharged decimal.Decimal   `json:"lateInterestCharged"`
	ReceiptID           *string           `json:"receiptId,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// Remaining returns the unpaid balance of this installment
func (i *Installment) Remaining() decimal.Decimal {
	return i.Amount.Sub(i.AmountPaid)
}

// IsOverdue reports whether the installment is unpaid past its due date
func (i *Installment) IsOverdue(today time.Time) bool {
	if i.Status == InstallmentPaid {
		return false
	}
	return i.DueDate.Before(truncateToDay(today))
}

// DaysOverdue returns whole days past the due date, zero when not overdue
func (i *Installment) DaysOverdue(today time.Time) int {
	if !i.IsOverdue(today) {
		return 0
	}
	return int(truncateToDay(today).Sub(truncateToDay(i.DueDate)).Hours() / 24)
}

// PaidOnTime reports whether the installment was settled on or before its due
// date. Unpaid installments are never on time.
func (i *Installment) PaidOnTime() bool {
	return i.PaidDate != nil && !i.PaidDate.After(i.DueDate)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type InstallmentRepository interface {
	CreateBatchTx(tx interface{}, installments []*Installment) error
	CreateTx(tx interface{}, installment *Installment) (*Installment, error)
	GetByID(id int32) (*Installment, error)
	// GetByIDForUpdateTx locks the installment row for the duration of the
	// transaction. Returns ErrConcurrentModification when the row is already
	// locked by another payment.
	GetByIDForUpdateTx(tx interface{}, id int32) (*Installment, error)
	GetByLoanID(loanID int32) ([]*Installment, error)
	GetByLoanIDs(loanIDs []int32) ([]*Installment, error)
	GetByLoanIDsTx(tx interface{}, loanIDs []int32) ([]*Installment, error)
	// GetNextOpenTx returns the lowest-numbered open installment after the
	// given number within the same loan, or ErrInstallmentNotFound.
	GetNextOpenTx(tx interface{}, loanID int32, afterNumber int32) (*Installment, error)
	UpdateTx(tx interface{}, installment *Installment) error
	MaxNumberTx(tx interface{}, loanID int32) (int32, error)
	CountOpenTx(tx interface{}, loanID int32) (int64, error)
}
