package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound            = errors.New("loan not found")
	ErrLoanPrincipalInvalid    = errors.New("loan principal must be positive")
	ErrLoanRateInvalid         = errors.New("interest rate must be between 0 and 100")
	ErrLoanInstallmentsInvalid = errors.New("installment count must be at least 1")
	ErrLoanFrequencyInvalid    = errors.New("invalid payment frequency")
	ErrLoanEndDateRequired     = errors.New("one-time loans require an explicit end date")
	ErrLoanNotActive           = errors.New("loan is not active")
	ErrClientHasActiveLoan     = errors.New("client already has an active loan")
)

// LoanFrequency controls how installment due dates advance.
type LoanFrequency string

const (
	FrequencyDaily    LoanFrequency = "daily"
	FrequencyWeekly   LoanFrequency = "weekly"
	FrequencyBiweekly LoanFrequency = "biweekly"
	FrequencyMonthly  LoanFrequency = "monthly"
	FrequencyOneTime  LoanFrequency = "one_time"
)

func (f LoanFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyOneTime:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanFinished  LoanStatus = "finished"
	LoanCancelled LoanStatus = "cancelled"
	LoanRenewed   LoanStatus = "renewed"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanFinished, LoanCancelled, LoanRenewed:
		return true
	}
	return false
}

type Loan struct {
	ID                  int32           `json:"id"`
	ClientID            int32           `json:"clientId"`
	Principal           decimal.Decimal `json:"principal"`
	InterestRatePercent decimal.Decimal `json:"interestRatePercent"`
	TotalPayable        decimal.Decimal `json:"totalPayable"`
	InstallmentCount    int32           `json:"installmentCount"`
	Frequency           LoanFrequency   `json:"frequency"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             time.Time       `json:"endDate"`
	Status              LoanStatus      `json:"status"`
	RenewedByLoanID     *int32          `json:"renewedByLoanId,omitempty"`
	Notes               *string         `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

func (l *Loan) Validate() error {
	if l.ClientID <= 0 {
		return ErrClientNotFound
	}
	if l.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrLoanPrincipalInvalid
	}
	if l.InterestRatePercent.IsNegative() || l.InterestRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrLoanRateInvalid
	}
	if l.InstallmentCount < 1 {
		return ErrLoanInstallmentsInvalid
	}
	if !l.Frequency.Valid() {
		return ErrLoanFrequencyInvalid
	}
	return nil
}

// IsOpen returns true while the loan can still receive payments
func (l *Loan) IsOpen() bool {
	return l.Status == LoanActive
}

// LoanProgress aggregates repayment state for a loan's read model
type LoanProgress struct {
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	PaidInstallments int32           `json:"paidInstallments"`
	ProgressPercent  int32           `json:"progressPercent"`
}

type LoanRepository interface {
	Create(loan *Loan) (*Loan, error)
	CreateTx(tx interface{}, loan *Loan) (*Loan, error)
	GetByID(id int32) (*Loan, error)
	GetActiveByClient(clientID int32) (*Loan, error)
	GetAllByClient(clientID int32) ([]*Loan, error)
	GetFinishedByClient(clientID int32) ([]*Loan, error)
	GetFinishedByClientTx(tx interface{}, clientID int32) ([]*Loan, error)
	UpdateStatus(id int32, status LoanStatus) error
	UpdateStatusTx(tx interface{}, id int32, status LoanStatus) error
	SetRenewedByTx(tx interface{}, id int32, newLoanID int32) error
	UpdateInstallmentCountTx(tx interface{}, id int32, count int32) error
}
