package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrCreditConfigNotFound = errors.New("credit configuration not found")
	ErrMoraConfigNotFound   = errors.New("mora configuration not found")
)

// CreditConfiguration holds the lending rules for one client category.
type CreditConfiguration struct {
	ID                   int32           `json:"id"`
	Category             ClientCategory  `json:"category"`
	MaxLoanAmount        decimal.Decimal `json:"maxLoanAmount"`     // zero means no category cap
	DebtMultiplePercent  decimal.Decimal `json:"debtMultiplePercent"`
	AllowRenewalWithDebt bool            `json:"allowRenewalWithDebt"`
	MinDaysBeforeRenewal int32           `json:"minDaysBeforeRenewal"`
}

// MoraConfiguration holds the late-interest accrual rules.
type MoraConfiguration struct {
	ID                  int32           `json:"id"`
	DailyRatePercent    decimal.Decimal `json:"dailyRatePercent"`
	GraceDays           int32           `json:"graceDays"`
	MinimumChargeAmount decimal.Decimal `json:"minimumChargeAmount"`
	AutoApply           bool            `json:"autoApply"`
}

// BackupConfiguration drives the scheduled database backup job.
type BackupConfiguration struct {
	FrequencyHours int32 `json:"frequencyHours"`
	KeepLast       int32 `json:"keepLast"`
}

type ConfigRepository interface {
	GetCreditConfig(category ClientCategory) (*CreditConfiguration, error)
	GetAllCreditConfigs() ([]*CreditConfiguration, error)
	GetMoraConfig() (*MoraConfiguration, error)
}
