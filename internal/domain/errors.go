package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CreditLimitExceededError reports a requested amount above the resolved
// lending ceiling.
type CreditLimitExceededError struct {
	Requested decimal.Decimal
	Limit     decimal.Decimal
}

func (e CreditLimitExceededError) Error() string {
	return fmt.Sprintf("requested amount %s exceeds credit limit %s", e.Requested.StringFixed(2), e.Limit.StringFixed(2))
}

// RenewalNotAllowedError reports why a loan cannot be renewed.
type RenewalNotAllowedError struct {
	Reason string
}

func (e RenewalNotAllowedError) Error() string {
	return fmt.Sprintf("renewal not allowed: %s", e.Reason)
}
