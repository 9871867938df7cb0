package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrBusinessTypeNotFound = errors.New("business type not found")

// BusinessType is a catalog entry carrying a suggested credit limit for
// clients running that kind of business.
type BusinessType struct {
	ID             int32           `json:"id"`
	Name           string          `json:"name"`
	SuggestedLimit decimal.Decimal `json:"suggestedLimit"` // zero means no suggestion
	SortOrder      int32           `json:"sortOrder"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type BusinessTypeRepository interface {
	GetByID(id int32) (*BusinessType, error)
	GetAllActive() ([]*BusinessType, error)
}
