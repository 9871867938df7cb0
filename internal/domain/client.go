package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrClientNotFound      = errors.New("client not found")
	ErrClientNameEmpty     = errors.New("client first and last name are required")
	ErrClientNameTooLong   = errors.New("client name must be 100 characters or less")
	ErrClientPhoneEmpty    = errors.New("client phone is required")
	ErrClientHasLoans      = errors.New("client has loans and cannot be deleted")
	ErrClientInactive      = errors.New("client is inactive")
	ErrInvalidCategory     = errors.New("invalid client category")
	ErrInvalidClientStatus = errors.New("invalid client status")
)

// ClientCategory is the risk tier derived from payment punctuality.
type ClientCategory string

const (
	CategoryNew        ClientCategory = "new"
	CategoryRegular    ClientCategory = "regular"
	CategoryExcellent  ClientCategory = "excellent"
	CategoryDelinquent ClientCategory = "delinquent"
)

func (c ClientCategory) Valid() bool {
	switch c {
	case CategoryNew, CategoryRegular, CategoryExcellent, CategoryDelinquent:
		return true
	}
	return false
}

// ClientStatus indicates whether a client can take new loans.
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
)

func (s ClientStatus) Valid() bool {
	return s == ClientActive || s == ClientInactive
}

type Client struct {
	ID              int32           `json:"id"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	Category        ClientCategory  `json:"category"`
	Status          ClientStatus    `json:"status"`
	IndividualLimit decimal.Decimal `json:"individualLimit"` // zero means unset
	BusinessTypeID  *int32          `json:"businessTypeId,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (c *Client) Validate() error {
	if c.FirstName == "" || c.LastName == "" {
		return ErrClientNameEmpty
	}
	if len(c.FirstName) > 100 || len(c.LastName) > 100 {
		return ErrClientNameTooLong
	}
	if c.Phone == "" {
		return ErrClientPhoneEmpty
	}
	if !c.Category.Valid() {
		return ErrInvalidCategory
	}
	if !c.Status.Valid() {
		return ErrInvalidClientStatus
	}
	return nil
}

// FullName returns the client's display name
func (c *Client) FullName() string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

type ClientRepository interface {
	Create(client *Client) (*Client, error)
	GetByID(id int32) (*Client, error)
	GetAll() ([]*Client, error)
	Update(client *Client) (*Client, error)
	UpdateCategory(id int32, category ClientCategory) error
	UpdateCategoryTx(tx interface{}, id int32, category ClientCategory) error
	Delete(id int32) error
	CountLoans(id int32) (int64, error)
}
