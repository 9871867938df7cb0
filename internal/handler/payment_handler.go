package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment and mora HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
	moraService    *service.MoraService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService, moraService *service.MoraService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, moraService: moraService}
}

// RegisterPaymentRequest represents the register payment request body
type RegisterPaymentRequest struct {
	// Amount defaults to the installment's remaining balance when omitted
	Amount         *string `json:"amount,omitempty"`
	OverflowPolicy string  `json:"overflowPolicy"`
	SpecialDate    *string `json:"specialDate,omitempty"`
	PaymentMethod  string  `json:"paymentMethod"`
	CashAmount     *string `json:"cashAmount,omitempty"`
	TransferAmount *string `json:"transferAmount,omitempty"`
	LateInterest   *string `json:"lateInterest,omitempty"`
}

// MoraQuoteResponse represents the late interest owed on an installment
type MoraQuoteResponse struct {
	InstallmentID int32  `json:"installmentId"`
	LateInterest  string `json:"lateInterest"`
}

// RegisterPayment godoc
// @Summary Register payment
// @Description Apply a payment to an installment, routing any shortfall per the overflow policy
// @Tags payments
// @Accept json
// @Produce json
// @Param id path int true "Installment ID"
// @Param payment body RegisterPaymentRequest true "Payment"
// @Success 200 {object} InstallmentResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /installments/{id}/payments [post]
func (h *PaymentHandler) RegisterPayment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid installment ID", nil)
	}

	var req RegisterPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := h.parseInput(c, req)
	if verr != nil {
		return verr
	}

	installment, err := h.paymentService.RegisterPayment(c.Request().Context(), int32(id), *input)
	if err != nil {
		if errors.Is(err, domain.ErrInstallmentNotFound) {
			return NewNotFoundError(c, "Installment not found")
		}
		if errors.Is(err, domain.ErrInstallmentAlreadyPaid) {
			return NewConflictError(c, "Installment is already paid")
		}
		if errors.Is(err, domain.ErrConcurrentModification) {
			return NewConflictError(c, "Installment is being paid by another collector")
		}
		if verr := paymentProblem(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Int("installment_id", id).Msg("Failed to register payment")
		return NewInternalError(c, "Failed to register payment")
	}

	log.Info().Int("installment_id", id).Int32("loan_id", installment.LoanID).
		Str("amount_paid", installment.AmountPaid.StringFixed(2)).Msg("Payment registered")

	return c.JSON(http.StatusOK, toInstallmentResponse(installment))
}

// GetInstallment handles GET /api/v1/installments/:id
func (h *PaymentHandler) GetInstallment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid installment ID", nil)
	}

	installment, err := h.paymentService.GetInstallment(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrInstallmentNotFound) {
			return NewNotFoundError(c, "Installment not found")
		}
		log.Error().Err(err).Int("installment_id", id).Msg("Failed to get installment")
		return NewInternalError(c, "Failed to get installment")
	}

	return c.JSON(http.StatusOK, toInstallmentResponse(installment))
}

// GetMoraQuote handles GET /api/v1/installments/:id/mora
// Returns the late interest owed as of today without charging it
func (h *PaymentHandler) GetMoraQuote(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid installment ID", nil)
	}

	mora, err := h.moraService.ComputeMora(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrInstallmentNotFound) {
			return NewNotFoundError(c, "Installment not found")
		}
		log.Error().Err(err).Int("installment_id", id).Msg("Failed to compute mora")
		return NewInternalError(c, "Failed to compute mora")
	}

	return c.JSON(http.StatusOK, MoraQuoteResponse{
		InstallmentID: int32(id),
		LateInterest:  mora.StringFixed(2),
	})
}

func (h *PaymentHandler) parseInput(c echo.Context, req RegisterPaymentRequest) (*service.RegisterPaymentInput, error) {
	input := &service.RegisterPaymentInput{
		OverflowPolicy: domain.OverflowPolicy(req.OverflowPolicy),
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
	}

	for _, field := range []struct {
		name string
		src  *string
		dst  **decimal.Decimal
	}{
		{"amount", req.Amount, &input.Amount},
		{"cashAmount", req.CashAmount, &input.CashAmount},
		{"transferAmount", req.TransferAmount, &input.TransferAmount},
		{"lateInterest", req.LateInterest, &input.LateInterest},
	} {
		if field.src == nil || *field.src == "" {
			continue
		}
		d, err := decimal.NewFromString(*field.src)
		if err != nil {
			return nil, NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: field.name, Message: "Must be a valid decimal number"},
			})
		}
		*field.dst = &d
	}

	if req.SpecialDate != nil && *req.SpecialDate != "" {
		t, err := time.Parse("2006-01-02", *req.SpecialDate)
		if err != nil {
			return nil, NewValidationError(c, "Invalid special date", []ValidationError{
				{Field: "specialDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.SpecialDate = &t
	}

	return input, nil
}

// paymentProblem maps payment validation errors to 400 responses, returning
// nil when the error is not a validation error
func paymentProblem(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrPaymentAmountInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidOverflowPolicy):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "overflowPolicy", Message: "Must be 'ignore', 'next' or 'special'"},
		})
	case errors.Is(err, domain.ErrSpecialDateRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "specialDate", Message: "Required for the special overflow policy"},
		})
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paymentMethod", Message: "Must be 'cash', 'transfer' or 'mixed'"},
		})
	case errors.Is(err, domain.ErrMixedSplitInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "cashAmount", Message: "Cash and transfer amounts must add up to the paid amount"},
		})
	}
	return nil
}
