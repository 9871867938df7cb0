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

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the create loan request body
type CreateLoanRequest struct {
	ClientID         int32   `json:"clientId"`
	Principal        string  `json:"principal"`
	InterestRate     string  `json:"interestRate"`
	InstallmentCount int32   `json:"installmentCount"`
	Frequency        string  `json:"frequency"`
	StartDate        string  `json:"startDate"`
	EndDate          *string `json:"endDate,omitempty"` // required for one_time loans
	Notes            *string `json:"notes,omitempty"`
}

// RenewLoanRequest represents the renew loan request body
type RenewLoanRequest struct {
	NewCapital       string  `json:"newCapital"`
	InterestRate     string  `json:"interestRate"`
	InstallmentCount int32   `json:"installmentCount"`
	Frequency        string  `json:"frequency"`
	EndDate          *string `json:"endDate,omitempty"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                  int32   `json:"id"`
	ClientID            int32   `json:"clientId"`
	Principal           string  `json:"principal"`
	InterestRatePercent string  `json:"interestRatePercent"`
	TotalPayable        string  `json:"totalPayable"`
	InstallmentCount    int32   `json:"installmentCount"`
	Frequency           string  `json:"frequency"`
	StartDate           string  `json:"startDate"`
	EndDate             string  `json:"endDate"`
	Status              string  `json:"status"`
	RenewedByLoanID     *int32  `json:"renewedByLoanId,omitempty"`
	Notes               *string `json:"notes,omitempty"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID                  int32   `json:"id"`
	LoanID              int32   `json:"loanId"`
	Number              int32   `json:"number"`
	Amount              string  `json:"amount"`
	AmountPaid          string  `json:"amountPaid"`
	DueDate             string  `json:"dueDate"`
	Status              string  `json:"status"`
	PaidDate            *string `json:"paidDate,omitempty"`
	PaymentMethod       *string `json:"paymentMethod,omitempty"`
	CashAmount          string  `json:"cashAmount"`
	TransferAmount      string  `json:"transferAmount"`
	LateInterestCharged string  `json:"lateInterestCharged"`
	ReceiptID           *string `json:"receiptId,omitempty"`
}

// LoanDetailResponse represents a loan with its schedule and progress
type LoanDetailResponse struct {
	Loan         LoanResponse          `json:"loan"`
	Installments []InstallmentResponse `json:"installments"`
	Progress     LoanProgressResponse  `json:"progress"`
}

// LoanProgressResponse represents repayment progress in API responses
type LoanProgressResponse struct {
	AmountPaid       string `json:"amountPaid"`
	RemainingBalance string `json:"remainingBalance"`
	PaidInstallments int32  `json:"paidInstallments"`
	ProgressPercent  int32  `json:"progressPercent"`
}

// SchedulePreviewResponse represents a schedule preview without persistence
type SchedulePreviewResponse struct {
	TotalPayable string                    `json:"totalPayable"`
	Installments []InstallmentPlanResponse `json:"installments"`
}

// InstallmentPlanResponse represents one planned installment
type InstallmentPlanResponse struct {
	Number  int32  `json:"number"`
	Amount  string `json:"amount"`
	DueDate string `json:"dueDate"`
}

// CreateLoan godoc
// @Summary Create loan
// @Description Create a loan with its full installment schedule, enforcing the client's credit ceiling
// @Tags loans
// @Accept json
// @Produce json
// @Param loan body CreateLoanRequest true "Loan terms"
// @Success 201 {object} LoanResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := h.parseCreateInput(c, req)
	if verr != nil {
		return verr
	}

	loan, err := h.loanService.CreateLoan(c.Request().Context(), *input)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return NewNotFoundError(c, "Client not found")
		}
		if errors.Is(err, domain.ErrClientInactive) {
			return NewConflictError(c, "Client is inactive")
		}
		if errors.Is(err, domain.ErrClientHasActiveLoan) {
			return NewConflictError(c, "Client already has an active loan")
		}
		var limitErr domain.CreditLimitExceededError
		if errors.As(err, &limitErr) {
			return NewConflictError(c, limitErr.Error())
		}
		if verr := loanTermsProblem(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Int32("client_id", req.ClientID).Msg("Failed to create loan")
		return NewInternalError(c, "Failed to create loan")
	}

	log.Info().Int32("loan_id", loan.ID).Int32("client_id", loan.ClientID).
		Str("principal", loan.Principal.StringFixed(2)).Msg("Loan created")

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// PreviewSchedule handles POST /api/v1/loans/preview
// Builds a schedule from the given terms without persisting anything
func (h *LoanHandler) PreviewSchedule(c echo.Context) error {
	var req CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := h.parseCreateInput(c, req)
	if verr != nil {
		return verr
	}

	plans, total, err := h.loanService.PreviewSchedule(*input)
	if err != nil {
		if verr := loanTermsProblem(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Msg("Failed to preview schedule")
		return NewInternalError(c, "Failed to preview schedule")
	}

	resp := SchedulePreviewResponse{
		TotalPayable: total.StringFixed(2),
		Installments: make([]InstallmentPlanResponse, len(plans)),
	}
	for i, p := range plans {
		resp.Installments[i] = InstallmentPlanResponse{
			Number:  p.Number,
			Amount:  p.Amount.StringFixed(2),
			DueDate: p.DueDate.Format("2006-01-02"),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	detail, err := h.loanService.GetLoan(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	installments := make([]InstallmentResponse, len(detail.Installments))
	for i, inst := range detail.Installments {
		installments[i] = toInstallmentResponse(inst)
	}

	return c.JSON(http.StatusOK, LoanDetailResponse{
		Loan:         toLoanResponse(detail.Loan),
		Installments: installments,
		Progress: LoanProgressResponse{
			AmountPaid:       detail.Progress.AmountPaid.StringFixed(2),
			RemainingBalance: detail.Progress.RemainingBalance.StringFixed(2),
			PaidInstallments: detail.Progress.PaidInstallments,
			ProgressPercent:  detail.Progress.ProgressPercent,
		},
	})
}

// GetClientLoans handles GET /api/v1/clients/:id/loans
func (h *LoanHandler) GetClientLoans(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	loans, err := h.loanService.GetClientLoans(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return NewNotFoundError(c, "Client not found")
		}
		log.Error().Err(err).Int("client_id", id).Msg("Failed to get client loans")
		return NewInternalError(c, "Failed to get client loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}
	return c.JSON(http.StatusOK, response)
}

// RenewLoan godoc
// @Summary Renew loan
// @Description Fold a loan's outstanding balance into a new loan with fresh terms
// @Tags loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param renewal body RenewLoanRequest true "Replacement terms"
// @Success 201 {object} LoanResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /loans/{id}/renew [post]
func (h *LoanHandler) RenewLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req RenewLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	newCapital, err := decimal.NewFromString(req.NewCapital)
	if err != nil {
		return NewValidationError(c, "Invalid new capital", []ValidationError{
			{Field: "newCapital", Message: "Must be a valid decimal number"},
		})
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		return NewValidationError(c, "Invalid interest rate", []ValidationError{
			{Field: "interestRate", Message: "Must be a valid decimal number"},
		})
	}
	endDate, ok := parseOptionalDate(req.EndDate)
	if !ok {
		return NewValidationError(c, "Invalid end date", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	loan, err := h.loanService.RenewLoan(c.Request().Context(), int32(id), service.RenewLoanInput{
		NewCapital:       newCapital,
		RatePercent:      rate,
		InstallmentCount: req.InstallmentCount,
		Frequency:        domain.LoanFrequency(req.Frequency),
		EndDateOverride:  endDate,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanNotActive) {
			return NewConflictError(c, "Loan is not active")
		}
		var renewErr domain.RenewalNotAllowedError
		if errors.As(err, &renewErr) {
			return NewConflictError(c, renewErr.Error())
		}
		var limitErr domain.CreditLimitExceededError
		if errors.As(err, &limitErr) {
			return NewConflictError(c, limitErr.Error())
		}
		if verr := loanTermsProblem(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to renew loan")
		return NewInternalError(c, "Failed to renew loan")
	}

	log.Info().Int("old_loan_id", id).Int32("new_loan_id", loan.ID).Msg("Loan renewed")

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// SettleLoan handles POST /api/v1/loans/:id/settle
// Closes every open installment and finishes the loan in one go
func (h *LoanHandler) SettleLoan(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.SettleLoan(c.Request().Context(), int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrLoanNotActive) {
			return NewConflictError(c, "Loan is not active")
		}
		log.Error().Err(err).Int("loan_id", id).Msg("Failed to settle loan")
		return NewInternalError(c, "Failed to settle loan")
	}

	log.Info().Int32("loan_id", loan.ID).Msg("Loan settled")

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

func (h *LoanHandler) parseCreateInput(c echo.Context, req CreateLoanRequest) (*service.CreateLoanInput, error) {
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return nil, NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		return nil, NewValidationError(c, "Invalid interest rate", []ValidationError{
			{Field: "interestRate", Message: "Must be a valid decimal number"},
		})
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, NewValidationError(c, "Invalid start date", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	endDate, ok := parseOptionalDate(req.EndDate)
	if !ok {
		return nil, NewValidationError(c, "Invalid end date", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	return &service.CreateLoanInput{
		ClientID:         req.ClientID,
		Principal:        principal,
		RatePercent:      rate,
		InstallmentCount: req.InstallmentCount,
		Frequency:        domain.LoanFrequency(req.Frequency),
		StartDate:        startDate,
		EndDateOverride:  endDate,
		Notes:            req.Notes,
	}, nil
}

// loanTermsProblem maps loan term validation errors to 400 responses,
// returning nil when the error is not a validation error
func loanTermsProblem(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLoanPrincipalInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "principal", Message: "Principal must be positive"},
		})
	case errors.Is(err, domain.ErrLoanRateInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "interestRate", Message: "Interest rate must be between 0 and 100"},
		})
	case errors.Is(err, domain.ErrLoanInstallmentsInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "installmentCount", Message: "Installment count must be at least 1"},
		})
	case errors.Is(err, domain.ErrLoanFrequencyInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "frequency", Message: "Must be 'daily', 'weekly', 'biweekly', 'monthly' or 'one_time'"},
		})
	case errors.Is(err, domain.ErrLoanEndDateRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "One-time loans require an explicit end date"},
		})
	}
	return nil
}

func parseOptionalDate(s *string) (*time.Time, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:                  loan.ID,
		ClientID:            loan.ClientID,
		Principal:           loan.Principal.StringFixed(2),
		InterestRatePercent: loan.InterestRatePercent.StringFixed(2),
		TotalPayable:        loan.TotalPayable.StringFixed(2),
		InstallmentCount:    loan.InstallmentCount,
		Frequency:           string(loan.Frequency),
		StartDate:           loan.StartDate.Format("2006-01-02"),
		EndDate:             loan.EndDate.Format("2006-01-02"),
		Status:              string(loan.Status),
		RenewedByLoanID:     loan.RenewedByLoanID,
		Notes:               loan.Notes,
		CreatedAt:           loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           loan.UpdatedAt.Format(time.RFC3339),
	}
}

func toInstallmentResponse(inst *domain.Installment) InstallmentResponse {
	resp := InstallmentResponse{
		ID:                  inst.ID,
		LoanID:              inst.LoanID,
		Number:              inst.Number,
		Amount:              inst.Amount.StringFixed(2),
		AmountPaid:          inst.AmountPaid.StringFixed(2),
		DueDate:             inst.DueDate.Format("2006-01-02"),
		Status:              string(inst.Status),
		CashAmount:          inst.CashAmount.StringFixed(2),
		TransferAmount:      inst.TransferAmount.StringFixed(2),
		LateInterestCharged: inst.LateInterestCharged.StringFixed(2),
		ReceiptID:           inst.ReceiptID,
	}
	if inst.PaidDate != nil {
		paidDate := inst.PaidDate.Format("2006-01-02")
		resp.PaidDate = &paidDate
	}
	if inst.PaymentMethod != nil {
		method := string(*inst.PaymentMethod)
		resp.PaymentMethod = &method
	}
	return resp
}
