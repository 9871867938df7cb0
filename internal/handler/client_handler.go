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

// ClientHandler handles client-related HTTP requests
type ClientHandler struct {
	clientService *service.ClientService
	creditService *service.CreditService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService *service.ClientService, creditService *service.CreditService) *ClientHandler {
	return &ClientHandler{clientService: clientService, creditService: creditService}
}

// CreateClientRequest represents the create client request body
type CreateClientRequest struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	IndividualLimit *string `json:"individualLimit,omitempty"`
	BusinessTypeID  *int32  `json:"businessTypeId,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// UpdateClientRequest represents the update client request body.
// Category is intentionally absent; it is derived from payment history.
type UpdateClientRequest struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	Status          string  `json:"status"`
	IndividualLimit *string `json:"individualLimit,omitempty"`
	BusinessTypeID  *int32  `json:"businessTypeId,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID              int32   `json:"id"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	FullName        string  `json:"fullName"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	Category        string  `json:"category"`
	Status          string  `json:"status"`
	IndividualLimit string  `json:"individualLimit"`
	BusinessTypeID  *int32  `json:"businessTypeId,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// LendingCeilingResponse represents the resolved credit ceiling for a client
type LendingCeilingResponse struct {
	Amount    string `json:"amount"`
	Unlimited bool   `json:"unlimited"`
}

// CreateClient godoc
// @Summary Create client
// @Description Register a new client; new clients always start in the "new" category
// @Tags clients
// @Accept json
// @Produce json
// @Param client body CreateClientRequest true "Client"
// @Success 201 {object} ClientResponse
// @Failure 400 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /clients [post]
func (h *ClientHandler) CreateClient(c echo.Context) error {
	var req CreateClientRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	limit, ok := parseOptionalDecimal(req.IndividualLimit)
	if !ok {
		return NewValidationError(c, "Invalid individual limit", []ValidationError{
			{Field: "individualLimit", Message: "Must be a valid decimal number"},
		})
	}

	client, err := h.clientService.CreateClient(service.CreateClientInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Address:         req.Address,
		IndividualLimit: limit,
		BusinessTypeID:  req.BusinessTypeID,
		Notes:           req.Notes,
	})
	if err != nil {
		if verr := clientValidationProblem(c, err); verr != nil {
			return verr
		}
		if errors.Is(err, domain.ErrBusinessTypeNotFound) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "businessTypeId", Message: "Unknown business type"},
			})
		}
		log.Error().Err(err).Msg("Failed to create client")
		return NewInternalError(c, "Failed to create client")
	}

	log.Info().Int32("client_id", client.ID).Str("name", client.FullName()).Msg("Client created")

	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// GetClients handles GET /api/v1/clients
func (h *ClientHandler) GetClients(c echo.Context) error {
	clients, err := h.clientService.GetClients()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get clients")
		return NewInternalError(c, "Failed to get clients")
	}

	response := make([]ClientResponse, len(clients))
	for i, client := range clients {
		response[i] = toClientResponse(client)
	}
	return c.JSON(http.StatusOK, response)
}

// GetClient handles GET /api/v1/clients/:id
func (h *ClientHandler) GetClient(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	client, err := h.clientService.GetClient(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return NewNotFoundError(c, "Client not found")
		}
		log.Error().Err(err).Int("client_id", id).Msg("Failed to get client")
		return NewInternalError(c, "Failed to get client")
	}

	return c.JSON(http.StatusOK, toClientResponse(client))
}

// UpdateClient handles PUT /api/v1/clients/:id
func (h *ClientHandler) UpdateClient(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	var req UpdateClientRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	limit, ok := parseOptionalDecimal(req.IndividualLimit)
	if !ok {
		return NewValidationError(c, "Invalid individual limit", []ValidationError{
			{Field: "individualLimit", Message: "Must be a valid decimal number"},
		})
	}

	client, err := h.clientService.UpdateClient(int32(id), service.UpdateClientInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Address:         req.Address,
		Status:          domain.ClientStatus(req.Status),
		IndividualLimit: limit,
		BusinessTypeID:  req.BusinessTypeID,
		Notes:           req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return NewNotFoundError(c, "Client not found")
		}
		if verr := clientValidationProblem(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Int("client_id", id).Msg("Failed to update client")
		return NewInternalError(c, "Failed to update client")
	}

	log.Info().Int32("client_id", client.ID).Msg("Client updated")

	return c.JSON(http.StatusOK, toClientResponse(client))
}

// DeleteClient handles DELETE /api/v1/clients/:id
func (h *ClientHandler) DeleteClient(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	if err := h.clientService.DeleteClient(int32(id)); err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return NewNotFoundError(c, "Client not found")
		}
		if errors.Is(err, domain.ErrClientHasLoans) {
			return NewConflictError(c, "Client has loans and cannot be deleted")
		}
		log.Error().Err(err).Int("client_id", id).Msg("Failed to delete client")
		return NewInternalError(c, "Failed to delete client")
	}

	log.Info().Int("client_id", id).Msg("Client deleted")
	return c.NoContent(http.StatusNoContent)
}

// GetCreditLimit handles GET /api/v1/clients/:id/credit-limit
// Returns the maximum amount that can be lent to the client right now.
func (h *ClientHandler) GetCreditLimit(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid client ID", nil)
	}

	ceiling, err := h.creditService.ComputeMaxLendable(int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return NewNotFoundError(c, "Client not found")
		}
		log.Error().Err(err).Int("client_id", id).Msg("Failed to compute credit limit")
		return NewInternalError(c, "Failed to compute credit limit")
	}

	resp := LendingCeilingResponse{Unlimited: ceiling.Unlimited}
	if !ceiling.Unlimited {
		resp.Amount = ceiling.Amount.StringFixed(2)
	}
	return c.JSON(http.StatusOK, resp)
}

// clientValidationProblem maps client validation errors to 400 responses,
// returning nil when the error is not a validation error
func clientValidationProblem(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrClientNameEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "firstName", Message: "First and last name are required"},
		})
	case errors.Is(err, domain.ErrClientNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "firstName", Message: "Names must be 100 characters or less"},
		})
	case errors.Is(err, domain.ErrClientPhoneEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "phone", Message: "Phone is required"},
		})
	case errors.Is(err, domain.ErrInvalidClientStatus):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "status", Message: "Must be 'active' or 'inactive'"},
		})
	}
	return nil
}

func parseOptionalDecimal(s *string) (decimal.Decimal, bool) {
	if s == nil || *s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func toClientResponse(client *domain.Client) ClientResponse {
	return ClientResponse{
		ID:              client.ID,
		FirstName:       client.FirstName,
		LastName:        client.LastName,
		FullName:        client.FullName(),
		Phone:           client.Phone,
		Address:         client.Address,
		Category:        string(client.Category),
		Status:          string(client.Status),
		IndividualLimit: client.IndividualLimit.StringFixed(2),
		BusinessTypeID:  client.BusinessTypeID,
		Notes:           client.Notes,
		CreatedAt:       client.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       client.UpdatedAt.Format(time.RFC3339),
	}
}
