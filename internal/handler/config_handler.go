package handler

import (
	"net/http"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ConfigHandler serves the lending configuration catalogs
type ConfigHandler struct {
	configRepo       domain.ConfigRepository
	businessTypeRepo domain.BusinessTypeRepository
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(configRepo domain.ConfigRepository, businessTypeRepo domain.BusinessTypeRepository) *ConfigHandler {
	return &ConfigHandler{configRepo: configRepo, businessTypeRepo: businessTypeRepo}
}

// BusinessTypeResponse represents a business type catalog entry
type BusinessTypeResponse struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	SuggestedLimit string `json:"suggestedLimit"`
	SortOrder      int32  `json:"sortOrder"`
}

// CreditConfigResponse represents the lending rules for one client category
type CreditConfigResponse struct {
	Category             string `json:"category"`
	MaxLoanAmount        string `json:"maxLoanAmount"`
	DebtMultiplePercent  string `json:"debtMultiplePercent"`
	AllowRenewalWithDebt bool   `json:"allowRenewalWithDebt"`
	MinDaysBeforeRenewal int32  `json:"minDaysBeforeRenewal"`
}

// MoraConfigResponse represents the late interest accrual rules
type MoraConfigResponse struct {
	DailyRatePercent    string `json:"dailyRatePercent"`
	GraceDays           int32  `json:"graceDays"`
	MinimumChargeAmount string `json:"minimumChargeAmount"`
	AutoApply           bool   `json:"autoApply"`
}

// GetBusinessTypes handles GET /api/v1/business-types
func (h *ConfigHandler) GetBusinessTypes(c echo.Context) error {
	types, err := h.businessTypeRepo.GetAllActive()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get business types")
		return NewInternalError(c, "Failed to get business types")
	}

	response := make([]BusinessTypeResponse, len(types))
	for i, bt := range types {
		response[i] = BusinessTypeResponse{
			ID:             bt.ID,
			Name:           bt.Name,
			SuggestedLimit: bt.SuggestedLimit.StringFixed(2),
			SortOrder:      bt.SortOrder,
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetCreditConfigs handles GET /api/v1/credit-configurations
func (h *ConfigHandler) GetCreditConfigs(c echo.Context) error {
	configs, err := h.configRepo.GetAllCreditConfigs()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get credit configurations")
		return NewInternalError(c, "Failed to get credit configurations")
	}

	response := make([]CreditConfigResponse, len(configs))
	for i, cfg := range configs {
		response[i] = CreditConfigResponse{
			Category:             string(cfg.Category),
			MaxLoanAmount:        cfg.MaxLoanAmount.StringFixed(2),
			DebtMultiplePercent:  cfg.DebtMultiplePercent.StringFixed(2),
			AllowRenewalWithDebt: cfg.AllowRenewalWithDebt,
			MinDaysBeforeRenewal: cfg.MinDaysBeforeRenewal,
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetMoraConfig handles GET /api/v1/mora-configuration
func (h *ConfigHandler) GetMoraConfig(c echo.Context) error {
	cfg, err := h.configRepo.GetMoraConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get mora configuration")
		return NewInternalError(c, "Failed to get mora configuration")
	}

	return c.JSON(http.StatusOK, MoraConfigResponse{
		DailyRatePercent:    cfg.DailyRatePercent.StringFixed(2),
		GraceDays:           cfg.GraceDays,
		MinimumChargeAmount: cfg.MinimumChargeAmount.StringFixed(2),
		AutoApply:           cfg.AutoApply,
	})
}
