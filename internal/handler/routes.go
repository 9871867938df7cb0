package handler

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, clientHandler *ClientHandler, loanHandler *LoanHandler, paymentHandler *PaymentHandler, configHandler *ConfigHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// Client routes
	clients := api.Group("/clients")
	clients.POST("", clientHandler.CreateClient)
	clients.GET("", clientHandler.GetClients)
	clients.GET("/:id", clientHandler.GetClient)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)
	clients.GET("/:id/credit-limit", clientHandler.GetCreditLimit)
	clients.GET("/:id/loans", loanHandler.GetClientLoans)

	// Loan routes
	loans := api.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.POST("/preview", loanHandler.PreviewSchedule)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.POST("/:id/renew", loanHandler.RenewLoan)
	loans.POST("/:id/settle", loanHandler.SettleLoan)

	// Installment and payment routes
	installments := api.Group("/installments")
	installments.GET("/:id", paymentHandler.GetInstallment)
	installments.GET("/:id/mora", paymentHandler.GetMoraQuote)
	installments.POST("/:id/payments", paymentHandler.RegisterPayment)

	// Configuration catalogs
	api.GET("/business-types", configHandler.GetBusinessTypes)
	api.GET("/credit-configurations", configHandler.GetCreditConfigs)
	api.GET("/mora-configuration", configHandler.GetMoraConfig)

	// Live collection feed
	e.GET("/ws", wsHandler.HandleWS)

	// API documentation
	e.GET("/openapi.json", ServeOpenAPI3Spec)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
