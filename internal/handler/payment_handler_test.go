package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/castellar/prestago/prestago-backend/internal/domain"
	"github.com/castellar/prestago/prestago-backend/internal/service"
	"github.com/castellar/prestago/prestago-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func newPaymentHandlerFixture() (*PaymentHandler, *testutil.MockInstallmentRepository, *testutil.MockConfigRepository) {
	clientRepo := testutil.NewMockClientRepository()
	loanRepo := testutil.NewMockLoanRepository()
	installmentRepo := testutil.NewMockInstallmentRepository()
	configRepo := testutil.NewMockConfigRepository()

	clientService := service.NewClientService(clientRepo, loanRepo, installmentRepo)
	paymentService := service.NewPaymentService(&testutil.MockTxManager{}, installmentRepo, loanRepo, clientService)
	moraService := service.NewMoraService(installmentRepo, configRepo)

	clientRepo.AddClient(&domain.Client{
		ID: 1, FirstName: "Ana", LastName: "Pérez", Phone: "555-0101",
		Category: domain.CategoryNew, Status: domain.ClientActive,
	})
	loanRepo.AddLoan(&domain.Loan{
		ID: 1, ClientID: 1, Status: domain.LoanActive,
		Principal:           decimal.NewFromInt(20000),
		InterestRatePercent: decimal.NewFromInt(20),
		TotalPayable:        decimal.NewFromInt(24000),
		InstallmentCount:    2,
	})
	installmentRepo.AddInstallment(&domain.Installment{
		ID: 1, LoanID: 1, Number: 1,
		Amount: decimal.NewFromInt(12000), AmountPaid: decimal.Zero,
		DueDate: time.Now().UTC(),
		Status:  domain.InstallmentPending,
	})
	installmentRepo.AddInstallment(&domain.Installment{
		ID: 2, LoanID: 1, Number: 2,
		Amount: decimal.NewFromInt(12000), AmountPaid: decimal.Zero,
		DueDate: time.Now().UTC().AddDate(0, 0, 7),
		Status:  domain.InstallmentPending,
	})

	return NewPaymentHandler(paymentService, moraService), installmentRepo, configRepo
}

func postPayment(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/installments/1/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	return c, rec
}

func TestRegisterPayment_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerFixture()

	c, rec := postPayment(e, `{"amount": "12000", "overflowPolicy": "ignore", "paymentMethod": "cash"}`)
	if err := handler.RegisterPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response InstallmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Status != "paid" {
		t.Errorf("Expected status 'paid', got %s", response.Status)
	}
	if response.AmountPaid != "12000.00" {
		t.Errorf("Expected amount paid '12000.00', got %s", response.AmountPaid)
	}
	if response.ReceiptID == nil {
		t.Error("Expected a receipt ID on the paid installment")
	}
}

func TestRegisterPayment_InvalidAmount(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerFixture()

	c, rec := postPayment(e, `{"amount": "not-a-number", "overflowPolicy": "ignore", "paymentMethod": "cash"}`)
	if err := handler.RegisterPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(problem.Errors) == 0 || problem.Errors[0].Field != "amount" {
		t.Errorf("Expected a validation error on 'amount', got %+v", problem.Errors)
	}
}

func TestRegisterPayment_InvalidOverflowPolicy(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerFixture()

	c, rec := postPayment(e, `{"amount": "5000", "overflowPolicy": "rollover", "paymentMethod": "cash"}`)
	if err := handler.RegisterPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestRegisterPayment_AlreadyPaidConflicts(t *testing.T) {
	e := echo.New()
	handler, installmentRepo, _ := newPaymentHandlerFixture()

	installment, _ := installmentRepo.GetByID(1)
	installment.Status = domain.InstallmentPaid
	installment.AmountPaid = installment.Amount

	c, rec := postPayment(e, `{"amount": "12000", "overflowPolicy": "ignore", "paymentMethod": "cash"}`)
	if err := handler.RegisterPayment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestGetInstallment_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newPaymentHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/installments/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := handler.GetInstallment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetMoraQuote_WithinGraceIsZero(t *testing.T) {
	e := echo.New()
	handler, _, configRepo := newPaymentHandlerFixture()

	configRepo.MoraConfig = &domain.MoraConfiguration{
		DailyRatePercent:    decimal.NewFromInt(2),
		GraceDays:           5,
		MinimumChargeAmount: decimal.NewFromInt(50),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/installments/1/mora", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := handler.GetMoraQuote(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response MoraQuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.LateInterest != "0.00" {
		t.Errorf("Expected late interest '0.00', got %s", response.LateInterest)
	}
}
