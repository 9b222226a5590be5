package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/pertoken-app/paygate/lib/responses"
	"github.com/pertoken-app/paygate/lib/service"
)

// InvoiceController : Request payment controller struct
type InvoiceController struct {
	svc *service.PaygateService
}

func NewInvoiceController(svc *service.PaygateService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

type RequestPaymentRequestBody struct {
	ResourceRef string `json:"resource_ref" validate:"required"`
	Amount      int64  `json:"amount" validate:"required"`
	PayerHint   string `json:"payer_hint"`
}

type InvoiceResponseBody struct {
	PaymentID   string    `json:"payment_id"`
	ResourceRef string    `json:"resource_ref"`
	Amount      int64     `json:"amount"`
	PayerHint   string    `json:"payer_hint,omitempty"`
	Receiver    string    `json:"receiver"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RequestPayment godoc
// @Summary      Request a payment invoice
// @Description  Returns a new invoice for a gated resource, with the account to pay
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        invoice  body      RequestPaymentRequestBody  True  "Request Payment"
// @Success      200      {object}  InvoiceResponseBody
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Router       /v2/invoices [post]
func (controller *InvoiceController) RequestPayment(c echo.Context) error {
	var body RequestPaymentRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load request payment body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid request payment body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	invoice, err := controller.svc.CreateInvoice(c.Request().Context(), body.ResourceRef, body.Amount, body.PayerHint)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			return c.JSON(http.StatusBadRequest, responses.InvalidAmountError)
		}
		c.Logger().Errorf("Error creating invoice: resource_ref:%s error: %v", body.ResourceRef, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	responseBody := InvoiceResponseBody{
		PaymentID:   invoice.PaymentID,
		ResourceRef: invoice.ResourceRef,
		Amount:      invoice.Amount,
		PayerHint:   invoice.PayerHint,
		Receiver:    controller.svc.Ledger.GetReceivingAccount(),
		Status:      invoice.Status,
		CreatedAt:   invoice.CreatedAt,
		ExpiresAt:   invoice.ExpiresAt.Time,
	}

	return c.JSON(http.StatusOK, &responseBody)
}

// GetInvoice godoc
// @Summary      Retrieve an invoice
// @Description  Returns invoice details by payment id
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        payment_id  path  string  true  "Payment ID"
// @Success      200  {object}  InvoiceResponseBody
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/invoices/{payment_id} [get]
func (controller *InvoiceController) GetInvoice(c echo.Context) error {
	invoice, err := controller.svc.FindInvoice(c.Request().Context(), c.Param("payment_id"))
	if err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
		}
		c.Logger().Errorf("Error fetching invoice: payment_id:%s error: %v", c.Param("payment_id"), err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	// report the terminal status even if the sweeper has not run yet
	if err = controller.svc.ExpireIfStale(c.Request().Context(), invoice, time.Now()); err != nil {
		c.Logger().Errorf("Error expiring invoice: payment_id:%s error: %v", invoice.PaymentID, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	responseBody := InvoiceResponseBody{
		PaymentID:   invoice.PaymentID,
		ResourceRef: invoice.ResourceRef,
		Amount:      invoice.Amount,
		PayerHint:   invoice.PayerHint,
		Receiver:    controller.svc.Ledger.GetReceivingAccount(),
		Status:      invoice.Status,
		CreatedAt:   invoice.CreatedAt,
		ExpiresAt:   invoice.ExpiresAt.Time,
	}

	return c.JSON(http.StatusOK, &responseBody)
}
