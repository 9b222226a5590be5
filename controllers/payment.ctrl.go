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

// PaymentController : Submit payment controller struct
type PaymentController struct {
	svc *service.PaygateService
}

func NewPaymentController(svc *service.PaygateService) *PaymentController {
	return &PaymentController{svc: svc}
}

type SubmitPaymentRequestBody struct {
	PaymentID string `json:"payment_id" validate:"required"`
	TxHash    string `json:"tx_hash" validate:"required"`
	Payer     string `json:"payer" validate:"required"`
}

type AccessProofResponseBody struct {
	ResourceRef string    `json:"resource_ref"`
	Payer       string    `json:"payer"`
	PaymentID   string    `json:"payment_id"`
	ProofToken  string    `json:"proof_token"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SubmitPayment godoc
// @Summary      Submit a ledger payment for an invoice
// @Description  Verifies the referenced transaction and returns the access proof
// @Accept       json
// @Produce      json
// @Tags         Payment
// @Param        payment  body      SubmitPaymentRequestBody  True  "Submit Payment"
// @Success      200      {object}  AccessProofResponseBody
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Failure      409      {object}  responses.ErrorResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Router       /v2/payments [post]
func (controller *PaymentController) SubmitPayment(c echo.Context) error {
	var body SubmitPaymentRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load submit payment body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid submit payment body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	proof, err := controller.svc.SubmitPayment(c.Request().Context(), body.PaymentID, body.TxHash, body.Payer)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvoiceNotFound):
			return c.JSON(http.StatusNotFound, responses.InvoiceNotFoundError)
		case errors.Is(err, service.ErrInvoiceNotPending):
			return c.JSON(http.StatusBadRequest, responses.InvoiceNotPendingError)
		case errors.Is(err, service.ErrTxAlreadyConsumed):
			return c.JSON(http.StatusConflict, responses.TransactionAlreadyConsumedError)
		case errors.Is(err, service.ErrTransactionNotFound):
			return c.JSON(http.StatusNotFound, responses.TransactionNotFoundError)
		case errors.Is(err, service.ErrPaymentInsufficient):
			return c.JSON(http.StatusBadRequest, responses.PaymentInsufficientError)
		case errors.Is(err, service.ErrPaymentMismatch):
			return c.JSON(http.StatusBadRequest, responses.PaymentMismatchError)
		}
		c.Logger().Errorf("Error submitting payment: payment_id:%s tx_hash:%s error: %v", body.PaymentID, body.TxHash, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	responseBody := AccessProofResponseBody{
		ResourceRef: proof.ResourceRef,
		Payer:       proof.Payer,
		PaymentID:   proof.PaymentID,
		ProofToken:  proof.ProofToken,
		IssuedAt:    proof.IssuedAt,
		ExpiresAt:   proof.ExpiresAt,
	}

	return c.JSON(http.StatusOK, &responseBody)
}
