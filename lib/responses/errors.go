package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var InvalidAmountError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "invalid amount: a positive amount is required",
	HttpStatusCode: 400,
}

var InvoiceNotFoundError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "invoice not found",
	HttpStatusCode: 404,
}

var InvoiceNotPendingError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "invoice is not pending: it was already paid or has expired",
	HttpStatusCode: 400,
}

var TransactionAlreadyConsumedError = ErrorResponse{
	Error:          true,
	Code:           5,
	Message:        "transaction was already used to settle an invoice",
	HttpStatusCode: 409,
}

var TransactionNotFoundError = ErrorResponse{
	Error:          true,
	Code:           7,
	Message:        "no settled transaction with this hash was found on the ledger",
	HttpStatusCode: 404,
}

var PaymentInsufficientError = ErrorResponse{
	Error:          true,
	Code:           9,
	Message:        "transferred amount is less than the invoiced amount",
	HttpStatusCode: 400,
}

var PaymentMismatchError = ErrorResponse{
	Error:          true,
	Code:           10,
	Message:        "payment does not match the invoice terms",
	HttpStatusCode: 400,
}

var BadProofError = ErrorResponse{
	Error:          true,
	Code:           11,
	Message:        "proof token is malformed, forged or expired",
	HttpStatusCode: 401,
}

var ProofNotFoundError = ErrorResponse{
	Error:          true,
	Code:           12,
	Message:        "access proof not found",
	HttpStatusCode: 404,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	code := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		c.JSON(code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}
