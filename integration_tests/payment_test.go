package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pertoken-app/paygate/common"
	"github.com/pertoken-app/paygate/controllers"
	"github.com/pertoken-app/paygate/db/models"
	"github.com/pertoken-app/paygate/ledger"
	"github.com/pertoken-app/paygate/lib"
	"github.com/pertoken-app/paygate/lib/responses"
	"github.com/pertoken-app/paygate/lib/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const testPayer = "GPAYER7C2B1A9F3E8D4C6B5A2F1E"

type PaymentTestSuite struct {
	TestSuite
	service *service.PaygateService
	ledger  *MockLedger
}

func (suite *PaymentTestSuite) SetupSuite() {
	suite.ledger = newDefaultMockLedger()
	svc, err := PaygateTestServiceInit(suite.ledger, "payment_test")
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.service = svc

	e := echo.New()
	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	suite.echo = e
	suite.echo.POST("/v2/payments", controllers.NewPaymentController(svc).SubmitPayment)
}

func (suite *PaymentTestSuite) TearDownTest() {
	clearTable(suite.service, "payments")
	clearTable(suite.service, "access_proofs")
	clearTable(suite.service, "invoices")
	suite.ledger.transactions = map[string]*ledger.Transaction{}
}

func (suite *PaymentTestSuite) createInvoice(resourceRef string, amount int64, payerHint string) *models.Invoice {
	invoice, err := suite.service.CreateInvoice(context.Background(), resourceRef, amount, payerHint)
	assert.NoError(suite.T(), err)
	return invoice
}

func (suite *PaymentTestSuite) addSettledTransaction(txHash string, amount int64) {
	suite.ledger.AddTransaction(&ledger.Transaction{
		Hash:      txHash,
		Payer:     testPayer,
		Recipient: mockReceivingAccount,
		Asset:     mockAssetCode,
		Amount:    amount,
		Settled:   true,
	})
}

func (suite *PaymentTestSuite) submitPayment(body controllers.SubmitPaymentRequestBody) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var buf bytes.Buffer
	assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(&body))
	req := httptest.NewRequest(http.MethodPost, "/v2/payments", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	suite.echo.ServeHTTP(rec, req)
	return rec
}

func (suite *PaymentTestSuite) TestSubmitPayment() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.addSettledTransaction("txhash001", 100)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash001",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	proof := &controllers.AccessProofResponseBody{}
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(proof))
	assert.Equal(suite.T(), invoice.ResourceRef, proof.ResourceRef)
	assert.Equal(suite.T(), invoice.PaymentID, proof.PaymentID)
	assert.Equal(suite.T(), testPayer, proof.Payer)
	assert.NotEmpty(suite.T(), proof.ProofToken)

	settled, err := suite.service.FindInvoice(context.Background(), invoice.PaymentID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.InvoiceStatusPaid, settled.Status)
	assert.False(suite.T(), settled.SettledAt.IsZero())

	payment, err := suite.service.FindPaymentByTxHash(context.Background(), "txhash001")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), invoice.PaymentID, payment.PaymentID)
	assert.Equal(suite.T(), int64(100), payment.Amount)
}

func (suite *PaymentTestSuite) TestOverpaymentAccepted() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.addSettledTransaction("txhash002", 150)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash002",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *PaymentTestSuite) TestReplayedTransaction() {
	invoiceA := suite.createInvoice("siteA#urlhash1", 100, "")
	invoiceB := suite.createInvoice("siteA#urlhash2", 100, "")
	suite.addSettledTransaction("txhash003", 100)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoiceA.PaymentID,
		TxHash:    "txhash003",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	// the same transaction hash must not settle a second invoice
	rec = suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoiceB.PaymentID,
		TxHash:    "txhash003",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.TransactionAlreadyConsumedError.Code, errResp.Code)

	// the replay target stays pending, the first invoice stays paid
	reloadedA, err := suite.service.FindInvoice(context.Background(), invoiceA.PaymentID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.InvoiceStatusPaid, reloadedA.Status)
	reloadedB, err := suite.service.FindInvoice(context.Background(), invoiceB.PaymentID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.InvoiceStatusPending, reloadedB.Status)

	// and only one proof was minted
	count, err := suite.service.DB.NewSelect().Table("access_proofs").Count(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *PaymentTestSuite) TestInsufficientPayment() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.addSettledTransaction("txhash004", 99)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash004",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.PaymentInsufficientError.Code, errResp.Code)

	// a failed verification writes nothing
	reloaded, err := suite.service.FindInvoice(context.Background(), invoice.PaymentID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.InvoiceStatusPending, reloaded.Status)
	count, err := suite.service.DB.NewSelect().Table("payments").Count(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, count)

	// the hash stays unconsumed, a proper payment can still use it
	suite.addSettledTransaction("txhash005", 100)
	rec = suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash005",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *PaymentTestSuite) TestUnknownTransaction() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhashmissing",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.TransactionNotFoundError.Code, errResp.Code)
}

func (suite *PaymentTestSuite) TestUnsettledTransaction() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.ledger.AddTransaction(&ledger.Transaction{
		Hash:      "txhash006",
		Payer:     testPayer,
		Recipient: mockReceivingAccount,
		Asset:     mockAssetCode,
		Amount:    100,
		Settled:   false,
	})

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash006",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.TransactionNotFoundError.Code, errResp.Code)
}

func (suite *PaymentTestSuite) TestRecipientMismatch() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.ledger.AddTransaction(&ledger.Transaction{
		Hash:      "txhash007",
		Payer:     testPayer,
		Recipient: "GSOMEOTHERACCOUNT",
		Asset:     mockAssetCode,
		Amount:    100,
		Settled:   true,
	})

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash007",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.PaymentMismatchError.Code, errResp.Code)
}

func (suite *PaymentTestSuite) TestPayerHintMismatch() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "GEXPECTEDPAYER")
	suite.addSettledTransaction("txhash008", 100)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash008",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.PaymentMismatchError.Code, errResp.Code)
}

func (suite *PaymentTestSuite) TestClaimedPayerMismatch() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.addSettledTransaction("txhash009", 100)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash009",
		Payer:     "GIMPERSONATOR",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.PaymentMismatchError.Code, errResp.Code)
}

func (suite *PaymentTestSuite) TestExpiredInvoice() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.addSettledTransaction("txhash010", 100)

	// force the validity window into the past
	_, err := suite.service.DB.NewUpdate().
		Model((*models.Invoice)(nil)).
		Set("expires_at = ?", time.Now().Add(-time.Minute)).
		Where("payment_id = ?", invoice.PaymentID).
		Exec(context.Background())
	assert.NoError(suite.T(), err)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash010",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.InvoiceNotPendingError.Code, errResp.Code)

	reloaded, err := suite.service.FindInvoice(context.Background(), invoice.PaymentID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.InvoiceStatusExpired, reloaded.Status)
}

func (suite *PaymentTestSuite) TestSecondPaymentForPaidInvoice() {
	invoice := suite.createInvoice("siteA#urlhash1", 100, "")
	suite.addSettledTransaction("txhash011", 100)
	suite.addSettledTransaction("txhash012", 100)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash011",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	// a different transaction against a settled invoice is rejected too
	rec = suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    "txhash012",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.InvoiceNotPendingError.Code, errResp.Code)
}

func (suite *PaymentTestSuite) TestUnknownInvoice() {
	suite.addSettledTransaction("txhash013", 100)

	rec := suite.submitPayment(controllers.SubmitPaymentRequestBody{
		PaymentID: "pay_doesnotexist",
		TxHash:    "txhash013",
		Payer:     testPayer,
	})
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.InvoiceNotFoundError.Code, errResp.Code)
}

func TestPaymentSuite(t *testing.T) {
	suite.Run(t, new(PaymentTestSuite))
}
