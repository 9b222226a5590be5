package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pertoken-app/paygate/controllers"
	"github.com/pertoken-app/paygate/ledger"
	"github.com/pertoken-app/paygate/lib"
	"github.com/pertoken-app/paygate/lib/responses"
	"github.com/pertoken-app/paygate/lib/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AccessTestSuite struct {
	TestSuite
	service *service.PaygateService
	ledger  *MockLedger
}

func (suite *AccessTestSuite) SetupSuite() {
	suite.ledger = newDefaultMockLedger()
	svc, err := PaygateTestServiceInit(suite.ledger, "access_test")
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.service = svc

	e := echo.New()
	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	suite.echo = e
	suite.echo.POST("/v2/payments", controllers.NewPaymentController(svc).SubmitPayment)
	accessCtrl := controllers.NewAccessController(svc)
	suite.echo.GET("/v2/access", accessCtrl.CheckAccess)
	suite.echo.POST("/v2/proofs/verify", accessCtrl.VerifyProof)
}

func (suite *AccessTestSuite) TearDownTest() {
	clearTable(suite.service, "payments")
	clearTable(suite.service, "access_proofs")
	clearTable(suite.service, "invoices")
	suite.ledger.transactions = map[string]*ledger.Transaction{}
}

// payForResource runs the full invoice and payment flow and returns the proof.
func (suite *AccessTestSuite) payForResource(resourceRef, txHash string) *controllers.AccessProofResponseBody {
	invoice, err := suite.service.CreateInvoice(context.Background(), resourceRef, 100, "")
	assert.NoError(suite.T(), err)
	suite.ledger.AddTransaction(&ledger.Transaction{
		Hash:      txHash,
		Payer:     testPayer,
		Recipient: mockReceivingAccount,
		Asset:     mockAssetCode,
		Amount:    100,
		Settled:   true,
	})

	rec := httptest.NewRecorder()
	var buf bytes.Buffer
	assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(&controllers.SubmitPaymentRequestBody{
		PaymentID: invoice.PaymentID,
		TxHash:    txHash,
		Payer:     testPayer,
	}))
	req := httptest.NewRequest(http.MethodPost, "/v2/payments", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	suite.echo.ServeHTTP(rec, req)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	proof := &controllers.AccessProofResponseBody{}
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(proof))
	return proof
}

func (suite *AccessTestSuite) checkAccess(resourceRef, payer string) (*httptest.ResponseRecorder, *controllers.CheckAccessResponseBody) {
	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/v2/access?resource_ref=%s&payer=%s", url.QueryEscape(resourceRef), url.QueryEscape(payer))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	suite.echo.ServeHTTP(rec, req)
	body := &controllers.CheckAccessResponseBody{}
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(body))
	return rec, body
}

func (suite *AccessTestSuite) verifyProof(proofToken string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var buf bytes.Buffer
	assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(&controllers.VerifyProofRequestBody{ProofToken: proofToken}))
	req := httptest.NewRequest(http.MethodPost, "/v2/proofs/verify", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	suite.echo.ServeHTTP(rec, req)
	return rec
}

func (suite *AccessTestSuite) TestCheckAccessAfterPayment() {
	proof := suite.payForResource("siteA#urlhash1", "txhash101")

	rec, body := suite.checkAccess("siteA#urlhash1", testPayer)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.True(suite.T(), body.Authorized)
	assert.NotNil(suite.T(), body.ExpiresAt)
	assert.Equal(suite.T(), proof.ExpiresAt.Unix(), body.ExpiresAt.Unix())
}

func (suite *AccessTestSuite) TestCheckAccessOtherPayer() {
	suite.payForResource("siteA#urlhash1", "txhash102")

	rec, body := suite.checkAccess("siteA#urlhash1", "GSOMEONEELSE")
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.False(suite.T(), body.Authorized)
	assert.Nil(suite.T(), body.ExpiresAt)
}

func (suite *AccessTestSuite) TestCheckAccessOtherResource() {
	suite.payForResource("siteA#urlhash1", "txhash103")

	rec, body := suite.checkAccess("siteA#urlhash2", testPayer)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.False(suite.T(), body.Authorized)
}

func (suite *AccessTestSuite) TestCheckAccessWithoutPayment() {
	rec, body := suite.checkAccess("siteA#neverpaid", testPayer)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.False(suite.T(), body.Authorized)
}

func (suite *AccessTestSuite) TestCheckAccessMissingParams() {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v2/access?resource_ref=siteA%23urlhash1", nil)
	suite.echo.ServeHTTP(rec, req)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *AccessTestSuite) TestCheckAccessExpiredProof() {
	suite.payForResource("siteA#urlhash1", "txhash104")

	authorized, _, err := suite.service.CheckAccess(context.Background(), "siteA#urlhash1", testPayer, time.Now().Add(87000*time.Second))
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), authorized)
}

func (suite *AccessTestSuite) TestVerifyProof() {
	proof := suite.payForResource("siteA#urlhash1", "txhash105")

	rec := suite.verifyProof(proof.ProofToken)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	verified := &controllers.AccessProofResponseBody{}
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(verified))
	assert.Equal(suite.T(), proof.ResourceRef, verified.ResourceRef)
	assert.Equal(suite.T(), proof.Payer, verified.Payer)
	assert.Equal(suite.T(), proof.PaymentID, verified.PaymentID)
}

func (suite *AccessTestSuite) TestVerifyForgedProof() {
	rec := suite.verifyProof("eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.forged.signature")
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.BadProofError.Code, errResp.Code)
}

func (suite *AccessTestSuite) TestVerifySupersededProof() {
	stale := suite.payForResource("siteA#urlhash1", "txhash106")
	// the same payer pays again for the same resource, refreshing the proof row
	suite.payForResource("siteA#urlhash1", "txhash107")

	rec := suite.verifyProof(stale.ProofToken)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
	errResp := checkErrResponse(&suite.TestSuite, rec)
	assert.Equal(suite.T(), responses.ProofNotFoundError.Code, errResp.Code)
}

func TestAccessSuite(t *testing.T) {
	suite.Run(t, new(AccessTestSuite))
}
