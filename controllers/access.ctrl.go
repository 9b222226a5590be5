package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pertoken-app/paygate/lib/responses"
	"github.com/pertoken-app/paygate/lib/service"
)

// AccessController : Content access controller struct
type AccessController struct {
	svc *service.PaygateService
}

func NewAccessController(svc *service.PaygateService) *AccessController {
	return &AccessController{svc: svc}
}

type CheckAccessResponseBody struct {
	Authorized bool       `json:"authorized"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type VerifyProofRequestBody struct {
	ProofToken string `json:"proof_token" validate:"required"`
}

// CheckAccess godoc
// @Summary      Check content access
// @Description  Returns whether the payer currently holds a valid access proof for the resource
// @Produce      json
// @Tags         Access
// @Param        resource_ref  query  string  true  "Resource reference"
// @Param        payer         query  string  true  "Payer account"
// @Success      200  {object}  CheckAccessResponseBody
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/access [get]
func (controller *AccessController) CheckAccess(c echo.Context) error {
	resourceRef := c.QueryParam("resource_ref")
	payer := c.QueryParam("payer")
	if resourceRef == "" || payer == "" {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	authorized, proof, err := controller.svc.CheckAccess(c.Request().Context(), resourceRef, payer, time.Now())
	if err != nil {
		c.Logger().Errorf("Error checking access: resource_ref:%s payer:%s error: %v", resourceRef, payer, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	responseBody := CheckAccessResponseBody{Authorized: authorized}
	if authorized {
		responseBody.ExpiresAt = &proof.ExpiresAt
	}

	return c.JSON(http.StatusOK, &responseBody)
}

// VerifyProof godoc
// @Summary      Verify a proof token
// @Description  Validates a previously issued proof token and returns the proof it is bound to
// @Accept       json
// @Produce      json
// @Tags         Access
// @Param        proof  body      VerifyProofRequestBody  True  "Verify Proof"
// @Success      200    {object}  AccessProofResponseBody
// @Failure      401    {object}  responses.ErrorResponse
// @Failure      404    {object}  responses.ErrorResponse
// @Failure      500    {object}  responses.ErrorResponse
// @Router       /v2/proofs/verify [post]
func (controller *AccessController) VerifyProof(c echo.Context) error {
	var body VerifyProofRequestBody

	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	proof, err := controller.svc.VerifyProof(c.Request().Context(), body.ProofToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadProof):
			return c.JSON(http.StatusUnauthorized, responses.BadProofError)
		case errors.Is(err, service.ErrProofNotFound):
			return c.JSON(http.StatusNotFound, responses.ProofNotFoundError)
		}
		c.Logger().Errorf("Error verifying proof: %v", err)
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
