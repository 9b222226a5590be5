package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pertoken-app/paygate/lib/responses"
	"github.com/pertoken-app/paygate/lib/service"
)

// AdminController : Admin controller struct
type AdminController struct {
	svc *service.PaygateService
}

func NewAdminController(svc *service.PaygateService) *AdminController {
	return &AdminController{svc: svc}
}

type ExpireInvoicesResponseBody struct {
	Expired int `json:"expired"`
}

// ExpireInvoices godoc
// @Summary      Expire stale invoices
// @Description  Transitions all pending invoices past their validity window to expired
// @Produce      json
// @Tags         Admin
// @Success      200  {object}  ExpireInvoicesResponseBody
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/admin/expire [post]
// @Security     OAuth2Password
func (controller *AdminController) ExpireInvoices(c echo.Context) error {
	expired, err := controller.svc.ExpireStaleInvoices(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Error expiring stale invoices: %v", err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, &ExpireInvoicesResponseBody{Expired: expired})
}
