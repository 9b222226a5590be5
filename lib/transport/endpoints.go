package transport

import (
	cache "github.com/SporkHubr/echo-http-cache"
	"github.com/labstack/echo/v4"
	"github.com/pertoken-app/paygate/controllers"
	"github.com/pertoken-app/paygate/lib/service"
)

func RegisterEndpoints(svc *service.PaygateService, e *echo.Echo, strictRateLimitMiddleware echo.MiddlewareFunc, adminMw echo.MiddlewareFunc, logMw echo.MiddlewareFunc, cacheClient *cache.Client) {
	invoiceCtrl := controllers.NewInvoiceController(svc)
	paymentCtrl := controllers.NewPaymentController(svc)
	accessCtrl := controllers.NewAccessController(svc)

	e.GET("/health", controllers.NewHealthController().Check)

	e.POST("/v2/invoices", invoiceCtrl.RequestPayment, logMw)
	e.GET("/v2/invoices/:payment_id", invoiceCtrl.GetInvoice)
	// verification hits the ledger, keep it behind the strict limit
	e.POST("/v2/payments", paymentCtrl.SubmitPayment, strictRateLimitMiddleware, logMw)
	e.GET("/v2/access", accessCtrl.CheckAccess, cacheClient.Middleware())
	e.POST("/v2/proofs/verify", accessCtrl.VerifyProof)

	if svc.Config.AdminToken != "" {
		e.POST("/v2/admin/expire", controllers.NewAdminController(svc).ExpireInvoices, strictRateLimitMiddleware, adminMw)
	}
}
