package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pertoken-app/paygate/lib/service"
)

// StartExpiryRoutine sweeps pending invoices past their validity window.
// Expiry is also enforced lazily on every read and submit, the sweep only
// keeps the table and the event stream tidy.
func StartExpiryRoutine(svc *service.PaygateService, backGroundCtx context.Context) {
	ticker := time.NewTicker(time.Duration(svc.Config.ExpirySweepInterval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-backGroundCtx.Done():
			return
		case <-ticker.C:
			expired, err := svc.ExpireStaleInvoices(backGroundCtx)
			if err != nil {
				svc.Logger.Errorf("Error expiring stale invoices: %v", err)
				sentry.CaptureException(err)
				continue
			}
			if expired > 0 {
				svc.Logger.Infof("Expired %d stale invoices", expired)
			}
		}
	}
}
