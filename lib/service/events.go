package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pertoken-app/paygate/db/models"
)

func (svc *PaygateService) EncodeInvoiceEvent(ctx context.Context, w io.Writer, invoice models.Invoice) error {
	return json.NewEncoder(w).Encode(invoice)
}
