package common

const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusExpired = "expired"

	InvoiceEventCreated = "invoice_created"
	InvoiceEventPaid    = "invoice_paid"
	InvoiceEventExpired = "invoice_expired"

	PaymentIDPrefix = "pay_"
)
