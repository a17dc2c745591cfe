package application

import (
	"github.com/paymentops/stripe-alerts/internal/alert/domain"
)

// Invoice events carry no failure detail, so the record gets fixed literals.
const (
	invoiceFailureCode   = "declined_by_network"
	invoiceFailureReason = "invoice_payment_failed"
)

// Normalize maps a webhook event onto the canonical FailureRecord. The second
// return is false for unrecognized event types; that is a filter decision,
// not an error.
func Normalize(ev domain.Event) (domain.FailureRecord, bool) {
	switch e := ev.(type) {
	case domain.ChargeFailed:
		c := e.Charge
		rec := domain.FailureRecord{
			ID:            c.ID,
			AmountMinor:   c.Amount,
			Currency:      c.Currency,
			FailureCode:   c.FailureCode,
			FailureReason: c.FailureMessage,
			OccurredAt:    c.Created,
		}
		if c.BillingDetails != nil {
			rec.CustomerName = c.BillingDetails.Name
			rec.CustomerEmail = c.BillingDetails.Email
		}
		if c.Outcome != nil && c.Outcome.SellerMessage != "" {
			rec.FailureReason = c.Outcome.SellerMessage
		}
		return rec, true

	case domain.InvoicePaymentFailed:
		inv := e.Invoice
		return domain.FailureRecord{
			ID:            inv.ID,
			AmountMinor:   inv.AmountDue,
			Currency:      inv.Currency,
			CustomerName:  inv.CustomerName,
			CustomerEmail: inv.CustomerEmail,
			FailureCode:   invoiceFailureCode,
			FailureReason: invoiceFailureReason,
			OccurredAt:    inv.Created,
		}, true

	default:
		return domain.FailureRecord{}, false
	}
}
