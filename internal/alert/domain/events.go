package domain

import (
	json "github.com/goccy/go-json"
)

const (
	EventChargeFailed         = "charge.failed"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// Charge is the subset of Stripe's charge object this service reads.
type Charge struct {
	ID             string          `json:"id"`
	Amount         int64           `json:"amount"`
	Currency       string          `json:"currency"`
	Paid           bool            `json:"paid"`
	Created        int64           `json:"created"`
	BillingDetails *BillingDetails `json:"billing_details"`
	Outcome        *ChargeOutcome  `json:"outcome"`
	FailureCode    string          `json:"failure_code"`
	FailureMessage string          `json:"failure_message"`
}

type BillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ChargeOutcome struct {
	SellerMessage string `json:"seller_message"`
}

// Invoice carries customer name and email as flat fields and has no outcome
// object, unlike Charge.
type Invoice struct {
	ID            string `json:"id"`
	AmountDue     int64  `json:"amount_due"`
	Currency      string `json:"currency"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Created       int64  `json:"created"`
}

type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type WebhookEndpoint struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	EnabledEvents []string `json:"enabled_events"`
	Status        string   `json:"status"`
}

// Event is the union of the known webhook event variants plus Unrecognized.
type Event interface {
	EventType() string
}

type ChargeFailed struct {
	Charge Charge
}

func (ChargeFailed) EventType() string { return EventChargeFailed }

type InvoicePaymentFailed struct {
	Invoice Invoice
}

func (InvoicePaymentFailed) EventType() string { return EventInvoicePaymentFailed }

type Unrecognized struct {
	Type string
}

func (e Unrecognized) EventType() string { return e.Type }

type envelope struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a webhook payload into one of the Event variants. An
// unknown type is not an error; malformed JSON is.
func ParseEvent(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case EventChargeFailed:
		var c Charge
		if err := json.Unmarshal(env.Data.Object, &c); err != nil {
			return nil, err
		}
		return ChargeFailed{Charge: c}, nil
	case EventInvoicePaymentFailed:
		var inv Invoice
		if err := json.Unmarshal(env.Data.Object, &inv); err != nil {
			return nil, err
		}
		return InvoicePaymentFailed{Invoice: inv}, nil
	default:
		return Unrecognized{Type: env.Type}, nil
	}
}
