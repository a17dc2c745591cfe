package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/paymentops/stripe-alerts/internal/alert/domain"
	"github.com/paymentops/stripe-alerts/pkg/activitylog"
)

// Service owns the webhook, manual-check, test and setup operations.
type Service struct {
	log        *slog.Logger
	processor  ProcessorClient
	dispatcher *Dispatcher
	activity   *activitylog.Log
}

func NewService(log *slog.Logger, processor ProcessorClient, dispatcher *Dispatcher, activity *activitylog.Log) *Service {
	return &Service{log: log, processor: processor, dispatcher: dispatcher, activity: activity}
}

// HandleEvent normalizes a parsed webhook event and dispatches an alert when
// the event is one of the failure variants. The return reports whether an
// alert email went out; callers acknowledging the webhook ignore it.
func (s *Service) HandleEvent(ctx context.Context, ev domain.Event) bool {
	rec, ok := Normalize(ev)
	if !ok {
		s.log.Debug("event type ignored", "type", ev.EventType())
		return false
	}
	return s.dispatcher.Dispatch(ctx, rec)
}

type CheckedCharge struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CustomerEmail string  `json:"customerEmail"`
	Created       string  `json:"created"`
	FailureReason string  `json:"failureReason"`
}

type CheckResult struct {
	FailedCharges int             `json:"failedCharges"`
	EmailsSent    int             `json:"emailsSent"`
	Charges       []CheckedCharge `json:"charges"`
}

// CheckFailedPayments queries the processor for charges created in the last
// 24 hours, alerts on every unpaid one sequentially, and returns a redacted
// summary. A failed dispatch for one charge does not stop the rest.
func (s *Service) CheckFailedPayments(ctx context.Context) (CheckResult, error) {
	charges, err := s.processor.ListCharges(ctx, time.Now().Add(-24*time.Hour), 100)
	if err != nil {
		s.activity.Appendf("Failed payments check errored: %v", err)
		return CheckResult{}, err
	}

	res := CheckResult{Charges: []CheckedCharge{}}
	for _, c := range charges {
		if c.Paid {
			continue
		}
		rec, _ := Normalize(domain.ChargeFailed{Charge: c})
		res.FailedCharges++
		if s.dispatcher.Dispatch(ctx, rec) {
			res.EmailsSent++
		}
		res.Charges = append(res.Charges, CheckedCharge{
			ID:            rec.ID,
			Amount:        float64(rec.AmountMinor) / 100,
			Currency:      rec.Currency,
			CustomerEmail: orUnknown(rec.CustomerEmail),
			Created:       time.Unix(rec.OccurredAt, 0).UTC().Format(time.RFC3339),
			FailureReason: orUnknown(rec.FailureReason),
		})
	}

	s.activity.Appendf("Manual check found %d failed charges, %d alerts sent", res.FailedCharges, res.EmailsSent)
	return res, nil
}

type TestResult struct {
	StripeConnected bool   `json:"stripeConnected"`
	AccountID       string `json:"accountId,omitempty"`
	StripeError     string `json:"stripeError,omitempty"`
	EmailSent       bool   `json:"emailSent"`
}

// TestPipeline checks processor connectivity and pushes one synthetic record
// through the dispatcher. A processor failure is reported in the result so
// the email path still gets exercised.
func (s *Service) TestPipeline(ctx context.Context) TestResult {
	var res TestResult
	acct, err := s.processor.GetAccount(ctx)
	if err != nil {
		res.StripeError = err.Error()
		s.activity.Appendf("Stripe connectivity test failed: %v", err)
	} else {
		res.StripeConnected = true
		res.AccountID = acct.ID
	}

	rec := domain.FailureRecord{
		ID:            "test_" + uuid.NewString()[:8],
		AmountMinor:   2500,
		Currency:      "usd",
		CustomerName:  "Test Customer",
		CustomerEmail: "test@example.com",
		FailureCode:   "card_declined",
		FailureReason: "Synthetic alert to verify email delivery",
		OccurredAt:    time.Now().Unix(),
	}
	res.EmailSent = s.dispatcher.Dispatch(ctx, rec)
	return res
}

// SetupWebhook registers a webhook subscription for the two failure event
// types at the given URL.
func (s *Service) SetupWebhook(ctx context.Context, url string) (domain.WebhookEndpoint, error) {
	ep, err := s.processor.CreateWebhookEndpoint(ctx, url, []string{
		domain.EventChargeFailed,
		domain.EventInvoicePaymentFailed,
	})
	if err != nil {
		s.activity.Appendf("Webhook setup failed: %v", err)
		return domain.WebhookEndpoint{}, err
	}
	s.activity.Appendf("Webhook %s registered for %s", ep.ID, ep.URL)
	return ep, nil
}
