package http

import (
	"context"
	"io"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/paymentops/stripe-alerts/internal/alert/application"
	"github.com/paymentops/stripe-alerts/internal/alert/domain"
	"github.com/paymentops/stripe-alerts/pkg/activitylog"
)

type stubSender struct {
	sent []application.EmailMessage
	fail func(application.EmailMessage) error
}

func (s *stubSender) Send(_ context.Context, msg application.EmailMessage) error {
	if s.fail != nil {
		if err := s.fail(msg); err != nil {
			return err
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubProcessor struct {
	charges    []domain.Charge
	listErr    error
	account    domain.Account
	accountErr error
	endpoint   domain.WebhookEndpoint
	createErr  error
	gotURL     string
}

func (s *stubProcessor) ListCharges(context.Context, time.Time, int) ([]domain.Charge, error) {
	return s.charges, s.listErr
}

func (s *stubProcessor) GetAccount(context.Context) (domain.Account, error) {
	return s.account, s.accountErr
}

func (s *stubProcessor) CreateWebhookEndpoint(_ context.Context, url string, _ []string) (domain.WebhookEndpoint, error) {
	s.gotURL = url
	return s.endpoint, s.createErr
}

type fixture struct {
	handler  *Handler
	sender   *stubSender
	proc     *stubProcessor
	activity *activitylog.Log
}

func newFixture() *fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &stubSender{}
	proc := &stubProcessor{}
	activity := activitylog.New(100)
	dispatcher := application.NewDispatcher(log, sender, activity, "alerts@example.com", "ops@example.com")
	svc := application.NewService(log, proc, dispatcher, activity)
	return &fixture{
		handler:  NewHandler(log, svc, activity, true, true),
		sender:   sender,
		proc:     proc,
		activity: activity,
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestWebhookChargeFailedScenario(t *testing.T) {
	f := newFixture()
	body := `{"type": "charge.failed", "data": {"object": {"id": "ch_1", "amount": 999, "currency": "eur", "created": 1700000000}}}`

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]bool
	decode(t, rec, &resp)
	if !resp["received"] {
		t.Fatalf("response = %v, want received:true", resp)
	}

	if len(f.sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.sender.sent))
	}
	msg := f.sender.sent[0]
	if msg.Subject != "Payment Failed - $9.99 EUR" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "Customer: Unknown") || !strings.Contains(msg.Text, "Email: Unknown") {
		t.Fatalf("missing billing details must render Unknown:\n%s", msg.Text)
	}

	var logged bool
	for _, e := range f.activity.Recent(50) {
		if strings.Contains(e.Message, "ch_1") {
			logged = true
		}
	}
	if !logged {
		t.Fatal("activity log should record ch_1")
	}
}

func TestWebhookUnrecognizedTypeAcknowledged(t *testing.T) {
	f := newFixture()
	body := `{"type": "customer.created", "data": {"object": {"id": "cus_1"}}}`

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]bool
	decode(t, rec, &resp)
	if !resp["received"] {
		t.Fatalf("response = %v", resp)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("no dispatch expected, got %d", len(f.sender.sent))
	}
}

func TestWebhookMalformedBodyIs400(t *testing.T) {
	f := newFixture()
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{broken`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if resp["error"] == "" {
		t.Fatal("error shape must be {\"error\": <message>}")
	}
}

func TestWebhookDispatchFailureStillAcknowledges(t *testing.T) {
	f := newFixture()
	f.sender.fail = func(application.EmailMessage) error { return errors.New("smtp down") }
	body := `{"type": "charge.failed", "data": {"object": {"id": "ch_9", "amount": 100, "currency": "usd"}}}`

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 regardless of dispatch outcome", rec.Code)
	}
}

func TestCheckFailedPaymentsSummary(t *testing.T) {
	f := newFixture()
	f.proc.charges = []domain.Charge{
		{ID: "ch_ok", Amount: 500, Currency: "usd", Paid: true},
		{ID: "ch_f1", Amount: 2500, Currency: "usd", Paid: false, Created: 1700000000},
	}

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check-failed-payments", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res application.CheckResult
	decode(t, rec, &res)
	if res.FailedCharges != 1 || res.EmailsSent != 1 {
		t.Fatalf("summary = %+v", res)
	}
	if len(res.Charges) != 1 || res.Charges[0].ID != "ch_f1" || res.Charges[0].Amount != 25.0 {
		t.Fatalf("charges = %+v", res.Charges)
	}
}

func TestCheckFailedPaymentsUpstreamErrorIs500(t *testing.T) {
	f := newFixture()
	f.proc.listErr = errors.New("stripe: invalid api key")

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check-failed-payments", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if !strings.Contains(resp["error"], "invalid api key") {
		t.Fatalf("error = %q", resp["error"])
	}
}

func TestTestEndpoint(t *testing.T) {
	f := newFixture()
	f.proc.account = domain.Account{ID: "acct_1"}

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", nil))

	var res application.TestResult
	decode(t, rec, &res)
	if !res.StripeConnected || res.AccountID != "acct_1" || !res.EmailSent {
		t.Fatalf("result = %+v", res)
	}
}

func TestSetupWebhookDerivesURLFromRequest(t *testing.T) {
	f := newFixture()
	f.proc.endpoint = domain.WebhookEndpoint{ID: "we_1", URL: "https://alerts.example.com/webhook"}

	req := httptest.NewRequest(http.MethodPost, "/setup-webhook", nil)
	req.Host = "alerts.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.proc.gotURL != "https://alerts.example.com/webhook" {
		t.Fatalf("derived url = %q", f.proc.gotURL)
	}
	var resp map[string]any
	decode(t, rec, &resp)
	if resp["id"] != "we_1" {
		t.Fatalf("response = %v", resp)
	}
}

func TestRootMetadata(t *testing.T) {
	f := newFixture()
	f.activity.Append("Service started")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "localhost:3000"
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)

	var resp map[string]any
	decode(t, rec, &resp)
	if resp["status"] != "running" {
		t.Fatalf("status = %v", resp["status"])
	}
	if resp["webhookUrl"] != "http://localhost:3000/webhook" {
		t.Fatalf("webhookUrl = %v", resp["webhookUrl"])
	}
	if resp["lastActivity"] != "Service started" {
		t.Fatalf("lastActivity = %v", resp["lastActivity"])
	}
	if _, ok := resp["endpoints"].(map[string]any); !ok {
		t.Fatalf("endpoints directory missing: %v", resp["endpoints"])
	}
}

func TestHealthReportsConfigurationPresence(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	activity := activitylog.New(100)
	dispatcher := application.NewDispatcher(log, &stubSender{}, activity, "", "")
	svc := application.NewService(log, &stubProcessor{}, dispatcher, activity)
	h := NewHandler(log, svc, activity, false, true)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp map[string]any
	decode(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("status = %v", resp["status"])
	}
	if resp["stripeConfigured"] != false || resp["emailConfigured"] != true {
		t.Fatalf("config presence wrong: %v", resp)
	}
}

func TestLogsEndpointCapsAtFifty(t *testing.T) {
	f := newFixture()
	for i := 0; i < 80; i++ {
		f.activity.Append(fmt.Sprintf("entry %d", i))
	}

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs", nil))

	var resp struct {
		Entries []activitylog.Entry `json:"entries"`
		Count   int64               `json:"count"`
	}
	decode(t, rec, &resp)
	if len(resp.Entries) != 50 {
		t.Fatalf("entries = %d, want 50", len(resp.Entries))
	}
	if resp.Count != 80 {
		t.Fatalf("count = %d, want 80", resp.Count)
	}
	if resp.Entries[49].Message != "entry 79" {
		t.Fatalf("newest entry = %q", resp.Entries[49].Message)
	}
}
