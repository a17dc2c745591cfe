package http

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/paymentops/stripe-alerts/internal/alert/application"
	"github.com/paymentops/stripe-alerts/internal/alert/domain"
	"github.com/paymentops/stripe-alerts/pkg/activitylog"
)

type Handler struct {
	log              *slog.Logger
	service          *application.Service
	activity         *activitylog.Log
	stripeConfigured bool
	emailConfigured  bool
	tracer           trace.Tracer
	started          time.Time
}

func NewHandler(log *slog.Logger, service *application.Service, activity *activitylog.Log, stripeConfigured, emailConfigured bool) *Handler {
	return &Handler{
		log:              log,
		service:          service,
		activity:         activity,
		stripeConfigured: stripeConfigured,
		emailConfigured:  emailConfigured,
		tracer:           otel.Tracer("alert-http"),
		started:          time.Now(),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/webhook", h.webhook)
	r.Post("/check-failed-payments", h.checkFailedPayments)
	r.Post("/test", h.testPipeline)
	r.Post("/setup-webhook", h.setupWebhook)
	r.Get("/", h.root)
	r.Get("/health", h.health)
	r.Get("/logs", h.logs)

	return r
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Webhook")
	defer span.End()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	ev, err := domain.ParseEvent(body)
	if err != nil {
		h.activity.Appendf("Webhook rejected: %v", err)
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	h.activity.Appendf("Webhook received: %s", ev.EventType())
	// Dispatch outcome does not change the response; the event is
	// acknowledged once parsed.
	h.service.HandleEvent(ctx, ev)
	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) checkFailedPayments(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CheckFailedPayments")
	defer span.End()

	res, err := h.service.CheckFailedPayments(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) testPipeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TestPipeline")
	defer span.End()

	h.writeJSON(w, http.StatusOK, h.service.TestPipeline(ctx))
}

func (h *Handler) setupWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetupWebhook")
	defer span.End()

	ep, err := h.service.SetupWebhook(ctx, webhookURL(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":            ep.ID,
		"url":           ep.URL,
		"enabledEvents": ep.EnabledEvents,
	})
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	var last string
	if entry, ok := h.activity.Last(); ok {
		last = entry.Message
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"service": "stripe-alerts",
		"status":  "running",
		"uptime":  int64(time.Since(h.started).Seconds()),
		"endpoints": map[string]string{
			"POST /webhook":               "receive Stripe events",
			"POST /check-failed-payments": "poll for unpaid charges",
			"POST /test":                  "verify Stripe and email connectivity",
			"POST /setup-webhook":         "register the webhook subscription",
			"GET /health":                 "liveness and configuration presence",
			"GET /logs":                   "recent activity",
		},
		"lastActivity": last,
		"webhookUrl":   webhookURL(r),
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"stripeConfigured": h.stripeConfigured,
		"emailConfigured":  h.emailConfigured,
	})
}

func (h *Handler) logs(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"entries": h.activity.Recent(50),
		"count":   h.activity.Total(),
	})
}

// webhookURL derives this service's own webhook address from the inbound
// request, trusting X-Forwarded-Proto when a proxy sets it.
func webhookURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + "/webhook"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encode failed", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.log.Error("request failed", "status", status, "err", err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
