package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paymentops/stripe-alerts/internal/alert/application"
	alerthttp "github.com/paymentops/stripe-alerts/internal/alert/infrastructure/http"
	"github.com/paymentops/stripe-alerts/internal/alert/infrastructure/smtp"
	"github.com/paymentops/stripe-alerts/internal/alert/infrastructure/stripe"
	"github.com/paymentops/stripe-alerts/pkg/activitylog"
	"github.com/paymentops/stripe-alerts/pkg/config"
	"github.com/paymentops/stripe-alerts/pkg/logging"
	"github.com/paymentops/stripe-alerts/pkg/shutdown"
	"github.com/paymentops/stripe-alerts/pkg/tracing"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "alert-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	sender, err := smtp.NewSender(log, cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)
	if err != nil {
		log.Error("smtp client init failed", "err", err)
		os.Exit(1)
	}

	activity := activitylog.New(100)
	processor := stripe.NewClient(log, cfg.StripeSecretKey)
	dispatcher := application.NewDispatcher(log, sender, activity, cfg.EmailUser, cfg.AlertEmail)
	svc := application.NewService(log, processor, dispatcher, activity)
	handler := alerthttp.NewHandler(log, svc, activity, cfg.StripeConfigured(), cfg.EmailConfigured())

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())

	// No write timeout: a manual check holds the response open for as long
	// as the sequential email dispatches take.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	activity.Append("Service started")
	log.Info("alert-service listening", "port", cfg.Port,
		"stripe_configured", cfg.StripeConfigured(), "email_configured", cfg.EmailConfigured())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("alert-service shutdown")
}
