package application

import (
	"context"
	"time"

	"github.com/paymentops/stripe-alerts/internal/alert/domain"
)

type EmailMessage struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type ProcessorClient interface {
	ListCharges(ctx context.Context, createdAfter time.Time, limit int) ([]domain.Charge, error)
	GetAccount(ctx context.Context) (domain.Account, error)
	CreateWebhookEndpoint(ctx context.Context, url string, events []string) (domain.WebhookEndpoint, error)
}
