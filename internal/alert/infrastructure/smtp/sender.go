package smtp

import (
	"context"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/paymentops/stripe-alerts/internal/alert/application"
)

// Sender delivers alert emails over SMTP.
type Sender struct {
	log    *slog.Logger
	client *mail.Client
}

// NewSender builds the SMTP client. Auth is skipped when username is empty,
// which local relays like Mailpit rely on.
func NewSender(log *slog.Logger, host string, port int, username, password string) (*Sender, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, err
	}
	return &Sender{log: log, client: client}, nil
}

func (s *Sender) Send(ctx context.Context, msg application.EmailMessage) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return err
	}
	s.log.Debug("email delivered", "to", msg.To, "subject", msg.Subject)
	return nil
}
