package application

import (
	"context"
	"log/slog"

	"github.com/paymentops/stripe-alerts/internal/alert/domain"
	"github.com/paymentops/stripe-alerts/pkg/activitylog"
)

// Dispatcher renders a FailureRecord into an alert email and sends it. It
// never returns an error: a transport failure becomes a false result plus an
// activity entry, so one bad alert cannot abort a batch.
type Dispatcher struct {
	log      *slog.Logger
	sender   EmailSender
	activity *activitylog.Log
	from     string
	to       string
}

func NewDispatcher(log *slog.Logger, sender EmailSender, activity *activitylog.Log, from, to string) *Dispatcher {
	if to == "" {
		to = from
	}
	return &Dispatcher{log: log, sender: sender, activity: activity, from: from, to: to}
}

func (d *Dispatcher) Dispatch(ctx context.Context, rec domain.FailureRecord) bool {
	view := newAlertView(rec)
	html, err := renderHTML(view)
	if err != nil {
		d.log.Error("alert render failed", "record_id", rec.ID, "err", err)
		d.activity.Appendf("Failed to send alert for %s: %v", rec.ID, err)
		return false
	}

	msg := EmailMessage{
		From:    d.from,
		To:      d.to,
		Subject: renderSubject(rec),
		Text:    renderText(view),
		HTML:    html,
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		d.log.Error("alert email failed", "record_id", rec.ID, "err", err)
		d.activity.Appendf("Failed to send alert for %s: %v", rec.ID, err)
		return false
	}

	d.log.Info("alert email sent", "record_id", rec.ID, "to", d.to)
	d.activity.Appendf("Alert sent for %s", rec.ID)
	return true
}
