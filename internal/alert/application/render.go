package application

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paymentops/stripe-alerts/internal/alert/domain"
)

var hundred = decimal.NewFromInt(100)

// FormatAmount renders a minor-unit amount as "$<major>.<2dp> <CURRENCY>".
// Fixed-point display, not locale-aware currency formatting.
func FormatAmount(minor int64, currency string) string {
	major := decimal.NewFromInt(minor).Div(hundred)
	return "$" + major.StringFixed(2) + " " + strings.ToUpper(currency)
}

// alertView is the fully-defaulted projection of a FailureRecord that both
// the text and HTML bodies render from, so sentinel substitution is identical
// for every event variant.
type alertView struct {
	CustomerName  string
	CustomerEmail string
	Amount        string
	RecordID      string
	FailureCode   string
	FailureReason string
	Date          string
	DashboardURL  string
}

func newAlertView(rec domain.FailureRecord) alertView {
	return alertView{
		CustomerName:  orUnknown(rec.CustomerName),
		CustomerEmail: orUnknown(rec.CustomerEmail),
		Amount:        FormatAmount(rec.AmountMinor, rec.Currency),
		RecordID:      rec.ID,
		FailureCode:   orUnknown(rec.FailureCode),
		FailureReason: orUnknown(rec.FailureReason),
		Date:          time.Unix(rec.OccurredAt, 0).UTC().Format(time.RFC1123),
		DashboardURL:  rec.DashboardURL(),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return domain.Unknown
	}
	return s
}

func renderSubject(rec domain.FailureRecord) string {
	return "Payment Failed - " + FormatAmount(rec.AmountMinor, rec.Currency)
}

func renderText(v alertView) string {
	return fmt.Sprintf(`A payment has failed.

Customer: %s
Email: %s
Amount: %s
Payment ID: %s
Failure Code: %s
Failure Reason: %s
Date: %s

View in dashboard: %s
`, v.CustomerName, v.CustomerEmail, v.Amount, v.RecordID, v.FailureCode, v.FailureReason, v.Date, v.DashboardURL)
}

var htmlBody = template.Must(template.New("alert").Parse(`<div style="font-family: sans-serif; max-width: 600px;">
  <h2 style="color: #c0392b;">Payment Failed</h2>
  <p><strong>Customer:</strong> {{.CustomerName}}</p>
  <p><strong>Email:</strong> {{.CustomerEmail}}</p>
  <p><strong>Amount:</strong> {{.Amount}}</p>
  <p><strong>Payment ID:</strong> {{.RecordID}}</p>
  <p><strong>Failure Code:</strong> {{.FailureCode}}</p>
  <p><strong>Failure Reason:</strong> {{.FailureReason}}</p>
  <p><strong>Date:</strong> {{.Date}}</p>
  <p><a href="{{.DashboardURL}}">View in Stripe Dashboard</a></p>
</div>
`))

func renderHTML(v alertView) (string, error) {
	var b strings.Builder
	if err := htmlBody.Execute(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}
