package domain

// Unknown is the sentinel rendered for any optional field missing from the
// source event.
const Unknown = "Unknown"

// FailureRecord is the canonical shape every failure event variant is
// normalized into. Optional fields stay empty here; sentinel substitution
// happens at render time so both variants behave identically.
type FailureRecord struct {
	ID            string
	AmountMinor   int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	FailureCode   string
	FailureReason string
	OccurredAt    int64
}

// DashboardURL is the deep link to the processor's dashboard page for this
// record.
func (r FailureRecord) DashboardURL() string {
	return "https://dashboard.stripe.com/payments/" + r.ID
}
