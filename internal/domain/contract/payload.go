package contract

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for contract dates.
const dateLayout = "2006-01-02"

// SignPayload captures the payload for contract.sign commands and contract.signed events.
type SignPayload struct {
	CustomerID       string `json:"customer_id"`
	ProductVariantID string `json:"product_variant_id"`
	BookingID        string `json:"booking_id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
}

// PausePayload captures the payload for contract.pause commands and contract.paused events.
type PausePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	Days int    `json:"days,omitempty"`
}

// ResumePayload captures the payload for contract.resume commands.
type ResumePayload struct {
	Reason string `json:"reason,omitempty"`
}

// ResumedPayload captures the payload for contract.resumed events. The
// extension is computed once at decision time so replay stays deterministic.
type ResumedPayload struct {
	ExtensionDays int    `json:"extension_days"`
	NewEndDate    string `json:"new_end_date"`
}

// CancelPayload captures the payload for contract.cancel commands and contract.cancelled events.
type CancelPayload struct {
	Reason string `json:"reason,omitempty"`
}

// CompletePayload captures the payload for contract.complete commands and contract.completed events.
type CompletePayload struct{}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return parsed.UTC(), nil
}

func formatDate(value time.Time) string {
	return value.UTC().Format(dateLayout)
}

// daysBetween returns the whole-day span between two dates, e.g.
// 2023-06-01..2023-06-30 spans 29 days.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
