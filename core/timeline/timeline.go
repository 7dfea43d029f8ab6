// Package timeline projects ledger entries into categorised display events. It never
// mutates its input and never fails on an unrecognised entry type.
package timeline

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryAssessmentCreated Category = "assessment-created"
	CategoryInterestApplied   Category = "interest-applied"
	CategoryPenaltyApplied    Category = "penalty-applied"
	CategoryPaymentReceived   Category = "payment-received"
	CategoryStatusChanged     Category = "status-changed"
	CategoryOther             Category = "other"
)

// Ledger transaction types, as written by the operations recorder.
const (
	TypeAssessmentCreated = "ASSESSMENT_CREATED"
	TypeInterestApplied   = "INTEREST_APPLIED"
	TypePenaltyApplied    = "PENALTY_APPLIED"
	TypePaymentReceived   = "PAYMENT_RECEIVED"
	TypeStatusChanged     = "STATUS_CHANGED"

	// These have no category of their own and project as CategoryOther.
	TypeAssessmentUpdated = "ASSESSMENT_UPDATED"
	TypeAssessmentDeleted = "ASSESSMENT_DELETED"
	TypeAdjustmentAdded   = "ADJUSTMENT_ADDED"
)

const StatusConfirmed = "CONFIRMED"

var categories = map[string]Category{
	"assessment-created": CategoryAssessmentCreated,
	"interest-applied":   CategoryInterestApplied,
	"penalty-applied":    CategoryPenaltyApplied,
	"payment-received":   CategoryPaymentReceived,
	"status-changed":     CategoryStatusChanged,
}

// Classify maps an entry type onto a category. Matching ignores case and treats
// underscores and spaces as hyphens; anything unrecognised is CategoryOther.
func Classify(entryType string) Category {
	key := strings.ToLower(strings.TrimSpace(entryType))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	if c, ok := categories[key]; ok {
		return c
	}
	return CategoryOther
}

// Title is a human label for the category.
func (c Category) Title() string {
	switch c {
	case CategoryAssessmentCreated:
		return "Assessment created"
	case CategoryInterestApplied:
		return "Interest applied"
	case CategoryPenaltyApplied:
		return "Penalty applied"
	case CategoryPaymentReceived:
		return "Payment received"
	case CategoryStatusChanged:
		return "Status changed"
	default:
		return "Ledger entry"
	}
}

// Entry is one ledger event as read by the projection.
type Entry struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	AssessmentID string            `json:"assessmentId,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Description  string            `json:"description"`
	Amount       *decimal.Decimal  `json:"amount,omitempty"`
	Status       string            `json:"status"`
	BlockNumber  uint64            `json:"blockNumber"`
	TxHash       string            `json:"txHash"`
	Changes      map[string]string `json:"changes,omitempty"`
}

// DisplayEvent is an Entry with its resolved category and visual treatment.
type DisplayEvent struct {
	Entry
	Category  Category  `json:"category"`
	Treatment Treatment `json:"treatment"`
	Confirmed bool      `json:"confirmed"`
	// Example marks events substituted for an empty input.
	Example bool `json:"example,omitempty"`
}

type Options struct {
	// ExampleFallback substitutes Examples() when there are no entries.
	ExampleFallback bool
	// Palette overrides DefaultPalette(). Missing keys resolve to DefaultTreatment.
	Palette Palette
}

// Project maps entries onto display events in input order.
func Project(entries []Entry, opts Options) []DisplayEvent {
	example := false
	if len(entries) == 0 && opts.ExampleFallback {
		entries = Examples()
		example = true
	}
	palette := opts.Palette
	if palette == nil {
		palette = DefaultPalette()
	}

	out := make([]DisplayEvent, 0, len(entries))
	for _, e := range entries {
		cat := Classify(e.Type)
		out = append(out, DisplayEvent{
			Entry:     e,
			Category:  cat,
			Treatment: palette.Resolve(string(cat)),
			Confirmed: strings.EqualFold(e.Status, StatusConfirmed),
			Example:   example,
		})
	}
	return out
}

// Examples is the fixed set shown for an empty timeline when the fallback is enabled.
func Examples() []Entry {
	amount := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	return []Entry{
		{
			ID:           "example-1",
			Type:         TypeAssessmentCreated,
			AssessmentID: "EXAMPLE-001",
			Timestamp:    time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
			Description:  "Assessment created for income tax return",
			Amount:       amount("500000"),
			Status:       StatusConfirmed,
			BlockNumber:  1,
			TxHash:       "0000000000000000000000000000000000000000000000000000000045a1c3e2",
		},
		{
			ID:           "example-2",
			Type:         TypeInterestApplied,
			AssessmentID: "EXAMPLE-001",
			Timestamp:    time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC),
			Description:  "Monthly interest applied on outstanding balance",
			Amount:       amount("7500"),
			Status:       StatusConfirmed,
			BlockNumber:  2,
			TxHash:       "000000000000000000000000000000000000000000000000000000001b7f9d04",
			Changes:      map[string]string{"rate": "0.015"},
		},
		{
			ID:           "example-3",
			Type:         TypePenaltyApplied,
			AssessmentID: "EXAMPLE-001",
			Timestamp:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			Description:  "Late filing penalty",
			Amount:       amount("25000"),
			Status:       StatusConfirmed,
			BlockNumber:  3,
			TxHash:       "000000000000000000000000000000000000000000000000000000007c2e08b9",
		},
	}
}
