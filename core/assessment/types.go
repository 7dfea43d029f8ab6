package assessment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
)

var (
	ErrNotFound     = errors.New("assessment not found")
	ErrDuplicate    = errors.New("assessment already exists")
	ErrInvalidInput = errors.New("invalid assessment input")
)

// History actions.
const (
	ActionCreated         = "Created"
	ActionModified        = "Modified"
	ActionAdjustmentAdded = "Adjustment Added"
	ActionStatusChanged   = "Status Changed"
)

// HistoryEntry is one append-only audit record of an assessment.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// Adjustment is a reasoned delta applied to an assessment. Payments are negative.
type Adjustment struct {
	Reason    string          `json:"reason"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type,omitempty"`
	Reference string          `json:"reference,omitempty"`
	TxID      string          `json:"txId,omitempty"`
}

// Assessment is a taxpayer liability record with its own adjustment list and history.
type Assessment struct {
	AssessmentID   string                 `json:"assessmentId"`
	TaxpayerID     string                 `json:"taxpayerId,omitempty"`
	TaxType        string                 `json:"taxType,omitempty"`
	Status         string                 `json:"status,omitempty"`
	Amount         decimal.Decimal        `json:"amount"`
	DueDate        *time.Time             `json:"dueDate,omitempty"`
	Extra          map[string]interface{} `json:"extra,omitempty"`
	Adjustments    []Adjustment           `json:"adjustments"`
	BlockchainHash string                 `json:"blockchainHash"`
	CreatedAt      time.Time              `json:"createdAt"`
	History        []HistoryEntry         `json:"history"`
}

// Balance is the assessed amount plus every adjustment.
func (a Assessment) Balance() decimal.Decimal {
	total := a.Amount
	for _, adj := range a.Adjustments {
		total = total.Add(adj.Amount)
	}
	return total
}

// Clone returns a deep copy.
func (a Assessment) Clone() Assessment {
	out := a
	if a.DueDate != nil {
		d := *a.DueDate
		out.DueDate = &d
	}
	out.Extra = block.CloneMap(a.Extra)
	out.Adjustments = append([]Adjustment{}, a.Adjustments...)
	out.History = append([]HistoryEntry{}, a.History...)
	return out
}

// Input carries the caller-supplied fields of a new assessment.
type Input struct {
	AssessmentID   string
	TaxpayerID     string
	TaxType        string
	Status         string
	Amount         decimal.Decimal
	DueDate        *time.Time
	Extra          map[string]interface{}
	BlockchainHash string
}

// Patch replaces the fields that are set; nil fields keep their current value.
// AssessmentID selects the assessment and is never changed.
type Patch struct {
	AssessmentID string
	TaxpayerID   *string
	TaxType      *string
	Status       *string
	Amount       *decimal.Decimal
	DueDate      *time.Time
	Extra        map[string]interface{}
}
