package timeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/genesis"
)

// Payload keys read when turning a transaction into an Entry.
const (
	FieldAssessmentID = "assessmentId"
	FieldDescription  = "description"
	FieldAmount       = "amount"
	FieldChanges      = "changes"
)

// FromChain turns every non-genesis transaction into a confirmed Entry, in chain order.
func FromChain(chain []block.Block) []Entry {
	var out []Entry
	for _, b := range chain {
		for _, tx := range b.Transactions {
			if genesis.IsGenesis(tx) {
				continue
			}
			out = append(out, FromTransaction(b, tx))
		}
	}
	return out
}

// FromTransaction builds the Entry for tx sealed in b.
func FromTransaction(b block.Block, tx block.Transaction) Entry {
	e := Entry{
		ID:           tx.TxID,
		Type:         tx.Type(),
		AssessmentID: tx.Str(FieldAssessmentID),
		Timestamp:    tx.Timestamp,
		Description:  tx.Str(FieldDescription),
		Status:       StatusConfirmed,
		BlockNumber:  b.Index,
		TxHash:       b.Hash,
		Changes:      changes(tx.Payload[FieldChanges]),
	}
	if e.Description == "" {
		e.Description = Classify(e.Type).Title()
	}
	if d, ok := amount(tx.Payload[FieldAmount]); ok {
		e.Amount = &d
	}
	return e
}

func amount(v interface{}) (decimal.Decimal, bool) {
	var (
		d   decimal.Decimal
		err error
	)
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(n))
	case json.Number:
		d, err = decimal.NewFromString(n.String())
	case float64:
		d = decimal.NewFromFloat(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	default:
		return decimal.Zero, false
	}
	return d, err == nil
}

func changes(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out
}
