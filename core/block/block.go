package block

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field names the ledger stamps onto every submitted payload.
const (
	FieldTxID      = "txId"
	FieldTimestamp = "timestamp"
	FieldType      = "type"
)

// TimeLayout is the ISO-8601 form used for every ledger timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Transaction is a caller payload stamped by the ledger with a TxID and Timestamp.
// Its JSON form is flat: payload keys sit next to txId and timestamp.
type Transaction struct {
	TxID      string
	Timestamp time.Time
	Payload   map[string]interface{}
}

// Type returns the payload's "type" field, or "" when absent.
func (tx Transaction) Type() string {
	s, _ := tx.Payload[FieldType].(string)
	return s
}

// Str returns a string payload field, or "" when absent or not a string.
func (tx Transaction) Str(key string) string {
	s, _ := tx.Payload[key].(string)
	return s
}

// Clone returns a deep copy so callers can't reach into ledger state.
func (tx Transaction) Clone() Transaction {
	out := tx
	out.Payload = CloneMap(tx.Payload)
	return out
}

func (tx Transaction) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(tx.Payload)+2)
	for k, v := range tx.Payload {
		flat[k] = v
	}
	flat[FieldTxID] = tx.TxID
	flat[FieldTimestamp] = tx.Timestamp.UTC().Format(TimeLayout)
	return json.Marshal(flat)
}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var flat map[string]interface{}
	if err := dec.Decode(&flat); err != nil {
		return err
	}
	id, _ := flat[FieldTxID].(string)
	ts, _ := flat[FieldTimestamp].(string)
	delete(flat, FieldTxID)
	delete(flat, FieldTimestamp)

	tx.TxID = id
	tx.Timestamp = time.Time{}
	if ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return fmt.Errorf("transaction %s: bad timestamp: %w", id, err)
		}
		tx.Timestamp = t.UTC()
	}
	tx.Payload = flat
	return nil
}

// Block is one sealed batch of transactions linked to its predecessor by PreviousHash.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    time.Time     `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previousHash"`
	Hash         string        `json:"hash"`
}

// New builds an unsealed block; Seal computes its hash.
func New(index uint64, ts time.Time, txs []Transaction, previousHash string) Block {
	return Block{
		Index:        index,
		Timestamp:    ts.UTC().Truncate(time.Millisecond),
		Transactions: txs,
		PreviousHash: previousHash,
	}
}

// Seal sets Hash from the block's other fields. A block is sealed exactly once.
func (b *Block) Seal() error {
	h, err := Fingerprint(*b)
	if err != nil {
		return err
	}
	b.Hash = h
	return nil
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := b
	out.Transactions = make([]Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		out.Transactions[i] = tx.Clone()
	}
	return out
}

// CloneMap deep-copies a JSON-shaped map.
func CloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return CloneMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
