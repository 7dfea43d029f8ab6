package block

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
)

// FingerprintLen is the length of every display fingerprint.
const FingerprintLen = 64

// ZeroHash is the PreviousHash of the genesis block.
var ZeroHash = strings.Repeat("0", FingerprintLen)

// header is the hashed view of a block: every field except Hash.
type header struct {
	Index        uint64        `json:"index"`
	Timestamp    string        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previousHash"`
}

// Canonical returns the deterministic serialisation of b that fingerprints and digests
// are computed over. b.Hash is never part of it.
func Canonical(b Block) ([]byte, error) {
	txs := b.Transactions
	if txs == nil {
		txs = []Transaction{}
	}
	h := header{
		Index:        b.Index,
		Timestamp:    b.Timestamp.UTC().Format(TimeLayout),
		Transactions: txs,
		PreviousHash: b.PreviousHash,
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("canonical block %d: %w", b.Index, err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// Fingerprint is the block's display hash: a 32-bit rolling hash of the canonical form,
// rendered as 64 lowercase hex characters. It carries 32 bits of entropy and is not an
// integrity check; see Digest for that.
func Fingerprint(b Block) (string, error) {
	data, err := Canonical(b)
	if err != nil {
		return "", err
	}
	return FingerprintString(string(data)), nil
}

// FingerprintString folds s one UTF-16 code unit at a time into
// acc = (acc<<5) - acc + c, wrapping at 32 bits.
func FingerprintString(s string) string {
	var acc int32
	for _, c := range utf16.Encode([]rune(s)) {
		acc = (acc << 5) - acc + int32(c)
	}
	hex := fmt.Sprintf("%x", uint32(acc))
	return strings.Repeat("0", FingerprintLen-len(hex)) + hex
}
