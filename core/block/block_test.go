package block

import (
	"encoding/json"
	"regexp"
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexFingerprint = regexp.MustCompile(`^[0-9a-f]{64}$`)

func sampleBlock() Block {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	return New(1, ts, []Transaction{{
		TxID:      "tx-1",
		Timestamp: ts,
		Payload:   map[string]interface{}{"type": "PENALTY_APPLIED", "assessmentId": "A1", "amount": 25000},
	}}, ZeroHash)
}

func TestFingerprintString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ZeroHash},
		{"abc", "0000000000000000000000000000000000000000000000000000000000017862"},
		{"hello world", "000000000000000000000000000000000000000000000000000000006aefe2c4"},
		{"€", "00000000000000000000000000000000000000000000000000000000000020ac"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FingerprintString(tc.in))
		})
	}
}

func TestFingerprintFormatProperty(t *testing.T) {
	f := func(s string) bool {
		return hexFingerprint.MatchString(FingerprintString(s))
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestFingerprintIgnoresHashField(t *testing.T) {
	a := sampleBlock()
	b := sampleBlock()
	b.Hash = "something-else"

	ha, err := Fingerprint(a)
	require.NoError(t, err)
	hb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Regexp(t, hexFingerprint, ha)

	b.PreviousHash = "1" + ZeroHash[1:]
	hc, err := Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestSealIsReproducible(t *testing.T) {
	b := sampleBlock()
	require.NoError(t, b.Seal())

	data, err := json.Marshal(b)
	require.NoError(t, err)
	var decoded Block
	require.NoError(t, json.Unmarshal(data, &decoded))

	again, err := Fingerprint(decoded)
	require.NoError(t, err)
	assert.Equal(t, b.Hash, again)
}

func TestTransactionJSONIsFlat(t *testing.T) {
	tx := sampleBlock().Transactions[0]
	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "tx-1", flat["txId"])
	assert.Equal(t, "2025-03-14T09:26:53.589Z", flat["timestamp"])
	assert.Equal(t, "PENALTY_APPLIED", flat["type"])
	assert.Equal(t, "A1", flat["assessmentId"])

	var back Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tx.TxID, back.TxID)
	assert.True(t, tx.Timestamp.Equal(back.Timestamp))
	assert.Equal(t, "PENALTY_APPLIED", back.Type())
	assert.NotContains(t, back.Payload, "txId")
}

func TestLedgerFieldsWinOverPayload(t *testing.T) {
	tx := Transaction{TxID: "tx-real", Payload: map[string]interface{}{"txId": "tx-fake"}}
	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"txId":"tx-real"`)
}

func TestCloneIsDeep(t *testing.T) {
	b := sampleBlock()
	b.Transactions[0].Payload["changes"] = map[string]interface{}{"status": "OPEN"}
	c := b.Clone()

	c.Transactions[0].Payload["amount"] = 1
	c.Transactions[0].Payload["changes"].(map[string]interface{})["status"] = "PAID"

	assert.Equal(t, 25000, b.Transactions[0].Payload["amount"])
	assert.Equal(t, "OPEN", b.Transactions[0].Payload["changes"].(map[string]interface{})["status"])
}

func TestDigestAndMerkle(t *testing.T) {
	b := sampleBlock()
	d1, err := Digest(b)
	require.NoError(t, err)
	b.Hash = "ignored"
	d2, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	assert.Equal(t, "", MerkleRoot(nil))
	assert.Equal(t, "aa", MerkleRoot([]string{"aa"}))
	assert.Equal(t, MerkleRoot([]string{"aa", "bb", "cc"}), MerkleRoot([]string{"aa", "bb", "cc"}))
	assert.NotEqual(t, MerkleRoot([]string{"aa", "bb"}), MerkleRoot([]string{"bb", "aa"}))

	b.Transactions[0].Payload["amount"] = 1
	d3, err := Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}
