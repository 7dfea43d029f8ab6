package chain

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/genesis"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/types/ids"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestLedger() *Ledger {
	return NewLedger(WithIDGenerator(ids.NewSequenceGenerator("")), WithClock(fixedClock()))
}

func TestFirstTransaction(t *testing.T) {
	l := NewLedger()

	rec, err := l.AddTransaction(map[string]interface{}{"type": "GENESIS_TEST", "amount": 100})
	require.NoError(t, err)

	chain := l.Chain()
	require.Len(t, chain, 2)
	assert.Equal(t, chain[0].Hash, chain[1].PreviousHash)
	require.Len(t, chain[1].Transactions, 1)
	assert.Equal(t, uint64(1), rec.Block.Index)
	assert.Equal(t, rec.Tx.TxID, chain[1].Transactions[0].TxID)
	assert.Regexp(t, `^tx-[0-9a-z]+$`, rec.Tx.TxID)
	assert.Equal(t, "GENESIS_TEST", rec.Tx.Type())
	assert.False(t, rec.Tx.Timestamp.IsZero())
	assert.Empty(t, l.Pending())
}

func TestLedgerStartsAtGenesis(t *testing.T) {
	l := NewLedger()
	assert.Equal(t, 1, l.Height())
	assert.Equal(t, genesis.Block(), l.Tail())
	require.NoError(t, l.Verify())
}

func TestAppendOnlyGrowth(t *testing.T) {
	l := newTestLedger()
	for i := 0; i < 5; i++ {
		before := l.Chain()
		_, err := l.AddTransaction(map[string]interface{}{"type": "PAYMENT_RECEIVED", "seq": i})
		require.NoError(t, err)
		after := l.Chain()

		require.Len(t, after, len(before)+1)
		assert.Equal(t, before, after[:len(before)], "prior blocks must not change")
		last := after[len(after)-1]
		assert.Equal(t, uint64(len(before)), last.Index)
		assert.Equal(t, before[len(before)-1].Hash, last.PreviousHash)
	}
	require.NoError(t, l.Verify())
}

func TestStampingUsesInjectedGeneratorAndClock(t *testing.T) {
	l := newTestLedger()
	rec, err := l.AddTransaction(map[string]interface{}{"type": "X", "txId": "tx-spoofed", "timestamp": "yesterday"})
	require.NoError(t, err)

	assert.Equal(t, "tx-1", rec.Tx.TxID)
	assert.Equal(t, time.Date(2025, 6, 1, 8, 0, 1, 0, time.UTC), rec.Tx.Timestamp)
	assert.NotContains(t, rec.Tx.Payload, "txId")
	assert.NotContains(t, rec.Tx.Payload, "timestamp")
}

func TestCallerPayloadIsNotRetained(t *testing.T) {
	l := newTestLedger()
	payload := map[string]interface{}{"type": "X", "amount": 1}
	_, err := l.AddTransaction(payload)
	require.NoError(t, err)

	payload["amount"] = 2
	assert.Equal(t, 1, l.Tail().Transactions[0].Payload["amount"])
}

func TestChainReturnsCopy(t *testing.T) {
	l := newTestLedger()
	_, err := l.AddTransaction(map[string]interface{}{"type": "X"})
	require.NoError(t, err)

	c := l.Chain()
	c[1].Hash = "tampered"
	c[1].Transactions[0].Payload["type"] = "Y"

	assert.Equal(t, 2, l.Height())
	require.NoError(t, l.Verify())
	assert.Equal(t, "X", l.Tail().Transactions[0].Type())
}

func TestBlockAt(t *testing.T) {
	l := newTestLedger()
	_, err := l.AddTransaction(map[string]interface{}{"type": "X"})
	require.NoError(t, err)

	b, err := l.BlockAt(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Index)

	_, err = l.BlockAt(7)
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestUnserialisablePayload(t *testing.T) {
	l := newTestLedger()
	_, err := l.AddTransaction(map[string]interface{}{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrPayload)
	assert.Equal(t, 1, l.Height())
	assert.Empty(t, l.Pending())
}

func TestNilPayload(t *testing.T) {
	l := newTestLedger()
	rec, err := l.AddTransaction(nil)
	require.NoError(t, err)
	assert.NotNil(t, rec.Tx.Payload)
}

func TestVerifyDetectsTamper(t *testing.T) {
	cases := []struct {
		name   string
		index  uint64
		tamper func(c []block.Block)
	}{
		{"payload edit", 2, func(c []block.Block) { c[2].Transactions[0].Payload["amount"] = 1 }},
		{"broken link", 3, func(c []block.Block) { c[3].PreviousHash = block.ZeroHash }},
		{"index gap", 5, func(c []block.Block) { c[1].Index = 5 }},
		{"genesis edit", 0, func(c []block.Block) { c[0].PreviousHash = "0" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestLedger()
			for i := 0; i < 3; i++ {
				_, err := l.AddTransaction(map[string]interface{}{"type": "X", "amount": 100 * i})
				require.NoError(t, err)
			}
			require.NoError(t, l.Verify())

			tc.tamper(l.chain)
			err := l.Verify()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrChainIntegrity))
			var cie *ChainIntegrityError
			require.ErrorAs(t, err, &cie)
			assert.Equal(t, tc.index, cie.Index)
		})
	}
}

func TestVerifyChainEmpty(t *testing.T) {
	assert.ErrorIs(t, VerifyChain(nil), ErrChainIntegrity)
}

func TestWithGenesis(t *testing.T) {
	cfg := genesis.DefaultConfig()
	cfg.ChainID = "tra-test"
	g, err := genesis.FromConfig(cfg)
	require.NoError(t, err)

	l := NewLedger(WithGenesis(g))
	rec, err := l.AddTransaction(map[string]interface{}{"type": "X"})
	require.NoError(t, err)
	assert.Equal(t, g.Hash, rec.Block.PreviousHash)
	require.NoError(t, l.Verify())
}

func TestConcurrentAppends(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.AddTransaction(map[string]interface{}{"type": "X", "seq": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 51, l.Height())
	require.NoError(t, l.Verify())
	for _, b := range l.Chain()[1:] {
		assert.Len(t, b.Transactions, 1)
	}
}

func TestChainLinkageProperty(t *testing.T) {
	f := func(n uint8) bool {
		l := newTestLedger()
		count := int(n%20) + 1
		for i := 0; i < count; i++ {
			if _, err := l.AddTransaction(map[string]interface{}{"type": fmt.Sprintf("T%d", i)}); err != nil {
				return false
			}
		}
		c := l.Chain()
		for i := 1; i < len(c); i++ {
			if c[i].PreviousHash != c[i-1].Hash {
				return false
			}
		}
		return len(c) == count+1 && l.Verify() == nil
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestVerifyCatchesResealedRewrite(t *testing.T) {
	l := newTestLedger()
	for i := 0; i < 4; i++ {
		_, err := l.AddTransaction(map[string]interface{}{"type": "PAYMENT_RECEIVED", "amount": 100})
		require.NoError(t, err)
	}
	sealed := l.Commitment()

	// rewrite block 2 and re-fingerprint everything after it so every link checks out
	l.chain[2].Transactions[0].Payload["amount"] = 1
	for i := 2; i < len(l.chain); i++ {
		l.chain[i].PreviousHash = l.chain[i-1].Hash
		require.NoError(t, l.chain[i].Seal())
	}
	require.NoError(t, VerifyChain(l.Chain()), "links and fingerprints alone cannot see the rewrite")

	err := l.Verify()
	var cie *ChainIntegrityError
	require.ErrorAs(t, err, &cie)
	assert.Equal(t, uint64(2), cie.Index)
	assert.Contains(t, cie.Reason, "digest mismatch")

	assert.Equal(t, sealed, l.Commitment(), "the commitment reflects what was sealed")
	served, err := ChainCommitment(l.Chain())
	require.NoError(t, err)
	assert.NotEqual(t, sealed.Root, served.Root)
}

func TestCommitment(t *testing.T) {
	l := newTestLedger()
	c := l.Commitment()
	assert.Equal(t, 1, c.Height)
	assert.Len(t, c.TipDigest, 64)
	assert.Equal(t, c.TipDigest, c.Root, "a single leaf is its own root")

	for i := 0; i < 3; i++ {
		_, err := l.AddTransaction(map[string]interface{}{"type": "X", "seq": i})
		require.NoError(t, err)
	}
	c = l.Commitment()
	assert.Equal(t, 4, c.Height)

	recomputed, err := ChainCommitment(l.Chain())
	require.NoError(t, err)
	assert.Equal(t, c, recomputed)

	tip, err := block.Digest(l.Tail())
	require.NoError(t, err)
	assert.Equal(t, tip.String(), c.TipDigest)

	empty, err := ChainCommitment(nil)
	require.NoError(t, err)
	assert.Equal(t, Commitment{}, empty)
}
