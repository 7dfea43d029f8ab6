package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/genesis"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/mempool"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/metrics"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/types/ids"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrDuplicateTx   = errors.New("transaction id already pending")
	ErrPayload       = errors.New("payload is not serialisable")
)

// Receipt is returned by AddTransaction: the stamped transaction and the block it was
// sealed into.
type Receipt struct {
	Tx    block.Transaction `json:"tx"`
	Block block.Block       `json:"block"`
}

// Ledger owns the hash-linked chain and the pending pool. It is safe for concurrent use;
// every mutation holds the write lock for its full duration.
type Ledger struct {
	mu      sync.RWMutex
	chain   []block.Block
	pending *mempool.Mempool
	// SHA-256 digest of each block as sealed, parallel to chain
	digests []ids.ID

	gen     ids.Generator
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Ledger)

func WithIDGenerator(gen ids.Generator) Option {
	return func(l *Ledger) { l.gen = gen }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithGenesis replaces the built-in genesis block, e.g. one built from a genesis config.
func WithGenesis(g block.Block) Option {
	return func(l *Ledger) { l.chain = []block.Block{g} }
}

// NewLedger creates a ledger holding only the genesis block.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		pending: mempool.NewMempool(),
		gen:     ids.RandomGenerator{},
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.chain) == 0 {
		l.chain = []block.Block{genesis.Block()}
	}
	d, err := block.Digest(l.chain[0])
	if err != nil {
		panic(fmt.Sprintf("genesis block is not serialisable: %v", err))
	}
	l.digests = []ids.ID{d}
	l.metrics.SetHeight(len(l.chain))
	return l
}

// AddTransaction stamps payload with a timestamp and TxID, queues it, and seals every
// pending transaction into a new block appended to the chain. The pending pool is empty
// again when it returns.
func (l *Ledger) AddTransaction(payload map[string]interface{}) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := block.CloneMap(payload)
	if fields == nil {
		fields = map[string]interface{}{}
	}
	delete(fields, block.FieldTxID)
	delete(fields, block.FieldTimestamp)

	now := l.now().UTC().Truncate(time.Millisecond)
	tx := block.Transaction{
		TxID:      l.gen.NewTxID(),
		Timestamp: now,
		Payload:   fields,
	}
	if _, err := json.Marshal(tx); err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if !l.pending.Add(tx) {
		return Receipt{}, fmt.Errorf("%w: %s", ErrDuplicateTx, tx.TxID)
	}

	tail := l.chain[len(l.chain)-1]
	blk := block.New(uint64(len(l.chain)), now, l.pending.Snapshot(), tail.Hash)
	if err := blk.Seal(); err != nil {
		l.pending.Clear()
		return Receipt{}, err
	}
	if err := validateBlock(blk, tail); err != nil {
		l.pending.Clear()
		return Receipt{}, fmt.Errorf("invalid block: %w", err)
	}
	digest, err := block.Digest(blk)
	if err != nil {
		l.pending.Clear()
		return Receipt{}, fmt.Errorf("%w: %v", ErrPayload, err)
	}

	l.chain = append(l.chain, blk)
	l.digests = append(l.digests, digest)
	l.pending.Clear()

	l.metrics.BlockAppended(len(l.chain))
	l.log.Debug("Block appended",
		"index", blk.Index,
		"hash", blk.Hash,
		"digest", digest.String(),
		"txId", tx.TxID,
		"type", tx.Type(),
		"transactions", len(blk.Transactions))

	return Receipt{Tx: tx.Clone(), Block: blk.Clone()}, nil
}

// Chain returns a deep copy of every block, genesis first.
func (l *Ledger) Chain() []block.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]block.Block, len(l.chain))
	for i, b := range l.chain {
		out[i] = b.Clone()
	}
	return out
}

// Height is the number of blocks, genesis included.
func (l *Ledger) Height() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chain)
}

// Tail returns the most recently appended block.
func (l *Ledger) Tail() block.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chain[len(l.chain)-1].Clone()
}

// BlockAt retrieves a block by its index in the chain.
func (l *Ledger) BlockAt(index uint64) (block.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index >= uint64(len(l.chain)) {
		return block.Block{}, fmt.Errorf("%w: index %d", ErrBlockNotFound, index)
	}
	return l.chain[index].Clone(), nil
}

// Pending returns the transactions queued but not yet sealed.
func (l *Ledger) Pending() []block.Transaction {
	return l.pending.Snapshot()
}

// Commitment identifies the chain content as sealed: the SHA-256 digest of the tip and
// the Merkle root over every block digest, genesis first.
type Commitment struct {
	Height    int    `json:"height"`
	TipDigest string `json:"tipDigest"`
	Root      string `json:"root"`
}

// Commitment is computed from the digests recorded at append time, not from the blocks
// currently held, so it still reflects the sealed chain after tampering.
func (l *Ledger) Commitment() Commitment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return commit(l.digests)
}

// ChainCommitment recomputes the commitment of blocks, e.g. ones fetched over the API.
func ChainCommitment(blocks []block.Block) (Commitment, error) {
	digests := make([]ids.ID, 0, len(blocks))
	for _, b := range blocks {
		d, err := block.Digest(b)
		if err != nil {
			return Commitment{}, err
		}
		digests = append(digests, d)
	}
	return commit(digests), nil
}

func commit(digests []ids.ID) Commitment {
	if len(digests) == 0 {
		return Commitment{}
	}
	hexes := make([]string, len(digests))
	for i, d := range digests {
		hexes[i] = d.String()
	}
	return Commitment{
		Height:    len(digests),
		TipDigest: hexes[len(hexes)-1],
		Root:      block.MerkleRoot(hexes),
	}
}
