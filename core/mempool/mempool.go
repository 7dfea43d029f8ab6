package mempool

import (
	"sync"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
)

// Mempool holds stamped transactions waiting to be sealed into the next block, in
// FIFO order.
type Mempool struct {
	mu    sync.Mutex
	txs   map[string]block.Transaction // TxID -> Transaction
	order []string
}

// NewMempool creates an empty pool
func NewMempool() *Mempool {
	return &Mempool{
		txs:   make(map[string]block.Transaction),
		order: make([]string, 0),
	}
}

// Add queues a transaction (returns false if its TxID is already pending)
func (mp *Mempool) Add(tx block.Transaction) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if _, exists := mp.txs[tx.TxID]; exists {
		return false
	}
	mp.txs[tx.TxID] = tx
	mp.order = append(mp.order, tx.TxID)
	return true
}

// Snapshot returns deep copies of every pending transaction in FIFO order.
func (mp *Mempool) Snapshot() []block.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	txs := make([]block.Transaction, 0, len(mp.order))
	for _, id := range mp.order {
		txs = append(txs, mp.txs[id].Clone())
	}
	return txs
}

// Clear drops every pending transaction.
func (mp *Mempool) Clear() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.txs = make(map[string]block.Transaction)
	mp.order = mp.order[:0]
}

func (mp *Mempool) Len() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.order)
}
