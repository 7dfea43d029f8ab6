package genesis

import (
	"fmt"
	"time"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
)

const (
	TxType             = "GENESIS"
	TxID               = "tx-genesis"
	DefaultChainID     = "taxchain-demo"
	DefaultDescription = "Genesis Block"
)

// DefaultTime is the fixed timestamp of the built-in genesis block.
var DefaultTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Block returns the built-in genesis block. Every call yields an identical block.
func Block() block.Block {
	blk, err := FromConfig(DefaultConfig())
	if err != nil {
		// the default config only holds strings and a time, so it always serialises
		panic(fmt.Sprintf("genesis: %v", err))
	}
	return blk
}

// FromConfig builds the genesis block for cfg: index 0, one synthetic GENESIS
// transaction and an all-zero previous hash.
func FromConfig(cfg Config) (block.Block, error) {
	tx := block.Transaction{
		TxID:      TxID,
		Timestamp: cfg.GenesisTime.UTC(),
		Payload: map[string]interface{}{
			block.FieldType: TxType,
			"chainId":       cfg.ChainID,
			"description":   cfg.Description,
		},
	}
	blk := block.New(0, cfg.GenesisTime, []block.Transaction{tx}, block.ZeroHash)
	if err := blk.Seal(); err != nil {
		return block.Block{}, fmt.Errorf("seal genesis block: %w", err)
	}
	return blk, nil
}

// IsGenesis reports whether tx is the synthetic genesis record.
func IsGenesis(tx block.Transaction) bool {
	return tx.Type() == TxType
}
