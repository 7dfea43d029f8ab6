package chain

import (
	"errors"
	"fmt"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/types/ids"
)

// ErrChainIntegrity matches every *ChainIntegrityError via errors.Is.
var ErrChainIntegrity = errors.New("chain integrity check failed")

// ChainIntegrityError reports the first block that breaks the chain.
type ChainIntegrityError struct {
	Index  uint64
	Reason string
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("block %d: %s", e.Index, e.Reason)
}

func (e *ChainIntegrityError) Unwrap() error { return ErrChainIntegrity }

// Verify walks the chain and returns a *ChainIntegrityError for the first block whose
// index, previous hash, fingerprint or SHA-256 digest doesn't check out. Digests are
// compared against the ones recorded when each block was appended, so a block edited and
// re-fingerprinted in place is still caught.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	err := verifyBlocks(l.chain, l.digests)
	if err != nil {
		l.metrics.IntegrityFailed()
		l.log.Warn("Chain verification failed", "error", err)
	}
	return err
}

// VerifyChain checks the links and fingerprints of a standalone sequence of blocks, e.g.
// one fetched over the API. With no sealed digests to compare against, callers that need
// content integrity compare ChainCommitment with the node's Commitment.
func VerifyChain(blocks []block.Block) error {
	return verifyBlocks(blocks, nil)
}

// verifyBlocks checks structure block by block; sealed, when non-nil, holds the digest
// each block had when appended.
func verifyBlocks(blocks []block.Block, sealed []ids.ID) error {
	if len(blocks) == 0 {
		return &ChainIntegrityError{Reason: "empty chain"}
	}
	if sealed != nil && len(sealed) != len(blocks) {
		return &ChainIntegrityError{
			Index:  uint64(len(blocks) - 1),
			Reason: fmt.Sprintf("%d blocks but %d sealed digests", len(blocks), len(sealed)),
		}
	}
	for i, b := range blocks {
		var err error
		if i == 0 {
			err = checkGenesis(b)
		} else {
			err = validateBlock(b, blocks[i-1])
		}
		if err != nil {
			return err
		}
		if sealed != nil {
			if err := checkDigest(b, sealed[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkGenesis(g block.Block) error {
	if g.Index != 0 {
		return &ChainIntegrityError{Index: g.Index, Reason: "first block is not index 0"}
	}
	if g.PreviousHash != block.ZeroHash {
		return &ChainIntegrityError{Index: 0, Reason: "invalid genesis previous hash"}
	}
	return checkHash(g)
}

// validateBlock verifies that a block is valid relative to the previous block.
func validateBlock(current, previous block.Block) error {
	if current.Index != previous.Index+1 {
		return &ChainIntegrityError{
			Index:  current.Index,
			Reason: fmt.Sprintf("invalid index: expected %d", previous.Index+1),
		}
	}
	if current.PreviousHash != previous.Hash {
		return &ChainIntegrityError{
			Index:  current.Index,
			Reason: fmt.Sprintf("previous hash mismatch: expected %s, got %s", previous.Hash, current.PreviousHash),
		}
	}
	return checkHash(current)
}

func checkHash(b block.Block) error {
	expected, err := block.Fingerprint(b)
	if err != nil {
		return &ChainIntegrityError{Index: b.Index, Reason: err.Error()}
	}
	if b.Hash != expected {
		return &ChainIntegrityError{
			Index:  b.Index,
			Reason: fmt.Sprintf("hash mismatch: expected %s, got %s", expected, b.Hash),
		}
	}
	return nil
}

func checkDigest(b block.Block, sealed ids.ID) error {
	d, err := block.Digest(b)
	if err != nil {
		return &ChainIntegrityError{Index: b.Index, Reason: err.Error()}
	}
	if d != sealed {
		return &ChainIntegrityError{
			Index:  b.Index,
			Reason: fmt.Sprintf("digest mismatch: sealed %s, now %s", sealed, d),
		}
	}
	return nil
}
