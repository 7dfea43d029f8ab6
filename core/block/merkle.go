package block

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/types/ids"
)

// Digest is the SHA-256 of the block's canonical form. Unlike Fingerprint it is suitable
// for integrity checks, and it is never stored in Block.Hash.
func Digest(b Block) (ids.ID, error) {
	data, err := Canonical(b)
	if err != nil {
		return ids.Empty, err
	}
	return ids.NewID(data), nil
}

// MerkleRoot computes the Merkle root of a list of hashes (as hex strings).
// If the list is empty, returns an empty string.
func MerkleRoot(hashes []string) string {
	n := len(hashes)
	if n == 0 {
		return ""
	}
	for n > 1 {
		var nextLevel []string
		for i := 0; i < n; i += 2 {
			right := hashes[i]
			if i+1 < n {
				right = hashes[i+1]
			}
			h := sha256.New()
			h.Write([]byte(hashes[i]))
			h.Write([]byte(right))
			nextLevel = append(nextLevel, hex.EncodeToString(h.Sum(nil)))
		}
		hashes = nextLevel
		n = len(hashes)
	}
	return hashes[0]
}
