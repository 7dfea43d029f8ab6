package ids

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// ID is a 32-byte digest.
type ID [32]byte

// Empty is the zero-value ID (all zeros)
var Empty ID

// NewID generates a new ID by hashing input bytes
func NewID(data []byte) ID {
	return ID(sha256.Sum256(data))
}

// FromString parses a hex string into an ID
func FromString(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String converts an ID back to a hex string
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Generator hands out the opaque identifiers the ledger and assessment store stamp
// onto new records.
type Generator interface {
	// NewTxID returns a unique transaction id of the form "tx-<random>".
	NewTxID() string
	// NewHash returns a fresh 0x-prefixed, 64 hex digit reference hash.
	NewHash() string
}

// RandomGenerator draws identifiers from random (v4) UUIDs.
type RandomGenerator struct{}

func (RandomGenerator) NewTxID() string {
	u := uuid.New()
	return "tx-" + strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
}

func (RandomGenerator) NewHash() string {
	u := uuid.New()
	return "0x" + NewID(u[:]).String()
}

// SequenceGenerator yields predictable identifiers, useful for tests and replays.
type SequenceGenerator struct {
	mu     sync.Mutex
	Prefix string
	next   uint64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{Prefix: prefix}
}

func (g *SequenceGenerator) bump() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

func (g *SequenceGenerator) NewTxID() string {
	return fmt.Sprintf("tx-%s%d", g.Prefix, g.bump())
}

func (g *SequenceGenerator) NewHash() string {
	n := g.bump()
	return "0x" + NewID([]byte(fmt.Sprintf("%s%d", g.Prefix, n))).String()
}
