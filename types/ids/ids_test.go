package ids

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	id := NewID([]byte("taxchain"))
	parsed, err := FromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = FromString("abcd")
	assert.Error(t, err)
	_, err = FromString("zz")
	assert.Error(t, err)
}

func TestRandomGeneratorFormat(t *testing.T) {
	gen := RandomGenerator{}
	txPattern := regexp.MustCompile(`^tx-[0-9a-z]+$`)
	hashPattern := regexp.MustCompile(`^0x[0-9a-f]{64}$`)

	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		tx := gen.NewTxID()
		assert.Regexp(t, txPattern, tx)
		_, dup := seen[tx]
		assert.False(t, dup, "duplicate tx id %s", tx)
		seen[tx] = struct{}{}
		h := gen.NewHash()
		assert.Regexp(t, hashPattern, h)
		_, dup = seen[h]
		assert.False(t, dup, "hashes are random per call, not derived from input: %s", h)
		seen[h] = struct{}{}
	}
}

func TestSequenceGeneratorIsDeterministic(t *testing.T) {
	a := NewSequenceGenerator("t")
	b := NewSequenceGenerator("t")
	assert.Equal(t, "tx-t1", a.NewTxID())
	assert.Equal(t, "tx-t2", a.NewTxID())
	assert.Equal(t, "tx-t1", b.NewTxID())

	c := NewSequenceGenerator("h")
	d := NewSequenceGenerator("h")
	assert.Equal(t, c.NewHash(), d.NewHash())
	assert.NotEqual(t, c.NewHash(), c.NewHash())
}
