package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/api/server"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/assessment"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/audit"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/auth"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/chain"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/taxops"
)

func newNode(t *testing.T) (*httptest.Server, *assessment.Store) {
	t.Helper()
	ledger := chain.NewLedger()
	store := assessment.NewStore()
	rec := taxops.NewRecorder(ledger, store, taxops.WithAuditLogger(&audit.MemoryAuditLogger{}))
	srv := server.NewServer(ledger, store, rec, ":0", server.WithGatherer(prometheus.NewRegistry()))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--server", url, "--output", "plain"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAssessmentCommands(t *testing.T) {
	ts, store := newNode(t)

	out, err := run(t, ts.URL, "assessment", "create", "A1", "--amount", "500000", "--type", "VAT")
	require.NoError(t, err)
	assert.Contains(t, out, "Created: A1 balance=500000")

	out, err = run(t, ts.URL, "penalty", "A1", "25000", "--reason", "late fee")
	require.NoError(t, err)
	assert.Contains(t, out, "balance=525000")

	out, err = run(t, ts.URL, "payment", "A1", "25000", "--reference", "R-9")
	require.NoError(t, err)
	assert.Contains(t, out, "balance=500000")

	out, err = run(t, ts.URL, "assessment", "get", "A1")
	require.NoError(t, err)
	assert.Contains(t, out, "Reason: late fee, Amount: 25000")

	out, err = run(t, ts.URL, "chain", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Chain OK: 4 blocks")

	_, err = run(t, ts.URL, "assessment", "delete", "A1")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	_, err = run(t, ts.URL, "assessment", "get", "A1")
	assert.EqualError(t, err, "assessment A1 not found")
}

func TestImportCommand(t *testing.T) {
	ts, store := newNode(t)
	path := filepath.Join(t.TempDir(), "assessments.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"assessmentId": "A1", "amount": 100},
		{"AssessmentID": "A2", "Amount": "200.50"},
		{"id": "A3", "tin": "TIN-3"}
	]`), 0o600))

	out, err := run(t, ts.URL, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 of 3 assessments")
	assert.Equal(t, 3, store.Len())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"an array"}`), 0o600))
	_, err = run(t, ts.URL, "import", bad)
	assert.Error(t, err)
}

func TestTimelineCommand(t *testing.T) {
	ts, _ := newNode(t)
	out, err := run(t, ts.URL, "timeline")
	require.NoError(t, err)
	assert.Contains(t, out, "No ledger entries yet.")

	_, err = run(t, ts.URL, "assessment", "create", "A1", "--amount", "10")
	require.NoError(t, err)
	out, err = run(t, ts.URL, "timeline", "--assessment", "A1")
	require.NoError(t, err)
	assert.Contains(t, out, "A1")
	assert.Contains(t, out, "#1")
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "http://unused", "token", "officer-7", "--jwt-secret", "s3cret", "--ttl", "5m")
	require.NoError(t, err)

	v := &auth.TokenVerifier{KeyProvider: auth.StaticKeyProvider{Secret: []byte("s3cret")}}
	claims, err := v.VerifyToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "officer-7", claims.Subject)
	assert.True(t, claims.HasRole(auth.RoleOfficer))
}
