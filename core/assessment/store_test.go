package assessment

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/metrics"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/types/ids"
)

func tickingClock() func() time.Time {
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestStore() *Store {
	return NewStore(WithClock(tickingClock()), WithIDGenerator(ids.NewSequenceGenerator("s")))
}

func TestAddAdjustmentScenario(t *testing.T) {
	s := NewStore()
	_, err := s.Add(Input{AssessmentID: "A1", Amount: decimal.NewFromInt(500000)})
	require.NoError(t, err)

	a, err := s.AddAdjustment("A1", Adjustment{Reason: "late fee", Amount: decimal.NewFromInt(25000)})
	require.NoError(t, err)

	require.Len(t, a.Adjustments, 1)
	assert.Equal(t, "late fee", a.Adjustments[0].Reason)
	assert.True(t, a.Adjustments[0].Amount.Equal(decimal.NewFromInt(25000)))
	require.Len(t, a.History, 2)
	assert.Equal(t, ActionCreated, a.History[0].Action)
	assert.Equal(t, ActionAdjustmentAdded, a.History[1].Action)
	assert.Equal(t, "Reason: late fee, Amount: 25000", a.History[1].Details)
	assert.True(t, a.Balance().Equal(decimal.NewFromInt(525000)))
}

func TestUpdateScenario(t *testing.T) {
	s := newTestStore()
	created, err := s.Add(Input{AssessmentID: "A2", TaxType: "VAT"})
	require.NoError(t, err)

	amount := decimal.NewFromInt(999)
	_, err = s.Update(Patch{AssessmentID: "A2", Amount: &amount})
	require.NoError(t, err)

	stored, err := s.Get("A2")
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(amount))
	assert.Equal(t, "VAT", stored.TaxType, "unset patch fields keep their value")
	assert.Equal(t, created.BlockchainHash, stored.BlockchainHash)
	assert.Equal(t, created.CreatedAt, stored.CreatedAt)
	require.Len(t, stored.History, 2)
	assert.Equal(t, ActionModified, stored.History[1].Action)
	assert.Equal(t, "Assessment updated: amount", stored.History[1].Details)
}

func TestDeleteScenario(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(Input{AssessmentID: "A2"})
	require.NoError(t, err)

	require.NoError(t, s.Delete("A2"))
	_, err = s.Get("A2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestNotFoundLeavesStoreUnchanged(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(Input{AssessmentID: "A1", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	before := s.List()

	amount := decimal.NewFromInt(1)
	status := "PAID"
	cases := map[string]func() error{
		"update": func() error { _, err := s.Update(Patch{AssessmentID: "nope", Amount: &amount}); return err },
		"delete": func() error { return s.Delete("nope") },
		"get":    func() error { _, err := s.Get("nope"); return err },
		"adjust": func() error {
			_, err := s.AddAdjustment("nope", Adjustment{Reason: "x", Amount: amount})
			return err
		},
		"status": func() error { _, err := s.SetStatus("nope", status, ""); return err },
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), ErrNotFound)
			assert.Equal(t, before, s.List())
		})
	}
}

func TestLookupsTrimID(t *testing.T) {
	s := newTestStore()
	created, err := s.Add(Input{AssessmentID: " A1 ", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "A1", created.AssessmentID)

	_, err = s.Get(" A1 ")
	require.NoError(t, err)

	status := "OPEN"
	_, err = s.Update(Patch{AssessmentID: "A1\t", Status: &status})
	require.NoError(t, err)
	_, err = s.AddAdjustment(" A1", Adjustment{Reason: "fee", Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	a, err := s.SetStatus("A1 ", "PAID", "")
	require.NoError(t, err)
	assert.Len(t, a.History, 4)

	_, err = s.Add(Input{AssessmentID: "A1 "})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, s.Delete("  A1"))
	assert.Equal(t, 0, s.Len())
}

func TestAddRejectsDuplicateAndEmptyID(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(Input{AssessmentID: "A1"})
	require.NoError(t, err)

	_, err = s.Add(Input{AssessmentID: "A1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = s.Add(Input{AssessmentID: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, s.Len())
}

func TestBlockchainHash(t *testing.T) {
	s := newTestStore()
	generated, err := s.Add(Input{AssessmentID: "A1"})
	require.NoError(t, err)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, generated.BlockchainHash)

	supplied, err := s.Add(Input{AssessmentID: "A2", BlockchainHash: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", supplied.BlockchainHash)
}

func TestHistoryIsMonotonic(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(Input{AssessmentID: "A1", Status: "DRAFT"})
	require.NoError(t, err)

	steps := []func() (Assessment, error){
		func() (Assessment, error) {
			return s.AddAdjustment("A1", Adjustment{Reason: "penalty", Amount: decimal.NewFromInt(5)})
		},
		func() (Assessment, error) { return s.SetStatus("A1", "ISSUED", "sent to taxpayer") },
		func() (Assessment, error) {
			tt := "PAYE"
			return s.Update(Patch{AssessmentID: "A1", TaxType: &tt})
		},
	}
	prev := 1
	for _, step := range steps {
		a, err := step()
		require.NoError(t, err)
		require.Len(t, a.History, prev+1)
		assert.Equal(t, ActionCreated, a.History[0].Action)
		for i := 1; i < len(a.History); i++ {
			assert.False(t, a.History[i].Timestamp.Before(a.History[i-1].Timestamp))
		}
		prev = len(a.History)
	}

	a, err := s.Get("A1")
	require.NoError(t, err)
	assert.Equal(t, "Status changed from DRAFT to ISSUED (sent to taxpayer)", a.History[2].Details)
}

func TestGetReturnsCopy(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(Input{AssessmentID: "A1", Extra: map[string]interface{}{"region": "Dar"}})
	require.NoError(t, err)

	a, err := s.Get("A1")
	require.NoError(t, err)
	a.Extra["region"] = "Arusha"
	a.History = append(a.History, HistoryEntry{Action: "forged"})

	again, err := s.Get("A1")
	require.NoError(t, err)
	assert.Equal(t, "Dar", again.Extra["region"])
	assert.Len(t, again.History, 1)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s := newTestStore()
	for _, id := range []string{"C", "A", "B"} {
		_, err := s.Add(Input{AssessmentID: id})
		require.NoError(t, err)
	}
	require.NoError(t, s.Delete("A"))

	var got []string
	for _, a := range s.List() {
		got = append(got, a.AssessmentID)
	}
	assert.Equal(t, []string{"C", "B"}, got)
}

func TestStoreMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s := NewStore(WithMetrics(m))
	_, err := s.Add(Input{AssessmentID: "A1"})
	require.NoError(t, err)
	_, err = s.AddAdjustment("A1", Adjustment{Reason: "x", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Assessments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssessmentEvents.WithLabelValues(ActionCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssessmentEvents.WithLabelValues(ActionAdjustmentAdded)))
}

func TestConcurrentAdjustments(t *testing.T) {
	s := NewStore()
	_, err := s.Add(Input{AssessmentID: "A1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddAdjustment("A1", Adjustment{Reason: "interest", Amount: decimal.NewFromInt(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	a, err := s.Get("A1")
	require.NoError(t, err)
	assert.Len(t, a.Adjustments, 40)
	assert.Len(t, a.History, 41)
	assert.True(t, a.Balance().Equal(decimal.NewFromInt(40)))
}
