package assessment

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/metrics"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/types/ids"
)

// Store exclusively owns the assessment collection. Every successful mutation appends at
// least one history entry; every not-found case returns ErrNotFound and changes nothing.
type Store struct {
	mu    sync.RWMutex
	items map[string]*Assessment
	order []string

	gen     ids.Generator
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Store)

func WithIDGenerator(gen ids.Generator) Option {
	return func(s *Store) { s.gen = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]*Assessment),
		gen:   ids.RandomGenerator{},
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Store) appendHistory(a *Assessment, action, details string) {
	a.History = append(a.History, HistoryEntry{
		Timestamp: s.stamp(),
		Action:    action,
		Details:   details,
	})
	s.metrics.HistoryAppended(action)
	s.log.Debug("Assessment history appended", "assessmentId", a.AssessmentID, "action", action)
}

// Add creates an assessment, generating its blockchain hash when none is supplied and
// seeding its history with a Created entry.
func (s *Store) Add(in Input) (Assessment, error) {
	id := key(in.AssessmentID)
	if id == "" {
		return Assessment{}, fmt.Errorf("%w: assessment id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return Assessment{}, fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	hash := in.BlockchainHash
	if hash == "" {
		hash = s.gen.NewHash()
	}
	a := &Assessment{
		AssessmentID:   id,
		TaxpayerID:     in.TaxpayerID,
		TaxType:        in.TaxType,
		Status:         in.Status,
		Amount:         in.Amount,
		DueDate:        copyTime(in.DueDate),
		Extra:          block.CloneMap(in.Extra),
		Adjustments:    []Adjustment{},
		BlockchainHash: hash,
		CreatedAt:      s.stamp(),
		History:        []HistoryEntry{},
	}
	s.appendHistory(a, ActionCreated, "Assessment created")

	s.items[id] = a
	s.order = append(s.order, id)
	s.metrics.SetAssessments(len(s.order))
	s.log.Info("Assessment added", "assessmentId", id, "amount", a.Amount.String())
	return a.Clone(), nil
}

// Update replaces the fields set in p and appends a Modified entry. AssessmentID,
// BlockchainHash, CreatedAt, Adjustments and History are never replaced.
func (s *Store) Update(p Patch) (Assessment, error) {
	id := key(p.AssessmentID)

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var changed []string
	if p.TaxpayerID != nil {
		a.TaxpayerID = *p.TaxpayerID
		changed = append(changed, "taxpayerId")
	}
	if p.TaxType != nil {
		a.TaxType = *p.TaxType
		changed = append(changed, "taxType")
	}
	if p.Status != nil {
		a.Status = *p.Status
		changed = append(changed, "status")
	}
	if p.Amount != nil {
		a.Amount = *p.Amount
		changed = append(changed, "amount")
	}
	if p.DueDate != nil {
		a.DueDate = copyTime(p.DueDate)
		changed = append(changed, "dueDate")
	}
	if len(p.Extra) > 0 {
		if a.Extra == nil {
			a.Extra = map[string]interface{}{}
		}
		keys := make([]string, 0, len(p.Extra))
		for k, v := range block.CloneMap(p.Extra) {
			a.Extra[k] = v
			keys = append(keys, k)
		}
		sort.Strings(keys)
		changed = append(changed, keys...)
	}

	details := "Assessment updated"
	if len(changed) > 0 {
		details += ": " + strings.Join(changed, ", ")
	}
	s.appendHistory(a, ActionModified, details)
	return a.Clone(), nil
}

// Delete removes an assessment together with its history.
func (s *Store) Delete(id string) error {
	id = key(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.metrics.SetAssessments(len(s.order))
	s.log.Info("Assessment deleted", "assessmentId", id)
	return nil
}

// Get returns a copy of the assessment, or ErrNotFound.
func (s *Store) Get(id string) (Assessment, error) {
	id = key(id)

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a.Clone(), nil
}

// AddAdjustment appends adj and an "Adjustment Added" history entry naming its reason
// and amount.
func (s *Store) AddAdjustment(id string, adj Adjustment) (Assessment, error) {
	id = key(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a.Adjustments = append(a.Adjustments, adj)
	s.appendHistory(a, ActionAdjustmentAdded, fmt.Sprintf("Reason: %s, Amount: %s", adj.Reason, adj.Amount.String()))
	return a.Clone(), nil
}

// SetStatus changes the status and records the transition.
func (s *Store) SetStatus(id, status, note string) (Assessment, error) {
	id = key(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return Assessment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	details := fmt.Sprintf("Status changed from %s to %s", orNone(a.Status), status)
	if note != "" {
		details += " (" + note + ")"
	}
	a.Status = status
	s.appendHistory(a, ActionStatusChanged, details)
	return a.Clone(), nil
}

// List returns copies of every assessment in insertion order.
func (s *Store) List() []Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Assessment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// key is the stored form of an assessment id. Every lookup goes through it.
func key(id string) string {
	return strings.TrimSpace(id)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
