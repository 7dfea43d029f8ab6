// Package taxops records assessment lifecycle operations. Each operation seals one ledger
// transaction and appends the matching entry to the assessment's own history.
package taxops

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/assessment"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/audit"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/chain"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/timeline"
)

// Adjustment types.
const (
	AdjustmentPenalty  = "penalty"
	AdjustmentInterest = "interest"
	AdjustmentPayment  = "payment"
)

// Ledger is the part of *chain.Ledger the recorder writes to.
type Ledger interface {
	AddTransaction(payload map[string]interface{}) (chain.Receipt, error)
	Chain() []block.Block
}

// Result pairs the updated assessment with the ledger receipt of the operation.
type Result struct {
	Assessment assessment.Assessment `json:"assessment"`
	Receipt    chain.Receipt         `json:"receipt"`
}

type Recorder struct {
	// held across the ledger write and the store write so both see operations in the same order
	mu     sync.Mutex
	ledger Ledger
	store  *assessment.Store
	audit  audit.AuditLogger
	log    *slog.Logger
}

type Option func(*Recorder)

func WithAuditLogger(a audit.AuditLogger) Option {
	return func(r *Recorder) { r.audit = a }
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

func NewRecorder(ledger Ledger, store *assessment.Store, opts ...Option) *Recorder {
	r := &Recorder{
		ledger: ledger,
		store:  store,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.audit == nil {
		r.audit = audit.NewSlogAuditLogger(r.log)
	}
	return r
}

func (r *Recorder) record(eventType, id string, err error, meta map[string]string) {
	ev := audit.AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		EntityID:  id,
		Result:    audit.ResultSuccess,
		Metadata:  meta,
	}
	if err != nil {
		ev.Result = audit.ResultFailure
		ev.Reason = err.Error()
	}
	r.audit.LogEvent(ev)
}

// CreateAssessment seals an ASSESSMENT_CREATED transaction and adds the assessment. When
// the input has no blockchain hash it takes the hash of the sealing block.
func (r *Recorder) CreateAssessment(in assessment.Input) (res Result, err error) {
	in.AssessmentID = strings.TrimSpace(in.AssessmentID)
	defer func() {
		r.record(timeline.TypeAssessmentCreated, in.AssessmentID, err, map[string]string{"amount": in.Amount.String()})
	}()
	if in.AssessmentID == "" {
		return Result{}, fmt.Errorf("%w: assessment id is required", assessment.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.Get(in.AssessmentID); err == nil {
		return Result{}, fmt.Errorf("%w: %s", assessment.ErrDuplicate, in.AssessmentID)
	}
	payload := map[string]interface{}{
		block.FieldType:            timeline.TypeAssessmentCreated,
		timeline.FieldAssessmentID: in.AssessmentID,
		timeline.FieldAmount:       in.Amount.String(),
		timeline.FieldDescription:  describe("Assessment created", in.TaxType),
	}
	if in.TaxpayerID != "" {
		payload["taxpayerId"] = in.TaxpayerID
	}
	if in.TaxType != "" {
		payload["taxType"] = in.TaxType
	}
	receipt, err := r.ledger.AddTransaction(payload)
	if err != nil {
		return Result{}, fmt.Errorf("record assessment %s: %w", in.AssessmentID, err)
	}
	if in.BlockchainHash == "" {
		in.BlockchainHash = receipt.Block.Hash
	}
	a, err := r.store.Add(in)
	if err != nil {
		return Result{}, err
	}
	r.log.Info("Assessment recorded", "assessmentId", a.AssessmentID, "block", receipt.Block.Index)
	return Result{Assessment: a, Receipt: receipt}, nil
}

// ApplyPenalty adds a positive penalty adjustment.
func (r *Recorder) ApplyPenalty(id string, amount decimal.Decimal, reason string) (res Result, err error) {
	defer func() {
		r.record(timeline.TypePenaltyApplied, id, err, map[string]string{"amount": amount.String()})
	}()
	if !amount.IsPositive() {
		return Result{}, fmt.Errorf("%w: penalty must be positive", assessment.ErrInvalidInput)
	}
	if reason == "" {
		reason = "Penalty"
	}
	return r.adjust(id, timeline.TypePenaltyApplied, assessment.Adjustment{
		Reason: reason,
		Amount: amount,
		Type:   AdjustmentPenalty,
	}, nil)
}

// ApplyInterest charges rate on the current balance, rounded to two decimal places.
func (r *Recorder) ApplyInterest(id string, rate decimal.Decimal, reason string) (res Result, err error) {
	defer func() {
		r.record(timeline.TypeInterestApplied, id, err, map[string]string{"rate": rate.String()})
	}()
	if !rate.IsPositive() {
		return Result{}, fmt.Errorf("%w: interest rate must be positive", assessment.ErrInvalidInput)
	}
	if reason == "" {
		reason = "Interest at " + rate.Mul(decimal.NewFromInt(100)).String() + "%"
	}
	return r.adjustWith(id, timeline.TypeInterestApplied, func(a assessment.Assessment) (assessment.Adjustment, error) {
		interest := a.Balance().Mul(rate).Round(2)
		if !interest.IsPositive() {
			return assessment.Adjustment{}, fmt.Errorf("%w: no outstanding balance to charge interest on", assessment.ErrInvalidInput)
		}
		return assessment.Adjustment{Reason: reason, Amount: interest, Type: AdjustmentInterest}, nil
	}, map[string]interface{}{"rate": rate.String()})
}

// RecordPayment reduces the balance by amount. The ledger records the amount paid; the
// adjustment carries it negated.
func (r *Recorder) RecordPayment(id string, amount decimal.Decimal, reference string) (res Result, err error) {
	defer func() {
		r.record(timeline.TypePaymentReceived, id, err, map[string]string{"amount": amount.String(), "reference": reference})
	}()
	if !amount.IsPositive() {
		return Result{}, fmt.Errorf("%w: payment must be positive", assessment.ErrInvalidInput)
	}
	reason := "Payment received"
	if reference != "" {
		reason += " (" + reference + ")"
	}
	return r.adjust(id, timeline.TypePaymentReceived, assessment.Adjustment{
		Reason:    reason,
		Amount:    amount.Neg(),
		Type:      AdjustmentPayment,
		Reference: reference,
	}, map[string]interface{}{"reference": reference})
}

func (r *Recorder) adjust(id, txType string, adj assessment.Adjustment, extra map[string]interface{}) (Result, error) {
	return r.adjustWith(id, txType, func(assessment.Assessment) (assessment.Adjustment, error) {
		return adj, nil
	}, extra)
}

func (r *Recorder) adjustWith(id, txType string, build func(assessment.Assessment) (assessment.Adjustment, error), extra map[string]interface{}) (Result, error) {
	id = strings.TrimSpace(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.store.Get(id)
	if err != nil {
		return Result{}, err
	}
	adj, err := build(current)
	if err != nil {
		return Result{}, err
	}

	balance := current.Balance().Add(adj.Amount)
	payload := map[string]interface{}{
		block.FieldType:            txType,
		timeline.FieldAssessmentID: id,
		timeline.FieldAmount:       adj.Amount.Abs().String(),
		timeline.FieldDescription:  adj.Reason,
		"reason":                   adj.Reason,
		timeline.FieldChanges: map[string]interface{}{
			"previousBalance": current.Balance().String(),
			"balance":         balance.String(),
		},
	}
	for k, v := range extra {
		if v != "" {
			payload[k] = v
		}
	}
	receipt, err := r.ledger.AddTransaction(payload)
	if err != nil {
		return Result{}, fmt.Errorf("record %s for %s: %w", txType, id, err)
	}

	adj.TxID = receipt.Tx.TxID
	a, err := r.store.AddAdjustment(id, adj)
	if err != nil {
		return Result{}, err
	}
	r.log.Info("Adjustment recorded",
		"assessmentId", id,
		"type", adj.Type,
		"amount", adj.Amount.String(),
		"balance", a.Balance().String(),
		"block", receipt.Block.Index)
	return Result{Assessment: a, Receipt: receipt}, nil
}

// ChangeStatus moves the assessment to status.
func (r *Recorder) ChangeStatus(id, status, note string) (res Result, err error) {
	defer func() {
		r.record(timeline.TypeStatusChanged, id, err, map[string]string{"status": status})
	}()
	id = strings.TrimSpace(id)
	status = strings.TrimSpace(status)
	if status == "" {
		return Result{}, fmt.Errorf("%w: status is required", assessment.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.store.Get(id)
	if err != nil {
		return Result{}, err
	}
	payload := map[string]interface{}{
		block.FieldType:            timeline.TypeStatusChanged,
		timeline.FieldAssessmentID: id,
		timeline.FieldDescription:  describe("Status changed to "+status, note),
		timeline.FieldChanges: map[string]interface{}{
			"from": current.Status,
			"to":   status,
		},
	}
	receipt, err := r.ledger.AddTransaction(payload)
	if err != nil {
		return Result{}, fmt.Errorf("record status change for %s: %w", id, err)
	}
	a, err := r.store.SetStatus(id, status, note)
	if err != nil {
		return Result{}, err
	}
	return Result{Assessment: a, Receipt: receipt}, nil
}

// AddAdjustment records a caller-built adjustment. Penalty, interest and payment types
// are sealed under their own transaction types; anything else is ADJUSTMENT_ADDED.
func (r *Recorder) AddAdjustment(id string, adj assessment.Adjustment) (res Result, err error) {
	txType := adjustmentTxType(adj.Type)
	defer func() {
		r.record(txType, id, err, map[string]string{"amount": adj.Amount.String(), "type": adj.Type})
	}()
	if strings.TrimSpace(adj.Reason) == "" {
		return Result{}, fmt.Errorf("%w: adjustment reason is required", assessment.ErrInvalidInput)
	}
	return r.adjust(id, txType, adj, map[string]interface{}{
		"adjustmentType": adj.Type,
		"reference":      adj.Reference,
	})
}

func adjustmentTxType(adjType string) string {
	switch strings.ToLower(adjType) {
	case AdjustmentPenalty:
		return timeline.TypePenaltyApplied
	case AdjustmentInterest:
		return timeline.TypeInterestApplied
	case AdjustmentPayment:
		return timeline.TypePaymentReceived
	default:
		return timeline.TypeAdjustmentAdded
	}
}

// UpdateAssessment seals an ASSESSMENT_UPDATED transaction listing the patched fields,
// then applies the patch.
func (r *Recorder) UpdateAssessment(p assessment.Patch) (res Result, err error) {
	p.AssessmentID = strings.TrimSpace(p.AssessmentID)
	changes := patchChanges(p)
	defer func() {
		r.record(timeline.TypeAssessmentUpdated, p.AssessmentID, err, nil)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.Get(p.AssessmentID); err != nil {
		return Result{}, err
	}
	fields := make([]string, 0, len(changes))
	for k := range changes {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	payload := map[string]interface{}{
		block.FieldType:            timeline.TypeAssessmentUpdated,
		timeline.FieldAssessmentID: p.AssessmentID,
		timeline.FieldDescription:  describe("Assessment updated", strings.Join(fields, ", ")),
		timeline.FieldChanges:      changes,
	}
	if p.Amount != nil {
		payload[timeline.FieldAmount] = p.Amount.String()
	}
	receipt, err := r.ledger.AddTransaction(payload)
	if err != nil {
		return Result{}, fmt.Errorf("record update for %s: %w", p.AssessmentID, err)
	}
	a, err := r.store.Update(p)
	if err != nil {
		return Result{}, err
	}
	return Result{Assessment: a, Receipt: receipt}, nil
}

func patchChanges(p assessment.Patch) map[string]interface{} {
	changes := map[string]interface{}{}
	if p.TaxpayerID != nil {
		changes["taxpayerId"] = *p.TaxpayerID
	}
	if p.TaxType != nil {
		changes["taxType"] = *p.TaxType
	}
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	if p.Amount != nil {
		changes["amount"] = p.Amount.String()
	}
	if p.DueDate != nil {
		changes["dueDate"] = p.DueDate.UTC().Format(time.RFC3339)
	}
	for k, v := range p.Extra {
		changes[k] = fmt.Sprint(v)
	}
	return changes
}

// DeleteAssessment seals an ASSESSMENT_DELETED transaction and removes the assessment.
// The returned assessment is its state at deletion.
func (r *Recorder) DeleteAssessment(id string) (res Result, err error) {
	id = strings.TrimSpace(id)
	defer func() {
		r.record(timeline.TypeAssessmentDeleted, id, err, nil)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.store.Get(id)
	if err != nil {
		return Result{}, err
	}
	payload := map[string]interface{}{
		block.FieldType:            timeline.TypeAssessmentDeleted,
		timeline.FieldAssessmentID: id,
		timeline.FieldDescription:  "Assessment deleted",
		timeline.FieldChanges: map[string]interface{}{
			"balance": current.Balance().String(),
		},
	}
	receipt, err := r.ledger.AddTransaction(payload)
	if err != nil {
		return Result{}, fmt.Errorf("record deletion of %s: %w", id, err)
	}
	if err := r.store.Delete(id); err != nil {
		return Result{}, err
	}
	r.log.Info("Assessment removed", "assessmentId", id, "block", receipt.Block.Index)
	return Result{Assessment: current, Receipt: receipt}, nil
}

// Entries returns the ledger entries of one assessment in chain order, or of every
// assessment when assessmentID is empty.
func (r *Recorder) Entries(assessmentID string) []timeline.Entry {
	all := timeline.FromChain(r.ledger.Chain())
	if assessmentID == "" {
		return all
	}
	out := make([]timeline.Entry, 0, len(all))
	for _, e := range all {
		if e.AssessmentID == assessmentID {
			out = append(out, e)
		}
	}
	return out
}

func describe(base, detail string) string {
	if detail == "" {
		return base
	}
	return base + ": " + detail
}
