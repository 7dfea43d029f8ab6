// Package validation turns loosely-shaped request documents into the store's canonical
// types. Field aliases are resolved here and nowhere else.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/assessment"
)

type alias struct {
	canonical string
	names     []string
}

// Earlier names win when a document carries more than one spelling.
var assessmentAliases = []alias{
	{"assessmentId", []string{"assessmentId", "AssessmentID", "assessmentID", "id"}},
	{"taxpayerId", []string{"taxpayerId", "TaxpayerID", "taxpayerID", "tin", "TIN"}},
	{"taxType", []string{"taxType", "TaxType", "tax_type"}},
	{"status", []string{"status", "Status"}},
	{"amount", []string{"amount", "Amount"}},
	{"dueDate", []string{"dueDate", "DueDate", "due_date"}},
	{"blockchainHash", []string{"blockchainHash", "BlockchainHash"}},
}

var adjustmentAliases = []alias{
	{"reason", []string{"reason", "Reason", "description"}},
	{"amount", []string{"amount", "Amount"}},
	{"type", []string{"type", "Type"}},
	{"reference", []string{"reference", "Reference", "ref"}},
}

// canonicalize maps aliased keys onto their canonical names. Keys that match no alias are
// returned separately.
func canonicalize(raw map[string]interface{}, aliases []alias) (doc, rest map[string]interface{}) {
	doc = make(map[string]interface{})
	consumed := make(map[string]bool)
	for _, a := range aliases {
		for _, name := range a.names {
			v, ok := raw[name]
			if !ok {
				continue
			}
			consumed[name] = true
			if _, set := doc[a.canonical]; !set && v != nil {
				doc[a.canonical] = v
			}
		}
	}
	rest = make(map[string]interface{})
	for k, v := range raw {
		if !consumed[k] {
			rest[k] = v
		}
	}
	return doc, rest
}

func invalid(context string, err error) error {
	AuditValidationError(context, err.Error())
	return fmt.Errorf("%w: %v", assessment.ErrInvalidInput, err)
}

// NormalizeAssessment builds an assessment.Input from a raw document. Unrecognised keys are
// kept in Input.Extra.
func NormalizeAssessment(raw map[string]interface{}) (assessment.Input, error) {
	doc, rest := canonicalize(raw, assessmentAliases)
	if err := validate(assessmentSchema, doc); err != nil {
		return assessment.Input{}, invalid("assessment_schema", err)
	}

	in := assessment.Input{
		AssessmentID:   strings.TrimSpace(str(doc["assessmentId"])),
		TaxpayerID:     str(doc["taxpayerId"]),
		TaxType:        str(doc["taxType"]),
		Status:         str(doc["status"]),
		BlockchainHash: str(doc["blockchainHash"]),
	}
	if in.AssessmentID == "" {
		return assessment.Input{}, invalid("assessment_id", fmt.Errorf("assessmentId is blank"))
	}
	if v, ok := doc["amount"]; ok {
		d, err := ParseAmount(v)
		if err != nil {
			return assessment.Input{}, invalid("amount", err)
		}
		in.Amount = d
	}
	if v, ok := doc["dueDate"]; ok {
		t, err := ParseDate(str(v))
		if err != nil {
			return assessment.Input{}, invalid("due_date", err)
		}
		in.DueDate = &t
	}
	if len(rest) > 0 {
		in.Extra = rest
	}
	return in, nil
}

// NormalizePatch builds a Patch for id. Only keys present in raw are set; identity fields
// in raw are ignored.
func NormalizePatch(id string, raw map[string]interface{}) (assessment.Patch, error) {
	doc, rest := canonicalize(raw, assessmentAliases)
	delete(doc, "assessmentId")
	delete(doc, "blockchainHash")
	if err := validate(patchSchema, doc); err != nil {
		return assessment.Patch{}, invalid("patch_schema", err)
	}

	p := assessment.Patch{AssessmentID: id}
	if v, ok := doc["taxpayerId"]; ok {
		s := str(v)
		p.TaxpayerID = &s
	}
	if v, ok := doc["taxType"]; ok {
		s := str(v)
		p.TaxType = &s
	}
	if v, ok := doc["status"]; ok {
		s := str(v)
		p.Status = &s
	}
	if v, ok := doc["amount"]; ok {
		d, err := ParseAmount(v)
		if err != nil {
			return assessment.Patch{}, invalid("amount", err)
		}
		p.Amount = &d
	}
	if v, ok := doc["dueDate"]; ok {
		t, err := ParseDate(str(v))
		if err != nil {
			return assessment.Patch{}, invalid("due_date", err)
		}
		p.DueDate = &t
	}
	if len(rest) > 0 {
		p.Extra = rest
	}
	return p, nil
}

// NormalizeAdjustment builds an Adjustment; reason and amount are required.
func NormalizeAdjustment(raw map[string]interface{}) (assessment.Adjustment, error) {
	doc, _ := canonicalize(raw, adjustmentAliases)
	if err := validate(adjustmentSchema, doc); err != nil {
		return assessment.Adjustment{}, invalid("adjustment_schema", err)
	}
	amount, err := ParseAmount(doc["amount"])
	if err != nil {
		return assessment.Adjustment{}, invalid("amount", err)
	}
	return assessment.Adjustment{
		Reason:    strings.TrimSpace(str(doc["reason"])),
		Amount:    amount,
		Type:      str(doc["type"]),
		Reference: str(doc["reference"]),
	}, nil
}

// ParseAmount accepts the numeric shapes a decoded JSON document can hold.
func ParseAmount(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case nil:
		return decimal.Zero, fmt.Errorf("amount is missing")
	default:
		return decimal.Zero, fmt.Errorf("amount has unsupported type %T", v)
	}
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}

func str(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
