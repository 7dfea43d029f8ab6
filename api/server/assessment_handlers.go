package server

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/assessment"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/validation"
)

type assessmentResponse struct {
	assessment.Assessment
	Balance decimal.Decimal `json:"balance"`
}

func withBalance(a assessment.Assessment) assessmentResponse {
	return assessmentResponse{Assessment: a, Balance: a.Balance()}
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	list := s.store.List()
	out := make([]assessmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, withBalance(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	in, err := validation.NormalizeAssessment(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.recorder.CreateAssessment(in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withBalance(a))
}

func (s *Server) handleUpdateAssessment(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	patch, err := validation.NormalizePatch(r.PathValue("id"), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.recorder.UpdateAssessment(patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withBalance(res.Assessment))
}

func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	if _, err := s.recorder.DeleteAssessment(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddAdjustment(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	adj, err := validation.NormalizeAdjustment(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.recorder.AddAdjustment(r.PathValue("id"), adj)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, withBalance(res.Assessment))
}

func (s *Server) handleApplyPenalty(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := amountField(raw, "amount")
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.recorder.ApplyPenalty(r.PathValue("id"), amount, stringField(raw, "reason"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleApplyInterest(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rate, err := amountField(raw, "rate")
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.recorder.ApplyInterest(r.PathValue("id"), rate, stringField(raw, "reason"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	amount, err := amountField(raw, "amount")
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.recorder.RecordPayment(r.PathValue("id"), amount, stringField(raw, "reference"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.recorder.ChangeStatus(r.PathValue("id"), stringField(raw, "status"), stringField(raw, "note"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func amountField(raw map[string]interface{}, key string) (decimal.Decimal, error) {
	d, err := validation.ParseAmount(raw[key])
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", assessment.ErrInvalidInput, key, err)
	}
	return d, nil
}

func stringField(raw map[string]interface{}, key string) string {
	s, _ := raw[key].(string)
	return s
}
