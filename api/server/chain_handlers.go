package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/block"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/chain"
)

type chainResponse struct {
	Height int           `json:"height"`
	Blocks []block.Block `json:"blocks"`
}

// verifyResponse carries the sealed commitment so clients can check fetched blocks
// against it with chain.ChainCommitment.
type verifyResponse struct {
	OK        bool    `json:"ok"`
	Height    int     `json:"height"`
	TipDigest string  `json:"tipDigest"`
	Root      string  `json:"root"`
	Index     *uint64 `json:"index,omitempty"`
	Error     string  `json:"error,omitempty"`
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	blocks := s.ledger.Chain()
	writeJSON(w, http.StatusOK, chainResponse{Height: len(blocks), Blocks: blocks})
}

func (s *Server) handleVerifyChain(w http.ResponseWriter, r *http.Request) {
	err := s.ledger.Verify()
	c := s.ledger.Commitment()
	resp := verifyResponse{OK: err == nil, Height: c.Height, TipDigest: c.TipDigest, Root: c.Root}
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Error = err.Error()
	var cie *chain.ChainIntegrityError
	if errors.As(err, &cie) {
		resp.Index = &cie.Index
	}
	writeJSON(w, http.StatusConflict, resp)
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(r.PathValue("index"), 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: block index must be a non-negative integer", errBadRequest))
		return
	}
	blk, err := s.ledger.BlockAt(index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blk)
}

// handleAddTransaction appends a raw payload to the ledger without touching assessments.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	receipt, err := s.ledger.AddTransaction(payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}
