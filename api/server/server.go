package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/assessment"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/auth"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/chain"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/taxops"
)

const maxBodyBytes = 1 << 20

type Server struct {
	ledger   *chain.Ledger
	store    *assessment.Store
	recorder *taxops.Recorder

	// nil disables authentication on mutating routes
	authorizer   *auth.Authorizer
	gatherer     prometheus.Gatherer
	demoTimeline bool
	log          *slog.Logger
	startTime    time.Time

	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Option func(*Server)

func WithAuthorizer(a *auth.Authorizer) Option {
	return func(s *Server) { s.authorizer = a }
}

func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithDemoTimeline makes an empty timeline return the example entries.
func WithDemoTimeline(on bool) Option {
	return func(s *Server) { s.demoTimeline = on }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.ReadTimeout = read
		s.WriteTimeout = write
	}
}

func NewServer(ledger *chain.Ledger, store *assessment.Store, recorder *taxops.Recorder, listenAddr string, opts ...Option) *Server {
	s := &Server{
		ledger:       ledger,
		store:        store,
		recorder:     recorder,
		gatherer:     prometheus.DefaultGatherer,
		log:          slog.Default(),
		startTime:    time.Now(),
		ListenAddr:   listenAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.HandleNodeHealth)
	mux.HandleFunc("GET /api/health/liveness", s.HandleLiveness)
	mux.HandleFunc("GET /api/health/readiness", s.HandleReadiness)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/chain", s.handleChain)
	mux.HandleFunc("GET /api/chain/verify", s.handleVerifyChain)
	mux.HandleFunc("GET /api/chain/blocks/{index}", s.handleGetBlock)
	mux.Handle("POST /api/transactions", s.protect(s.handleAddTransaction))

	mux.HandleFunc("GET /api/assessments", s.handleListAssessments)
	mux.Handle("POST /api/assessments", s.protect(s.handleCreateAssessment))
	mux.HandleFunc("GET /api/assessments/{id}", s.handleGetAssessment)
	mux.Handle("PUT /api/assessments/{id}", s.protect(s.handleUpdateAssessment))
	mux.Handle("DELETE /api/assessments/{id}", s.protect(s.handleDeleteAssessment))
	mux.Handle("POST /api/assessments/{id}/adjustments", s.protect(s.handleAddAdjustment))
	mux.Handle("POST /api/assessments/{id}/penalty", s.protect(s.handleApplyPenalty))
	mux.Handle("POST /api/assessments/{id}/interest", s.protect(s.handleApplyInterest))
	mux.Handle("POST /api/assessments/{id}/payments", s.protect(s.handleRecordPayment))
	mux.Handle("POST /api/assessments/{id}/status", s.protect(s.handleChangeStatus))

	mux.HandleFunc("GET /api/timeline", s.handleTimeline)

	return s.logRequests(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server listening", "addr", s.ListenAddr, "auth", s.authorizer != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) protect(h http.HandlerFunc) http.Handler {
	if s.authorizer == nil {
		return h
	}
	return s.authorizer.Middleware(h)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, assessment.ErrNotFound), errors.Is(err, chain.ErrBlockNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assessment.ErrInvalidInput), errors.Is(err, chain.ErrPayload), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, assessment.ErrDuplicate), errors.Is(err, chain.ErrDuplicateTx), errors.Is(err, chain.ErrChainIntegrity):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

// decodeBody reads a JSON object, keeping numbers as json.Number.
func decodeBody(r *http.Request) (map[string]interface{}, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBodyBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]interface{}{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}
