// health_handler.go - HTTP handlers for /api/health, liveness and readiness
package server

import (
	"net/http"
)

// HandleLiveness responds to /api/health/liveness
func (s *Server) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Alive: s.NodeLiveness()})
}

// HandleReadiness responds to /api/health/readiness
func (s *Server) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := s.NodeReadiness()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ReadinessResponse{Ready: ready})
}

// HandleNodeHealth responds to /api/health
func (s *Server) HandleNodeHealth(w http.ResponseWriter, r *http.Request) {
	metrics := s.GetNodeMetrics()

	status := "healthy"
	if !s.NodeReadiness() {
		status = "corrupted"
	} else if metrics.BlockHeight == 1 {
		status = "initializing"
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:     status,
		Version:    NodeVersion(),
		APIVersion: APIVersion(),
		Metrics:    metrics,
	})
}
