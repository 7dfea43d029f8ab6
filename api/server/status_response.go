// status_response.go - JSON response structs for health endpoints
package server

// StatusResponse is the body of /api/health.
type StatusResponse struct {
	Status     string      `json:"status"`
	Version    string      `json:"version"`
	APIVersion string      `json:"api_version"`
	Metrics    NodeMetrics `json:"metrics"`
}

// LivenessResponse for /api/health/liveness
type LivenessResponse struct {
	Alive bool `json:"alive"`
}

// ReadinessResponse for /api/health/readiness
type ReadinessResponse struct {
	Ready bool `json:"ready"`
}
