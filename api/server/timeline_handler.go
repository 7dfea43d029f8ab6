package server

import (
	"net/http"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/timeline"
)

type timelineResponse struct {
	AssessmentID string                  `json:"assessmentId,omitempty"`
	Events       []timeline.DisplayEvent `json:"events"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("assessmentId")
	events := timeline.Project(s.recorder.Entries(id), timeline.Options{ExampleFallback: s.demoTimeline})
	writeJSON(w, http.StatusOK, timelineResponse{AssessmentID: id, Events: events})
}
