package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alghanim/clawboard/openclaw"
)

// MetricsResponse summarizes the last 24h of gateway activity recorded in
// the snapshot.
type MetricsResponse struct {
	MessagesToday      int               `json:"messages_today"`
	Errors24h          int               `json:"errors_24h"`
	Timeouts24h        int               `json:"timeouts_24h"`
	Restarts24h        int               `json:"restarts_24h"`
	LogLines24h        int               `json:"log_lines_24h"`
	TotalConversations int               `json:"total_conversations"`
	ErrorDetails       []json.RawMessage `json:"error_details"`
	TimeoutDetails     []json.RawMessage `json:"timeout_details"`
	errorField
}

func zeroMetrics() *MetricsResponse {
	return &MetricsResponse{ErrorDetails: []json.RawMessage{}, TimeoutDetails: []json.RawMessage{}}
}

// MetricsHandler serves /api/metrics.
type MetricsHandler struct {
	Snapshot *openclaw.SnapshotFile
}

// GetMetrics handles GET /api/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Snapshot.Load()
	if err != nil {
		respondFailure(w, "metrics", zeroMetrics(), err)
		return
	}
	respondJSON(w, http.StatusOK, buildMetrics(snap))
}

// buildMetrics prefers the dedicated errors/timeouts sections over the
// counters in metrics.
func buildMetrics(snap *openclaw.Snapshot) *MetricsResponse {
	m := snap.Metrics
	resp := zeroMetrics()
	resp.MessagesToday = m.MessagesToday
	resp.Errors24h = m.Errors24h
	resp.Timeouts24h = m.Timeouts24h
	resp.Restarts24h = m.Restarts24h
	resp.LogLines24h = m.LogLines24h
	resp.TotalConversations = m.ConversationsToday
	if snap.Errors.Count != nil {
		resp.Errors24h = *snap.Errors.Count
	}
	if snap.Timeouts.Count != nil {
		resp.Timeouts24h = *snap.Timeouts.Count
	}
	if m.ErrorDetails != nil {
		resp.ErrorDetails = m.ErrorDetails
	}
	if m.TimeoutDetails != nil {
		resp.TimeoutDetails = m.TimeoutDetails
	}
	return resp
}
