package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/alghanim/clawboard/models"
	"github.com/alghanim/clawboard/openclaw"
	"github.com/alghanim/clawboard/usage"
)

// TranscriptSource yields recent sessions with their parsed transcripts.
type TranscriptSource interface {
	Transcripts(ctx context.Context, since time.Time) ([]openclaw.Transcript, error)
}

// SessionsHandler serves /api/agents and /api/sessions from the configured
// session source.
type SessionsHandler struct {
	Source      openclaw.SessionSource
	Transcripts TranscriptSource
	Now         func() time.Time
}

// ─── GET /api/agents ────────────────────────────────────────────────────────

type AgentKPIs struct {
	TotalCalls     int     `json:"total_calls"`
	SuccessRate    int     `json:"success_rate"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	TotalTokens    int64   `json:"total_tokens"`
	UniqueSessions int     `json:"unique_sessions"`
}

type AgentsResponse struct {
	RecentSessions []models.SessionRecord   `json:"recent_sessions"`
	ActiveCount    int                      `json:"active_count"`
	TotalTokens    int64                    `json:"total_tokens"`
	TotalMessages  int                      `json:"total_messages"`
	TotalSessions  int                      `json:"total_sessions"`
	KPIs           AgentKPIs                `json:"kpis"`
	ByAgent        []models.AggregateBucket `json:"by_agent"`
	ByTool         []models.AggregateBucket `json:"by_tool"`
	BySkill        []models.AggregateBucket `json:"by_skill"`
	errorField
}

func zeroAgents() *AgentsResponse {
	return &AgentsResponse{
		RecentSessions: []models.SessionRecord{},
		KPIs:           AgentKPIs{SuccessRate: 100},
		ByAgent:        []models.AggregateBucket{},
		ByTool:         []models.AggregateBucket{},
		BySkill:        []models.AggregateBucket{},
	}
}

// GetAgents handles GET /api/agents
func (h *SessionsHandler) GetAgents(w http.ResponseWriter, r *http.Request) {
	resp, err := h.buildAgents(r.Context())
	if err != nil {
		respondFailure(w, "agents", zeroAgents(), err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *SessionsHandler) buildAgents(ctx context.Context) (*AgentsResponse, error) {
	sessions, err := h.Source.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	resp := zeroAgents()
	openclaw.SortByUpdated(sessions)

	ids := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		if s.Status == models.StatusActive {
			resp.ActiveCount++
		}
		resp.TotalTokens += s.TotalTokens
		resp.TotalMessages += s.MessageCount
		ids[s.ID] = true
	}
	resp.TotalSessions = len(sessions)
	resp.RecentSessions = append(resp.RecentSessions, sessions[:min(recentTop, len(sessions))]...)

	overall := usage.Aggregate(sessions, func(models.SessionRecord) string { return "all" }, usage.SessionSample, 1)
	if len(overall) == 1 {
		resp.KPIs.TotalCalls = overall[0].Count
		resp.KPIs.SuccessRate = overall[0].SuccessRate
		resp.KPIs.AvgLatencyMs = overall[0].AvgLatencyMs
	}
	resp.KPIs.TotalTokens = resp.TotalTokens
	resp.KPIs.UniqueSessions = len(ids)

	resp.ByAgent = usage.Aggregate(sessions,
		func(s models.SessionRecord) string { return s.AgentID },
		usage.SessionSample, usage.TopN)
	resp.BySkill = usage.Aggregate(sessions,
		func(s models.SessionRecord) string { return s.ChannelSource },
		usage.SessionSample, usage.TopN)

	if h.Transcripts != nil {
		ts, err := h.Transcripts.Transcripts(ctx, since7d(nowFunc(h.Now)))
		if err != nil {
			return nil, err
		}
		var calls []usage.ToolInvocation
		for _, t := range ts {
			calls = append(calls, usage.ToolInvocations(t.Entries)...)
		}
		resp.ByTool = usage.Aggregate(calls,
			func(c usage.ToolInvocation) string { return c.Name },
			usage.ToolInvocation.Sample, usage.TopN)
	}
	return resp, nil
}

// ─── GET /api/sessions ──────────────────────────────────────────────────────

type SessionStats struct {
	Total         int    `json:"total"`
	Active        int    `json:"active"`
	TotalTokens   int64  `json:"totalTokens"`
	TotalMessages int    `json:"totalMessages"`
	Period        string `json:"period"`
}

type SessionsResponse struct {
	Sessions []models.SessionRecord `json:"sessions"`
	Stats    SessionStats           `json:"stats"`
	errorField
}

func zeroSessions() *SessionsResponse {
	return &SessionsResponse{Sessions: []models.SessionRecord{}, Stats: SessionStats{Period: period7d}}
}

// GetSessions handles GET /api/sessions
func (h *SessionsHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.buildSessions(r.Context())
	if err != nil {
		respondFailure(w, "sessions", zeroSessions(), err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// buildSessions keeps sessions updated in the last 7 days (or never) and
// returns the 50 most recent. Stats cover the whole window.
func (h *SessionsHandler) buildSessions(ctx context.Context) (*SessionsResponse, error) {
	all, err := h.Source.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := since7d(nowFunc(h.Now))

	resp := zeroSessions()
	var inWindow []models.SessionRecord
	for _, s := range all {
		if s.UpdatedAt != nil && s.UpdatedAt.Before(cutoff) {
			continue
		}
		inWindow = append(inWindow, s)
		if s.Status == models.StatusActive {
			resp.Stats.Active++
		}
		resp.Stats.TotalTokens += s.TotalTokens
		resp.Stats.TotalMessages += s.MessageCount
	}
	resp.Stats.Total = len(inWindow)

	openclaw.SortByUpdated(inWindow)
	resp.Sessions = append(resp.Sessions, inWindow[:min(sessionTop, len(inWindow))]...)
	return resp, nil
}
