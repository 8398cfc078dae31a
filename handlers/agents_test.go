package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alghanim/clawboard/models"
	"github.com/alghanim/clawboard/openclaw"
)

func TestGetSessions_SourceUnavailable(t *testing.T) {
	h := &SessionsHandler{Source: &fakeSource{err: errors.New("openclaw: executable file not found")}, Now: clock}
	rec := httptest.NewRecorder()
	h.GetSessions(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body SessionsResponse
	decodeBody(t, rec, &body)
	if body.Sessions == nil || len(body.Sessions) != 0 {
		t.Errorf("sessions = %v, want empty list", body.Sessions)
	}
	if body.Stats.Total != 0 || body.Stats.TotalTokens != 0 || body.Stats.Period != "7d" {
		t.Errorf("stats = %+v, want zeroed 7d stats", body.Stats)
	}
	if body.Error == "" {
		t.Error("error is empty")
	}
}

func TestGetSessions_WindowAndOrder(t *testing.T) {
	src := &fakeSource{records: []models.SessionRecord{
		{ID: "old", UpdatedAt: ptr(fixedNow.Add(-8 * 24 * time.Hour)), TotalTokens: 1000},
		{ID: "undated", TotalTokens: 5, MessageCount: 1},
		{ID: "recent", UpdatedAt: ptr(fixedNow.Add(-time.Minute)), Status: models.StatusActive, TotalTokens: 10, MessageCount: 2},
		{ID: "older", UpdatedAt: ptr(fixedNow.Add(-2 * time.Hour)), Status: models.StatusCompleted, TotalTokens: 20, MessageCount: 3},
	}}
	h := &SessionsHandler{Source: src, Now: clock}
	rec := httptest.NewRecorder()
	h.GetSessions(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body SessionsResponse
	decodeBody(t, rec, &body)
	var ids []string
	for _, s := range body.Sessions {
		ids = append(ids, s.ID)
	}
	want := []string{"recent", "older", "undated"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if body.Stats.Total != 3 || body.Stats.Active != 1 || body.Stats.TotalTokens != 35 || body.Stats.TotalMessages != 6 {
		t.Errorf("stats = %+v", body.Stats)
	}
}

func TestGetSessions_KeepsFifty(t *testing.T) {
	var records []models.SessionRecord
	for i := 0; i < 60; i++ {
		records = append(records, models.SessionRecord{ID: "s", UpdatedAt: ptr(fixedNow.Add(-time.Duration(i) * time.Minute))})
	}
	h := &SessionsHandler{Source: &fakeSource{records: records}, Now: clock}
	rec := httptest.NewRecorder()
	h.GetSessions(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	var body SessionsResponse
	decodeBody(t, rec, &body)
	if len(body.Sessions) != 50 || body.Stats.Total != 60 {
		t.Errorf("len = %d, total = %d, want 50 and 60", len(body.Sessions), body.Stats.Total)
	}
}

func TestGetAgents_Aggregates(t *testing.T) {
	src := &fakeSource{records: []models.SessionRecord{
		{ID: "a", AgentID: "main", Status: models.StatusCompleted, UpdatedAt: ptr(fixedNow.Add(-3 * time.Minute)), TotalTokens: 100, ChannelSource: "discord", LatencyMs: 100},
		{ID: "b", AgentID: "main", Status: models.StatusCompleted, UpdatedAt: ptr(fixedNow.Add(-2 * time.Minute)), TotalTokens: 50, ChannelSource: "discord", LatencyMs: 200},
		{ID: "c", AgentID: "main", Status: models.StatusActive, UpdatedAt: ptr(fixedNow.Add(-time.Minute)), TotalTokens: 25, ChannelSource: "webchat", LatencyMs: 301},
		{ID: "d", AgentID: "coder", Status: models.StatusUnknown, TotalTokens: 1},
	}}
	tr := &fakeTranscripts{ts: []openclaw.Transcript{{
		Session: models.SessionRecord{ID: "a"},
		Entries: []models.MessageEntry{
			{Type: "message", Role: "assistant", ToolCalls: []string{"exec", "read"}},
			{Type: "message", Role: "toolResult", ToolResult: &models.ToolResult{ToolName: "exec", IsError: true}},
			{Type: "message", Role: "toolResult", ToolResult: &models.ToolResult{ToolName: "read"}},
			{Type: "message", Role: "assistant", ToolCalls: []string{"exec"}},
			{Type: "message", Role: "toolResult", ToolResult: &models.ToolResult{ToolName: "exec"}},
		},
	}}}
	h := &SessionsHandler{Source: src, Transcripts: tr, Now: clock}
	rec := httptest.NewRecorder()
	h.GetAgents(rec, httptest.NewRequest(http.MethodGet, "/api/agents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body AgentsResponse
	decodeBody(t, rec, &body)

	if body.TotalSessions != 4 || body.ActiveCount != 1 || body.TotalTokens != 176 {
		t.Errorf("totals = %d/%d/%d", body.TotalSessions, body.ActiveCount, body.TotalTokens)
	}
	if body.RecentSessions[0].ID != "c" || body.RecentSessions[3].ID != "d" {
		t.Errorf("recent order = %v", body.RecentSessions)
	}
	if len(body.ByAgent) != 2 {
		t.Fatalf("by_agent = %+v", body.ByAgent)
	}
	top := body.ByAgent[0]
	if top.Key != "main" || top.Count != 3 || top.SuccessRate != 67 {
		t.Errorf("main bucket = %+v, want 3 calls at 67%%", top)
	}
	if top.AvgLatencyMs != 200.3 {
		t.Errorf("avg latency = %v, want 200.3", top.AvgLatencyMs)
	}
	if body.ByAgent[1].SuccessRate != 100 {
		t.Errorf("unknown-only bucket rate = %d, want 100", body.ByAgent[1].SuccessRate)
	}
	if body.BySkill[0].Key != "discord" || body.BySkill[0].Count != 2 {
		t.Errorf("by_skill = %+v", body.BySkill)
	}
	if len(body.ByTool) != 2 || body.ByTool[0].Key != "exec" || body.ByTool[0].Count != 2 || body.ByTool[0].SuccessRate != 50 {
		t.Errorf("by_tool = %+v", body.ByTool)
	}
	if body.KPIs.TotalCalls != 4 || body.KPIs.UniqueSessions != 4 || body.KPIs.SuccessRate != 67 {
		t.Errorf("kpis = %+v", body.KPIs)
	}
}

func TestGetAgents_Empty(t *testing.T) {
	h := &SessionsHandler{Source: &fakeSource{}, Transcripts: &fakeTranscripts{}, Now: clock}
	rec := httptest.NewRecorder()
	h.GetAgents(rec, httptest.NewRequest(http.MethodGet, "/api/agents", nil))

	var body AgentsResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusOK || body.KPIs.SuccessRate != 100 || len(body.ByAgent) != 0 || body.ByTool == nil {
		t.Errorf("empty agents = %d %+v", rec.Code, body)
	}
}
