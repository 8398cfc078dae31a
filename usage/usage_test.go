package usage

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/alghanim/clawboard/config"
	"github.com/alghanim/clawboard/models"
)

func byAgent(s models.SessionRecord) string { return s.AgentID }

func TestAggregate_CompletedAndActive(t *testing.T) {
	sessions := []models.SessionRecord{
		{AgentID: "main", Status: models.StatusCompleted, LatencyMs: 100},
		{AgentID: "main", Status: models.StatusCompleted, LatencyMs: 200},
		{AgentID: "main", Status: models.StatusActive, LatencyMs: 301},
	}
	buckets := Aggregate(sessions, byAgent, SessionSample, TopN)
	if len(buckets) != 1 {
		t.Fatalf("want 1 bucket, got %d", len(buckets))
	}
	b := buckets[0]
	if b.Key != "main" || b.Count != 3 {
		t.Errorf("bucket: %+v", b)
	}
	// 2 / (2 + 1) = 66.67, rounded to 67.
	if b.SuccessRate != 67 {
		t.Errorf("success rate: want 67, got %d", b.SuccessRate)
	}
	if b.AvgLatencyMs != 200.3 {
		t.Errorf("avg latency: want 200.3, got %v", b.AvgLatencyMs)
	}
}

func TestAggregate_UnknownStatusExcludedFromRate(t *testing.T) {
	sessions := []models.SessionRecord{
		{AgentID: "ops", Status: models.StatusUnknown},
		{AgentID: "ops", Status: models.StatusUnknown},
	}
	b := Aggregate(sessions, byAgent, SessionSample, TopN)[0]
	if b.Count != 2 {
		t.Errorf("unknown sessions still count: want 2, got %d", b.Count)
	}
	if b.SuccessRate != 100 {
		t.Errorf("no qualifying records: want 100, got %d", b.SuccessRate)
	}
}

func TestAggregate_SortTieBreakAndTruncate(t *testing.T) {
	var sessions []models.SessionRecord
	// 12 agents; agent-05 appears three times, agent-02 twice.
	for i := 0; i < 12; i++ {
		sessions = append(sessions, models.SessionRecord{AgentID: fmt.Sprintf("agent-%02d", i)})
	}
	sessions = append(sessions,
		models.SessionRecord{AgentID: "agent-05"},
		models.SessionRecord{AgentID: "agent-02"},
		models.SessionRecord{AgentID: "agent-05"},
	)

	buckets := Aggregate(sessions, byAgent, SessionSample, TopN)
	if len(buckets) != TopN {
		t.Fatalf("want %d buckets, got %d", TopN, len(buckets))
	}
	want := []string{"agent-05", "agent-02", "agent-00", "agent-01", "agent-03"}
	for i, k := range want {
		if buckets[i].Key != k {
			t.Errorf("position %d: want %s, got %s", i, k, buckets[i].Key)
		}
	}

	all := Aggregate(sessions, byAgent, SessionSample, 0)
	total := 0
	for _, b := range all {
		total += b.Count
	}
	if total != len(sessions) {
		t.Errorf("counts must sum to input size: want %d, got %d", len(sessions), total)
	}
}

func TestSuccessRate_Bounds(t *testing.T) {
	tests := []struct {
		succeeded, qualifying, want int
	}{
		{0, 0, 100},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33},
		{1, 8, 13},
		{9, 3, 100},
	}
	for _, tt := range tests {
		got := SuccessRate(tt.succeeded, tt.qualifying)
		if got != tt.want {
			t.Errorf("SuccessRate(%d,%d): want %d, got %d", tt.succeeded, tt.qualifying, tt.want, got)
		}
		if got < 0 || got > 100 {
			t.Errorf("SuccessRate(%d,%d) out of range: %d", tt.succeeded, tt.qualifying, got)
		}
	}
}

func TestDailyBuckets_EmptyWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	buckets := DailyBuckets(nil, 7, now)
	if len(buckets) != 7 {
		t.Fatalf("want 7 buckets, got %d", len(buckets))
	}
	wantDates := []string{"2026-03-04", "2026-03-05", "2026-03-06", "2026-03-07", "2026-03-08", "2026-03-09", "2026-03-10"}
	for i, b := range buckets {
		if b.Date != wantDates[i] {
			t.Errorf("bucket %d: want %s, got %s", i, wantDates[i], b.Date)
		}
		if b.Tokens != 0 || b.Sessions != 0 || b.Count != 0 {
			t.Errorf("bucket %d not zeroed: %+v", i, b)
		}
	}
	if buckets[6].Day != "Tue" {
		t.Errorf("2026-03-10 is a Tuesday, got %s", buckets[6].Day)
	}
}

func TestDailyBuckets_Placement(t *testing.T) {
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	cet := time.FixedZone("CET", 3600)
	points := []Point{
		{At: time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC), Tokens: 10, Session: "a", Source: "discord"},
		{At: time.Date(2026, 3, 10, 0, 40, 0, 0, time.UTC), Tokens: 5, Session: "a", Source: "discord"},
		// 00:30 CET is 23:30 UTC the previous day.
		{At: time.Date(2026, 3, 10, 0, 30, 0, 0, cet), Tokens: 7, Session: "b"},
		{At: time.Date(2026, 3, 3, 23, 0, 0, 0, time.UTC), Tokens: 1000},
		{At: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), Tokens: 1000},
	}
	buckets := DailyBuckets(points, 7, now)

	today := buckets[6]
	if today.Tokens != 15 || today.Sessions != 1 || today.Count != 2 || today.Sources["discord"] != 2 {
		t.Errorf("today: %+v", today)
	}
	if y := buckets[5]; y.Tokens != 7 || y.Sessions != 1 {
		t.Errorf("yesterday: %+v", y)
	}
	var total int64
	for _, b := range buckets {
		total += b.Tokens
	}
	if total != 22 {
		t.Errorf("out-of-window points must be dropped: total %d", total)
	}
}

func TestDailyBuckets_WindowLength(t *testing.T) {
	now := time.Now()
	for _, w := range []int{1, 7, 30} {
		if got := len(DailyBuckets(nil, w, now)); got != w {
			t.Errorf("window %d: got %d buckets", w, got)
		}
	}
	if got := len(DailyBuckets(nil, 0, now)); got != 0 {
		t.Errorf("window 0: got %d buckets", got)
	}
}

func TestHourlyBuckets(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 20, 0, 0, time.UTC)
	points := []Point{
		{At: time.Date(2026, 3, 10, 14, 1, 0, 0, time.UTC)},
		{At: time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)},
		{At: time.Date(2026, 3, 9, 14, 59, 0, 0, time.UTC)},
	}
	buckets := HourlyBuckets(points, 24, now)
	if len(buckets) != 24 {
		t.Fatalf("want 24 buckets, got %d", len(buckets))
	}
	if buckets[0].Hour != "2026-03-09T15:00Z" || buckets[0].Count != 1 {
		t.Errorf("first bucket: %+v", buckets[0])
	}
	if buckets[23].Hour != "2026-03-10T14:00Z" || buckets[23].Count != 1 {
		t.Errorf("last bucket: %+v", buckets[23])
	}
}

func TestPricing(t *testing.T) {
	p := NewPricing(map[string]config.ModelPrice{
		"openai/gpt-4o":      {Input: 2.5, Output: 10},
		"openai/gpt-4o-mini": {Input: 0.15, Output: 0.6},
	}, config.ModelPrice{Input: 3, Output: 15})

	tests := []struct {
		model string
		want  float64
	}{
		{"openai/gpt-4o", 2.5 + 10},
		{"openrouter/openai/gpt-4o-mini-2024", 0.15 + 0.6},
		{"GPT-4o", 2.5 + 10},
		{"mystery-model", 3 + 15},
	}
	for _, tt := range tests {
		got := p.Cost(tt.model, 1_000_000, 1_000_000)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Cost(%s): want %v, got %v", tt.model, tt.want, got)
		}
	}
}

func TestPricing_EmptyModelSegment(t *testing.T) {
	p := NewPricing(map[string]config.ModelPrice{
		"openai/":       {Input: 100, Output: 100},
		"anthropic/ ":   {Input: 200, Output: 200},
		"openai/gpt-4o": {Input: 2.5, Output: 10},
	}, config.ModelPrice{Input: 3, Output: 15})

	tests := []struct {
		model string
		want  float64
	}{
		{"mystery-model", 3 + 15},
		{"anthropic/claude-sonnet-4-6", 3 + 15},
		{"openai/gpt-4o", 2.5 + 10},
		{"openai/", 100 + 100},
	}
	for _, tt := range tests {
		got := p.Cost(tt.model, 1_000_000, 1_000_000)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Cost(%s): want %v, got %v", tt.model, tt.want, got)
		}
	}
}

func TestProvider(t *testing.T) {
	if got := Provider("Anthropic/claude", ""); got != "anthropic" {
		t.Errorf("got %s", got)
	}
	if got := Provider("glm-4.6", "zai"); got != "zai" {
		t.Errorf("got %s", got)
	}
	if got := Provider("glm-4.6", ""); got != "unknown" {
		t.Errorf("got %s", got)
	}
}
