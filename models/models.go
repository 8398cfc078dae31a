package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Status is the normalized lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusUnknown   Status = "unknown"
)

// SessionRecord is one session normalized from any of the session sources.
type SessionRecord struct {
	ID            string     `json:"id"`
	Key           string     `json:"key"`
	AgentID       string     `json:"agent"`
	Model         string     `json:"model"`
	Provider      string     `json:"provider"`
	ChatType      string     `json:"chatType"`
	Status        Status     `json:"status"`
	CreatedAt     *time.Time `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt"`
	InputTokens   int64      `json:"inputTokens"`
	OutputTokens  int64      `json:"outputTokens"`
	TotalTokens   int64      `json:"totalTokens"`
	MessageCount  int        `json:"totalMessages"`
	ChannelSource string     `json:"lastChannel"`
	LatencyMs     float64    `json:"latencyMs"`

	// SessionFile is the transcript path, when the source knows it.
	SessionFile string `json:"-"`
}

// Usage is the token usage attached to a transcript message.
type Usage struct {
	Input       int64 `json:"input"`
	Output      int64 `json:"output"`
	TotalTokens int64 `json:"totalTokens"`
}

// Total returns TotalTokens, or input+output when the total is missing.
func (u Usage) Total() int64 {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.Input + u.Output
}

// ToolResult is the outcome of a tool call recorded in a transcript.
type ToolResult struct {
	ToolName string `json:"toolName"`
	IsError  bool   `json:"isError"`
}

// MessageEntry is one parsed line of a session transcript.
type MessageEntry struct {
	Type        string      `json:"type"`
	Role        string      `json:"role"`
	Model       string      `json:"model,omitempty"`
	Usage       *Usage      `json:"usage,omitempty"`
	TimestampMs int64       `json:"timestampMs"`
	TextContent string      `json:"textContent"`
	ToolCalls   []string    `json:"toolCalls,omitempty"`
	ToolResult  *ToolResult `json:"toolResult,omitempty"`
}

// IsMessage reports whether the entry is a chat message (as opposed to
// session headers, model changes and similar bookkeeping lines).
func (m MessageEntry) IsMessage() bool {
	return m.Type == "message"
}

// Time returns the entry timestamp, or the zero time when unknown.
func (m MessageEntry) Time() time.Time {
	if m.TimestampMs <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.TimestampMs).UTC()
}

// AggregateBucket is one group produced by the usage aggregator.
type AggregateBucket struct {
	Key          string  `json:"key"`
	Count        int     `json:"count"`
	SuccessRate  int     `json:"success_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	TokensIn     int64   `json:"tokens_in"`
	TokensOut    int64   `json:"tokens_out"`
}

// DailyBucket is one calendar day (UTC) in a trailing window.
type DailyBucket struct {
	Date     string         `json:"date"`
	Day      string         `json:"day"`
	Tokens   int64          `json:"tokens"`
	Sessions int            `json:"sessions"`
	Count    int            `json:"count"`
	Sources  map[string]int `json:"sources"`
}

// CronJob mirrors a job of the external scheduler. Heartbeats are cron jobs
// whose name mentions "heartbeat".
type CronJob struct {
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Status     string     `json:"status"`
	LastStatus string     `json:"last_status"`
	LastRun    string     `json:"last_run"`
	NextRun    *time.Time `json:"next_run"`
	Enabled    bool       `json:"enabled"`
}

// Idea is an entry of the dashboard ideas backlog.
type Idea struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority"`
	Category    *string        `json:"category,omitempty"`
	Tags        pq.StringArray `json:"tags,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// --- SQL null helpers ---

func NullStringToPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func PtrToNullString(s *string) sql.NullString {
	if s != nil {
		return sql.NullString{String: *s, Valid: true}
	}
	return sql.NullString{}
}
