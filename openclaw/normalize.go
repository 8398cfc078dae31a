package openclaw

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alghanim/clawboard/models"
)

// DefaultActiveWindow is how recently a session must have been updated to
// count as active when the source carries no explicit status.
const DefaultActiveWindow = 5 * time.Minute

// Normalizer turns raw session objects into SessionRecords.
type Normalizer struct {
	Now          func() time.Time
	ActiveWindow time.Duration
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// NormalizeSession maps one raw session object to a SessionRecord. key is
// the map key the object was stored under (may be empty) and dirAgent is the
// agent directory it was read from (may be empty).
func (n Normalizer) NormalizeSession(raw map[string]interface{}, key, dirAgent string) models.SessionRecord {
	now := n.now()
	window := n.ActiveWindow
	if window <= 0 {
		window = DefaultActiveWindow
	}

	rec := models.SessionRecord{
		ID:       firstString(raw, "sessionId", "id"),
		Key:      key,
		ChatType: firstString(raw, "chatType"),
	}
	if rec.Key == "" {
		rec.Key = firstString(raw, "key")
	}
	if rec.ID == "" {
		rec.ID = rec.Key
	}

	rec.AgentID = firstString(raw, "agentId", "agent")
	if rec.AgentID == "" {
		rec.AgentID = AgentFromKey(rec.Key)
	}
	if rec.AgentID == "" {
		rec.AgentID = dirAgent
	}
	if rec.AgentID == "" {
		rec.AgentID = "unknown"
	}

	rec.Model = firstString(raw, "model", "modelOverride", "modelProvider")
	if rec.Model == "" {
		rec.Model = "unknown"
	}
	rec.Provider = firstString(raw, "modelProvider", "provider")
	if rec.Provider == "" {
		if i := strings.Index(rec.Model, "/"); i > 0 {
			rec.Provider = rec.Model[:i]
		} else {
			rec.Provider = "unknown"
		}
	}
	if rec.ChatType == "" {
		rec.ChatType = "unknown"
	}

	rec.CreatedAt = firstTime(raw, "createdAt", "startedAt")
	rec.UpdatedAt = firstTime(raw, "updatedAt", "lastActivityAt")
	ageMs, hasAge := firstNumber(raw, "ageMs")
	if rec.UpdatedAt == nil && hasAge {
		t := now.Add(-time.Duration(ageMs) * time.Millisecond).UTC()
		rec.UpdatedAt = &t
	}

	usage, _ := raw["usage"].(map[string]interface{})
	rec.InputTokens = firstInt(raw, "inputTokens")
	if rec.InputTokens == 0 && usage != nil {
		rec.InputTokens = firstInt(usage, "inputTokens", "input")
	}
	rec.OutputTokens = firstInt(raw, "outputTokens")
	if rec.OutputTokens == 0 && usage != nil {
		rec.OutputTokens = firstInt(usage, "outputTokens", "output")
	}
	rec.TotalTokens = firstInt(raw, "totalTokens")
	if rec.TotalTokens == 0 && usage != nil {
		rec.TotalTokens = firstInt(usage, "totalTokens")
	}
	if rec.TotalTokens == 0 {
		rec.TotalTokens = rec.InputTokens + rec.OutputTokens
	}
	rec.MessageCount = int(firstInt(raw, "messageCount", "messages", "totalMessages"))

	rec.ChannelSource = firstString(raw, "lastChannel", "channel", "source")
	if rec.ChannelSource == "" {
		rec.ChannelSource = "unknown"
	}

	if v, ok := firstNumber(raw, "avgLatencyMs", "latencyMs"); ok {
		rec.LatencyMs = v
	} else if hasAge {
		rec.LatencyMs = ageMs
	}

	rec.SessionFile = firstString(raw, "sessionFile")

	if s := firstString(raw, "status"); s != "" {
		rec.Status = ParseStatus(s)
	} else {
		rec.Status = statusFromActivity(rec.UpdatedAt, now, window)
	}
	return rec
}

// ParseStatus maps the status vocabulary of the various sources onto the
// three normalized states.
func ParseStatus(s string) models.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "running", "in_progress":
		return models.StatusActive
	case "completed", "done", "success", "ok", "idle":
		return models.StatusCompleted
	default:
		return models.StatusUnknown
	}
}

func statusFromActivity(updated *time.Time, now time.Time, window time.Duration) models.Status {
	if updated == nil {
		return models.StatusUnknown
	}
	if now.Sub(*updated) <= window {
		return models.StatusActive
	}
	return models.StatusCompleted
}

// AgentFromKey extracts the agent id from keys shaped "agent:<id>:...".
func AgentFromKey(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) >= 2 && parts[0] == "agent" {
		return parts[1]
	}
	return ""
}

// --- raw field helpers ---

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func firstNumber(raw map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// firstInt returns the first positive integer among keys.
func firstInt(raw map[string]interface{}, keys ...string) int64 {
	for _, k := range keys {
		if v, ok := firstNumber(raw, k); ok && v > 0 {
			return int64(math.Round(v))
		}
	}
	return 0
}

func firstTime(raw map[string]interface{}, keys ...string) *time.Time {
	for _, k := range keys {
		if t, ok := ParseTimestamp(raw[k]); ok {
			return &t
		}
	}
	return nil
}

// ParseTimestamp accepts epoch milliseconds or an RFC 3339 string.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch ts := v.(type) {
	case float64:
		if ts <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ts)).UTC(), true
	case int64:
		if ts <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ts).UTC(), true
	case json.Number:
		ms, err := ts.Int64()
		if err != nil || ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	case string:
		if ts == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
