package openclaw

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alghanim/clawboard/models"
)

// Snapshot is the subset of dashboard-data.json this service reads.
type Snapshot struct {
	System     SnapshotSystem  `json:"system"`
	Metrics    SnapshotMetrics `json:"metrics"`
	Errors     SnapshotCounter `json:"errors"`
	Timeouts   SnapshotCounter `json:"timeouts"`
	CPUHistory []HistoryPoint  `json:"cpuHistory"`
	RAMHistory []HistoryPoint  `json:"ramHistory"`
	Cron       struct {
		Jobs []map[string]interface{} `json:"jobs"`
	} `json:"cron"`
	Agents struct {
		RecentSessions []map[string]interface{} `json:"recent_sessions"`
	} `json:"agents"`
	Sessions json.RawMessage `json:"sessions"`
}

type usagePercent struct {
	UsagePercent float64 `json:"usage_percent"`
}

type statusField struct {
	Status string `json:"status"`
}

type SnapshotSystem struct {
	CPU    usagePercent `json:"cpu"`
	RAM    usagePercent `json:"ram"`
	Disk   usagePercent `json:"disk"`
	Uptime struct {
		Text string `json:"text"`
	} `json:"uptime"`
	OpenClaw  statusField `json:"openclaw"`
	Tailscale statusField `json:"tailscale"`
}

type SnapshotMetrics struct {
	MessagesToday      int               `json:"messages_today"`
	Errors24h          int               `json:"errors_24h"`
	Timeouts24h        int               `json:"timeouts_24h"`
	Restarts24h        int               `json:"restarts_24h"`
	LogLines24h        int               `json:"log_lines_24h"`
	ConversationsToday int               `json:"total_conversations_today"`
	ErrorDetails       []json.RawMessage `json:"error_details"`
	TimeoutDetails     []json.RawMessage `json:"timeout_details"`
}

// SnapshotCounter is a section whose count, when present, overrides the
// matching metrics field.
type SnapshotCounter struct {
	Count *int `json:"count"`
}

type HistoryPoint struct {
	Timestamp interface{} `json:"timestamp"`
	Value     float64     `json:"value"`
}

// SnapshotFile loads dashboard-data.json, re-parsing only when the file's
// modification time or size changes.
type SnapshotFile struct {
	Path string

	mu      sync.Mutex
	modTime time.Time
	size    int64
	cached  *Snapshot
}

// Load returns the current snapshot. A missing or malformed file yields an
// empty snapshot and no error; other read failures are returned.
func (f *SnapshotFile) Load() (*Snapshot, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{}, nil
		}
		return nil, &SourceError{Source: "snapshot", Op: "stat", Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil && info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return f.cached, nil
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{}, nil
		}
		return nil, &SourceError{Source: "snapshot", Op: "read", Err: err}
	}
	snap, err := parseSnapshot(data)
	if err != nil {
		log.Printf("[snapshot] ignoring malformed %s: %v", f.Path, err)
		return &Snapshot{}, nil
	}
	f.cached, f.modTime, f.size = snap, info.ModTime(), info.Size()
	return snap, nil
}

// parseSnapshot decodes each top-level section on its own so one bad
// section does not blank the rest. Numbers in system, metrics and the
// counters may also be numeric strings. Only a document that is not a JSON
// object is an error.
func parseSnapshot(data []byte) (*Snapshot, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, err
	}
	decode := func(name string, v interface{}) {
		raw, ok := sections[name]
		if !ok {
			return
		}
		if err := json.Unmarshal(raw, v); err != nil {
			log.Printf("[snapshot] ignoring malformed %q section: %v", name, err)
		}
	}

	snap := &Snapshot{}
	var system, metrics, errs, timeouts map[string]interface{}
	decode("system", &system)
	decode("metrics", &metrics)
	decode("errors", &errs)
	decode("timeouts", &timeouts)
	snap.System = systemFrom(system)
	snap.Metrics = metricsFrom(metrics)
	if raw, ok := sections["metrics"]; ok {
		// a bad details list leaves the other one intact
		_ = json.Unmarshal(raw, &struct {
			ErrorDetails   *[]json.RawMessage `json:"error_details"`
			TimeoutDetails *[]json.RawMessage `json:"timeout_details"`
		}{&snap.Metrics.ErrorDetails, &snap.Metrics.TimeoutDetails})
	}
	snap.Errors = counterFrom(errs)
	snap.Timeouts = counterFrom(timeouts)

	var cpu, ram []interface{}
	decode("cpuHistory", &cpu)
	decode("ramHistory", &ram)
	snap.CPUHistory = historyFrom(cpu)
	snap.RAMHistory = historyFrom(ram)

	decode("cron", &snap.Cron)
	decode("agents", &snap.Agents)
	if raw, ok := sections["sessions"]; ok && string(raw) != "null" {
		snap.Sessions = raw
	}
	return snap, nil
}

func object(raw map[string]interface{}, key string) map[string]interface{} {
	m, _ := raw[key].(map[string]interface{})
	return m
}

func number(raw map[string]interface{}, key string) float64 {
	v, _ := firstNumber(raw, key)
	return v
}

func count(raw map[string]interface{}, key string) int {
	return int(math.Round(number(raw, key)))
}

func systemFrom(raw map[string]interface{}) SnapshotSystem {
	var sys SnapshotSystem
	sys.CPU.UsagePercent = number(object(raw, "cpu"), "usage_percent")
	sys.RAM.UsagePercent = number(object(raw, "ram"), "usage_percent")
	sys.Disk.UsagePercent = number(object(raw, "disk"), "usage_percent")
	sys.Uptime.Text = firstString(object(raw, "uptime"), "text")
	sys.OpenClaw.Status = firstString(object(raw, "openclaw"), "status")
	sys.Tailscale.Status = firstString(object(raw, "tailscale"), "status")
	return sys
}

func metricsFrom(raw map[string]interface{}) SnapshotMetrics {
	return SnapshotMetrics{
		MessagesToday:      count(raw, "messages_today"),
		Errors24h:          count(raw, "errors_24h"),
		Timeouts24h:        count(raw, "timeouts_24h"),
		Restarts24h:        count(raw, "restarts_24h"),
		LogLines24h:        count(raw, "log_lines_24h"),
		ConversationsToday: count(raw, "total_conversations_today"),
	}
}

func counterFrom(raw map[string]interface{}) SnapshotCounter {
	v, ok := firstNumber(raw, "count")
	if !ok {
		return SnapshotCounter{}
	}
	n := int(math.Round(v))
	return SnapshotCounter{Count: &n}
}

// historyFrom keeps nil for an absent series and skips points that are not
// objects.
func historyFrom(raw []interface{}) []HistoryPoint {
	if raw == nil {
		return nil
	}
	points := make([]HistoryPoint, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		points = append(points, HistoryPoint{Timestamp: m["timestamp"], Value: number(m, "value")})
	}
	return points
}

// SnapshotSource serves sessions recorded in the snapshot, from either a
// top-level "sessions" array or map, or agents.recent_sessions.
type SnapshotSource struct {
	File       *SnapshotFile
	Normalizer Normalizer
}

func (s *SnapshotSource) Sessions(ctx context.Context) ([]models.SessionRecord, error) {
	snap, err := s.File.Load()
	if err != nil {
		return nil, err
	}
	records := []models.SessionRecord{}

	if len(snap.Sessions) > 0 {
		var list []map[string]interface{}
		if err := json.Unmarshal(snap.Sessions, &list); err == nil {
			for _, raw := range list {
				records = append(records, s.Normalizer.NormalizeSession(raw, "", ""))
			}
			return records, nil
		}
		var keyed map[string]map[string]interface{}
		if err := json.Unmarshal(snap.Sessions, &keyed); err == nil {
			for key, raw := range keyed {
				records = append(records, s.Normalizer.NormalizeSession(raw, key, ""))
			}
			return records, nil
		}
		log.Printf("[snapshot] sessions section has an unexpected shape")
	}

	for _, raw := range snap.Agents.RecentSessions {
		records = append(records, s.Normalizer.NormalizeSession(raw, "", ""))
	}
	return records, nil
}

// CronJobs converts the snapshot's cron section. Missing fields get
// defaults and jobs are enabled unless explicitly disabled. NextRun is
// computed from the schedule when it parses as a cron expression.
func (snap *Snapshot) CronJobs(now time.Time) []models.CronJob {
	jobs := make([]models.CronJob, 0, len(snap.Cron.Jobs))
	for _, raw := range snap.Cron.Jobs {
		job := models.CronJob{
			Name:       firstString(raw, "name"),
			Schedule:   firstString(raw, "schedule"),
			Status:     firstString(raw, "status"),
			LastStatus: firstString(raw, "last_status", "lastStatus"),
			LastRun:    firstString(raw, "last_run", "lastRun"),
			Enabled:    true,
		}
		if v, ok := raw["enabled"].(bool); ok {
			job.Enabled = v
		}
		if job.Schedule == "" {
			job.Schedule = "N/A"
		} else {
			job.NextRun = NextRun(job.Schedule, now)
		}
		if job.Status == "" {
			job.Status = "unknown"
		}
		if job.LastRun == "" {
			job.LastRun = "N/A"
		}
		jobs = append(jobs, job)
	}
	return jobs
}

var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NextRun returns the next activation of a five-field cron expression or
// descriptor (@daily, @every 30m), or nil when it does not parse.
func NextRun(schedule string, now time.Time) *time.Time {
	sched, err := scheduleParser.Parse(strings.TrimSpace(schedule))
	if err != nil {
		return nil
	}
	next := sched.Next(now).UTC()
	if next.IsZero() {
		return nil
	}
	return &next
}

// IsHeartbeat reports whether a job is one of the agent heartbeats.
func IsHeartbeat(job models.CronJob) bool {
	return strings.Contains(strings.ToLower(job.Name), "heartbeat")
}
