package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alghanim/clawboard/openclaw"
	"github.com/alghanim/clawboard/sysinfo"
)

const snapshotJSON = `{
  "system": {
    "cpu": {"usage_percent": 12.5},
    "ram": {"usage_percent": 40},
    "disk": {"usage_percent": 71.2},
    "uptime": {"text": "up 3 days, 2 hours"},
    "openclaw": {"status": "online"}
  },
  "metrics": {
    "messages_today": 42,
    "errors_24h": 9,
    "timeouts_24h": 4,
    "restarts_24h": 1,
    "log_lines_24h": 1200,
    "total_conversations_today": 7,
    "error_details": [{"msg": "boom"}]
  },
  "errors": {"count": 3},
  "cpuHistory": [{"timestamp": 1773140400000, "value": 10}, {"timestamp": 1773144000000, "value": 20}],
  "cron": {"jobs": [
    {"name": "Nightly backup", "schedule": "0 3 * * *", "status": "ok", "last_run": "2026-03-10T03:00:00Z"},
    {"name": "main heartbeat", "schedule": "*/30 * * * *"},
    {"name": "Coder Heartbeat", "enabled": false}
  ]}
}`

func snapshotIn(t *testing.T, content string) *openclaw.SnapshotFile {
	t.Helper()
	return &openclaw.SnapshotFile{Path: writeFile(t, t.TempDir(), "dashboard-data.json", content)}
}

func TestGetSystem(t *testing.T) {
	h := &SystemHandler{Snapshot: snapshotIn(t, snapshotJSON)}
	rec := httptest.NewRecorder()
	h.GetSystem(rec, httptest.NewRequest(http.MethodGet, "/api/system", nil))

	var body SystemResponse
	decodeBody(t, rec, &body)
	if body.CPU != 12.5 || body.RAM != 40 || body.Disk != 71.2 || body.Uptime != "up 3 days, 2 hours" {
		t.Errorf("system = %+v", body)
	}
	if body.OpenClawStatus != "online" || body.TailscaleStatus != "unknown" {
		t.Errorf("statuses = %q %q", body.OpenClawStatus, body.TailscaleStatus)
	}
}

func TestGetSystem_MissingSnapshot(t *testing.T) {
	h := &SystemHandler{Snapshot: &openclaw.SnapshotFile{Path: filepath.Join(t.TempDir(), "none.json")}}
	rec := httptest.NewRecorder()
	h.GetSystem(rec, httptest.NewRequest(http.MethodGet, "/api/system", nil))

	var body SystemResponse
	decodeBody(t, rec, &body)
	if rec.Code != http.StatusOK || body.CPU != 0 || body.Uptime != "--" || body.OpenClawStatus != "unknown" {
		t.Errorf("missing snapshot = %d %+v", rec.Code, body)
	}
}

func TestBuildLive_ProbesFailIndependently(t *testing.T) {
	h := &SystemHandler{
		Snapshot: snapshotIn(t, snapshotJSON),
		Prober:   &sysinfo.Prober{Root: t.TempDir(), DiskPath: t.TempDir()},
	}
	resp := h.buildLive(context.Background())
	if resp.CPU != 0 || resp.RAM != 0 {
		t.Errorf("cpu/ram = %v/%v, want 0 without /proc", resp.CPU, resp.RAM)
	}
	if resp.Uptime != "up 3 days, 2 hours" {
		t.Errorf("uptime = %q, want the snapshot's text", resp.Uptime)
	}
	if resp.OpenClawStatus != "unknown" || resp.TailscaleStatus != "unknown" {
		t.Errorf("statuses = %q %q", resp.OpenClawStatus, resp.TailscaleStatus)
	}
}

func TestGetHistory(t *testing.T) {
	h := &SystemHandler{Snapshot: snapshotIn(t, snapshotJSON)}
	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	var body HistoryResponse
	decodeBody(t, rec, &body)
	if len(body.CPUHistory) != 2 || body.CPUHistory[1].Value != 20 {
		t.Errorf("cpuHistory = %+v", body.CPUHistory)
	}
	if body.RAMHistory == nil || len(body.RAMHistory) != 0 {
		t.Errorf("ramHistory = %+v, want empty list", body.RAMHistory)
	}
}

func TestGetMetrics_CountsOverride(t *testing.T) {
	h := &MetricsHandler{Snapshot: snapshotIn(t, snapshotJSON)}
	rec := httptest.NewRecorder()
	h.GetMetrics(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	var body MetricsResponse
	decodeBody(t, rec, &body)
	if body.Errors24h != 3 {
		t.Errorf("errors_24h = %d, want errors.count 3", body.Errors24h)
	}
	if body.Timeouts24h != 4 {
		t.Errorf("timeouts_24h = %d, want metrics value 4", body.Timeouts24h)
	}
	if body.MessagesToday != 42 || body.TotalConversations != 7 || body.LogLines24h != 1200 {
		t.Errorf("metrics = %+v", body)
	}
	if len(body.ErrorDetails) != 1 || body.TimeoutDetails == nil {
		t.Errorf("details = %v / %v", body.ErrorDetails, body.TimeoutDetails)
	}
}

func TestGetCronAndHeartbeats(t *testing.T) {
	h := &CronHandler{Snapshot: snapshotIn(t, snapshotJSON), Now: clock}

	rec := httptest.NewRecorder()
	h.GetCron(rec, httptest.NewRequest(http.MethodGet, "/api/cron", nil))
	var cron JobsResponse
	decodeBody(t, rec, &cron)
	if cron.Total != 3 || cron.Active != 2 {
		t.Errorf("cron total/active = %d/%d", cron.Total, cron.Active)
	}
	backup := cron.Jobs[0]
	if backup.NextRun == nil || backup.NextRun.Format("2006-01-02T15:04") != "2026-03-11T03:00" {
		t.Errorf("backup next_run = %v", backup.NextRun)
	}

	rec = httptest.NewRecorder()
	h.GetHeartbeats(rec, httptest.NewRequest(http.MethodGet, "/api/heartbeats", nil))
	var hb JobsResponse
	decodeBody(t, rec, &hb)
	if hb.Total != 2 || hb.Active != 1 {
		t.Fatalf("heartbeats total/active = %d/%d", hb.Total, hb.Active)
	}
	coder := hb.Jobs[1]
	if coder.Schedule != "N/A" || coder.Status != "unknown" || coder.LastRun != "N/A" || coder.NextRun != nil || coder.Enabled {
		t.Errorf("defaults = %+v", coder)
	}
}
