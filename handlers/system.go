package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alghanim/clawboard/openclaw"
	"github.com/alghanim/clawboard/sysinfo"
)

// SystemResponse is the host status card.
type SystemResponse struct {
	CPU             float64 `json:"cpu"`
	RAM             float64 `json:"ram"`
	Disk            float64 `json:"disk"`
	Uptime          string  `json:"uptime"`
	OpenClawStatus  string  `json:"openclaw_status"`
	TailscaleStatus string  `json:"tailscale_status"`
	errorField
}

func zeroSystem() *SystemResponse {
	return &SystemResponse{Uptime: "--", OpenClawStatus: "unknown", TailscaleStatus: "unknown"}
}

// HistoryResponse carries the CPU and RAM series recorded in the snapshot.
type HistoryResponse struct {
	CPUHistory []openclaw.HistoryPoint `json:"cpuHistory"`
	RAMHistory []openclaw.HistoryPoint `json:"ramHistory"`
	errorField
}

func zeroHistory() *HistoryResponse {
	return &HistoryResponse{CPUHistory: []openclaw.HistoryPoint{}, RAMHistory: []openclaw.HistoryPoint{}}
}

// SystemHandler serves /api/system, /api/system-metrics and /api/history.
type SystemHandler struct {
	Snapshot *openclaw.SnapshotFile
	Prober   *sysinfo.Prober
	Health   *HealthHandler
}

// GetSystem handles GET /api/system
func (h *SystemHandler) GetSystem(w http.ResponseWriter, r *http.Request) {
	resp, err := h.buildSystem()
	if err != nil {
		respondFailure(w, "system", zeroSystem(), err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *SystemHandler) buildSystem() (*SystemResponse, error) {
	snap, err := h.Snapshot.Load()
	if err != nil {
		return nil, err
	}
	resp := zeroSystem()
	sys := snap.System
	resp.CPU = sys.CPU.UsagePercent
	resp.RAM = sys.RAM.UsagePercent
	resp.Disk = sys.Disk.UsagePercent
	if sys.Uptime.Text != "" {
		resp.Uptime = sys.Uptime.Text
	}
	if sys.OpenClaw.Status != "" {
		resp.OpenClawStatus = sys.OpenClaw.Status
	}
	if sys.Tailscale.Status != "" {
		resp.TailscaleStatus = sys.Tailscale.Status
	}
	return resp, nil
}

// GetSystemMetrics handles GET /api/system-metrics
func (h *SystemHandler) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.buildLive(r.Context()))
}

// buildLive samples the host directly. Each probe degrades on its own, so
// this never fails as a whole.
func (h *SystemHandler) buildLive(ctx context.Context) *SystemResponse {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	m := h.Prober.Sample(ctx)
	resp := &SystemResponse{
		CPU:             m.CPU,
		RAM:             m.RAM,
		Disk:            m.Disk,
		Uptime:          m.Uptime,
		OpenClawStatus:  "unknown",
		TailscaleStatus: "unknown",
	}
	if snap, err := h.Snapshot.Load(); err == nil && snap.System.Uptime.Text != "" {
		resp.Uptime = snap.System.Uptime.Text
	}
	if h.Health != nil {
		resp.OpenClawStatus = h.Health.GatewayStatus(ctx)
		resp.TailscaleStatus = h.Health.TailscaleStatus(ctx)
	}
	return resp
}

// GetHistory handles GET /api/history
func (h *SystemHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Snapshot.Load()
	if err != nil {
		respondFailure(w, "history", zeroHistory(), err)
		return
	}
	resp := zeroHistory()
	if snap.CPUHistory != nil {
		resp.CPUHistory = snap.CPUHistory
	}
	if snap.RAMHistory != nil {
		resp.RAMHistory = snap.RAMHistory
	}
	respondJSON(w, http.StatusOK, resp)
}

func normalizeTailscale(state string) string {
	switch strings.ToLower(state) {
	case "running":
		return "online"
	case "":
		return "unknown"
	default:
		return "offline"
	}
}
