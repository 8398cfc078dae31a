package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/alghanim/clawboard/openclaw"
)

// HealthHandler serves /health and probes the services the dashboard
// reports on.
type HealthHandler struct {
	GatewayURL   string
	Client       *http.Client
	Runner       openclaw.CommandRunner
	TailscaleBin string
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GatewayStatus is "online" when the gateway answers HTTP at all.
func (h *HealthHandler) GatewayStatus(ctx context.Context) string {
	if h.GatewayURL == "" {
		return "unknown"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.GatewayURL, nil)
	if err != nil {
		return "unknown"
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "offline"
	}
	resp.Body.Close()
	return "online"
}

// TailscaleStatus maps `tailscale status --json` onto online/offline.
// A missing or failing binary is "unknown".
func (h *HealthHandler) TailscaleStatus(ctx context.Context) string {
	if h.Runner == nil || h.TailscaleBin == "" {
		return "unknown"
	}
	state, err := openclaw.TailscaleState(ctx, h.Runner, h.TailscaleBin)
	if err != nil {
		return "unknown"
	}
	return normalizeTailscale(state)
}
