package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubRunner struct {
	out string
	err error
}

func (r stubRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return []byte(r.out), r.err
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGatewayStatus(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if got := (&HealthHandler{GatewayURL: up.URL}).GatewayStatus(context.Background()); got != "online" {
		t.Errorf("answering gateway = %q, want online", got)
	}
	up.Close()
	if got := (&HealthHandler{GatewayURL: up.URL}).GatewayStatus(context.Background()); got != "offline" {
		t.Errorf("closed gateway = %q, want offline", got)
	}
	if got := (&HealthHandler{}).GatewayStatus(context.Background()); got != "unknown" {
		t.Errorf("unconfigured gateway = %q, want unknown", got)
	}
}

func TestTailscaleStatus(t *testing.T) {
	tests := []struct {
		runner stubRunner
		want   string
	}{
		{stubRunner{out: `{"BackendState":"Running"}`}, "online"},
		{stubRunner{out: `{"BackendState":"Stopped"}`}, "offline"},
		{stubRunner{err: errors.New("exec: \"tailscale\": executable file not found")}, "unknown"},
	}
	for _, tt := range tests {
		h := &HealthHandler{Runner: tt.runner, TailscaleBin: "tailscale"}
		if got := h.TailscaleStatus(context.Background()); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.runner, got, tt.want)
		}
	}
}

func TestGetChannels(t *testing.T) {
	rec := httptest.NewRecorder()
	GetChannels(rec, httptest.NewRequest(http.MethodGet, "/api/channels", nil))
	var body ChannelsResponse
	decodeBody(t, rec, &body)
	if body.Total != len(body.Channels) || body.Total == 0 {
		t.Errorf("channels = %+v", body)
	}
}
