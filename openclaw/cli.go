package openclaw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alghanim/clawboard/models"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host with a per-call timeout.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

// CLISource reads sessions from `openclaw sessions list --json`.
type CLISource struct {
	Runner     CommandRunner
	Bin        string
	Normalizer Normalizer
}

type cliSessions struct {
	Sessions []map[string]interface{} `json:"sessions"`
}

// Sessions invokes the CLI once. Any failure is returned as a *SourceError;
// there is no retry.
func (c *CLISource) Sessions(ctx context.Context) ([]models.SessionRecord, error) {
	bin := c.Bin
	if bin == "" {
		bin = "openclaw"
	}
	out, err := c.Runner.Run(ctx, bin, "sessions", "list", "--json")
	if err != nil {
		return nil, &SourceError{Source: "cli", Op: "sessions list", Err: err}
	}

	var parsed cliSessions
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, &SourceError{Source: "cli", Op: "parse sessions list", Err: err}
	}

	records := make([]models.SessionRecord, 0, len(parsed.Sessions))
	for _, raw := range parsed.Sessions {
		records = append(records, c.Normalizer.NormalizeSession(raw, "", ""))
	}
	return records, nil
}

// TailscaleState returns the BackendState reported by `tailscale status --json`.
func TailscaleState(ctx context.Context, r CommandRunner, bin string) (string, error) {
	out, err := r.Run(ctx, bin, "status", "--json")
	if err != nil {
		return "", &SourceError{Source: "tailscale", Op: "status", Err: err}
	}
	var st struct {
		BackendState string `json:"BackendState"`
	}
	if err := json.Unmarshal(out, &st); err != nil {
		return "", &SourceError{Source: "tailscale", Op: "parse status", Err: err}
	}
	return st.BackendState, nil
}
