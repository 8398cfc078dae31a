// Package openclaw reads OpenClaw session data from the places the platform
// leaves it: the dashboard-data snapshot, the openclaw CLI, and the per-agent
// session directories with their JSONL transcripts.
package openclaw

import (
	"context"
	"fmt"
	"sort"

	"github.com/alghanim/clawboard/config"
	"github.com/alghanim/clawboard/models"
)

// SessionSource produces normalized session records.
type SessionSource interface {
	Sessions(ctx context.Context) ([]models.SessionRecord, error)
}

// SourceError reports a failed read from one of the session sources.
type SourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSessionSource returns the source selected by SESSIONS_SOURCE.
func NewSessionSource(s *config.Settings, runner CommandRunner, snap *SnapshotFile, norm Normalizer) SessionSource {
	switch s.SessionsSource {
	case config.SourceCLI:
		return &CLISource{Runner: runner, Bin: s.OpenClawBin, Normalizer: norm}
	case config.SourceSnapshot:
		return &SnapshotSource{File: snap, Normalizer: norm}
	default:
		return &AgentDirSource{Dir: s.AgentsDir(), Normalizer: norm}
	}
}

// SortByUpdated orders sessions most recently updated first. Sessions with
// no update time sort last.
func SortByUpdated(sessions []models.SessionRecord) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i].UpdatedAt, sessions[j].UpdatedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}
