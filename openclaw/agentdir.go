package openclaw

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alghanim/clawboard/models"
)

const agentScanConcurrency = 8

// AgentDirSource reads <agents>/<id>/sessions/sessions.json for every agent
// directory. Agents are scanned concurrently; the merged order is not
// defined, so callers sort.
type AgentDirSource struct {
	Dir        string
	Normalizer Normalizer
}

// Transcript is one session together with its parsed transcript.
type Transcript struct {
	Session models.SessionRecord
	Entries []models.MessageEntry
}

// Sessions returns every indexed session. Token and message totals are
// recounted from the transcript when one exists.
func (s *AgentDirSource) Sessions(ctx context.Context) ([]models.SessionRecord, error) {
	ts, err := s.scan(ctx, time.Time{}, false)
	if err != nil {
		return nil, err
	}
	out := make([]models.SessionRecord, len(ts))
	for i, t := range ts {
		out[i] = t.Session
	}
	return out, nil
}

// Transcripts returns sessions updated at or after since, with their
// transcripts loaded. Sessions with no update time are kept.
func (s *AgentDirSource) Transcripts(ctx context.Context, since time.Time) ([]Transcript, error) {
	return s.scan(ctx, since, true)
}

func (s *AgentDirSource) scan(ctx context.Context, since time.Time, keepEntries bool) ([]Transcript, error) {
	dirs, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("[sessions] agents directory %s not found", s.Dir)
			return []Transcript{}, nil
		}
		return nil, &SourceError{Source: "files", Op: "list agents", Err: err}
	}

	var agents []string
	for _, d := range dirs {
		if d.IsDir() {
			agents = append(agents, d.Name())
		}
	}

	perAgent := make([][]Transcript, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(agentScanConcurrency)
	for i, agent := range agents {
		i, agent := i, agent
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perAgent[i] = s.scanAgent(agent, since, keepEntries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &SourceError{Source: "files", Op: "scan agents", Err: err}
	}

	var out []Transcript
	for _, ts := range perAgent {
		out = append(out, ts...)
	}
	if out == nil {
		out = []Transcript{}
	}
	return out, nil
}

func (s *AgentDirSource) scanAgent(agent string, since time.Time, keepEntries bool) []Transcript {
	sessionsDir := filepath.Join(s.Dir, agent, "sessions")
	indexPath := filepath.Join(sessionsDir, "sessions.json")

	data, err := os.ReadFile(indexPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[sessions] reading %s: %v", indexPath, err)
		}
		return nil
	}
	var index map[string]map[string]interface{}
	if err := json.Unmarshal(data, &index); err != nil {
		log.Printf("[sessions] skipping malformed %s: %v", indexPath, err)
		return nil
	}

	var out []Transcript
	for key, raw := range index {
		rec := s.Normalizer.NormalizeSession(raw, key, agent)
		if !since.IsZero() && rec.UpdatedAt != nil && rec.UpdatedAt.Before(since) {
			continue
		}

		path := transcriptPath(sessionsDir, rec)
		var entries []models.MessageEntry
		if path != "" {
			entries, err = ReadTranscript(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Printf("[sessions] %v", err)
			}
			if len(entries) > 0 {
				rec.SessionFile = path
				applyTranscriptTotals(&rec, entries)
			}
		}
		t := Transcript{Session: rec}
		if keepEntries {
			t.Entries = entries
		}
		out = append(out, t)
	}
	return out
}

// transcriptPath resolves the session file named in the index, falling back
// to <sessions>/<id>.jsonl.
func transcriptPath(sessionsDir string, rec models.SessionRecord) string {
	if p := rec.SessionFile; p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(sessionsDir, p)
		}
		return p
	}
	if rec.ID == "" {
		return ""
	}
	return filepath.Join(sessionsDir, filepath.Base(rec.ID)+".jsonl")
}

// applyTranscriptTotals replaces index totals with counts from messages that
// carry token usage.
func applyTranscriptTotals(rec *models.SessionRecord, entries []models.MessageEntry) {
	var in, out, total int64
	var messages int
	for _, e := range entries {
		if !e.IsMessage() || e.Usage == nil {
			continue
		}
		tokens := e.Usage.Total()
		if tokens <= 0 {
			continue
		}
		in += e.Usage.Input
		out += e.Usage.Output
		total += tokens
		messages++
	}
	if messages == 0 {
		return
	}
	rec.InputTokens = in
	rec.OutputTokens = out
	rec.TotalTokens = total
	rec.MessageCount = messages
}
