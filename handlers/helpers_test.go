package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alghanim/clawboard/models"
	"github.com/alghanim/clawboard/openclaw"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeSource struct {
	records []models.SessionRecord
	err     error
}

func (f *fakeSource) Sessions(context.Context) ([]models.SessionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.SessionRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type fakeTranscripts struct {
	ts  []openclaw.Transcript
	err error
}

func (f *fakeTranscripts) Transcripts(context.Context, time.Time) ([]openclaw.Transcript, error) {
	return f.ts, f.err
}

func ptr(t time.Time) *time.Time { return &t }

func ms(t time.Time) int64 { return t.UnixMilli() }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
