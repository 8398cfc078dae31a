package openclaw

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"os"
	"time"
)

const maxCommandsLine = 1024 * 1024

// CommandEvent is one inbound-message line of commands.log.
type CommandEvent struct {
	Time   time.Time
	Action string
	Source string
}

// ReadCommandsLog returns the "new" and "message" events of commands.log.
// A missing log is empty; unparsable lines and lines over 1 MiB are skipped.
func ReadCommandsLog(path string) ([]CommandEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []CommandEvent{}, nil
		}
		return nil, &SourceError{Source: "commands.log", Op: "open", Err: err}
	}
	defer f.Close()

	events := []CommandEvent{}
	skipped, err := eachLine(f, maxCommandsLine, func(raw []byte) {
		var line struct {
			Timestamp interface{} `json:"timestamp"`
			Action    string      `json:"action"`
			Source    string      `json:"source"`
		}
		if err := json.Unmarshal(raw, &line); err != nil {
			return
		}
		if line.Action != "new" && line.Action != "message" {
			return
		}
		ts, ok := ParseTimestamp(line.Timestamp)
		if !ok {
			return
		}
		src := line.Source
		if src == "" {
			src = "unknown"
		}
		events = append(events, CommandEvent{Time: ts, Action: line.Action, Source: src})
	})
	if skipped > 0 {
		log.Printf("[messages] %s: skipped %d oversize line(s)", path, skipped)
	}
	if err != nil {
		return events, &SourceError{Source: "commands.log", Op: "read", Err: err}
	}
	return events, nil
}
