package openclaw

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alghanim/clawboard/models"
)

const maxTranscriptLine = 4 * 1024 * 1024

type rawTranscriptLine struct {
	Type      string      `json:"type"`
	Timestamp interface{} `json:"timestamp"`
	Message   *struct {
		Role      string          `json:"role"`
		Model     string          `json:"model"`
		Content   json.RawMessage `json:"content"`
		Usage     *rawUsage       `json:"usage"`
		Timestamp interface{}     `json:"timestamp"`
		ToolName  string          `json:"toolName"`
		IsError   bool            `json:"isError"`
	} `json:"message"`
}

type rawUsage struct {
	Input        int64 `json:"input"`
	Output       int64 `json:"output"`
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

type rawBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Name string `json:"name"`
}

// ReadTranscript parses a session JSONL transcript. Lines that are not valid
// JSON or longer than 4 MiB are skipped; the remaining lines are still
// returned.
func ReadTranscript(path string) ([]models.MessageEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []models.MessageEntry
	skipped, err := eachLine(f, maxTranscriptLine, func(line []byte) {
		if entry, ok := ParseTranscriptLine(line); ok {
			entries = append(entries, entry)
		}
	})
	if skipped > 0 {
		log.Printf("[sessions] %s: skipped %d oversize line(s)", path, skipped)
	}
	if err != nil {
		return entries, fmt.Errorf("reading transcript %s: %w", path, err)
	}
	return entries, nil
}

// ParseTranscriptLine decodes one transcript line.
func ParseTranscriptLine(line []byte) (models.MessageEntry, bool) {
	var raw rawTranscriptLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return models.MessageEntry{}, false
	}

	entry := models.MessageEntry{Type: raw.Type}
	if t, ok := ParseTimestamp(raw.Timestamp); ok {
		entry.TimestampMs = t.UnixMilli()
	}
	msg := raw.Message
	if msg == nil {
		return entry, true
	}
	if t, ok := ParseTimestamp(msg.Timestamp); ok {
		entry.TimestampMs = t.UnixMilli()
	}
	entry.Role = msg.Role
	entry.Model = msg.Model

	if u := msg.Usage; u != nil {
		in, out := u.Input, u.Output
		if in == 0 {
			in = u.InputTokens
		}
		if out == 0 {
			out = u.OutputTokens
		}
		entry.Usage = &models.Usage{Input: in, Output: out, TotalTokens: u.TotalTokens}
	}

	text, tools := decodeContent(msg.Content)
	entry.TextContent = text
	entry.ToolCalls = tools

	if msg.Role == "toolResult" || msg.Role == "tool" {
		entry.ToolResult = &models.ToolResult{ToolName: msg.ToolName, IsError: msg.IsError}
	}
	return entry, true
}

// decodeContent accepts either a plain string or an array of content blocks.
func decodeContent(raw json.RawMessage) (string, []string) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var blocks []rawBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", nil
	}
	var texts, tools []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				texts = append(texts, b.Text)
			}
		case "toolCall", "tool_use":
			if b.Name != "" {
				tools = append(tools, b.Name)
			}
		}
	}
	return strings.Join(texts, " "), tools
}
