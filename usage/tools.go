package usage

import (
	"github.com/alghanim/clawboard/models"
)

// ToolInvocation is one tool call, paired with its result when the
// transcript recorded one.
type ToolInvocation struct {
	Name      string
	HasResult bool
	IsError   bool
	LatencyMs float64
}

// Sample applies the tool policy: calls with a recorded result qualify,
// results that are not errors succeed.
func (t ToolInvocation) Sample() Sample {
	return Sample{
		LatencyMs: t.LatencyMs,
		Qualifies: t.HasResult,
		Succeeded: t.HasResult && !t.IsError,
	}
}

// ToolInvocations pairs assistant tool calls with the next result for the
// same tool name, in transcript order.
func ToolInvocations(entries []models.MessageEntry) []ToolInvocation {
	type pending struct {
		index int
		at    int64
	}
	var out []ToolInvocation
	open := make(map[string][]pending)

	for _, e := range entries {
		if !e.IsMessage() {
			continue
		}
		for _, name := range e.ToolCalls {
			open[name] = append(open[name], pending{index: len(out), at: e.TimestampMs})
			out = append(out, ToolInvocation{Name: name})
		}
		if res := e.ToolResult; res != nil {
			queue := open[res.ToolName]
			if len(queue) == 0 {
				// Result without a visible call, e.g. the call fell on a
				// malformed line.
				out = append(out, ToolInvocation{Name: nameOr(res.ToolName), HasResult: true, IsError: res.IsError})
				continue
			}
			p := queue[0]
			open[res.ToolName] = queue[1:]
			inv := &out[p.index]
			inv.HasResult = true
			inv.IsError = res.IsError
			if p.at > 0 && e.TimestampMs >= p.at {
				inv.LatencyMs = float64(e.TimestampMs - p.at)
			}
		}
	}
	return out
}

func nameOr(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}

// AvgResponseSeconds is the mean delay between a user message and the next
// assistant message, over all such pairs.
func AvgResponseSeconds(entries []models.MessageEntry) (sum float64, pairs int) {
	var pendingUser int64
	for _, e := range entries {
		if !e.IsMessage() || e.TimestampMs <= 0 {
			continue
		}
		switch e.Role {
		case "user":
			if pendingUser == 0 {
				pendingUser = e.TimestampMs
			}
		case "assistant":
			if pendingUser > 0 && e.TimestampMs >= pendingUser {
				sum += float64(e.TimestampMs-pendingUser) / 1000
				pairs++
			}
			pendingUser = 0
		}
	}
	return sum, pairs
}
