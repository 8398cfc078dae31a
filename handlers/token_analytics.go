package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/alghanim/clawboard/config"
	"github.com/alghanim/clawboard/models"
	"github.com/alghanim/clawboard/openclaw"
	"github.com/alghanim/clawboard/usage"
)

// UsageHandler serves token, model, quota and skill analytics. CLI is the
// `openclaw sessions list` source; Transcripts reads the agent directories.
type UsageHandler struct {
	CLI         openclaw.SessionSource
	Transcripts TranscriptSource
	Now         func() time.Time
}

// ─── GET /api/tokens ────────────────────────────────────────────────────────

type TokensResponse struct {
	Tokens7d        int64                `json:"tokens_7d"`
	TokensInput     int64                `json:"tokens_input"`
	TokensOutput    int64                `json:"tokens_output"`
	Cost7d          float64              `json:"cost_7d"`
	Sessions7d      int                  `json:"sessions_7d"`
	AvgResponseTime float64              `json:"avg_response_time"`
	Period          string               `json:"period"`
	Daily           []models.DailyBucket `json:"daily"`
	errorField
}

func zeroTokens(now time.Time) *TokensResponse {
	return &TokensResponse{Period: period7d, Daily: usage.DailyBuckets(nil, window7d, now)}
}

// GetTokens handles GET /api/tokens
func (h *UsageHandler) GetTokens(w http.ResponseWriter, r *http.Request) {
	now := nowFunc(h.Now)
	resp, err := h.buildTokens(r.Context(), now)
	if err != nil {
		respondFailure(w, "tokens", zeroTokens(now), err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// buildTokens sums message usage over the 7 calendar days (UTC) shown in
// daily, so the daily tokens add up to tokens_7d. Messages without a
// timestamp count toward the totals of their (in-window) session but not
// toward any day.
func (h *UsageHandler) buildTokens(ctx context.Context, now time.Time) (*TokensResponse, error) {
	cutoff := usage.WindowStart(window7d, now)
	ts, err := h.Transcripts.Transcripts(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	pricing := usage.CurrentPricing()

	resp := zeroTokens(now)
	var points []usage.Point
	var cost, respSum float64
	var respPairs int
	for _, t := range ts {
		counted := false
		for _, e := range t.Entries {
			if !e.IsMessage() || e.Usage == nil {
				continue
			}
			at := e.Time()
			if !at.IsZero() && at.Before(cutoff) {
				continue
			}
			total := e.Usage.Total()
			if total <= 0 {
				continue
			}
			model := e.Model
			if model == "" {
				model = t.Session.Model
			}
			resp.Tokens7d += total
			resp.TokensInput += e.Usage.Input
			resp.TokensOutput += e.Usage.Output
			cost += pricing.Cost(model, e.Usage.Input, e.Usage.Output)
			points = append(points, usage.Point{At: at, Tokens: total, Session: t.Session.ID})
			counted = true
		}
		if counted {
			resp.Sessions7d++
		}
		s, n := usage.AvgResponseSeconds(t.Entries)
		respSum += s
		respPairs += n
	}
	resp.Cost7d = usage.Round2(cost)
	if respPairs > 0 {
		resp.AvgResponseTime = usage.Round1(respSum / float64(respPairs))
	}
	resp.Daily = usage.DailyBuckets(points, window7d, now)
	return resp, nil
}

// ─── GET /api/models-usage ──────────────────────────────────────────────────

type ModelUsage struct {
	Model        string `json:"model"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	TotalTokens  int64  `json:"total_tokens"`
	Count        int    `json:"count"`
}

type ModelsUsageResponse struct {
	Models        []ModelUsage `json:"models"`
	TotalTokens   int64        `json:"total_tokens"`
	TotalSessions int          `json:"total_sessions"`
	errorField
}

func zeroModelsUsage() *ModelsUsageResponse {
	return &ModelsUsageResponse{Models: []ModelUsage{}}
}

// GetModelsUsage handles GET /api/models-usage
func (h *UsageHandler) GetModelsUsage(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.CLI.Sessions(r.Context())
	if err != nil {
		respondFailure(w, "models-usage", zeroModelsUsage(), err)
		return
	}
	respondJSON(w, http.StatusOK, buildModelsUsage(sessions))
}

// buildModelsUsage ranks models by input+output tokens; totals cover every
// model, not just the top 10.
func buildModelsUsage(sessions []models.SessionRecord) *ModelsUsageResponse {
	buckets := usage.Aggregate(sessions,
		func(s models.SessionRecord) string { return s.Model },
		usage.SessionSample, 0)
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].TokensIn+buckets[i].TokensOut > buckets[j].TokensIn+buckets[j].TokensOut
	})

	resp := zeroModelsUsage()
	for i, b := range buckets {
		total := b.TokensIn + b.TokensOut
		resp.TotalTokens += total
		resp.TotalSessions += b.Count
		if i < usage.TopN {
			resp.Models = append(resp.Models, ModelUsage{
				Model:        b.Key,
				InputTokens:  b.TokensIn,
				OutputTokens: b.TokensOut,
				TotalTokens:  total,
				Count:        b.Count,
			})
		}
	}
	return resp
}

// ─── GET /api/skills ────────────────────────────────────────────────────────

type SkillStats struct {
	Total       int     `json:"total"`
	TotalUsages int     `json:"totalUsages"`
	TotalTokens int64   `json:"totalTokens"`
	TopSkill    *string `json:"topSkill"`
}

type SkillsResponse struct {
	Skills []usage.SkillUsage `json:"skills"`
	Stats  SkillStats         `json:"stats"`
	Period string             `json:"period"`
	errorField
}

func zeroSkills() *SkillsResponse {
	return &SkillsResponse{Skills: []usage.SkillUsage{}, Period: period7d}
}

// GetSkills handles GET /api/skills
func (h *UsageHandler) GetSkills(w http.ResponseWriter, r *http.Request) {
	resp, err := h.buildSkills(r.Context())
	if err != nil {
		respondFailure(w, "skills", zeroSkills(), err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// buildSkills counts one use per message that mentions a skill. Tokens are
// estimated from assistant text only.
func (h *UsageHandler) buildSkills(ctx context.Context) (*SkillsResponse, error) {
	ts, err := h.Transcripts.Transcripts(ctx, since7d(nowFunc(h.Now)))
	if err != nil {
		return nil, err
	}
	matcher := usage.NewSkillMatcher(config.GetKnownSkills())
	tally := usage.NewSkillTally()

	for _, t := range ts {
		for _, e := range t.Entries {
			if !e.IsMessage() {
				continue
			}
			hits := matcher.Match(e.TextContent)
			if len(hits) == 0 {
				continue
			}
			var tokens int64
			if e.Role == "assistant" {
				tokens = usage.EstimateTokens(e.TextContent)
			}
			at := e.Time()
			if at.IsZero() && t.Session.UpdatedAt != nil {
				at = *t.Session.UpdatedAt
			}
			for _, skill := range hits {
				tally.Add(skill, tokens, at)
			}
		}
	}

	resp := zeroSkills()
	resp.Skills = tally.Sorted()
	resp.Stats.Total = len(resp.Skills)
	for _, s := range resp.Skills {
		resp.Stats.TotalUsages += s.Count
		resp.Stats.TotalTokens += s.Tokens
	}
	if len(resp.Skills) > 0 {
		top := resp.Skills[0].Skill
		resp.Stats.TopSkill = &top
	}
	return resp, nil
}
