package config

// Per-1M-token prices used when dashboard.yaml has no pricing section.
func defaultPricing() map[string]ModelPrice {
	return map[string]ModelPrice{
		"anthropic/claude-sonnet-4-6": {Input: 3.0, Output: 15.0},
		"anthropic/claude-opus-4-6":   {Input: 15.0, Output: 75.0},
		"anthropic/claude-haiku-3.5":  {Input: 0.80, Output: 4.0},
		"anthropic/claude-sonnet-3.5": {Input: 3.0, Output: 15.0},
		"google/gemini-2.5-pro":       {Input: 1.25, Output: 10.0},
		"google/gemini-2.5-flash":     {Input: 0.075, Output: 0.30},
		"google/gemini-2.0-flash":     {Input: 0.075, Output: 0.30},
		"openai/gpt-4o":               {Input: 2.50, Output: 10.0},
		"openai/gpt-4o-mini":          {Input: 0.15, Output: 0.60},
		"openai/o3-mini":              {Input: 1.10, Output: 4.40},
		"deepseek/deepseek-chat":      {Input: 0.14, Output: 0.28},
		"deepseek/deepseek-reasoner":  {Input: 0.55, Output: 2.19},
		"zai/glm-4.6":                 {Input: 0.60, Output: 2.20},
		"minimax/minimax-m2":          {Input: 0.30, Output: 1.20},
	}
}

// Sonnet pricing.
var defaultModelPrice = ModelPrice{Input: 3.0, Output: 15.0}

func defaultBudgets() map[string]float64 {
	return map[string]float64{
		"anthropic":  100,
		"openai":     50,
		"google":     50,
		"zai":        30,
		"minimax":    20,
		"openrouter": 30,
	}
}

var defaultKnownSkills = []string{
	"plan-mode", "brainstorm", "community-manager", "notion",
	"github", "coding-agent", "summarize", "pdf", "excel",
	"weather", "tmux", "system-audit", "self-diagnostic",
	"frontend-design", "agent-builder", "agent-observability-dashboard",
	"gemini-image-gen", "canvas", "planning",
	"x-grok", "xai-grok-search", "polymarket", "himalaya",
	"skill-creator", "visual-qa", "council", "nightly-improvement",
}

var defaultChannels = []Channel{
	{ID: "1473390857167044911", Name: "#notifs", Type: "text", Status: "connected"},
	{ID: "1468974762100396128", Name: "#general", Type: "text", Status: "connected"},
	{ID: "1473837398134624266", Name: "#projects", Type: "text", Status: "connected"},
	{ID: "1473837440228917399", Name: "#dev", Type: "text", Status: "connected"},
}
