package usage

import (
	"sort"
	"strings"
	"time"
)

// SkillMatcher detects mentions of known skills in message text.
type SkillMatcher struct {
	skills   []string
	patterns [][]string
}

// NewSkillMatcher precomputes the lowercase patterns for each skill.
func NewSkillMatcher(skills []string) *SkillMatcher {
	m := &SkillMatcher{skills: skills}
	for _, s := range skills {
		l := strings.ToLower(s)
		m.patterns = append(m.patterns, []string{
			"skill: " + l,
			"🔹 skill: " + l,
			"🔹 [" + l + "]",
			"[" + l + "]",
			l + ".md",
		})
	}
	return m
}

// Match returns the skills mentioned in text, in catalog order.
func (m *SkillMatcher) Match(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var hits []string
	for i, pats := range m.patterns {
		for _, p := range pats {
			if strings.Contains(lower, p) {
				hits = append(hits, m.skills[i])
				break
			}
		}
	}
	return hits
}

// EstimateTokens approximates the token count of text as ceil(len/4).
func EstimateTokens(text string) int64 {
	return int64((len(text) + 3) / 4)
}

// SkillUsage is the accumulated usage of one skill.
type SkillUsage struct {
	Skill    string     `json:"skill"`
	Count    int        `json:"count"`
	Tokens   int64      `json:"tokens"`
	LastUsed *time.Time `json:"lastUsed"`
}

// SkillTally accumulates skill mentions.
type SkillTally struct {
	order []string
	byKey map[string]*SkillUsage
}

func NewSkillTally() *SkillTally {
	return &SkillTally{byKey: make(map[string]*SkillUsage)}
}

// Add records one mention. at may be the zero time.
func (t *SkillTally) Add(skill string, tokens int64, at time.Time) {
	u, ok := t.byKey[skill]
	if !ok {
		u = &SkillUsage{Skill: skill}
		t.byKey[skill] = u
		t.order = append(t.order, skill)
	}
	u.Count++
	u.Tokens += tokens
	if !at.IsZero() && (u.LastUsed == nil || at.After(*u.LastUsed)) {
		at = at.UTC()
		u.LastUsed = &at
	}
}

// Sorted returns used skills by descending count, first-seen on ties.
func (t *SkillTally) Sorted() []SkillUsage {
	out := make([]SkillUsage, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
