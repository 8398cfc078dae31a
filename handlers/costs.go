package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/alghanim/clawboard/config"
	"github.com/alghanim/clawboard/models"
	"github.com/alghanim/clawboard/usage"
)

// Quota status thresholds, in percent of the monthly budget.
const (
	quotaWarnPercent = 80
	quotaFullPercent = 100
)

type Quota struct {
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	TokensInput   int64   `json:"tokens_input"`
	TokensOutput  int64   `json:"tokens_output"`
	TotalTokens   int64   `json:"total_tokens"`
	CostEstimated float64 `json:"cost_estimated"`
	BudgetMonthly float64 `json:"budget_monthly"`
	PercentUsed   float64 `json:"percent_used"`
	Status        string  `json:"status"`
}

type QuotasResponse struct {
	Quotas []Quota `json:"quotas"`
	errorField
}

func zeroQuotas() *QuotasResponse {
	return &QuotasResponse{Quotas: []Quota{}}
}

// GetQuotas handles GET /api/quotas
func (h *UsageHandler) GetQuotas(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.CLI.Sessions(r.Context())
	if err != nil {
		respondFailure(w, "quotas", zeroQuotas(), err)
		return
	}
	respondJSON(w, http.StatusOK, buildQuotas(sessions, usage.CurrentPricing(), config.GetBudgets(), nowFunc(h.Now)))
}

type quotaKey struct{ provider, model string }

// buildQuotas prices each provider/model pair active in the current UTC
// month and compares it with the provider's monthly budget. Results are
// ordered by cost, highest first.
func buildQuotas(sessions []models.SessionRecord, pricing *usage.Pricing, budgets map[string]float64, now time.Time) *QuotasResponse {
	index := make(map[quotaKey]int)
	resp := zeroQuotas()
	for _, s := range sessions {
		if !inMonth(s, now) {
			continue
		}
		k := quotaKey{provider: usage.Provider(s.Model, s.Provider), model: s.Model}
		i, ok := index[k]
		if !ok {
			i = len(resp.Quotas)
			index[k] = i
			resp.Quotas = append(resp.Quotas, Quota{Provider: k.provider, Model: k.model})
		}
		q := &resp.Quotas[i]
		q.TokensInput += s.InputTokens
		q.TokensOutput += s.OutputTokens
		q.TotalTokens += s.TotalTokens
	}

	for i := range resp.Quotas {
		q := &resp.Quotas[i]
		cost := pricing.Cost(q.Model, q.TokensInput, q.TokensOutput)
		q.CostEstimated = usage.Round2(cost)
		q.BudgetMonthly = budgets[q.Provider]
		if q.BudgetMonthly > 0 {
			q.PercentUsed = usage.Round1(cost / q.BudgetMonthly * 100)
		}
		q.Status = quotaStatus(q.PercentUsed, q.BudgetMonthly)
	}
	sort.SliceStable(resp.Quotas, func(i, j int) bool {
		return resp.Quotas[i].CostEstimated > resp.Quotas[j].CostEstimated
	})
	return resp
}

// inMonth reports whether the session was last active in the UTC calendar
// month of now. Sessions without any timestamp are not counted.
func inMonth(s models.SessionRecord, now time.Time) bool {
	at := s.UpdatedAt
	if at == nil {
		at = s.CreatedAt
	}
	if at == nil {
		return false
	}
	y, m, _ := at.UTC().Date()
	ny, nm, _ := now.UTC().Date()
	return y == ny && m == nm
}

func quotaStatus(percent, budget float64) string {
	switch {
	case budget <= 0:
		return "no_budget"
	case percent >= quotaFullPercent:
		return "exceeded"
	case percent >= quotaWarnPercent:
		return "warning"
	default:
		return "ok"
	}
}
