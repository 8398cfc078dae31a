package usage

import (
	"sort"
	"strings"

	"github.com/alghanim/clawboard/config"
)

// Pricing estimates cost from token counts using per-million-token rates.
type Pricing struct {
	Rates   map[string]config.ModelPrice
	Default config.ModelPrice

	fuzzy []string
}

// NewPricing builds a Pricing. Fuzzy matches are tried longest key first so
// "gpt-4o-mini" wins over "gpt-4o". Keys with an empty model segment only
// match exactly.
func NewPricing(rates map[string]config.ModelPrice, def config.ModelPrice) *Pricing {
	p := &Pricing{Rates: rates, Default: def}
	for k := range rates {
		if strings.TrimSpace(lastSegment(k)) == "" {
			continue
		}
		p.fuzzy = append(p.fuzzy, k)
	}
	sort.Slice(p.fuzzy, func(i, j int) bool {
		a, b := lastSegment(p.fuzzy[i]), lastSegment(p.fuzzy[j])
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return p.fuzzy[i] < p.fuzzy[j]
	})
	return p
}

// CurrentPricing builds a Pricing from the loaded catalog.
func CurrentPricing() *Pricing {
	return NewPricing(config.GetPricing(), config.GetDefaultPrice())
}

// Rate returns the price pair for model: exact key, then the first key whose
// model segment appears in model, then the default.
func (p *Pricing) Rate(model string) config.ModelPrice {
	if r, ok := p.Rates[model]; ok {
		return r
	}
	lower := strings.ToLower(model)
	for _, k := range p.fuzzy {
		if strings.Contains(lower, strings.ToLower(lastSegment(k))) {
			return p.Rates[k]
		}
	}
	return p.Default
}

// Cost returns the estimated USD cost of the given token counts.
func (p *Pricing) Cost(model string, input, output int64) float64 {
	r := p.Rate(model)
	return (float64(input)/1e6)*r.Input + (float64(output)/1e6)*r.Output
}

// Provider returns the provider part of a "provider/model" id, or fallback.
func Provider(model, fallback string) string {
	if i := strings.Index(model, "/"); i > 0 {
		return strings.ToLower(model[:i])
	}
	if fallback != "" {
		return strings.ToLower(fallback)
	}
	return "unknown"
}

func lastSegment(k string) string {
	parts := strings.Split(k, "/")
	return parts[len(parts)-1]
}
