// Package usage groups session and message records into aggregate buckets,
// buckets them by calendar day, and estimates their cost.
package usage

import (
	"math"
	"sort"

	"github.com/alghanim/clawboard/models"
)

// TopN is the number of buckets every breakdown keeps.
const TopN = 10

// Sample is the contribution of one record to its bucket.
type Sample struct {
	TokensIn  int64
	TokensOut int64
	LatencyMs float64

	// Qualifies marks records that take part in the success rate;
	// Succeeded is only meaningful when Qualifies is set.
	Qualifies bool
	Succeeded bool
}

// SessionSample applies the session policy: completed and active sessions
// qualify, completed ones succeed.
func SessionSample(s models.SessionRecord) Sample {
	return Sample{
		TokensIn:  s.InputTokens,
		TokensOut: s.OutputTokens,
		LatencyMs: s.LatencyMs,
		Qualifies: s.Status == models.StatusCompleted || s.Status == models.StatusActive,
		Succeeded: s.Status == models.StatusCompleted,
	}
}

type accumulator struct {
	key        string
	count      int
	qualifying int
	succeeded  int
	latencySum float64
	tokensIn   int64
	tokensOut  int64
}

// Aggregate groups items by key and returns at most topN buckets sorted by
// descending count. Buckets with equal counts keep first-seen order.
// A topN <= 0 keeps every bucket.
func Aggregate[T any](items []T, key func(T) string, sample func(T) Sample, topN int) []models.AggregateBucket {
	index := make(map[string]int)
	var accs []*accumulator

	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(accs)
			index[k] = i
			accs = append(accs, &accumulator{key: k})
		}
		a := accs[i]
		s := sample(it)
		a.count++
		a.tokensIn += s.TokensIn
		a.tokensOut += s.TokensOut
		a.latencySum += s.LatencyMs
		if s.Qualifies {
			a.qualifying++
			if s.Succeeded {
				a.succeeded++
			}
		}
	}

	sort.SliceStable(accs, func(i, j int) bool {
		return accs[i].count > accs[j].count
	})
	if topN > 0 && len(accs) > topN {
		accs = accs[:topN]
	}

	buckets := make([]models.AggregateBucket, 0, len(accs))
	for _, a := range accs {
		buckets = append(buckets, models.AggregateBucket{
			Key:          a.key,
			Count:        a.count,
			SuccessRate:  SuccessRate(a.succeeded, a.qualifying),
			AvgLatencyMs: AvgLatency(a.latencySum, a.count),
			TokensIn:     a.tokensIn,
			TokensOut:    a.tokensOut,
		})
	}
	return buckets
}

// SuccessRate returns succeeded/qualifying as a whole percentage, rounded
// half away from zero. It is 100 when nothing qualifies.
func SuccessRate(succeeded, qualifying int) int {
	if qualifying <= 0 {
		return 100
	}
	if succeeded < 0 {
		succeeded = 0
	}
	if succeeded > qualifying {
		succeeded = qualifying
	}
	return int(math.Round(float64(succeeded) / float64(qualifying) * 100))
}

// AvgLatency divides a latency sum by the record count, rounded to 0.1ms.
func AvgLatency(sum float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	return Round1(sum / float64(count))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
