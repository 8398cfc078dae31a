package usage

import (
	"time"

	"github.com/alghanim/clawboard/models"
)

const dateLayout = "2006-01-02"

// HourLayout keys hourly buckets.
const HourLayout = "2006-01-02T15:00Z"

// Point is one timestamped contribution to a daily or hourly bucket.
type Point struct {
	At      time.Time
	Tokens  int64
	Session string // counted once per bucket when non-empty
	Source  string // counted per occurrence when non-empty
}

// DateKey returns the UTC calendar date of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// WindowStart is UTC midnight of the first day of a window of calendar days
// ending today.
func WindowStart(window int, now time.Time) time.Time {
	return now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -(window - 1))
}

// DailyBuckets returns exactly window buckets, oldest first, covering the
// UTC calendar days ending on the day of now. Points outside the window are
// ignored.
func DailyBuckets(points []Point, window int, now time.Time) []models.DailyBucket {
	if window <= 0 {
		return []models.DailyBucket{}
	}
	today := now.UTC().Truncate(24 * time.Hour)
	first := WindowStart(window, now)

	buckets := make([]models.DailyBucket, window)
	sessions := make([]map[string]bool, window)
	for i := range buckets {
		d := first.AddDate(0, 0, i)
		buckets[i] = models.DailyBucket{
			Date:    d.Format(dateLayout),
			Day:     d.Weekday().String()[:3],
			Sources: map[string]int{},
		}
		sessions[i] = map[string]bool{}
	}

	for _, p := range points {
		day := p.At.UTC().Truncate(24 * time.Hour)
		if day.Before(first) || day.After(today) {
			continue
		}
		i := int(day.Sub(first) / (24 * time.Hour))
		b := &buckets[i]
		b.Count++
		b.Tokens += p.Tokens
		if p.Session != "" && !sessions[i][p.Session] {
			sessions[i][p.Session] = true
			b.Sessions++
		}
		if p.Source != "" {
			b.Sources[p.Source]++
		}
	}
	return buckets
}

// HourlyBucket is one clock hour (UTC) in a trailing window.
type HourlyBucket struct {
	Hour   string `json:"hour"`
	Count  int    `json:"count"`
	Tokens int64  `json:"tokens"`
}

// HourlyBuckets returns exactly hours buckets, oldest first, ending with the
// hour containing now.
func HourlyBuckets(points []Point, hours int, now time.Time) []HourlyBucket {
	if hours <= 0 {
		return []HourlyBucket{}
	}
	current := now.UTC().Truncate(time.Hour)
	first := current.Add(-time.Duration(hours-1) * time.Hour)

	buckets := make([]HourlyBucket, hours)
	for i := range buckets {
		buckets[i].Hour = first.Add(time.Duration(i) * time.Hour).Format(HourLayout)
	}
	for _, p := range points {
		h := p.At.UTC().Truncate(time.Hour)
		if h.Before(first) || h.After(current) {
			continue
		}
		i := int(h.Sub(first) / time.Hour)
		buckets[i].Count++
		buckets[i].Tokens += p.Tokens
	}
	return buckets
}
