// Package period splits time ranges into calendar buckets (days, ISO weeks,
// months, quarters, years) for trend reports. All arithmetic is in UTC.
package period

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// Granularity is the width of a trend bucket.
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// Parse accepts the adjective or noun form ("monthly", "month"), case
// insensitive. An empty string yields Monthly.
func Parse(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monthly", "month":
		return Monthly, nil
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "quarterly", "quarter":
		return Quarterly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	_, err := Parse(string(g))
	return err == nil && g != ""
}

// StartOf truncates t to the first instant of its bucket.
func (g Granularity) StartOf(t time.Time) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	switch g {
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case Weekly:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case Quarterly:
		q := (int(m) - 1) / 3
		return time.Date(y, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the bucket following the one starting at start.
func (g Granularity) Next(start time.Time) time.Time {
	switch g {
	case Daily:
		return start.AddDate(0, 0, 1)
	case Weekly:
		return start.AddDate(0, 0, 7)
	case Quarterly:
		return start.AddDate(0, 3, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// Label names the bucket containing t: 2006-01-02, 2006-W01, 2006-01,
// 2006-Q1 or 2006.
func (g Granularity) Label(t time.Time) string {
	t = t.UTC()
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

// Bucket is one half-open window [Start, End).
type Bucket struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the bucket.
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// Range yields every bucket overlapping [from, to], in order.
func (g Granularity) Range(from, to time.Time) iter.Seq[Bucket] {
	return func(yield func(Bucket) bool) {
		if to.Before(from) {
			return
		}
		for start := g.StartOf(from); !start.After(to); {
			next := g.Next(start)
			if !yield(Bucket{Label: g.Label(start), Start: start, End: next}) {
				return
			}
			start = next
		}
	}
}

// ErrTooManyBuckets is returned by Buckets when the range exceeds the limit.
var ErrTooManyBuckets = fmt.Errorf("too many buckets")

// Buckets materializes Range, failing once more than limit buckets would be produced.
func (g Granularity) Buckets(from, to time.Time, limit int) ([]Bucket, error) {
	var out []Bucket
	for b := range g.Range(from, to) {
		if len(out) == limit {
			return nil, fmt.Errorf("%w: more than %d %s buckets", ErrTooManyBuckets, limit, g)
		}
		out = append(out, b)
	}
	return out, nil
}
