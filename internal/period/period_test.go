package period

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Granularity
		err  bool
	}{
		{"", Monthly, false},
		{"monthly", Monthly, false},
		{"Month", Monthly, false},
		{"day", Daily, false},
		{" weekly ", Weekly, false},
		{"quarter", Quarterly, false},
		{"YEARLY", Yearly, false},
		{"hourly", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStartOfAndLabel(t *testing.T) {
	ts := time.Date(2024, time.August, 14, 17, 30, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		g     Granularity
		start time.Time
		label string
	}{
		{Daily, day(2024, time.August, 14), "2024-08-14"},
		{Weekly, day(2024, time.August, 12), "2024-W33"},
		{Monthly, day(2024, time.August, 1), "2024-08"},
		{Quarterly, day(2024, time.July, 1), "2024-Q3"},
		{Yearly, day(2024, time.January, 1), "2024"},
	}
	for _, tc := range tests {
		t.Run(string(tc.g), func(t *testing.T) {
			assert.Equal(t, tc.start, tc.g.StartOf(ts))
			assert.Equal(t, tc.label, tc.g.Label(ts))
		})
	}
}

func TestWeeklyLabel_UsesISOYear(t *testing.T) {
	// 2024-12-30 is a Monday that belongs to ISO week 1 of 2025.
	assert.Equal(t, "2025-W01", Weekly.Label(day(2024, time.December, 30)))
	assert.Equal(t, day(2024, time.December, 30), Weekly.StartOf(day(2025, time.January, 5)))
}

func TestBuckets_MonthlyFillsGaps(t *testing.T) {
	buckets, err := Monthly.Buckets(day(2024, time.January, 20), day(2024, time.April, 2), 100)
	require.NoError(t, err)

	var labels []string
	for _, b := range buckets {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04"}, labels)
	assert.True(t, buckets[1].Contains(day(2024, time.February, 29)))
	assert.False(t, buckets[1].Contains(day(2024, time.March, 1)))
}

func TestBuckets_SingleDayRange(t *testing.T) {
	buckets, err := Daily.Buckets(day(2024, time.May, 5), day(2024, time.May, 5), 10)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2024-05-05", buckets[0].Label)
}

func TestBuckets_EmptyWhenReversed(t *testing.T) {
	buckets, err := Daily.Buckets(day(2024, time.May, 5), day(2024, time.May, 1), 10)
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestBuckets_Limit(t *testing.T) {
	_, err := Daily.Buckets(day(2020, time.January, 1), day(2024, time.January, 1), 1000)
	assert.True(t, errors.Is(err, ErrTooManyBuckets))

	buckets, err := Yearly.Buckets(day(2020, time.January, 1), day(2024, time.January, 1), 1000)
	require.NoError(t, err)
	assert.Len(t, buckets, 5)
}
