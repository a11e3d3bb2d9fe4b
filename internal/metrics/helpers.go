package metrics

import (
	"sort"
	"time"

	"marketpulse/server/internal/models"
)

// median returns the middle value of xs, averaging the two middle values
// for even lengths. Returns 0 for an empty slice.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// latestWeeks returns up to n points of the series in chronological order,
// ending with the most recent week. The input is not modified.
func latestWeeks(series []models.WeeklyPoint, n int) []models.WeeklyPoint {
	sorted := make([]models.WeeklyPoint, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PeriodEnd.Before(sorted[j].PeriodEnd)
	})

	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

// indexByWeek maps weekly points by their period-end date for join lookups.
func indexByWeek(series []models.WeeklyPoint) map[time.Time]models.WeeklyPoint {
	idx := make(map[time.Time]models.WeeklyPoint, len(series))
	for _, p := range series {
		idx[p.PeriodEnd] = p
	}
	return idx
}

// daysBetween returns whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// withinTrailing reports whether t falls inside the trailing window of the
// given number of months ending at now, boundary inclusive on both ends.
func withinTrailing(t, now time.Time, months int) bool {
	cutoff := now.AddDate(0, -months, 0)
	return !t.Before(cutoff) && !t.After(now)
}

// float64Ptr is a convenience for optional numeric fields.
func float64Ptr(v float64) *float64 {
	return &v
}
