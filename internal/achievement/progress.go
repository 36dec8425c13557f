package achievement

import (
	"sort"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// ProgressFromHistory derives progress for a metric-bound achievement from
// the day history. ok is false when the achievement is not metric-driven.
//
// CUMULATIVE and SOCIAL sum the metric over all days, MILESTONE takes the
// best single day, STREAK counts the longest run of consecutive calendar days
// on which the metric reached Threshold.
func ProgressFromHistory(a types.Achievement, history []types.DayRecord) (float64, bool) {
	metric := a.Metric
	if metric == "" && a.Type == types.AchievementSocial {
		metric = types.MetricPlacesVisited
	}
	if metric == "" {
		return 0, false
	}

	switch a.Type {
	case types.AchievementCumulative, types.AchievementSocial:
		total := 0.0
		for _, d := range history {
			if v, ok := d.Metric(metric); ok {
				total += v
			}
		}
		return total, true

	case types.AchievementMilestone:
		best := 0.0
		for _, d := range history {
			if v, ok := d.Metric(metric); ok && v > best {
				best = v
			}
		}
		return best, true

	case types.AchievementStreak:
		return float64(longestRun(history, metric, a.Threshold)), true
	}
	return 0, false
}

func longestRun(history []types.DayRecord, metric types.Metric, threshold float64) int {
	days := make([]time.Time, 0, len(history))
	for _, d := range history {
		if v, ok := d.Metric(metric); ok && v >= threshold {
			days = append(days, types.NormalizeDate(d.Date))
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 0, 0
	var prev time.Time
	for i, day := range days {
		switch {
		case i > 0 && day.Equal(prev):
			continue
		case i > 0 && day.Sub(prev) == 24*time.Hour:
			run++
		default:
			run = 1
		}
		if run > best {
			best = run
		}
		prev = day
	}
	return best
}
