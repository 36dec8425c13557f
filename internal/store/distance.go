package store

import (
	"math"
	"sort"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// EuclideanDistance returns the distance between two feature vectors
// normalized by the square root of their length, so vectors in [0,1]^n stay
// within [0,1]. Vectors of different length compare over the shorter one.
func EuclideanDistance(v1, v2 []float32) float64 {
	n := len(v1)
	if len(v2) < n {
		n = len(v2)
	}
	if n == 0 {
		return 1.0
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := float64(v1[i]) - float64(v2[i])
		sum += diff * diff
	}
	return math.Min(1.0, math.Sqrt(sum)/math.Sqrt(float64(n)))
}

// NearestDays ranks candidate days by feature distance and returns up to k,
// closest first, skipping the excluded date. Ties keep the later day first.
func NearestDays(candidates []types.DayRecord, features []float32, k int, exclude time.Time) []types.DayRecord {
	excludeKey := ""
	if !exclude.IsZero() {
		excludeKey = types.NormalizeDate(exclude).Format(types.DateLayout)
	}

	type scored struct {
		day      types.DayRecord
		distance float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, d := range candidates {
		if d.DateKey() == excludeKey {
			continue
		}
		ranked = append(ranked, scored{day: d, distance: EuclideanDistance(features, d.Features())})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].day.Date.After(ranked[j].day.Date)
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]types.DayRecord, len(ranked))
	for i, r := range ranked {
		out[i] = r.day
	}
	return out
}
