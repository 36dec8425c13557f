// Package correlation derives Pearson correlation insights between the
// environment and behaviour across recorded days.
package correlation

import (
	"fmt"
	"math"

	"github.com/saaga0h/jeeves-wellbeing/internal/suitability"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// varianceEpsilon is the relative variance below which a series counts as constant
const varianceEpsilon = 1e-12

// Pearson returns the correlation coefficient of xs and ys. Fewer than two
// samples or a constant series yields *types.InsufficientDataError.
func Pearson(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("series length mismatch: %d vs %d", len(xs), len(ys))
	}
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, &types.InsufficientDataError{Samples: len(xs), Reason: "need at least 2 samples"}
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var cov, vx, vy, sx2, sy2 float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
		sx2 += xs[i] * xs[i]
		sy2 += ys[i] * ys[i]
	}

	// rounding leaves a residue on constant series; scale the cutoff to the data
	if vx <= varianceEpsilon*sx2 || vy <= varianceEpsilon*sy2 {
		return 0, &types.InsufficientDataError{Samples: len(xs), Reason: "zero variance"}
	}

	r := cov / math.Sqrt(vx*vy)
	return math.Max(-1, math.Min(1, r)), nil
}

// Classify buckets |r| into a strength label
func Classify(r float64) types.CorrelationStrength {
	switch a := math.Abs(r); {
	case a < 0.3:
		return types.StrengthWeak
	case a < 0.5:
		return types.StrengthModerate
	case a < 0.7:
		return types.StrengthStrong
	default:
		return types.StrengthVeryStrong
	}
}

// extractor reads one side of a pair; ok false drops the day
type extractor func(d types.DayRecord) (float64, bool)

type pair struct {
	title    string
	category string
	xName    string
	yName    string
	x        extractor
	y        extractor
}

var pairs = []pair{
	{"Temperature and activity", "weather", "temperature", "physical activity", ptr(func(d types.DayRecord) *float64 { return d.Temperature }), physical},
	{"Humidity and activity", "weather", "humidity", "physical activity", ptr(func(d types.DayRecord) *float64 { return d.Humidity }), physical},
	{"UV and activity", "weather", "UV index", "physical activity", ptr(func(d types.DayRecord) *float64 { return d.UVIndex }), physical},
	{"Air quality and activity", "air_quality", "air quality index", "physical activity", ptr(func(d types.DayRecord) *float64 { return d.AirQualityIndex }), physical},
	{"Weather and screen time", "screen_time", "weather pleasantness", "screen time", pleasantness, nonZero(func(d types.DayRecord) float64 { return d.ScreenTimeMinutes })},
	{"Weather and media", "media", "weather pleasantness", "media minutes", pleasantness, nonZero(types.DayRecord.MediaConsumptionMinutes)},
}

// Analyze produces one insight per metric pair with enough data. Pairs
// lacking data are skipped; if none qualifies *types.InsufficientDataError
// is returned.
func Analyze(days []types.DayRecord) ([]types.CorrelationInsight, error) {
	var insights []types.CorrelationInsight
	for _, p := range pairs {
		xs, ys := collect(days, p.x, p.y)
		r, err := Pearson(xs, ys)
		if err != nil {
			continue
		}
		insights = append(insights, types.CorrelationInsight{
			Title:       p.title,
			Description: describe(p, r, len(xs)),
			Correlation: r,
			Strength:    Classify(r),
			Category:    p.category,
			SampleSize:  len(xs),
		})
	}
	if len(insights) == 0 {
		return nil, &types.InsufficientDataError{Metric: "correlations", Samples: len(days), Reason: "no metric pair has enough paired days"}
	}
	return insights, nil
}

func collect(days []types.DayRecord, fx, fy extractor) (xs, ys []float64) {
	for _, d := range days {
		x, ok := fx(d)
		if !ok {
			continue
		}
		y, ok := fy(d)
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

func describe(p pair, r float64, n int) string {
	direction := "higher"
	if r < 0 {
		direction = "lower"
	}
	strength := Classify(r)
	if strength == types.StrengthWeak {
		return fmt.Sprintf("Little relationship between %s and %s (r=%.2f over %d days)", p.xName, p.yName, r, n)
	}
	return fmt.Sprintf("Higher %s goes with %s %s (%s, r=%.2f over %d days)",
		p.xName, direction, p.yName, humanStrength(strength), r, n)
}

func humanStrength(s types.CorrelationStrength) string {
	switch s {
	case types.StrengthModerate:
		return "moderate"
	case types.StrengthStrong:
		return "strong"
	case types.StrengthVeryStrong:
		return "very strong"
	}
	return "weak"
}

func ptr(get func(types.DayRecord) *float64) extractor {
	return func(d types.DayRecord) (float64, bool) {
		v := get(d)
		if v == nil || *v == 0 {
			return 0, false
		}
		return *v, true
	}
}

func nonZero(get func(types.DayRecord) float64) extractor {
	return func(d types.DayRecord) (float64, bool) {
		v := get(d)
		return v, v != 0
	}
}

func physical(d types.DayRecord) (float64, bool) {
	return d.PhysicalActivityScore, d.PhysicalActivityScore != 0
}

// pleasantness scores the day's weather for outdoor leisure. Days without
// a condition or temperature are dropped.
func pleasantness(d types.DayRecord) (float64, bool) {
	if d.Condition == types.ConditionUnset || d.Temperature == nil {
		return 0, false
	}
	s, err := suitability.Evaluate(types.ActivityOutdoorLeisure, d.Weather())
	if err != nil {
		return 0, false
	}
	return s.OverallScore, s.OverallScore != 0
}
