package scoring

import (
	"math"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// Wellbeing weights
const (
	WeightPhysical     = 0.35
	WeightSocial       = 0.25
	WeightProductivity = 0.25
	WeightPhoto        = 0.15
)

// Aggregator turns a day's raw metrics into the derived scores
type Aggregator struct {
	now func() time.Time
}

// NewAggregator creates an aggregator using the wall clock
func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// ComputeDayScores validates the raw metrics and returns the record with all
// derived fields populated. The environmental multiplier is applied once, last,
// and the final wellbeing score is intentionally not re-clamped to [0,100].
func (a *Aggregator) ComputeDayScores(rec types.DayRecord) (types.DayRecord, error) {
	if err := Validate(rec); err != nil {
		return rec, err
	}

	rec.PhysicalActivityScore = PhysicalActivityScore(rec.Steps, rec.ActiveMinutes)
	rec.SocialActivityScore = SocialActivityScore(rec.PlacesVisited, rec.VisitCount, rec.PhotoCount)
	rec.ScreenTimeScore = ScreenTimeScore(rec.ScreenTimeMinutes)
	rec.MediaConsumptionScore = MediaConsumptionScore(rec.MediaConsumptionMinutes())
	rec.ProductivityScore = ProductivityScore(rec.ScreenTimeScore, rec.BatteryUsagePercent, rec.MediaConsumptionScore)

	if rec.PhotoScoreOverride != nil {
		rec.PhotoActivityScore = *rec.PhotoScoreOverride
	} else {
		rec.PhotoActivityScore = PhotoActivityScore(rec.PhotoCount)
	}

	base := BaseWellbeing(rec.PhysicalActivityScore, rec.SocialActivityScore, rec.ProductivityScore, rec.PhotoActivityScore)
	rec.EnvironmentalMultiplier = EnvironmentalMultiplier(FactorsFromDay(rec))
	rec.OverallWellbeingScore = base * rec.EnvironmentalMultiplier
	rec.UpdatedAt = a.now().UTC()

	return rec, nil
}

// PhysicalActivityScore = min(100, steps/100 + activeMinutes/3)
func PhysicalActivityScore(steps int, activeMinutes float64) float64 {
	return math.Min(100, float64(steps)/100+activeMinutes/3)
}

// SocialActivityScore = min(100, places*15 + visits*10 + photos*5)
func SocialActivityScore(placesVisited, visitCount, photoCount int) float64 {
	return math.Min(100, float64(placesVisited)*15+float64(visitCount)*10+float64(photoCount)*5)
}

// ScreenTimeScore falls linearly from 100 to 0 at eight hours
func ScreenTimeScore(screenTimeMinutes float64) float64 {
	return math.Max(0, 100-screenTimeMinutes/4.8)
}

// PhotoActivityScore is used when no collaborator supplied a photo score
func PhotoActivityScore(photoCount int) float64 {
	return math.Min(100, float64(photoCount)*20)
}

// MediaConsumptionScore rewards a moderate one-to-three hour band.
//
//	0 min        -> 60
//	(0, 1h)      -> 60..100 linear
//	[1h, 3h]     -> 100
//	(3h, 6h]     -> 100 - 20*(h-3)
//	> 6h         -> max(20, 40 - 10*(h-6))
func MediaConsumptionScore(minutes float64) float64 {
	hours := minutes / 60
	switch {
	case minutes <= 0:
		return 60
	case hours < 1:
		return 60 + 40*hours
	case hours <= 3:
		return 100
	case hours <= 6:
		return 100 - 20*(hours-3)
	default:
		return math.Max(20, 40-10*(hours-6))
	}
}

// ProductivityScore averages screen time, battery headroom and media balance
func ProductivityScore(screenTimeScore, batteryUsagePercent, mediaScore float64) float64 {
	return (screenTimeScore + (100 - batteryUsagePercent) + mediaScore) / 3
}

// BaseWellbeing is the weighted score before the environmental multiplier
func BaseWellbeing(physical, social, productivity, photo float64) float64 {
	return WeightPhysical*physical + WeightSocial*social + WeightProductivity*productivity + WeightPhoto*photo
}
