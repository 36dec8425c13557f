package environment

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Astronomy holds the sun and moon facts for one day at one location
type Astronomy struct {
	Sunrise          time.Time
	Sunset           time.Time
	DaylightHours    float64
	MoonPhase        float64 // 0 new moon, 0.5 full moon
	MoonIllumination float64 // illuminated fraction
	CircadianPhase   string
}

// Circadian phase labels derived from daylight length
const (
	PhaseExtendedDaylight = "extended_daylight"
	PhaseBalanced         = "balanced"
	PhaseShortDaylight    = "short_daylight"
	PhaseDarkSeason       = "dark_season"
)

// ComputeAstronomy calculates daylight length and moon state for the given
// date. Polar day and night are detected from the sun altitude at solar noon.
func ComputeAstronomy(date time.Time, lat, lon float64) Astronomy {
	y, m, d := date.UTC().Date()
	// Approximate local solar noon in UTC
	noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Add(-time.Duration(lon / 15 * float64(time.Hour)))

	times := suncalc.GetTimes(noon, lat, lon)
	sunrise := times[suncalc.Sunrise].Value
	sunset := times[suncalc.Sunset].Value

	astro := Astronomy{}

	daylight := sunset.Sub(sunrise).Hours()
	if sunrise.IsZero() || sunset.IsZero() || math.IsNaN(daylight) || daylight <= 0 || daylight > 24 {
		// No sunrise/sunset: the sun either never sets or never rises
		position := suncalc.GetPosition(noon, lat, lon)
		if position.Altitude > 0 {
			daylight = 24
		} else {
			daylight = 0
		}
	} else {
		astro.Sunrise = sunrise
		astro.Sunset = sunset
	}
	astro.DaylightHours = daylight

	moon := suncalc.GetMoonIllumination(noon)
	astro.MoonPhase = moon.Phase
	astro.MoonIllumination = moon.Fraction
	astro.CircadianPhase = CircadianPhase(daylight)

	return astro
}

// CircadianPhase classifies the daylight length of a day
func CircadianPhase(daylightHours float64) string {
	switch {
	case daylightHours >= 14:
		return PhaseExtendedDaylight
	case daylightHours >= 10:
		return PhaseBalanced
	case daylightHours >= 6:
		return PhaseShortDaylight
	default:
		return PhaseDarkSeason
	}
}
