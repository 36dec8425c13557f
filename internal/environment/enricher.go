package environment

import (
	"log/slog"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// Enricher fills the astronomical fields and default impact factors of a
// day record for a fixed location
type Enricher struct {
	lat    float64
	lon    float64
	logger *slog.Logger
}

// NewEnricher creates an enricher for the given coordinates
func NewEnricher(lat, lon float64, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{lat: lat, lon: lon, logger: logger}
}

// Enrich returns a copy of rec with astronomy and impact fields populated.
// Values already present on the record win.
func (e *Enricher) Enrich(rec types.DayRecord) types.DayRecord {
	astro := ComputeAstronomy(rec.Date, e.lat, e.lon)

	if rec.DaylightHours == 0 {
		rec.DaylightHours = astro.DaylightHours
	}
	if rec.MoonPhase == 0 && rec.MoonIllumination == 0 {
		rec.MoonPhase = astro.MoonPhase
		rec.MoonIllumination = astro.MoonIllumination
	}
	if rec.CircadianPhase == "" {
		rec.CircadianPhase = CircadianPhase(rec.DaylightHours)
	}

	if rec.AirQualityImpact == 0 && rec.AirQualityIndex != nil {
		rec.AirQualityImpact = AirQualityImpact(*rec.AirQualityIndex)
	}
	if rec.UVImpact == 0 && rec.UVIndex != nil {
		rec.UVImpact = UVImpact(*rec.UVIndex)
	}
	if rec.MoonPhaseImpact == 0 {
		rec.MoonPhaseImpact = MoonPhaseImpact(rec.MoonIllumination)
	}
	if rec.CircadianAlignment == 0 {
		rec.CircadianAlignment = CircadianAlignment(rec.DaylightHours)
	}

	e.logger.Debug("Enriched day record",
		"date", rec.DateKey(),
		"daylight_hours", rec.DaylightHours,
		"moon_illumination", rec.MoonIllumination,
		"circadian_phase", rec.CircadianPhase)

	return rec
}
