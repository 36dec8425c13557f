package environment

// Default impact estimators. Collaborators that know better can set the
// impact fields on the day record directly; Enrich never overwrites them.

// AirQualityImpact maps a US AQI value to a multiplier
func AirQualityImpact(aqi float64) float64 {
	switch {
	case aqi <= 50:
		return 1.05
	case aqi <= 100:
		return 1.0
	case aqi <= 150:
		return 0.9
	case aqi <= 200:
		return 0.8
	case aqi <= 300:
		return 0.7
	default:
		return 0.6
	}
}

// UVImpact rewards moderate sunshine and penalises high exposure
func UVImpact(uv float64) float64 {
	switch {
	case uv < 3:
		return 1.0
	case uv < 6:
		return 1.05
	case uv < 8:
		return 0.95
	case uv < 11:
		return 0.9
	default:
		return 0.85
	}
}

// MoonPhaseImpact lowers the multiplier slightly around full moon, when
// sleep quality tends to drop
func MoonPhaseImpact(illumination float64) float64 {
	switch {
	case illumination >= 0.9:
		return 0.95
	case illumination >= 0.6:
		return 0.98
	default:
		return 1.0
	}
}

// CircadianAlignment scores how well daylight length supports a stable rhythm
func CircadianAlignment(daylightHours float64) float64 {
	switch {
	case daylightHours >= 12:
		return 1.05
	case daylightHours >= 9:
		return 1.0
	case daylightHours >= 6:
		return 0.95
	default:
		return 0.9
	}
}
