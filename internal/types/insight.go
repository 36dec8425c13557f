package types

// CorrelationStrength is the qualitative bucket of |r|
type CorrelationStrength string

const (
	StrengthWeak       CorrelationStrength = "WEAK"
	StrengthModerate   CorrelationStrength = "MODERATE"
	StrengthStrong     CorrelationStrength = "STRONG"
	StrengthVeryStrong CorrelationStrength = "VERY_STRONG"
)

// CorrelationInsight is a derived, non-authoritative analysis result
type CorrelationInsight struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Correlation float64             `json:"correlation"`
	Strength    CorrelationStrength `json:"strength"`
	Category    string              `json:"category"`
	SampleSize  int                 `json:"sample_size"`
}
