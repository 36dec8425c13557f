package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-wellbeing/internal/prediction"
	"github.com/saaga0h/jeeves-wellbeing/internal/recommend"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

// Message kinds, the third level of wellbeing/raw/{kind}/{source}
const (
	KindDay      = "day"
	KindAction   = "action"
	KindObserved = "observed"
)

// Processor parses raw wellbeing messages
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new message processor
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

// WeatherData is weather as reported by collectors. Condition is free text
// and is mapped onto the closed condition set here.
type WeatherData struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"wind_speed,omitempty"`
	UVIndex     *float64 `json:"uv_index,omitempty"`
}

// Weather converts to the engine's weather snapshot
func (w WeatherData) Weather() types.Weather {
	return types.Weather{
		Temperature: w.Temperature,
		Condition:   types.ParseWeatherCondition(w.Condition),
		Humidity:    w.Humidity,
		WindSpeed:   w.WindSpeed,
		UVIndex:     w.UVIndex,
	}
}

// ForecastData is one forecast slot
type ForecastData struct {
	Time string `json:"time"`
	WeatherData
}

// DayData is the payload of wellbeing/raw/day/{source}
type DayData struct {
	Date                string             `json:"date"`
	Steps               int                `json:"steps"`
	DistanceKm          float64            `json:"distance_km"`
	ActiveMinutes       float64            `json:"active_minutes"`
	PlacesVisited       int                `json:"places_visited"`
	VisitCount          int                `json:"visit_count"`
	ScreenTimeMinutes   float64            `json:"screen_time_minutes"`
	BatteryUsagePercent float64            `json:"battery_usage_percent"`
	PhotoCount          int                `json:"photo_count"`
	PhotoScoreOverride  *float64           `json:"photo_score_override,omitempty"`
	MediaMinutes        map[string]float64 `json:"media_minutes,omitempty"`
	AirQualityIndex     *float64           `json:"air_quality_index,omitempty"`
	WeatherData

	// Impact factors from external collaborators, zero when not supplied
	AirQualityImpact   float64 `json:"air_quality_impact,omitempty"`
	MoonPhaseImpact    float64 `json:"moon_phase_impact,omitempty"`
	UVImpact           float64 `json:"uv_impact,omitempty"`
	CircadianAlignment float64 `json:"circadian_alignment,omitempty"`

	Forecast []ForecastData `json:"forecast,omitempty"`
}

// DayMessage is a parsed day payload
type DayMessage struct {
	Source   string
	Day      types.DayRecord
	Forecast recommend.Forecast
}

// ActionData is the payload of wellbeing/raw/action/{source}
type ActionData struct {
	RecommendationID string   `json:"recommendation_id"`
	Satisfaction     *float64 `json:"satisfaction,omitempty"`
}

// ActionMessage is a parsed recommendation response
type ActionMessage struct {
	Source           string
	RecommendationID uuid.UUID
	Satisfaction     *float64
}

// ObservedData is the payload of wellbeing/raw/observed/{source}
type ObservedData struct {
	Activity  string `json:"activity"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ParseDay parses a day payload. A missing forecast yields a single slot
// holding the day's own weather at noon.
func (p *Processor) ParseDay(source string, payload []byte) (*DayMessage, error) {
	var data DayData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	date, err := time.Parse(types.DateLayout, data.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", data.Date, err)
	}

	media := make(map[types.MediaType]float64, len(data.MediaMinutes))
	for name, minutes := range data.MediaMinutes {
		mt, err := types.ParseMediaType(name)
		if err != nil {
			return nil, err
		}
		media[mt] += minutes
	}

	w := data.Weather()
	day := types.DayRecord{
		Date:                types.NormalizeDate(date),
		Steps:               data.Steps,
		DistanceKm:          data.DistanceKm,
		ActiveMinutes:       data.ActiveMinutes,
		PlacesVisited:       data.PlacesVisited,
		VisitCount:          data.VisitCount,
		ScreenTimeMinutes:   data.ScreenTimeMinutes,
		BatteryUsagePercent: data.BatteryUsagePercent,
		PhotoCount:          data.PhotoCount,
		PhotoScoreOverride:  data.PhotoScoreOverride,
		MediaMinutes:        media,
		Temperature:         w.Temperature,
		Humidity:            w.Humidity,
		WindSpeed:           w.WindSpeed,
		Condition:           w.Condition,
		AirQualityIndex:     data.AirQualityIndex,
		UVIndex:             w.UVIndex,
		AirQualityImpact:    data.AirQualityImpact,
		MoonPhaseImpact:     data.MoonPhaseImpact,
		UVImpact:            data.UVImpact,
		CircadianAlignment:  data.CircadianAlignment,
	}

	forecast := make(recommend.Forecast, 0, len(data.Forecast))
	for _, slot := range data.Forecast {
		at, err := time.Parse(time.RFC3339, slot.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid forecast time %q: %w", slot.Time, err)
		}
		forecast = append(forecast, recommend.ForecastSlot{Time: at, Weather: slot.Weather()})
	}
	if len(forecast) == 0 {
		forecast = append(forecast, recommend.ForecastSlot{Time: day.Date.Add(12 * time.Hour), Weather: w})
	}

	p.logger.Debug("Parsed day message",
		"source", source,
		"date", day.DateKey(),
		"condition", day.Condition,
		"forecast_slots", len(forecast))

	return &DayMessage{Source: source, Day: day, Forecast: forecast}, nil
}

// ParseAction parses a recommendation response
func (p *Processor) ParseAction(source string, payload []byte) (*ActionMessage, error) {
	var data ActionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	id, err := uuid.Parse(data.RecommendationID)
	if err != nil {
		return nil, fmt.Errorf("invalid recommendation_id %q: %w", data.RecommendationID, err)
	}
	return &ActionMessage{Source: source, RecommendationID: id, Satisfaction: data.Satisfaction}, nil
}

// ParseObserved parses an observed activity. A missing timestamp means now.
func (p *Processor) ParseObserved(payload []byte, now time.Time) (prediction.Observation, error) {
	var data ObservedData
	if err := json.Unmarshal(payload, &data); err != nil {
		return prediction.Observation{}, fmt.Errorf("failed to parse JSON: %w", err)
	}

	activity, err := types.ParseActivityType(data.Activity)
	if err != nil {
		return prediction.Observation{}, err
	}

	at := now
	if data.Timestamp != "" {
		if at, err = time.Parse(time.RFC3339, data.Timestamp); err != nil {
			return prediction.Observation{}, fmt.Errorf("invalid timestamp %q: %w", data.Timestamp, err)
		}
	}
	return prediction.Observation{Activity: activity, At: at}, nil
}

// Kind returns the message kind and source of a raw topic
func (p *Processor) Kind(topic string) (string, string, error) {
	kind, source, err := mqtt.ParseRawTopic(topic)
	if err != nil {
		p.logger.Warn("Invalid topic format", "topic", topic)
		return "", "", err
	}
	return kind, source, nil
}
