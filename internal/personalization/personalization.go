// Package personalization derives the per-activity personalization inputs
// from the user's past responses to recommendations.
package personalization

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/store"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// BucketHours is the width of the time-of-day buckets
const BucketHours = 3

// Bucket returns the 3-hour time-of-day bucket of t
func Bucket(t time.Time) int {
	return t.Hour() / BucketHours
}

type tally struct {
	total    int
	acted    int
	inBucket int
	satSum   float64
	satCount int
}

// FromHistory computes inputs for every activity from past recommendations.
//
// Historical preference is the mean satisfaction (scaled to [0,1]) of acted-
// upon recommendations on the similar days, time-based is the share of acted-
// upon recommendations in the same bucket as at, and activity frequency is the
// acted-upon share of all recommendations for the activity. Location and
// social context have no history source and stay neutral.
func FromHistory(history []types.Recommendation, similarDays []time.Time, at time.Time) map[types.ActivityType]types.PersonalizationInputs {
	similar := make(map[string]bool, len(similarDays))
	for _, d := range similarDays {
		similar[d.UTC().Format(types.DateLayout)] = true
	}

	bucket := Bucket(at)
	tallies := make(map[types.ActivityType]*tally)
	for _, r := range history {
		t, ok := tallies[r.ActivityType]
		if !ok {
			t = &tally{}
			tallies[r.ActivityType] = t
		}
		t.total++
		if !r.IsActedUpon {
			continue
		}
		t.acted++
		if Bucket(r.RecommendedTime) == bucket {
			t.inBucket++
		}
		if r.ActualSatisfaction != nil && similar[r.Date.UTC().Format(types.DateLayout)] {
			t.satSum += *r.ActualSatisfaction / types.MaxSatisfaction
			t.satCount++
		}
	}

	out := make(map[types.ActivityType]types.PersonalizationInputs, len(types.AllActivityTypes()))
	for _, a := range types.AllActivityTypes() {
		in := types.NeutralPersonalization()
		if t, ok := tallies[a]; ok {
			if t.satCount > 0 {
				in.HistoricalPreference = t.satSum / float64(t.satCount)
			}
			if t.acted > 0 {
				in.TimeBased = float64(t.inBucket) / float64(t.acted)
			}
			if t.total > 0 {
				in.ActivityFrequency = float64(t.acted) / float64(t.total)
			}
		}
		out[a] = in
	}
	return out
}

// Builder loads the history needed by FromHistory
type Builder struct {
	days     store.DayStore
	recs     store.RecommendationStore
	similar  int
	lookback time.Duration
	logger   *slog.Logger
}

// NewBuilder creates a builder using the k most similar days and
// recommendations from the lookback window
func NewBuilder(days store.DayStore, recs store.RecommendationStore, similar int, lookback time.Duration, logger *slog.Logger) *Builder {
	return &Builder{
		days:     days,
		recs:     recs,
		similar:  similar,
		lookback: lookback,
		logger:   logger,
	}
}

// Build returns personalization inputs for day as seen at now
func (b *Builder) Build(ctx context.Context, day types.DayRecord, now time.Time) (map[types.ActivityType]types.PersonalizationInputs, error) {
	neighbours, err := b.days.SimilarDays(ctx, day.Features(), b.similar, day.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar days: %w", err)
	}
	dates := make([]time.Time, len(neighbours))
	for i, d := range neighbours {
		dates[i] = d.Date
	}

	history, err := b.recs.ListRecommendations(ctx, now.Add(-b.lookback), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendation history: %w", err)
	}

	b.logger.Debug("Personalization history loaded",
		"date", day.DateKey(),
		"similar_days", len(dates),
		"recommendations", len(history))

	return FromHistory(history, dates, now), nil
}
