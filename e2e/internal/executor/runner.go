package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/checker"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/observer"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/reporter"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

// Runner orchestrates scenario execution. Redis and Postgres are optional;
// expectations on a missing backend fail.
type Runner struct {
	redisClient     redis.Client
	postgresChecker *checker.PostgresChecker
	observer        *observer.Observer
	player          *Player
	logger          *slog.Logger

	wait func(ctx context.Context, start time.Time, seconds int) error
}

// NewRunner creates a runner on a connected MQTT client
func NewRunner(client mqtt.Client, redisClient redis.Client, postgresChecker *checker.PostgresChecker, logger *slog.Logger) *Runner {
	return &Runner{
		redisClient:     redisClient,
		postgresChecker: postgresChecker,
		observer:        observer.NewObserver(client, logger),
		player:          NewPlayer(client, logger),
		logger:          logger,
		wait:            WaitUntil,
	}
}

type stepKind int

const (
	stepEvent stepKind = iota
	stepWait
	stepCheck
)

type step struct {
	time  int
	kind  stepKind
	event scenario.Event
	wait  scenario.WaitPeriod
	layer string
	exp   scenario.Expectation
}

// steps merges events, waits and checks into one schedule. At equal times
// events run first and checks last.
func steps(s *scenario.Scenario) []step {
	var out []step
	for _, e := range s.Events {
		out = append(out, step{time: e.Time, kind: stepEvent, event: e})
	}
	for _, w := range s.Wait {
		out = append(out, step{time: w.Time, kind: stepWait, wait: w})
	}

	layers := make([]string, 0, len(s.Expectations))
	for layer := range s.Expectations {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	for _, layer := range layers {
		for _, exp := range s.Expectations[layer] {
			out = append(out, step{time: exp.Time, kind: stepCheck, layer: layer, exp: exp})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].time != out[j].time {
			return out[i].time < out[j].time
		}
		return out[i].kind < out[j].kind
	})
	return out
}

// Run executes a scenario
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, []reporter.TimelineEvent, error) {
	r.logger.Info("Starting scenario", "name", s.Name, "description", s.Description)

	if err := r.observer.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start observer: %w", err)
	}

	if s.Startup > 0 {
		r.logger.Info("Waiting for agents to start up", "seconds", s.Startup)
		if err := r.wait(ctx, time.Now(), s.Startup); err != nil {
			return nil, nil, err
		}
	}

	startTime := time.Now()
	result := &scenario.TestResult{Scenario: s, StartTime: startTime}
	var timeline []reporter.TimelineEvent

	for _, st := range steps(s) {
		if err := r.wait(ctx, startTime, st.time); err != nil {
			return nil, nil, fmt.Errorf("scenario interrupted: %w", err)
		}
		elapsed := GetElapsed(startTime)

		switch st.kind {
		case stepEvent:
			topic, err := r.player.PublishEvent(st.event, r.observer.GetAllMessages())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to publish event at %ds: %w", st.time, err)
			}
			r.logger.Info("Published event", "elapsed", fmt.Sprintf("%.2fs", elapsed), "topic", topic, "description", st.event.Description)
			timeline = append(timeline, reporter.TimelineEvent{
				Elapsed:     elapsed,
				Layer:       st.event.Kind,
				Description: fmt.Sprintf("%s (%s)", topic, st.event.Description),
			})

		case stepWait:
			r.logger.Info("Wait", "elapsed", fmt.Sprintf("%.2fs", elapsed), "description", st.wait.Description)
			timeline = append(timeline, reporter.TimelineEvent{
				Elapsed:     elapsed,
				Layer:       "wait",
				Description: st.wait.Description,
			})

		case stepCheck:
			res := r.check(ctx, st.layer, st.exp)
			result.Expectations = append(result.Expectations, res)
			if res.Passed {
				result.PassedCount++
				r.logger.Info("Expectation passed", "layer", st.layer, "target", st.exp.Target())
			} else {
				result.FailedCount++
				r.logger.Warn("Expectation failed", "layer", st.layer, "target", st.exp.Target(), "reason", res.Reason)
			}
			timeline = append(timeline, reporter.TimelineEvent{
				Elapsed:     elapsed,
				Layer:       st.layer,
				Description: st.exp.Target(),
				Success:     res.Passed,
				IsCheck:     true,
			})
		}
	}

	result.EndTime = time.Now()
	result.Passed = result.FailedCount == 0
	return result, timeline, nil
}

func (r *Runner) check(ctx context.Context, layer string, exp scenario.Expectation) scenario.ExpectationResult {
	now := r.player.now()
	exp.Topic = expandToday(exp.Topic, now)
	exp.RedisKey = expandToday(exp.RedisKey, now)
	exp.PostgresQuery = expandToday(exp.PostgresQuery, now)

	res := scenario.ExpectationResult{Layer: layer, Expectation: exp}

	switch {
	case exp.PostgresQuery != "":
		if r.postgresChecker == nil {
			res.Reason = "postgres checker not configured"
			return res
		}
		actual, err := r.postgresChecker.CheckQuery(ctx, exp.PostgresQuery, exp.PostgresExpected)
		res.Actual = actual
		if err != nil {
			res.Reason = fmt.Sprintf("postgres check failed: %v", err)
			return res
		}
		res.Passed = true

	case exp.RedisKey != "":
		res.Passed, res.Reason, res.Actual = checker.CheckRedisExpectation(ctx, r.redisClient, exp)

	default:
		res.Passed, res.Reason, res.Actual = checker.CheckExpectation(exp, r.observer.GetAllMessages())
	}

	return res
}

// SaveCapture saves the MQTT capture to a file
func (r *Runner) SaveCapture(filename string) error {
	return r.observer.SaveCapture(filename)
}
