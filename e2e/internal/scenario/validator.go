package scenario

import (
	"fmt"
	"strings"
)

// ValidateScenario performs validation checks on a loaded scenario
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("scenario description is required")
	}

	if s.Startup < 0 {
		return fmt.Errorf("startup cannot be negative")
	}

	if err := validateEvents(s.Events); err != nil {
		return fmt.Errorf("events validation failed: %w", err)
	}

	if err := validateWaitPeriods(s.Wait); err != nil {
		return fmt.Errorf("wait periods validation failed: %w", err)
	}

	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}

	return nil
}

func validateEvents(events []Event) error {
	if len(events) == 0 {
		return fmt.Errorf("at least one event is required")
	}

	last := 0
	for i, event := range events {
		if event.Time < 0 {
			return fmt.Errorf("event %d: time cannot be negative", i)
		}
		if event.Time < last {
			return fmt.Errorf("event %d: events must be in time order", i)
		}
		last = event.Time

		switch event.Kind {
		case KindDay, KindAction, KindObserved:
		default:
			return fmt.Errorf("event %d: unknown kind %q (want day, action or observed)", i, event.Kind)
		}

		if event.Source == "" || strings.ContainsAny(event.Source, "/+#") {
			return fmt.Errorf("event %d: source must be a single topic level", i)
		}

		if len(event.Payload) == 0 {
			return fmt.Errorf("event %d: payload is required", i)
		}

		if event.Description == "" {
			return fmt.Errorf("event %d: description is required", i)
		}
	}

	return nil
}

func validateWaitPeriods(waits []WaitPeriod) error {
	for i, wait := range waits {
		if wait.Time < 0 {
			return fmt.Errorf("wait period %d: time cannot be negative", i)
		}

		if wait.Description == "" {
			return fmt.Errorf("wait period %d: description is required", i)
		}
	}

	return nil
}

func validateExpectations(expectations map[string][]Expectation) error {
	if len(expectations) == 0 {
		return fmt.Errorf("at least one expectation is required")
	}

	for layer, exps := range expectations {
		if layer == "" {
			return fmt.Errorf("expectation layer name cannot be empty")
		}

		for i, exp := range exps {
			if exp.Time < 0 {
				return fmt.Errorf("layer %s, expectation %d: time cannot be negative", layer, i)
			}

			checks := 0
			for _, set := range []bool{exp.Topic != "", exp.RedisKey != "", exp.PostgresQuery != ""} {
				if set {
					checks++
				}
			}
			if checks != 1 {
				return fmt.Errorf("layer %s, expectation %d: exactly one of topic, redis_key or postgres_query is required", layer, i)
			}

			if exp.Topic != "" && len(exp.Payload) == 0 && exp.MinCount == 0 {
				return fmt.Errorf("layer %s, expectation %d: MQTT expectations require payload or min_count", layer, i)
			}
			if exp.MinCount < 0 {
				return fmt.Errorf("layer %s, expectation %d: min_count cannot be negative", layer, i)
			}
			if exp.RedisKey != "" && exp.Expected == "" {
				return fmt.Errorf("layer %s, expectation %d: expected is required when redis_key is specified", layer, i)
			}
			if exp.PostgresQuery != "" && exp.PostgresExpected == nil {
				return fmt.Errorf("layer %s, expectation %d: postgres_expected is required when postgres_query is specified", layer, i)
			}
		}
	}

	return nil
}
