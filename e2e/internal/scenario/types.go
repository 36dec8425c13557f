// Package scenario describes end-to-end runs of the wellbeing pipeline:
// raw messages to replay and the events and state expected afterwards.
package scenario

import "time"

// Message kinds accepted by the wellbeing agent
const (
	KindDay      = "day"
	KindAction   = "action"
	KindObserved = "observed"
)

// Scenario represents a complete E2E test scenario
type Scenario struct {
	Name         string                   `yaml:"name"`
	Description  string                   `yaml:"description"`
	Startup      int                      `yaml:"startup"` // seconds to wait for agents before the first event
	Events       []Event                  `yaml:"events"`
	Wait         []WaitPeriod             `yaml:"wait"`
	Expectations map[string][]Expectation `yaml:"expectations"`
}

// Event is one raw message published to wellbeing/raw/{kind}/{source}.
// Payload strings may hold $today, $now+<duration> or
// "$ref:<topic filter>:<path>" tokens, e.g.
// "$ref:wellbeing/event/recommendations/+:data.0.id".
type Event struct {
	Time        int                    `yaml:"time"` // Seconds from start
	Kind        string                 `yaml:"kind"`
	Source      string                 `yaml:"source"`
	Payload     map[string]interface{} `yaml:"payload"`
	Description string                 `yaml:"description"`
}

// WaitPeriod represents a pause in the scenario
type WaitPeriod struct {
	Time        int    `yaml:"time"` // Seconds from start
	Description string `yaml:"description"`
}

// Expectation is one outcome to verify. Exactly one of Topic, RedisKey or
// PostgresQuery selects the check.
type Expectation struct {
	Time int `yaml:"time"` // Seconds from start

	// MQTT checks. Topic may contain + and # wildcards; the latest matching
	// message is compared against Payload.
	Topic    string                 `yaml:"topic,omitempty"`
	Payload  map[string]interface{} `yaml:"payload,omitempty"`
	MinCount int                    `yaml:"min_count,omitempty"`

	// Redis checks. Expected "*" only requires the key to exist.
	RedisKey string `yaml:"redis_key,omitempty"`
	Expected string `yaml:"expected,omitempty"`

	// Postgres checks on a single-value query
	PostgresQuery    string      `yaml:"postgres_query,omitempty"`
	PostgresExpected interface{} `yaml:"postgres_expected,omitempty"`
}

// Target names what the expectation checks, for logs and reports
func (e Expectation) Target() string {
	switch {
	case e.Topic != "":
		return e.Topic
	case e.RedisKey != "":
		return "redis " + e.RedisKey
	default:
		return "postgres query"
	}
}

// TestResult represents the outcome of running a scenario
type TestResult struct {
	Scenario     *Scenario           `json:"scenario"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	Passed       bool                `json:"passed"`
	PassedCount  int                 `json:"passed_count"`
	FailedCount  int                 `json:"failed_count"`
	Expectations []ExpectationResult `json:"expectations"`
}

// ExpectationResult represents the result of checking a single expectation
type ExpectationResult struct {
	Layer       string      `json:"layer"`
	Expectation Expectation `json:"expectation"`
	Passed      bool        `json:"passed"`
	Reason      string      `json:"reason,omitempty"`
	Actual      interface{} `json:"actual,omitempty"`
}
