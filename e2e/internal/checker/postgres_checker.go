package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/saaga0h/jeeves-wellbeing/pkg/postgres"
)

// PostgresChecker validates database state with single-value queries
type PostgresChecker struct {
	client postgres.Client
	logger *slog.Logger
}

// NewPostgresChecker creates a checker on a connected client
func NewPostgresChecker(client postgres.Client, logger *slog.Logger) *PostgresChecker {
	return &PostgresChecker{client: client, logger: logger}
}

// CheckQuery runs query and compares its single result with expected.
// Expected "≈n" accepts values within 20% of n; anything else goes through
// Match.
func (p *PostgresChecker) CheckQuery(ctx context.Context, query string, expected interface{}) (interface{}, error) {
	p.logger.Debug("Executing query", "query", query)

	var result interface{}
	if err := p.client.QueryRow(ctx, query).Scan(&result); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	// lib/pq returns text and numeric columns as []byte
	if b, ok := result.([]byte); ok {
		result = string(b)
	}

	p.logger.Debug("Query result", "actual", result, "expected", expected)

	if s, ok := expected.(string); ok && strings.HasPrefix(s, "≈") {
		return result, compareApproximate(result, strings.TrimPrefix(s, "≈"))
	}

	if ok, reason := Match(result, expected); !ok {
		return result, fmt.Errorf("mismatch: %s", reason)
	}
	return result, nil
}

func compareApproximate(actual interface{}, targetStr string) error {
	target, err := strconv.ParseFloat(strings.TrimSpace(targetStr), 64)
	if err != nil {
		return fmt.Errorf("invalid approximate value: %s", targetStr)
	}

	got, err := toFloat64(actual)
	if err != nil {
		return fmt.Errorf("cannot convert actual value to number: %v", actual)
	}

	tolerance := target * 0.2
	if tolerance < 0 {
		tolerance = -tolerance
	}
	if got >= target-tolerance && got <= target+tolerance {
		return nil
	}

	return fmt.Errorf("value %.2f not within ±20%% of %v", got, target)
}
