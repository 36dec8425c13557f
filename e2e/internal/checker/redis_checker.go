package checker

import (
	"context"
	"errors"
	"fmt"

	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

// CheckRedisExpectation validates a Redis key expectation. Expected "*"
// only requires the key to exist.
func CheckRedisExpectation(ctx context.Context, client redis.Client, exp scenario.Expectation) (bool, string, interface{}) {
	if client == nil {
		return false, "redis client not configured", nil
	}

	value, err := client.Get(ctx, exp.RedisKey)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return false, fmt.Sprintf("key %q not found in Redis", exp.RedisKey), nil
	}
	if err != nil {
		return false, fmt.Sprintf("Redis error: %v", err), nil
	}

	if ok, reason := Match(value, exp.Expected); !ok {
		return false, reason, value
	}

	return true, "", value
}
