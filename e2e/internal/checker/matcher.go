// Package checker compares observed pipeline state with scenario
// expectations.
package checker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Match reports whether actual satisfies expected. Expected strings support
// "~pattern~" for regular expressions, ">n" "<n" ">=n" "<=n" for numeric
// bounds and "*" for any non-nil value. Maps match on the expected keys only;
// slices match element-wise.
func Match(actual, expected interface{}) (bool, string) {
	if expected == nil {
		if actual == nil {
			return true, ""
		}
		return false, fmt.Sprintf("expected nil, got %v", actual)
	}
	if actual == nil {
		return false, fmt.Sprintf("expected %v, got nil", expected)
	}

	switch exp := expected.(type) {
	case string:
		return matchString(actual, exp)
	case bool:
		got, ok := actual.(bool)
		if !ok {
			return false, fmt.Sprintf("expected bool, got %T", actual)
		}
		if got != exp {
			return false, fmt.Sprintf("expected %v, got %v", exp, got)
		}
		return true, ""
	case map[string]interface{}:
		return matchMap(actual, exp)
	case []interface{}:
		return matchSlice(actual, exp)
	}

	want, err := toFloat64(expected)
	if err != nil {
		return false, fmt.Sprintf("unsupported expected type %T", expected)
	}
	got, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("expected number, got %T", actual)
	}
	if got != want {
		return false, fmt.Sprintf("expected %v, got %v", want, got)
	}
	return true, ""
}

func matchString(actual interface{}, expected string) (bool, string) {
	switch {
	case expected == "*":
		return true, ""
	case len(expected) > 1 && strings.HasPrefix(expected, "~") && strings.HasSuffix(expected, "~"):
		return matchRegex(actual, strings.Trim(expected, "~"))
	case strings.HasPrefix(expected, ">") || strings.HasPrefix(expected, "<"):
		return matchComparison(actual, expected)
	}

	got, ok := actual.(string)
	if !ok {
		// Postgres and Redis report scalars as text or numbers
		got = fmt.Sprintf("%v", actual)
	}
	if got != expected {
		return false, fmt.Sprintf("expected %q, got %q", expected, got)
	}
	return true, ""
}

func matchRegex(actual interface{}, pattern string) (bool, string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)
	}

	got := fmt.Sprintf("%v", actual)
	if !re.MatchString(got) {
		return false, fmt.Sprintf("value %q does not match pattern ~%s~", got, pattern)
	}
	return true, ""
}

func matchComparison(actual interface{}, comparison string) (bool, string) {
	got, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("cannot compare non-numeric value: %v", actual)
	}

	var op string
	for _, candidate := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(comparison, candidate) {
			op = candidate
			break
		}
	}

	bound, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(comparison, op)), 64)
	if err != nil {
		return false, fmt.Sprintf("invalid comparison value: %s", comparison)
	}

	var ok bool
	switch op {
	case ">":
		ok = got > bound
	case "<":
		ok = got < bound
	case ">=":
		ok = got >= bound
	case "<=":
		ok = got <= bound
	}

	if !ok {
		return false, fmt.Sprintf("expected value %s %v, got %v", op, bound, got)
	}
	return true, ""
}

func matchMap(actual interface{}, expected map[string]interface{}) (bool, string) {
	got, ok := actual.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("expected object, got %T", actual)
	}

	for key, want := range expected {
		value, exists := got[key]
		if !exists {
			return false, fmt.Sprintf("missing key %q", key)
		}
		if ok, reason := Match(value, want); !ok {
			return false, fmt.Sprintf("key %q: %s", key, reason)
		}
	}
	return true, ""
}

func matchSlice(actual interface{}, expected []interface{}) (bool, string) {
	got, ok := actual.([]interface{})
	if !ok {
		return false, fmt.Sprintf("expected array, got %T", actual)
	}
	if len(got) != len(expected) {
		return false, fmt.Sprintf("expected array length %d, got %d", len(expected), len(got))
	}

	for i := range expected {
		if ok, reason := Match(got[i], expected[i]); !ok {
			return false, fmt.Sprintf("element %d: %s", i, reason)
		}
	}
	return true, ""
}

// TopicMatches reports whether topic matches an MQTT filter with + and #
func TopicMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, f := range fp {
		if f == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if f != "+" && f != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}

// LookupPath walks a decoded JSON value along a dotted path. Numeric
// segments index into arrays.
func LookupPath(value interface{}, path string) (interface{}, bool) {
	if path == "" {
		return value, true
	}

	current := value
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]interface{}:
			next, ok := v[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []interface{}:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			current = v[i]
		default:
			return nil, false
		}
	}
	return current, true
}

func toFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("not a numeric type: %T", val)
	}
}
