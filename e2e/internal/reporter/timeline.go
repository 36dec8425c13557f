// Package reporter renders scenario results for humans and CI.
package reporter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/scenario"
)

const boxWidth = 58

// TimelineEvent is one line of the run timeline
type TimelineEvent struct {
	Elapsed     float64
	Layer       string
	Description string
	Success     bool // ignored unless IsCheck
	IsCheck     bool
}

// GenerateTimeline renders the run as a text timeline followed by the
// expectation results grouped by layer
func GenerateTimeline(result *scenario.TestResult, events []TimelineEvent) string {
	var sb strings.Builder

	writeBox(&sb,
		"Scenario: "+truncate(result.Scenario.Name, boxWidth-12),
		"Duration: "+formatDuration(result.EndTime.Sub(result.StartTime)),
	)
	sb.WriteString("\n")

	for _, event := range events {
		icon := "→"
		if event.IsCheck {
			icon = statusIcon(event.Success)
		}
		fmt.Fprintf(&sb, "[%7.2fs] %s %-13s: %s\n", event.Elapsed, icon, event.Layer, event.Description)
	}

	sb.WriteString("\n=== Expectations ===\n")

	byLayer := make(map[string][]scenario.ExpectationResult)
	for _, res := range result.Expectations {
		byLayer[res.Layer] = append(byLayer[res.Layer], res)
	}
	layers := make([]string, 0, len(byLayer))
	for layer := range byLayer {
		layers = append(layers, layer)
	}
	sort.Strings(layers)

	for _, layer := range layers {
		fmt.Fprintf(&sb, "Layer: %s\n", layer)
		for _, res := range byLayer[layer] {
			fmt.Fprintf(&sb, "  %s %s", statusIcon(res.Passed), res.Expectation.Target())
			if !res.Passed {
				fmt.Fprintf(&sb, ": %s", res.Reason)
			} else if conditions := describePayload(res.Expectation.Payload); conditions != "" {
				fmt.Fprintf(&sb, ": %s", conditions)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	status := "✓ ALL TESTS PASSED"
	if result.FailedCount > 0 {
		status = fmt.Sprintf("✗ %d TEST(S) FAILED", result.FailedCount)
	}
	writeBox(&sb,
		"SUMMARY",
		fmt.Sprintf("Passed: %d", result.PassedCount),
		fmt.Sprintf("Failed: %d", result.FailedCount),
		"Status: "+status,
	)

	return sb.String()
}

func writeBox(sb *strings.Builder, lines ...string) {
	border := strings.Repeat("═", boxWidth)
	fmt.Fprintf(sb, "╔%s╗\n", border)
	for _, line := range lines {
		pad := boxWidth - 2 - len([]rune(line))
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintf(sb, "║  %s%s║\n", line, strings.Repeat(" ", pad))
	}
	fmt.Fprintf(sb, "╚%s╝\n", border)
}

func describePayload(payload map[string]interface{}) string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	for _, key := range keys {
		conditions = append(conditions, fmt.Sprintf("%s=%v", key, payload[key]))
	}
	return strings.Join(conditions, ", ")
}

func statusIcon(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func formatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	minutes := int(seconds / 60)
	return fmt.Sprintf("%dm %.1fs", minutes, seconds-float64(minutes*60))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
