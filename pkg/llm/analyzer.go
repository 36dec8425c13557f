package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// Analyzer turns domain input into a prompt and the model's answer back into
// validated domain output
type Analyzer[TInput any, TOutput any] interface {
	BuildPrompt(input TInput) string
	ParseResponse(response string) (TOutput, error)
	Validate(output TOutput) error
}

// Analyze runs prompt building, generation, parsing and validation. metrics
// may be nil.
func Analyze[TInput any, TOutput any](
	ctx context.Context,
	client Client,
	analyzer Analyzer[TInput, TOutput],
	model string,
	input TInput,
	metrics *MetricsCollector,
	logger *slog.Logger,
) (TOutput, error) {
	var zero TOutput

	prompt := analyzer.BuildPrompt(input)
	logger.Debug("Building LLM prompt", "prompt_length", len(prompt))

	resp, err := client.Generate(ctx, DefaultGenerateRequest(model, prompt))
	if err != nil {
		metrics.RecordError()
		return zero, fmt.Errorf("LLM generate failed: %w", err)
	}
	metrics.Record(resp)

	output, err := analyzer.ParseResponse(resp.Response)
	if err != nil {
		metrics.RecordError()
		logger.Error("Failed to parse LLM response",
			"response", resp.Response,
			"error", err)
		return zero, fmt.Errorf("parse response failed: %w", err)
	}

	if err := analyzer.Validate(output); err != nil {
		metrics.RecordError()
		return zero, fmt.Errorf("validation failed: %w", err)
	}

	logger.Debug("LLM analysis complete",
		"eval_count", resp.EvalCount,
		"duration_ms", resp.TotalDuration/1_000_000)

	return output, nil
}
