package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnparsedRationale is the rationale attached to neutral defaults
const UnparsedRationale = "Unable to parse model response"

// NeutralScore is used for every score a model response failed to provide
const NeutralScore = 50.0

// DecodeJSON extracts the first JSON object from a model response. Markdown
// code fences and any prose around the object are ignored.
func DecodeJSON[T any](raw string) (T, error) {
	var out T

	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return out, fmt.Errorf("no JSON object in model response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("failed to decode model response: %w", err)
	}
	return out, nil
}

// parseWithDefault decodes raw into T, or logs and returns def
func parseWithDefault[T any](s *Service, operation, raw string, def T) T {
	out, err := DecodeJSON[T](raw)
	if err != nil {
		s.logger.Warn("Model returned malformed JSON, using neutral default",
			"operation", operation,
			"error", err.Error(),
			"response_length", len(raw))
		return def
	}
	return out
}

func clampScore(v float64) float64 {
	return max(0, min(100, v))
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
