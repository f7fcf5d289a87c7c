package ai

import (
	"context"
	"strings"

	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// ReportFacts is everything the model is allowed to base a report on
type ReportFacts struct {
	Candidate      string             `json:"candidate"`
	Role           string             `json:"role"`
	Company        string             `json:"company,omitempty"`
	Domain         string             `json:"domain"`
	OverallScore   float64            `json:"overall_score"`
	Recommendation string             `json:"recommendation"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	Weights        map[string]float64 `json:"weights"`
	Sources        map[string]any     `json:"sources"`
	Errors         []string           `json:"errors,omitempty"`
}

// WriteReport produces the narrative part of a final result. An empty or
// malformed response is reported as an error so callers can fall back to a
// deterministic report.
func (s *Service) WriteReport(ctx context.Context, facts ReportFacts) (types.Report, error) {
	raw, err := s.generate(ctx, config.PromptFinalReport, toJSON(facts))
	if err != nil {
		return types.Report{}, err
	}

	report, err := DecodeJSON[types.Report](raw)
	if err != nil {
		return types.Report{}, err
	}
	if strings.TrimSpace(report.ExecutiveSummary) == "" && strings.TrimSpace(report.DetailedReport) == "" {
		return types.Report{}, errors.NewAIError(errors.ErrCodeAIServiceFailed, "model returned an empty report", nil)
	}
	return report, nil
}
