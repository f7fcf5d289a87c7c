package ai

import (
	"context"
	"strings"

	"candidatelens/internal/config"
	"candidatelens/internal/types"
)

// Match scores a resume against a job description. A response that cannot
// be parsed yields the neutral score rather than an error.
func (s *Service) Match(ctx context.Context, resume types.Resume, job types.JobDescription) (*types.ResumeMatch, error) {
	raw, err := s.generate(ctx, config.PromptResumeMatch, toJSON(resume), toJSON(job))
	if err != nil {
		return nil, err
	}

	match := parseWithDefault(s, config.PromptResumeMatch, raw, types.ResumeMatch{
		Score:    NeutralScore,
		Analysis: UnparsedRationale,
	})
	match.Score = clampScore(match.Score)
	match.Domain = strings.TrimSpace(match.Domain)
	if match.Analysis == "" {
		match.Analysis = UnparsedRationale
	}
	return &match, nil
}
