package ai

import (
	"context"
	"fmt"
	"strings"

	"candidatelens/internal/config"
	"candidatelens/internal/types"
)

// RepoReview is the model's judgement of a set of repositories
type RepoReview struct {
	CodeQuality     float64 `json:"code_quality"`
	Complexity      float64 `json:"complexity"`
	DomainRelevance float64 `json:"domain_relevance"`
	Summary         string  `json:"summary"`
}

// ReviewRepositories rates repository metadata for a domain
func (s *Service) ReviewRepositories(ctx context.Context, domain string, repos []types.RepoSummary) (RepoReview, error) {
	var b strings.Builder
	for _, r := range repos {
		desc := r.Description
		if desc == "" {
			desc = "No description"
		}
		lang := r.Language
		if lang == "" {
			lang = "Unknown"
		}
		fmt.Fprintf(&b, "- %s: %s (Language: %s, Stars: %d, Forks: %d, Size: %dKB)\n",
			r.Name, desc, lang, r.Stars, r.Forks, r.Size)
	}

	raw, err := s.generate(ctx, config.PromptGitHubReview, domain, b.String())
	if err != nil {
		return RepoReview{}, err
	}

	review := parseWithDefault(s, config.PromptGitHubReview, raw, RepoReview{
		CodeQuality:     NeutralScore,
		Complexity:      NeutralScore,
		DomainRelevance: NeutralScore,
		Summary:         UnparsedRationale,
	})
	review.CodeQuality = clampScore(review.CodeQuality)
	review.Complexity = clampScore(review.Complexity)
	review.DomainRelevance = clampScore(review.DomainRelevance)
	return review, nil
}

// PostKind selects the classification prompt for a content source
type PostKind string

const (
	PostsLinkedIn PostKind = "linkedin"
	PostsTwitter  PostKind = "twitter"
	PostsMedium   PostKind = "medium"
)

func (k PostKind) prompt() (string, error) {
	switch k {
	case PostsLinkedIn:
		return config.PromptLinkedInPosts, nil
	case PostsTwitter:
		return config.PromptTwitterPosts, nil
	case PostsMedium:
		return config.PromptMediumArticles, nil
	}
	return "", fmt.Errorf("unknown post kind %q", k)
}

// PostClassification counts technical and domain-relevant items in a batch
type PostClassification struct {
	TechnicalCount int      `json:"technical_count"`
	RelevantCount  int      `json:"domain_relevant"`
	RelevanceScore float64  `json:"relevance_score"`
	Topics         []string `json:"topics"`
}

// ClassifyPosts classifies a batch of posts, tweets or articles. Counts are
// capped at the number of items submitted.
func (s *Service) ClassifyPosts(ctx context.Context, kind PostKind, domain string, posts []string) (PostClassification, error) {
	promptName, err := kind.prompt()
	if err != nil {
		return PostClassification{}, err
	}
	if len(posts) == 0 {
		return PostClassification{}, nil
	}

	raw, err := s.generate(ctx, promptName, domain, strings.Join(posts, "\n\n---\n\n"))
	if err != nil {
		return PostClassification{}, err
	}

	c := parseWithDefault(s, promptName, raw, PostClassification{RelevanceScore: NeutralScore})
	c.TechnicalCount = max(0, min(c.TechnicalCount, len(posts)))
	c.RelevantCount = max(0, min(c.RelevantCount, len(posts)))
	c.RelevanceScore = clampScore(c.RelevanceScore)
	return c, nil
}

// ProjectComplexity is the model's estimate for one project
type ProjectComplexity struct {
	ComplexityScore float64  `json:"complexity_score"`
	Notes           []string `json:"notes"`
}

// AssessProjectComplexity rates a project from its description and page text
func (s *Service) AssessProjectComplexity(ctx context.Context, project types.Project, pageText string) (ProjectComplexity, error) {
	desc := project.Description
	if desc == "" {
		desc = "No description"
	}
	raw, err := s.generate(ctx, config.PromptProjectComplexity,
		project.Name, desc, strings.Join(project.Technologies, ", "), truncate(pageText, 1000))
	if err != nil {
		return ProjectComplexity{}, err
	}

	pc := parseWithDefault(s, config.PromptProjectComplexity, raw, ProjectComplexity{
		ComplexityScore: NeutralScore,
		Notes:           []string{UnparsedRationale},
	})
	pc.ComplexityScore = clampScore(pc.ComplexityScore)
	return pc, nil
}

// CompanyAssessment is the raw model view of an employer
type CompanyAssessment struct {
	Difficulty float64 `json:"difficulty_score"`
	Tier       string  `json:"tier"`
	Reputation float64 `json:"reputation_score"`
	Reasoning  string  `json:"reasoning"`
}

// ResearchCompany asks the model about an employer. Callers apply their own
// normalisation on top of the raw assessment.
func (s *Service) ResearchCompany(ctx context.Context, company, role string) (CompanyAssessment, error) {
	raw, err := s.generate(ctx, config.PromptCompanyResearch, company, role)
	if err != nil {
		return CompanyAssessment{}, err
	}

	return parseWithDefault(s, config.PromptCompanyResearch, raw, CompanyAssessment{
		Difficulty: types.FallbackDifficultyScore,
		Tier:       types.FallbackTier,
		Reputation: types.FallbackReputationScore,
		Reasoning:  UnparsedRationale,
	}), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
