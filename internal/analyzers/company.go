package analyzers

import (
	"context"
	"strings"

	"candidatelens/internal/ai"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// CompanyAssessor asks a model about an employer
type CompanyAssessor interface {
	ResearchCompany(ctx context.Context, company, role string) (ai.CompanyAssessment, error)
}

var (
	faangCompanies   = []string{"google", "facebook", "meta", "apple", "amazon", "netflix"}
	bigTechCompanies = []string{"microsoft", "tesla", "uber", "airbnb", "twitter", "salesforce"}
)

var knownTiers = []string{
	types.TierFAANG,
	types.TierBigTech,
	types.TierUnicorn,
	types.TierLargeEnterprise,
	types.TierMidSize,
	types.TierStartup,
	types.TierUnknown,
}

// Companies rates past employers with a model plus name heuristics
type Companies struct {
	assessor CompanyAssessor
	logger   *errors.Logger
}

func NewCompanies(assessor CompanyAssessor, logger *errors.Logger) *Companies {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Companies{assessor: assessor, logger: logger}
}

// Research never fails: a lookup error yields types.FallbackCompanyResearch
func (c *Companies) Research(ctx context.Context, company, role string) (types.CompanyResearch, error) {
	if c.assessor == nil {
		return types.FallbackCompanyResearch(company, role), nil
	}

	a, err := c.assessor.ResearchCompany(ctx, company, role)
	if err != nil {
		c.logger.Warn("Company research failed, using fallback",
			"company", company,
			"error", err.Error())
		return types.FallbackCompanyResearch(company, role), nil
	}

	return types.CompanyResearch{
		Company:         company,
		Role:            role,
		DifficultyScore: clampScore(a.Difficulty),
		Tier:            NormalizeTier(a.Tier),
		ReputationScore: AdjustReputation(company, a.Reputation),
		Reasoning:       a.Reasoning,
	}, nil
}

// AdjustReputation raises the floor for well-known names and caps names that
// look like small companies, then clamps to 0..100
func AdjustReputation(company string, reputation float64) float64 {
	name := strings.ToLower(company)
	switch {
	case containsAny(name, faangCompanies):
		reputation = max(reputation, 95)
	case containsAny(name, bigTechCompanies):
		reputation = max(reputation, 85)
	case strings.Contains(name, "startup") || strings.Contains(name, "inc"):
		reputation = min(reputation, 70)
	}
	return clampScore(reputation)
}

// NormalizeTier maps free-form model output onto the known tiers
func NormalizeTier(tier string) string {
	t := strings.Trim(strings.TrimSpace(tier), `"'.`)
	for _, known := range knownTiers {
		if strings.EqualFold(t, known) {
			return known
		}
	}

	compact := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(t))
	switch compact {
	case "bigtech":
		return types.TierBigTech
	case "largeenterprise", "enterprise":
		return types.TierLargeEnterprise
	case "midsize", "midsized", "medium":
		return types.TierMidSize
	}
	return types.TierUnknown
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	return max(0, min(100, v))
}
