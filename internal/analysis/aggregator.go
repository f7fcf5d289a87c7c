package analysis

import (
	"fmt"
	"maps"

	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// MissingSlotPolicy decides how kinds without a result affect the total
type MissingSlotPolicy string

const (
	// MissingExclude sums weighted sub-scores over populated kinds only
	MissingExclude MissingSlotPolicy = "exclude"
	// MissingRenormalize divides the weighted sum by the weight of populated kinds
	MissingRenormalize MissingSlotPolicy = "renormalize"
)

// GitHubBlend weights the three GitHub sub-metrics
type GitHubBlend struct {
	Quality    float64 `mapstructure:"quality" json:"quality"`
	Complexity float64 `mapstructure:"complexity" json:"complexity"`
	Domain     float64 `mapstructure:"domain" json:"domain"`
}

// ScoringPolicy holds every tunable of the aggregator
type ScoringPolicy struct {
	Thresholds           Thresholds
	MissingSlots         MissingSlotPolicy
	ProjectPartialCredit float64
	CompanyLookupPenalty float64
	GitHubBlend          GitHubBlend
}

func DefaultPolicy() ScoringPolicy {
	return ScoringPolicy{
		Thresholds:           DefaultThresholds(),
		MissingSlots:         MissingExclude,
		ProjectPartialCredit: 25,
		CompanyLookupPenalty: 20,
		GitHubBlend:          GitHubBlend{Quality: 0.4, Complexity: 0.3, Domain: 0.3},
	}
}

// Score is the aggregator output
type Score struct {
	Overall        float64
	Recommendation string
	// SubScores holds the 0-100 score of every populated kind
	SubScores map[string]float64
	// Contributions holds SubScores[k] * weight[k]
	Contributions map[string]float64
}

// Aggregator combines partial results into one score
type Aggregator struct {
	policy ScoringPolicy
	logger *errors.Logger
}

func NewAggregator(policy ScoringPolicy, logger *errors.Logger) *Aggregator {
	if logger == nil {
		logger = errors.Discard()
	}
	if policy.MissingSlots == "" {
		policy.MissingSlots = MissingExclude
	}
	return &Aggregator{policy: policy, logger: logger}
}

func (a *Aggregator) Policy() ScoringPolicy { return a.policy }

type kindScorer struct {
	key string
	// score returns the sub-score and whether the slot is populated
	score func(r Results) (float64, bool)
}

func (a *Aggregator) scorers() []kindScorer {
	p := a.policy
	return []kindScorer{
		// resume match always counts, with 0 when it failed
		{WeightResumeMatch, func(r Results) (float64, bool) {
			if r.ResumeMatch == nil {
				return 0, true
			}
			return clamp(r.ResumeMatch.Score, 0, 100), true
		}},
		{WeightGitHub, func(r Results) (float64, bool) {
			if r.GitHub == nil {
				return 0, false
			}
			return GitHubScore(*r.GitHub, p.GitHubBlend), true
		}},
		{WeightLinkedIn, func(r Results) (float64, bool) {
			if r.LinkedIn == nil {
				return 0, false
			}
			return LinkedInScore(*r.LinkedIn), true
		}},
		{WeightTwitter, func(r Results) (float64, bool) {
			if r.Twitter == nil {
				return 0, false
			}
			return TwitterScore(*r.Twitter), true
		}},
		{WeightBlogs, func(r Results) (float64, bool) {
			if r.Medium == nil {
				return 0, false
			}
			return MediumScore(*r.Medium), true
		}},
		{WeightProjects, func(r Results) (float64, bool) {
			if r.Projects == nil {
				return 0, false
			}
			return PortfolioScore(r.Projects, p.ProjectPartialCredit), true
		}},
		{WeightExperience, func(r Results) (float64, bool) {
			if r.Companies == nil {
				return 0, false
			}
			return ExperienceScore(r.Companies, p.CompanyLookupPenalty), true
		}},
	}
}

// Aggregate scores whatever slots are populated. A panic while scoring one
// kind is recovered and that kind contributes 0.
func (a *Aggregator) Aggregate(results Results, weights map[string]float64) Score {
	out := Score{
		SubScores:     make(map[string]float64),
		Contributions: make(map[string]float64),
	}

	var total, populatedWeight float64
	for _, ks := range a.scorers() {
		sub, ok := a.safeScore(ks, results)
		if !ok {
			continue
		}
		w := weights[ks.key]
		out.SubScores[ks.key] = sub
		out.Contributions[ks.key] = sub * w
		total += sub * w
		populatedWeight += w
	}

	if a.policy.MissingSlots == MissingRenormalize && populatedWeight > 0 {
		total = total / populatedWeight
	}

	out.Overall = clamp(total, 0, 100)
	out.Recommendation = a.policy.Thresholds.Recommend(out.Overall)
	return out
}

func (a *Aggregator) safeScore(ks kindScorer, r Results) (score float64, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.LogError(fmt.Errorf("%v", rec), "Scoring component panicked", "component", ks.key)
			score, ok = 0, true
		}
	}()
	score, ok = ks.score(r)
	return clamp(score, 0, 100), ok
}

// FinalResult wraps a Score into the terminal result type
func (s Score) FinalResult(weights map[string]float64) *types.FinalResult {
	return &types.FinalResult{
		OverallScore:   s.Overall,
		Recommendation: s.Recommendation,
		ScoreBreakdown: maps.Clone(s.SubScores),
		Weights:        maps.Clone(weights),
	}
}

// DegradedResult is the final result used when aggregation itself failed:
// only the resume match contributes and the recommendation is marked incomplete.
func DegradedResult(results Results, weights map[string]float64) *types.FinalResult {
	var resume float64
	if results.ResumeMatch != nil {
		resume = clamp(results.ResumeMatch.Score, 0, 100)
	}
	return &types.FinalResult{
		OverallScore:   clamp(resume*weights[WeightResumeMatch], 0, 100),
		Recommendation: RecommendIncomplete,
		ScoreBreakdown: map[string]float64{WeightResumeMatch: resume},
		Weights:        maps.Clone(weights),
		Incomplete:     true,
		Report: types.Report{
			ExecutiveSummary: "Analysis completed with errors. Some components may have timed out.",
			DetailedReport:   "Analysis completed with errors. Some components may have timed out.",
		},
	}
}

// GitHubScore blends quality, complexity and domain relevance
func GitHubScore(g types.GitHubAnalysis, b GitHubBlend) float64 {
	return clamp(g.CodeQualityScore*b.Quality+
		g.ProjectComplexityScore*b.Complexity+
		g.DomainRelevanceScore*b.Domain, 0, 100)
}

// LinkedInScore is zero when no domain-relevant post was found
func LinkedInScore(l types.LinkedInAnalysis) float64 {
	if l.DomainRelevantPosts == 0 {
		return 0
	}
	return clamp(l.DomainRelevanceScore, 0, 100)
}

// TwitterScore is zero without relevant tweets or followers
func TwitterScore(t types.TwitterAnalysis) float64 {
	if t.RelevantTweets == 0 || t.Followers == 0 {
		return 0
	}
	return clamp(t.DomainRelevanceScore, 0, 100)
}

// MediumScore is zero without articles or on-topic articles
func MediumScore(m types.MediumAnalysis) float64 {
	if m.Articles == 0 || m.RelevantArticles == 0 {
		return 0
	}
	return clamp(m.DomainRelevanceScore, 0, 100)
}

// ProjectAverage is the mean of the four per-project sub-scores
func ProjectAverage(p types.ProjectEvaluation) float64 {
	return (p.ComplexityScore + p.PerformanceScore + p.ResponsivenessScore + p.SEOScore) / 4
}

// PortfolioScore averages evaluated projects with partial credit for
// projects that had nothing to evaluate. No projects scores 0.
func PortfolioScore(projects []types.ProjectEvaluation, partialCredit float64) float64 {
	if len(projects) == 0 {
		return 0
	}
	var sum float64
	for _, p := range projects {
		if p.Evaluated {
			sum += ProjectAverage(p)
		} else {
			sum += partialCredit
		}
	}
	return clamp(sum/float64(len(projects)), 0, 100)
}

// ExperienceScore averages difficulty and reputation per employer. A result
// equal to the researcher's fallback values scores the penalty instead.
func ExperienceScore(companies []types.CompanyResearch, penalty float64) float64 {
	if len(companies) == 0 {
		return 0
	}
	var sum float64
	for _, c := range companies {
		if c.IsFallback() {
			sum += penalty
			continue
		}
		sum += (c.DifficultyScore + c.ReputationScore) / 2
	}
	return clamp(sum/float64(len(companies)), 0, 100)
}
