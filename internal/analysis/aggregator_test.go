package analysis

import (
	"testing"

	"candidatelens/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateWorkedExample(t *testing.T) {
	agg := NewAggregator(DefaultPolicy(), nil)
	results := Results{
		ResumeMatch: &types.ResumeMatch{Score: 80},
		GitHub: &types.GitHubAnalysis{
			CodeQualityScore:       60,
			ProjectComplexityScore: 60,
			DomainRelevanceScore:   60,
		},
	}

	score := agg.Aggregate(results, DefaultWeights())

	assert.InDelta(t, 32.0, score.Overall, 1e-9)
	assert.Equal(t, RecommendNoHire, score.Recommendation)
	assert.InDelta(t, 20.0, score.Contributions[WeightResumeMatch], 1e-9)
	assert.InDelta(t, 12.0, score.Contributions[WeightGitHub], 1e-9)
	assert.NotContains(t, score.SubScores, WeightLinkedIn)
}

func TestAggregateRenormalize(t *testing.T) {
	policy := DefaultPolicy()
	policy.MissingSlots = MissingRenormalize
	agg := NewAggregator(policy, nil)
	results := Results{
		ResumeMatch: &types.ResumeMatch{Score: 80},
		GitHub: &types.GitHubAnalysis{
			CodeQualityScore:       60,
			ProjectComplexityScore: 60,
			DomainRelevanceScore:   60,
		},
	}

	score := agg.Aggregate(results, DefaultWeights())

	// (20 + 12) / 0.45
	assert.InDelta(t, 71.111111, score.Overall, 1e-5)
	assert.Equal(t, RecommendHire, score.Recommendation)
}

func TestAggregateOnlyResumeMatch(t *testing.T) {
	agg := NewAggregator(DefaultPolicy(), nil)
	weights := DefaultWeights()

	score := agg.Aggregate(Results{ResumeMatch: &types.ResumeMatch{Score: 90}}, weights)
	assert.InDelta(t, 90*weights[WeightResumeMatch], score.Overall, 1e-9)

	// a failed match still counts, as zero
	score = agg.Aggregate(Results{}, weights)
	assert.Zero(t, score.Overall)
	assert.Contains(t, score.SubScores, WeightResumeMatch)
}

func TestAggregateClamps(t *testing.T) {
	agg := NewAggregator(DefaultPolicy(), nil)
	weights := map[string]float64{WeightResumeMatch: 1, WeightGitHub: 1}
	results := Results{
		ResumeMatch: &types.ResumeMatch{Score: 100},
		GitHub: &types.GitHubAnalysis{
			CodeQualityScore:       100,
			ProjectComplexityScore: 100,
			DomainRelevanceScore:   100,
		},
	}
	score := agg.Aggregate(results, weights)
	assert.Equal(t, 100.0, score.Overall)
	assert.Equal(t, RecommendStrongHire, score.Recommendation)
}

func TestSafeScoreRecoversPanic(t *testing.T) {
	agg := NewAggregator(DefaultPolicy(), nil)
	ks := kindScorer{key: WeightBlogs, score: func(Results) (float64, bool) {
		var m map[string]*types.MediumAnalysis
		return m["x"].DomainRelevanceScore, true
	}}

	score, ok := agg.safeScore(ks, Results{})
	assert.True(t, ok)
	assert.Zero(t, score)
}

func TestSocialScoresZeroWithoutSignal(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"linkedin relevant", LinkedInScore(types.LinkedInAnalysis{DomainRelevantPosts: 3, DomainRelevanceScore: 70}), 70},
		{"linkedin no relevant posts", LinkedInScore(types.LinkedInAnalysis{PostsAnalyzed: 10, DomainRelevanceScore: 70}), 0},
		{"twitter relevant", TwitterScore(types.TwitterAnalysis{RelevantTweets: 2, Followers: 100, DomainRelevanceScore: 55}), 55},
		{"twitter no followers", TwitterScore(types.TwitterAnalysis{RelevantTweets: 2, DomainRelevanceScore: 55}), 0},
		{"twitter no relevant tweets", TwitterScore(types.TwitterAnalysis{Followers: 100, DomainRelevanceScore: 55}), 0},
		{"medium relevant", MediumScore(types.MediumAnalysis{Articles: 4, RelevantArticles: 1, DomainRelevanceScore: 65}), 65},
		{"medium no articles", MediumScore(types.MediumAnalysis{DomainRelevanceScore: 65}), 0},
		{"medium off topic", MediumScore(types.MediumAnalysis{Articles: 4, DomainRelevanceScore: 65}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestGitHubScoreBlend(t *testing.T) {
	g := types.GitHubAnalysis{CodeQualityScore: 90, ProjectComplexityScore: 50, DomainRelevanceScore: 70}
	assert.InDelta(t, 90*0.4+50*0.3+70*0.3, GitHubScore(g, DefaultPolicy().GitHubBlend), 1e-9)
}

func TestPortfolioScore(t *testing.T) {
	evaluated := func(s float64) types.ProjectEvaluation {
		return types.ProjectEvaluation{Evaluated: true, ComplexityScore: s, PerformanceScore: s, ResponsivenessScore: s, SEOScore: s}
	}

	t.Run("no projects", func(t *testing.T) {
		assert.Zero(t, PortfolioScore(nil, 25))
		assert.Zero(t, PortfolioScore([]types.ProjectEvaluation{}, 25))
	})

	t.Run("identical projects keep their score", func(t *testing.T) {
		for _, n := range []int{1, 2, 5} {
			projects := make([]types.ProjectEvaluation, n)
			for i := range projects {
				projects[i] = evaluated(64)
			}
			assert.InDelta(t, 64.0, PortfolioScore(projects, 25), 1e-9, "n=%d", n)
		}
	})

	t.Run("unevaluated projects get partial credit", func(t *testing.T) {
		projects := []types.ProjectEvaluation{evaluated(80), {Name: "no url"}}
		assert.InDelta(t, (80.0+25.0)/2, PortfolioScore(projects, 25), 1e-9)
	})

	t.Run("failed fetch scores zero", func(t *testing.T) {
		projects := []types.ProjectEvaluation{evaluated(80), {Evaluated: true, ErrorCount: 1}}
		assert.InDelta(t, 40.0, PortfolioScore(projects, 25), 1e-9)
	})
}

func TestExperienceScore(t *testing.T) {
	known := types.CompanyResearch{Company: "Acme", DifficultyScore: 80, Tier: types.TierBigTech, ReputationScore: 90}
	fallback := types.FallbackCompanyResearch("Nowhere", "Engineer")

	assert.Zero(t, ExperienceScore(nil, 20))
	assert.InDelta(t, 85.0, ExperienceScore([]types.CompanyResearch{known}, 20), 1e-9)
	assert.InDelta(t, 20.0, ExperienceScore([]types.CompanyResearch{fallback}, 20), 1e-9)
	assert.InDelta(t, (85.0+20.0)/2, ExperienceScore([]types.CompanyResearch{known, fallback}, 20), 1e-9)

	// a genuine mid-range result is not treated as a failed lookup
	midSize := types.CompanyResearch{Company: "Mid", DifficultyScore: 50, Tier: types.TierMidSize, ReputationScore: 50}
	assert.InDelta(t, 50.0, ExperienceScore([]types.CompanyResearch{midSize}, 20), 1e-9)
}

func TestRecommendBandsAreMonotonic(t *testing.T) {
	th := DefaultThresholds()
	prev := -1
	for s := 0.0; s <= 100; s += 0.5 {
		band := Band(th.Recommend(s))
		require.GreaterOrEqual(t, band, prev, "score %.1f", s)
		prev = band
	}

	assert.Equal(t, RecommendNoHire, th.Recommend(54.9))
	assert.Equal(t, RecommendMaybe, th.Recommend(55))
	assert.Equal(t, RecommendHire, th.Recommend(70))
	assert.Equal(t, RecommendStrongHire, th.Recommend(85))
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Excellent: 60, Good: 70, Average: 55}.Validate())
	assert.Error(t, Thresholds{Excellent: 120, Good: 70, Average: 55}.Validate())
	assert.Error(t, Thresholds{Excellent: 85, Good: 70, Average: -1}.Validate())
}

func TestMergeWeightsIdempotent(t *testing.T) {
	override := map[string]float64{WeightGitHub: 0.4, WeightTwitter: 0}

	once := MergeWeights(DefaultWeights(), override)
	twice := MergeWeights(once, override)

	assert.Equal(t, once, twice)
	assert.Equal(t, 0.4, once[WeightGitHub])
	assert.Equal(t, 0.0, once[WeightTwitter])
	assert.Equal(t, 0.25, once[WeightResumeMatch])
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range DefaultWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestWeightResolver(t *testing.T) {
	presets := map[string]map[string]float64{
		"open_source": {WeightGitHub: 0.35, WeightResumeMatch: 0.20},
	}
	r, err := NewWeightResolver(nil, presets)
	require.NoError(t, err)

	w, err := r.Resolve("open_source", map[string]float64{WeightResumeMatch: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0.35, w[WeightGitHub])
	assert.Equal(t, 0.3, w[WeightResumeMatch])
	assert.Equal(t, 0.10, w[WeightLinkedIn])

	_, err = r.Resolve("nope", nil)
	assert.Error(t, err)

	_, err = r.Resolve("", map[string]float64{"bogus": 0.1})
	assert.Error(t, err)

	_, err = r.Resolve("", map[string]float64{WeightGitHub: 1.5})
	assert.Error(t, err)

	assert.Equal(t, []string{"default", "open_source"}, r.PresetNames())
}

func TestDegradedResult(t *testing.T) {
	weights := DefaultWeights()
	res := DegradedResult(Results{ResumeMatch: &types.ResumeMatch{Score: 80}}, weights)

	assert.InDelta(t, 20.0, res.OverallScore, 1e-9)
	assert.Equal(t, RecommendIncomplete, res.Recommendation)
	assert.True(t, res.Incomplete)
	assert.Contains(t, res.ExecutiveSummary, "completed with errors")
}
