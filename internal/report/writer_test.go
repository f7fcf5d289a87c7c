package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidatelens/internal/ai"
	"candidatelens/internal/analysis"
	"candidatelens/internal/types"
)

type fakeNarrator struct {
	report types.Report
	err    error
	facts  ai.ReportFacts
}

func (f *fakeNarrator) WriteReport(_ context.Context, facts ai.ReportFacts) (types.Report, error) {
	f.facts = facts
	return f.report, f.err
}

func sampleSnapshot() (analysis.Snapshot, analysis.Score) {
	snap := analysis.Snapshot{
		AnalysisID:     "a-1",
		Resume:         types.Resume{Name: "Ada"},
		JobDescription: types.JobDescription{Title: "Backend Engineer", Company: "Acme"},
		Weights:        analysis.DefaultWeights(),
		Results: analysis.Results{
			ResumeMatch: &types.ResumeMatch{Score: 80, Analysis: "Good fit", Domain: "backend", MissingSkills: []string{"Kafka"}},
			GitHub:      &types.GitHubAnalysis{Username: "ada", CodeQualityScore: 40, Languages: map[string]int{"Go": 3}},
			Projects:    []types.ProjectEvaluation{{Name: "cli"}},
		},
		Errors: []analysis.TaskError{{TaskName: "Twitter Analysis", Kind: analysis.KindTimedOut}},
	}
	score := analysis.Score{
		Overall:        32,
		Recommendation: analysis.RecommendNoHire,
		SubScores: map[string]float64{
			analysis.WeightResumeMatch: 80,
			analysis.WeightGitHub:      40,
			analysis.WeightProjects:    25,
		},
	}
	return snap, score
}

func TestDeterministic(t *testing.T) {
	snap, score := sampleSnapshot()
	rep := Deterministic(snap, score)

	assert.Equal(t, "Ada scored 32.0/100 for Backend Engineer at Acme. Recommendation: No Hire.", rep.ExecutiveSummary)
	assert.Equal(t, []string{"Resume / JD match scored 80.0/100"}, rep.Strengths)
	assert.Equal(t, []string{
		"GitHub scored 40.0/100",
		"Projects scored 25.0/100",
		"Missing skills: Kafka",
		"Twitter Analysis analysis timed out",
	}, rep.Concerns)
	assert.Contains(t, rep.DetailedReport, "| GitHub | 40.0 | 20% |")
	assert.Contains(t, rep.DetailedReport, "- cli: no URL provided")
	assert.Contains(t, rep.DetailedReport, "**Domain:** backend")
}

func TestWriterUsesNarrator(t *testing.T) {
	snap, score := sampleSnapshot()
	n := &fakeNarrator{report: types.Report{ExecutiveSummary: "Narrated", DetailedReport: "Long form"}}

	rep, err := NewWriter(n, nil).Write(context.Background(), snap, score)
	require.NoError(t, err)
	assert.Equal(t, "Narrated", rep.ExecutiveSummary)
	assert.Equal(t, "Long form", rep.DetailedReport)
	assert.NotEmpty(t, rep.Strengths, "computed strengths fill in for missing ones")

	assert.Equal(t, "Ada", n.facts.Candidate)
	assert.Equal(t, 32.0, n.facts.OverallScore)
	assert.Contains(t, n.facts.Sources, "github")
	assert.NotContains(t, n.facts.Sources, "twitter")
}

func TestWriterFallsBack(t *testing.T) {
	snap, score := sampleSnapshot()

	rep, err := NewWriter(&fakeNarrator{err: errors.New("quota")}, nil).Write(context.Background(), snap, score)
	require.NoError(t, err)
	assert.Equal(t, Deterministic(snap, score), rep)
}

func TestWriterHonoursCancellation(t *testing.T) {
	snap, score := sampleSnapshot()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWriter(&fakeNarrator{err: context.Canceled}, nil).Write(ctx, snap, score)
	assert.ErrorIs(t, err, context.Canceled)
}
