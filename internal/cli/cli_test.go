package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidatelens/internal/analysis"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			Presets: map[string]map[string]float64{
				"open_source": {analysis.WeightGitHub: 0.35, analysis.WeightResumeMatch: 0.10},
			},
			Thresholds:           config.ThresholdsConfig{Excellent: 85, Good: 70, Average: 55},
			MissingSlotPolicy:    "renormalize",
			ProjectPartialCredit: 25,
			CompanyLookupPenalty: 20,
			GitHubBlend:          config.GitHubBlendConfig{Quality: 0.4, Complexity: 0.3, Domain: 0.3},
		},
		Analysis: config.AnalysisConfig{
			Mode:           "graph",
			SubtaskTimeout: 30 * time.Second,
			RunTimeout:     time.Minute,
			MaxParallel:    3,
		},
	}
}

func TestAnalysisOptions(t *testing.T) {
	opts, err := analysisOptions(testConfig())
	require.NoError(t, err)

	assert.Equal(t, analysis.ModeGraph, opts.Mode)
	assert.Equal(t, 30*time.Second, opts.SubtaskTimeout)
	assert.Equal(t, 3, opts.MaxParallel)
	assert.Equal(t, analysis.MissingRenormalize, opts.Policy.MissingSlots)
	assert.Equal(t, 70.0, opts.Policy.Thresholds.Good)

	w, err := opts.Weights.Resolve("", nil)
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultWeights(), w)
}

func TestAnalysisOptionsConfiguredPreset(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.Preset = "open_source"

	opts, err := analysisOptions(cfg)
	require.NoError(t, err)
	w, err := opts.Weights.Resolve("", nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, w[analysis.WeightGitHub], 1e-9)
	assert.InDelta(t, 0.10, w[analysis.WeightResumeMatch], 1e-9)

	cfg.Scoring.Preset = "missing"
	_, err = analysisOptions(cfg)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnknownPreset))
}

func TestAnalysisOptionsRejectsMode(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.Mode = "parallel"
	_, err := analysisOptions(cfg)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
}

func TestPresetTable(t *testing.T) {
	opts, err := analysisOptions(testConfig())
	require.NoError(t, err)

	table := presetTable(opts.Weights)
	require.Contains(t, table, "default")
	require.Contains(t, table, "open_source")
	assert.InDelta(t, 0.35, table["open_source"][analysis.WeightGitHub], 1e-9)
	assert.Equal(t, analysis.DefaultWeights()[analysis.WeightTwitter], table["open_source"][analysis.WeightTwitter])
}

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)
	score := 80.0

	snap := analysis.Snapshot{
		Progress: []analysis.TaskRecord{
			{TaskID: analysis.TaskResumeMatch, TaskName: "Resume and JD Matching", Status: analysis.StatusCompleted, Score: &score},
			{TaskID: analysis.TaskGitHub, TaskName: "GitHub Analysis", Status: analysis.StatusPending},
		},
		Notes: []analysis.Note{{TaskID: analysis.TaskResumeMatch, Text: "Matched 7 of 9 requirements"}},
	}
	require.NoError(t, p.Publish(context.Background(), snap))
	assert.Equal(t, "[ 50.0%] Resume and JD Matching: completed (80.0)\n  > Matched 7 of 9 requirements\n", out.String())

	// unchanged snapshot prints nothing
	out.Reset()
	require.NoError(t, p.Publish(context.Background(), snap))
	assert.Empty(t, out.String())

	snap.Progress[1].Status = analysis.StatusInProgress
	snap.Notes = append(snap.Notes, analysis.Note{TaskID: analysis.TaskGitHub, Text: "Fetched 12 repositories"})
	require.NoError(t, p.Publish(context.Background(), snap))
	assert.Equal(t, "[ 50.0%] GitHub Analysis: in_progress\n  > Fetched 12 repositories\n", out.String())
}
