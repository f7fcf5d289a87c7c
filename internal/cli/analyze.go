package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"candidatelens/internal/analysis"
	"candidatelens/internal/common"
	"candidatelens/internal/observability"
	"candidatelens/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze --resume <file> --job <file>",
	Short: "Analyze a candidate against a job description",
	Long: `Analyze a candidate for a role and print the final evaluation.

The resume and job description are YAML or JSON files. The analysis covers:
- Resume and job description matching
- GitHub, LinkedIn, Twitter and Medium activity
- Live evaluation of deployed projects
- Research on past employers
- A weighted overall score, a recommendation and a written report

Weights come from the configured defaults, optionally replaced by a preset
(--preset) and finally overridden key by key (--weights github_analysis=0.3,...).`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

var analyzeFlags struct {
	resume   string
	job      string
	preset   string
	weights  string
	mode     string
	progress bool
}

type analyzeInput struct {
	resume types.Resume
	job    types.JobDescription
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.resume, "resume", "", "Resume file (YAML or JSON)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.job, "job", "", "Job description file (YAML or JSON)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.preset, "preset", "", "Weight preset")
	analyzeCmd.Flags().StringVar(&analyzeFlags.weights, "weights", "", "Weight overrides as key=value,key=value")
	analyzeCmd.Flags().StringVar(&analyzeFlags.mode, "mode", "", "Execution mode: sequential or graph (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.progress, "progress", false, "Print task progress and thinking notes to stderr")
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = analyzeCmd.MarkFlagRequired("resume")
	_ = analyzeCmd.MarkFlagRequired("job")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = analyzeCmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(analysis.ModeSequential), string(analysis.ModeGraph)}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	weights, err := common.ParseWeights(analyzeFlags.weights)
	if err != nil {
		return fmt.Errorf("invalid --weights: %w", err)
	}
	// empty keeps the configured default
	var mode analysis.Mode
	if analyzeFlags.mode != "" {
		if mode, err = analysis.ParseMode(analyzeFlags.mode); err != nil {
			return err
		}
	}

	obs, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			logger.Warn("Observability shutdown failed", "error", err)
		}
	}()
	recorder := obs.NewRecorder()

	var publisher analysis.Publisher
	if analyzeFlags.progress {
		publisher = newProgressPrinter(cmd.ErrOrStderr())
	}

	eng, err := newEngine(cfg, publisher, recorder, recorder, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	loadInput := func(fp *common.FileProcessor) (analyzeInput, error) {
		resume, err := fp.LoadResume(analyzeFlags.resume)
		if err != nil {
			return analyzeInput{}, err
		}
		job, err := fp.LoadJob(analyzeFlags.job)
		if err != nil {
			return analyzeInput{}, err
		}
		return analyzeInput{resume: resume, job: job}, nil
	}

	logDetails := func(in analyzeInput, cc common.CommandConfig) {
		logger.Info("Starting candidate analysis",
			"candidate", in.resume.Name,
			"role", in.job.Title,
			"preset", analyzeFlags.preset,
			"custom_weights", len(weights),
			"output_format", cc.OutputFormat)
	}

	operation := func(ctx context.Context, in analyzeInput) (analysis.Snapshot, error) {
		st, err := eng.orchestrator.Prepare(analysis.StartRequest{
			Resume:  in.resume,
			Job:     in.job,
			Weights: weights,
			Preset:  analyzeFlags.preset,
			Mode:    mode,
		})
		if err != nil {
			return analysis.Snapshot{}, err
		}
		return eng.orchestrator.Run(ctx, st), nil
	}

	err = common.RunCommand(cmd.Context(), logger, analyzeConfig, cfg.App.MaxFileSize, cmd.OutOrStdout(),
		loadInput, operation, logDetails)
	if err != nil {
		return fmt.Errorf("failed to analyze candidate: %w", err)
	}
	logger.Info("Candidate analysis completed successfully")
	return nil
}

// progressPrinter writes task transitions and new thinking notes as they arrive
type progressPrinter struct {
	w io.Writer

	mu        sync.Mutex
	notesSeen int
	statuses  map[string]analysis.TaskStatus
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, statuses: make(map[string]analysis.TaskStatus)}
}

func (p *progressPrinter) Publish(_ context.Context, snap analysis.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, rec := range snap.Progress {
		if p.statuses[rec.TaskID] == rec.Status {
			continue
		}
		p.statuses[rec.TaskID] = rec.Status
		if rec.Status == analysis.StatusPending {
			continue
		}
		line := fmt.Sprintf("[%5.1f%%] %s: %s", snap.OverallProgress(), rec.TaskName, rec.Status)
		if rec.Score != nil {
			line += fmt.Sprintf(" (%.1f)", *rec.Score)
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}

	for _, note := range snap.Notes[min(p.notesSeen, len(snap.Notes)):] {
		if _, err := fmt.Fprintf(p.w, "  > %s\n", note.Text); err != nil {
			return err
		}
	}
	p.notesSeen = max(p.notesSeen, len(snap.Notes))
	return nil
}
