package cli

import (
	"fmt"

	"candidatelens/internal/ai"
	"candidatelens/internal/analysis"
	"candidatelens/internal/analyzers"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/report"
	"candidatelens/internal/store"
)

// engine is the assembled analysis stack shared by serve and analyze
type engine struct {
	orchestrator *analysis.Orchestrator
	registry     *store.MemoryStore[*analysis.State]
	services     map[string]*ai.Service
	logger       *errors.Logger
}

// analysisOptions maps the scoring and analysis sections onto orchestrator options
func analysisOptions(cfg *config.Config) (analysis.Options, error) {
	mode, err := analysis.ParseMode(cfg.Analysis.Mode)
	if err != nil {
		return analysis.Options{}, err
	}

	resolver, err := analysis.NewWeightResolver(cfg.Scoring.Weights, cfg.Scoring.Presets)
	if err != nil {
		return analysis.Options{}, err
	}
	if name := cfg.Scoring.Preset; name != "" && name != "default" {
		base, ok := resolver.Preset(name)
		if !ok {
			return analysis.Options{}, errors.NewConfigError(errors.ErrCodeUnknownPreset,
				fmt.Sprintf("scoring.preset %q is not a configured preset", name), nil)
		}
		if resolver, err = analysis.NewWeightResolver(base, cfg.Scoring.Presets); err != nil {
			return analysis.Options{}, err
		}
	}

	sc := cfg.Scoring
	return analysis.Options{
		Mode:               mode,
		SubtaskTimeout:     cfg.Analysis.SubtaskTimeout,
		AggregationTimeout: cfg.Analysis.AggregationTimeout,
		RunTimeout:         cfg.Analysis.RunTimeout,
		MaxParallel:        cfg.Analysis.MaxParallel,
		Weights:            resolver,
		Policy: analysis.ScoringPolicy{
			Thresholds: analysis.Thresholds{
				Excellent: sc.Thresholds.Excellent,
				Good:      sc.Thresholds.Good,
				Average:   sc.Thresholds.Average,
			},
			MissingSlots:         analysis.MissingSlotPolicy(sc.MissingSlotPolicy),
			ProjectPartialCredit: sc.ProjectPartialCredit,
			CompanyLookupPenalty: sc.CompanyLookupPenalty,
			GitHubBlend: analysis.GitHubBlend{
				Quality:    sc.GitHubBlend.Quality,
				Complexity: sc.GitHubBlend.Complexity,
				Domain:     sc.GitHubBlend.Domain,
			},
		},
	}, nil
}

// newAIServices creates one service per AI operation
func newAIServices(cfg *config.Config, observer ai.Observer, logger *errors.Logger) (map[string]*ai.Service, error) {
	ops := []struct {
		name string
		cfg  config.OperationAIConfig
	}{
		{"match", cfg.GetMatchConfig()},
		{"research", cfg.GetResearchConfig()},
		{"report", cfg.GetReportConfig()},
	}

	services := make(map[string]*ai.Service, len(ops))
	for _, op := range ops {
		svc, err := ai.NewService(&op.cfg, op.name, cfg.Prompts(), logger)
		if err != nil {
			closeServices(services, logger)
			return nil, fmt.Errorf("failed to create %s AI service: %w", op.name, err)
		}
		if observer != nil {
			svc.WithObserver(observer)
		}
		services[op.name] = svc
	}
	return services, nil
}

func closeServices(services map[string]*ai.Service, logger *errors.Logger) {
	for name, svc := range services {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close AI service", "operation", name, "error", err)
		}
	}
}

// collaborators wires the platform analyzers. Disabled platforms stay nil so
// their subtasks complete without a result.
func collaborators(cfg *config.Config, services map[string]*ai.Service, logger *errors.Logger) analysis.Collaborators {
	research := services["research"]
	client := analyzers.NewClient(cfg.Platforms.HTTP, logger)
	p := cfg.Platforms

	collab := analysis.Collaborators{
		Matcher:   services["match"],
		Companies: analyzers.NewCompanies(research, logger),
		Reporter:  report.NewWriter(services["report"], logger),
	}
	if p.GitHub.Enabled {
		collab.GitHub = analyzers.NewGitHub(client, p.GitHub, research, logger)
	}
	if p.LinkedIn.Enabled {
		collab.LinkedIn = analyzers.NewLinkedIn(client, p.LinkedIn, research, logger)
	}
	if p.Twitter.Enabled && p.Twitter.BearerToken != "" {
		collab.Twitter = analyzers.NewTwitter(client, p.Twitter, research, logger)
	} else if p.Twitter.Enabled {
		logger.Info("Twitter analysis disabled: no bearer token configured")
	}
	if p.Medium.Enabled {
		collab.Medium = analyzers.NewMedium(client, p.Medium, research, logger)
	}
	if p.Projects.Enabled {
		collab.Projects = analyzers.NewProjects(client, p.Projects, research, logger)
	}
	return collab
}

// newEngine assembles services, analyzers, the registry and the orchestrator
func newEngine(cfg *config.Config, publisher analysis.Publisher, recorder analysis.Recorder, observer ai.Observer, logger *errors.Logger) (*engine, error) {
	opts, err := analysisOptions(cfg)
	if err != nil {
		return nil, err
	}

	services, err := newAIServices(cfg, observer, logger)
	if err != nil {
		return nil, err
	}

	registry := store.NewMemoryStore[*analysis.State](cfg.Analysis.RetentionTTL, cfg.Analysis.JanitorInterval, logger)
	orch, err := analysis.NewOrchestrator(opts, collaborators(cfg, services, logger), registry, publisher, recorder, logger)
	if err != nil {
		registry.Close()
		closeServices(services, logger)
		return nil, err
	}

	return &engine{orchestrator: orch, registry: registry, services: services, logger: logger}, nil
}

// Close releases the registry janitor and the AI clients
func (e *engine) Close() {
	e.registry.Close()
	closeServices(e.services, e.logger)
}
