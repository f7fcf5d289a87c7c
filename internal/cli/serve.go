package cli

import (
	"context"
	"fmt"

	"candidatelens/internal/config"
	"candidatelens/internal/observability"
	"candidatelens/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server that runs candidate analyses in the background.

Available endpoints:
- POST /api/analyze: Start an analysis, returns its id
- GET /api/analysis/{id}: Current progress and, once done, the final result
- DELETE /api/analysis/{id}: Forget an analysis
- GET /ws/{id}: Progress and thinking updates over a websocket
- GET /api/presets: Weight presets
- GET /api/health: Health check including AI model availability
- GET /api/stats: Analysis, subscriber and rate limiting statistics`,
	RunE: runServe,
}

var serveFlags struct {
	port string
	host string
	mode string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.mode, "mode", "", "Default analysis mode: sequential or graph (overrides config)")
}

// applyServeOverrides copies explicitly set flags over the loaded config
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serveFlags.port
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveFlags.host
	}
	if cmd.Flags().Changed("mode") {
		cfg.Analysis.Mode = serveFlags.mode
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	applyServeOverrides(cmd, cfg)

	obs, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	recorder := obs.NewRecorder()

	hub := server.NewHub(cfg.Server.WebSocket, recorder, logger)
	eng, err := newEngine(cfg, hub, recorder, recorder, logger)
	if err != nil {
		_ = obs.Shutdown(context.Background())
		return err
	}

	watcher := config.NewPromptWatcher(cfg, 0, logger)
	if err := watcher.Start(); err != nil {
		// prompts still work, they just won't reload
		logger.Warn("Prompt hot reload unavailable", "error", err)
	}

	models := make(map[string]server.ModelService, len(eng.services))
	for name, svc := range eng.services {
		models[name] = svc
	}

	srv := server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), server.Deps{
		Analyses:      eng.orchestrator,
		Hub:           hub,
		Models:        models,
		Observability: obs,
		Recorder:      recorder,
	}, logger)

	return srv.Start(cmd.Context(),
		eng.orchestrator.Wait,
		func(context.Context) error { return watcher.Stop() },
		func(context.Context) error {
			eng.Close()
			return nil
		},
	)
}
