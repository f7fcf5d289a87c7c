package cli

import (
	"fmt"

	"candidatelens/internal/common"
	"candidatelens/internal/formatters"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the weight presets",
	Long: `List the configured weight presets with the effective weight of every
scored component. "default" is the base table that presets and custom
weights are applied on top of.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if presetsConfig.OutputFormat == "" {
			presetsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(presetsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runPresets,
}

var presetsConfig common.CommandConfig

func init() {
	presetsCmd.Flags().StringVarP(&presetsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	presetsCmd.Flags().StringVar(&presetsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
}

// presetTable resolves every preset against the configured defaults
func presetTable(opts resolverSource) formatters.PresetTable {
	table := make(formatters.PresetTable)
	for _, name := range opts.PresetNames() {
		if weights, ok := opts.Preset(name); ok {
			table[name] = weights
		}
	}
	return table
}

type resolverSource interface {
	PresetNames() []string
	Preset(name string) (map[string]float64, bool)
}

func runPresets(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	opts, err := analysisOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid scoring configuration: %w", err)
	}

	return common.NewOutputHandler(logger).
		WithStdout(cmd.OutOrStdout()).
		HandleOutput(presetTable(opts.Weights), presetsConfig)
}
