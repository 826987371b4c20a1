package cli

import (
	"context"
	"fmt"

	"careertools/internal/common"
	"careertools/internal/config"
	"careertools/internal/errors"
	"careertools/internal/types"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "careertools",
	Short: "Run career analysis tools from the command line",
	Long: `careertools walks you through the career analysis tools (opportunity heatmap,
skill gap analyzer, salary comparator, resume gap finder and retirement calculator),
submits your answers to the analysis API and renders the result.

It also ships a development server that speaks the same API.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareCommand,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = withConfig(ctx, cfg, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func withConfig(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// prepareCommand reloads configuration when --config is given and resolves Vault secrets
func prepareCommand(cmd *cobra.Command, _ []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if configFile != "" {
		loaded, err := config.LoadConfigFile(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if l, err := errors.New(cfg.App.LogLevel); err == nil {
			logger = l
		}
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to load secrets from vault: %w", err)
	}

	cmd.SetContext(withConfig(cmd.Context(), cfg, logger))
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// toolNames completes the tool argument
func toolNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, 0, len(types.ToolKinds()))
	for _, kind := range types.ToolKinds() {
		names = append(names, string(kind))
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// addOutputFlags registers --output and --format
func addOutputFlags(cmd *cobra.Command, target *common.CommandConfig) {
	cmd.Flags().StringVarP(&target.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&target.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutput applies the configured default format and file size limit
func resolveOutput(ctx context.Context, target *common.CommandConfig) error {
	cfg := getConfigFromContext(ctx)
	if target.OutputFormat == "" {
		target.OutputFormat = cfg.App.DefaultFormat
	}
	target.MaxFileSize = cfg.App.MaxFileSize
	return common.ValidateOutputFormat(target.OutputFormat, cfg.App.SupportedFormats)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, $HOME/.careertools/config.yaml, /etc/careertools/config.yaml)")

	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
