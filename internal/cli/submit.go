package cli

import (
	"fmt"

	"careertools/internal/common"

	"github.com/spf13/cobra"
)

var (
	submitConfig  common.CommandConfig
	submitProfile string
)

var submitCmd = &cobra.Command{
	Use:   "submit <tool> --profile <file>",
	Short: "Submit a saved profile to a tool without the wizard",
	Long: `Submit a profile stored as YAML or JSON to one of the career tools.

The profile is validated step by step before anything is sent; the first failing
step is reported without a network call. On success the rendered result is
written to stdout or --output. Validation errors, rate limiting and server errors
exit with a non-zero status. With --format json the full outcome is printed,
including the retry hint of a rate-limited request.`,
	Example: `  careertools submit opportunity-heatmap --profile me.yaml
  careertools submit salary-comparator --profile salary.json --format markdown -o salary.md`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: toolNames,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd.Context(), &submitConfig)
	},
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitProfile, "profile", "p", "", "Profile file (.yaml, .yml or .json)")
	_ = submitCmd.MarkFlagRequired("profile")
	addOutputFlags(submitCmd, &submitConfig)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	tool, err := common.ResolveTool(args[0])
	if err != nil {
		return err
	}

	profile, err := common.NewFileProcessor(logger, cfg.App.MaxFileSize).LoadProfile(submitProfile, tool)
	if err != nil {
		return err
	}

	om, err := startObservability(cfg)
	if err != nil {
		return err
	}
	defer stopObservability(om, logger)

	orch := newOrchestrator(cfg, tool, om, logger)
	logger.Info("Submitting saved profile",
		"tool", tool.Kind,
		"profile", submitProfile,
		"endpoint", orch.URL(),
		"output_format", submitConfig.OutputFormat)

	if err := common.RunSubmission(cmd.Context(), logger, submitConfig, tool, orch, profile); err != nil {
		return fmt.Errorf("%s: %w", tool.Title, err)
	}
	logger.Info("Submission completed successfully", "tool", tool.Kind)
	return nil
}
