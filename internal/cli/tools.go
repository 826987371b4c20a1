package cli

import (
	"careertools/internal/common"
	"careertools/internal/formatters"
	"careertools/internal/registry"

	"github.com/spf13/cobra"
)

var toolsConfig common.CommandConfig

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available career tools",
	Long: `List every career tool with its wizard steps, endpoint and request timeout.
Use the tool kind shown in parentheses with the run and submit commands.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd.Context(), &toolsConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLoggerFromContext(cmd.Context())
		return common.NewOutputHandler(logger).
			WithWriter(cmd.OutOrStdout()).
			HandleOutput(formatters.Catalog(registry.All()), toolsConfig)
	},
}

func init() {
	addOutputFlags(toolsCmd, &toolsConfig)
}
