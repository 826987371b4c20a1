package cli

import (
	"fmt"

	"careertools/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the development analysis API",
	Long: `Start an HTTP server that answers the career tool endpoints the same way the
production analysis API does, so the wizard and submit commands can be exercised
locally.

Available endpoints:
- POST /api/opportunity-heatmap
- POST /api/skill-gap-analyzer
- POST /api/salary-comparator
- POST /api/resume-gap-finder
- POST /api/retirement-calculator
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

Results come from built-in fixtures, or from the directory given with --fixtures
(reloaded on change when server.fixtures.watch is set). With --upstream the
requests are relayed to another API behind a circuit breaker instead.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("fixtures", "", "Directory of <tool>.json fixture files (overrides config)")
	serveCmd.Flags().String("upstream", "", "Relay requests to this API base URL instead of fixtures (overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.fixtures.dir", "fixtures")
	bindFlag("server.upstream.url", "upstream")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Flags only win when they were given explicitly
	if viper.IsSet("server.port") {
		cfg.Server.Port = viper.GetString("server.port")
	}
	if viper.IsSet("server.host") {
		cfg.Server.Host = viper.GetString("server.host")
	}
	if viper.IsSet("server.fixtures.dir") {
		cfg.Server.Fixtures.Dir = viper.GetString("server.fixtures.dir")
	}
	if viper.IsSet("server.upstream.url") {
		cfg.Server.Upstream.URL = viper.GetString("server.upstream.url")
	}

	om, err := startObservability(cfg)
	if err != nil {
		return err
	}
	defer stopObservability(om, logger)

	srv, err := server.NewServer(cfg, Version, om, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}
