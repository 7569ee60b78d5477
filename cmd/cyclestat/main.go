// Command cyclestat runs the station ridership analysis end to end: it
// loads the station attribute file, reduces the candidate predictors by
// cross-validated lasso, fits the three reported regression models, and
// writes the tables, the workbook and the figures into the output
// directory.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"cyclestat/analysis"
	"cyclestat/config"
	"cyclestat/pkg/errors"
	"cyclestat/pkg/log"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "cyclestat",
	Short: "Bike share station ridership analysis",
	Long: `cyclestat reproduces the full station ridership study from one
configuration: load and exclusion, the log10 response, cross-validated
lasso reduction, the three OLS fits, and the report artifacts.

Without --config the built-in reference configuration is used.`,
	Example:      "  cyclestat --config analysis.yaml --log-level debug",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("invalid log level %q (use debug, info, warn or error)", logLevel)
	}
	log.SetupLogger(logLevel)

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	runner := analysis.NewRunner(cfg, log.GetLoggerWithName("analysis"))
	_, err := runner.Run(cmd.Context())
	return err
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration file; defaults apply when omitted")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
