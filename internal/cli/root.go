// Package cli provides the command-line interface for anonyfiles.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/config"
	"github.com/raphaelgruber/anonyfiles-go/internal/job"
	"github.com/raphaelgruber/anonyfiles-go/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	envFile string

	// Global config and service client
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	apiClient  *client.Client
	collector  *metrics.Collector
	controller *job.Controller
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "anonyfiles",
	Short: "Anonymize and de-anonymize documents with an anonyfiles service",
	Long: `anonyfiles submits text, CSV, XLSX, DOCX, PDF or JSON documents to an
anonyfiles service and follows the job until the anonymized text, audit log
and mapping table are available.

The service URL is read from ANONYFILES_API_URL (default http://127.0.0.1:8000/api),
optionally loaded from a .env file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)

		collector = metrics.NewCollector()
		apiClient = client.New(cfg.APIURL,
			client.WithTimeout(cfg.ClientTimeout),
			client.WithLogger(logger),
		)
		controller = job.NewController(apiClient, job.NewStore(), job.Options{
			PollInterval: cfg.PollInterval,
			MaxPolls:     cfg.MaxPolls,
			Timeout:      cfg.PollTimeout,
			Logger:       logger,
			Metrics:      collector,
		})

		logger.Debug("client configured",
			"api_url", apiClient.BaseURL(),
			"poll_interval", cfg.PollInterval,
			"max_polls", cfg.MaxPolls,
			"poll_timeout", cfg.PollTimeout,
		)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Resources are released even when the command fails.
func Execute() error {
	err := rootCmd.Execute()
	shutdown()
	return err
}

// shutdown logs the session timings, writes the metrics textfile and closes
// the log file.
func shutdown() {
	if logger != nil {
		logger.Debug("session timings", "timings", collector.Snapshot())
	}
	if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if logCleanup != nil {
		if err := logCleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file (default .env if present)")

	// Add subcommands
	rootCmd.AddCommand(anonymizeCmd)
	rootCmd.AddCommand(deanonymizeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(healthCmd)
}
