package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/metrics"
	"github.com/spf13/cobra"
)

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:   "download <job-id> <output|mapping|log_entities|audit_log>",
	Short: "Download a file produced by a job",
	Long: `Download a file produced by a job.

Examples:
  anonyfiles download 3f2a9c1e-5b7d-4e8a-9f0c-1d2e3f4a5b6c mapping -o mapping.csv
  anonyfiles download 3f2a9c1e-5b7d-4e8a-9f0c-1d2e3f4a5b6c audit_log`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: fileKeyNames(),
	RunE:      runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "write to this file instead of stdout")
}

func fileKeyNames() []string {
	names := make([]string, len(client.FileKeys))
	for i, k := range client.FileKeys {
		names[i] = string(k)
	}
	return names
}

func runDownload(cmd *cobra.Command, args []string) error {
	jobID, key := args[0], client.FileKey(strings.ToLower(args[1]))

	start := time.Now()
	var n int64
	var err error
	if downloadOutput != "" {
		n, err = downloadToFile(cmd.Context(), apiClient, jobID, key, downloadOutput, 0o644)
	} else {
		n, err = apiClient.DownloadFile(cmd.Context(), jobID, key, cmd.OutOrStdout())
	}
	collector.RecordTiming(metrics.OpDownload, time.Since(start))
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}

	if downloadOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", n, downloadOutput)
	}
	return nil
}
