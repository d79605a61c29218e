package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Stream status updates of a job",
	Long: `Stream status updates of a job over a websocket until it finishes.

Examples:
  anonyfiles watch 3f2a9c1e-5b7d-4e8a-9f0c-1d2e3f4a5b6c`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	var last client.StatusReport
	err := apiClient.WatchStatus(ctx, args[0], func(r client.StatusReport) error {
		last = r
		fmt.Fprintf(out, "%s  %s\n", time.Now().Format("15:04:05"), r.Status)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("watch job: %w", err)
	}

	if last.Status == models.JobStatusError {
		msg := last.Error
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("job %s failed: %s", args[0], msg)
	}
	return nil
}
