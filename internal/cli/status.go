package cli

import (
	"fmt"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	statusDeanonymize bool
	statusShowText    bool
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of a job",
	Long: `Show the status of an anonymization job, or of a de-anonymization job
with --deanonymize.

Examples:
  anonyfiles status 3f2a9c1e-5b7d-4e8a-9f0c-1d2e3f4a5b6c
  anonyfiles status 3f2a9c1e-5b7d-4e8a-9f0c-1d2e3f4a5b6c --deanonymize --text`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusDeanonymize, "deanonymize", false, "query the de-anonymization endpoint")
	statusCmd.Flags().BoolVar(&statusShowText, "text", false, "print the output text of a finished job")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	var (
		report client.StatusReport
		err    error
	)
	if statusDeanonymize {
		report, err = apiClient.DeanonymizeStatus(ctx, id)
	} else {
		report, err = apiClient.AnonymizeStatus(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get job status: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job: %s\n", report.JobID)
	fmt.Fprintf(out, "  Status: %s\n", report.Status)
	if report.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", report.Error)
	}

	if report.Status == models.JobStatusFinished {
		fmt.Fprintln(out, "\nResult:")
		fmt.Fprint(out, summary(report.Result))
		if statusShowText {
			fmt.Fprintf(out, "\n%s\n", report.Result.Text)
		}
	}

	return nil
}
