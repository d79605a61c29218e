package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/anonyfiles-go/internal/cleanup"
	"github.com/spf13/cobra"
)

var (
	deleteForce bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its files from the server",
	Long: `Delete a job and all of its files (output, mapping, audit log) from the server.

Requires confirmation unless --force is used.

Examples:
  anonyfiles delete 3f2a9c1e-5b7d-4e8a-9f0c-1d2e3f4a5b6c
  anonyfiles delete 3f2a9c1e-5b7d-4e8a-9f0c-1d2e3f4a5b6c --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	var confirm cleanup.Confirmer = cleanup.AlwaysConfirm
	if !deleteForce {
		confirm = promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return deleteWithNotice(cmd.Context(), cmd, args[0], confirm)
}

// deleteWithNotice deletes a job, printing success to stdout and returning
// failures as errors.
func deleteWithNotice(ctx context.Context, cmd *cobra.Command, jobID string, confirm cleanup.Confirmer) error {
	var failure error
	notify := cleanup.NotifierFunc(func(n cleanup.Notification) {
		switch n.Kind {
		case cleanup.KindSuccess:
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", n.JobID)
		case cleanup.KindError:
			failure = errors.New(n.Message)
		}
	})

	cleaner := cleanup.New(apiClient, confirm, notify, cleanup.Options{
		Logger:  logger,
		Metrics: collector,
	})
	cleaner.DeleteJob(ctx, jobID)
	return failure
}

// promptConfirmer asks on out and reads the answer from in.
func promptConfirmer(in io.Reader, out io.Writer) cleanup.Confirmer {
	reader := bufio.NewReader(in)
	return cleanup.ConfirmerFunc(func(jobID string) bool {
		fmt.Fprintf(out, "About to delete job %s and all of its files.\n", jobID)
		fmt.Fprint(out, "\nContinue? [y/N]: ")

		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			fmt.Fprintln(out)
			return false
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Cancelled.")
			return false
		}
		return true
	})
}
