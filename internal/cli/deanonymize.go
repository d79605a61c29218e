package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	deanonMapping    string
	deanonPermissive bool
	deanonOutput     string
	deanonPlain      bool
)

var deanonymizeCmd = &cobra.Command{
	Use:   "deanonymize <file> --mapping <csv>",
	Short: "Restore an anonymized document using its mapping table",
	Long: `Restore an anonymized document using the mapping table produced by anonymize.

With --permissive, codes missing from the mapping are left as they are
instead of failing the job.

Examples:
  anonyfiles deanonymize report.anon.txt --mapping mapping.csv
  anonyfiles deanonymize report.anon.txt --mapping mapping.csv --permissive -o report.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runDeanonymize,
}

func init() {
	deanonymizeCmd.Flags().StringVarP(&deanonMapping, "mapping", "m", "", "mapping table (CSV) from the anonymize run")
	deanonymizeCmd.Flags().BoolVar(&deanonPermissive, "permissive", false, "tolerate codes missing from the mapping")
	deanonymizeCmd.Flags().StringVarP(&deanonOutput, "output", "o", "", "write the restored text to this file")
	deanonymizeCmd.Flags().BoolVar(&deanonPlain, "plain", false, "print progress as plain lines instead of the interactive view")
	_ = deanonymizeCmd.MarkFlagRequired("mapping")
}

func runDeanonymize(cmd *cobra.Command, args []string) error {
	req, err := stageDeanonymize(args[0], deanonMapping, deanonPermissive)
	if err != nil {
		return err
	}
	if err := client.ValidateDeanonymize(req); err != nil {
		return err
	}

	ctx := cmd.Context()
	result, err := runWithProgress(ctx, controller.Store(), models.OperationDeanonymize, deanonPlain, cmd.ErrOrStderr(),
		func(ctx context.Context) (models.JobResult, error) {
			return controller.Deanonymize(ctx, req)
		})
	if errors.Is(err, errInterrupted) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deanonymize: %w", err)
	}

	if err := writeResult(ctx, cmd.OutOrStdout(), result, resultTargets{Output: deanonOutput}); err != nil {
		return err
	}
	if !useTUI(deanonPlain) {
		fmt.Fprint(cmd.ErrOrStderr(), summary(result))
	}
	return nil
}
