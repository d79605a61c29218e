package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/anonyfiles-go/internal/cleanup"
	"github.com/raphaelgruber/anonyfiles-go/internal/client"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	anonText       string
	anonType       string
	anonHasHeader  bool
	anonOptions    string
	anonDisable    []string
	anonRules      string
	anonOutput     string
	anonMappingOut string
	anonAuditOut   string
	anonPlain      bool
	anonCleanup    bool
)

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize [file]",
	Short: "Anonymize a document or inline text",
	Long: `Anonymize a document or inline text.

The input is uploaded to the service. Small inputs may be answered directly;
larger ones become a background job that is polled until it finishes.
The anonymized text is written to stdout unless --output is given.

Use "-" as the file to read text from stdin.

Examples:
  anonyfiles anonymize report.docx -o report.anon.txt --mapping-out mapping.csv
  anonyfiles anonymize --text "John Doe lives in Paris"
  anonyfiles anonymize people.csv --has-header --disable emails,dates
  anonyfiles anonymize notes.txt --rules rules.yaml --audit-out audit.json
  cat notes.txt | anonyfiles anonymize -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnonymize,
}

func init() {
	anonymizeCmd.Flags().StringVar(&anonText, "text", "", "inline text to anonymize instead of a file")
	anonymizeCmd.Flags().StringVarP(&anonType, "type", "t", "", "file type (txt, csv, xlsx, docx, pdf, json); inferred from the file name if empty")
	anonymizeCmd.Flags().BoolVar(&anonHasHeader, "has-header", false, "first row of a csv/xlsx file is a header")
	anonymizeCmd.Flags().StringVar(&anonOptions, "options", "", "YAML file enabling or disabling entity types")
	anonymizeCmd.Flags().StringSliceVar(&anonDisable, "disable", nil, "entity types to skip (persons, locations, orgs, emails, dates, phones, ibans, addresses, misc)")
	anonymizeCmd.Flags().StringVar(&anonRules, "rules", "", "YAML file with custom replacement rules")
	anonymizeCmd.Flags().StringVarP(&anonOutput, "output", "o", "", "write the anonymized text to this file")
	anonymizeCmd.Flags().StringVar(&anonMappingOut, "mapping-out", "", "write the mapping table (CSV) to this file")
	anonymizeCmd.Flags().StringVar(&anonAuditOut, "audit-out", "", "write the audit log (JSON) to this file")
	anonymizeCmd.Flags().BoolVar(&anonPlain, "plain", false, "print progress as plain lines instead of the interactive view")
	anonymizeCmd.Flags().BoolVar(&anonCleanup, "cleanup", false, "delete the job on the server once the results are written")
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	in := stagedInput{
		Text:        anonText,
		TextSet:     cmd.Flags().Changed("text"),
		Kind:        anonType,
		HasHeader:   anonHasHeader,
		OptionsFile: anonOptions,
		Disable:     anonDisable,
		RulesFile:   anonRules,
	}
	if len(args) == 1 {
		in.File = args[0]
	}

	req, err := stageSubmission(in, cmd.InOrStdin())
	if err != nil {
		return err
	}
	// Fail before starting the progress view.
	if err := client.ValidateSubmission(req); err != nil {
		return err
	}

	ctx := cmd.Context()
	result, err := runWithProgress(ctx, controller.Store(), models.OperationAnonymize, anonPlain, cmd.ErrOrStderr(),
		func(ctx context.Context) (models.JobResult, error) {
			return controller.Anonymize(ctx, req)
		})
	if errors.Is(err, errInterrupted) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("anonymize: %w", err)
	}

	if err := writeResult(ctx, cmd.OutOrStdout(), result, resultTargets{
		Output:     anonOutput,
		MappingOut: anonMappingOut,
		AuditOut:   anonAuditOut,
	}); err != nil {
		return err
	}
	if !useTUI(anonPlain) {
		fmt.Fprint(cmd.ErrOrStderr(), summary(result))
	}

	if anonCleanup && result.JobID != "" {
		return deleteWithNotice(ctx, cmd, result.JobID, cleanup.AlwaysConfirm)
	}
	return nil
}
