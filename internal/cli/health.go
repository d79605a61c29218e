package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the anonyfiles service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.Health(cmd.Context()); err != nil {
			return fmt.Errorf("service at %s is not healthy: %w", apiClient.BaseURL(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok  %s\n", apiClient.BaseURL())
		return nil
	},
}
