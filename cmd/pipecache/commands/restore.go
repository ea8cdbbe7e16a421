package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Download the best matching cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			// A miss is reported through the hit variable, not the exit code.
			_, err := c.app.Restore(cmd.Context(), configPath, endpoint, dryRun)
			return err
		},
	}
	cmd.Flags().Bool("dry-run", false, "Report the hit classification without downloading")
	return cmd
}
