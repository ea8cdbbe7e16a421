package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Upload the configured cache paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			return c.app.Save(cmd.Context(), configPath, endpoint)
		},
	}
}
