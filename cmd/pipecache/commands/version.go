package commands

import (
	"fmt"

	"github.com/ethanis/pipecache/internal/build"
	"github.com/spf13/cobra"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("pipecache version %s\n", build.Version)
		},
	}
}
