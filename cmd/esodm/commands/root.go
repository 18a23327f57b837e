package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "esodm",
		Short: "Inspect and administer document indices",
	}

	rootCmd.AddCommand(
		NewHealthCommand(),
		NewIndicesCommand(),
		NewSearchCommand(),
		NewCountCommand(),
		NewVersionCommand(),
	)

	return rootCmd
}
