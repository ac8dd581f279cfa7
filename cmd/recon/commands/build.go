package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [modules...]",
		Short: "Generate translation units, reusing cached ones",
		Long: "Generate the translation unit of every module. Arguments may be files,\n" +
			"directories or glob patterns. A module is regenerated only when a file in\n" +
			"its dependency closure or the configuration changed.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			return c.app.Build(cmd.Context(), args, options(cmd))
		},
	}
}

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [modules...]",
		Short: "Rebuild modules whenever a source file changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), args, options(cmd))
		},
	}
}
