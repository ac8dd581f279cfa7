package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/recon/internal/app"
)

func (c *CLI) newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps <module>",
		Short: "Print the dependency closure of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetBool("key")
			graph, _ := cmd.Flags().GetBool("graph")
			return c.app.Deps(cmd.Context(), args[0], app.DepsOptions{
				Options: options(cmd),
				Key:     key,
				Graph:   graph,
			})
		},
	}
	cmd.Flags().BoolP("key", "k", false, "Print the cache key of the translation unit")
	cmd.Flags().BoolP("graph", "g", false, "Print typed edges and import cycles")
	return cmd
}

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every persisted artifact below the lib dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Clean(cmd.Context(), options(cmd))
		},
	}
}
