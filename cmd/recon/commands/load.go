package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/recon/internal/app"
)

func (c *CLI) newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <module> [args...]",
		Short: "Compile a module into this process and print its globals",
		Long: "Compile a module with the interactive back-end and print its public\n" +
			"globals. With --call, call one of its functions with the remaining\n" +
			"arguments and print the result.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			call, _ := cmd.Flags().GetString("call")
			return c.app.Load(cmd.Context(), args[0], app.LoadOptions{
				Options: options(cmd),
				Call:    call,
				Args:    args[1:],
			})
		},
	}
	cmd.Flags().StringP("call", "c", "", "Function to call with the remaining arguments")
	return cmd
}

func (c *CLI) newInlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inline <code>",
		Short: "Compile and run a code snippet",
		Long: "Compile a snippet into a cached module below the lib dir and run it.\n" +
			"A snippet with a top-level return is called with the given arguments;\n" +
			"otherwise its public globals are printed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments, _ := cmd.Flags().GetStringArray("arg")
			return c.app.Inline(cmd.Context(), args[0], app.InlineOptions{
				Options: options(cmd),
				Args:    arguments,
			})
		},
	}
	cmd.Flags().StringArrayP("arg", "a", nil, "Pass an argument as name=value (repeatable)")
	return cmd
}
