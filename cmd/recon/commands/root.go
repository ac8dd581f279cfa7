// Package commands implements the CLI commands for recon.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/recon/internal/app"
	"go.trai.ch/recon/internal/build"
)

// CLI represents the command line interface for recon.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, paths []string, opts app.Options) error
	Load(ctx context.Context, path string, opts app.LoadOptions) error
	Deps(ctx context.Context, path string, opts app.DepsOptions) error
	Inline(ctx context.Context, code string, opts app.InlineOptions) error
	Watch(ctx context.Context, paths []string, opts app.Options) error
	Clean(ctx context.Context, opts app.Options) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "recon",
		Short:         "Incremental builds for Cython-style modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.String("revision", "", "Language revision: legacy (2) or current (3, 3str)")
	flags.StringArrayP("directive", "X", nil, "Set a compiler directive as name=value (repeatable)")
	flags.StringArrayP("include", "I", nil, "Add a directory to the search path (repeatable)")
	flags.String("lib-dir", "", "Directory for generated artifacts")
	flags.BoolP("force", "f", false, "Force regeneration, bypassing every cache")
	flags.BoolP("quiet", "q", false, "Suppress toolchain output")
	flags.Bool("json", false, "Print results and logs as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newLoadCmd())
	rootCmd.AddCommand(c.newDepsCmd())
	rootCmd.AddCommand(c.newInlineCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// options reads the persistent flags shared by every command.
func options(cmd *cobra.Command) app.Options {
	flags := cmd.Flags()
	revision, _ := flags.GetString("revision")
	directives, _ := flags.GetStringArray("directive")
	include, _ := flags.GetStringArray("include")
	libDir, _ := flags.GetString("lib-dir")
	force, _ := flags.GetBool("force")
	quiet, _ := flags.GetBool("quiet")
	asJSON, _ := flags.GetBool("json")

	return app.Options{
		Revision:   revision,
		Directives: directives,
		SearchPath: include,
		LibDir:     libDir,
		Force:      force,
		Quiet:      quiet,
		JSON:       asJSON,
	}
}
