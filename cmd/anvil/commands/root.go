// Package commands implements the CLI commands for anvil.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/anvil/internal/app"
	"go.trai.ch/anvil/internal/build"
	"go.trai.ch/anvil/internal/engine/cache"
	"go.trai.ch/anvil/internal/engine/pipeline"
)

// CLI represents the command line interface for anvil.
type CLI struct {
	load    Loader
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	GenerateExtraJar(ctx context.Context, in, out string) (cache.Result, error)
	Remap(ctx context.Context, opts app.RemapOptions) (cache.Result, error)
	RunSteps(ctx context.Context, opts app.StepsOptions) (map[string]*pipeline.Result, error)
}

// GlobalOptions holds the flags shared by every command.
type GlobalOptions struct {
	SettingsFile string
	JSON         bool
}

// Loader builds the application once the global flags are known.
type Loader func(ctx context.Context, opts GlobalOptions) (Application, error)

// New creates a new CLI instance. The application is loaded on first use,
// so commands such as version never touch settings or caches.
func New(load Loader) *CLI {
	rootCmd := &cobra.Command{
		Use:           "anvil",
		Short:         "Cached jar transformations for Minecraft builds",
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

	rootCmd.PersistentFlags().String("config-file", "", "Settings file (default anvil.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")

	c := &CLI{
		load:    load,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newExtraCmd())
	rootCmd.AddCommand(c.newRemapCmd())
	rootCmd.AddCommand(c.newStepsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// application returns the loaded application, loading it on first call.
func (c *CLI) application(cmd *cobra.Command) (Application, error) {
	if c.app != nil {
		return c.app, nil
	}
	settingsFile, _ := cmd.Flags().GetString("config-file")
	jsonLogs, _ := cmd.Flags().GetBool("json")

	a, err := c.load(cmd.Context(), GlobalOptions{SettingsFile: settingsFile, JSON: jsonLogs})
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
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
