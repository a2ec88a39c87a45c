// Package main is the entry point for the anvil tool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/anvil/cmd/anvil/commands"
	"go.trai.ch/anvil/internal/adapters/config"
	"go.trai.ch/anvil/internal/app"
	_ "go.trai.ch/anvil/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, func(), error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		if err != nil {
			return nil, func() {}, err
		}
		return c, func() { _ = c.App.Close() }, nil
	}))
}

func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	provider ComponentProvider,
) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Components are initialized lazily once the global flags are parsed
	var components *app.Components
	cleanup := func() {}
	defer func() { cleanup() }()

	load := func(ctx context.Context, opts commands.GlobalOptions) (commands.Application, error) {
		ctx = config.WithOverrides(ctx, config.Overrides{Path: opts.SettingsFile, JSON: opts.JSON})
		c, done, err := provider(ctx)
		if err != nil {
			return nil, err
		}
		components = c
		if done != nil {
			cleanup = done
		}
		return c.App, nil
	}

	// 2. Interface - CLI
	cli := commands.New(load)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		if components == nil {
			// Logger is not available if initialization failed or never ran
			_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
