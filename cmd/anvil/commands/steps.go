package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/anvil/internal/app"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newStepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Run the steps of an MCP/NeoForm configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			sides, _ := cmd.Flags().GetStringSlice("side")
			workDir, _ := cmd.Flags().GetString("workdir")
			provides, _ := cmd.Flags().GetStringArray("provide")

			provided, err := parseProvided(provides)
			if err != nil {
				return err
			}

			a, err := c.application(cmd)
			if err != nil {
				return err
			}
			results, err := a.RunSteps(cmd.Context(), app.StepsOptions{
				ConfigPath: configPath,
				Sides:      sides,
				WorkDir:    workDir,
				Provided:   provided,
			})
			if err != nil {
				return err
			}

			names := make([]string, 0, len(results))
			for side := range results {
				names = append(names, side)
			}
			slices.Sort(names)
			out := cmd.OutOrStdout()
			for _, side := range names {
				for _, step := range results[side].Steps {
					_, _ = fmt.Fprintf(out, "%s/%s\t%s\t%s\n", side, step.Name, step.Status, step.Output)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Pipeline configuration document")
	cmd.Flags().StringSliceP("side", "s", nil, "Sides to run (default: every declared side)")
	cmd.Flags().StringP("workdir", "w", "", "Step working directory (default .anvil/steps)")
	cmd.Flags().StringArray("provide", nil, "Output of a step produced outside anvil, as name=path")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func parseProvided(values []string) (map[string]string, error) {
	provided := make(map[string]string, len(values))
	for _, v := range values {
		name, path, ok := strings.Cut(v, "=")
		if !ok || name == "" || path == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigFormat, "expected name=path"), "provide", v)
		}
		provided[name] = path
	}
	return provided, nil
}
