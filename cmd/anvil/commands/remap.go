package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/anvil/internal/app"
)

func (c *CLI) newRemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remap <input.jar> <output.jar>",
		Short: "Rename the classes and members of a jar through a mapping table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappings, _ := cmd.Flags().GetString("mappings")
			classpath, _ := cmd.Flags().GetString("classpath")

			a, err := c.application(cmd)
			if err != nil {
				return err
			}
			opts := app.RemapOptions{
				Input:    args[0],
				Output:   args[1],
				Mappings: mappings,
			}
			if classpath != "" {
				opts.Classpath = filepath.SplitList(classpath)
			}
			res, err := a.Remap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
	cmd.Flags().StringP("mappings", "m", "", "SRG or TSRG mapping file")
	cmd.Flags().String("classpath", "", "Jars consulted for inherited members, separated by the OS path list separator")
	_ = cmd.MarkFlagRequired("mappings")
	return cmd
}
