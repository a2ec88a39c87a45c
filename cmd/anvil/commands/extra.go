package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newExtraCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extra <input.jar> <output.jar>",
		Short: "Copy every non-class entry of a jar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd)
			if err != nil {
				return err
			}
			res, err := a.GenerateExtraJar(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
}
