package cli

import (
	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	var expandAll bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Load and print the category tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := app.newExplorer()
			if err := e.Load(cmd.Context()); err != nil {
				return err
			}

			if expandAll {
				loadAllItems(cmd, e)
				e.ExpandAll(cmd.Context())
			}

			renderTree(cmd.OutOrStdout(), e.Tree(), e.Expand())
			return nil
		},
	}

	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "expand every branch and load all items")
	return cmd
}
