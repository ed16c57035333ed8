package cli

import (
	"github.com/spf13/cobra"
)

func newRebuildCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Trigger a server-side regrouping and print the fresh tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := app.newExplorer()
			if err := e.Rebuild(cmd.Context()); err != nil {
				return err
			}

			tree := e.Tree()
			cmd.Printf("rebuilt: %d categories\n", len(tree))
			renderTree(cmd.OutOrStdout(), tree, e.Expand())
			return nil
		},
	}
	return cmd
}
