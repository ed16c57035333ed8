package cli

import (
	"github.com/spf13/cobra"
)

func newSearchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Filter the category tree by a case-insensitive term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := app.newExplorer()
			if err := e.Load(cmd.Context()); err != nil {
				return err
			}

			// Matches inside unloaded subgroups are invisible, so load
			// everything before filtering.
			loadAllItems(cmd, e)

			view := e.Search(args[0])
			if len(view) == 0 {
				cmd.Printf("no matches for %q\n", args[0])
				return nil
			}
			renderTree(cmd.OutOrStdout(), view, e.Expand())
			return nil
		},
	}
	return cmd
}
