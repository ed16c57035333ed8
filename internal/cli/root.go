// Package cli implements the explorer command line front end.
package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumstore/quantumstore/internal/explorer"
	"github.com/quantumstore/quantumstore/pkg/client"
)

// App holds the global CLI options.
type App struct {
	ServerURL string
	Timeout   time.Duration
	Demo      bool
}

// NewRootCmd builds the explorer command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "explorer",
		Short:        "Browse QuantumStore file categories from the terminal",
		SilenceUsage: true,
	}

	serverURL := "http://localhost:8000"
	if v := os.Getenv("SERVER_URL"); v != "" {
		serverURL = v
	}
	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", serverURL, "QuantumStore server URL")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", 30*time.Second, "request timeout")
	cmd.PersistentFlags().BoolVar(&app.Demo, "demo", false, "use built-in fixture data instead of a server")

	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newRebuildCmd(app))
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (app *App) newExplorer() *explorer.Explorer {
	if app.Demo {
		return explorer.New(newDemoSource())
	}
	c := client.New(client.Config{
		BaseURL: app.ServerURL,
		Timeout: app.Timeout,
	})
	return explorer.New(c)
}

// loadAllItems synchronously loads every unloaded subgroup so the render
// has items to show.
func loadAllItems(cmd *cobra.Command, e *explorer.Explorer) {
	for _, g := range e.Tree() {
		for _, sg := range g.Subgroups {
			if sg.ItemsLoaded {
				continue
			}
			if err := e.LoadItems(cmd.Context(), g.ID, sg.ID); err != nil {
				cmd.PrintErrf("warning: load %s: %v\n", sg.ID, err)
			}
		}
	}
}
