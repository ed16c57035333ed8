package cli

import (
	"fmt"
	"io"

	"github.com/quantumstore/quantumstore/internal/explorer"
)

// renderTree prints the tree as indented text. Collapsed branches show a
// "+" marker and hide their children; expanded ones show "-".
func renderTree(w io.Writer, tree []*explorer.Group, state *explorer.ExpandState) {
	if len(tree) == 0 {
		fmt.Fprintln(w, "(no categories)")
		return
	}
	for _, g := range tree {
		fmt.Fprintf(w, "%s %s (%d)\n", marker(state.IsExpanded(g.ID)), g.Name, g.Count())
		if !state.IsExpanded(g.ID) {
			continue
		}
		for _, sg := range g.Subgroups {
			fmt.Fprintf(w, "  %s %s (%d)\n", marker(state.IsExpanded(sg.ID)), sg.Name, sg.Count)
			if !state.IsExpanded(sg.ID) {
				continue
			}
			if !sg.ItemsLoaded {
				fmt.Fprintln(w, "      (items not loaded)")
				continue
			}
			for _, it := range sg.Items {
				if it.SizeHuman != "" {
					fmt.Fprintf(w, "      %s  %s\n", it.Filename, it.SizeHuman)
				} else {
					fmt.Fprintf(w, "      %s\n", it.Filename)
				}
			}
		}
	}
}

func marker(expanded bool) string {
	if expanded {
		return "-"
	}
	return "+"
}
