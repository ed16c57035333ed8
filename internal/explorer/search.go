package explorer

import "strings"

// SearchTree filters the canonical tree by a case-insensitive substring
// term and forces every branch containing a match open in state.
//
// A group matches on its own name; a subgroup matches on its name or on any
// loaded item's filename. A group is retained if it matches itself or keeps
// at least one matching subgroup; a group that matched by name keeps all of
// its subgroups. Retained subgroups carry only the matching subset of their
// items — display copies, the canonical tree is never touched. Forced
// expansion is written back into state and is sticky: clearing the term
// later does not collapse what a search opened.
//
// A subgroup whose items are not yet loaded can only match via its own
// name; file-level matches inside it are invisible until it has been
// expanded and loaded at least once.
func SearchTree(tree []*Group, term string, state *ExpandState) []*Group {
	if term == "" {
		return tree
	}
	needle := strings.ToLower(term)

	var view []*Group
	for _, g := range tree {
		groupMatch := strings.Contains(strings.ToLower(g.Name), needle)

		var kept []*Subgroup
		for _, sg := range g.Subgroups {
			matched := matchItems(sg.Items, needle)
			nameMatch := strings.Contains(strings.ToLower(sg.Name), needle)
			if !groupMatch && !nameMatch && len(matched) == 0 {
				continue
			}

			copySub := *sg
			copySub.Items = matched
			kept = append(kept, &copySub)

			if len(matched) > 0 {
				state.Expand(sg.ID)
			}
		}

		if !groupMatch && len(kept) == 0 {
			continue
		}

		copyGroup := *g
		copyGroup.Subgroups = kept
		view = append(view, &copyGroup)
		state.Expand(g.ID)
	}
	return view
}

func matchItems(items []FileItem, needle string) []FileItem {
	var matched []FileItem
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Filename), needle) {
			matched = append(matched, it)
		}
	}
	return matched
}
