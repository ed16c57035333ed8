package explorer

import "strings"

// SplitCategory splits a category tag like "images_screenshot" into its
// main token and remaining sub token ("images", "screenshot"). Tags with
// more than two tokens keep the remainder joined ("json_structured_sql" ->
// "json", "structured_sql"); tags with no delimiter get the "general" sub.
//
// This is a heuristic join on the category naming convention, not a
// foreign-key relation: a main token that happens to appear inside an
// unrelated category string will bucket with it.
func SplitCategory(category string) (main, sub string) {
	main, sub, found := strings.Cut(category, "_")
	if !found || sub == "" {
		return main, "general"
	}
	return main, sub
}

// CategoryMatchesSubgroup reports whether a file's category string belongs
// to a subgroup, by case-insensitive substring match of the subgroup name.
// An approximation, not an exact partition: a short subgroup name like
// "screenshot" also matches inside longer unrelated category strings.
func CategoryMatchesSubgroup(category, subgroupName string) bool {
	return strings.Contains(strings.ToLower(category), strings.ToLower(subgroupName))
}

// BuildFallbackTree synthesizes the canonical tree from a flat file
// listing. It is used when the grouped source yields nothing: each file's
// category tag is split into a (main, sub) pair, files are bucketed by that
// pair, and one group per main token / one subgroup per pair is emitted in
// first-seen order. All subgroups come back eagerly loaded, and each
// group's count is kept as an explicit running total while its subgroups
// are attached.
func BuildFallbackTree(files []map[string]any) []*Group {
	var groups []*Group
	groupIdx := make(map[string]*Group)
	subIdx := make(map[string]*Subgroup)

	for _, f := range files {
		category := stringField(f, "category")
		if category == "" {
			category = "uncategorized"
		}
		main, sub := SplitCategory(category)

		g, ok := groupIdx[main]
		if !ok {
			g = &Group{ID: main, Name: titleToken(main)}
			g.SetExplicitCount(0)
			groupIdx[main] = g
			groups = append(groups, g)
		}

		subID := main + "-" + sub
		sg, ok := subIdx[subID]
		if !ok {
			sg = &Subgroup{
				ID:          subID,
				Name:        displayName(sub),
				ParentID:    g.ID,
				ItemsLoaded: true,
			}
			subIdx[subID] = sg
			g.Subgroups = append(g.Subgroups, sg)
		}

		sg.Items = append(sg.Items, NormalizeItem(f))
		sg.Count = len(sg.Items)
		g.count++
	}

	return groups
}
