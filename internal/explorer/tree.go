// Package explorer implements the hierarchical category explorer: a
// three-level category -> subcategory -> file tree built from the
// QuantumStore classification service, with lazy per-subcategory item
// loading, identifier-keyed expand state, and live search.
package explorer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// FileItem represents one uploaded file as seen in the explorer.
type FileItem struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	SizeBytes  *int64         `json:"size_bytes"`
	SizeHuman  string         `json:"size_human"`
	Type       string         `json:"type"`
	UploadedAt string         `json:"uploaded_at"`
	Category   string         `json:"category"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	// Extra holds raw fields the normalizer did not consume. They are
	// carried through marshalling transparently; canonical fields win on
	// name collision.
	Extra map[string]any `json:"-"`
}

// MarshalJSON merges Extra under the canonical fields.
func (f FileItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Extra)+8)
	for k, v := range f.Extra {
		out[k] = v
	}
	out["id"] = f.ID
	out["filename"] = f.Filename
	out["size_bytes"] = f.SizeBytes
	out["size_human"] = f.SizeHuman
	out["type"] = f.Type
	out["uploaded_at"] = f.UploadedAt
	out["category"] = f.Category
	if f.Metadata != nil {
		out["metadata"] = f.Metadata
	}
	return json.Marshal(out)
}

// Subgroup represents one category refinement. Items may be empty even when
// Count > 0 if the subgroup has not been lazily loaded yet.
type Subgroup struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Count       int        `json:"count"`
	Items       []FileItem `json:"items"`
	ItemsLoaded bool       `json:"items_loaded"`
	ParentID    string     `json:"parent_id"`
}

// Group represents one top-level category.
type Group struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Subgroups []*Subgroup `json:"subgroups"`

	count    int
	explicit bool
}

// Count returns the group's item count. An explicit count supplied by the
// source wins; otherwise the subgroup counts are summed on every call, so
// lazy loads that rewrite a subgroup count are reflected immediately.
func (g *Group) Count() int {
	if g.explicit {
		return g.count
	}
	total := 0
	for _, sg := range g.Subgroups {
		total += sg.Count
	}
	return total
}

// SetExplicitCount pins the group's count to a source-supplied value.
func (g *Group) SetExplicitCount(n int) {
	g.count = n
	g.explicit = true
}

// HasExplicitCount reports whether the count came from the source.
func (g *Group) HasExplicitCount() bool {
	return g.explicit
}

// MarshalJSON includes the computed count.
func (g *Group) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID        string      `json:"id"`
		Name      string      `json:"name"`
		Count     int         `json:"count"`
		Subgroups []*Subgroup `json:"subgroups"`
	}
	return json.Marshal(alias{ID: g.ID, Name: g.Name, Count: g.Count(), Subgroups: g.Subgroups})
}

// FindGroup returns the group with the given id, or nil.
func FindGroup(tree []*Group, id string) *Group {
	for _, g := range tree {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// FindSubgroup locates a subgroup anywhere in the tree.
func FindSubgroup(tree []*Group, id string) (*Group, *Subgroup) {
	for _, g := range tree {
		for _, sg := range g.Subgroups {
			if sg.ID == id {
				return g, sg
			}
		}
	}
	return nil, nil
}

// NodeIDs returns every group and subgroup identifier in the tree.
func NodeIDs(tree []*Group) []string {
	var ids []string
	for _, g := range tree {
		ids = append(ids, g.ID)
		for _, sg := range g.Subgroups {
			ids = append(ids, sg.ID)
		}
	}
	return ids
}

// FlattenItems returns all loaded items across the tree in tree order.
func FlattenItems(tree []*Group) []FileItem {
	var items []FileItem
	for _, g := range tree {
		for _, sg := range g.Subgroups {
			items = append(items, sg.Items...)
		}
	}
	return items
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// HumanSize renders a byte count for display: "0 B" for zero, otherwise the
// value scaled to the largest unit with a quotient >= 1 (capped at TB), with
// at most one decimal place.
func HumanSize(n int64) string {
	if n == 0 {
		return "0 B"
	}
	v := float64(n)
	k := 0
	for v >= 1024 && k < len(sizeUnits)-1 {
		v /= 1024
		k++
	}
	r := math.Round(v*10) / 10
	if r == math.Trunc(r) {
		return fmt.Sprintf("%d %s", int64(r), sizeUnits[k])
	}
	return fmt.Sprintf("%.1f %s", r, sizeUnits[k])
}

// titleToken capitalizes the first rune of a token.
func titleToken(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// displayName turns an underscore token into a capitalized display label.
func displayName(token string) string {
	return titleToken(strings.ReplaceAll(token, "_", " "))
}
