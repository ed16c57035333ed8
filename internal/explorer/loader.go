package explorer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quantumstore/quantumstore/internal/logging"
	"github.com/quantumstore/quantumstore/internal/metrics"
)

// LoadItems fetches and attaches items for exactly one subgroup.
//
// It is a no-op when the subgroup cannot be located, is already loaded, or
// already has a load in flight — at most one fetch per subgroup id is ever
// outstanding. The service has no per-subcategory endpoint, so the loader
// refetches the full file listing and keeps the records whose category
// matches the subgroup (see CategoryMatchesSubgroup for the false-positive
// caveat).
//
// On success the subgroup is replaced structurally — a fresh Subgroup and
// parent Group are installed rather than fields mutated in place — so
// consumers using reference equality for change detection stay correct. A
// completion that outlives the tree it started from (a full reload bumped
// the generation, or the node is gone) is discarded. On failure the
// subgroup stays unloaded and the error goes to the caller; there is no
// failed-node marker, so a later attempt is indistinguishable from a first
// one.
func (e *Explorer) LoadItems(ctx context.Context, groupID, subgroupID string) error {
	e.mu.Lock()
	gen := e.generation
	g := FindGroup(e.tree, groupID)
	var sg *Subgroup
	if g != nil {
		for _, s := range g.Subgroups {
			if s.ID == subgroupID {
				sg = s
				break
			}
		}
	}
	if sg == nil || sg.ItemsLoaded {
		e.mu.Unlock()
		metrics.RecordLazyLoad("skipped")
		return nil
	}
	if _, busy := e.inflight[subgroupID]; busy {
		e.mu.Unlock()
		metrics.RecordLazyLoad("skipped")
		return nil
	}
	e.inflight[subgroupID] = struct{}{}
	name := sg.Name
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inflight, subgroupID)
		e.mu.Unlock()
	}()

	files, err := e.source.FetchFiles(ctx)
	if err != nil {
		metrics.RecordLazyLoad("error")
		return fmt.Errorf("load items for %s: %w", subgroupID, err)
	}

	var items []FileItem
	for _, f := range files {
		category := stringField(f, "category")
		if category == "" {
			category = "uncategorized"
		}
		if CategoryMatchesSubgroup(category, name) {
			items = append(items, NormalizeItem(f))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen {
		logging.Debug("discarding stale subgroup load",
			zap.String("subgroup", subgroupID))
		metrics.RecordLazyLoad("stale")
		return nil
	}

	gi, cur := -1, (*Group)(nil)
	for i, cg := range e.tree {
		if cg.ID == groupID {
			gi, cur = i, cg
			break
		}
	}
	if cur == nil {
		metrics.RecordLazyLoad("stale")
		return nil
	}
	si := -1
	for i, s := range cur.Subgroups {
		if s.ID == subgroupID {
			si = i
			break
		}
	}
	if si < 0 {
		metrics.RecordLazyLoad("stale")
		return nil
	}

	newSub := *cur.Subgroups[si]
	newSub.Items = items
	newSub.ItemsLoaded = true
	newSub.Count = len(items)

	newGroup := *cur
	newGroup.Subgroups = make([]*Subgroup, len(cur.Subgroups))
	copy(newGroup.Subgroups, cur.Subgroups)
	newGroup.Subgroups[si] = &newSub

	// Fresh top-level slice too, so trees handed out earlier are never
	// written under a reader.
	newTree := make([]*Group, len(e.tree))
	copy(newTree, e.tree)
	newTree[gi] = &newGroup
	e.tree = newTree

	metrics.RecordLazyLoad("success")
	logging.Debug("subgroup items loaded",
		zap.String("subgroup", subgroupID), zap.Int("items", len(items)))
	return nil
}
