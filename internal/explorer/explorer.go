package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quantumstore/quantumstore/internal/logging"
	"github.com/quantumstore/quantumstore/internal/metrics"
)

// Source is the remote classification service the explorer consumes.
// *client.Client satisfies it; tests inject fakes.
type Source interface {
	// FetchGroups returns the raw groups payload in whatever shape the
	// server produced; Normalize sorts the shapes out.
	FetchGroups(ctx context.Context) (any, error)
	// FetchFiles returns the flat file listing.
	FetchFiles(ctx context.Context) ([]map[string]any, error)
	// TriggerRebuild asks the server to recompute its grouping.
	TriggerRebuild(ctx context.Context) error
}

// Top-level error states. Load and rebuild failures escalate and suppress
// the tree view; per-subgroup load failures never do.
var (
	ErrLoadFailed    = errors.New("failed to load categories")
	ErrRebuildFailed = errors.New("failed to rebuild categories")
	ErrNotFound      = errors.New("node not found")
)

// Explorer owns the canonical tree, the expand state, and the per-subgroup
// load bookkeeping. All exported methods are safe for concurrent use.
type Explorer struct {
	source Source

	mu         sync.RWMutex
	tree       []*Group
	generation uint64
	inflight   map[string]struct{}
	loadErr    error
	rebuildErr error

	expand *ExpandState

	selectMu  sync.RWMutex
	selectFns []func(FileItem)
}

// New creates an explorer over the given source. The tree is empty until
// the first Load.
func New(source Source) *Explorer {
	return &Explorer{
		source:   source,
		inflight: make(map[string]struct{}),
		expand:   NewExpandState(),
	}
}

// Load builds the canonical tree: it normalizes the grouped payload, and
// when that fails or comes back empty it falls back to synthesizing the
// tree from the flat file listing. A new tree starts a new generation with
// all branches collapsed.
//
// If both sources fail the previous tree is kept but suppressed behind the
// load error state until a retry succeeds.
func (e *Explorer) Load(ctx context.Context) error {
	var tree []*Group
	source := "groups"

	payload, err := e.source.FetchGroups(ctx)
	if err != nil {
		logging.Warn("groups fetch failed, falling back to file listing", zap.Error(err))
	} else {
		tree = Normalize(payload)
	}

	if len(tree) == 0 {
		files, ferr := e.source.FetchFiles(ctx)
		if ferr != nil {
			loadErr := fmt.Errorf("%w: %v", ErrLoadFailed, ferr)
			e.mu.Lock()
			e.loadErr = loadErr
			e.mu.Unlock()
			metrics.RecordTreeLoad("error", 0)
			return loadErr
		}
		tree = BuildFallbackTree(files)
		source = "fallback"
	}

	e.mu.Lock()
	e.tree = tree
	e.generation++
	e.loadErr = nil
	e.mu.Unlock()
	e.expand.CollapseAll()

	metrics.RecordTreeLoad(source, len(tree))
	logging.Info("category tree loaded",
		zap.String("source", source), zap.Int("groups", len(tree)))
	return nil
}

// Rebuild triggers a server-side regrouping and reloads the tree. A
// trigger failure is surfaced as its own error state, independent of the
// load error state, and does not touch the current tree.
func (e *Explorer) Rebuild(ctx context.Context) error {
	if err := e.source.TriggerRebuild(ctx); err != nil {
		rebuildErr := fmt.Errorf("%w: %v", ErrRebuildFailed, err)
		e.mu.Lock()
		e.rebuildErr = rebuildErr
		e.mu.Unlock()
		metrics.RecordRebuild(false)
		return rebuildErr
	}
	e.mu.Lock()
	e.rebuildErr = nil
	e.mu.Unlock()
	metrics.RecordRebuild(true)
	return e.Load(ctx)
}

// Tree returns the current canonical tree, or nil while a load error state
// is in effect.
func (e *Explorer) Tree() []*Group {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.loadErr != nil {
		return nil
	}
	return e.tree
}

// Err returns the current top-level load error state, if any.
func (e *Explorer) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadErr
}

// RebuildErr returns the current rebuild error state, if any.
func (e *Explorer) RebuildErr() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rebuildErr
}

// IsExpanded reports whether the given node is expanded.
func (e *Explorer) IsExpanded(id string) bool {
	return e.expand.IsExpanded(id)
}

// Expand exposes the expand state for view code.
func (e *Explorer) Expand() *ExpandState {
	return e.expand
}

// ToggleExpand flips a node's expand state and returns the new state.
// Expanding a subgroup whose items are not yet loaded kicks off a
// background item load; collapsing never unloads or cancels anything, so
// an in-flight load for a collapsed branch still completes and writes.
func (e *Explorer) ToggleExpand(ctx context.Context, id string) bool {
	open := e.expand.Toggle(id)
	if open {
		e.maybeLoadSubgroup(ctx, id)
	}
	return open
}

// ExpandAll opens every node in the tree, triggering item loads for any
// still-unloaded subgroups.
func (e *Explorer) ExpandAll(ctx context.Context) {
	e.mu.RLock()
	tree := e.tree
	e.mu.RUnlock()

	e.expand.ExpandAll(NodeIDs(tree))
	for _, g := range tree {
		for _, sg := range g.Subgroups {
			if !sg.ItemsLoaded {
				e.maybeLoadSubgroup(ctx, sg.ID)
			}
		}
	}
}

// CollapseAll closes every node.
func (e *Explorer) CollapseAll() {
	e.expand.CollapseAll()
}

// maybeLoadSubgroup starts a background load if id names an unloaded
// subgroup. Loads are detached from the caller's cancellation: an expand
// that is abandoned mid-fetch still completes.
func (e *Explorer) maybeLoadSubgroup(ctx context.Context, id string) {
	e.mu.RLock()
	g, sg := FindSubgroup(e.tree, id)
	e.mu.RUnlock()
	if g == nil || sg.ItemsLoaded {
		return
	}

	loadCtx := context.WithoutCancel(ctx)
	go func() {
		if err := e.LoadItems(loadCtx, g.ID, sg.ID); err != nil {
			logging.Warn("subgroup item load failed",
				zap.String("subgroup", sg.ID), zap.Error(err))
		}
	}()
}

// Search filters the tree by term and forces matching branches open. An
// empty term returns the unfiltered tree and leaves the expand state
// untouched. The returned view is derived; the canonical tree is never
// mutated by search.
func (e *Explorer) Search(term string) []*Group {
	e.mu.RLock()
	tree := e.tree
	e.mu.RUnlock()

	if term != "" {
		metrics.RecordSearch()
	}
	return SearchTree(tree, term, e.expand)
}

// OnSelect registers a listener for file selection events.
func (e *Explorer) OnSelect(fn func(FileItem)) {
	e.selectMu.Lock()
	defer e.selectMu.Unlock()
	e.selectFns = append(e.selectFns, fn)
}

// SelectFile dispatches a selection event for a loaded item.
func (e *Explorer) SelectFile(id string) error {
	e.mu.RLock()
	var found *FileItem
	for _, g := range e.tree {
		for _, sg := range g.Subgroups {
			for i := range sg.Items {
				if sg.Items[i].ID == id {
					found = &sg.Items[i]
					break
				}
			}
		}
	}
	e.mu.RUnlock()

	if found == nil {
		return fmt.Errorf("%w: file %s", ErrNotFound, id)
	}

	e.selectMu.RLock()
	fns := e.selectFns
	e.selectMu.RUnlock()
	for _, fn := range fns {
		fn(*found)
	}
	return nil
}
