package explorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSource is an in-memory Source with call counting and an optional
// gate that blocks FetchFiles until released.
type fakeSource struct {
	mu sync.Mutex

	groupsPayload any
	groupsErr     error
	files         []map[string]any
	filesErr      error
	rebuildErr    error

	groupsCalls  int
	filesCalls   int
	rebuildCalls int

	filesStarted chan struct{} // signalled once per FetchFiles entry, if set
	filesGate    chan struct{} // FetchFiles blocks until closed, if set
}

func (f *fakeSource) FetchGroups(ctx context.Context) (any, error) {
	f.mu.Lock()
	f.groupsCalls++
	payload, err := f.groupsPayload, f.groupsErr
	f.mu.Unlock()
	return payload, err
}

func (f *fakeSource) FetchFiles(ctx context.Context) ([]map[string]any, error) {
	f.mu.Lock()
	f.filesCalls++
	started, gate := f.filesStarted, f.filesGate
	files, err := f.files, f.filesErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return files, err
}

func (f *fakeSource) TriggerRebuild(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuildCalls++
	return f.rebuildErr
}

func (f *fakeSource) fetchFileCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filesCalls
}

func groupedPayload() map[string]any {
	return map[string]any{
		"groups": []any{
			map[string]any{
				"id":   "images",
				"name": "Images",
				"subgroups": []any{
					map[string]any{
						"id":    "images-screenshot",
						"name":  "screenshot",
						"count": 2,
					},
				},
			},
		},
	}
}

func listing() []map[string]any {
	return []map[string]any{
		{"id": "f1", "filename": "a.png", "category": "images_screenshot"},
		{"id": "f2", "filename": "b.png", "category": "images_screenshot"},
		{"id": "f3", "filename": "c.txt", "category": "text_notes"},
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestLoadFromGroups(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload()}
	e := New(src)

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tree := e.Tree()
	if len(tree) != 1 || tree[0].ID != "images" {
		t.Fatalf("unexpected tree: %v", tree)
	}
	if src.fetchFileCalls() != 0 {
		t.Error("grouped load must not hit the file listing")
	}
	if tree[0].Subgroups[0].ItemsLoaded {
		t.Error("subgroup with count but no items starts unloaded")
	}
}

func TestLoadFallsBackOnError(t *testing.T) {
	src := &fakeSource{groupsErr: errors.New("boom"), files: listing()}
	e := New(src)

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tree := e.Tree()
	if len(tree) != 2 {
		t.Fatalf("expected 2 fallback groups, got %d", len(tree))
	}
	if tree[0].ID != "images" || tree[0].Count() != 2 {
		t.Errorf("images group = %q count %d", tree[0].ID, tree[0].Count())
	}
	if tree[1].ID != "text" || tree[1].Count() != 1 {
		t.Errorf("text group = %q count %d", tree[1].ID, tree[1].Count())
	}
}

func TestLoadFallsBackOnEmptyGroups(t *testing.T) {
	src := &fakeSource{
		groupsPayload: map[string]any{"groups": []any{}},
		files:         listing(),
	}
	e := New(src)

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(e.Tree()) != 2 {
		t.Fatalf("empty grouped payload should fall back to the listing")
	}
}

func TestLoadErrorStateSuppressesTree(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload()}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.mu.Lock()
	src.groupsErr = errors.New("down")
	src.filesErr = errors.New("down too")
	src.mu.Unlock()

	err := e.Load(context.Background())
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("err = %v, want ErrLoadFailed", err)
	}
	if !errors.Is(e.Err(), ErrLoadFailed) {
		t.Error("load error state should be set")
	}
	if e.Tree() != nil {
		t.Error("tree view is suppressed while the load error state holds")
	}

	// Retry succeeds, state clears.
	src.mu.Lock()
	src.groupsErr, src.filesErr = nil, nil
	src.mu.Unlock()
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("retry Load: %v", err)
	}
	if e.Err() != nil {
		t.Error("load error state should clear on success")
	}
	if e.Tree() == nil {
		t.Error("tree should be visible again")
	}
}

func TestRebuildErrorIndependentOfLoad(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload(), rebuildErr: errors.New("nope")}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := e.Rebuild(context.Background())
	if !errors.Is(err, ErrRebuildFailed) {
		t.Fatalf("err = %v, want ErrRebuildFailed", err)
	}
	if !errors.Is(e.RebuildErr(), ErrRebuildFailed) {
		t.Error("rebuild error state should be set")
	}
	if e.Err() != nil {
		t.Error("rebuild failure must not touch the load error state")
	}
	if e.Tree() == nil {
		t.Error("rebuild failure must not suppress the current tree")
	}

	src.mu.Lock()
	src.rebuildErr = nil
	src.mu.Unlock()
	if err := e.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if e.RebuildErr() != nil {
		t.Error("rebuild error state should clear on success")
	}
}

func TestLoadItems(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload(), files: listing()}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := e.LoadItems(context.Background(), "images", "images-screenshot"); err != nil {
		t.Fatalf("LoadItems: %v", err)
	}

	_, sg := FindSubgroup(e.Tree(), "images-screenshot")
	if sg == nil {
		t.Fatal("subgroup vanished")
	}
	if !sg.ItemsLoaded {
		t.Error("ItemsLoaded should flip")
	}
	if len(sg.Items) != 2 || sg.Count != 2 {
		t.Errorf("items = %d count = %d, want 2/2", len(sg.Items), sg.Count)
	}
	for _, it := range sg.Items {
		if it.Category != "images_screenshot" {
			t.Errorf("filtered in a foreign item: %v", it)
		}
	}
}

func TestLoadItemsStructuralReplacement(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload(), files: listing()}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	before := e.Tree()
	beforeGroup := before[0]
	beforeSub := beforeGroup.Subgroups[0]

	if err := e.LoadItems(context.Background(), "images", "images-screenshot"); err != nil {
		t.Fatalf("LoadItems: %v", err)
	}

	after := e.Tree()
	if after[0] == beforeGroup {
		t.Error("parent group must be structurally replaced")
	}
	if after[0].Subgroups[0] == beforeSub {
		t.Error("subgroup must be structurally replaced")
	}
	if beforeSub.ItemsLoaded || len(beforeSub.Items) != 0 {
		t.Error("the old nodes must be left untouched")
	}
}

func TestLoadItemsSingleFlight(t *testing.T) {
	src := &fakeSource{
		groupsPayload: groupedPayload(),
		files:         listing(),
		filesStarted:  make(chan struct{}, 2),
		filesGate:     make(chan struct{}),
	}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	done := make(chan error, 2)
	go func() { done <- e.LoadItems(context.Background(), "images", "images-screenshot") }()
	<-src.filesStarted // first load is inside the fetch

	// Second concurrent load for the same subgroup: must return without
	// fetching.
	go func() { done <- e.LoadItems(context.Background(), "images", "images-screenshot") }()
	if err := <-done; err != nil {
		t.Fatalf("duplicate LoadItems: %v", err)
	}
	if n := src.fetchFileCalls(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}

	close(src.filesGate)
	if err := <-done; err != nil {
		t.Fatalf("LoadItems: %v", err)
	}

	// Once loaded, further calls are no-ops.
	if err := e.LoadItems(context.Background(), "images", "images-screenshot"); err != nil {
		t.Fatalf("LoadItems after load: %v", err)
	}
	if n := src.fetchFileCalls(); n != 1 {
		t.Errorf("fetch calls = %d after reload attempt, want 1", n)
	}
}

func TestLoadItemsDiscardsStaleWrite(t *testing.T) {
	src := &fakeSource{
		groupsPayload: groupedPayload(),
		files:         listing(),
		filesStarted:  make(chan struct{}, 1),
		filesGate:     make(chan struct{}),
	}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- e.LoadItems(context.Background(), "images", "images-screenshot") }()
	<-src.filesStarted

	// Full reload while the item fetch is in flight: bumps the generation.
	// The reload takes the grouped path and never touches the gate.
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	close(src.filesGate)
	if err := <-done; err != nil {
		t.Fatalf("stale LoadItems: %v", err)
	}

	_, sg := FindSubgroup(e.Tree(), "images-screenshot")
	if sg == nil {
		t.Fatal("subgroup missing after reload")
	}
	if sg.ItemsLoaded {
		t.Error("a completion from a previous generation must be discarded")
	}
}

func TestLoadItemsFailureLeavesUnloaded(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload(), filesErr: errors.New("boom")}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := e.LoadItems(context.Background(), "images", "images-screenshot"); err == nil {
		t.Fatal("expected load error")
	}
	if e.Err() != nil {
		t.Error("a per-subgroup failure never escalates to the load error state")
	}
	_, sg := FindSubgroup(e.Tree(), "images-screenshot")
	if sg.ItemsLoaded {
		t.Error("failed subgroup stays unloaded")
	}

	// A retry is indistinguishable from a first attempt.
	src.mu.Lock()
	src.filesErr = nil
	src.files = listing()
	src.mu.Unlock()
	if err := e.LoadItems(context.Background(), "images", "images-screenshot"); err != nil {
		t.Fatalf("retry LoadItems: %v", err)
	}
	_, sg = FindSubgroup(e.Tree(), "images-screenshot")
	if !sg.ItemsLoaded {
		t.Error("retry should succeed")
	}
}

func TestToggleExpandTriggersSingleLoad(t *testing.T) {
	src := &fakeSource{
		groupsPayload: groupedPayload(),
		files:         listing(),
		filesStarted:  make(chan struct{}, 1),
		filesGate:     make(chan struct{}),
	}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !e.ToggleExpand(context.Background(), "images-screenshot") {
		t.Fatal("first toggle should expand")
	}
	<-src.filesStarted

	// Collapse and re-expand while the first load is still in flight: no
	// second fetch.
	e.ToggleExpand(context.Background(), "images-screenshot")
	e.ToggleExpand(context.Background(), "images-screenshot")

	close(src.filesGate)
	waitFor(t, func() bool {
		_, sg := FindSubgroup(e.Tree(), "images-screenshot")
		return sg != nil && sg.ItemsLoaded
	}, "subgroup never finished loading")

	if n := src.fetchFileCalls(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
	if !e.IsExpanded("images-screenshot") {
		t.Error("subgroup should be expanded")
	}
}

func TestCollapseDoesNotCancelLoad(t *testing.T) {
	src := &fakeSource{
		groupsPayload: groupedPayload(),
		files:         listing(),
		filesStarted:  make(chan struct{}, 1),
		filesGate:     make(chan struct{}),
	}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.ToggleExpand(ctx, "images-screenshot")
	<-src.filesStarted

	// Abandon the expand entirely: collapse and cancel the caller's ctx.
	e.ToggleExpand(ctx, "images-screenshot")
	cancel()

	close(src.filesGate)
	waitFor(t, func() bool {
		_, sg := FindSubgroup(e.Tree(), "images-screenshot")
		return sg != nil && sg.ItemsLoaded
	}, "abandoned load should still complete and write")
}

func TestExpandAll(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload(), files: listing()}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	e.ExpandAll(context.Background())
	if !e.IsExpanded("images") || !e.IsExpanded("images-screenshot") {
		t.Error("every node should be expanded")
	}

	waitFor(t, func() bool {
		_, sg := FindSubgroup(e.Tree(), "images-screenshot")
		return sg != nil && sg.ItemsLoaded
	}, "ExpandAll should load unloaded subgroups")

	e.CollapseAll()
	if e.IsExpanded("images") {
		t.Error("CollapseAll should close everything")
	}
}

func TestReloadResetsExpandState(t *testing.T) {
	src := &fakeSource{groupsPayload: groupedPayload(), files: listing()}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	e.Expand().Expand("images")
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if e.IsExpanded("images") {
		t.Error("a fresh tree starts all collapsed")
	}
}

func TestSearchThroughExplorer(t *testing.T) {
	src := &fakeSource{groupsErr: errors.New("down"), files: listing()}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	view := e.Search("c.txt")
	if len(view) != 1 || view[0].ID != "text" {
		t.Fatalf("unexpected search view: %v", view)
	}
	if !e.IsExpanded("text") || !e.IsExpanded("text-notes") {
		t.Error("search must force the matching branch open")
	}
}

func TestSelectFile(t *testing.T) {
	src := &fakeSource{groupsErr: errors.New("down"), files: listing()}
	e := New(src)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var picked []string
	e.OnSelect(func(f FileItem) { picked = append(picked, f.ID) })

	if err := e.SelectFile("f2"); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if len(picked) != 1 || picked[0] != "f2" {
		t.Errorf("picked = %v", picked)
	}

	if err := e.SelectFile("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
