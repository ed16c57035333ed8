package classify

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantumstore/quantumstore/internal/logging"
	"github.com/quantumstore/quantumstore/internal/store"
)

// GroupPayload is one top-level category in the grouped response.
type GroupPayload struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Count     int                `json:"count"`
	Subgroups []*SubgroupPayload `json:"subgroups"`
}

// SubgroupPayload is one category refinement. Items are intentionally not
// included: clients fetch them from the file listing on demand.
type SubgroupPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	ParentID string `json:"parent_id"`
}

// RuleEngine buckets file records into the nested category payload and
// keeps a human-readable reasoning log for the last run.
type RuleEngine struct {
	reasoning []string
}

// NewRuleEngine creates a rule engine.
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

// Reasoning returns the log of the last GroupFiles run.
func (e *RuleEngine) Reasoning() []string {
	return e.reasoning
}

func (e *RuleEngine) logStep(format string, args ...any) {
	line := time.Now().UTC().Format("15:04:05") + " " + fmt.Sprintf(format, args...)
	e.reasoning = append(e.reasoning, line)
}

// splitTag splits a "<main>_<sub>" category tag; a tag with no delimiter
// gets the "general" sub bucket.
func splitTag(category string) (main, sub string) {
	main, sub, found := strings.Cut(category, "_")
	if !found || sub == "" {
		return main, "general"
	}
	return main, sub
}

// GroupFiles buckets records by their category tag: one group per main
// token, one subgroup per (main, sub) pair, in first-seen order, with
// explicit counts at both levels.
//
// A subgroup's name keeps the sub token verbatim (capitalized, underscores
// intact) so it remains a substring of every category tag it was built
// from; clients rely on that to filter the flat listing back down to a
// subgroup.
func (e *RuleEngine) GroupFiles(records []store.FileRecord) []*GroupPayload {
	e.reasoning = nil
	e.logStep("starting automatic file grouping over %d records", len(records))

	var groups []*GroupPayload
	groupIdx := make(map[string]*GroupPayload)
	subIdx := make(map[string]*SubgroupPayload)

	for _, rec := range records {
		category := rec.Category
		if category == "" {
			category = ByExtension(rec.Filename)
			e.logStep("record %s has no category, derived %q from extension", rec.ID, category)
		}
		main, sub := splitTag(category)

		g, ok := groupIdx[main]
		if !ok {
			g = &GroupPayload{ID: main, Name: DisplayName(main)}
			groupIdx[main] = g
			groups = append(groups, g)
			e.logStep("new group %q", main)
		}

		subID := main + "-" + sub
		sg, ok := subIdx[subID]
		if !ok {
			sg = &SubgroupPayload{ID: subID, Name: capitalize(sub), ParentID: g.ID}
			subIdx[subID] = sg
			g.Subgroups = append(g.Subgroups, sg)
		}

		sg.Count++
		g.Count++
		e.logStep("file %s grouped as %s/%s", rec.Filename, main, sub)
	}

	logging.Info("grouping complete",
		zap.Int("records", len(records)),
		zap.Int("groups", len(groups)))
	return groups
}
