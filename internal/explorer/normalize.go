package explorer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantumstore/quantumstore/internal/logging"
)

// Normalize converts a raw groups payload of unknown shape into the
// canonical tree. Three shapes are accepted, tried in order: the payload
// itself is a sequence of raw groups, the payload has a "groups" sequence,
// or the payload has a nested "data.groups" sequence. Anything else yields
// an empty tree; malformed input is logged, never an error.
func Normalize(payload any) []*Group {
	raw, ok := rawGroupSlice(payload)
	if !ok {
		logging.Warn("unrecognized groups payload shape",
			zap.String("type", fmt.Sprintf("%T", payload)))
		return nil
	}

	groups := make([]*Group, 0, len(raw))
	for _, rg := range raw {
		if g := normalizeGroup(rg); g != nil {
			groups = append(groups, g)
		}
	}
	return groups
}

func rawGroupSlice(payload any) ([]any, bool) {
	switch p := payload.(type) {
	case []any:
		return p, true
	case map[string]any:
		if gs, ok := p["groups"].([]any); ok {
			return gs, true
		}
		if data, ok := p["data"].(map[string]any); ok {
			if gs, ok := data["groups"].([]any); ok {
				return gs, true
			}
		}
	}
	return nil, false
}

func normalizeGroup(raw any) *Group {
	m, ok := raw.(map[string]any)
	if !ok {
		logging.Warn("skipping non-object group entry",
			zap.String("type", fmt.Sprintf("%T", raw)))
		return nil
	}

	id := stringField(m, "id", "file_id")
	if id == "" {
		id = "group-" + uuid.NewString()
	}

	name := stringField(m, "name")
	if name == "" {
		name = "Unnamed Group"
	}

	g := &Group{ID: id, Name: name}
	if c, ok := intField(m, "count"); ok {
		g.SetExplicitCount(c)
	}

	if rawSubs, ok := m["subgroups"].([]any); ok {
		for _, rs := range rawSubs {
			if sg := normalizeSubgroup(id, rs); sg != nil {
				g.Subgroups = append(g.Subgroups, sg)
			}
		}
	}
	return g
}

func normalizeSubgroup(parentID string, raw any) *Subgroup {
	m, ok := raw.(map[string]any)
	if !ok {
		logging.Warn("skipping non-object subgroup entry",
			zap.String("parent", parentID),
			zap.String("type", fmt.Sprintf("%T", raw)))
		return nil
	}

	id := stringField(m, "id", "file_id")
	if id == "" {
		id = "subgroup-" + parentID + "-" + uuid.NewString()
	}

	name := stringField(m, "name")
	if name == "" {
		name = "Unnamed Subgroup"
	}

	sg := &Subgroup{ID: id, Name: name, ParentID: parentID}

	if rawItems, ok := m["items"].([]any); ok {
		sg.Items = make([]FileItem, 0, len(rawItems))
		for _, ri := range rawItems {
			sg.Items = append(sg.Items, NormalizeItem(ri))
		}
	}

	if c, ok := intField(m, "count"); ok {
		sg.Count = c
	} else {
		sg.Count = len(sg.Items)
	}

	if loaded, ok := m["items_loaded"].(bool); ok {
		sg.ItemsLoaded = loaded
	} else {
		sg.ItemsLoaded = len(sg.Items) > 0
	}
	return sg
}

// itemSourceFields are the raw keys the normalizer consumes; everything
// else on a raw item is preserved under Extra.
var itemSourceFields = map[string]struct{}{
	"id": {}, "file_id": {},
	"filename": {}, "name": {},
	"size_bytes": {}, "size": {},
	"type": {}, "file_type": {}, "mime_type": {},
	"uploaded_at": {}, "created_at": {},
	"category": {},
}

// NormalizeItem converts one raw file record into a FileItem, applying the
// field fallback chains and retaining the full record under Metadata.
func NormalizeItem(raw any) FileItem {
	m, ok := raw.(map[string]any)
	if !ok {
		return FileItem{
			ID:         "file-" + uuid.NewString(),
			Filename:   "Unnamed File",
			Type:       "unknown",
			Category:   "uncategorized",
			UploadedAt: time.Now().UTC().Format(time.RFC3339),
		}
	}

	item := FileItem{Metadata: m}

	item.ID = stringField(m, "id", "file_id")
	if item.ID == "" {
		item.ID = "file-" + uuid.NewString()
	}

	item.Filename = stringField(m, "filename", "name")
	if item.Filename == "" {
		item.Filename = "Unnamed File"
	}

	if n, ok := int64Field(m, "size_bytes", "size"); ok {
		item.SizeBytes = &n
		item.SizeHuman = HumanSize(n)
	}

	item.Type = stringField(m, "type", "file_type", "mime_type")
	if item.Type == "" {
		item.Type = "unknown"
	}

	item.UploadedAt = stringField(m, "uploaded_at", "created_at")
	if item.UploadedAt == "" {
		item.UploadedAt = time.Now().UTC().Format(time.RFC3339)
	}

	item.Category = stringField(m, "category")
	if item.Category == "" {
		item.Category = "uncategorized"
	}

	for k, v := range m {
		if _, known := itemSourceFields[k]; known {
			continue
		}
		if item.Extra == nil {
			item.Extra = make(map[string]any)
		}
		item.Extra[k] = v
	}
	return item
}

// stringField returns the first non-empty string value among keys.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// int64Field returns the first numeric value among keys. JSON numbers
// decode as float64; integral values stored as int/int64 are accepted too.
func int64Field(m map[string]any, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int64(v), true
		case int64:
			return v, true
		case int:
			return int64(v), true
		}
	}
	return 0, false
}

func intField(m map[string]any, keys ...string) (int, bool) {
	n, ok := int64Field(m, keys...)
	return int(n), ok
}
