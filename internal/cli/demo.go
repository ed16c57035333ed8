package cli

import (
	"context"
)

// demoSource serves fixture data so the CLI works without a server.
type demoSource struct {
	files []map[string]any
}

func newDemoSource() *demoSource {
	return &demoSource{
		files: []map[string]any{
			{"id": "demo-1", "filename": "vacation.png", "category": "images_photos", "size_bytes": 2400000, "file_type": "image"},
			{"id": "demo-2", "filename": "login_screen.png", "category": "images_screenshot", "size_bytes": 180000, "file_type": "image"},
			{"id": "demo-3", "filename": "error_page.png", "category": "images_screenshot", "size_bytes": 96000, "file_type": "image"},
			{"id": "demo-4", "filename": "meeting_notes.txt", "category": "text_docs", "size_bytes": 1536, "file_type": "text"},
			{"id": "demo-5", "filename": "orders.json", "category": "json_structured_sql", "size_bytes": 52000, "file_type": "json"},
			{"id": "demo-6", "filename": "q3_report.pdf", "category": "pdf_report", "size_bytes": 890000, "file_type": "pdf"},
		},
	}
}

func (d *demoSource) FetchGroups(ctx context.Context) (any, error) {
	return map[string]any{
		"data": map[string]any{
			"groups": []any{
				map[string]any{
					"id": "images", "name": "Images",
					"subgroups": []any{
						map[string]any{"id": "images-photos", "name": "Photos", "count": 1, "parent_id": "images"},
						map[string]any{"id": "images-screenshot", "name": "Screenshot", "count": 2, "parent_id": "images"},
					},
				},
				map[string]any{
					"id": "text", "name": "Text Files",
					"subgroups": []any{
						map[string]any{"id": "text-docs", "name": "Docs", "count": 1, "parent_id": "text"},
					},
				},
				map[string]any{
					"id": "json", "name": "JSON",
					"subgroups": []any{
						map[string]any{"id": "json-structured_sql", "name": "Structured_sql", "count": 1, "parent_id": "json"},
					},
				},
				map[string]any{
					"id": "pdf", "name": "PDF",
					"subgroups": []any{
						map[string]any{"id": "pdf-report", "name": "Report", "count": 1, "parent_id": "pdf"},
					},
				},
			},
		},
	}, nil
}

func (d *demoSource) FetchFiles(ctx context.Context) ([]map[string]any, error) {
	return d.files, nil
}

func (d *demoSource) TriggerRebuild(ctx context.Context) error {
	return nil
}
