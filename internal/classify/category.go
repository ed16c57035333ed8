// Package classify assigns category tags to uploaded files and groups
// file records into the nested category payload served by the API.
//
// Category tags follow the "<main>_<sub>" naming convention the explorer
// splits on: "images_screenshot", "json_structured_sql", "pdf_docs".
package classify

import (
	"path/filepath"
	"strings"
	"unicode"
)

// extensionCategories maps a lowercased file extension to its fallback
// category. Every file gets a category: unknown extensions produce
// "other_<ext>", extensionless files "other_no_extension".
var extensionCategories = map[string]string{
	// Documents
	".pdf":  "pdf_docs",
	".doc":  "word_docs",
	".docx": "word_docs",
	".txt":  "text_docs",
	".md":   "markdown_docs",
	".rtf":  "text_docs",

	// Data formats
	".json": "json_files",
	".csv":  "csv_tables",
	".xlsx": "excel_sheets",
	".xls":  "excel_sheets",
	".xml":  "xml_files",
	".yaml": "yaml_files",
	".yml":  "yaml_files",

	// Images
	".jpg":  "images",
	".jpeg": "images",
	".png":  "images",
	".gif":  "images",
	".bmp":  "images",
	".svg":  "images",
	".webp": "images",
	".tiff": "images",
	".tif":  "images",

	// Audio
	".mp3":  "audio",
	".m4a":  "audio",
	".wav":  "audio",
	".flac": "audio",
	".aac":  "audio",
	".ogg":  "audio",
	".wma":  "audio",

	// Video
	".mp4":  "videos",
	".mov":  "videos",
	".avi":  "videos",
	".mkv":  "videos",
	".wmv":  "videos",
	".flv":  "videos",
	".webm": "videos",

	// Code
	".py":   "python_scripts",
	".js":   "javascript_scripts",
	".ts":   "typescript_scripts",
	".cpp":  "cpp_sources",
	".c":    "cpp_sources",
	".h":    "cpp_sources",
	".hpp":  "cpp_sources",
	".java": "java_sources",
	".go":   "go_sources",
	".rs":   "rust_sources",
	".rb":   "ruby_scripts",
	".php":  "php_scripts",

	// Web
	".html": "web_source",
	".htm":  "web_source",
	".css":  "web_source",
	".scss": "web_source",
	".sass": "web_source",
	".less": "web_source",

	// Archives
	".zip": "archives",
	".tar": "archives",
	".gz":  "archives",
	".rar": "archives",
	".7z":  "archives",
}

// ByExtension categorizes a file by its extension. Always returns a
// non-empty category.
func ByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if cat, ok := extensionCategories[ext]; ok {
		return cat
	}
	if ext != "" {
		return "other_" + ext[1:]
	}
	return "other_no_extension"
}

// fileTypes by extension; used for the file_type field on records.
var fileTypes = map[string]string{
	".json": "json",
	".pdf":  "pdf",
	".jpg":  "image", ".jpeg": "image", ".png": "image", ".gif": "image",
	".bmp": "image", ".webp": "image", ".tiff": "image",
	".txt": "text", ".md": "text", ".csv": "text", ".log": "text", ".rtf": "text",
	".mp4": "video", ".avi": "video", ".mov": "video", ".mkv": "video", ".webm": "video",
	".mp3": "audio", ".m4a": "audio", ".wav": "audio", ".flac": "audio",
}

// FileType returns the broad processing type for a filename, or "unknown".
func FileType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := fileTypes[ext]; ok {
		return t
	}
	return "unknown"
}

// displayNames covers categories whose label is not derivable from the
// token itself.
var displayNames = map[string]string{
	"pdf_docs":           "PDF Documents",
	"word_docs":          "Word Documents",
	"text_docs":          "Text Files",
	"markdown_docs":      "Markdown Files",
	"json_files":         "JSON Files",
	"csv_tables":         "CSV Tables",
	"excel_sheets":       "Excel Sheets",
	"images":             "Images",
	"audio":              "Audio Files",
	"videos":             "Videos",
	"python_scripts":     "Python Scripts",
	"javascript_scripts": "JavaScript Scripts",
	"typescript_scripts": "TypeScript Scripts",
	"cpp_sources":        "C/C++ Sources",
	"java_sources":       "Java Sources",
	"web_source":         "Web Files",
	"archives":           "Archives",
	"pdf":                "PDF",
	"json":               "JSON",
	"csv":                "CSV",
}

// DisplayName converts a category identifier to a human-readable label.
func DisplayName(category string) string {
	if name, ok := displayNames[category]; ok {
		return name
	}
	if ext, ok := strings.CutPrefix(category, "other_"); ok && ext != "no_extension" {
		return "Other - ." + ext
	}
	words := strings.Split(category, "_")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
