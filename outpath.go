package dxl2html

import (
	"path"
	"strings"
	"unicode/utf8"
)

// Path sanitization policy. MaxSegmentBytes is the pinned limit for one
// path segment; truncation never splits a multi-byte rune.
const (
	MaxSegmentBytes = 100

	PlaceholderUntitled      = "untitled"
	PlaceholderUncategorized = "uncategorized"
	PlaceholderNoDatabase    = "nodatabase"
	PlaceholderNoForm        = "noform"
	PlaceholderNoDate        = "nodate"
)

// Characters replaced with '_' inside a path segment, plus ASCII
// control characters. Spaces are normalized away too so folder names
// stay shell-friendly, matching the legacy export layout.
const illegalSegmentChars = `<>:"/\|?* ` + "\t\n\r"

// ResolveOutputPath derives the output folder for a document from its
// metadata: dbTitle/form/cat1_cat2_cat3/Doc_YYYYMMDD_title. It is pure,
// total, and deterministic; degenerate inputs fall back to placeholder
// tokens instead of failing. The returned path uses forward slashes and
// is relative to the caller's output root.
func ResolveOutputPath(dbTitle, form string, categories []string, created Date, title string) string {
	segments := []string{
		sanitizeSegment(dbTitle, PlaceholderNoDatabase),
		sanitizeSegment(form, PlaceholderNoForm),
		categorySegment(categories),
		docFolderName(created, title),
	}
	return path.Join(segments...)
}

// DocFolderName is the leaf folder (and output file base name) for a
// document: Doc_YYYYMMDD_title.
func DocFolderName(created Date, title string) string {
	return docFolderName(created, title)
}

func docFolderName(created Date, title string) string {
	date := PlaceholderNoDate
	if !created.IsZero() {
		date = created.Compact()
	}
	return "Doc_" + date + "_" + sanitizeSegment(title, PlaceholderUntitled)
}

// SplitCategories splits a delimited category string on "/", ">" and
// "\" equivalently, trims the pieces, and collapses anything beyond
// MaxCategoryDepth into the last level.
func SplitCategories(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == '>' || r == '\\'
	})
	var cats []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cats = append(cats, p)
		}
	}
	return CollapseCategories(cats)
}

// CollapseCategories enforces the depth invariant: at most
// MaxCategoryDepth entries, with deeper levels joined into the last.
func CollapseCategories(cats []string) []string {
	if len(cats) <= MaxCategoryDepth {
		return cats
	}
	out := make([]string, MaxCategoryDepth)
	copy(out, cats[:MaxCategoryDepth-1])
	out[MaxCategoryDepth-1] = strings.Join(cats[MaxCategoryDepth-1:], "_")
	return out
}

// categorySegment joins the (already depth-limited) categories into one
// path segment.
func categorySegment(cats []string) string {
	cats = CollapseCategories(cats)
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		if s := sanitizeSegment(c, ""); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return PlaceholderUncategorized
	}
	return strings.Join(parts, "_")
}

// sanitizeSegment makes one path segment filesystem-safe: illegal and
// control characters become '_', runs of '_' collapse, leading/trailing
// dots and underscores are stripped, and the result is truncated to
// MaxSegmentBytes at a rune boundary. An empty result yields fallback.
func sanitizeSegment(s, fallback string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || strings.ContainsRune(illegalSegmentChars, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}

	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '_' })
	out := strings.Join(parts, "_")
	out = strings.Trim(out, " ._")
	out = truncateRuneSafe(out, MaxSegmentBytes)
	out = strings.TrimRight(out, " ._")

	if out == "" {
		return fallback
	}
	return out
}

// truncateRuneSafe limits s to max bytes without splitting a rune.
func truncateRuneSafe(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
