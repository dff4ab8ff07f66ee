package dxl2html

import (
	"fmt"
	"html"
	"strings"
)

// DefaultFontFamily is used when RenderOptions leaves FontFamily empty.
const DefaultFontFamily = "Georgia"

// RenderOptions controls the HTML renderer. The zero value renders
// with defaults.
type RenderOptions struct {
	// FontFamily is the body font of the embedded stylesheet.
	FontFamily string

	// LinkRedirectBase, when set, turns document links into hyperlinks
	// of the form base + target UNID. When empty, document links render
	// as visibly unresolved text.
	LinkRedirectBase string
}

// RenderHTML renders a normalized document, responses included, to a
// complete standalone HTML page. The renderer touches no filesystem:
// attachment and image references resolve through each
// AttachmentRef.ContentPath, and refs never bound render with an
// explicit missing marker instead of a dead link.
func RenderHTML(doc *NormalizedDocument, opts RenderOptions) (string, error) {
	if doc == nil {
		return "", ErrEmptyDocument
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(doc.Title))
	b.WriteString("<style>\n")
	b.WriteString(buildDocumentCSS(opts))
	b.WriteString("</style>\n</head>\n<body>\n")

	r := &htmlRenderer{opts: opts}
	r.renderDocument(&b, doc, 1)

	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

type htmlRenderer struct {
	opts RenderOptions
	doc  *NormalizedDocument // document whose attachments resolve refs
}

func (r *htmlRenderer) renderDocument(b *strings.Builder, doc *NormalizedDocument, level int) {
	prev := r.doc
	r.doc = doc
	defer func() { r.doc = prev }()

	r.renderHeader(b, doc, level)
	for _, block := range doc.Body {
		r.renderBlock(b, block)
	}
	r.renderAttachments(b, doc)

	for _, resp := range doc.Responses {
		b.WriteString("<section class=\"responses\">\n")
		r.renderDocument(b, resp, min(level+1, 4))
		b.WriteString("</section>\n")
	}
}

func (r *htmlRenderer) renderHeader(b *strings.Builder, doc *NormalizedDocument, level int) {
	fmt.Fprintf(b, "<h%d>%s</h%d>\n", level, html.EscapeString(doc.Title), level)
	b.WriteString("<dl class=\"doc-meta\">\n")
	if doc.Form != "" {
		fmt.Fprintf(b, "<dt>Form</dt><dd>%s</dd>\n", html.EscapeString(doc.Form))
	}
	if !doc.Created.IsZero() {
		fmt.Fprintf(b, "<dt>Created</dt><dd>%s</dd>\n", doc.Created.String())
	}
	if len(doc.Categories) > 0 {
		fmt.Fprintf(b, "<dt>Categories</dt><dd>%s</dd>\n",
			html.EscapeString(strings.Join(doc.Categories, " > ")))
	}
	if doc.UNID != "" {
		fmt.Fprintf(b, "<dt>ID</dt><dd>%s</dd>\n", html.EscapeString(doc.UNID))
	}
	b.WriteString("</dl>\n")
}

func (r *htmlRenderer) renderBlock(b *strings.Builder, block Block) {
	switch block.Kind {
	case BlockParagraph:
		style := buildParagraphStyle(block)
		if style != "" {
			fmt.Fprintf(b, "<p style=\"%s\">", html.EscapeString(style))
		} else {
			b.WriteString("<p>")
		}
		r.renderRuns(b, block.Runs)
		b.WriteString("</p>\n")

	case BlockTable:
		r.renderTable(b, block)

	case BlockList:
		tag := "ul"
		if block.Ordered {
			tag = "ol"
		}
		fmt.Fprintf(b, "<%s>\n", tag)
		for _, item := range block.Items {
			b.WriteString("<li>")
			r.renderListItem(b, item)
			b.WriteString("</li>\n")
		}
		fmt.Fprintf(b, "</%s>\n", tag)

	case BlockSection:
		b.WriteString("<details class=\"doc-section\" open>\n<summary>")
		for _, tb := range block.Title {
			if tb.Kind == BlockParagraph {
				r.renderRuns(b, tb.Runs)
			}
		}
		b.WriteString("</summary>\n")
		for _, bb := range block.Body {
			r.renderBlock(b, bb)
		}
		b.WriteString("</details>\n")

	case BlockRule:
		b.WriteString("<hr>\n")
	}
}

// renderListItem unwraps a single-paragraph item to its runs so plain
// list items do not nest a <p> inside <li>.
func (r *htmlRenderer) renderListItem(b *strings.Builder, item RichTextTree) {
	if len(item) == 1 && item[0].Kind == BlockParagraph {
		r.renderRuns(b, item[0].Runs)
		return
	}
	for _, block := range item {
		r.renderBlock(b, block)
	}
}

func (r *htmlRenderer) renderTable(b *strings.Builder, block Block) {
	b.WriteString("<table>\n")
	for _, row := range block.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td")
			if cell.RowSpan > 1 {
				fmt.Fprintf(b, " rowspan=\"%d\"", cell.RowSpan)
			}
			if cell.ColSpan > 1 {
				fmt.Fprintf(b, " colspan=\"%d\"", cell.ColSpan)
			}
			if style := buildCellStyle(cell.Style); style != "" {
				fmt.Fprintf(b, " style=\"%s\"", html.EscapeString(style))
			}
			b.WriteString(">")
			for _, inner := range cell.Content {
				r.renderBlock(b, inner)
			}
			b.WriteString("</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
}

func (r *htmlRenderer) renderRuns(b *strings.Builder, runs []Run) {
	for _, run := range runs {
		r.renderRun(b, run)
	}
}

func (r *htmlRenderer) renderRun(b *strings.Builder, run Run) {
	switch run.Kind {
	case RunText:
		r.styled(b, run.Style, html.EscapeString(run.Text))

	case RunURLLink:
		inner := fmt.Sprintf("<a href=\"%s\">%s</a>",
			html.EscapeString(run.Href), html.EscapeString(run.Text))
		r.styled(b, run.Style, inner)

	case RunDocLink:
		r.renderDocLink(b, run)

	case RunAttachment:
		r.renderAttachmentRun(b, run)

	case RunPicture:
		r.renderPicture(b, run)
	}
}

// styled wraps pre-escaped inner HTML in a span when the run carries
// formatting.
func (r *htmlRenderer) styled(b *strings.Builder, s CharStyle, inner string) {
	css := buildInlineStyle(s)
	if css == "" {
		b.WriteString(inner)
		return
	}
	fmt.Fprintf(b, "<span style=\"%s\">%s</span>", html.EscapeString(css), inner)
}

func (r *htmlRenderer) renderDocLink(b *strings.Builder, run Run) {
	label := run.Text
	if label == "" {
		label = run.TargetUNID
	}
	if r.opts.LinkRedirectBase != "" && run.TargetUNID != "" {
		inner := fmt.Sprintf("<a href=\"%s%s\">%s</a>",
			html.EscapeString(r.opts.LinkRedirectBase),
			html.EscapeString(run.TargetUNID),
			html.EscapeString(label))
		r.styled(b, run.Style, inner)
		return
	}
	title := "unresolved document link"
	if run.TargetUNID != "" {
		title = "unresolved document link: " + run.TargetUNID
	}
	inner := fmt.Sprintf("<a class=\"doclink-unresolved\" title=\"%s\">%s</a>",
		html.EscapeString(title), html.EscapeString(label))
	r.styled(b, run.Style, inner)
}

func (r *htmlRenderer) renderAttachmentRun(b *strings.Builder, run Run) {
	ref := r.doc.Attachment(run.Ref)
	label := run.Text
	if label == "" {
		label = run.Ref
	}
	if ref == nil || !ref.Resolved() {
		fmt.Fprintf(b, "<span class=\"attachment-missing\">%s (missing)</span>",
			html.EscapeString(label))
		return
	}
	inner := fmt.Sprintf("<a href=\"%s\">%s</a>",
		html.EscapeString(ref.ContentPath), html.EscapeString(label))
	r.styled(b, run.Style, inner)
}

func (r *htmlRenderer) renderPicture(b *strings.Builder, run Run) {
	ref := r.doc.Attachment(run.Ref)
	if ref == nil || !ref.Resolved() {
		fmt.Fprintf(b, "<span class=\"attachment-missing\">%s (missing)</span>",
			html.EscapeString(run.Ref))
		return
	}
	fmt.Fprintf(b, "<img src=\"%s\" alt=\"%s\"",
		html.EscapeString(ref.ContentPath), html.EscapeString(ref.Name))
	if run.Width > 0 {
		fmt.Fprintf(b, " width=\"%d\"", run.Width)
	}
	if run.Height > 0 {
		fmt.Fprintf(b, " height=\"%d\"", run.Height)
	}
	b.WriteString(">")
}

func (r *htmlRenderer) renderAttachments(b *strings.Builder, doc *NormalizedDocument) {
	if len(doc.Attachments) == 0 {
		return
	}
	b.WriteString("<div class=\"attachments\">\n<h2>Attachments</h2>\n<ul>\n")
	for _, ref := range doc.Attachments {
		if ref.Resolved() {
			fmt.Fprintf(b, "<li><a href=\"%s\">%s</a>%s</li>\n",
				html.EscapeString(ref.ContentPath),
				html.EscapeString(ref.Name),
				sizeSuffix(ref.SizeBytes))
		} else {
			fmt.Fprintf(b, "<li><span class=\"attachment-missing\">%s (missing)</span></li>\n",
				html.EscapeString(ref.Name))
		}
	}
	b.WriteString("</ul>\n</div>\n")
}

func sizeSuffix(n int64) string {
	if n <= 0 {
		return ""
	}
	switch {
	case n >= 1<<20:
		return fmt.Sprintf(" (%.1f MB)", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf(" (%.1f KB)", float64(n)/(1<<10))
	}
	return fmt.Sprintf(" (%d B)", n)
}
