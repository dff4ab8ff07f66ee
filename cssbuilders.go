package dxl2html

import (
	"fmt"
	"strings"
)

// buildInlineStyle maps a CharStyle to inline CSS declarations. The
// mapping is total: every field the model can carry produces CSS, and
// the zero style produces the empty string.
func buildInlineStyle(s CharStyle) string {
	var decls []string

	if s.Bold {
		decls = append(decls, "font-weight:bold")
	}
	if s.Italic {
		decls = append(decls, "font-style:italic")
	}
	if deco := buildTextDecoration(s); deco != "" {
		decls = append(decls, deco)
	}
	switch s.Script {
	case ScriptSuper:
		decls = append(decls, "vertical-align:super", "font-size:smaller")
	case ScriptSub:
		decls = append(decls, "vertical-align:sub", "font-size:smaller")
	}
	if c := cssColor(s.Color); c != "" {
		decls = append(decls, "color:"+c)
	}
	if c := cssColor(s.Background); c != "" {
		decls = append(decls, "background-color:"+c)
	}
	if s.FontSizePt > 0 {
		decls = append(decls, fmt.Sprintf("font-size:%gpt", s.FontSizePt))
	}
	if s.FontFamily != "" {
		decls = append(decls, fmt.Sprintf("font-family:'%s'", escapeCSSString(s.FontFamily)))
	}

	return strings.Join(decls, ";")
}

// buildTextDecoration combines underline and strikethrough into one
// declaration, since the later one would otherwise win.
func buildTextDecoration(s CharStyle) string {
	var parts []string
	if s.Underline {
		parts = append(parts, "underline")
	}
	if s.Strikethrough {
		parts = append(parts, "line-through")
	}
	if len(parts) == 0 {
		return ""
	}
	return "text-decoration:" + strings.Join(parts, " ")
}

// buildParagraphStyle maps block-level attributes to inline CSS.
func buildParagraphStyle(b Block) string {
	var decls []string
	if b.Align != "" {
		decls = append(decls, "text-align:"+b.Align)
	}
	if b.Style.LeftMarginIn > 0 {
		decls = append(decls, fmt.Sprintf("margin-left:%gin", b.Style.LeftMarginIn))
	}
	return strings.Join(decls, ";")
}

// buildCellStyle maps table cell attributes to inline CSS.
func buildCellStyle(c CellStyle) string {
	var decls []string
	if v := cssColor(c.Background); v != "" {
		decls = append(decls, "background-color:"+v)
	}
	if c.Width != "" {
		decls = append(decls, "width:"+escapeCSSString(c.Width))
	}
	return strings.Join(decls, ";")
}

// buildDocumentCSS returns the embedded stylesheet for a rendered
// document.
func buildDocumentCSS(opts RenderOptions) string {
	font := opts.FontFamily
	if font == "" {
		font = DefaultFontFamily
	}

	var b strings.Builder
	fmt.Fprintf(&b, `body {
  font-family: '%s', sans-serif;
  margin: 2em auto;
  max-width: 52em;
  padding: 0 1em;
  color: #1a1a1a;
  line-height: 1.5;
}
`, escapeCSSString(font))
	b.WriteString(`h1 { font-size: 1.6em; margin-bottom: 0.2em; }
.doc-meta { color: #555; font-size: 0.9em; margin-bottom: 1.5em; }
.doc-meta dt { font-weight: bold; display: inline; }
.doc-meta dd { display: inline; margin: 0 1em 0 0.3em; }
table { border-collapse: collapse; margin: 1em 0; }
td, th { border: 1px solid #bbb; padding: 0.3em 0.6em; vertical-align: top; }
hr { border: none; border-top: 1px solid #bbb; margin: 1.5em 0; }
details.doc-section { margin: 0.8em 0; }
details.doc-section > summary { cursor: pointer; font-weight: bold; }
a.doclink-unresolved { color: #888; text-decoration: underline dotted; cursor: help; }
.attachments { margin-top: 2em; border-top: 1px solid #ddd; padding-top: 0.8em; }
.attachments h2 { font-size: 1.1em; }
.attachment-missing { color: #a33; }
.responses { margin-left: 2em; border-left: 2px solid #ddd; padding-left: 1em; }
img { max-width: 100%; }
`)
	return b.String()
}

// cssColor passes through colors the model carries, dropping the DXL
// "system" pseudo-color and anything containing CSS metacharacters.
func cssColor(v string) string {
	if v == "" || v == "system" || v == "none" {
		return ""
	}
	if strings.ContainsAny(v, ";{}()<>\"'") {
		return ""
	}
	return v
}

// escapeCSSString escapes characters that would break out of a CSS
// string literal.
func escapeCSSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
