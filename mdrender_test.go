package dxl2html

// Notes:
// - RenderMarkdown: tests best-effort conversion of a rendered page

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRenderMarkdown - Markdown Rendition
// ---------------------------------------------------------------------------

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	doc := testDocument()
	doc.Body = RichTextTree{
		{Kind: BlockParagraph, Runs: []Run{
			{Kind: RunText, Text: "plain "},
			{Kind: RunText, Text: "bold", Style: CharStyle{Bold: true}},
		}},
		{Kind: BlockList, Items: []RichTextTree{
			{{Kind: BlockParagraph, Runs: []Run{{Kind: RunText, Text: "item one"}}}},
			{{Kind: BlockParagraph, Runs: []Run{{Kind: RunText, Text: "item two"}}}},
		}},
	}

	page, err := RenderHTML(doc, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}

	md, err := RenderMarkdown(page)
	if err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	if !strings.Contains(md, "# Quarterly Report") {
		t.Errorf("markdown missing heading: %q", md)
	}
	if !strings.Contains(md, "item one") || !strings.Contains(md, "item two") {
		t.Error("markdown lost list items")
	}
}
