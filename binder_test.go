package dxl2html

// Notes:
// - Binder.Bind: tests payload decoding and writing, collision-suffixed
//   duplicate names, idempotent re-binding, content-hash reuse, and
//   per-ref missing-payload errors
// - inlineImageIndex: tests inline name recognition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func bindFixture(t *testing.T, dxl []byte) (*NormalizedDocument, string, []AttachmentError) {
	t.Helper()
	doc := mustParse(t, dxl)
	outDir := t.TempDir()
	b := &Binder{}
	errs, err := b.Bind(doc, dxl, outDir)
	if err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	return doc, outDir, errs
}

// ---------------------------------------------------------------------------
// TestBind - Payload Binding
// ---------------------------------------------------------------------------

func TestBindWritesPayload(t *testing.T) {
	t.Parallel()

	// "aGVsbG8=" is base64 for "hello".
	dxl := wrapDocument(`
<item name="$FILE"><object><file name="report.txt" size="5"><filedata>aGVsbG8=</filedata></file></object></item>`)

	doc, outDir, errs := bindFixture(t, dxl)
	if len(errs) != 0 {
		t.Fatalf("attachment errors: %v", errs)
	}

	ref := doc.Attachment("report.txt")
	if ref == nil || !ref.Resolved() {
		t.Fatalf("ref not resolved: %+v", ref)
	}
	if ref.ContentPath != "attachments/report.txt" {
		t.Errorf("ContentPath = %q", ref.ContentPath)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "attachments", "report.txt"))
	if err != nil {
		t.Fatalf("reading bound file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("bound content = %q, want hello", data)
	}
}

func TestBindDuplicateNamesDistinctContent(t *testing.T) {
	t.Parallel()

	// Two payloads declared under the same name with different bytes
	// must land as image.png and image (1).png.
	dxl := wrapDocument(`
<item name="$FILE"><object><file name="image.png" size="5"><filedata>aGVsbG8=</filedata></file></object></item>
<item name="$FILE"><object><file name="image.png" size="5"><filedata>d29ybGQ=</filedata></file></object></item>`)

	doc, outDir, errs := bindFixture(t, dxl)
	if len(errs) != 0 {
		t.Fatalf("attachment errors: %v", errs)
	}

	first := doc.Attachment("image.png")
	second := doc.Attachment("image (1).png")
	if first == nil || second == nil {
		t.Fatalf("attachments = %+v", doc.Attachments)
	}
	if first.ContentPath == second.ContentPath {
		t.Errorf("duplicate names share a path: %q", first.ContentPath)
	}

	a, _ := os.ReadFile(filepath.Join(outDir, "attachments", "image.png"))
	b, _ := os.ReadFile(filepath.Join(outDir, "attachments", "image (1).png"))
	if string(a) != "hello" || string(b) != "world" {
		t.Errorf("contents = %q, %q", a, b)
	}
}

func TestBindIdempotent(t *testing.T) {
	t.Parallel()

	dxl := wrapDocument(`
<item name="$FILE"><object><file name="report.txt" size="5"><filedata>aGVsbG8=</filedata></file></object></item>`)

	doc := mustParse(t, dxl)
	outDir := t.TempDir()
	b := &Binder{}

	if _, err := b.Bind(doc, dxl, outDir); err != nil {
		t.Fatalf("first Bind() error: %v", err)
	}
	firstPath := doc.Attachment("report.txt").ContentPath

	// Re-binding the same document must not duplicate files.
	if _, err := b.Bind(doc, dxl, outDir); err != nil {
		t.Fatalf("second Bind() error: %v", err)
	}
	if got := doc.Attachment("report.txt").ContentPath; got != firstPath {
		t.Errorf("ContentPath changed on re-bind: %q -> %q", firstPath, got)
	}

	entries, err := os.ReadDir(filepath.Join(outDir, "attachments"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("attachment files = %d, want 1", len(entries))
	}
}

func TestBindReusesIdenticalOnDiskFile(t *testing.T) {
	t.Parallel()

	dxl := wrapDocument(`
<item name="$FILE"><object><file name="report.txt" size="5"><filedata>aGVsbG8=</filedata></file></object></item>`)

	doc := mustParse(t, dxl)
	outDir := t.TempDir()

	// A previous run left an identical file behind.
	attDir := filepath.Join(outDir, "attachments")
	if err := os.MkdirAll(attDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(attDir, "report.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := &Binder{}
	if _, err := b.Bind(doc, dxl, outDir); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if got := doc.Attachment("report.txt").ContentPath; got != "attachments/report.txt" {
		t.Errorf("ContentPath = %q, want reuse of existing file", got)
	}
}

func TestBindCollidesWithDifferentOnDiskFile(t *testing.T) {
	t.Parallel()

	dxl := wrapDocument(`
<item name="$FILE"><object><file name="report.txt" size="5"><filedata>aGVsbG8=</filedata></file></object></item>`)

	doc := mustParse(t, dxl)
	outDir := t.TempDir()

	attDir := filepath.Join(outDir, "attachments")
	if err := os.MkdirAll(attDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(attDir, "report.txt"), []byte("other"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := &Binder{}
	if _, err := b.Bind(doc, dxl, outDir); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if got := doc.Attachment("report.txt").ContentPath; got != "attachments/report (1).txt" {
		t.Errorf("ContentPath = %q, want suffixed path", got)
	}
	if data, _ := os.ReadFile(filepath.Join(attDir, "report.txt")); string(data) != "other" {
		t.Error("existing file was overwritten")
	}
}

func TestBindMissingPayload(t *testing.T) {
	t.Parallel()

	dxl := wrapDocument(`
<item name="Body"><richtext>
<pardef id="1"/>
<par def="1"><attachmentref name="ghost.txt"/></par>
</richtext></item>`)

	doc, _, errs := bindFixture(t, dxl)
	if len(errs) != 1 {
		t.Fatalf("attachment errors = %d, want 1", len(errs))
	}
	if errs[0].Name != "ghost.txt" || !errors.Is(errs[0], ErrAttachmentNotFound) {
		t.Errorf("error = %+v", errs[0])
	}
	if doc.Attachment("ghost.txt").Resolved() {
		t.Error("missing payload ref marked resolved")
	}
}

func TestBindInlinePicture(t *testing.T) {
	t.Parallel()

	dxl := wrapDocument(`
<item name="Body"><richtext>
<pardef id="1"/>
<par def="1"><picture width="10px"><png>aGVsbG8=</png></picture></par>
</richtext></item>`)

	doc, outDir, errs := bindFixture(t, dxl)
	if len(errs) != 0 {
		t.Fatalf("attachment errors: %v", errs)
	}
	ref := doc.Attachment("inline_image_0.png")
	if ref == nil || !ref.Resolved() {
		t.Fatalf("inline ref = %+v", ref)
	}
	if _, err := os.Stat(filepath.Join(outDir, "attachments", "inline_image_0.png")); err != nil {
		t.Errorf("inline image file not written: %v", err)
	}
}

func TestBindInlinePicturesMixedDepth(t *testing.T) {
	t.Parallel()

	// Payload order must follow the parse walk: the cell picture comes
	// first in document order even though it nests deeper, the
	// attachmentref icon and the non-body item never consume an index.
	dxl := wrapDocument(`
<item name="$FILE"><object><file name="report.pdf" size="3"><filedata>UERG</filedata></file></object></item>
<item name="Body"><richtext>
<pardef id="1"/>
<par def="1"><attachmentref name="report.pdf"><picture><gif>SUNPTg==</gif></picture></attachmentref></par>
<table><tablerow><tablecell><par def="1"><picture width="5px"><gif>Rk9PMQ==</gif></picture></par></tablecell></tablerow></table>
<par def="1"><picture width="5px"><gif>QkFSMg==</gif></picture></par>
</richtext></item>
<item name="Draft"><richtext>
<pardef id="2"/>
<par def="2"><picture><gif>REVDT1k=</gif></picture></par>
</richtext></item>`)

	doc, outDir, errs := bindFixture(t, dxl)
	if len(errs) != 0 {
		t.Fatalf("attachment errors: %v", errs)
	}
	if got := len(doc.Attachments); got != 3 {
		t.Fatalf("attachments = %d, want report.pdf plus two inline images", got)
	}

	first, err := os.ReadFile(filepath.Join(outDir, "attachments", "inline_image_0.gif"))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != "FOO1" {
		t.Errorf("inline_image_0.gif = %q, want the cell picture payload FOO1", first)
	}
	second, err := os.ReadFile(filepath.Join(outDir, "attachments", "inline_image_1.gif"))
	if err != nil {
		t.Fatal(err)
	}
	if string(second) != "BAR2" {
		t.Errorf("inline_image_1.gif = %q, want the paragraph picture payload BAR2", second)
	}
	if _, err := os.Stat(filepath.Join(outDir, "attachments", "inline_image_2.gif")); err == nil {
		t.Error("picture from a non-body item was bound")
	}
}

func TestBindUndecodablePayload(t *testing.T) {
	t.Parallel()

	dxl := wrapDocument(`
<item name="$FILE"><object><file name="bad.bin" size="3"><filedata>!!!not-base64!!!</filedata></file></object></item>`)

	_, _, errs := bindFixture(t, dxl)
	if len(errs) != 1 || !errors.Is(errs[0], ErrAttachmentDecode) {
		t.Fatalf("errors = %v, want one ErrAttachmentDecode", errs)
	}
}

// ---------------------------------------------------------------------------
// TestInlineImageIndex - Inline Name Recognition
// ---------------------------------------------------------------------------

func TestInlineImageIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		index    int
		expected bool
	}{
		{name: "first inline", input: "inline_image_0.png", index: 0, expected: true},
		{name: "double digits", input: "inline_image_12.gif", index: 12, expected: true},
		{name: "declared file", input: "report.pdf", expected: false},
		{name: "prefix only", input: "inline_image_.png", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			idx, ok := inlineImageIndex(tt.input)
			if ok != tt.expected || (ok && idx != tt.index) {
				t.Errorf("inlineImageIndex(%q) = %d,%v want %d,%v", tt.input, idx, ok, tt.index, tt.expected)
			}
		})
	}
}
