// Package dxl2html converts legacy groupware documents, exported as
// DXL (the XML dialect carrying rich-text structure), into a normalized
// document model and renders them as styled HTML.
//
// # Quick Start
//
// Create a service, convert one exported document, and write the
// results where you like:
//
//	svc := dxl2html.New()
//
//	result, err := svc.Convert(ctx, dxl2html.Input{
//	    DXL:        xmlBytes,
//	    DBTitle:    "TeamWiki",
//	    OutputRoot: "out",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(filepath.Join(result.OutputDir, result.BaseName+".html"),
//	    []byte(result.HTML), 0o644)
//
// Attachment payloads embedded in the XML are decoded and written under
// result.OutputDir/attachments/ as part of the conversion; everything
// else (the HTML itself, the normalized JSON) is returned as values and
// written by the caller.
//
// # Conversion Pipeline
//
// The pipeline for one document has four stages:
//
//  1. Parse: DXL XML to a NormalizedDocument tree (runs, tables, lists,
//     links, attachment references), attachment paths unresolved.
//  2. Resolve: document metadata to a deterministic, sanitized output
//     path (pure; see ResolveOutputPath).
//  3. Bind: embedded base64 payloads decoded and written to disk,
//     attachment refs rewritten to relative paths.
//  4. Render: the model to a self-contained HTML string (and, when
//     enabled, a best-effort Markdown rendition derived from it).
//
// Each stage is usable on its own: Parser, Binder, and Renderer are
// exported, and the normalized model round-trips losslessly through
// JSON, so parse/bind can run in one process and render in another.
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := dxl2html.New(
//	    dxl2html.WithLogger(logger),
//	    dxl2html.WithRenderOptions(dxl2html.RenderOptions{
//	        FontFamily:       "Noto Sans CJK JP",
//	        LinkRedirectBase: "https://notes.example.com/open?unid=",
//	    }),
//	    dxl2html.WithMarkdown(true),
//	)
//
// # Error Handling
//
// Only XML that is not well-formed fails a document (ErrParse). All
// other anomalies degrade locally: unexpected nesting is flattened to
// plain text, missing span attributes default to 1, attachments whose
// payload is absent or undecodable stay unresolved and render as
// visibly marked labels. Per-ref attachment failures are reported in
// Result.AttachmentErrors without failing the conversion.
//
// # Concurrency
//
// A Service holds no per-document state; it is safe to convert many
// documents concurrently as long as they resolve to distinct output
// folders (which distinct documents do, by construction of the path
// resolver). See cmd/dxl2html for a pooled batch driver.
package dxl2html
