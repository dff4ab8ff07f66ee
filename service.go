package dxl2html

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alnah/go-dxl2html/internal/fileutil"
)

// Service is the conversion façade tying the pipeline stages together.
// Create it with New and configure it with options. A Service is safe
// for concurrent use.
type Service struct {
	log      *zap.Logger
	parser   *Parser
	binder   *Binder
	render   RenderOptions
	markdown bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger used by every stage.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithRenderOptions sets the HTML rendering options.
func WithRenderOptions(opts RenderOptions) Option {
	return func(s *Service) { s.render = opts }
}

// WithMarkdown enables the best-effort Markdown rendition alongside
// HTML.
func WithMarkdown(enabled bool) Option {
	return func(s *Service) { s.markdown = enabled }
}

// WithBodyItem overrides the item name parsed as the rich-text body.
// Parser and Binder must agree on it so inline picture positions match.
func WithBodyItem(name string) Option {
	return func(s *Service) {
		s.parser.BodyItem = name
		s.binder.BodyItem = name
	}
}

// New creates a Service with the given options.
func New(opts ...Option) *Service {
	s := &Service{
		log:    zap.NewNop(),
		parser: &Parser{},
		binder: &Binder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser.Log = s.log
	s.binder.Log = s.log
	return s
}

// Parse runs only the first pipeline stage, leaving attachments
// unresolved. Useful when a caller needs every document of a batch in
// memory before binding, to link response hierarchies first.
func (s *Service) Parse(dxl []byte) (*NormalizedDocument, error) {
	return s.parser.Parse(dxl)
}

// Bind runs only the attachment stage on an already parsed document.
func (s *Service) Bind(doc *NormalizedDocument, dxl []byte, outputDir string) ([]AttachmentError, error) {
	return s.binder.Bind(doc, dxl, outputDir)
}

// Input is one document conversion request.
type Input struct {
	// DXL is the raw export of a single document.
	DXL []byte

	// DBTitle is the source database title, the first output path
	// segment.
	DBTitle string

	// OutputRoot is the directory the per-document folder is created
	// under. When empty no files are written: attachments stay
	// unresolved and the rendered HTML marks them missing.
	OutputRoot string
}

// Result carries everything Convert produced. HTML and Markdown are
// returned, not written; OutputDir and BaseName tell the caller where
// the document's files belong.
type Result struct {
	Doc              *NormalizedDocument
	OutputDir        string
	BaseName         string
	HTML             string
	Markdown         string
	AttachmentErrors []AttachmentError
}

// Convert runs the full pipeline on one document: parse, resolve the
// output location, bind attachments to disk, render. Attachment
// failures do not fail the conversion; they are reported in the result.
func (s *Service) Convert(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := s.parser.Parse(in.DXL)
	if err != nil {
		return nil, err
	}
	s.log.Debug("parsed document",
		zap.String("unid", doc.UNID),
		zap.String("title", doc.Title),
		zap.Int("attachments", len(doc.Attachments)))

	res := &Result{
		Doc:      doc,
		BaseName: DocFolderName(doc.Created, doc.Title),
	}

	if in.OutputRoot != "" {
		rel := ResolveOutputPath(in.DBTitle, doc.Form, doc.Categories, doc.Created, doc.Title)
		res.OutputDir = filepath.Join(in.OutputRoot, filepath.FromSlash(rel))
		if err := fileutil.EnsureDir(res.OutputDir); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttachmentWrite, err)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attErrs, err := s.binder.Bind(doc, in.DXL, res.OutputDir)
		if err != nil {
			return nil, err
		}
		res.AttachmentErrors = attErrs
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := RenderHTML(doc, s.render)
	if err != nil {
		return nil, err
	}
	res.HTML = page

	if s.markdown {
		mdPage, err := RenderMarkdown(page)
		if err != nil {
			// Markdown is secondary output, HTML already succeeded.
			s.log.Warn("markdown rendition failed", zap.String("unid", doc.UNID), zap.Error(err))
		} else {
			res.Markdown = mdPage
		}
	}
	return res, nil
}

// RenderThread re-renders a root document after its Responses slice has
// been populated, so the page includes the nested response hierarchy.
func (s *Service) RenderThread(root *NormalizedDocument) (string, error) {
	return RenderHTML(root, s.render)
}
