package dxl2html

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-dxl2html/internal/fileutil"
)

// AttachmentsSubdir is the directory under the document folder that
// bound attachment files land in.
const AttachmentsSubdir = "attachments"

// AttachmentError reports one attachment that could not be bound. The
// rest of the document is unaffected.
type AttachmentError struct {
	Name string
	Err  error
}

func (e AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q: %v", e.Name, e.Err)
}

func (e AttachmentError) Unwrap() error { return e.Err }

// Binder extracts base64 payloads from a DXL export, writes them under
// the document's attachments directory, and fills in each
// AttachmentRef.ContentPath. The zero value is usable. BodyItem must
// match the Parser's so inline picture positions line up.
type Binder struct {
	Log *zap.Logger

	// BodyItem is the rich-text item name the Parser was configured
	// with; empty means DefaultBodyItem.
	BodyItem string
}

// Bind writes every payload the export carries for doc's attachments
// into outputDir/attachments and records each ContentPath as a
// slash-separated path relative to outputDir. Refs that already carry a
// ContentPath pointing at an existing file are skipped, so re-running a
// conversion is idempotent. Per-attachment failures are collected and
// returned; only an unusable attachments directory is fatal.
func (b *Binder) Bind(doc *NormalizedDocument, dxl []byte, outputDir string) ([]AttachmentError, error) {
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}

	payloads, err := b.extractPayloads(dxl)
	if err != nil {
		return nil, err
	}

	attDir := filepath.Join(outputDir, AttachmentsSubdir)
	if len(doc.Attachments) > 0 {
		if err := fileutil.EnsureDir(attDir); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttachmentWrite, err)
		}
	}

	var errs []AttachmentError
	for _, ref := range doc.Attachments {
		if ref.Resolved() && fileutil.FileExists(filepath.Join(outputDir, filepath.FromSlash(ref.ContentPath))) {
			continue
		}
		content, ok := payloads.take(ref.Name)
		if !ok || strings.TrimSpace(content) == "" {
			errs = append(errs, AttachmentError{Name: ref.Name, Err: ErrAttachmentNotFound})
			log.Warn("attachment payload missing", zap.String("name", ref.Name))
			continue
		}
		data, err := decodeBase64(content)
		if err != nil {
			errs = append(errs, AttachmentError{Name: ref.Name, Err: fmt.Errorf("%w: %v", ErrAttachmentDecode, err)})
			log.Warn("attachment payload undecodable", zap.String("name", ref.Name))
			continue
		}

		finalName, err := writeAttachment(attDir, ref.Name, data)
		if err != nil {
			errs = append(errs, AttachmentError{Name: ref.Name, Err: fmt.Errorf("%w: %v", ErrAttachmentWrite, err)})
			log.Warn("attachment write failed", zap.String("name", ref.Name), zap.Error(err))
			continue
		}
		ref.ContentPath = path.Join(AttachmentsSubdir, finalName)
		if ref.SizeBytes == 0 {
			ref.SizeBytes = int64(len(data))
		}
	}
	return errs, nil
}

// writeAttachment places data at dir/name, resolving on-disk collisions
// by content: an existing file with identical bytes is reused, a
// different one pushes the new file to the next free "name (n)" slot.
// Returns the file name actually used.
func writeAttachment(dir, name string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	candidate := name
	for n := 1; ; n++ {
		target := filepath.Join(dir, candidate)
		if !fileutil.FileExists(target) {
			if err := fileutil.WriteFileAtomic(target, data); err != nil {
				return "", err
			}
			return candidate, nil
		}
		existing, err := os.ReadFile(target) // #nosec G304 -- path is built from a sanitized name under our own dir
		if err == nil && sha256.Sum256(existing) == sum {
			return candidate, nil
		}
		candidate = suffixedName(name, n)
	}
}

func decodeBase64(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		// Some exporters omit padding.
		data, err = base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(clean)
	}
	return data, err
}

// ---------------------------------------------------------------------------
// Payload extraction
// ---------------------------------------------------------------------------

// payloadSet holds the raw base64 bodies found in one export, keyed the
// same way the Parser assigns AttachmentRef names: $FILE payloads by
// declared file name in occurrence order, inline pictures by position.
type payloadSet struct {
	files  map[string][]string
	inline []string
}

// take consumes the payload for the given ref name. Collision-suffixed
// names fall back to the next payload of their source name, mirroring
// the registration order of the Parser.
func (p *payloadSet) take(refName string) (string, bool) {
	if idx, ok := inlineImageIndex(refName); ok {
		if idx < len(p.inline) && p.inline[idx] != "" {
			content := p.inline[idx]
			p.inline[idx] = ""
			return content, true
		}
		return "", false
	}
	source := AttachmentSourceName(refName)
	queue := p.files[source]
	if len(queue) == 0 {
		return "", false
	}
	p.files[source] = queue[1:]
	return queue[0], true
}

// inlineImageIndex parses the position out of an "inline_image_N.ext"
// name.
func inlineImageIndex(name string) (int, bool) {
	const prefix = "inline_image_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	numPart := strings.TrimSuffix(name[len(prefix):], path.Ext(name))
	idx := 0
	if numPart == "" {
		return 0, false
	}
	for _, r := range numPart {
		if r < '0' || r > '9' {
			return 0, false
		}
		idx = idx*10 + int(r-'0')
	}
	return idx, true
}

// extractPayloads re-runs the Parser over the export and lifts the
// base64 bodies its registry captured. Reusing the parse walk keeps
// payload order identical to ref registration by construction: inline
// pictures are numbered by the same document-order descent, and
// subtrees the Parser skips never shift an index here.
func (b *Binder) extractPayloads(dxl []byte) (*payloadSet, error) {
	parser := &Parser{Log: b.Log, BodyItem: b.BodyItem}
	_, reg, err := parser.parse(dxl)
	if err != nil {
		return nil, err
	}
	return &payloadSet{files: reg.fileBodies, inline: reg.inlineBodies}, nil
}
