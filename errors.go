package dxl2html

import "errors"

// Sentinel errors for library operations. Only malformed input XML is
// fatal for a document; structural anomalies are repaired with defaults
// and logged, and attachment failures are isolated per ref.
var (
	ErrParse         = errors.New("input XML is not well-formed")
	ErrEmptyDocument = errors.New("input contains no document element")

	// Attachment binding errors, reported per ref and never fatal for
	// the document.
	ErrAttachmentNotFound = errors.New("no embedded payload for attachment")
	ErrAttachmentDecode   = errors.New("attachment payload decode failed")
	ErrAttachmentWrite    = errors.New("attachment write failed")

	// Rendering errors.
	ErrMarkdownConversion = errors.New("markdown conversion failed")
)
