package dxl2html

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxCategoryDepth limits how many category levels appear in the model.
// Deeper source levels are collapsed into the last one.
const MaxCategoryDepth = 3

// NormalizedDocument is the portable, format-agnostic representation of
// one source document. It is created once by the Parser, its attachment
// paths are filled in by the Binder, and the renderers only read it.
type NormalizedDocument struct {
	UNID        string                `json:"unid"`
	Form        string                `json:"form"`
	Created     Date                  `json:"createdDate"`
	Title       string                `json:"title"`
	Categories  []string              `json:"categories"`
	Fields      map[string]FieldValue `json:"fields"`
	Body        RichTextTree          `json:"body"`
	ParentUNID  string                `json:"parentUnid,omitempty"`
	Responses   []*NormalizedDocument `json:"responses"`
	Attachments []*AttachmentRef      `json:"attachments"`
}

// Attachment returns the ref with the given name, or nil.
func (d *NormalizedDocument) Attachment(name string) *AttachmentRef {
	for _, ref := range d.Attachments {
		if ref.Name == name {
			return ref
		}
	}
	return nil
}

// Date is a calendar date with day precision. The source system carries
// full timestamps; only the date part participates in path generation
// and in the normalized JSON form.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compact formats the date as the 8-digit YYYYMMDD form used in paths.
func (d Date) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" || s == "0000-00-00" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// FieldValue kinds. Exactly one value slot is populated per kind.
const (
	FieldText         = "text"
	FieldTextList     = "textlist"
	FieldNumber       = "number"
	FieldNumberList   = "numberlist"
	FieldDateTime     = "datetime"
	FieldDateTimeList = "datetimelist"
)

// FieldValue is a non-rich-text item value: a scalar or a flat list.
type FieldValue struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Texts   []string    `json:"texts,omitempty"`
	Number  float64     `json:"number,omitempty"`
	Numbers []float64   `json:"numbers,omitempty"`
	Time    *time.Time  `json:"time,omitempty"`
	Times   []time.Time `json:"times,omitempty"`
}

// RichTextTree is an ordered sequence of blocks. Depth is bounded only
// by source nesting; the ownership graph never cycles.
type RichTextTree []Block

// Block kinds for the closed tagged variant.
const (
	BlockParagraph = "par"
	BlockTable     = "table"
	BlockList      = "list"
	BlockSection   = "section"
	BlockRule      = "rule"
)

// Block is one structural element of rich text. Kind selects which of
// the payload fields are meaningful; the renderers switch exhaustively
// on it.
type Block struct {
	Kind string `json:"t"`

	// BlockParagraph
	Runs  []Run    `json:"runs,omitempty"`
	Align string   `json:"align,omitempty"` // "", "center", "right", "justify"
	Style ParStyle `json:"parStyle,omitzero"`

	// BlockTable
	Rows [][]TableCell `json:"rows,omitempty"`

	// BlockList
	Items   []RichTextTree `json:"items,omitempty"`
	Ordered bool           `json:"ordered,omitempty"`

	// BlockSection
	Title RichTextTree `json:"title,omitempty"`
	Body  RichTextTree `json:"body,omitempty"`
}

// ParStyle carries paragraph-level presentation hints.
type ParStyle struct {
	LeftMarginIn float64 `json:"leftMarginIn,omitempty"`
}

// TableCell is one cell of a table row. Spans are always >= 1 in a
// parsed model; malformed sources are clamped, never rejected.
type TableCell struct {
	Content RichTextTree `json:"content"`
	RowSpan int          `json:"rowSpan"`
	ColSpan int          `json:"colSpan"`
	Style   CellStyle    `json:"cellStyle,omitzero"`
}

// CellStyle carries cell-level presentation hints.
type CellStyle struct {
	Background string `json:"background,omitempty"`
	Width      string `json:"width,omitempty"`
}

// Run kinds for the closed tagged variant.
const (
	RunText       = "text"
	RunDocLink    = "doclink"
	RunURLLink    = "urllink"
	RunAttachment = "attachmentref"
	RunPicture    = "picture"
)

// Run is one inline element of a paragraph. Kind selects the payload.
type Run struct {
	Kind string `json:"t"`

	// RunText; Style also applies to link display text.
	Text  string    `json:"text,omitempty"`
	Style CharStyle `json:"style,omitzero"`

	// RunDocLink
	TargetUNID   string `json:"targetUnid,omitempty"`
	TargetDBHint string `json:"targetDb,omitempty"`

	// RunURLLink
	Href string `json:"href,omitempty"`

	// RunAttachment / RunPicture, bound by name to an AttachmentRef.
	Ref string `json:"ref,omitempty"`

	// RunPicture display size in pixels; 0 means unspecified.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// AttachmentRef is a named placeholder for an embedded binary payload.
// ContentPath is empty until the Binder materializes the payload, then
// holds a path relative to the document's own output folder. Entries
// are stable by Name across the parse and bind phases.
type AttachmentRef struct {
	Name        string `json:"name"`
	MIMEHint    string `json:"mimeHint,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
	ContentPath string `json:"contentPath"`
}

// Resolved reports whether the Binder has materialized this ref.
func (a *AttachmentRef) Resolved() bool { return a.ContentPath != "" }
