package dxl2html

// Script positions for CharStyle.
const (
	ScriptNone  = ""
	ScriptSuper = "super"
	ScriptSub   = "sub"
)

// CharStyle is a flat record of character formatting. The zero value of
// every field means "inherit/default", not "off"; the parser only sets
// a field when the source carries an explicit attribute for it.
type CharStyle struct {
	Bold          bool    `json:"bold,omitempty"`
	Italic        bool    `json:"italic,omitempty"`
	Underline     bool    `json:"underline,omitempty"`
	Strikethrough bool    `json:"strikethrough,omitempty"`
	Script        string  `json:"script,omitempty"` // "", "super", "sub"
	Color         string  `json:"color,omitempty"`
	Background    string  `json:"background,omitempty"`
	FontSizePt    float64 `json:"fontSizePt,omitempty"`
	FontFamily    string  `json:"fontFamily,omitempty"`
}

// IsZero reports whether no field is set.
func (s CharStyle) IsZero() bool { return s == CharStyle{} }

// Merge layers overlay on top of s: explicit overlay fields win, unset
// overlay fields inherit from s. Boolean flags only ever turn on; the
// source dialect has no "un-bold inside bold" construct.
func (s CharStyle) Merge(overlay CharStyle) CharStyle {
	out := s
	out.Bold = s.Bold || overlay.Bold
	out.Italic = s.Italic || overlay.Italic
	out.Underline = s.Underline || overlay.Underline
	out.Strikethrough = s.Strikethrough || overlay.Strikethrough
	if overlay.Script != ScriptNone {
		out.Script = overlay.Script
	}
	if overlay.Color != "" {
		out.Color = overlay.Color
	}
	if overlay.Background != "" {
		out.Background = overlay.Background
	}
	if overlay.FontSizePt != 0 {
		out.FontSizePt = overlay.FontSizePt
	}
	if overlay.FontFamily != "" {
		out.FontFamily = overlay.FontFamily
	}
	return out
}

// styleStack is the scoped style context threaded through the recursive
// descent: pushed entering a formatting subtree, popped on exit. Never
// a global.
type styleStack []CharStyle

func (st *styleStack) push(s CharStyle) { *st = append(*st, s) }

func (st *styleStack) pop() {
	if len(*st) > 0 {
		*st = (*st)[:len(*st)-1]
	}
}

// current aggregates the stack bottom-up, nearest frame winning.
func (st styleStack) current() CharStyle {
	var cur CharStyle
	for _, s := range st {
		cur = cur.Merge(s)
	}
	return cur
}
