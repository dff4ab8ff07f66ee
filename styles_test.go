package dxl2html

// Notes:
// - CharStyle.Merge: tests overlay layering and boolean accumulation
// - styleStack: tests scoped push/pop and bottom-up aggregation

import "testing"

// ---------------------------------------------------------------------------
// TestCharStyleMerge - Style Layering
// ---------------------------------------------------------------------------

func TestCharStyleMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     CharStyle
		overlay  CharStyle
		expected CharStyle
	}{
		{
			name:     "zero overlay inherits everything",
			base:     CharStyle{Bold: true, Color: "red", FontSizePt: 10},
			expected: CharStyle{Bold: true, Color: "red", FontSizePt: 10},
		},
		{
			name:     "overlay color wins",
			base:     CharStyle{Color: "red"},
			overlay:  CharStyle{Color: "blue"},
			expected: CharStyle{Color: "blue"},
		},
		{
			name:     "booleans accumulate",
			base:     CharStyle{Bold: true},
			overlay:  CharStyle{Italic: true},
			expected: CharStyle{Bold: true, Italic: true},
		},
		{
			name:     "script overrides",
			base:     CharStyle{Script: ScriptSuper},
			overlay:  CharStyle{Script: ScriptSub},
			expected: CharStyle{Script: ScriptSub},
		},
		{
			name:     "font family and size independent",
			base:     CharStyle{FontFamily: "Georgia"},
			overlay:  CharStyle{FontSizePt: 14},
			expected: CharStyle{FontFamily: "Georgia", FontSizePt: 14},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.base.Merge(tt.overlay); got != tt.expected {
				t.Errorf("Merge() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestStyleStack - Scoped Style Context
// ---------------------------------------------------------------------------

func TestStyleStack(t *testing.T) {
	t.Parallel()

	var st styleStack

	if !st.current().IsZero() {
		t.Error("empty stack should aggregate to zero style")
	}

	st.push(CharStyle{Color: "red"})
	st.push(CharStyle{Bold: true})
	cur := st.current()
	if cur.Color != "red" || !cur.Bold {
		t.Errorf("current = %+v", cur)
	}

	st.push(CharStyle{Color: "blue"})
	if got := st.current().Color; got != "blue" {
		t.Errorf("nearest frame should win, got color %q", got)
	}

	st.pop()
	if got := st.current().Color; got != "red" {
		t.Errorf("pop should restore outer color, got %q", got)
	}

	st.pop()
	st.pop()
	if !st.current().IsZero() {
		t.Error("fully popped stack should be zero again")
	}

	// Popping past empty must not panic.
	st.pop()
}
