package tui

import "testing"

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"fits", "short", 10, "short"},
		{"exact", "exactly10!", 10, "exactly10!"},
		{"truncated", "a longer piece of text", 10, "a longe..."},
		{"tiny width", "abcdef", 3, "abc"},
		{"zero width", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateText(tt.text, tt.width); got != tt.want {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short line", "one two", 20, "one two"},
		{"wraps at width", "one two three four", 9, "one two\nthree\nfour"},
		{"collapses newlines", "one\ntwo", 20, "one two"},
		{"empty", "   ", 10, ""},
		{"non-positive width", "one two", 0, "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.width); got != tt.want {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapValueLinesUpContinuations(t *testing.T) {
	got := wrapValue("one two three", 4, 9)
	want := "one\n    two\n    three"
	if got != want {
		t.Errorf("wrapValue() = %q, want %q", got, want)
	}

	if got := wrapValue("anything", 10, 8); got != "anything" {
		t.Errorf("wrapValue() with no room = %q, want unwrapped text", got)
	}
}

func TestFormatDetailIndentsContinuations(t *testing.T) {
	got := formatDetail("Label: ", "one two three", 12)
	want := "Label: one\n       two\n       three"
	if got != want {
		t.Errorf("formatDetail() = %q, want %q", got, want)
	}
}

func TestFormatDetailNarrowWidth(t *testing.T) {
	got := formatDetail("Label: ", "text", 4)
	if got != "Label: text" {
		t.Errorf("formatDetail() = %q, want unwrapped fallback", got)
	}
}
