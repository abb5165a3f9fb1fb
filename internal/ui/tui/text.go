package tui

import "strings"

func truncateText(text string, width int) string {
	switch {
	case width <= 0:
		return ""
	case len(text) <= width:
		return text
	case width <= 3:
		return text[:width]
	}
	return text[:width-3] + "..."
}

// formatDetail renders a labelled value wrapped to width, with
// continuation lines indented under the value column.
func formatDetail(label, text string, width int) string {
	if width <= len(label) {
		return label + text
	}
	return label + wrapValue(text, len(label), width)
}

// wrapValue wraps text to fit beside a column of the given indent and
// lines up continuation lines under the first.
func wrapValue(text string, indent, width int) string {
	if width-indent <= 0 {
		return text
	}
	wrapped := wrapText(text, width-indent)
	return strings.ReplaceAll(wrapped, "\n", "\n"+strings.Repeat(" ", indent))
}

func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	words := strings.Fields(strings.ReplaceAll(text, "\n", " "))

	var b strings.Builder
	col := 0
	for _, word := range words {
		switch {
		case col == 0:
		case col+1+len(word) > width:
			b.WriteByte('\n')
			col = 0
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(word)
		col += len(word)
	}
	return b.String()
}
