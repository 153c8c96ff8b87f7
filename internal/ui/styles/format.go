package styles

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// TruncateString truncates s to maxWidth cells, ending with an ellipsis when cut.
// Escape sequences do not count toward the width.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return ansi.Truncate(s, maxWidth, "...")
}

// FormatPinned returns the pin marker shown before pinned names.
func FormatPinned(pinned bool) string {
	if !pinned {
		return ""
	}
	return "\U0001F4CC" // 📌
}
