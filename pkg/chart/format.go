package chart

import (
	"fmt"
	"math"

	"github.com/mattn/go-runewidth"
)

// FormatNumber renders n for axis labels: values past a thousand collapse to
// a "1.2k" form, otherwise the requested precision applies.
func FormatNumber(n float64, precision int) string {
	if math.Abs(n) >= 1000 {
		return fmt.Sprintf("%.1fk", n/1000)
	}
	if precision <= 0 {
		return fmt.Sprintf("%.0f", n)
	}
	return fmt.Sprintf("%.*f", precision, n)
}

// Truncate shortens s to at most maxWidth display cells, appending "..." when
// it had to cut. Width is measured with go-runewidth so wide characters count
// correctly.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth-3, "") + "..."
}
