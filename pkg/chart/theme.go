package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Theme names the color roles charts draw with, plus an ordered accent
// palette cycled by multi-series charts. Values are hex strings; the core
// treats them as opaque until the moment they hit the drawing surface.
type Theme struct {
	Primary    string   `yaml:"primary"`
	Secondary  string   `yaml:"secondary"`
	Success    string   `yaml:"success"`
	Warning    string   `yaml:"warning"`
	Danger     string   `yaml:"danger"`
	Background string   `yaml:"background"`
	Text       string   `yaml:"text"`
	Grid       string   `yaml:"grid"`
	Accent     []string `yaml:"accent,omitempty"`
}

// DefaultTheme returns the standard light theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:    "#3B82F6",
		Secondary:  "#6B7280",
		Success:    "#10B981",
		Warning:    "#F59E0B",
		Danger:     "#EF4444",
		Background: "#FFFFFF",
		Text:       "#1F2937",
		Grid:       "#E5E7EB",
		Accent: []string{
			"#3B82F6", // blue
			"#10B981", // green
			"#F59E0B", // amber
			"#EF4444", // red
			"#8B5CF6", // purple
			"#EC4899", // pink
			"#06B6D4", // cyan
			"#84CC16", // lime
		},
	}
}

// AccentAt returns the accent color for series index i, wrapping around the
// palette. Falls back to Primary when the palette is empty.
func (t Theme) AccentAt(i int) string {
	if len(t.Accent) == 0 {
		return t.Primary
	}
	return t.Accent[i%len(t.Accent)]
}

// parseHex decodes a #RRGGBB string. Malformed components decode as zero so
// a bad theme value degrades to a dark channel instead of failing a render.
func parseHex(s string) (r, g, b uint8) {
	s = strings.TrimPrefix(s, "#")
	if len(s) < 6 {
		return 0, 0, 0
	}
	pr, _ := strconv.ParseUint(s[0:2], 16, 8)
	pg, _ := strconv.ParseUint(s[2:4], 16, 8)
	pb, _ := strconv.ParseUint(s[4:6], 16, 8)
	return uint8(pr), uint8(pg), uint8(pb)
}

// InterpolateColor blends two hex colors; t=0 yields c1, t=1 yields c2.
func InterpolateColor(c1, c2 string, t float64) string {
	t = math.Max(0, math.Min(1, t))
	r1, g1, b1 := parseHex(c1)
	r2, g2, b2 := parseHex(c2)

	r := uint8(float64(r1) + (float64(r2)-float64(r1))*t)
	g := uint8(float64(g1) + (float64(g2)-float64(g1))*t)
	b := uint8(float64(b1) + (float64(b2)-float64(b1))*t)

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
