package chart

import (
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// PrepareFrame clears the context to the theme background and installs the
// default font face. Called at the top of every chart render.
func PrepareFrame(dc *gg.Context, cfg Config) {
	dc.SetHexColor(cfg.Theme.Background)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
}

// DrawGrid strokes xCount vertical and yCount horizontal grid lines across
// the plot area.
func DrawGrid(dc *gg.Context, cfg Config, xCount, yCount int) {
	plotW := cfg.PlotWidth()
	plotH := cfg.PlotHeight()
	if plotW <= 0 || plotH <= 0 || xCount < 1 || yCount < 1 {
		return
	}

	dc.SetHexColor(cfg.Theme.Grid)
	dc.SetLineWidth(0.5)

	for i := 0; i <= xCount; i++ {
		x := cfg.Padding.Left + float64(i)/float64(xCount)*plotW
		dc.DrawLine(x, cfg.Padding.Top, x, cfg.Height-cfg.Padding.Bottom)
		dc.Stroke()
	}
	for i := 0; i <= yCount; i++ {
		y := cfg.Padding.Top + float64(i)/float64(yCount)*plotH
		dc.DrawLine(cfg.Padding.Left, y, cfg.Width-cfg.Padding.Right, y)
		dc.Stroke()
	}
}

// DrawAxisFrame strokes the X and Y axis lines along the plot edges.
func DrawAxisFrame(dc *gg.Context, cfg Config) {
	dc.SetHexColor(cfg.Theme.Text)
	dc.SetLineWidth(1)
	dc.DrawLine(cfg.Padding.Left, cfg.Height-cfg.Padding.Bottom,
		cfg.Width-cfg.Padding.Right, cfg.Height-cfg.Padding.Bottom)
	dc.Stroke()
	dc.DrawLine(cfg.Padding.Left, cfg.Padding.Top,
		cfg.Padding.Left, cfg.Height-cfg.Padding.Bottom)
	dc.Stroke()
}

// DrawAxisTitles writes the x-axis title below the plot and the y-axis title
// rotated along the left edge.
func DrawAxisTitles(dc *gg.Context, cfg Config, xLabel, yLabel string) {
	dc.SetHexColor(cfg.Theme.Text)

	if xLabel != "" {
		dc.DrawStringAnchored(xLabel, cfg.Width/2, cfg.Height-10, 0.5, 0.5)
	}
	if yLabel != "" {
		dc.Push()
		dc.Translate(15, cfg.Height/2)
		dc.Rotate(-math.Pi / 2)
		dc.DrawStringAnchored(yLabel, 0, 0, 0.5, 0.5)
		dc.Pop()
	}
}

// DrawEmptyState centers a message on an otherwise blank chart. Charts call
// this when they have no data to show.
func DrawEmptyState(dc *gg.Context, cfg Config, message string) {
	dc.SetHexColor(cfg.Theme.Secondary)
	dc.DrawStringAnchored(message, cfg.Width/2, cfg.Height/2, 0.5, 0.5)
}
