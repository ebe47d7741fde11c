package radial

import (
	"fmt"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

// DrawSimpleGauge renders a one-shot single-value radial gauge onto a
// registered surface: a background ring with a progress arc and the
// percentage in the center. Stateless, for dashboard tiles that don't need
// hover interaction.
func DrawSimpleGauge(surface string, width, height int, value, maxValue float64, label, color string) error {
	surf, err := chart.LookupSurface(surface)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid gauge size %dx%d", width, height)
	}
	dc, err := surf.Begin(width, height)
	if err != nil {
		return err
	}

	w, h := float64(width), float64(height)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	cx, cy := w/2, h/2
	radius := math.Max(math.Min(w, h)/2-20, 30)
	lineWidth := radius * 0.15

	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineWidth(lineWidth)

	dc.SetHexColor("#E5E7EB")
	dc.DrawCircle(cx, cy, radius-lineWidth/2)
	dc.Stroke()

	progress := 0.0
	if maxValue > 0 {
		progress = math.Max(0, math.Min(1, value/maxValue))
	}
	if progress > 0 {
		dc.SetHexColor(color)
		dc.DrawArc(cx, cy, radius-lineWidth/2, startAngle, startAngle+progress*2*math.Pi)
		dc.Stroke()
	}

	dc.SetHexColor("#1F2937")
	dc.DrawStringAnchored(fmt.Sprintf("%.0f%%", progress*100), cx, cy-5, 0.5, 0.5)
	dc.SetHexColor("#6B7280")
	dc.DrawStringAnchored(label, cx, cy+radius*0.25, 0.5, 0.5)

	return surf.Commit(dc)
}
