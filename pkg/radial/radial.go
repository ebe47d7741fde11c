// Package radial renders assessment completion as a radial donut chart. Each
// segment's angular span is proportional to its share of the grand total;
// a sub-arc inside the span shows the completed fraction.
package radial

import (
	"fmt"
	"math"

	"git.sr.ht/~sbinet/gg"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

// startAngle puts the first segment boundary at the top of the circle.
const startAngle = -math.Pi / 2

// Segment is one assessor's (or category's) completion progress.
type Segment struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Color     string `json:"color,omitempty"`
}

// Percentage returns the completed share of the segment, with the total
// floored at 1 so empty segments read as 0% rather than dividing by zero.
func (s Segment) Percentage() float64 {
	total := s.Total
	if total < 1 {
		total = 1
	}
	return float64(s.Completed) / float64(total) * 100
}

// SegmentStat is one segment's entry in a Stats snapshot.
type SegmentStat struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Stats is a read-only aggregate snapshot for dashboards.
type Stats struct {
	TotalCompleted    int           `json:"total_completed"`
	TotalItems        int           `json:"total_items"`
	OverallPercentage float64       `json:"overall_percentage"`
	SegmentCount      int           `json:"segment_count"`
	Segments          []SegmentStat `json:"segments"`
}

// Chart is the radial progress tracker.
type Chart struct {
	surface     string
	cfg         chart.Config
	segments    []Segment
	centerLabel string
	centerValue string
	hovered     int
	animation   float64
}

// New creates a progress tracker bound to a registered drawing surface.
func New(surface string, cfg chart.Config) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("radial config: %w", err)
	}
	if _, err := chart.LookupSurface(surface); err != nil {
		return nil, err
	}
	return &Chart{
		surface:     surface,
		cfg:         cfg,
		centerLabel: "Progress",
		centerValue: "0%",
		hovered:     -1,
		animation:   1,
	}, nil
}

// SetConfig replaces the render configuration wholesale.
func (c *Chart) SetConfig(cfg chart.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// SetData replaces the segment list. Segments keep their input order; that
// order decides angular placement. A zero grand total is a valid state.
func (c *Chart) SetData(segments []Segment) error {
	for i, s := range segments {
		if s.ID == "" {
			return fmt.Errorf("segment %d has no id", i)
		}
		if s.Completed < 0 || s.Total < 0 {
			return fmt.Errorf("segment %q has negative counts", s.ID)
		}
	}

	c.segments = segments
	c.hovered = -1

	completed, total := 0, 0
	for _, s := range segments {
		completed += s.Completed
		total += s.Total
	}
	if total > 0 {
		c.centerValue = fmt.Sprintf("%.1f%%", float64(completed)/float64(total)*100)
	} else {
		c.centerValue = "N/A"
	}

	if c.cfg.Animate {
		c.animation = 0
	} else {
		c.animation = 1
	}
	return nil
}

// SetCenterLabel changes the caption under the center value without
// discarding layout.
func (c *Chart) SetCenterLabel(label string) {
	c.centerLabel = label
}

// Animate advances the sweep-in animation and re-renders. Returns true while
// more frames are needed; hosts call it from their frame scheduler.
func (c *Chart) Animate(deltaMS float64) bool {
	if c.animation >= 1 {
		return false
	}
	c.animation = math.Min(c.animation+deltaMS/500, 1)
	_ = c.Render()
	return c.animation < 1
}

func (c *Chart) radii() (outer, inner float64) {
	outer = math.Max(math.Min(c.cfg.Width, c.cfg.Height)/2-60, 50)
	return outer, outer * 0.6
}

func (c *Chart) grandTotal() float64 {
	total := 0.0
	for _, s := range c.segments {
		total += float64(s.Total)
	}
	return total
}

// Stats returns a read-only aggregate snapshot.
func (c *Chart) Stats() Stats {
	completed, total := 0, 0
	segs := make([]SegmentStat, len(c.segments))
	for i, s := range c.segments {
		completed += s.Completed
		total += s.Total
		segs[i] = SegmentStat{
			ID:         s.ID,
			Label:      s.Label,
			Completed:  s.Completed,
			Total:      s.Total,
			Percentage: s.Percentage(),
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}
	return Stats{
		TotalCompleted:    completed,
		TotalItems:        total,
		OverallPercentage: pct,
		SegmentCount:      len(c.segments),
		Segments:          segs,
	}
}

// Render draws the donut, center text and legend onto the named surface.
func (c *Chart) Render() error {
	surf, err := chart.LookupSurface(c.surface)
	if err != nil {
		return err
	}
	dc, err := surf.Begin(int(c.cfg.Width), int(c.cfg.Height))
	if err != nil {
		return err
	}
	chart.PrepareFrame(dc, c.cfg)

	if len(c.segments) == 0 {
		c.drawEmptyRing(dc)
		chart.DrawEmptyState(dc, c.cfg, "No data available")
		return surf.Commit(dc)
	}

	c.drawDonut(dc)
	c.drawCenterText(dc)
	if c.cfg.ShowLegend {
		c.drawLegend(dc)
	}
	return surf.Commit(dc)
}

// fillAnnular fills the ring sector from a0 to a1 between the two radii.
func fillAnnular(dc *gg.Context, cx, cy, outer, inner, a0, a1 float64) {
	dc.NewSubPath()
	dc.DrawArc(cx, cy, outer, a0, a1)
	dc.DrawArc(cx, cy, inner, a1, a0)
	dc.ClosePath()
	dc.Fill()
}

func (c *Chart) drawDonut(dc *gg.Context) {
	cx, cy := c.cfg.Width/2, c.cfg.Height/2
	outer, inner := c.radii()

	total := c.grandTotal()
	if total == 0 {
		return
	}

	// Spans are recomputed from the cumulative angle each iteration so
	// rounding drift never compounds across segments.
	current := startAngle
	for i, segment := range c.segments {
		span := float64(segment.Total) / total * 2 * math.Pi * c.animation

		color := segment.Color
		if color == "" {
			color = c.cfg.Theme.AccentAt(i)
		}

		offset := 0.0
		if i == c.hovered {
			offset = 5
		}

		// Background arc covers the segment's full span.
		dc.SetHexColor(c.cfg.Theme.Grid)
		fillAnnular(dc, cx, cy, outer+offset, inner+offset, current, current+span)

		// Completed sub-arc.
		doneTotal := segment.Total
		if doneTotal < 1 {
			doneTotal = 1
		}
		done := span * float64(segment.Completed) / float64(doneTotal)
		fill := color
		if i != c.hovered {
			fill = chart.InterpolateColor(color, c.cfg.Theme.Background, 0.1)
		}
		dc.SetHexColor(fill)
		fillAnnular(dc, cx, cy, outer+offset, inner+offset, current, current+done)

		// Separator at the segment boundary.
		if len(c.segments) > 1 {
			dc.SetHexColor(c.cfg.Theme.Background)
			dc.SetLineWidth(2)
			dc.DrawLine(
				cx+inner*math.Cos(current), cy+inner*math.Sin(current),
				cx+outer*math.Cos(current), cy+outer*math.Sin(current),
			)
			dc.Stroke()
		}

		current += span
	}
}

func (c *Chart) drawCenterText(dc *gg.Context) {
	cx, cy := c.cfg.Width/2, c.cfg.Height/2
	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored(c.centerValue, cx, cy-10, 0.5, 0.5)
	dc.SetHexColor(c.cfg.Theme.Secondary)
	dc.DrawStringAnchored(c.centerLabel, cx, cy+20, 0.5, 0.5)
}

func (c *Chart) drawLegend(dc *gg.Context) {
	legendX := c.cfg.Width - c.cfg.Padding.Right - 150
	legendY := c.cfg.Padding.Top + 20
	const itemHeight = 24.0

	for i, segment := range c.segments {
		color := segment.Color
		if color == "" {
			color = c.cfg.Theme.AccentAt(i)
		}

		dc.SetHexColor(color)
		dc.DrawRectangle(legendX, legendY-8, 12, 12)
		dc.Fill()

		dc.SetHexColor(c.cfg.Theme.Text)
		dc.DrawStringAnchored(chart.Truncate(segment.Label, 14), legendX+18, legendY, 0, 0.5)

		dc.SetHexColor(c.cfg.Theme.Secondary)
		dc.DrawStringAnchored(fmt.Sprintf("%d/%d", segment.Completed, segment.Total),
			legendX+100, legendY, 0, 0.5)

		legendY += itemHeight
	}
}

func (c *Chart) drawEmptyRing(dc *gg.Context) {
	cx, cy := c.cfg.Width/2, c.cfg.Height/2
	outer, _ := c.radii()
	dc.SetHexColor(c.cfg.Theme.Grid)
	dc.SetLineWidth(20)
	dc.DrawCircle(cx, cy, outer-10)
	dc.Stroke()
}

// OnPointerMove maps the pointer to a segment by angle. The pointer must sit
// inside the donut band; the angle is normalized into [0, 2π) with the same
// top-of-circle start the layout uses, then a linear scan accumulates spans
// until the pointer angle falls inside one.
func (c *Chart) OnPointerMove(x, y float64) chart.HitResult {
	cx, cy := c.cfg.Width/2, c.cfg.Height/2
	outer, inner := c.radii()

	dx, dy := x-cx, y-cy
	distance := math.Hypot(dx, dy)

	oldHovered := c.hovered

	if distance >= inner && distance <= outer {
		angle := math.Atan2(dy, dx) + math.Pi/2
		if angle < 0 {
			angle += 2 * math.Pi
		}

		total := c.grandTotal()
		if total > 0 {
			cumulative := 0.0
			for i, segment := range c.segments {
				span := float64(segment.Total) / total * 2 * math.Pi
				if angle <= cumulative+span {
					c.hovered = i
					if oldHovered != i {
						_ = c.Render()
					}
					return chart.NewHit(segment.ID, chart.ElementSegment, map[string]any{
						"id":         segment.ID,
						"label":      segment.Label,
						"completed":  segment.Completed,
						"total":      segment.Total,
						"percentage": segment.Percentage(),
					})
				}
				cumulative += span
			}
		}
	}

	c.hovered = -1
	if oldHovered != -1 {
		_ = c.Render()
	}
	return chart.Miss()
}
