package netgraph

import (
	"fmt"
	"math"

	"git.sr.ht/~sbinet/gg"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

// Render draws the current simulation state onto the bound surface.
func (c *Chart) Render() error {
	surface, err := chart.LookupSurface(c.surface)
	if err != nil {
		return err
	}
	dc, err := surface.Begin(int(c.cfg.Width), int(c.cfg.Height))
	if err != nil {
		return fmt.Errorf("netgraph render: %w", err)
	}
	chart.PrepareFrame(dc, c.cfg)

	if len(c.nodes) == 0 {
		chart.DrawEmptyState(dc, c.cfg, "No assignment data available")
		return surface.Commit(dc)
	}

	// --- world ---

	dc.Push()
	dc.Translate(c.panX, c.panY)
	dc.Scale(c.zoom, c.zoom)

	c.drawEdges(dc)
	c.drawNodes(dc)

	dc.Pop()

	// --- overlay ---

	c.drawOverlay(dc)

	return surface.Commit(dc)
}

func (c *Chart) edgeColor(e Edge) string {
	if e.Color != "" {
		return e.Color
	}
	switch e.Status {
	case StatusCompleted:
		return c.cfg.Theme.Success
	case StatusInProgress:
		return c.cfg.Theme.Warning
	default:
		return c.cfg.Theme.Grid
	}
}

// drawEdges draws each assignment as a shallow quadratic curve with an
// arrowhead at the target end. The control point sits a tenth of the edge
// length off the midpoint, perpendicular to the edge, so parallel edges
// between nearby nodes stay visually separable.
func (c *Chart) drawEdges(dc *gg.Context) {
	for _, e := range c.edges {
		si, ok := c.index[e.Source]
		if !ok {
			continue
		}
		ti, ok := c.index[e.Target]
		if !ok {
			continue
		}
		src, tgt := c.nodes[si], c.nodes[ti]

		dx := tgt.x - src.x
		dy := tgt.y - src.y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			continue
		}

		midX := (src.x + tgt.x) / 2
		midY := (src.y + tgt.y) / 2
		ctrlX := midX - dy*0.1
		ctrlY := midY + dx*0.1

		emphasized := c.hovered == si || c.hovered == ti
		color := c.edgeColor(e)
		if c.hovered >= 0 && !emphasized {
			color = chart.InterpolateColor(color, c.cfg.Theme.Background, 0.3)
		}

		dc.SetHexColor(color)
		width := 1 + e.weight()*0.5
		if emphasized {
			width += 1
		}
		dc.SetLineWidth(width / c.zoom)

		dc.MoveTo(src.x, src.y)
		dc.QuadraticTo(ctrlX, ctrlY, tgt.x, tgt.y)
		dc.Stroke()

		c.drawArrowhead(dc, ctrlX, ctrlY, tgt.x, tgt.y, tgt.size)
	}
}

// drawArrowhead places a small chevron just outside the target node's
// radius, oriented along the curve's incoming tangent.
func (c *Chart) drawArrowhead(dc *gg.Context, fromX, fromY, toX, toY, targetSize float64) {
	angle := math.Atan2(toY-fromY, toX-fromX)
	tipX := toX - math.Cos(angle)*(targetSize+4)
	tipY := toY - math.Sin(angle)*(targetSize+4)

	const arrowLen = 8.0
	const arrowAngle = math.Pi / 7

	dc.MoveTo(tipX, tipY)
	dc.LineTo(tipX-arrowLen*math.Cos(angle-arrowAngle), tipY-arrowLen*math.Sin(angle-arrowAngle))
	dc.MoveTo(tipX, tipY)
	dc.LineTo(tipX-arrowLen*math.Cos(angle+arrowAngle), tipY-arrowLen*math.Sin(angle+arrowAngle))
	dc.Stroke()
}

func (c *Chart) drawNodes(dc *gg.Context) {
	for i, n := range c.nodes {
		color := n.color
		if c.hovered >= 0 && c.hovered != i && !c.connectedToHovered(n.id) {
			color = chart.InterpolateColor(color, c.cfg.Theme.Background, 0.3)
		}

		dc.SetHexColor(color)
		if n.kind == KindAssessor {
			dc.DrawRectangle(n.x-n.size/2, n.y-n.size/2, n.size, n.size)
		} else {
			dc.DrawCircle(n.x, n.y, n.size/2)
		}
		dc.Fill()

		if c.isSelected(i) {
			dc.SetHexColor(c.cfg.Theme.Warning)
			dc.SetLineWidth(2 / c.zoom)
			if n.kind == KindAssessor {
				dc.DrawRectangle(n.x-n.size/2-3, n.y-n.size/2-3, n.size+6, n.size+6)
			} else {
				dc.DrawCircle(n.x, n.y, n.size/2+3)
			}
			dc.Stroke()
		}

		// Labels clutter a zoomed-out view, so they only appear once
		// zoomed in past 0.7 or on the hovered node.
		if (c.zoom > 0.7 || c.hovered == i) && n.label != "" {
			dc.SetHexColor(c.cfg.Theme.Text)
			dc.DrawStringAnchored(chart.Truncate(n.label, 16), n.x, n.y+n.size/2+10, 0.5, 0.5)
		}
	}
}

func (c *Chart) connectedToHovered(id string) bool {
	if c.hovered < 0 {
		return false
	}
	hid := c.nodes[c.hovered].id
	for _, e := range c.edges {
		if (e.Source == hid && e.Target == id) || (e.Target == hid && e.Source == id) {
			return true
		}
	}
	return false
}

func (c *Chart) isSelected(i int) bool {
	for _, idx := range c.selected {
		if idx == i {
			return true
		}
	}
	return false
}

// drawOverlay renders the fixed-position legend and status line in screen
// space, unaffected by pan and zoom.
func (c *Chart) drawOverlay(dc *gg.Context) {
	stats := c.Stats()

	dc.SetHexColor(c.cfg.Theme.Primary)
	dc.DrawRectangle(16, 16, 12, 12)
	dc.Fill()
	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawString("Assessor", 34, 26)

	dc.SetHexColor(c.cfg.Theme.Secondary)
	dc.DrawCircle(22, 46, 6)
	dc.Fill()
	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawString("Application", 34, 50)

	status := fmt.Sprintf("%d nodes, %d edges | zoom %d%%",
		stats.NodeCount, stats.EdgeCount, int(math.Round(c.zoom*100)))
	if stats.SimulationRunning {
		status += " | simulating"
	}
	dc.SetHexColor(c.cfg.Theme.Secondary)
	dc.DrawString(status, 16, c.cfg.Height-16)
}
