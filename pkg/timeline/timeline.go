// Package timeline renders application submission activity over time: a bar
// per period plus an optional cumulative line, with event markers for
// deadlines and milestones. Points map onto a linear pixel axis between the
// earliest and latest timestamps.
package timeline

import (
	"fmt"
	"math"
	"time"

	"git.sr.ht/~sbinet/gg"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

// hitTolerance is the horizontal pickup distance for nearest-point
// hit-testing, in pixels. Vertical distance is ignored.
const hitTolerance = 30.0

// Point is one submission period. Points must arrive sorted ascending by
// timestamp; the projection does not re-sort, so out-of-order input produces
// a wrong axis.
type Point struct {
	Timestamp  time.Time `json:"timestamp"`
	Count      int       `json:"count"`
	Cumulative int       `json:"cumulative"`
	Label      string    `json:"label,omitempty"`
}

// EventKind classifies a timeline marker.
type EventKind string

// Marker kinds. Unknown kinds render in the warning color.
const (
	EventDeadline  EventKind = "deadline"
	EventOpen      EventKind = "open"
	EventMilestone EventKind = "milestone"
)

// Event is a vertical marker at a point in time.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
	Kind      EventKind `json:"kind"`
}

// Stats is a read-only aggregate snapshot for dashboards.
type Stats struct {
	TotalSubmissions int       `json:"total_submissions"`
	DataPoints       int       `json:"data_points"`
	PeakCount        int       `json:"peak_count"`
	PeakTimestamp    time.Time `json:"peak_timestamp"`
	RangeStart       time.Time `json:"range_start"`
	RangeEnd         time.Time `json:"range_end"`
	EventCount       int       `json:"event_count"`
}

// Chart is the submission timeline.
type Chart struct {
	surface        string
	cfg            chart.Config
	data           []Point
	events         []Event
	rangeMin       float64 // epoch milliseconds
	rangeMax       float64
	maxCount       int
	maxCumulative  int
	showCumulative bool
	hovered        int
	granularity    string
}

// New creates a timeline bound to a registered drawing surface.
func New(surface string, cfg chart.Config) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("timeline config: %w", err)
	}
	if _, err := chart.LookupSurface(surface); err != nil {
		return nil, err
	}
	return &Chart{
		surface:        surface,
		cfg:            cfg,
		showCumulative: true,
		hovered:        -1,
		granularity:    "day",
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

// SetShowCumulative toggles the cumulative line without touching the layout.
func (c *Chart) SetShowCumulative(show bool) {
	c.showCumulative = show
}

// SetGranularity records the period label granularity ("hour", "day",
// "week"). Purely descriptive; the axis is driven by the timestamps.
func (c *Chart) SetGranularity(granularity string) error {
	switch granularity {
	case "hour", "day", "week":
		c.granularity = granularity
		return nil
	default:
		return fmt.Errorf("unknown granularity %q", granularity)
	}
}

// SetEvents replaces the marker set without discarding the point layout.
func (c *Chart) SetEvents(events []Event) {
	c.events = events
}

// SetData replaces the point set and rederives the time range and maxima.
// An empty set is a valid cleared state.
func (c *Chart) SetData(points []Point) error {
	for i, p := range points {
		if p.Timestamp.IsZero() {
			return fmt.Errorf("point %d has no timestamp", i)
		}
	}

	if len(points) == 0 {
		c.data = nil
		c.rangeMin, c.rangeMax = 0, 0
		c.maxCount, c.maxCumulative = 0, 0
		c.hovered = -1
		return nil
	}

	min, max := math.Inf(1), math.Inf(-1)
	maxCount, maxCumulative := 0, 0
	for _, p := range points {
		ms := float64(p.Timestamp.UnixMilli())
		min = math.Min(min, ms)
		max = math.Max(max, ms)
		if p.Count > maxCount {
			maxCount = p.Count
		}
		if p.Cumulative > maxCumulative {
			maxCumulative = p.Cumulative
		}
	}

	c.data = points
	c.rangeMin, c.rangeMax = min, max
	c.maxCount = maxCount
	c.maxCumulative = maxCumulative
	c.hovered = -1
	return nil
}

// span returns the time range width in milliseconds. Zero means the axis is
// degenerate and position math must not run.
func (c *Chart) span() float64 {
	return c.rangeMax - c.rangeMin
}

// projectX maps a timestamp onto the pixel axis. Only valid when span() > 0.
func (c *Chart) projectX(ms float64) float64 {
	return c.cfg.Padding.Left + (ms-c.rangeMin)/c.span()*c.cfg.PlotWidth()
}

// Stats returns a read-only aggregate snapshot.
func (c *Chart) Stats() Stats {
	s := Stats{
		DataPoints: len(c.data),
		EventCount: len(c.events),
	}
	for _, p := range c.data {
		s.TotalSubmissions += p.Count
		if p.Count > s.PeakCount {
			s.PeakCount = p.Count
			s.PeakTimestamp = p.Timestamp
		}
	}
	if len(c.data) > 0 {
		s.RangeStart = time.UnixMilli(int64(c.rangeMin))
		s.RangeEnd = time.UnixMilli(int64(c.rangeMax))
	}
	return s
}

// Render draws the timeline onto the named surface. A zero-width time range
// or empty data renders the explicit empty state.
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

	if len(c.data) == 0 {
		chart.DrawEmptyState(dc, c.cfg, "No timeline data available")
		return surf.Commit(dc)
	}

	if c.cfg.ShowGrid {
		chart.DrawGrid(dc, c.cfg, 10, 5)
	}
	c.drawEvents(dc)
	c.drawBars(dc)
	if c.showCumulative {
		c.drawCumulativeLine(dc)
	}
	c.drawAxes(dc)
	if c.cfg.ShowLabels {
		dc.SetHexColor(c.cfg.Theme.Text)
		dc.DrawStringAnchored("Application Submission Timeline", c.cfg.Width/2, 20, 0.5, 0.5)
	}
	if c.cfg.ShowLegend {
		c.drawLegend(dc)
	}
	return surf.Commit(dc)
}

func (c *Chart) drawBars(dc *gg.Context) {
	if c.span() <= 0 || c.maxCount == 0 {
		return
	}
	plotH := c.cfg.PlotHeight()
	barWidth := math.Min(c.cfg.PlotWidth()/float64(len(c.data)), 30)

	for i, point := range c.data {
		x := c.projectX(float64(point.Timestamp.UnixMilli())) - barWidth/2
		height := float64(point.Count) / float64(c.maxCount) * plotH * 0.8
		y := c.cfg.Height - c.cfg.Padding.Bottom - height

		color := c.cfg.Theme.Primary
		if i != c.hovered {
			color = chart.InterpolateColor(color, c.cfg.Theme.Background, 0.3)
		}
		dc.SetHexColor(color)

		dc.NewSubPath()
		dc.MoveTo(x, y+height)
		dc.LineTo(x, y+4)
		dc.QuadraticTo(x, y, x+4, y)
		dc.LineTo(x+barWidth-4, y)
		dc.QuadraticTo(x+barWidth, y, x+barWidth, y+4)
		dc.LineTo(x+barWidth, y+height)
		dc.ClosePath()
		dc.Fill()
	}
}

func (c *Chart) drawCumulativeLine(dc *gg.Context) {
	if c.span() <= 0 || c.maxCumulative == 0 {
		return
	}
	plotH := c.cfg.PlotHeight()

	dc.SetHexColor(c.cfg.Theme.Success)
	dc.SetLineWidth(2.5)
	for i, point := range c.data {
		x := c.projectX(float64(point.Timestamp.UnixMilli()))
		y := c.cfg.Height - c.cfg.Padding.Bottom -
			float64(point.Cumulative)/float64(c.maxCumulative)*plotH
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	for i, point := range c.data {
		x := c.projectX(float64(point.Timestamp.UnixMilli()))
		y := c.cfg.Height - c.cfg.Padding.Bottom -
			float64(point.Cumulative)/float64(c.maxCumulative)*plotH
		radius := 4.0
		if i == c.hovered {
			radius = 6
		}
		dc.DrawCircle(x, y, radius)
		dc.Fill()
	}
}

func (c *Chart) eventColor(kind EventKind) string {
	switch kind {
	case EventDeadline:
		return c.cfg.Theme.Danger
	case EventOpen:
		return c.cfg.Theme.Success
	default:
		return c.cfg.Theme.Warning
	}
}

func (c *Chart) drawEvents(dc *gg.Context) {
	if c.span() <= 0 {
		return
	}
	for _, event := range c.events {
		x := c.projectX(float64(event.Timestamp.UnixMilli()))
		color := c.eventColor(event.Kind)

		dc.SetHexColor(color)
		dc.SetLineWidth(2)
		dc.SetDash(5, 5)
		dc.DrawLine(x, c.cfg.Padding.Top, x, c.cfg.Height-c.cfg.Padding.Bottom)
		dc.Stroke()
		dc.SetDash()

		dc.Push()
		dc.Translate(x, c.cfg.Padding.Top-5)
		dc.Rotate(-math.Pi / 4)
		dc.DrawStringAnchored(event.Label, 0, 0, 0, 0.5)
		dc.Pop()
	}
}

func (c *Chart) drawAxes(dc *gg.Context) {
	plotW := c.cfg.PlotWidth()
	plotH := c.cfg.PlotHeight()
	chart.DrawAxisFrame(dc, c.cfg)

	if c.showCumulative {
		dc.SetHexColor(c.cfg.Theme.Text)
		dc.DrawLine(c.cfg.Width-c.cfg.Padding.Right, c.cfg.Padding.Top,
			c.cfg.Width-c.cfg.Padding.Right, c.cfg.Height-c.cfg.Padding.Bottom)
		dc.Stroke()
	}

	dc.SetHexColor(c.cfg.Theme.Text)
	const labelCount = 6
	span := c.span()
	for i := 0; i <= labelCount; i++ {
		t := float64(i) / labelCount
		ts := time.UnixMilli(int64(c.rangeMin + t*span))
		x := c.cfg.Padding.Left + t*plotW
		dc.DrawStringAnchored(ts.Format("2/1 15:04"), x,
			c.cfg.Height-c.cfg.Padding.Bottom+15, 0.5, 0.5)
	}

	for i := 0; i <= 5; i++ {
		t := float64(i) / 5
		y := c.cfg.Height - c.cfg.Padding.Bottom - t*plotH
		value := math.Round(t * float64(c.maxCount))
		dc.DrawStringAnchored(chart.FormatNumber(value, 0), c.cfg.Padding.Left-10, y, 1, 0.5)
	}

	if c.showCumulative {
		dc.SetHexColor(c.cfg.Theme.Success)
		for i := 0; i <= 5; i++ {
			t := float64(i) / 5
			y := c.cfg.Height - c.cfg.Padding.Bottom - t*plotH
			value := math.Round(t * float64(c.maxCumulative))
			dc.DrawStringAnchored(chart.FormatNumber(value, 0),
				c.cfg.Width-c.cfg.Padding.Right+10, y, 0, 0.5)
		}
	}
}

func (c *Chart) drawLegend(dc *gg.Context) {
	legendY := 20.0
	legendX := c.cfg.Width - c.cfg.Padding.Right - 200

	dc.SetHexColor(c.cfg.Theme.Primary)
	dc.DrawRectangle(legendX, legendY-8, 16, 12)
	dc.Fill()
	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored("Submissions", legendX+22, legendY, 0, 0.5)

	if c.showCumulative {
		dc.SetHexColor(c.cfg.Theme.Success)
		dc.SetLineWidth(2)
		dc.DrawLine(legendX+100, legendY-2, legendX+116, legendY-2)
		dc.Stroke()
		dc.SetHexColor(c.cfg.Theme.Text)
		dc.DrawStringAnchored("Cumulative", legendX+122, legendY, 0, 0.5)
	}
}

// OnPointerMove resolves the nearest point along the time axis within the
// pixel tolerance; vertical distance is ignored. Ties go to the first
// minimum in iteration order. A degenerate time range always misses.
func (c *Chart) OnPointerMove(x, y float64) chart.HitResult {
	if c.span() <= 0 {
		return chart.Miss()
	}

	oldHovered := c.hovered

	minDist := math.Inf(1)
	closest := -1
	for i, point := range c.data {
		px := c.projectX(float64(point.Timestamp.UnixMilli()))
		dist := math.Abs(px - x)
		if dist < minDist && dist < hitTolerance {
			minDist = dist
			closest = i
		}
	}

	c.hovered = closest
	if c.hovered != oldHovered {
		_ = c.Render()
	}

	if closest < 0 {
		return chart.Miss()
	}

	point := c.data[closest]
	return chart.NewHit(fmt.Sprintf("point-%d", closest), chart.ElementPoint, map[string]any{
		"index":      closest,
		"timestamp":  point.Timestamp,
		"date":       point.Timestamp.Format("2006-01-02 15:04"),
		"count":      point.Count,
		"cumulative": point.Cumulative,
		"label":      point.Label,
	})
}
