// Package histogram renders the distribution of assessment scores across
// applications as a fixed-bin histogram. Scores are normalized to a [0,100)
// percentage range and partitioned into equal-width contiguous bins; each bin
// keeps its contributing application ids for hover introspection.
package histogram

import (
	"fmt"
	"math"

	"git.sr.ht/~sbinet/gg"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

// ScoreRecord is one application's aggregate assessment score.
type ScoreRecord struct {
	ApplicationID string   `json:"application_id"`
	Reference     string   `json:"reference"`
	Score         float64  `json:"score"`
	MaxScore      float64  `json:"max_score"`
	AssessorCount int      `json:"assessor_count"`
	Variance      *float64 `json:"variance,omitempty"`
}

// Normalized returns the record's score as a percentage of its maximum, or 0
// when the maximum is not positive.
func (r ScoreRecord) Normalized() float64 {
	if r.MaxScore <= 0 {
		return 0
	}
	return r.Score / r.MaxScore * 100
}

// Bin aggregates the records whose normalized score falls in [Min, Max).
// The last bin is closed on both ends so a perfect 100% lands in it.
type Bin struct {
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	Count        int      `json:"count"`
	Applications []string `json:"applications"`
	AvgVariance  float64  `json:"avg_variance"`
}

// Stats is a read-only aggregate snapshot for dashboards.
type Stats struct {
	TotalApplications int   `json:"total_applications"`
	BinCount          int   `json:"bin_count"`
	MaxBinCount       int   `json:"max_bin_count"`
	Bins              []Bin `json:"bins"`
}

// Chart is the score distribution histogram. State survives between renders
// so hover interaction stays cheap.
type Chart struct {
	surface    string
	cfg        chart.Config
	bins       []Bin
	totalCount int
	maxCount   int
	hovered    int
}

// New creates a histogram bound to a registered drawing surface. The binding
// is by name; the surface is re-resolved on every render.
func New(surface string, cfg chart.Config) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("histogram config: %w", err)
	}
	if _, err := chart.LookupSurface(surface); err != nil {
		return nil, err
	}
	return &Chart{surface: surface, cfg: cfg, hovered: -1}, nil
}

// SetConfig replaces the render configuration wholesale.
func (c *Chart) SetConfig(cfg chart.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// SetData replaces all derived bins from a fresh record snapshot. binCount
// must be at least 1. An empty record list is a valid state and clears the
// chart. Malformed records reject the whole call and leave prior bins
// untouched.
func (c *Chart) SetData(records []ScoreRecord, binCount int) error {
	if binCount < 1 {
		return fmt.Errorf("bin count must be >= 1, got %d", binCount)
	}
	for i, r := range records {
		if r.ApplicationID == "" {
			return fmt.Errorf("record %d has no application id", i)
		}
	}

	if len(records) == 0 {
		c.bins = nil
		c.totalCount = 0
		c.maxCount = 0
		c.hovered = -1
		return nil
	}

	binWidth := 100.0 / float64(binCount)
	bins := make([]Bin, binCount)
	for i := range bins {
		bins[i].Min = float64(i) * binWidth
		bins[i].Max = float64(i+1) * binWidth
	}

	for _, r := range records {
		idx := int(math.Floor(r.Normalized() / binWidth))
		if idx > binCount-1 {
			idx = binCount - 1 // 100% boundary folds into the last bin
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
		bins[idx].Applications = append(bins[idx].Applications, r.ApplicationID)
		if r.Variance != nil {
			bins[idx].AvgVariance += *r.Variance
		}
	}

	maxCount := 0
	for i := range bins {
		if bins[i].Count > 0 {
			bins[i].AvgVariance /= float64(bins[i].Count)
		}
		if bins[i].Count > maxCount {
			maxCount = bins[i].Count
		}
	}

	c.bins = bins
	c.totalCount = len(records)
	c.maxCount = maxCount
	c.hovered = -1
	return nil
}

// Bins returns the current bin layout.
func (c *Chart) Bins() []Bin {
	return c.bins
}

// Stats returns a read-only aggregate snapshot.
func (c *Chart) Stats() Stats {
	return Stats{
		TotalApplications: c.totalCount,
		BinCount:          len(c.bins),
		MaxBinCount:       c.maxCount,
		Bins:              c.bins,
	}
}

// Render draws the full chart onto the named surface. Safe to call
// repeatedly; with no data it renders an explicit empty state.
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

	if len(c.bins) == 0 {
		chart.DrawEmptyState(dc, c.cfg, "No score data available")
		return surf.Commit(dc)
	}

	if c.cfg.ShowGrid {
		chart.DrawGrid(dc, c.cfg, len(c.bins), 5)
	}
	c.drawBars(dc)
	c.drawAxes(dc)
	if c.cfg.ShowLabels {
		c.drawLabels(dc)
	}
	return surf.Commit(dc)
}

func (c *Chart) drawBars(dc *gg.Context) {
	if c.maxCount == 0 {
		return
	}
	plotW := c.cfg.PlotWidth()
	plotH := c.cfg.PlotHeight()
	if plotW <= 0 || plotH <= 0 {
		return
	}
	barWidth := plotW / float64(len(c.bins))
	const barGap = 2.0

	for i, bin := range c.bins {
		height := float64(bin.Count) / float64(c.maxCount) * plotH
		x := c.cfg.Padding.Left + float64(i)*barWidth + barGap/2
		y := c.cfg.Height - c.cfg.Padding.Bottom - height

		// Band color follows the score range: high green, mid amber, low red.
		mid := (bin.Min + bin.Max) / 2 / 100
		var color string
		switch {
		case mid > 0.7:
			color = c.cfg.Theme.Success
		case mid > 0.4:
			color = c.cfg.Theme.Warning
		default:
			color = c.cfg.Theme.Danger
		}
		if i != c.hovered {
			color = chart.InterpolateColor(color, c.cfg.Theme.Background, 0.2)
		}

		const radius = 4.0
		bw := barWidth - barGap
		dc.SetHexColor(color)
		dc.NewSubPath()
		dc.MoveTo(x+radius, y)
		dc.LineTo(x+bw-radius, y)
		dc.QuadraticTo(x+bw, y, x+bw, y+radius)
		dc.LineTo(x+bw, y+height)
		dc.LineTo(x, y+height)
		dc.LineTo(x, y+radius)
		dc.QuadraticTo(x, y, x+radius, y)
		dc.ClosePath()
		dc.Fill()

		if bin.Count > 0 && height > 20 {
			dc.SetHexColor(c.cfg.Theme.Text)
			dc.DrawStringAnchored(fmt.Sprintf("%d", bin.Count), x+bw/2, y-5, 0.5, 0.5)
		}
	}
}

func (c *Chart) drawAxes(dc *gg.Context) {
	chart.DrawAxisFrame(dc, c.cfg)

	plotW := c.cfg.PlotWidth()
	plotH := c.cfg.PlotHeight()
	dc.SetHexColor(c.cfg.Theme.Text)

	labels := []string{"0%", "25%", "50%", "75%", "100%"}
	for i, label := range labels {
		x := c.cfg.Padding.Left + float64(i)/4*plotW
		dc.DrawStringAnchored(label, x, c.cfg.Height-c.cfg.Padding.Bottom+20, 0.5, 0.5)
	}

	for i := 0; i <= 5; i++ {
		y := c.cfg.Height - c.cfg.Padding.Bottom - float64(i)/5*plotH
		count := math.Round(float64(i) / 5 * float64(c.maxCount))
		dc.DrawStringAnchored(chart.FormatNumber(count, 0), c.cfg.Padding.Left-10, y, 1, 0.5)
	}
}

func (c *Chart) drawLabels(dc *gg.Context) {
	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored("Score Distribution", c.cfg.Width/2, 25, 0.5, 0.5)
	chart.DrawAxisTitles(dc, c.cfg, "Score (%)", "Applications")

	if c.totalCount > 0 {
		dc.DrawStringAnchored(fmt.Sprintf("Total: %d applications", c.totalCount),
			c.cfg.Width-20, 25, 1, 0.5)
	}
}

// OnPointerMove resolves which bin, if any, sits under the pointer and
// updates the hover state, re-rendering when it changed. Never fails: an
// unresolvable pointer yields a miss.
func (c *Chart) OnPointerMove(x, y float64) chart.HitResult {
	oldHovered := c.hovered

	inPlot := x >= c.cfg.Padding.Left && x <= c.cfg.Width-c.cfg.Padding.Right &&
		y >= c.cfg.Padding.Top && y <= c.cfg.Height-c.cfg.Padding.Bottom

	if inPlot && len(c.bins) > 0 && c.cfg.PlotWidth() > 0 {
		relX := x - c.cfg.Padding.Left
		idx := int(math.Floor(relX / c.cfg.PlotWidth() * float64(len(c.bins))))
		if idx >= 0 && idx < len(c.bins) {
			c.hovered = idx
			if oldHovered != idx {
				_ = c.Render()
			}
			bin := c.bins[idx]
			apps := bin.Applications
			if len(apps) > 10 {
				apps = apps[:10] // keep tooltip payloads bounded
			}
			return chart.NewHit(fmt.Sprintf("bin-%d", idx), chart.ElementBin, map[string]any{
				"bin_index":    idx,
				"min":          bin.Min,
				"max":          bin.Max,
				"count":        bin.Count,
				"avg_variance": bin.AvgVariance,
				"applications": apps,
			})
		}
	}

	c.hovered = -1
	if oldHovered != -1 {
		_ = c.Render()
	}
	return chart.Miss()
}
