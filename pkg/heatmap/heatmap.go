// Package heatmap visualizes score variance between assessors for each
// application as a scrollable grid. Color intensity encodes the score; a
// trailing column flags applications whose assessors disagree beyond a
// configurable variance threshold.
package heatmap

import (
	"fmt"
	"math"

	"git.sr.ht/~sbinet/gg"
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

// labelGutter reserves horizontal space for row reference labels.
const labelGutter = 100.0

// Row is the per-application variance record. Scores are ordered by assessor
// position and may be shorter than the column count; missing cells render as
// empty, not zero.
type Row struct {
	ApplicationID string    `json:"application_id"`
	Reference     string    `json:"reference"`
	Scores        []float64 `json:"scores"`
	AssessorNames []string  `json:"assessor_names"`
	Variance      float64   `json:"variance"`
	Mean          float64   `json:"mean"`
	Flagged       bool      `json:"flagged"`
}

// NewRow builds a Row from raw scores, computing the mean and population
// variance and flagging it against the given threshold. For callers whose
// data source doesn't precompute aggregates.
func NewRow(applicationID, reference string, scores []float64, assessors []string, threshold float64) Row {
	r := Row{
		ApplicationID: applicationID,
		Reference:     reference,
		Scores:        scores,
		AssessorNames: assessors,
	}
	if len(scores) > 0 {
		r.Mean = stat.Mean(scores, nil)
		r.Variance = stat.PopVariance(scores, nil)
	}
	r.Flagged = r.Variance > threshold
	return r
}

// cellPos is one materialized cell rectangle in the current scroll window.
type cellPos struct {
	row, col      int
	x, y          float64
	width, height float64
}

// Stats is a read-only aggregate snapshot for dashboards.
type Stats struct {
	TotalApplications int     `json:"total_applications"`
	FlaggedCount      int     `json:"flagged_count"`
	FlaggedPercentage float64 `json:"flagged_percentage"`
	AverageVariance   float64 `json:"average_variance"`
	VarianceThreshold float64 `json:"variance_threshold"`
	MaxAssessors      int     `json:"max_assessors"`
}

// Chart is the variance heatmap. It maintains a scrollable window into the
// row set; cell geometry is fully recomputed whenever data, scroll offset or
// configuration changes.
type Chart struct {
	surface      string
	cfg          chart.Config
	data         []Row
	maxAssessors int
	threshold    float64
	cells        []cellPos
	hoveredRow   int
	hoveredCol   int
	scrollOffset float64
	visibleRows  int
}

// New creates a variance heatmap bound to a registered drawing surface.
func New(surface string, cfg chart.Config) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("heatmap config: %w", err)
	}
	if _, err := chart.LookupSurface(surface); err != nil {
		return nil, err
	}
	return &Chart{
		surface:     surface,
		cfg:         cfg,
		threshold:   10,
		hoveredRow:  -1,
		hoveredCol:  -1,
		visibleRows: 20,
	}, nil
}

// SetConfig replaces the render configuration and relays out the cell window.
func (c *Chart) SetConfig(cfg chart.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.computeCells()
	return nil
}

// SetVarianceThreshold changes the flagging threshold without discarding
// the layout.
func (c *Chart) SetVarianceThreshold(threshold float64) {
	c.threshold = threshold
}

// SetVisibleRows changes how many rows the viewport shows at once.
func (c *Chart) SetVisibleRows(n int) error {
	if n < 1 {
		return fmt.Errorf("visible rows must be >= 1, got %d", n)
	}
	c.visibleRows = n
	c.scrollOffset = c.clampScroll(c.scrollOffset)
	c.computeCells()
	return nil
}

// SetData replaces the row set, resets the scroll window to the top and
// recomputes cell geometry. The column count becomes the longest score list
// observed here.
func (c *Chart) SetData(rows []Row) error {
	for i, r := range rows {
		if r.ApplicationID == "" {
			return fmt.Errorf("row %d has no application id", i)
		}
	}

	maxAssessors := 0
	for _, r := range rows {
		if len(r.Scores) > maxAssessors {
			maxAssessors = len(r.Scores)
		}
	}

	c.data = rows
	c.maxAssessors = maxAssessors
	c.scrollOffset = 0
	c.hoveredRow, c.hoveredCol = -1, -1
	c.computeCells()
	return nil
}

func (c *Chart) rowCount() int {
	rows := c.visibleRows
	if len(c.data) < rows {
		rows = len(c.data)
	}
	return rows
}

func (c *Chart) cellSize() (w, h float64) {
	rows := c.rowCount()
	if rows == 0 {
		return 0, 0
	}
	cols := c.maxAssessors
	if cols < 1 {
		cols = 1
	}
	w = (c.cfg.PlotWidth() - labelGutter) / float64(cols)
	h = c.cfg.PlotHeight() / float64(rows)
	if w < 0 {
		w = 0
	}
	return w, h
}

func (c *Chart) clampScroll(offset float64) float64 {
	_, cellH := c.cellSize()
	if cellH <= 0 {
		return 0
	}
	maxScroll := (float64(len(c.data)) - float64(c.rowCount())) * cellH
	if maxScroll < 0 {
		maxScroll = 0
	}
	return math.Max(0, math.Min(offset, maxScroll))
}

// computeCells materializes the visible cell window: rowCount+1 rows (the +1
// covers partial-row scroll overlap) by column count rectangles.
func (c *Chart) computeCells() {
	c.cells = c.cells[:0]

	rows := c.rowCount()
	if rows == 0 {
		return
	}
	cols := c.maxAssessors
	if cols < 1 {
		cols = 1
	}
	cellW, cellH := c.cellSize()
	if cellH <= 0 {
		return
	}

	startRow := int(c.scrollOffset / cellH)
	endRow := startRow + rows + 1
	if endRow > len(c.data) {
		endRow = len(c.data)
	}

	for row := startRow; row < endRow; row++ {
		for col := 0; col < cols; col++ {
			c.cells = append(c.cells, cellPos{
				row:    row,
				col:    col,
				x:      c.cfg.Padding.Left + labelGutter + float64(col)*cellW,
				y:      c.cfg.Padding.Top + float64(row-startRow)*cellH,
				width:  cellW,
				height: cellH,
			})
		}
	}
}

// OnScroll moves the window by deltaY pixels, clamped to the scrollable
// range, and re-renders.
func (c *Chart) OnScroll(deltaY float64) {
	c.scrollOffset = c.clampScroll(c.scrollOffset + deltaY)
	c.computeCells()
	_ = c.Render()
}

// ScrollOffset returns the current clamped scroll offset in pixels.
func (c *Chart) ScrollOffset() float64 {
	return c.scrollOffset
}

// ColumnCount returns the layout column count derived at the last data
// assignment.
func (c *Chart) ColumnCount() int {
	return c.maxAssessors
}

// Flagged returns the rows whose variance exceeds the current threshold.
func (c *Chart) Flagged() []Row {
	var flagged []Row
	for _, r := range c.data {
		if r.Variance > c.threshold {
			flagged = append(flagged, r)
		}
	}
	return flagged
}

// Stats returns a read-only aggregate snapshot.
func (c *Chart) Stats() Stats {
	total := len(c.data)
	flagged := 0
	sumVariance := 0.0
	for _, r := range c.data {
		if r.Flagged {
			flagged++
		}
		sumVariance += r.Variance
	}
	s := Stats{
		TotalApplications: total,
		FlaggedCount:      flagged,
		VarianceThreshold: c.threshold,
		MaxAssessors:      c.maxAssessors,
	}
	if total > 0 {
		s.FlaggedPercentage = float64(flagged) / float64(total) * 100
		s.AverageVariance = sumVariance / float64(total)
	}
	return s
}

// OnPointerMove resolves the cell under the pointer by scanning the
// materialized rectangles; the first containing rectangle wins.
func (c *Chart) OnPointerMove(x, y float64) chart.HitResult {
	oldRow, oldCol := c.hoveredRow, c.hoveredCol

	for _, cell := range c.cells {
		if x < cell.x || x > cell.x+cell.width || y < cell.y || y > cell.y+cell.height {
			continue
		}
		if cell.row >= len(c.data) {
			continue
		}
		c.hoveredRow, c.hoveredCol = cell.row, cell.col
		if oldRow != cell.row || oldCol != cell.col {
			_ = c.Render()
		}

		row := c.data[cell.row]
		var score any
		if cell.col < len(row.Scores) {
			score = row.Scores[cell.col]
		}
		assessor := fmt.Sprintf("Assessor %d", cell.col+1)
		if cell.col < len(row.AssessorNames) {
			assessor = row.AssessorNames[cell.col]
		}

		return chart.NewHit(
			fmt.Sprintf("%s-%d", row.ApplicationID, cell.col),
			chart.ElementCell,
			map[string]any{
				"application_id": row.ApplicationID,
				"reference":      row.Reference,
				"assessor":       assessor,
				"score":          score,
				"variance":       row.Variance,
				"mean":           row.Mean,
				"flagged":        row.Flagged,
			},
		)
	}

	c.hoveredRow, c.hoveredCol = -1, -1
	if oldRow != -1 {
		_ = c.Render()
	}
	return chart.Miss()
}

// Render draws the visible window onto the named surface.
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
		chart.DrawEmptyState(dc, c.cfg, "No variance data available")
		return surf.Commit(dc)
	}

	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored("Score Variance by Assessor", c.cfg.Width/2, 20, 0.5, 0.5)

	c.drawRowLabels(dc)
	c.drawColumnHeaders(dc)
	c.drawCells(dc)
	c.drawVarianceColumn(dc)
	if c.cfg.ShowLegend {
		c.drawLegend(dc)
	}
	return surf.Commit(dc)
}

func (c *Chart) drawRowLabels(dc *gg.Context) {
	_, cellH := c.cellSize()
	if cellH <= 0 {
		return
	}
	startRow := int(c.scrollOffset / cellH)
	endRow := startRow + c.rowCount() + 1
	if endRow > len(c.data) {
		endRow = len(c.data)
	}

	dc.SetHexColor(c.cfg.Theme.Text)
	for i := startRow; i < endRow; i++ {
		y := c.cfg.Padding.Top + float64(i-startRow)*cellH + cellH/2
		dc.DrawStringAnchored(chart.Truncate(c.data[i].Reference, 12),
			c.cfg.Padding.Left+labelGutter-10, y, 1, 0.5)
	}
}

func (c *Chart) drawColumnHeaders(dc *gg.Context) {
	cellW, _ := c.cellSize()
	dc.SetHexColor(c.cfg.Theme.Text)
	for col := 0; col < c.maxAssessors; col++ {
		x := c.cfg.Padding.Left + labelGutter + float64(col)*cellW + cellW/2
		dc.DrawStringAnchored(fmt.Sprintf("A%d", col+1), x, c.cfg.Padding.Top-10, 0.5, 0.5)
	}
	dc.DrawStringAnchored("Var", c.cfg.Width-c.cfg.Padding.Right-25, c.cfg.Padding.Top-10, 0.5, 0.5)
}

func (c *Chart) drawCells(dc *gg.Context) {
	for _, cell := range c.cells {
		if cell.row >= len(c.data) {
			continue
		}
		row := c.data[cell.row]
		isHovered := c.hoveredRow == cell.row && c.hoveredCol == cell.col

		hasScore := cell.col < len(row.Scores)
		var bg string
		if hasScore {
			normalized := math.Max(0, math.Min(1, row.Scores[cell.col]/100))
			bg = chart.InterpolateColor(c.cfg.Theme.Danger, c.cfg.Theme.Success, normalized)
		} else {
			bg = c.cfg.Theme.Grid
		}
		if !isHovered {
			bg = chart.InterpolateColor(bg, c.cfg.Theme.Background, 0.15)
		}

		dc.SetHexColor(bg)
		dc.DrawRectangle(cell.x+1, cell.y+1, cell.width-2, cell.height-2)
		dc.Fill()

		if hasScore {
			dc.SetHexColor("#FFFFFF")
			dc.DrawStringAnchored(fmt.Sprintf("%.0f", row.Scores[cell.col]),
				cell.x+cell.width/2, cell.y+cell.height/2, 0.5, 0.5)
		}

		if isHovered {
			dc.SetHexColor(c.cfg.Theme.Primary)
			dc.SetLineWidth(2)
			dc.DrawRectangle(cell.x, cell.y, cell.width, cell.height)
			dc.Stroke()
		}
	}
}

func (c *Chart) drawVarianceColumn(dc *gg.Context) {
	_, cellH := c.cellSize()
	if cellH <= 0 {
		return
	}
	startRow := int(c.scrollOffset / cellH)
	endRow := startRow + c.rowCount() + 1
	if endRow > len(c.data) {
		endRow = len(c.data)
	}

	varX := c.cfg.Width - c.cfg.Padding.Right - 50

	for i := startRow; i < endRow; i++ {
		row := c.data[i]
		y := c.cfg.Padding.Top + float64(i-startRow)*cellH

		flagged := row.Variance > c.threshold
		if flagged {
			dc.SetHexColor(c.cfg.Theme.Danger)
		} else {
			dc.SetHexColor(c.cfg.Theme.Success)
		}
		dc.DrawRectangle(varX, y+1, 50, cellH-2)
		dc.Fill()

		dc.SetHexColor("#FFFFFF")
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", row.Variance), varX+25, y+cellH/2, 0.5, 0.5)
		if flagged {
			dc.DrawStringAnchored("!", varX+45, y+12, 0.5, 0.5)
		}
	}
}

func (c *Chart) drawLegend(dc *gg.Context) {
	legendY := c.cfg.Height - 25

	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored("Score:", c.cfg.Padding.Left, legendY, 0, 0.5)

	gradientX := c.cfg.Padding.Left + 50
	for i := 0; i < 50; i++ {
		dc.SetHexColor(chart.InterpolateColor(c.cfg.Theme.Danger, c.cfg.Theme.Success, float64(i)/49))
		dc.DrawRectangle(gradientX+float64(i)*3, legendY-10, 3, 12)
		dc.Fill()
	}

	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored("0", gradientX, legendY+10, 0.5, 0.5)
	dc.DrawStringAnchored("100", gradientX+150, legendY+10, 0.5, 0.5)

	varX := c.cfg.Width / 2
	dc.DrawStringAnchored("Variance:", varX, legendY, 0, 0.5)

	dc.SetHexColor(c.cfg.Theme.Success)
	dc.DrawRectangle(varX+60, legendY-10, 20, 12)
	dc.Fill()
	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored(fmt.Sprintf("< %.0f", c.threshold), varX+85, legendY, 0, 0.5)

	dc.SetHexColor(c.cfg.Theme.Danger)
	dc.DrawRectangle(varX+130, legendY-10, 20, 12)
	dc.Fill()
	dc.SetHexColor(c.cfg.Theme.Text)
	dc.DrawStringAnchored(fmt.Sprintf(">= %.0f (flagged)", c.threshold), varX+155, legendY, 0, 0.5)
}
