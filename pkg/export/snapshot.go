// Package export renders chart state to static files: a PNG or SVG snapshot
// of the network layout, and a full page of chart images exported
// concurrently from one data snapshot.
package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
	"github.com/vanderheijden86/reviewviz/pkg/netgraph"
)

// SnapshotOptions controls network snapshot export behaviour.
type SnapshotOptions struct {
	Path   string                // Output path; format inferred from extension when Format empty
	Format string                // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string                // Optional title rendered in the summary block
	Nodes  []netgraph.PlacedNode // Node placements, usually from Chart.Layout after settling
	Edges  []netgraph.Edge       // Assignment edges
	Theme  chart.Theme           // Colors for edges, text and background
}

// SaveNetworkSnapshot renders a static snapshot of a settled network layout.
// The layout is reframed around its bounding box, so simulation-space
// coordinates need no preparation.
func SaveNetworkSnapshot(opts SnapshotOptions) error {
	if len(opts.Nodes) == 0 {
		return fmt.Errorf("no nodes to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
			if filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := frameLayout(opts)

	switch format {
	case "png":
		return renderPNG(opts, layout)
	default:
		return renderSVG(opts, layout)
	}
}

// --- layout framing --------------------------------------------------------

type framedLayout struct {
	Nodes   []netgraph.PlacedNode
	Width   int
	Height  int
	Header  float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title            string
	AssessorCount    int
	ApplicationCount int
	EdgeCount        int
}

// frameLayout shifts node positions so the bounding box sits inside a padded
// canvas below a fixed header band.
func frameLayout(opts SnapshotOptions) framedLayout {
	const (
		padding      = 60.0
		headerHeight = 90.0
	)

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, n := range opts.Nodes {
		minX = math.Min(minX, n.X-n.Size)
		maxX = math.Max(maxX, n.X+n.Size)
		minY = math.Min(minY, n.Y-n.Size)
		maxY = math.Max(maxY, n.Y+n.Size)
	}

	nodes := make([]netgraph.PlacedNode, len(opts.Nodes))
	for i, n := range opts.Nodes {
		n.X = n.X - minX + padding
		n.Y = n.Y - minY + padding + headerHeight
		nodes[i] = n
	}

	width := int(maxX - minX + padding*2)
	if width < 640 {
		width = 640
	}
	height := int(maxY - minY + padding*2 + headerHeight)
	if height < 480 {
		height = 480
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Assignment Network"
	}
	assessors := 0
	for _, n := range opts.Nodes {
		if n.Kind == netgraph.KindAssessor {
			assessors++
		}
	}

	return framedLayout{
		Nodes:  nodes,
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: summaryInfo{
			Title:            title,
			AssessorCount:    assessors,
			ApplicationCount: len(opts.Nodes) - assessors,
			EdgeCount:        len(opts.Edges),
		},
	}
}

func (l framedLayout) nodeByID() map[string]netgraph.PlacedNode {
	pos := make(map[string]netgraph.PlacedNode, len(l.Nodes))
	for _, n := range l.Nodes {
		pos[n.ID] = n
	}
	return pos
}

// --- rendering -------------------------------------------------------------

func edgeColor(theme chart.Theme, e netgraph.Edge) string {
	if e.Color != "" {
		return e.Color
	}
	switch e.Status {
	case netgraph.StatusCompleted:
		return theme.Success
	case netgraph.StatusInProgress:
		return theme.Warning
	default:
		return theme.Grid
	}
}

func renderPNG(opts SnapshotOptions, layout framedLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetHexColor(opts.Theme.Background)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	drawSummaryBlock(dc, opts.Theme, layout)

	pos := layout.nodeByID()
	dc.SetLineWidth(1.5)
	for _, e := range opts.Edges {
		from, ok := pos[e.Source]
		if !ok {
			continue
		}
		to, ok := pos[e.Target]
		if !ok {
			continue
		}
		dc.SetHexColor(edgeColor(opts.Theme, e))
		dc.DrawLine(from.X, from.Y, to.X, to.Y)
		dc.Stroke()
	}

	for _, n := range layout.Nodes {
		dc.SetHexColor(n.Color)
		if n.Kind == netgraph.KindAssessor {
			dc.DrawRectangle(n.X-n.Size/2, n.Y-n.Size/2, n.Size, n.Size)
		} else {
			dc.DrawCircle(n.X, n.Y, n.Size/2)
		}
		dc.Fill()

		if n.Label != "" {
			dc.SetHexColor(opts.Theme.Text)
			dc.DrawStringAnchored(n.Label, n.X, n.Y+n.Size/2+10, 0.5, 0.5)
		}
	}

	return dc.SavePNG(opts.Path)
}

func renderSVG(opts SnapshotOptions, layout framedLayout) error {
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()
	return renderSVGToWriter(file, opts, layout)
}

func renderSVGToWriter(w io.Writer, opts SnapshotOptions, layout framedLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, "fill:"+opts.Theme.Background)

	canvas.Text(32, 36, layout.Summary.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", opts.Theme.Text))
	canvas.Text(32, 58, summaryLine(layout.Summary),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", opts.Theme.Secondary))

	pos := layout.nodeByID()
	for _, e := range opts.Edges {
		from, ok := pos[e.Source]
		if !ok {
			continue
		}
		to, ok := pos[e.Target]
		if !ok {
			continue
		}
		canvas.Line(int(from.X), int(from.Y), int(to.X), int(to.Y),
			fmt.Sprintf("stroke:%s;stroke-width:1.5", edgeColor(opts.Theme, e)))
	}

	for _, n := range layout.Nodes {
		if n.Kind == netgraph.KindAssessor {
			canvas.Rect(int(n.X-n.Size/2), int(n.Y-n.Size/2), int(n.Size), int(n.Size), "fill:"+n.Color)
		} else {
			canvas.Circle(int(n.X), int(n.Y), int(n.Size/2), "fill:"+n.Color)
		}
		if n.Label != "" {
			canvas.Text(int(n.X), int(n.Y+n.Size/2+12), n.Label,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", opts.Theme.Text))
		}
	}

	canvas.End()
	return nil
}

func summaryLine(s summaryInfo) string {
	return fmt.Sprintf("assessors: %d  applications: %d  assignments: %d",
		s.AssessorCount, s.ApplicationCount, s.EdgeCount)
}

func drawSummaryBlock(dc *gg.Context, theme chart.Theme, layout framedLayout) {
	dc.SetHexColor(theme.Grid)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-28, 10)
	dc.Fill()

	dc.SetHexColor(theme.Text)
	dc.DrawStringAnchored(layout.Summary.Title, 32, 38, 0, 0.5)
	dc.SetHexColor(theme.Secondary)
	dc.DrawStringAnchored(summaryLine(layout.Summary), 32, 58, 0, 0.5)
}
