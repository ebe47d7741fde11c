// Package netgraph renders the assessor-application assignment network as an
// interactive force-directed graph. Nodes are placed by an N-body physics
// simulation stepped once per animation frame by the host; the viewport
// supports pan, zoom-toward-cursor, node dragging and selection.
//
// The simulation is a small state machine: seeded placement on every data
// assignment, stepping while running, and a settle threshold that stops the
// ticking until new data or a drag perturbs the system again.
package netgraph

import (
	"fmt"
	"math"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

// Kind tags the two node categories in the assignment network.
type Kind string

// Node kinds. Assessors sit on the inner seeding ring and render as squares;
// applications sit on the outer ring and render as circles.
const (
	KindAssessor    Kind = "assessor"
	KindApplication Kind = "application"
)

func (k Kind) defaultSize() float64 {
	if k == KindAssessor {
		return 20
	}
	return 12
}

// Node is an input node. Size and Color are optional; zero values fall back
// to per-kind defaults. Metadata is an opaque bag forwarded unchanged in
// hover payloads.
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Kind     Kind           `json:"kind"`
	Size     float64        `json:"size,omitempty"`
	Color    string         `json:"color,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EdgeStatus tags an assignment's progress, deciding the default edge color.
type EdgeStatus string

// Edge statuses.
const (
	StatusPending    EdgeStatus = "pending"
	StatusInProgress EdgeStatus = "in_progress"
	StatusCompleted  EdgeStatus = "completed"
)

// Edge is an assignment link between two node ids. An edge whose source or
// target id is absent from the current node set is silently skipped by both
// the force pass and the draw pass.
type Edge struct {
	Source string     `json:"source"`
	Target string     `json:"target"`
	Weight float64    `json:"weight,omitempty"`
	Color  string     `json:"color,omitempty"`
	Status EdgeStatus `json:"status,omitempty"`
}

func (e Edge) weight() float64 {
	if e.Weight == 0 {
		return 1
	}
	return e.Weight
}

// physNode carries a node's physics state through the simulation.
type physNode struct {
	id    string
	label string
	kind  Kind
	x, y  float64
	vx    float64
	vy    float64
	size  float64
	color string
	fixed bool
	meta  map[string]any
}

// Physics holds the simulation constants.
type Physics struct {
	Repulsion  float64 `json:"repulsion"`  // inverse-square node repulsion
	Attraction float64 `json:"attraction"` // spring constant along edges
	Damping    float64 `json:"damping"`    // velocity decay per tick, < 1
	Gravity    float64 `json:"gravity"`    // pull toward canvas center
}

// DefaultPhysics returns constants tuned for graphs in the low hundreds of
// nodes.
func DefaultPhysics() Physics {
	return Physics{Repulsion: 500, Attraction: 0.05, Damping: 0.9, Gravity: 0.02}
}

// Stats is a read-only aggregate snapshot for dashboards.
type Stats struct {
	NodeCount         int     `json:"node_count"`
	EdgeCount         int     `json:"edge_count"`
	AssessorCount     int     `json:"assessor_count"`
	ApplicationCount  int     `json:"application_count"`
	SelectedCount     int     `json:"selected_count"`
	Zoom              float64 `json:"zoom"`
	SimulationRunning bool    `json:"simulation_running"`
}

// PlacedNode is a node's current simulation-space placement, exposed for
// static snapshot exporters.
type PlacedNode struct {
	ID    string
	Label string
	Kind  Kind
	X, Y  float64
	Size  float64
	Color string
}

// Chart is the interactive network graph.
type Chart struct {
	surface string
	cfg     chart.Config

	nodes []physNode
	edges []Edge
	index map[string]int // node id -> index, first occurrence wins

	zoom     float64
	panX     float64
	panY     float64
	minZoom  float64
	maxZoom  float64
	dragging int
	hovered  int
	selected []int

	running bool
	phys    Physics
	seed    uint64
}

// New creates a network graph bound to a registered drawing surface.
func New(surface string, cfg chart.Config) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("netgraph config: %w", err)
	}
	if _, err := chart.LookupSurface(surface); err != nil {
		return nil, err
	}
	return &Chart{
		surface:  surface,
		cfg:      cfg,
		index:    make(map[string]int),
		zoom:     1,
		minZoom:  0.3,
		maxZoom:  3,
		dragging: -1,
		hovered:  -1,
		running:  true,
		phys:     DefaultPhysics(),
		seed:     12345,
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

// SetSeed changes the placement seed used by the next SetData call.
func (c *Chart) SetSeed(seed uint64) {
	c.seed = seed
}

// SetPhysics replaces the simulation constants without reseeding positions.
func (c *Chart) SetPhysics(p Physics) error {
	if p.Damping <= 0 || p.Damping >= 1 {
		return fmt.Errorf("damping must be in (0,1), got %g", p.Damping)
	}
	c.phys = p
	return nil
}

// SetData replaces the node and edge sets, discarding all prior positions.
// Nodes are reseeded onto two concentric rings by kind (assessors inner,
// applications outer) at evenly spaced angles with deterministic jitter, so
// no two nodes start coincident and identical data always lays out the same
// way. The simulation re-enters the running state.
func (c *Chart) SetData(nodes []Node, edges []Edge) error {
	for i, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d has no id", i)
		}
	}

	centerX, centerY := c.cfg.Width/2, c.cfg.Height/2
	radius := math.Max(math.Min(c.cfg.Width, c.cfg.Height)/3, 100)

	rng := newLCG(c.seed)
	phys := make([]physNode, len(nodes))
	index := make(map[string]int, len(nodes))

	for i, n := range nodes {
		angle := float64(i) / float64(len(nodes)) * 2 * math.Pi

		r := radius * 0.9
		if n.Kind == KindAssessor {
			r = radius * 0.4
		}

		size := n.Size
		if size <= 0 {
			size = n.Kind.defaultSize()
		}
		color := n.Color
		if color == "" {
			if n.Kind == KindAssessor {
				color = c.cfg.Theme.Primary
			} else {
				color = c.cfg.Theme.Secondary
			}
		}

		phys[i] = physNode{
			id:    n.ID,
			label: n.Label,
			kind:  n.Kind,
			x:     centerX + r*math.Cos(angle) + (rng.Float64()-0.5)*50,
			y:     centerY + r*math.Sin(angle) + (rng.Float64()-0.5)*50,
			size:  size,
			color: color,
			meta:  n.Metadata,
		}
		if _, ok := index[n.ID]; !ok {
			index[n.ID] = i
		}
	}

	c.nodes = phys
	c.edges = edges
	c.index = index
	c.dragging = -1
	c.hovered = -1
	c.selected = nil
	c.running = true
	return nil
}

// ToggleSimulation pauses or resumes the physics stepping and reports the
// new state.
func (c *Chart) ToggleSimulation() bool {
	c.running = !c.running
	return c.running
}

// Running reports whether the simulation will advance on the next Step call.
func (c *Chart) Running() bool {
	return c.running
}

// Layout returns the current simulation-space node placements.
func (c *Chart) Layout() []PlacedNode {
	placed := make([]PlacedNode, len(c.nodes))
	for i, n := range c.nodes {
		placed[i] = PlacedNode{
			ID: n.id, Label: n.label, Kind: n.kind,
			X: n.x, Y: n.y, Size: n.size, Color: n.color,
		}
	}
	return placed
}

// Edges returns the current edge set.
func (c *Chart) Edges() []Edge {
	return c.edges
}

// SelectedIDs returns the ids of the currently selected nodes in selection
// order.
func (c *Chart) SelectedIDs() []string {
	ids := make([]string, len(c.selected))
	for i, idx := range c.selected {
		ids[i] = c.nodes[idx].id
	}
	return ids
}

// Stats returns a read-only aggregate snapshot.
func (c *Chart) Stats() Stats {
	assessors := 0
	for _, n := range c.nodes {
		if n.kind == KindAssessor {
			assessors++
		}
	}
	return Stats{
		NodeCount:         len(c.nodes),
		EdgeCount:         len(c.edges),
		AssessorCount:     assessors,
		ApplicationCount:  len(c.nodes) - assessors,
		SelectedCount:     len(c.selected),
		Zoom:              c.zoom,
		SimulationRunning: c.running,
	}
}

// toSimSpace inverse-transforms surface pixel coordinates into simulation
// space, undoing pan then zoom.
func (c *Chart) toSimSpace(x, y float64) (float64, float64) {
	return (x - c.panX) / c.zoom, (y - c.panY) / c.zoom
}

// hitNode returns the index of the first node, in iteration order, whose
// distance to the simulation-space point is within size*1.5. When hit
// circles overlap the earlier node wins, not the nearest one.
func (c *Chart) hitNode(tx, ty float64) int {
	for i := range c.nodes {
		dist := math.Hypot(tx-c.nodes[i].x, ty-c.nodes[i].y)
		if dist < c.nodes[i].size*1.5 {
			return i
		}
	}
	return -1
}

// OnPointerDown starts a drag when the pointer lands on a node, pinning it so
// the simulation stops fighting the cursor. Reports whether a drag started.
func (c *Chart) OnPointerDown(x, y float64) bool {
	tx, ty := c.toSimSpace(x, y)
	if i := c.hitNode(tx, ty); i >= 0 {
		c.dragging = i
		c.nodes[i].fixed = true
		return true
	}
	return false
}

// OnPointerUp releases the dragged node back to the simulation.
func (c *Chart) OnPointerUp() {
	if c.dragging >= 0 {
		c.nodes[c.dragging].fixed = false
	}
	c.dragging = -1
}

// OnPointerMove drives the dragged node directly from the pointer, or
// resolves hover otherwise. Dragging perturbs the system, so a settled
// simulation re-enters the running state.
func (c *Chart) OnPointerMove(x, y float64) chart.HitResult {
	tx, ty := c.toSimSpace(x, y)

	if c.dragging >= 0 {
		c.nodes[c.dragging].x = tx
		c.nodes[c.dragging].y = ty
		c.running = true
		_ = c.Render()
		return chart.Miss()
	}

	oldHovered := c.hovered
	if i := c.hitNode(tx, ty); i >= 0 {
		c.hovered = i
		if oldHovered != i {
			_ = c.Render()
		}

		node := c.nodes[i]
		connections := 0
		for _, e := range c.edges {
			if e.Source == node.id || e.Target == node.id {
				connections++
			}
		}
		return chart.NewHit(node.id, chart.ElementNode, map[string]any{
			"id":          node.id,
			"label":       node.label,
			"type":        string(node.kind),
			"metadata":    node.meta,
			"connections": connections,
		})
	}

	c.hovered = -1
	if oldHovered != -1 {
		_ = c.Render()
	}
	return chart.Miss()
}

// OnClick updates the selection. Multi-select toggles membership; single
// select replaces it, and clicking empty space clears it. Returns the
// selected node ids.
func (c *Chart) OnClick(x, y float64, multi bool) []string {
	tx, ty := c.toSimSpace(x, y)

	if i := c.hitNode(tx, ty); i >= 0 {
		if multi {
			toggled := c.selected[:0]
			found := false
			for _, idx := range c.selected {
				if idx == i {
					found = true
					continue
				}
				toggled = append(toggled, idx)
			}
			c.selected = toggled
			if !found {
				c.selected = append(c.selected, i)
			}
		} else {
			c.selected = []int{i}
		}
		_ = c.Render()
		return c.SelectedIDs()
	}

	if !multi {
		c.selected = nil
		_ = c.Render()
	}
	return c.SelectedIDs()
}

// OnZoom scales the viewport, clamped to the configured zoom range, and
// shifts the pan so the point under the cursor stays fixed on screen.
func (c *Chart) OnZoom(delta, centerX, centerY float64) {
	oldZoom := c.zoom
	c.zoom = clamp(c.zoom*(1-delta*0.001), c.minZoom, c.maxZoom)

	change := c.zoom / oldZoom
	c.panX = centerX - (centerX-c.panX)*change
	c.panY = centerY - (centerY-c.panY)*change

	_ = c.Render()
}

// OnPan shifts the viewport by a screen-space delta.
func (c *Chart) OnPan(dx, dy float64) {
	c.panX += dx
	c.panY += dy
	_ = c.Render()
}

// Zoom returns the current zoom factor.
func (c *Chart) Zoom() float64 {
	return c.zoom
}

// Pan returns the current pan offset.
func (c *Chart) Pan() (x, y float64) {
	return c.panX, c.panY
}

// ResetView restores the identity viewport and clears the selection.
func (c *Chart) ResetView() {
	c.zoom = 1
	c.panX, c.panY = 0, 0
	c.selected = nil
	_ = c.Render()
}

// FitToContent frames the bounding box of all node positions: zoom becomes
// the tighter of the width and height fits shrunk a little for margin, and
// pan recenters the box.
func (c *Chart) FitToContent() {
	if len(c.nodes) == 0 {
		return
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, n := range c.nodes {
		minX = math.Min(minX, n.x)
		maxX = math.Max(maxX, n.x)
		minY = math.Min(minY, n.y)
		maxY = math.Max(maxY, n.y)
	}

	const margin = 100.0
	contentW := maxX - minX + margin
	contentH := maxY - minY + margin

	c.zoom = math.Min(c.cfg.Width/contentW, c.cfg.Height/contentH) * 0.9
	c.zoom = clamp(c.zoom, c.minZoom, 2)

	c.panX = (c.cfg.Width-contentW*c.zoom)/2 - minX*c.zoom + margin/2
	c.panY = (c.cfg.Height-contentH*c.zoom)/2 - minY*c.zoom + margin/2

	_ = c.Render()
}
