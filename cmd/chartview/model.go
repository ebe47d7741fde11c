package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/reviewviz/internal/datasource"
	"github.com/vanderheijden86/reviewviz/pkg/chart"
	"github.com/vanderheijden86/reviewviz/pkg/export"
	"github.com/vanderheijden86/reviewviz/pkg/netgraph"
)

const (
	frameInterval = 33 * time.Millisecond
	panStep       = 40.0
	zoomStep      = 100.0 // wheel-delta equivalent per keypress
)

type tickMsg time.Time

// reloadMsg arrives from the export watcher when the data directory changes.
type reloadMsg struct{}

type exportDoneMsg struct{ err error }

type keyMap struct {
	Pan     key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Fit     key.Binding
	Reset   key.Binding
	Toggle  key.Binding
	Export  key.Binding
	Reload  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Pan:     key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("arrows", "pan")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Fit:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit to content")),
	Reset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
	Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export page")),
	Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload data")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	cfg     chart.Config
	graph   *netgraph.Chart
	snap    *datasource.Snapshot
	dataDir string
	outDir  string

	surface   string
	exporting bool
	status    string
	lastErr   error
}

func newModel(cfg chart.Config, snap *datasource.Snapshot, dataDir, outDir string) (*model, error) {
	surface := filepath.Join(outDir, "network.png")
	chart.RegisterSurface(surface, &chart.FileSurface{Path: surface})

	graph, err := netgraph.New(surface, cfg)
	if err != nil {
		return nil, err
	}
	nodes, edges := snap.Network()
	if err := graph.SetData(nodes, edges); err != nil {
		return nil, err
	}

	return &model{
		cfg:     cfg,
		graph:   graph,
		snap:    snap,
		dataDir: dataDir,
		outDir:  outDir,
		surface: surface,
		status:  "simulating",
	}, nil
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.graph.Running() {
			if !m.graph.Step() {
				m.status = "settled"
			}
			if err := m.graph.Render(); err != nil {
				m.lastErr = err
			}
		}
		return m, tick()

	case reloadMsg:
		return m, m.reload()

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.lastErr = msg.err
			m.status = "export failed"
		} else {
			m.status = "exported to " + m.outDir
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		chart.UnregisterSurface(m.surface)
		return m, tea.Quit

	case key.Matches(msg, keys.Pan):
		dx, dy := 0.0, 0.0
		switch msg.String() {
		case "up":
			dy = panStep
		case "down":
			dy = -panStep
		case "left":
			dx = panStep
		case "right":
			dx = -panStep
		}
		m.graph.OnPan(dx, dy)

	case key.Matches(msg, keys.ZoomIn):
		m.graph.OnZoom(-zoomStep, m.cfg.Width/2, m.cfg.Height/2)

	case key.Matches(msg, keys.ZoomOut):
		m.graph.OnZoom(zoomStep, m.cfg.Width/2, m.cfg.Height/2)

	case key.Matches(msg, keys.Fit):
		m.graph.FitToContent()

	case key.Matches(msg, keys.Reset):
		m.graph.ResetView()

	case key.Matches(msg, keys.Toggle):
		if m.graph.ToggleSimulation() {
			m.status = "simulating"
		} else {
			m.status = "paused"
		}

	case key.Matches(msg, keys.Export):
		if !m.exporting {
			m.exporting = true
			m.status = "exporting..."
			return m, m.exportPage()
		}

	case key.Matches(msg, keys.Reload):
		return m, m.reload()
	}
	return m, nil
}

// reload picks up the freshest export and reseeds the layout.
func (m *model) reload() tea.Cmd {
	snap, err := datasource.LoadFreshest(m.dataDir)
	if err != nil {
		m.lastErr = err
		m.status = "reload failed"
		return nil
	}
	m.snap = snap
	nodes, edges := snap.Network()
	if err := m.graph.SetData(nodes, edges); err != nil {
		m.lastErr = err
		m.status = "reload failed"
		return nil
	}
	m.lastErr = nil
	m.status = "reloaded, simulating"
	return nil
}

func (m *model) exportPage() tea.Cmd {
	snap := m.snap
	opts := export.PageOptions{Dir: m.outDir, Config: m.cfg}
	return func() tea.Msg {
		return exportDoneMsg{err: export.ExportPage(context.Background(), snap, opts)}
	}
}

func (m *model) View() string {
	stats := m.graph.Stats()

	header := titleStyle.Render("reviewviz chartview")
	body := statusStyle.Render(fmt.Sprintf(
		"%d assessors, %d applications, %d assignments | zoom %.0f%% | %s",
		stats.AssessorCount, stats.ApplicationCount, stats.EdgeCount,
		stats.Zoom*100, m.status,
	))
	frame := statusStyle.Render("frames: " + m.surface)

	view := header + "\n" + body + "\n" + frame + "\n"
	if m.lastErr != nil {
		view += errorStyle.Render("error: "+m.lastErr.Error()) + "\n"
	}
	view += helpStyle.Render("arrows pan | +/- zoom | f fit | 0 reset | space pause | e export | r reload | q quit")
	return view
}
