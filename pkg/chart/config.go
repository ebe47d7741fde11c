// Package chart holds the pieces shared by every chart type: configuration,
// the color theme, the drawing-surface registry, the hit-test result protocol
// and a handful of drawing and formatting helpers.
//
// A chart instance owns its state exclusively and is mutated by one host
// event-loop callback at a time. Nothing in this package (or the chart
// packages built on it) spawns goroutines or locks around chart state.
package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Padding is the inset between the canvas edge and the plot area.
type Padding struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// DefaultPadding returns the standard chart padding.
func DefaultPadding() Padding {
	return Padding{Top: 40, Right: 40, Bottom: 60, Left: 60}
}

// Config is the per-chart render configuration. It is treated as immutable
// during a render pass; hosts replace it wholesale between renders.
type Config struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Padding    Padding `yaml:"padding"`
	Theme      Theme   `yaml:"theme"`
	Animate    bool    `yaml:"animate"`
	ShowGrid   bool    `yaml:"show_grid"`
	ShowLabels bool    `yaml:"show_labels"`
	ShowLegend bool    `yaml:"show_legend"`
	FontFamily string  `yaml:"font_family,omitempty"`
	FontSize   float64 `yaml:"font_size"`
}

// DefaultConfig returns a Config with sensible defaults for an 800x400 chart.
func DefaultConfig() Config {
	return Config{
		Width:      800,
		Height:     400,
		Padding:    DefaultPadding(),
		Theme:      DefaultTheme(),
		Animate:    true,
		ShowGrid:   true,
		ShowLabels: true,
		ShowLegend: true,
		FontFamily: "Inter, system-ui, sans-serif",
		FontSize:   12,
	}
}

// PlotWidth returns the horizontal extent of the plot area, floored at zero.
func (c Config) PlotWidth() float64 {
	w := c.Width - c.Padding.Left - c.Padding.Right
	if w < 0 {
		return 0
	}
	return w
}

// PlotHeight returns the vertical extent of the plot area, floored at zero.
func (c Config) PlotHeight() float64 {
	h := c.Height - c.Padding.Top - c.Padding.Bottom
	if h < 0 {
		return 0
	}
	return h
}

// Validate reports configurations no engine can lay out against.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas size %.0fx%.0f", c.Width, c.Height)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("invalid font size %.1f", c.FontSize)
	}
	return nil
}

// LoadConfig reads a chart configuration from a YAML file, filling any
// omitted fields from DefaultConfig. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading chart config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing chart config: %w", err)
	}
	if len(cfg.Theme.Accent) == 0 {
		cfg.Theme.Accent = DefaultTheme().Accent
	}
	return cfg, nil
}

// SaveConfig writes a chart configuration to a YAML file.
func SaveConfig(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling chart config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing chart config: %w", err)
	}
	return nil
}
