package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/reviewviz/internal/datasource"
	"github.com/vanderheijden86/reviewviz/pkg/chart"
	"github.com/vanderheijden86/reviewviz/pkg/heatmap"
	"github.com/vanderheijden86/reviewviz/pkg/histogram"
	"github.com/vanderheijden86/reviewviz/pkg/netgraph"
	"github.com/vanderheijden86/reviewviz/pkg/radial"
	"github.com/vanderheijden86/reviewviz/pkg/timeline"
)

// PageOptions controls full-page export.
type PageOptions struct {
	Dir               string // output directory, created if missing
	Config            chart.Config
	BinCount          int     // histogram bins, default 10
	VarianceThreshold float64 // heatmap flag threshold, default 10
	SettleSteps       int     // max physics steps before the network snapshot, default 300
}

// ExportPage renders every chart for one snapshot into Dir, one image per
// chart, concurrently. Each chart binds a file surface registered under its
// own output path, so parallel renders never share state.
func ExportPage(ctx context.Context, snap *datasource.Snapshot, opts PageOptions) error {
	if opts.Dir == "" {
		return fmt.Errorf("output directory is required")
	}
	if opts.BinCount < 1 {
		opts.BinCount = 10
	}
	if opts.VarianceThreshold <= 0 {
		opts.VarianceThreshold = 10
	}
	if opts.SettleSteps < 1 {
		opts.SettleSteps = 300
	}
	if err := opts.Config.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return renderTo(ctx, filepath.Join(opts.Dir, "histogram.png"), func(surface string) error {
			c, err := histogram.New(surface, opts.Config)
			if err != nil {
				return err
			}
			if err := c.SetData(snap.ScoreRecords(), opts.BinCount); err != nil {
				return err
			}
			return c.Render()
		})
	})

	g.Go(func() error {
		return renderTo(ctx, filepath.Join(opts.Dir, "progress.png"), func(surface string) error {
			c, err := radial.New(surface, opts.Config)
			if err != nil {
				return err
			}
			if err := c.SetData(snap.Segments()); err != nil {
				return err
			}
			return c.Render()
		})
	})

	g.Go(func() error {
		return renderTo(ctx, filepath.Join(opts.Dir, "variance.png"), func(surface string) error {
			c, err := heatmap.New(surface, opts.Config)
			if err != nil {
				return err
			}
			c.SetVarianceThreshold(opts.VarianceThreshold)
			if err := c.SetData(snap.HeatRows(opts.VarianceThreshold)); err != nil {
				return err
			}
			return c.Render()
		})
	})

	g.Go(func() error {
		return renderTo(ctx, filepath.Join(opts.Dir, "timeline.png"), func(surface string) error {
			c, err := timeline.New(surface, opts.Config)
			if err != nil {
				return err
			}
			if err := c.SetData(snap.TimelinePoints()); err != nil {
				return err
			}
			return c.Render()
		})
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return exportNetwork(snap, opts)
	})

	return g.Wait()
}

// renderTo runs one chart render against a file surface registered under the
// output path, cleaning the binding up afterwards.
func renderTo(ctx context.Context, path string, render func(surface string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chart.RegisterSurface(path, &chart.FileSurface{Path: path})
	defer chart.UnregisterSurface(path)

	if err := render(path); err != nil {
		return fmt.Errorf("exporting %s: %w", filepath.Base(path), err)
	}
	return nil
}

// exportNetwork settles the force layout off-screen, then writes both the
// SVG and PNG snapshots.
func exportNetwork(snap *datasource.Snapshot, opts PageOptions) error {
	surface := filepath.Join(opts.Dir, "network-sim")
	chart.RegisterSurface(surface, chart.NewImageSurface())
	defer chart.UnregisterSurface(surface)

	c, err := netgraph.New(surface, opts.Config)
	if err != nil {
		return err
	}
	nodes, edges := snap.Network()
	if err := c.SetData(nodes, edges); err != nil {
		return err
	}
	for i := 0; i < opts.SettleSteps && c.Step(); i++ {
	}

	for _, name := range []string{"network.svg", "network.png"} {
		err := SaveNetworkSnapshot(SnapshotOptions{
			Path:  filepath.Join(opts.Dir, name),
			Title: "Assignment Network",
			Nodes: c.Layout(),
			Edges: c.Edges(),
			Theme: opts.Config.Theme,
		})
		if err != nil {
			return fmt.Errorf("exporting %s: %w", name, err)
		}
	}
	return nil
}
