// chartview is a terminal driver for the review charts: it loads the
// freshest platform export, runs the network simulation, writes PNG frames
// for an external viewer to follow, and re-renders whenever the export
// directory changes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/reviewviz/internal/datasource"
	"github.com/vanderheijden86/reviewviz/pkg/chart"
	"github.com/vanderheijden86/reviewviz/pkg/version"
	"github.com/vanderheijden86/reviewviz/pkg/watcher"
)

func main() {
	dataDir := flag.String("data", ".", "Directory containing platform exports (.json or .db)")
	outDir := flag.String("out", "charts", "Directory PNG frames are written to")
	configPath := flag.String("config", "", "Chart configuration YAML (defaults apply when missing)")
	noWatch := flag.Bool("no-watch", false, "Disable live reload on export changes")
	versionFlag := flag.Bool("version", false, "Show version")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("chartview %s\n", version.Version)
		os.Exit(0)
	}

	if *help {
		fmt.Println("Usage: chartview [options]")
		fmt.Println("\nInteractive terminal driver for review platform charts.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, err := chart.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	snap, err := datasource.LoadFreshest(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading exports: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	m, err := newModel(cfg, snap, *dataDir, filepath.Clean(*outDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m)

	if !*noWatch {
		w, err := watcher.New(*dataDir, watcher.WithOnChange(func() {
			p.Send(reloadMsg{})
		}))
		if err == nil && w.Start() == nil {
			defer w.Stop()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
