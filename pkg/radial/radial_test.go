package radial_test

import (
	"math"
	"testing"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
	"github.com/vanderheijden86/reviewviz/pkg/radial"
)

func newChart(t *testing.T, cfg chart.Config) *radial.Chart {
	t.Helper()
	name := "radial-test-" + t.Name()
	chart.RegisterSurface(name, chart.NewImageSurface())
	t.Cleanup(func() { chart.UnregisterSurface(name) })

	c, err := radial.New(name, cfg)
	if err != nil {
		t.Fatalf("new radial chart: %v", err)
	}
	return c
}

// pointInBand returns screen coordinates at the given clockwise-from-top
// angle, at the middle of the donut band for the default 800x400 canvas
// (outer radius 140, inner 84).
func pointInBand(angle float64) (x, y float64) {
	const cx, cy, r = 400.0, 200.0, 112.0
	return cx + r*math.Cos(angle-math.Pi/2), cy + r*math.Sin(angle-math.Pi/2)
}

func TestSegmentPercentage(t *testing.T) {
	s := radial.Segment{Completed: 3, Total: 4}
	if got := s.Percentage(); got != 75 {
		t.Errorf("expected 75%%, got %g", got)
	}

	empty := radial.Segment{Completed: 0, Total: 0}
	if got := empty.Percentage(); got != 0 {
		t.Errorf("empty segment should read 0%%, got %g", got)
	}
}

func TestSetDataValidation(t *testing.T) {
	c := newChart(t, chart.DefaultConfig())

	if err := c.SetData([]radial.Segment{{ID: "", Total: 1}}); err == nil {
		t.Error("segment without id should be rejected")
	}
	if err := c.SetData([]radial.Segment{{ID: "a", Completed: -1, Total: 1}}); err == nil {
		t.Error("negative counts should be rejected")
	}
	if err := c.SetData(nil); err != nil {
		t.Errorf("empty segment list is a valid cleared state: %v", err)
	}
}

func TestStatsAggregation(t *testing.T) {
	c := newChart(t, chart.DefaultConfig())
	segs := []radial.Segment{
		{ID: "alice", Label: "Alice", Completed: 3, Total: 3},
		{ID: "bob", Label: "Bob", Completed: 1, Total: 1},
	}
	if err := c.SetData(segs); err != nil {
		t.Fatalf("set data: %v", err)
	}

	stats := c.Stats()
	if stats.TotalCompleted != 4 || stats.TotalItems != 4 {
		t.Errorf("expected 4/4 totals, got %d/%d", stats.TotalCompleted, stats.TotalItems)
	}
	if stats.OverallPercentage != 100 {
		t.Errorf("expected 100%%, got %g", stats.OverallPercentage)
	}
	if stats.SegmentCount != 2 {
		t.Errorf("expected 2 segments, got %d", stats.SegmentCount)
	}
}

// A segment with three quarters of the grand total owns three quarters of the
// circle, so a pointer anywhere in the first 270 degrees resolves to it and
// the final quarter resolves to the other segment.
func TestAngularSpansProportionalToTotals(t *testing.T) {
	c := newChart(t, chart.DefaultConfig())
	segs := []radial.Segment{
		{ID: "alice", Label: "Alice", Completed: 2, Total: 3},
		{ID: "bob", Label: "Bob", Completed: 1, Total: 1},
	}
	if err := c.SetData(segs); err != nil {
		t.Fatalf("set data: %v", err)
	}

	cases := []struct {
		angle float64 // clockwise from top
		want  string
	}{
		{math.Pi / 4, "alice"},      // 45 deg
		{math.Pi, "alice"},          // 180 deg
		{math.Pi * 1.45, "alice"},   // 261 deg, near span end
		{math.Pi * 1.55, "bob"},     // 279 deg, past the boundary
		{math.Pi * 1.95, "bob"},     // 351 deg
	}
	for _, tc := range cases {
		x, y := pointInBand(tc.angle)
		hit := c.OnPointerMove(x, y)
		if !hit.Hit {
			t.Errorf("angle %.0f deg: expected a hit", tc.angle*180/math.Pi)
			continue
		}
		if hit.ElementID != tc.want {
			t.Errorf("angle %.0f deg: got %s, want %s", tc.angle*180/math.Pi, hit.ElementID, tc.want)
		}
	}
}

func TestOnPointerMoveHitPayload(t *testing.T) {
	c := newChart(t, chart.DefaultConfig())
	segs := []radial.Segment{{ID: "alice", Label: "Alice", Completed: 2, Total: 4}}
	if err := c.SetData(segs); err != nil {
		t.Fatalf("set data: %v", err)
	}

	x, y := pointInBand(math.Pi / 2)
	hit := c.OnPointerMove(x, y)
	if !hit.Hit {
		t.Fatal("expected a hit inside the band")
	}
	if hit.ElementType != chart.ElementSegment {
		t.Errorf("expected segment element, got %s", hit.ElementType)
	}
	if hit.Data["percentage"] != 50.0 {
		t.Errorf("expected 50%% payload, got %v", hit.Data["percentage"])
	}
}

func TestOnPointerMoveOutsideBandMisses(t *testing.T) {
	c := newChart(t, chart.DefaultConfig())
	if err := c.SetData([]radial.Segment{{ID: "a", Completed: 1, Total: 1}}); err != nil {
		t.Fatalf("set data: %v", err)
	}

	// Dead center is inside the inner radius.
	if hit := c.OnPointerMove(400, 200); hit.Hit {
		t.Error("center of the donut hole should miss")
	}
	// Canvas corner is far outside the outer radius.
	if hit := c.OnPointerMove(0, 0); hit.Hit {
		t.Error("canvas corner should miss")
	}
}

func TestOnPointerMoveZeroTotalMisses(t *testing.T) {
	c := newChart(t, chart.DefaultConfig())
	if err := c.SetData([]radial.Segment{{ID: "a", Completed: 0, Total: 0}}); err != nil {
		t.Fatalf("set data: %v", err)
	}
	x, y := pointInBand(math.Pi)
	if hit := c.OnPointerMove(x, y); hit.Hit {
		t.Error("zero grand total should never hit")
	}
}

func TestAnimateProgression(t *testing.T) {
	cfg := chart.DefaultConfig()
	cfg.Animate = true
	c := newChart(t, cfg)
	if err := c.SetData([]radial.Segment{{ID: "a", Completed: 1, Total: 2}}); err != nil {
		t.Fatalf("set data: %v", err)
	}

	if !c.Animate(250) {
		t.Error("halfway through the sweep more frames should be needed")
	}
	if c.Animate(250) {
		t.Error("the sweep should complete after 500ms total")
	}
	if c.Animate(16) {
		t.Error("a finished animation should stay finished")
	}
}

func TestAnimateDisabled(t *testing.T) {
	cfg := chart.DefaultConfig()
	cfg.Animate = false
	c := newChart(t, cfg)
	if err := c.SetData([]radial.Segment{{ID: "a", Completed: 1, Total: 2}}); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if c.Animate(16) {
		t.Error("animation disabled in config should need no frames")
	}
}

func TestDrawSimpleGauge(t *testing.T) {
	name := "gauge-test"
	surface := chart.NewImageSurface()
	chart.RegisterSurface(name, surface)
	t.Cleanup(func() { chart.UnregisterSurface(name) })

	if err := radial.DrawSimpleGauge(name, 200, 200, 7, 10, "Reviews", "#3B82F6"); err != nil {
		t.Fatalf("draw gauge: %v", err)
	}
	if surface.Image() == nil {
		t.Error("gauge should commit a frame")
	}
}
