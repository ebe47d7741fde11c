package histogram_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/reviewviz/pkg/chart"
	"github.com/vanderheijden86/reviewviz/pkg/histogram"
)

func newChart(t *testing.T) *histogram.Chart {
	t.Helper()
	name := "histogram-test-" + t.Name()
	chart.RegisterSurface(name, chart.NewImageSurface())
	t.Cleanup(func() { chart.UnregisterSurface(name) })

	c, err := histogram.New(name, chart.DefaultConfig())
	if err != nil {
		t.Fatalf("new histogram: %v", err)
	}
	return c
}

func records(scores ...float64) []histogram.ScoreRecord {
	recs := make([]histogram.ScoreRecord, len(scores))
	for i, s := range scores {
		recs[i] = histogram.ScoreRecord{
			ApplicationID: string(rune('a' + i)),
			Score:         s,
			MaxScore:      100,
		}
	}
	return recs
}

func TestNewRequiresRegisteredSurface(t *testing.T) {
	_, err := histogram.New("no-such-surface", chart.DefaultConfig())
	if err == nil {
		t.Fatal("expected error for unbound surface name")
	}
}

func TestSetDataQuartileSpread(t *testing.T) {
	c := newChart(t)
	if err := c.SetData(records(10, 30, 55, 95), 4); err != nil {
		t.Fatalf("set data: %v", err)
	}

	bins := c.Bins()
	if len(bins) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(bins))
	}
	for i, bin := range bins {
		if bin.Count != 1 {
			t.Errorf("bin %d: expected count 1, got %d", i, bin.Count)
		}
	}
	if bins[0].Min != 0 || bins[0].Max != 25 {
		t.Errorf("bin 0 range: got [%g, %g), want [0, 25)", bins[0].Min, bins[0].Max)
	}
}

func TestSetDataPerfectScoreFoldsIntoLastBin(t *testing.T) {
	c := newChart(t)
	if err := c.SetData(records(100), 10); err != nil {
		t.Fatalf("set data: %v", err)
	}
	bins := c.Bins()
	if bins[len(bins)-1].Count != 1 {
		t.Error("a 100%% score should land in the last bin")
	}
}

func TestSetDataRejectsBadInput(t *testing.T) {
	c := newChart(t)
	if err := c.SetData(records(50), 0); err == nil {
		t.Error("bin count 0 should be rejected")
	}

	if err := c.SetData(records(10, 90), 4); err != nil {
		t.Fatalf("seeding data: %v", err)
	}
	bad := []histogram.ScoreRecord{{ApplicationID: "", Score: 50, MaxScore: 100}}
	if err := c.SetData(bad, 4); err == nil {
		t.Error("record without application id should be rejected")
	}
	// The failed call must leave the prior layout intact.
	if got := c.Stats().TotalApplications; got != 2 {
		t.Errorf("prior data should survive a rejected call, got %d applications", got)
	}
}

func TestSetDataEmptyClearsChart(t *testing.T) {
	c := newChart(t)
	if err := c.SetData(records(10, 20), 4); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if err := c.SetData(nil, 4); err != nil {
		t.Fatalf("clearing with empty data: %v", err)
	}
	if len(c.Bins()) != 0 {
		t.Error("empty data should clear bins")
	}
	if err := c.Render(); err != nil {
		t.Errorf("rendering the cleared state should succeed: %v", err)
	}
}

func TestNormalizedZeroMaxScore(t *testing.T) {
	r := histogram.ScoreRecord{Score: 50, MaxScore: 0}
	if got := r.Normalized(); got != 0 {
		t.Errorf("zero max score should normalize to 0, got %g", got)
	}
}

func TestAvgVarianceAveraged(t *testing.T) {
	c := newChart(t)
	v1, v2 := 4.0, 8.0
	recs := []histogram.ScoreRecord{
		{ApplicationID: "a", Score: 10, MaxScore: 100, Variance: &v1},
		{ApplicationID: "b", Score: 12, MaxScore: 100, Variance: &v2},
	}
	if err := c.SetData(recs, 4); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if got := c.Bins()[0].AvgVariance; got != 6 {
		t.Errorf("expected averaged variance 6, got %g", got)
	}
}

func TestOnPointerMoveHitsBin(t *testing.T) {
	c := newChart(t)
	cfg := chart.DefaultConfig()
	if err := c.SetData(records(10, 30, 55, 95), 4); err != nil {
		t.Fatalf("set data: %v", err)
	}

	// Center of the first quarter of the plot area.
	x := cfg.Padding.Left + cfg.PlotWidth()/8
	y := cfg.Padding.Top + cfg.PlotHeight()/2
	hit := c.OnPointerMove(x, y)
	if !hit.Hit {
		t.Fatal("expected a hit inside the first bin")
	}
	if hit.ElementType != chart.ElementBin {
		t.Errorf("expected bin element, got %s", hit.ElementType)
	}
	if hit.Data["bin_index"] != 0 {
		t.Errorf("expected bin_index 0, got %v", hit.Data["bin_index"])
	}
	if hit.Data["count"] != 1 {
		t.Errorf("expected count 1, got %v", hit.Data["count"])
	}
}

func TestOnPointerMoveOutsidePlotMisses(t *testing.T) {
	c := newChart(t)
	if err := c.SetData(records(50), 4); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if hit := c.OnPointerMove(5, 5); hit.Hit {
		t.Error("pointer in the padding region should miss")
	}
}

func TestOnPointerMoveTooltipPayloadBounded(t *testing.T) {
	c := newChart(t)
	cfg := chart.DefaultConfig()

	recs := make([]histogram.ScoreRecord, 25)
	for i := range recs {
		recs[i] = histogram.ScoreRecord{
			ApplicationID: string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Score:         50,
			MaxScore:      100,
		}
	}
	if err := c.SetData(recs, 4); err != nil {
		t.Fatalf("set data: %v", err)
	}

	// All 25 records land in bin 2; hover its center.
	x := cfg.Padding.Left + cfg.PlotWidth()*5/8
	hit := c.OnPointerMove(x, cfg.Padding.Top+10)
	if !hit.Hit {
		t.Fatal("expected a hit")
	}
	apps, ok := hit.Data["applications"].([]string)
	if !ok {
		t.Fatalf("applications payload has wrong type %T", hit.Data["applications"])
	}
	if len(apps) > 10 {
		t.Errorf("tooltip payload should cap at 10 applications, got %d", len(apps))
	}
	if hit.Data["count"] != 25 {
		t.Errorf("count should still report all records, got %v", hit.Data["count"])
	}
}

func TestBinningPreservesEveryRecord(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := "histogram-rapid"
		chart.RegisterSurface(name, chart.NewImageSurface())
		defer chart.UnregisterSurface(name)

		c, err := histogram.New(name, chart.DefaultConfig())
		if err != nil {
			rt.Fatalf("new histogram: %v", err)
		}

		n := rapid.IntRange(0, 200).Draw(rt, "n")
		binCount := rapid.IntRange(1, 50).Draw(rt, "binCount")
		recs := make([]histogram.ScoreRecord, n)
		for i := range recs {
			recs[i] = histogram.ScoreRecord{
				ApplicationID: string(rune('a'+i%26)) + string(rune('0'+i/26)),
				Score:         rapid.Float64Range(0, 100).Draw(rt, "score"),
				MaxScore:      100,
			}
		}
		if err := c.SetData(recs, binCount); err != nil {
			rt.Fatalf("set data: %v", err)
		}

		total := 0
		for _, bin := range c.Bins() {
			total += bin.Count
		}
		if n > 0 && total != n {
			rt.Fatalf("bins hold %d records, input had %d", total, n)
		}
	})
}
