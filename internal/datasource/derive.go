package datasource

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/reviewviz/pkg/heatmap"
	"github.com/vanderheijden86/reviewviz/pkg/histogram"
	"github.com/vanderheijden86/reviewviz/pkg/netgraph"
	"github.com/vanderheijden86/reviewviz/pkg/radial"
	"github.com/vanderheijden86/reviewviz/pkg/timeline"
)

// completedScores returns each application's completed assignment scores in
// assessor declaration order, plus the max score seen for it.
func (s *Snapshot) completedScores() (map[string][]float64, map[string]float64) {
	order := make(map[string]int, len(s.Assessors))
	for i, a := range s.Assessors {
		order[a.ID] = i
	}

	type scored struct {
		assessor int
		score    float64
	}
	byApp := make(map[string][]scored)
	maxScores := make(map[string]float64)
	for _, a := range s.Assignments {
		if a.MaxScore > maxScores[a.ApplicationID] {
			maxScores[a.ApplicationID] = a.MaxScore
		}
		if a.Status != StatusCompleted || a.Score == nil {
			continue
		}
		byApp[a.ApplicationID] = append(byApp[a.ApplicationID], scored{order[a.AssessorID], *a.Score})
	}

	scores := make(map[string][]float64, len(byApp))
	for app, list := range byApp {
		sort.Slice(list, func(i, j int) bool { return list[i].assessor < list[j].assessor })
		vals := make([]float64, len(list))
		for i, sc := range list {
			vals[i] = sc.score
		}
		scores[app] = vals
	}
	return scores, maxScores
}

// ScoreRecords derives the histogram input: one record per application with
// at least one completed assessment, scored by the mean of its completed
// assignments.
func (s *Snapshot) ScoreRecords() []histogram.ScoreRecord {
	scores, maxScores := s.completedScores()

	var records []histogram.ScoreRecord
	for _, app := range s.Applications {
		vals := scores[app.ID]
		if len(vals) == 0 {
			continue
		}
		variance := stat.PopVariance(vals, nil)
		records = append(records, histogram.ScoreRecord{
			ApplicationID: app.ID,
			Reference:     app.Reference,
			Score:         stat.Mean(vals, nil),
			MaxScore:      maxScores[app.ID],
			AssessorCount: len(vals),
			Variance:      &variance,
		})
	}
	return records
}

// Segments derives the radial input: one segment per assessor with their
// completed share of assigned work.
func (s *Snapshot) Segments() []radial.Segment {
	completed := make(map[string]int, len(s.Assessors))
	total := make(map[string]int, len(s.Assessors))
	for _, a := range s.Assignments {
		total[a.AssessorID]++
		if a.Status == StatusCompleted {
			completed[a.AssessorID]++
		}
	}

	segments := make([]radial.Segment, len(s.Assessors))
	for i, a := range s.Assessors {
		segments[i] = radial.Segment{
			ID:        a.ID,
			Label:     a.Name,
			Completed: completed[a.ID],
			Total:     total[a.ID],
		}
	}
	return segments
}

// HeatRows derives the heatmap input: per-application completed scores in
// assessor order, flagged against the given variance threshold.
func (s *Snapshot) HeatRows(threshold float64) []heatmap.Row {
	scores, _ := s.completedScores()
	names := make([]string, len(s.Assessors))
	for i, a := range s.Assessors {
		names[i] = a.Name
	}

	var rows []heatmap.Row
	for _, app := range s.Applications {
		vals := scores[app.ID]
		if len(vals) == 0 {
			continue
		}
		rows = append(rows, heatmap.NewRow(app.ID, app.Reference, vals, names, threshold))
	}
	return rows
}

// TimelinePoints derives the timeline input: applications bucketed by
// submission day, ascending, with a running cumulative count.
func (s *Snapshot) TimelinePoints() []timeline.Point {
	buckets := make(map[time.Time]int)
	for _, app := range s.Applications {
		day := app.SubmittedAt.Truncate(24 * time.Hour)
		buckets[day]++
	}

	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]timeline.Point, len(days))
	cumulative := 0
	for i, day := range days {
		cumulative += buckets[day]
		points[i] = timeline.Point{
			Timestamp:  day,
			Count:      buckets[day],
			Cumulative: cumulative,
			Label:      day.Format("Jan 2"),
		}
	}
	return points
}

// Network derives the graph input: assessor and application nodes plus one
// edge per assignment carrying its status.
func (s *Snapshot) Network() ([]netgraph.Node, []netgraph.Edge) {
	nodes := make([]netgraph.Node, 0, len(s.Assessors)+len(s.Applications))
	for _, a := range s.Assessors {
		nodes = append(nodes, netgraph.Node{
			ID:    a.ID,
			Label: a.Name,
			Kind:  netgraph.KindAssessor,
		})
	}
	for _, app := range s.Applications {
		nodes = append(nodes, netgraph.Node{
			ID:    app.ID,
			Label: app.Reference,
			Kind:  netgraph.KindApplication,
		})
	}

	edges := make([]netgraph.Edge, len(s.Assignments))
	for i, a := range s.Assignments {
		edges[i] = netgraph.Edge{
			Source: a.AssessorID,
			Target: a.ApplicationID,
			Status: netgraph.EdgeStatus(a.Status),
		}
	}
	return nodes, edges
}
