package datasource_test

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/reviewviz/internal/datasource"
	"github.com/vanderheijden86/reviewviz/pkg/netgraph"
)

func ptr(f float64) *float64 { return &f }

func sampleSnapshot() *datasource.Snapshot {
	day := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &datasource.Snapshot{
		GeneratedAt: time.Now(),
		Applications: []datasource.Application{
			{ID: "app-1", Reference: "APP-001", SubmittedAt: day},
			{ID: "app-2", Reference: "APP-002", SubmittedAt: day.Add(2 * time.Hour)},
			{ID: "app-3", Reference: "APP-003", SubmittedAt: day.AddDate(0, 0, 1)},
		},
		Assessors: []datasource.Assessor{
			{ID: "ass-1", Name: "Alice"},
			{ID: "ass-2", Name: "Bob"},
		},
		Assignments: []datasource.Assignment{
			{AssessorID: "ass-1", ApplicationID: "app-1", Status: datasource.StatusCompleted, Score: ptr(80), MaxScore: 100},
			{AssessorID: "ass-2", ApplicationID: "app-1", Status: datasource.StatusCompleted, Score: ptr(90), MaxScore: 100},
			{AssessorID: "ass-1", ApplicationID: "app-2", Status: datasource.StatusCompleted, Score: ptr(60), MaxScore: 100},
			{AssessorID: "ass-2", ApplicationID: "app-2", Status: datasource.StatusInProgress, MaxScore: 100},
			{AssessorID: "ass-1", ApplicationID: "app-3", Status: datasource.StatusPending, MaxScore: 100},
		},
	}
}

func TestValidateCatchesDanglingReferences(t *testing.T) {
	snap := sampleSnapshot()
	snap.Assignments = append(snap.Assignments, datasource.Assignment{
		AssessorID: "ghost", ApplicationID: "app-1", Status: datasource.StatusPending,
	})
	if err := snap.Validate(); err == nil {
		t.Error("unknown assessor reference should fail validation")
	}
}

func TestValidateCatchesDuplicates(t *testing.T) {
	snap := sampleSnapshot()
	snap.Applications = append(snap.Applications, snap.Applications[0])
	if err := snap.Validate(); err == nil {
		t.Error("duplicate application id should fail validation")
	}
}

func TestValidateCatchesBadStatus(t *testing.T) {
	snap := sampleSnapshot()
	snap.Assignments[0].Status = "done"
	if err := snap.Validate(); err == nil {
		t.Error("unknown assignment status should fail validation")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	snap := sampleSnapshot()

	if err := datasource.SaveJSON(snap, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := datasource.LoadJSON(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Applications) != 3 || len(loaded.Assessors) != 2 || len(loaded.Assignments) != 5 {
		t.Errorf("round trip lost records: %d/%d/%d",
			len(loaded.Applications), len(loaded.Assessors), len(loaded.Assignments))
	}
	if loaded.Assignments[0].Score == nil || *loaded.Assignments[0].Score != 80 {
		t.Error("completed assignment score lost in round trip")
	}
	if loaded.Assignments[3].Score != nil {
		t.Error("in-progress assignment should have no score")
	}
}

func TestLoadJSONRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"assignments":[{"assessor_id":"x","application_id":"y","status":"pending"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := datasource.LoadJSON(path); err == nil {
		t.Error("snapshot with dangling references should fail to load")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	seedSQLite(t, path)

	snap, err := datasource.LoadSQLite(path)
	if err != nil {
		t.Fatalf("load sqlite: %v", err)
	}
	if len(snap.Applications) != 2 || len(snap.Assessors) != 1 || len(snap.Assignments) != 2 {
		t.Errorf("unexpected snapshot shape: %d/%d/%d",
			len(snap.Applications), len(snap.Assessors), len(snap.Assignments))
	}
	if snap.Assignments[0].Score == nil || *snap.Assignments[0].Score != 72.5 {
		t.Error("score column did not survive the read")
	}
	if snap.Assignments[1].Score != nil {
		t.Error("NULL score should stay nil")
	}
}

func seedSQLite(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE applications (id TEXT PRIMARY KEY, reference TEXT, submitted_at TEXT)`,
		`CREATE TABLE assessors (id TEXT PRIMARY KEY, name TEXT)`,
		`CREATE TABLE assignments (assessor_id TEXT, application_id TEXT, status TEXT, score REAL, max_score REAL)`,
		`INSERT INTO applications VALUES ('app-1', 'APP-001', '2026-03-01T09:00:00Z')`,
		`INSERT INTO applications VALUES ('app-2', 'APP-002', '2026-03-02T10:00:00Z')`,
		`INSERT INTO assessors VALUES ('ass-1', 'Alice')`,
		`INSERT INTO assignments VALUES ('ass-1', 'app-1', 'completed', 72.5, 100)`,
		`INSERT INTO assignments VALUES ('ass-1', 'app-2', 'pending', NULL, 100)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func TestDiscoverSourcesOrdering(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "snapshot.json")
	dbPath := filepath.Join(dir, "snapshot.db")
	if err := os.WriteFile(jsonPath, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dbPath, []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Same mtime: SQLite outranks JSON.
	now := time.Now()
	if err := os.Chtimes(jsonPath, now, now); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(dbPath, now, now); err != nil {
		t.Fatal(err)
	}

	sources, err := datasource.DiscoverSources(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Type != datasource.SourceTypeSQLite {
		t.Errorf("sqlite should outrank json on a timestamp tie, got %s first", sources[0].Type)
	}

	// A newer JSON beats an older SQLite.
	later := now.Add(time.Hour)
	if err := os.Chtimes(jsonPath, later, later); err != nil {
		t.Fatal(err)
	}
	sources, err = datasource.DiscoverSources(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if sources[0].Type != datasource.SourceTypeJSON {
		t.Errorf("newer json should come first, got %s", sources[0].Type)
	}
}

func TestLoadFreshestSkipsBrokenSources(t *testing.T) {
	dir := t.TempDir()
	// A valid JSON export and a newer but corrupt database.
	if err := datasource.SaveJSON(sampleSnapshot(), filepath.Join(dir, "snapshot.json")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.db"), []byte("not a database"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "broken.db"), later, later); err != nil {
		t.Fatal(err)
	}

	snap, err := datasource.LoadFreshest(dir)
	if err != nil {
		t.Fatalf("load freshest: %v", err)
	}
	if len(snap.Applications) != 3 {
		t.Errorf("expected the json fallback snapshot, got %d applications", len(snap.Applications))
	}
}

func TestScoreRecordsDerivation(t *testing.T) {
	records := sampleSnapshot().ScoreRecords()
	if len(records) != 2 {
		t.Fatalf("expected 2 scored applications, got %d", len(records))
	}

	first := records[0]
	if first.ApplicationID != "app-1" {
		t.Fatalf("expected app-1 first, got %s", first.ApplicationID)
	}
	if first.Score != 85 {
		t.Errorf("expected mean score 85, got %g", first.Score)
	}
	if first.AssessorCount != 2 {
		t.Errorf("expected 2 assessors, got %d", first.AssessorCount)
	}
	if first.Variance == nil || math.Abs(*first.Variance-25) > 1e-9 {
		t.Errorf("expected population variance 25, got %v", first.Variance)
	}
}

func TestSegmentsDerivation(t *testing.T) {
	segments := sampleSnapshot().Segments()
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].ID != "ass-1" || segments[0].Completed != 2 || segments[0].Total != 3 {
		t.Errorf("alice segment wrong: %+v", segments[0])
	}
	if segments[1].Completed != 1 || segments[1].Total != 2 {
		t.Errorf("bob segment wrong: %+v", segments[1])
	}
}

func TestHeatRowsDerivation(t *testing.T) {
	rows := sampleSnapshot().HeatRows(10)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ApplicationID != "app-1" || len(rows[0].Scores) != 2 {
		t.Errorf("app-1 row wrong: %+v", rows[0])
	}
	// Scores follow assessor declaration order.
	if rows[0].Scores[0] != 80 || rows[0].Scores[1] != 90 {
		t.Errorf("scores out of assessor order: %v", rows[0].Scores)
	}
	if !rows[0].Flagged {
		t.Error("variance 25 should be flagged against threshold 10")
	}
}

func TestTimelinePointsDerivation(t *testing.T) {
	points := sampleSnapshot().TimelinePoints()
	if len(points) != 2 {
		t.Fatalf("expected 2 daily buckets, got %d", len(points))
	}
	if points[0].Count != 2 || points[0].Cumulative != 2 {
		t.Errorf("first bucket wrong: %+v", points[0])
	}
	if points[1].Count != 1 || points[1].Cumulative != 3 {
		t.Errorf("second bucket wrong: %+v", points[1])
	}
	if !points[0].Timestamp.Before(points[1].Timestamp) {
		t.Error("points must be ascending")
	}
}

func TestNetworkDerivation(t *testing.T) {
	nodes, edges := sampleSnapshot().Network()
	if len(nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(nodes))
	}
	if nodes[0].Kind != netgraph.KindAssessor || nodes[2].Kind != netgraph.KindApplication {
		t.Error("assessors should precede applications")
	}
	if len(edges) != 5 {
		t.Fatalf("expected 5 edges, got %d", len(edges))
	}
	if edges[0].Status != netgraph.StatusCompleted {
		t.Errorf("edge status should carry over, got %s", edges[0].Status)
	}
}
