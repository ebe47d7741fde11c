package datasource

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteReader provides read access to a review-platform SQLite export.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite export for reading.
func NewSQLiteReader(path string) (*SQLiteReader, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot read database %s: %w", path, err)
	}
	return &SQLiteReader{db: db, path: path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadSnapshot reads the full snapshot from the applications, assessors and
// assignments tables.
func (r *SQLiteReader) LoadSnapshot() (*Snapshot, error) {
	snap := &Snapshot{GeneratedAt: time.Now()}

	rows, err := r.db.Query(`SELECT id, reference, submitted_at FROM applications ORDER BY submitted_at`)
	if err != nil {
		return nil, fmt.Errorf("querying applications: %w", err)
	}
	for rows.Next() {
		var app Application
		var submitted string
		if err := rows.Scan(&app.ID, &app.Reference, &submitted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		if app.SubmittedAt, err = time.Parse(time.RFC3339, submitted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("application %s has bad submitted_at: %w", app.ID, err)
		}
		snap.Applications = append(snap.Applications, app)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading applications: %w", err)
	}
	rows.Close()

	rows, err = r.db.Query(`SELECT id, name FROM assessors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying assessors: %w", err)
	}
	for rows.Next() {
		var a Assessor
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning assessor: %w", err)
		}
		snap.Assessors = append(snap.Assessors, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading assessors: %w", err)
	}
	rows.Close()

	rows, err = r.db.Query(`SELECT assessor_id, application_id, status, score, max_score FROM assignments`)
	if err != nil {
		return nil, fmt.Errorf("querying assignments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a Assignment
		var score sql.NullFloat64
		if err := rows.Scan(&a.AssessorID, &a.ApplicationID, &a.Status, &score, &a.MaxScore); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		if score.Valid {
			a.Score = &score.Float64
		}
		snap.Assignments = append(snap.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading assignments: %w", err)
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot in %s: %w", r.path, err)
	}
	return snap, nil
}

// LoadSQLite reads and validates a snapshot from a SQLite export in one call.
func LoadSQLite(path string) (*Snapshot, error) {
	r, err := NewSQLiteReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.LoadSnapshot()
}
