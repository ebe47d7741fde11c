// Package datasource loads review-platform snapshots from JSON and SQLite
// exports and derives the input sets each chart consumes. It discovers the
// freshest valid source in a directory so hosts can point at an export
// location and not care which format the platform wrote last.
package datasource

import (
	"fmt"
	"time"
)

// Assignment statuses as the platform exports them.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Application is one submitted application.
type Application struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Assessor is one reviewer.
type Assessor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Assignment links an assessor to an application. Score is nil until the
// assessment is completed.
type Assignment struct {
	AssessorID    string   `json:"assessor_id"`
	ApplicationID string   `json:"application_id"`
	Status        string   `json:"status"`
	Score         *float64 `json:"score,omitempty"`
	MaxScore      float64  `json:"max_score"`
}

// Snapshot is a full review-platform export.
type Snapshot struct {
	GeneratedAt  time.Time     `json:"generated_at"`
	Applications []Application `json:"applications"`
	Assessors    []Assessor    `json:"assessors"`
	Assignments  []Assignment  `json:"assignments"`
}

// Validate rejects snapshots the derivations cannot work with: missing ids
// and assignments referencing entities the snapshot does not contain.
func (s *Snapshot) Validate() error {
	apps := make(map[string]bool, len(s.Applications))
	for i, a := range s.Applications {
		if a.ID == "" {
			return fmt.Errorf("application %d has no id", i)
		}
		if apps[a.ID] {
			return fmt.Errorf("duplicate application id %q", a.ID)
		}
		apps[a.ID] = true
	}

	assessors := make(map[string]bool, len(s.Assessors))
	for i, a := range s.Assessors {
		if a.ID == "" {
			return fmt.Errorf("assessor %d has no id", i)
		}
		if assessors[a.ID] {
			return fmt.Errorf("duplicate assessor id %q", a.ID)
		}
		assessors[a.ID] = true
	}

	for i, a := range s.Assignments {
		if !assessors[a.AssessorID] {
			return fmt.Errorf("assignment %d references unknown assessor %q", i, a.AssessorID)
		}
		if !apps[a.ApplicationID] {
			return fmt.Errorf("assignment %d references unknown application %q", i, a.ApplicationID)
		}
		switch a.Status {
		case StatusPending, StatusInProgress, StatusCompleted:
		default:
			return fmt.Errorf("assignment %d has unknown status %q", i, a.Status)
		}
	}
	return nil
}
