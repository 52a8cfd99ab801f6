package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobState represents the execution state of a queued analysis job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateActive    JobState = "active"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

func (s JobState) String() string { return string(s) }

func (s JobState) IsValid() bool {
	switch s {
	case JobStateQueued, JobStateActive, JobStateCompleted, JobStateFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the state admits no further transitions.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// AnalysisPayload is the work description carried by a queued job. In sync
// mode the same payload is executed inline and no job row ever exists.
type AnalysisPayload struct {
	ActorID   uuid.UUID `json:"actor_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Input     string    `json:"input"`
}

// AnalysisJob is the transient execution descriptor for queued-mode analysis.
// queued → active → {completed | failed}; failed is terminal and the
// dispatcher never auto-resubmits past the retry budget.
type AnalysisJob struct {
	ID            uuid.UUID
	Payload       AnalysisPayload
	State         JobState
	Progress      int
	Attempts      int
	RunAt         time.Time
	Result        *AnalysisResult
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JobStats holds aggregate job counts by state.
type JobStats struct {
	Queued    int
	Active    int
	Completed int
	Failed    int
	Total     int
}
