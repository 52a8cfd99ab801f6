package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus represents the pipeline stage of a job application.
type ApplicationStatus string

const (
	ApplicationStatusWishlist  ApplicationStatus = "WISHLIST"
	ApplicationStatusApplied   ApplicationStatus = "APPLIED"
	ApplicationStatusInterview ApplicationStatus = "INTERVIEW"
	ApplicationStatusOffer     ApplicationStatus = "OFFER"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
)

func (s ApplicationStatus) String() string { return string(s) }

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusWishlist, ApplicationStatusApplied,
		ApplicationStatusInterview, ApplicationStatusOffer, ApplicationStatusRejected:
		return true
	}
	return false
}

// Application is a user's tracked job application. It is the primary entity
// of the write path: every mutation of it is recorded in the audit log, and
// deleting it cascades to attachments and analyses.
type Application struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Company   string
	Position  string
	Status    ApplicationStatus
	URL       *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplicationUpdateParams holds the fields of an update; nil means unchanged.
type ApplicationUpdateParams struct {
	Company  *string
	Position *string
	Status   *ApplicationStatus
	URL      *string
	Notes    *string
}

// IsEmpty reports whether the update changes nothing.
func (p ApplicationUpdateParams) IsEmpty() bool {
	return p.Company == nil && p.Position == nil && p.Status == nil &&
		p.URL == nil && p.Notes == nil
}

// Snapshot captures the application's current user-visible state for the
// audit log.
func (a *Application) Snapshot() *Snapshot {
	return &Snapshot{
		Application: &ApplicationSnapshot{
			Company:  a.Company,
			Position: a.Position,
			Status:   a.Status,
			URL:      a.URL,
			Notes:    a.Notes,
		},
	}
}
