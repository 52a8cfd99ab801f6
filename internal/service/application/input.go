package application

import (
	"strings"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

// CreateInput holds the fields for creating an application.
type CreateInput struct {
	Company  string
	Position string
	Status   domain.ApplicationStatus
	URL      *string
	Notes    *string
}

// Validate checks required fields and normalizes whitespace in place.
// An empty Status defaults to WISHLIST.
func (in *CreateInput) Validate() error {
	var fieldErrors []domain.FieldError

	in.Company = strings.TrimSpace(in.Company)
	if in.Company == "" {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "company", Message: "is required"})
	}

	in.Position = strings.TrimSpace(in.Position)
	if in.Position == "" {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "position", Message: "is required"})
	}

	if in.Status == "" {
		in.Status = domain.ApplicationStatusWishlist
	}
	if !in.Status.IsValid() {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "status", Message: "unknown status"})
	}

	if len(fieldErrors) > 0 {
		return domain.NewValidationErrors(fieldErrors)
	}
	return nil
}

// UpdateInput holds a partial update; nil fields are left unchanged.
type UpdateInput struct {
	ApplicationID uuid.UUID
	Params        domain.ApplicationUpdateParams
}

// Validate rejects empty updates and blank or invalid replacement values.
func (in *UpdateInput) Validate() error {
	var fieldErrors []domain.FieldError

	if in.ApplicationID == uuid.Nil {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "application_id", Message: "is required"})
	}
	if in.Params.IsEmpty() {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "params", Message: "no fields to update"})
	}

	if in.Params.Company != nil {
		trimmed := strings.TrimSpace(*in.Params.Company)
		if trimmed == "" {
			fieldErrors = append(fieldErrors, domain.FieldError{Field: "company", Message: "cannot be blank"})
		}
		in.Params.Company = &trimmed
	}
	if in.Params.Position != nil {
		trimmed := strings.TrimSpace(*in.Params.Position)
		if trimmed == "" {
			fieldErrors = append(fieldErrors, domain.FieldError{Field: "position", Message: "cannot be blank"})
		}
		in.Params.Position = &trimmed
	}
	if in.Params.Status != nil && !in.Params.Status.IsValid() {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "status", Message: "unknown status"})
	}

	if len(fieldErrors) > 0 {
		return domain.NewValidationErrors(fieldErrors)
	}
	return nil
}
