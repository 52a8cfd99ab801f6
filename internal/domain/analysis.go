package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAnalysisScore bounds the fit score returned by the provider.
	MaxAnalysisScore = 100
)

// AnalysisResult is the validated, structured output of a fit analysis.
type AnalysisResult struct {
	Score       int      `json:"score"`
	Findings    []string `json:"findings"`
	Suggestions []string `json:"suggestions"`
}

// Validate enforces the strict result schema: a bounded score and non-empty
// findings/suggestions lists with non-blank items. A provider response that
// fails this check is rejected wholesale, never coerced or partially kept.
func (r AnalysisResult) Validate() error {
	var errs []FieldError

	if r.Score < 0 || r.Score > MaxAnalysisScore {
		errs = append(errs, FieldError{Field: "score", Message: "must be between 0 and 100"})
	}
	if len(r.Findings) == 0 {
		errs = append(errs, FieldError{Field: "findings", Message: "must not be empty"})
	}
	for _, f := range r.Findings {
		if f == "" {
			errs = append(errs, FieldError{Field: "findings", Message: "items must not be blank"})
			break
		}
	}
	if len(r.Suggestions) == 0 {
		errs = append(errs, FieldError{Field: "suggestions", Message: "must not be empty"})
	}
	for _, s := range r.Suggestions {
		if s == "" {
			errs = append(errs, FieldError{Field: "suggestions", Message: "items must not be blank"})
			break
		}
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// Analysis is a cached fit analysis for an application, keyed by the
// fingerprint of the normalized input text. At most one row exists per
// (SubjectID, InputFingerprint); re-submitting identical input returns the
// stored row without re-invoking the provider.
type Analysis struct {
	ID               uuid.UUID
	SubjectID        uuid.UUID
	InputFingerprint string
	Result           AnalysisResult
	RawResponse      *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot captures the analysis identity for the audit log.
func (a *Analysis) Snapshot() *Snapshot {
	return &Snapshot{
		Analysis: &AnalysisSnapshot{
			InputFingerprint: a.InputFingerprint,
			Score:            a.Result.Score,
		},
	}
}
