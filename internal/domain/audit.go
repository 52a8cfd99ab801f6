package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of mutation an audit entry documents.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete:
		return true
	}
	return false
}

// EntityType identifies the kind of entity an audit entry refers to.
type EntityType string

const (
	EntityTypeApplication EntityType = "APPLICATION"
	EntityTypeAttachment  EntityType = "ATTACHMENT"
	EntityTypeAnalysis    EntityType = "ANALYSIS"
)

func (t EntityType) String() string { return string(t) }

func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeApplication, EntityTypeAttachment, EntityTypeAnalysis:
		return true
	}
	return false
}

// ApplicationSnapshot is the audited state of an application.
type ApplicationSnapshot struct {
	Company  string            `json:"company"`
	Position string            `json:"position"`
	Status   ApplicationStatus `json:"status"`
	URL      *string           `json:"url,omitempty"`
	Notes    *string           `json:"notes,omitempty"`
}

// AttachmentSnapshot is the audited state of an attachment's metadata.
type AttachmentSnapshot struct {
	FileName    string `json:"file_name"`
	ByteSize    int64  `json:"byte_size"`
	ContentType string `json:"content_type"`
	StorageKey  string `json:"storage_key"`
}

// AnalysisSnapshot is the audited identity of a stored analysis.
type AnalysisSnapshot struct {
	InputFingerprint string `json:"input_fingerprint"`
	Score            int    `json:"score"`
}

// Snapshot is a tagged union over the known entity-snapshot shapes: exactly
// one variant must be set, and it must match the entry's EntityType. Typed
// variants (instead of a free-form document) catch schema drift between what
// writers record and what readers expect.
type Snapshot struct {
	Application *ApplicationSnapshot `json:"application,omitempty"`
	Attachment  *AttachmentSnapshot  `json:"attachment,omitempty"`
	Analysis    *AnalysisSnapshot    `json:"analysis,omitempty"`
}

// Kind returns the entity type the snapshot describes. ok is false when the
// union holds zero or more than one variant.
func (s *Snapshot) Kind() (EntityType, bool) {
	var (
		kind EntityType
		n    int
	)
	if s.Application != nil {
		kind, n = EntityTypeApplication, n+1
	}
	if s.Attachment != nil {
		kind, n = EntityTypeAttachment, n+1
	}
	if s.Analysis != nil {
		kind, n = EntityTypeAnalysis, n+1
	}
	if n != 1 {
		return "", false
	}
	return kind, true
}

// AuditEntry is one immutable record of a successful mutation. It is written
// in the same transaction as the mutation it documents and is never updated
// or deleted by the application.
type AuditEntry struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	EntityType EntityType
	EntityID   uuid.UUID
	Action     AuditAction
	Before     *Snapshot
	After      *Snapshot
	CreatedAt  time.Time
}

// Validate enforces the action/snapshot invariants:
//
//	CREATE: Before == nil, After != nil
//	UPDATE: both present
//	DELETE: Before != nil, After == nil
//
// and that every present snapshot's union variant matches EntityType.
func (e *AuditEntry) Validate() error {
	if e.ActorID == uuid.Nil {
		return NewValidationError("actor_id", "is required")
	}
	if e.EntityID == uuid.Nil {
		return NewValidationError("entity_id", "is required")
	}
	if !e.EntityType.IsValid() {
		return NewValidationError("entity_type", fmt.Sprintf("unknown type %q", e.EntityType))
	}

	switch e.Action {
	case AuditActionCreate:
		if e.Before != nil {
			return NewValidationError("before", "must be absent for CREATE")
		}
		if e.After == nil {
			return NewValidationError("after", "is required for CREATE")
		}
	case AuditActionUpdate:
		if e.Before == nil || e.After == nil {
			return NewValidationError("action", "UPDATE requires both before and after")
		}
	case AuditActionDelete:
		if e.Before == nil {
			return NewValidationError("before", "is required for DELETE")
		}
		if e.After != nil {
			return NewValidationError("after", "must be absent for DELETE")
		}
	default:
		return NewValidationError("action", fmt.Sprintf("unknown action %q", e.Action))
	}

	for name, snap := range map[string]*Snapshot{"before": e.Before, "after": e.After} {
		if snap == nil {
			continue
		}
		kind, ok := snap.Kind()
		if !ok {
			return NewValidationError(name, "snapshot must hold exactly one variant")
		}
		if kind != e.EntityType {
			return NewValidationError(name, fmt.Sprintf("snapshot kind %s does not match entity type %s", kind, e.EntityType))
		}
	}

	return nil
}

// AuditFilter narrows an audit log query. Zero values mean "no constraint".
type AuditFilter struct {
	ActorID    uuid.UUID
	EntityType EntityType
	EntityID   uuid.UUID
	Action     AuditAction
	From       time.Time
	To         time.Time
}
