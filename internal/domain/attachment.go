package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file linked to an application (resume, cover letter, job
// posting export). The relational row and the blob behind StorageKey live in
// two different stores with no cross-store transaction; the services keep
// them consistent procedurally.
type Attachment struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	FileName      string
	ByteSize      int64
	ContentType   string
	StorageKey    string
	UploadedAt    time.Time
}

// Snapshot captures the attachment metadata for the audit log. The blob
// content is never snapshotted, only its key.
func (a *Attachment) Snapshot() *Snapshot {
	return &Snapshot{
		Attachment: &AttachmentSnapshot{
			FileName:    a.FileName,
			ByteSize:    a.ByteSize,
			ContentType: a.ContentType,
			StorageKey:  a.StorageKey,
		},
	}
}
