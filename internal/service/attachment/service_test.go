package attachment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/pkg/ctxutil"
)

type appRepoMock struct {
	GetByIDFunc func(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)
}

func (m *appRepoMock) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	return m.GetByIDFunc(ctx, userID, id)
}

type attachmentRepoMock struct {
	CreateFunc            func(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error)
	GetByIDFunc           func(ctx context.Context, applicationID, id uuid.UUID) (*domain.Attachment, error)
	ListByApplicationFunc func(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error)
	DeleteFunc            func(ctx context.Context, applicationID, id uuid.UUID) error
}

func (m *attachmentRepoMock) Create(ctx context.Context, att *domain.Attachment) (*domain.Attachment, error) {
	return m.CreateFunc(ctx, att)
}

func (m *attachmentRepoMock) GetByID(ctx context.Context, applicationID, id uuid.UUID) (*domain.Attachment, error) {
	return m.GetByIDFunc(ctx, applicationID, id)
}

func (m *attachmentRepoMock) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error) {
	return m.ListByApplicationFunc(ctx, applicationID)
}

func (m *attachmentRepoMock) Delete(ctx context.Context, applicationID, id uuid.UUID) error {
	return m.DeleteFunc(ctx, applicationID, id)
}

type auditRecorderMock struct {
	RecordFunc func(ctx context.Context, entry domain.AuditEntry) error

	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *auditRecorderMock) Record(ctx context.Context, entry domain.AuditEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, entry)
	}
	return nil
}

func (m *auditRecorderMock) RecordCalls() []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.entries...)
}

type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type blobStoreMock struct {
	PutFunc    func(ctx context.Context, key string, data []byte, contentType string) error
	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	DeleteFunc func(ctx context.Context, key string) error

	mu      sync.Mutex
	puts    []string
	deletes []string
}

func (m *blobStoreMock) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	m.puts = append(m.puts, key)
	m.mu.Unlock()
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, data, contentType)
	}
	return nil
}

func (m *blobStoreMock) Get(ctx context.Context, key string) ([]byte, error) {
	return m.GetFunc(ctx, key)
}

func (m *blobStoreMock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, key)
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

func (m *blobStoreMock) PutCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.puts...)
}

func (m *blobStoreMock) DeleteCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletes...)
}

func TestUpload(t *testing.T) {
	userID := uuid.New()
	appID := uuid.New()

	apps := &appRepoMock{
		GetByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Application, error) {
			return &domain.Application{ID: appID, UserID: userID}, nil
		},
	}
	newService := func(atts *attachmentRepoMock, audit *auditRecorderMock, blobs *blobStoreMock) *Service {
		return NewService(slog.New(slog.DiscardHandler), apps, atts, audit, txManagerMock{}, blobs)
	}
	ctx := ctxutil.WithUserID(context.Background(), userID)

	t.Run("stores blob then row then audit entry", func(t *testing.T) {
		atts := &attachmentRepoMock{
			CreateFunc: func(_ context.Context, att *domain.Attachment) (*domain.Attachment, error) {
				out := *att
				out.ID = uuid.New()
				return &out, nil
			},
		}
		audit := &auditRecorderMock{}
		blobs := &blobStoreMock{}
		svc := newService(atts, audit, blobs)

		created, err := svc.Upload(ctx, UploadInput{
			ApplicationID: appID,
			FileName:      "resume.pdf",
			ContentType:   "application/pdf",
			Data:          []byte("%PDF-1.7"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(8), created.ByteSize)
		require.Len(t, blobs.PutCalls(), 1)
		assert.Equal(t, blobs.PutCalls()[0], created.StorageKey)

		entries := audit.RecordCalls()
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditActionCreate, entries[0].Action)
		assert.Equal(t, domain.EntityTypeAttachment, entries[0].EntityType)
		require.NotNil(t, entries[0].After)
		assert.Equal(t, created.StorageKey, entries[0].After.Attachment.StorageKey)
	})

	t.Run("storage failure is fatal, nothing is inserted", func(t *testing.T) {
		atts := &attachmentRepoMock{
			CreateFunc: func(_ context.Context, att *domain.Attachment) (*domain.Attachment, error) {
				t.Fatal("Create must not be called when the blob upload fails")
				return nil, nil
			},
		}
		blobs := &blobStoreMock{
			PutFunc: func(context.Context, string, []byte, string) error {
				return domain.ErrStorageFailure
			},
		}
		svc := newService(atts, &auditRecorderMock{}, blobs)

		_, err := svc.Upload(ctx, UploadInput{
			ApplicationID: appID,
			FileName:      "resume.pdf",
			Data:          []byte("x"),
		})
		assert.ErrorIs(t, err, domain.ErrStorageFailure)
	})

	t.Run("failed transaction removes the uploaded blob", func(t *testing.T) {
		atts := &attachmentRepoMock{
			CreateFunc: func(context.Context, *domain.Attachment) (*domain.Attachment, error) {
				return nil, errors.New("insert attachment: boom")
			},
		}
		blobs := &blobStoreMock{}
		svc := newService(atts, &auditRecorderMock{}, blobs)

		_, err := svc.Upload(ctx, UploadInput{
			ApplicationID: appID,
			FileName:      "resume.pdf",
			Data:          []byte("x"),
		})
		require.Error(t, err)
		require.Len(t, blobs.PutCalls(), 1)
		assert.Equal(t, blobs.PutCalls(), blobs.DeleteCalls())
	})

	t.Run("rejects empty data", func(t *testing.T) {
		svc := newService(&attachmentRepoMock{}, &auditRecorderMock{}, &blobStoreMock{})

		_, err := svc.Upload(ctx, UploadInput{ApplicationID: appID, FileName: "resume.pdf"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown application is not found", func(t *testing.T) {
		missingApps := &appRepoMock{
			GetByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Application, error) {
				return nil, domain.ErrNotFound
			},
		}
		blobs := &blobStoreMock{}
		svc := NewService(slog.New(slog.DiscardHandler), missingApps, &attachmentRepoMock{}, &auditRecorderMock{}, txManagerMock{}, blobs)

		_, err := svc.Upload(ctx, UploadInput{ApplicationID: appID, FileName: "resume.pdf", Data: []byte("x")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, blobs.PutCalls())
	})
}

func TestDelete(t *testing.T) {
	userID := uuid.New()
	appID := uuid.New()
	attID := uuid.New()
	ctx := ctxutil.WithUserID(context.Background(), userID)

	apps := &appRepoMock{
		GetByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Application, error) {
			return &domain.Application{ID: appID, UserID: userID}, nil
		},
	}
	att := &domain.Attachment{
		ID: attID, ApplicationID: appID,
		FileName: "resume.pdf", StorageKey: "att/resume",
	}

	t.Run("deletes row, audits, removes blob", func(t *testing.T) {
		atts := &attachmentRepoMock{
			GetByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Attachment, error) {
				cp := *att
				return &cp, nil
			},
			DeleteFunc: func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
		}
		audit := &auditRecorderMock{}
		blobs := &blobStoreMock{}
		svc := NewService(slog.New(slog.DiscardHandler), apps, atts, audit, txManagerMock{}, blobs)

		require.NoError(t, svc.Delete(ctx, appID, attID))

		entries := audit.RecordCalls()
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditActionDelete, entries[0].Action)
		require.NotNil(t, entries[0].Before)
		assert.Nil(t, entries[0].After)
		assert.Equal(t, []string{"att/resume"}, blobs.DeleteCalls())
	})

	t.Run("blob failure does not fail the delete", func(t *testing.T) {
		atts := &attachmentRepoMock{
			GetByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Attachment, error) {
				cp := *att
				return &cp, nil
			},
			DeleteFunc: func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
		}
		blobs := &blobStoreMock{
			DeleteFunc: func(context.Context, string) error { return domain.ErrStorageFailure },
		}
		svc := NewService(slog.New(slog.DiscardHandler), apps, atts, &auditRecorderMock{}, txManagerMock{}, blobs)

		assert.NoError(t, svc.Delete(ctx, appID, attID))
	})

	t.Run("row failure keeps the blob", func(t *testing.T) {
		atts := &attachmentRepoMock{
			GetByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Attachment, error) {
				cp := *att
				return &cp, nil
			},
			DeleteFunc: func(context.Context, uuid.UUID, uuid.UUID) error {
				return errors.New("boom")
			},
		}
		blobs := &blobStoreMock{}
		svc := NewService(slog.New(slog.DiscardHandler), apps, atts, &auditRecorderMock{}, txManagerMock{}, blobs)

		require.Error(t, svc.Delete(ctx, appID, attID))
		assert.Empty(t, blobs.DeleteCalls())
	})
}
