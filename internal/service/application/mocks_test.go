package application

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

// Hand-rolled mocks in the moq style: one func field per method, recorded
// calls behind a mutex, XxxCalls accessors for assertions.

type appRepoMock struct {
	CreateFunc  func(ctx context.Context, app *domain.Application) (*domain.Application, error)
	GetByIDFunc func(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)
	ListFunc    func(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error)
	UpdateFunc  func(ctx context.Context, userID, id uuid.UUID, params domain.ApplicationUpdateParams) (*domain.Application, error)
	DeleteFunc  func(ctx context.Context, userID, id uuid.UUID) error

	mu          sync.Mutex
	createCalls []*domain.Application
	deleteCalls []uuid.UUID
}

func (m *appRepoMock) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, app)
	m.mu.Unlock()
	return m.CreateFunc(ctx, app)
}

func (m *appRepoMock) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	return m.GetByIDFunc(ctx, userID, id)
}

func (m *appRepoMock) List(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error) {
	return m.ListFunc(ctx, userID)
}

func (m *appRepoMock) Update(ctx context.Context, userID, id uuid.UUID, params domain.ApplicationUpdateParams) (*domain.Application, error) {
	return m.UpdateFunc(ctx, userID, id, params)
}

func (m *appRepoMock) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, id)
	m.mu.Unlock()
	return m.DeleteFunc(ctx, userID, id)
}

func (m *appRepoMock) CreateCalls() []*domain.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Application(nil), m.createCalls...)
}

func (m *appRepoMock) DeleteCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.deleteCalls...)
}

type attachmentRepoMock struct {
	ListByApplicationFunc   func(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error)
	DeleteByApplicationFunc func(ctx context.Context, applicationID uuid.UUID) (int64, error)

	mu                  sync.Mutex
	deleteByApplication []uuid.UUID
}

func (m *attachmentRepoMock) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*domain.Attachment, error) {
	return m.ListByApplicationFunc(ctx, applicationID)
}

func (m *attachmentRepoMock) DeleteByApplication(ctx context.Context, applicationID uuid.UUID) (int64, error) {
	m.mu.Lock()
	m.deleteByApplication = append(m.deleteByApplication, applicationID)
	m.mu.Unlock()
	return m.DeleteByApplicationFunc(ctx, applicationID)
}

func (m *attachmentRepoMock) DeleteByApplicationCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.deleteByApplication...)
}

type analysisRepoMock struct {
	DeleteBySubjectFunc func(ctx context.Context, subjectID uuid.UUID) (int64, error)

	mu              sync.Mutex
	deleteBySubject []uuid.UUID
}

func (m *analysisRepoMock) DeleteBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	m.mu.Lock()
	m.deleteBySubject = append(m.deleteBySubject, subjectID)
	m.mu.Unlock()
	return m.DeleteBySubjectFunc(ctx, subjectID)
}

func (m *analysisRepoMock) DeleteBySubjectCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.deleteBySubject...)
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

// txManagerMock runs the callback directly, so "inside the transaction"
// is observable only through call ordering.
type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

type blobStoreMock struct {
	DeleteFunc func(ctx context.Context, key string) error

	mu          sync.Mutex
	deletedKeys []string
}

func (m *blobStoreMock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.deletedKeys = append(m.deletedKeys, key)
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

func (m *blobStoreMock) DeleteCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletedKeys...)
}
