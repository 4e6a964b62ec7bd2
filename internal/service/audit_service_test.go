package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/jobs"
	"github.com/classora/classora-api/pkg/query"
)

type mockAuditLogRepo struct {
	mu      sync.Mutex
	created []models.AuditLog
	done    chan struct{}
}

func (m *mockAuditLogRepo) List(ctx context.Context, params query.Params) ([]models.AuditLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog{}, m.created...), len(m.created), nil
}

func (m *mockAuditLogRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	m.created = append(m.created, *log)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

type mockAuditApiRepo struct {
	apis []models.Api
}

func (m *mockAuditApiRepo) ListAll(ctx context.Context) ([]models.Api, error) {
	return m.apis, nil
}

func newAuditService(t *testing.T) (*AuditService, *mockAuditLogRepo) {
	t.Helper()
	repo := &mockAuditLogRepo{done: make(chan struct{}, 8)}
	apis := &mockAuditApiRepo{apis: []models.Api{
		{ID: "api-1", Path: "/api/v1/students/{id}", Method: models.ApiMethodGet, Tags: pq.StringArray{"Students"}, Summary: "Get a student by id"},
		{ID: "api-2", Path: "/api/v1/students", Method: models.ApiMethodPost, Tags: pq.StringArray{"Students"}, Summary: "Create a student"},
	}}

	svc := NewAuditService(repo, apis, nil, zap.NewNop(), jobs.QueueConfig{Workers: 1, BufferSize: 8}, true)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc, repo
}

func waitForCreate(t *testing.T, repo *mockAuditLogRepo) models.AuditLog {
	t.Helper()
	select {
	case <-repo.done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit row was not written")
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.created[len(repo.created)-1]
}

func TestRecordResolvesParameterizedRoute(t *testing.T) {
	svc, repo := newAuditService(t)

	svc.Record(models.AuditLog{
		Username: "nimal.perera",
		Method:   "GET",
		Path:     "/api/v1/students/:id",
		Status:   200,
	})

	row := waitForCreate(t, repo)
	assert.Equal(t, "Students", row.Module)
	assert.Equal(t, "Get a student by id", row.Summary)
	assert.Equal(t, "/api/v1/students/:id", row.Path)
}

func TestRecordStaticRoute(t *testing.T) {
	svc, repo := newAuditService(t)

	svc.Record(models.AuditLog{
		Username: "nimal.perera",
		Method:   "POST",
		Path:     "/api/v1/students",
		Status:   201,
	})

	row := waitForCreate(t, repo)
	assert.Equal(t, "Students", row.Module)
	assert.Equal(t, "Create a student", row.Summary)
}

func TestRecordUncataloguedRoute(t *testing.T) {
	svc, repo := newAuditService(t)

	svc.Record(models.AuditLog{
		Username: "nimal.perera",
		Method:   "GET",
		Path:     "/api/v1/unknown",
		Status:   404,
	})

	row := waitForCreate(t, repo)
	assert.Empty(t, row.Module)
	assert.Empty(t, row.Summary)
	require.Equal(t, "/api/v1/unknown", row.Path)
}
