package repository

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

func TestAuditLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditLogRepository(db)
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), "admin", "Create hall", "Halls", "POST", "/api/v1/halls", 201, 12.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.AuditLog{
		Username:     "admin",
		Summary:      "Create hall",
		Module:       "Halls",
		Method:       "POST",
		Path:         "/api/v1/halls",
		Status:       201,
		ResponseTime: 12.5,
	}
	require.NoError(t, repo.Create(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
}

func TestAuditLogRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditLogRepository(db)
	rows := sqlmock.NewRows([]string{"id", "username", "summary", "module", "method", "path", "status", "response_time", "created_at"}).
		AddRow("log-1", "admin", "Create hall", "Halls", "POST", "/api/v1/halls", 201, 12.5, time.Now())
	mock.ExpectQuery("SELECT l.id, l.username").
		WithArgs("%admin%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs`).
		WithArgs("%admin%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	params := query.Parse(url.Values{"search": {"username:admin"}})
	logs, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "Halls", logs[0].Module)
}
