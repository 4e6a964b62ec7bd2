package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classora/classora-api/internal/models"
)

func TestRoleRepositoryReplaceApisSwapsFullSet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoleRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_apis").
		WithArgs("role-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO role_apis").
		WithArgs(sqlmock.AnyArg(), "role-1", "GET", "/api/v1/students", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO role_apis").
		WithArgs(sqlmock.AnyArg(), "role-1", "POST", "/api/v1/students", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	apis := []models.ApiInfo{
		{Method: "GET", Path: "/api/v1/students"},
		{Method: "POST", Path: "/api/v1/students"},
	}
	require.NoError(t, repo.ReplaceApis(context.Background(), "role-1", apis))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryReplaceApisEmptySetRevokesAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoleRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_apis").
		WithArgs("role-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceApis(context.Background(), "role-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryExistsByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoleRepository(db)
	mock.ExpectQuery("SELECT id FROM roles").
		WithArgs("teacher", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("role-2"))

	exists, err := repo.ExistsByKey(context.Background(), "teacher", "")
	require.NoError(t, err)
	assert.True(t, exists)
}
