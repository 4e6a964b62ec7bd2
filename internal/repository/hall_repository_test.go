package repository

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestHallRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHallRepository(db)
	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "created_at", "updated_at"}).
		AddRow("hall-1", "Main Hall", 120, time.Now(), time.Now())
	mock.ExpectQuery("SELECT h.id, h.name").
		WithArgs("%main%").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM halls`).
		WithArgs("%main%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	params := query.Parse(url.Values{"search": {"name:main"}})
	halls, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, halls, 1)
	assert.Equal(t, "Main Hall", halls[0].Name)
}

func TestHallRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHallRepository(db)
	mock.ExpectQuery("SELECT 1 FROM halls").
		WithArgs("Main Hall").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "Main Hall", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM halls").
		WithArgs("Other Hall").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsByName(context.Background(), "Other Hall", "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHallRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHallRepository(db)
	mock.ExpectExec("INSERT INTO halls").
		WithArgs(sqlmock.AnyArg(), "Main Hall", 120, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	hall := &models.Hall{Name: "Main Hall", Capacity: 120}
	require.NoError(t, repo.Create(context.Background(), hall))
	assert.NotEmpty(t, hall.ID)
	assert.False(t, hall.CreatedAt.IsZero())
}
