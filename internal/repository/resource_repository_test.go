package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

func TestResourceRepositoryLockInstructor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE id = $1 FOR UPDATE")).
		WithArgs("ins-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "resource_type", "name", "hourly_rate", "active", "user_id"}).
			AddRow("ins-1", "instructor", "Ana", 80.0, true, "user-9"))

	res, err := repo.Lock(context.Background(), nil, models.ResourceRef{Type: models.ResourceInstructor, ID: "ins-1"})
	require.NoError(t, err)
	require.Equal(t, models.ResourceInstructor, res.Type)
	require.Equal(t, 80.0, res.HourlyRate)
	require.NotNil(t, res.UserID)
	require.Equal(t, "user-9", *res.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryFindCourt(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courts WHERE id = $1")).
		WithArgs("court-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "resource_type", "name", "hourly_rate", "active", "user_id"}).
			AddRow("court-1", "court", "Court 1", 40.0, true, nil))

	res, err := repo.Find(context.Background(), nil, models.ResourceRef{Type: models.ResourceCourt, ID: "court-1"})
	require.NoError(t, err)
	require.True(t, res.Active)
	require.Nil(t, res.UserID)

	_, err = repo.Find(context.Background(), nil, models.ResourceRef{Type: "pool", ID: "p"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
