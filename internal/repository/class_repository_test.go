package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-fee-api/internal/models"
)

var classRowColumns = []string{"id", "title", "class_type", "location_or_link", "max_students", "fee", "status", "created_at", "updated_at"}

func TestClassRepositoryFindByIDWithoutFee(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows(classRowColumns).
		AddRow("class-1", "Grammar A", "physical", "Room 3", 20, nil, "active", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE id = $1")).
		WithArgs("class-1").
		WillReturnRows(rows)

	class, err := repo.FindByID(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Nil(t, class.Fee)
	assert.True(t, class.NominalFee().IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListActiveByType(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows(classRowColumns).
		AddRow("class-1", "Conversation", "online", "https://meet/1", 15, "750000", "active", time.Now(), time.Now()).
		AddRow("class-2", "Writing", "online", "https://meet/2", 15, "500000", "active", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE class_type = $1 AND status = $2 ORDER BY title ASC")).
		WithArgs(models.ClassTypeOnline, models.ClassStatusActive).
		WillReturnRows(rows)

	classes, err := repo.ListActiveByType(context.Background(), models.ClassTypeOnline)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	require.NotNil(t, classes[0].Fee)
	assert.Equal(t, "750000", classes[0].Fee.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
