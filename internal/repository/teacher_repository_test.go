package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherRepositoryRoster(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeacherRepository(db)

	teacherRows := sqlmock.NewRows([]string{"id", "full_name"}).
		AddRow("t1", "Ahmed").
		AddRow("t2", "Sara")
	mock.ExpectQuery("SELECT id, full_name").WillReturnRows(teacherRows)

	assignmentRows := sqlmock.NewRows([]string{"teacher_id", "subject", "class_key"}).
		AddRow("t1", "Math", "Grade_10-A").
		AddRow("t1", "Math", "Grade_10-B").
		AddRow("t2", "Science", "Grade_10-A")
	mock.ExpectQuery("SELECT teacher_id, subject, class_key").WillReturnRows(assignmentRows)

	roster, err := repo.Roster(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 2)

	assert.Equal(t, "Ahmed", roster[0].FullName)
	assert.Len(t, roster[0].Assignments, 2)
	assert.True(t, roster[0].Teaches("Math", "Grade_10-B"))
	assert.False(t, roster[0].Teaches("Science", "Grade_10-A"))
	assert.True(t, roster[1].Teaches("Science", "Grade_10-A"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryRosterWithoutAssignments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("SELECT id, full_name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name"}).AddRow("t1", "Ahmed"))
	mock.ExpectQuery("SELECT teacher_id, subject, class_key").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "subject", "class_key"}))

	roster, err := repo.Roster(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Empty(t, roster[0].Assignments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryUnavailability(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"full_name", "day"}).
		AddRow("Ahmed", "Sunday").
		AddRow("Ahmed", "Thursday").
		AddRow("Sara", "Monday")
	mock.ExpectQuery("SELECT t.full_name, u.day").WillReturnRows(rows)

	unavailability, err := repo.Unavailability(context.Background())
	require.NoError(t, err)
	assert.True(t, unavailability.IsUnavailable("Ahmed", "Sunday"))
	assert.True(t, unavailability.IsUnavailable("Ahmed", "Thursday"))
	assert.False(t, unavailability.IsUnavailable("Ahmed", "Monday"))
	assert.True(t, unavailability.IsUnavailable("Sara", "Monday"))
	assert.False(t, unavailability.IsUnavailable("Huda", "Monday"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryRosterQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("SELECT id, full_name").WillReturnError(errors.New("connection refused"))

	_, err := repo.Roster(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
