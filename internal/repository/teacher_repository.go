package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherRepository reads teachers, their subject assignments and their
// unavailable days.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// Roster returns every teacher with their subject-per-class assignments
// stitched in.
func (r *TeacherRepository) Roster(ctx context.Context) ([]models.Teacher, error) {
	teacherQuery := `
		SELECT id, full_name
		FROM teachers
		ORDER BY full_name ASC`

	teachers := make([]models.Teacher, 0)
	if err := r.db.SelectContext(ctx, &teachers, teacherQuery); err != nil {
		return nil, err
	}

	assignmentQuery := `
		SELECT teacher_id, subject, class_key
		FROM teacher_assignments
		ORDER BY teacher_id ASC, subject ASC`

	assignments := make([]models.TeacherAssignment, 0)
	if err := r.db.SelectContext(ctx, &assignments, assignmentQuery); err != nil {
		return nil, err
	}

	byTeacher := make(map[string][]models.TeacherAssignment, len(teachers))
	for _, a := range assignments {
		byTeacher[a.TeacherID] = append(byTeacher[a.TeacherID], a)
	}
	for i := range teachers {
		teachers[i].Assignments = byTeacher[teachers[i].ID]
	}
	return teachers, nil
}

// Unavailability returns the days each teacher cannot teach, keyed by the
// teacher's full name to match schedule cells.
func (r *TeacherRepository) Unavailability(ctx context.Context) (models.TeacherUnavailability, error) {
	query := `
		SELECT t.full_name, u.day
		FROM teacher_unavailability u
		JOIN teachers t ON t.id = u.teacher_id
		ORDER BY t.full_name ASC, u.day ASC`

	rows := make([]struct {
		FullName string `db:"full_name"`
		Day      string `db:"day"`
	}, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	out := make(models.TeacherUnavailability)
	for _, row := range rows {
		out[row.FullName] = append(out[row.FullName], row.Day)
	}
	return out, nil
}
