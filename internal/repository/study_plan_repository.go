package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// StudyPlanRepository reads the weekly subject counts per grade.
type StudyPlanRepository struct {
	db *sqlx.DB
}

// NewStudyPlanRepository creates a study plan repository.
func NewStudyPlanRepository(db *sqlx.DB) *StudyPlanRepository {
	return &StudyPlanRepository{db: db}
}

// ByLevel returns the study plan for a school level, one entry per grade.
func (r *StudyPlanRepository) ByLevel(ctx context.Context, schoolLevel string) (models.StudyPlan, error) {
	query := `
		SELECT stage, subject, weekly_count
		FROM study_plans
		WHERE school_level = $1
		ORDER BY stage ASC, subject ASC`

	rows := make([]struct {
		Stage       string `db:"stage"`
		Subject     string `db:"subject"`
		WeeklyCount int    `db:"weekly_count"`
	}, 0)
	if err := r.db.SelectContext(ctx, &rows, query, schoolLevel); err != nil {
		return nil, err
	}

	plan := make(models.StudyPlan, 4)
	for _, row := range rows {
		grade := plan[row.Stage]
		grade.SetSubject(row.Subject, row.WeeklyCount)
		plan[row.Stage] = grade
	}
	return plan, nil
}
