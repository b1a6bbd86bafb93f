package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ClassRepository reads the class roster from the school database. The
// engine never writes classes; they are managed by the admin system.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns all classes ordered by stage then section.
func (r *ClassRepository) List(ctx context.Context) ([]models.ClassData, error) {
	query := `
		SELECT id, stage, section, subjects
		FROM classes
		ORDER BY stage ASC, section ASC`

	classes := make([]models.ClassData, 0)
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, err
	}
	return classes, nil
}
