package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

const classColumns = `id, name, sport, duration_minutes, capacity_max, unit_price, status, created_at, updated_at`

// ClassRepository reads class templates and their weekly schedule.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class or sql.ErrNoRows.
func (r *ClassRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	var class models.Class
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// LockByID reads the class FOR UPDATE so concurrent generations for it run one at a time.
func (r *ClassRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1 FOR UPDATE`
	var class models.Class
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListScheduleEntries returns the weekly entries of a class ordered by weekday and time.
func (r *ClassRepository) ListScheduleEntries(ctx context.Context, exec sqlx.ExtContext, classID string) ([]models.ClassScheduleEntry, error) {
	const query = `SELECT id, class_id, day_of_week, to_char(start_time, 'HH24:MI') AS start_time, instructor_id, court_id
FROM class_schedule_entries WHERE class_id = $1 ORDER BY day_of_week ASC, start_time ASC`
	var entries []models.ClassScheduleEntry
	if err := sqlx.SelectContext(ctx, pick(r.db, exec), &entries, query, classID); err != nil {
		return nil, fmt.Errorf("list class schedule entries: %w", err)
	}
	return entries, nil
}
