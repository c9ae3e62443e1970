package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

const availabilityColumns = `id, resource_type, resource_id, day_of_week,
to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, created_at, updated_at`

// AvailabilityRepository persists weekly availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// FindWindow returns the window of ref for an ISO weekday or sql.ErrNoRows.
func (r *AvailabilityRepository) FindWindow(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef, dayOfWeek int) (*models.WeeklyAvailability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM resource_availability
WHERE resource_type = $1 AND resource_id = $2 AND day_of_week = $3`
	var window models.WeeklyAvailability
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &window, query, ref.Type, ref.ID, dayOfWeek); err != nil {
		return nil, err
	}
	return &window, nil
}

// ListWindows returns every window of ref ordered by weekday.
func (r *AvailabilityRepository) ListWindows(ctx context.Context, ref models.ResourceRef) ([]models.WeeklyAvailability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM resource_availability
WHERE resource_type = $1 AND resource_id = $2 ORDER BY day_of_week ASC`
	var windows []models.WeeklyAvailability
	if err := r.db.SelectContext(ctx, &windows, query, ref.Type, ref.ID); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// UpsertWindow creates or replaces the window for the row's resource and weekday.
func (r *AvailabilityRepository) UpsertWindow(ctx context.Context, window *models.WeeklyAvailability) error {
	now := time.Now().UTC()
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	window.CreatedAt = now
	window.UpdatedAt = now

	const query = `INSERT INTO resource_availability (id, resource_type, resource_id, day_of_week, start_time, end_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (resource_type, resource_id, day_of_week) DO UPDATE
SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, updated_at = EXCLUDED.updated_at
RETURNING id`
	if err := r.db.GetContext(ctx, &window.ID, query,
		window.ID, window.ResourceType, window.ResourceID, window.DayOfWeek,
		window.StartTime, window.EndTime, window.CreatedAt, window.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert availability window: %w", err)
	}
	return nil
}
