package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

const occurrenceColumns = `id, class_id, instructor_id, court_id, starts_at, ends_at, status, created_at, updated_at`

// OccurrenceRepository persists dated class sessions.
type OccurrenceRepository struct {
	db *sqlx.DB
}

// NewOccurrenceRepository constructs the repository.
func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// InsertIfAbsent inserts the occurrence unless one already exists for the
// same class and start. It reports whether a row was written.
func (r *OccurrenceRepository) InsertIfAbsent(ctx context.Context, exec sqlx.ExtContext, occ *models.ClassOccurrence) (bool, error) {
	now := time.Now().UTC()
	if occ.ID == "" {
		occ.ID = uuid.NewString()
	}
	occ.CreatedAt = now
	occ.UpdatedAt = now

	const query = `INSERT INTO class_occurrences (id, class_id, instructor_id, court_id, starts_at, ends_at, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (class_id, starts_at) DO NOTHING
RETURNING id`
	var id string
	err := sqlx.GetContext(ctx, pick(r.db, exec), &id, query,
		occ.ID, occ.ClassID, occ.InstructorID, occ.CourtID, occ.StartsAt, occ.EndsAt, occ.Status, occ.CreatedAt, occ.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert class occurrence: %w", err)
	}
	return true, nil
}

// ExistsAt reports whether the class already has an occurrence starting at start.
func (r *OccurrenceRepository) ExistsAt(ctx context.Context, exec sqlx.ExtContext, classID string, start time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM class_occurrences WHERE class_id = $1 AND starts_at = $2)`
	var exists bool
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &exists, query, classID, start); err != nil {
		return false, fmt.Errorf("check class occurrence: %w", err)
	}
	return exists, nil
}

// FindByID returns an occurrence or sql.ErrNoRows.
func (r *OccurrenceRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM class_occurrences WHERE id = $1`
	var occ models.ClassOccurrence
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &occ, query, id); err != nil {
		return nil, err
	}
	return &occ, nil
}

// LockByID reads the occurrence FOR UPDATE. Enrollment admission and
// cancellation for an occurrence serialise on this row.
func (r *OccurrenceRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM class_occurrences WHERE id = $1 FOR UPDATE`
	var occ models.ClassOccurrence
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &occ, query, id); err != nil {
		return nil, err
	}
	return &occ, nil
}

// UpdateStatus moves an occurrence to status.
func (r *OccurrenceRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.OccurrenceStatus) error {
	const query = `UPDATE class_occurrences SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := pick(r.db, exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class occurrence status: %w", err)
	}
	return nil
}

const occurrenceSummarySelect = `SELECT o.id, o.class_id, o.instructor_id, o.court_id, o.starts_at, o.ends_at, o.status, o.created_at, o.updated_at,
c.name AS class_name, c.capacity_max,
(SELECT COUNT(*) FROM class_enrollments e WHERE e.occurrence_id = o.id AND e.status = 'enrolled') AS enrolled_count
FROM class_occurrences o
JOIN classes c ON c.id = o.class_id`

// FindSummary returns one occurrence with class data and seat usage.
func (r *OccurrenceRepository) FindSummary(ctx context.Context, id string) (*models.OccurrenceSummary, error) {
	var summary models.OccurrenceSummary
	if err := r.db.GetContext(ctx, &summary, occurrenceSummarySelect+` WHERE o.id = $1`, id); err != nil {
		return nil, err
	}
	return &summary, nil
}

// List returns occurrence summaries matching filter and the total count.
func (r *OccurrenceRepository) List(ctx context.Context, filter models.OccurrenceFilter) ([]models.OccurrenceSummary, int, error) {
	var where whereBuilder
	if filter.ClassID != "" {
		where.add("o.class_id = $%d", filter.ClassID)
	}
	if filter.InstructorID != "" {
		where.add("o.instructor_id = $%d", filter.InstructorID)
	}
	if filter.CourtID != "" {
		where.add("o.court_id = $%d", filter.CourtID)
	}
	if filter.Status != "" {
		where.add("o.status = $%d", filter.Status)
	}
	if filter.From != nil {
		where.add("o.starts_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		where.add("o.starts_at < $%d", *filter.To)
	}
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`%s%s ORDER BY o.starts_at ASC LIMIT %d OFFSET %d`, occurrenceSummarySelect, where.clause(), size, offset)
	var items []models.OccurrenceSummary
	if err := r.db.SelectContext(ctx, &items, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list class occurrences: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM class_occurrences o"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count class occurrences: %w", err)
	}
	return items, total, nil
}
