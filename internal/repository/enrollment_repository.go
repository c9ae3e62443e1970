package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

const enrollmentColumns = `id, occurrence_id, class_id, user_id, status, created_at, updated_at`

// EnrollmentRepository persists class enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByOccurrenceAndUser returns the user's row for the occurrence, whatever its status, or sql.ErrNoRows.
func (r *EnrollmentRepository) FindByOccurrenceAndUser(ctx context.Context, exec sqlx.ExtContext, occurrenceID, userID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM class_enrollments WHERE occurrence_id = $1 AND user_id = $2`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &enrollment, query, occurrenceID, userID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// LockByID reads the enrollment FOR UPDATE.
func (r *EnrollmentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM class_enrollments WHERE id = $1 FOR UPDATE`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CountActive counts enrolled seats of an occurrence.
func (r *EnrollmentRepository) CountActive(ctx context.Context, exec sqlx.ExtContext, occurrenceID string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_enrollments WHERE occurrence_id = $1 AND status = $2`
	var count int
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &count, query, occurrenceID, models.EnrollmentEnrolled); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const query = `INSERT INTO class_enrollments (id, occurrence_id, class_id, user_id, status, created_at, updated_at)
VALUES (:id, :occurrence_id, :class_id, :user_id, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateStatus moves an enrollment to status.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE class_enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := pick(r.db, exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// CancelActiveByOccurrence cancels every enrolled row of an occurrence and returns them.
func (r *EnrollmentRepository) CancelActiveByOccurrence(ctx context.Context, exec sqlx.ExtContext, occurrenceID string) ([]models.Enrollment, error) {
	query := `UPDATE class_enrollments SET status = $2, updated_at = $3
WHERE occurrence_id = $1 AND status = $4
RETURNING ` + enrollmentColumns
	var cancelled []models.Enrollment
	if err := sqlx.SelectContext(ctx, pick(r.db, exec), &cancelled, query,
		occurrenceID, models.EnrollmentCancelled, time.Now().UTC(), models.EnrollmentEnrolled); err != nil {
		return nil, fmt.Errorf("cancel occurrence enrollments: %w", err)
	}
	return cancelled, nil
}

// ListByOccurrence returns enrollments of an occurrence, optionally filtered by status.
func (r *EnrollmentRepository) ListByOccurrence(ctx context.Context, occurrenceID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM class_enrollments WHERE occurrence_id = $1`
	args := []interface{}{occurrenceID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at ASC"
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list occurrence enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByUser returns a user's enrollments with session timing, newest first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string, from *time.Time) ([]models.EnrollmentDetail, error) {
	query := `SELECT e.id, e.occurrence_id, e.class_id, e.user_id, e.status, e.created_at, e.updated_at,
c.name AS class_name, o.starts_at, o.ends_at, o.status AS occurrence_status
FROM class_enrollments e
JOIN class_occurrences o ON o.id = e.occurrence_id
JOIN classes c ON c.id = e.class_id
WHERE e.user_id = $1`
	args := []interface{}{userID}
	if from != nil {
		query += " AND o.starts_at >= $2"
		args = append(args, *from)
	}
	query += " ORDER BY o.starts_at DESC"
	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return items, nil
}
