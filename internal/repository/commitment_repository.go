package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

// CommitmentRepository finds active bookings and class occurrences holding a resource.
type CommitmentRepository struct {
	db *sqlx.DB
}

// NewCommitmentRepository constructs the repository.
func NewCommitmentRepository(db *sqlx.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

func commitmentColumn(t models.ResourceType) (string, error) {
	switch t {
	case models.ResourceCourt:
		return "court_id", nil
	case models.ResourceInstructor:
		return "instructor_id", nil
	default:
		return "", fmt.Errorf("unknown resource type %q", t)
	}
}

// ListCommitments returns active commitments on ref that intersect window,
// ordered by start. excludeBookingID drops one booking from the result.
func (r *CommitmentRepository) ListCommitments(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef, window models.TimeInterval, excludeBookingID string) ([]models.Commitment, error) {
	column, err := commitmentColumn(ref.Type)
	if err != nil {
		return nil, err
	}

	args := []interface{}{ref.ID, window.Start, window.End}
	exclude := ""
	if excludeBookingID != "" {
		args = append(args, excludeBookingID)
		exclude = " AND id <> $4"
	}

	query := fmt.Sprintf(`SELECT id, 'booking' AS source, starts_at, ends_at FROM bookings
WHERE status <> 'cancelled' AND %[1]s = $1 AND starts_at < $3 AND ends_at > $2%[2]s
UNION ALL
SELECT id, 'occurrence' AS source, starts_at, ends_at FROM class_occurrences
WHERE status <> 'cancelled' AND %[1]s = $1 AND starts_at < $3 AND ends_at > $2
ORDER BY starts_at ASC`, column, exclude)

	var commitments []models.Commitment
	if err := sqlx.SelectContext(ctx, pick(r.db, exec), &commitments, query, args...); err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	return commitments, nil
}
