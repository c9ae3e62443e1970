package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

// ResourceRepository reads courts and instructors as bookable resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func resourceQuery(ref models.ResourceRef) (string, error) {
	switch ref.Type {
	case models.ResourceCourt:
		return `SELECT id, 'court' AS resource_type, name, hourly_rate, active, NULL AS user_id FROM courts WHERE id = $1`, nil
	case models.ResourceInstructor:
		return `SELECT id, 'instructor' AS resource_type, name, hourly_rate, active, user_id FROM instructors WHERE id = $1`, nil
	default:
		return "", fmt.Errorf("unknown resource type %q", ref.Type)
	}
}

// Find returns the resource or sql.ErrNoRows.
func (r *ResourceRepository) Find(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef) (*models.Resource, error) {
	query, err := resourceQuery(ref)
	if err != nil {
		return nil, err
	}
	var res models.Resource
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &res, query, ref.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

// Lock reads the resource row FOR UPDATE, serialising every booking and
// generation that touches it until the surrounding transaction ends.
func (r *ResourceRepository) Lock(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef) (*models.Resource, error) {
	query, err := resourceQuery(ref)
	if err != nil {
		return nil, err
	}
	var res models.Resource
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &res, query+" FOR UPDATE", ref.ID); err != nil {
		return nil, err
	}
	return &res, nil
}
