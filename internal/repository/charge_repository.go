package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

const chargeColumns = `id, owner_id, reference_type, reference_id, amount, description, due_date, status, created_at, updated_at`

// ChargeRepository persists the charge ledger.
type ChargeRepository struct {
	db *sqlx.DB
}

// NewChargeRepository constructs the repository.
func NewChargeRepository(db *sqlx.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

// Create inserts a charge.
func (r *ChargeRepository) Create(ctx context.Context, exec sqlx.ExtContext, charge *models.Charge) error {
	now := time.Now().UTC()
	if charge.ID == "" {
		charge.ID = uuid.NewString()
	}
	charge.CreatedAt = now
	charge.UpdatedAt = now

	const query = `INSERT INTO charges (id, owner_id, reference_type, reference_id, amount, description, due_date, status, created_at, updated_at)
VALUES (:id, :owner_id, :reference_type, :reference_id, :amount, :description, :due_date, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, charge); err != nil {
		return fmt.Errorf("create charge: %w", err)
	}
	return nil
}

// FindOpenByReference returns the newest pending or partially paid charge of a
// reference FOR UPDATE, or sql.ErrNoRows.
func (r *ChargeRepository) FindOpenByReference(ctx context.Context, exec sqlx.ExtContext, refType models.ChargeReferenceType, refID string) (*models.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges
WHERE reference_type = $1 AND reference_id = $2 AND status IN ($3, $4)
ORDER BY created_at DESC LIMIT 1 FOR UPDATE`
	var charge models.Charge
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &charge, query,
		refType, refID, models.ChargePending, models.ChargePartiallyPaid); err != nil {
		return nil, err
	}
	return &charge, nil
}

// LockByID reads a charge FOR UPDATE.
func (r *ChargeRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE id = $1 FOR UPDATE`
	var charge models.Charge
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &charge, query, id); err != nil {
		return nil, err
	}
	return &charge, nil
}

// UpdateStatus moves a charge to status.
func (r *ChargeRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ChargeStatus) error {
	const query = `UPDATE charges SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := pick(r.db, exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update charge status: %w", err)
	}
	return nil
}
