package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

type chargeStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, charge *models.Charge) error
	FindOpenByReference(ctx context.Context, exec sqlx.ExtContext, refType models.ChargeReferenceType, refID string) (*models.Charge, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Charge, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ChargeStatus) error
}

// ChargeService is the billing ledger. Every method runs on the caller's
// transaction so charges commit or roll back with their booking.
type ChargeService struct {
	repo      chargeStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewChargeService constructs the ledger.
func NewChargeService(repo chargeStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ChargeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChargeService{repo: repo, validator: validate, metrics: metrics, logger: logger}
}

// CreateCharge opens a pending charge.
func (s *ChargeService) CreateCharge(ctx context.Context, exec sqlx.ExtContext, req models.ChargeRequest) (*models.Charge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid charge request")
	}
	charge := &models.Charge{
		OwnerID:       req.OwnerID,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Amount:        roundMoney(req.Amount),
		Description:   req.Description,
		DueDate:       req.DueDate,
		Status:        models.ChargePending,
	}
	if err := s.repo.Create(ctx, exec, charge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create charge")
	}
	s.metrics.RecordCharge(string(req.ReferenceType), "created")
	s.logger.Debug("charge created",
		zap.String("charge_id", charge.ID),
		zap.String("reference_type", string(charge.ReferenceType)),
		zap.String("reference_id", charge.ReferenceID),
		zap.Float64("amount", charge.Amount))
	return charge, nil
}

// CancelCharge cancels one charge. Settled charges cannot be cancelled;
// cancelling an already cancelled charge is a no-op.
func (s *ChargeService) CancelCharge(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Charge, error) {
	charge, err := s.repo.LockByID(ctx, exec, id)
	if err != nil {
		return nil, notFoundOr(err, "charge", "failed to load charge")
	}
	if charge.Status == models.ChargeCancelled {
		return charge, nil
	}
	if !charge.Status.CanTransitionTo(models.ChargeCancelled) {
		return nil, appErrors.Clone(appErrors.ErrChargeNotCancelable, "charge is "+string(charge.Status))
	}
	if err := s.repo.UpdateStatus(ctx, exec, charge.ID, models.ChargeCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel charge")
	}
	charge.Status = models.ChargeCancelled
	s.metrics.RecordCharge(string(charge.ReferenceType), "cancelled")
	return charge, nil
}

// CancelOpenCharge cancels the open charge of a reference, if any. It
// returns nil when nothing was open, for example when the charge was paid.
func (s *ChargeService) CancelOpenCharge(ctx context.Context, exec sqlx.ExtContext, refType models.ChargeReferenceType, refID string) (*models.Charge, error) {
	charge, err := s.repo.FindOpenByReference(ctx, exec, refType, refID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open charge")
	}
	if err := s.repo.UpdateStatus(ctx, exec, charge.ID, models.ChargeCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel charge")
	}
	charge.Status = models.ChargeCancelled
	s.metrics.RecordCharge(string(refType), "cancelled")
	return charge, nil
}
