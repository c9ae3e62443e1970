package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

// EnrollmentConfig tunes enrollment billing.
type EnrollmentConfig struct {
	ChargeDueDays int
}

// EnrollmentService admits users into class occurrences. Admission holds the
// occurrence row lock while seats are counted, so capacity is never exceeded.
type EnrollmentService struct {
	classes     classStore
	occurrences occurrenceStore
	enrollments enrollmentStore
	deps        SchedulingDeps
	config      EnrollmentConfig
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(classes classStore, occurrences occurrenceStore, enrollments enrollmentStore, deps SchedulingDeps, cfg EnrollmentConfig) *EnrollmentService {
	if cfg.ChargeDueDays <= 0 {
		cfg.ChargeDueDays = 7
	}
	return &EnrollmentService{classes: classes, occurrences: occurrences, enrollments: enrollments, deps: deps.withDefaults(), config: cfg}
}

// Enroll takes a seat for the actor, or for another user when the actor is
// an administrator. A previously cancelled enrollment is reactivated.
func (s *EnrollmentService) Enroll(ctx context.Context, actor *models.JWTClaims, req dto.EnrollRequest) (*dto.EnrollmentResult, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	userID, err := s.deps.Policy.SubjectFor(actor, req.UserID)
	if err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()

	var (
		enrollment  models.Enrollment
		occ         models.ClassOccurrence
		class       *models.Class
		charge      *models.Charge
		reactivated bool
	)
	err = s.deps.timedTx(ctx, "enrollment.create", func(exec sqlx.ExtContext) error {
		current, err := s.occurrences.LockByID(ctx, exec, req.OccurrenceID)
		if err != nil {
			return notFoundOr(err, "class occurrence", "failed to load class occurrence")
		}
		occ = *current
		switch {
		case occ.Status == models.OccurrenceScheduled:
		case occ.Status == models.OccurrenceConfirmed && actor.IsAdmin():
		default:
			return appErrors.Clone(appErrors.ErrOccurrenceNotOpen, "class occurrence is "+string(occ.Status))
		}
		if !occ.StartsAt.After(now) {
			return appErrors.Clone(appErrors.ErrPastOccurrence, "")
		}

		class, err = s.classes.FindByID(ctx, exec, occ.ClassID)
		if err != nil {
			return notFoundOr(err, "class", "failed to load class")
		}

		existing, err := s.enrollments.FindByOccurrenceAndUser(ctx, exec, occ.ID, userID)
		if err != nil && !isNoRows(err) {
			return asAppError(err, "failed to load enrollment")
		}
		if existing != nil && existing.Status == models.EnrollmentEnrolled {
			return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		}

		seats, err := s.enrollments.CountActive(ctx, exec, occ.ID)
		if err != nil {
			return asAppError(err, "failed to count enrollments")
		}
		if seats >= class.CapacityMax {
			return appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("class occurrence is full (%d/%d)", seats, class.CapacityMax))
		}

		if existing != nil {
			if err := s.enrollments.UpdateStatus(ctx, exec, existing.ID, models.EnrollmentEnrolled); err != nil {
				return asAppError(err, "failed to reactivate enrollment")
			}
			enrollment = *existing
			enrollment.Status = models.EnrollmentEnrolled
			reactivated = true
		} else {
			enrollment = models.Enrollment{
				OccurrenceID: occ.ID,
				ClassID:      occ.ClassID,
				UserID:       userID,
				Status:       models.EnrollmentEnrolled,
			}
			if err := s.enrollments.Create(ctx, exec, &enrollment); err != nil {
				return asAppError(err, "failed to create enrollment")
			}
		}

		if price := class.Price(); price > 0 {
			charge, err = s.deps.Billing.CreateCharge(ctx, exec, models.ChargeRequest{
				OwnerID:       userID,
				ReferenceType: models.ChargeRefEnrollment,
				ReferenceID:   enrollment.ID,
				Amount:        price,
				Description:   fmt.Sprintf("Class: %s - %s", class.Name, occ.StartsAt.Format("02/01/2006 15:04")),
				DueDate:       dueDate(now, s.config.ChargeDueDays),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.deps.Metrics.RecordEnrollment("rejected")
		return nil, asAppError(err, "failed to enroll")
	}

	s.deps.Metrics.RecordEnrollment("enrolled")
	s.deps.Notifier.Notify(ctx, models.NotificationEvent{UserID: userID, Type: models.NotifyEnrollmentCreated, Params: occurrenceParams(class.Name, occ)})
	if charge != nil {
		s.deps.Notifier.Notify(ctx, chargeEvent(charge))
	}
	s.deps.Logger.Info("class enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("occurrence_id", occ.ID),
		zap.String("user_id", userID),
		zap.Bool("reactivated", reactivated))

	return &dto.EnrollmentResult{
		Enrollment:  dto.NewEnrollmentResponse(enrollment),
		Charge:      dto.NewChargeResponse(charge),
		Reactivated: reactivated,
	}, nil
}

// Cancel releases a seat and cancels its open charge. Members cannot cancel
// once the occurrence has started.
func (s *EnrollmentService) Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*dto.CancelEnrollmentResult, error) {
	if err := s.deps.Policy.RequireActor(actor); err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()
	result := &dto.CancelEnrollmentResult{EnrollmentID: id, Status: string(models.EnrollmentCancelled)}

	var (
		enrollment models.Enrollment
		occ        *models.ClassOccurrence
		className  string
	)
	err := s.deps.timedTx(ctx, "enrollment.cancel", func(exec sqlx.ExtContext) error {
		current, err := s.enrollments.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "enrollment", "failed to load enrollment")
		}
		if !s.deps.Policy.CanManage(actor, current.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another user")
		}
		enrollment = *current
		if current.Status == models.EnrollmentCancelled {
			result.AlreadyCancelled = true
			return nil
		}

		occ, err = s.occurrences.FindByID(ctx, exec, current.OccurrenceID)
		if err != nil {
			return notFoundOr(err, "class occurrence", "failed to load class occurrence")
		}
		if occ.StartsAt.Before(now) && !actor.IsAdmin() {
			return appErrors.Clone(appErrors.ErrPastOccurrence, "")
		}
		if err := s.enrollments.UpdateStatus(ctx, exec, current.ID, models.EnrollmentCancelled); err != nil {
			return asAppError(err, "failed to cancel enrollment")
		}
		enrollment.Status = models.EnrollmentCancelled

		charge, err := s.deps.Billing.CancelOpenCharge(ctx, exec, models.ChargeRefEnrollment, current.ID)
		if err != nil {
			return err
		}
		result.ChargeCancelled = charge != nil

		if class, err := s.classes.FindByID(ctx, exec, current.ClassID); err == nil {
			className = class.Name
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to cancel enrollment")
	}
	if result.AlreadyCancelled {
		return result, nil
	}

	s.deps.Metrics.RecordEnrollment("cancelled")
	s.deps.Notifier.Notify(ctx, models.NotificationEvent{UserID: enrollment.UserID, Type: models.NotifyEnrollmentCancelled, Params: occurrenceParams(className, *occ)})
	s.deps.Logger.Info("class enrollment cancelled", zap.String("enrollment_id", enrollment.ID), zap.String("actor_id", actor.UserID))
	return result, nil
}

// ListMine returns the actor's enrollments, optionally only upcoming ones.
func (s *EnrollmentService) ListMine(ctx context.Context, actor *models.JWTClaims, upcoming bool) ([]dto.EnrollmentResponse, error) {
	if err := s.deps.Policy.RequireActor(actor); err != nil {
		return nil, err
	}
	var from *time.Time
	if upcoming {
		now := s.deps.Clock.Now()
		from = &now
	}
	items, err := s.enrollments.ListByUser(ctx, actor.UserID, from)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	resp := make([]dto.EnrollmentResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.NewEnrollmentDetailResponse(item))
	}
	return resp, nil
}
