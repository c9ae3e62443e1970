package service

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	"github.com/noah-isme/sports-facility-api/pkg/clock"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

type classStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error)
	ListScheduleEntries(ctx context.Context, exec sqlx.ExtContext, classID string) ([]models.ClassScheduleEntry, error)
}

type occurrenceStore interface {
	InsertIfAbsent(ctx context.Context, exec sqlx.ExtContext, occ *models.ClassOccurrence) (bool, error)
	ExistsAt(ctx context.Context, exec sqlx.ExtContext, classID string, start time.Time) (bool, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassOccurrence, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassOccurrence, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.OccurrenceStatus) error
	FindSummary(ctx context.Context, id string) (*models.OccurrenceSummary, error)
	List(ctx context.Context, filter models.OccurrenceFilter) ([]models.OccurrenceSummary, int, error)
}

type enrollmentStore interface {
	FindByOccurrenceAndUser(ctx context.Context, exec sqlx.ExtContext, occurrenceID, userID string) (*models.Enrollment, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	CountActive(ctx context.Context, exec sqlx.ExtContext, occurrenceID string) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus) error
	CancelActiveByOccurrence(ctx context.Context, exec sqlx.ExtContext, occurrenceID string) ([]models.Enrollment, error)
	ListByOccurrence(ctx context.Context, occurrenceID string, status models.EnrollmentStatus) ([]models.Enrollment, error)
	ListByUser(ctx context.Context, userID string, from *time.Time) ([]models.EnrollmentDetail, error)
}

// OccurrenceConfig bounds generation runs.
type OccurrenceConfig struct {
	MaxGenerationDays int
}

// OccurrenceService expands class schedules into dated occurrences and
// manages their lifecycle.
type OccurrenceService struct {
	classes     classStore
	occurrences occurrenceStore
	enrollments enrollmentStore
	deps        SchedulingDeps
	config      OccurrenceConfig
}

// NewOccurrenceService constructs the service.
func NewOccurrenceService(classes classStore, occurrences occurrenceStore, enrollments enrollmentStore, deps SchedulingDeps, cfg OccurrenceConfig) *OccurrenceService {
	if cfg.MaxGenerationDays <= 0 {
		cfg.MaxGenerationDays = 366
	}
	return &OccurrenceService{classes: classes, occurrences: occurrences, enrollments: enrollments, deps: deps.withDefaults(), config: cfg}
}

// Generate creates one occurrence per schedule entry and matching date in
// the inclusive period. Candidates that already exist, have started, or
// collide with another commitment on the instructor or court are skipped.
// Reruns over the same period create nothing new.
func (s *OccurrenceService) Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateOccurrencesRequest) (*dto.GenerateOccurrencesResult, error) {
	if err := s.deps.Policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid generation payload")
	}
	periodStart, err := dto.ParseDate(req.PeriodStart)
	if err != nil {
		return nil, validationError(err, "invalid periodStart")
	}
	periodEnd, err := dto.ParseDate(req.PeriodEnd)
	if err != nil {
		return nil, validationError(err, "invalid periodEnd")
	}
	if periodEnd.Before(periodStart) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "periodEnd must not be before periodStart")
	}
	if days := int(periodEnd.Sub(periodStart).Hours()/24) + 1; days > s.config.MaxGenerationDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, "generation period is too long")
	}
	now := s.deps.Clock.Now()
	if periodStart.Before(clock.StartOfDay(now)) {
		return nil, appErrors.Clone(appErrors.ErrPastInterval, "periodStart is in the past")
	}

	var (
		created []models.ClassOccurrence
		skipped int
		refs    []models.ResourceRef
	)
	err = s.deps.timedTx(ctx, "occurrence.generate", func(exec sqlx.ExtContext) error {
		class, err := s.classes.LockByID(ctx, exec, req.ClassID)
		if err != nil {
			return notFoundOr(err, "class", "failed to load class")
		}
		if class.Status != models.ClassActive {
			return appErrors.Clone(appErrors.ErrConflict, "class is inactive")
		}
		if class.DurationMinutes <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, "class has no duration")
		}
		entries, err := s.classes.ListScheduleEntries(ctx, exec, class.ID)
		if err != nil {
			return asAppError(err, "failed to load class schedule")
		}
		if len(entries) == 0 {
			return appErrors.Clone(appErrors.ErrNoSchedule, "")
		}

		for _, e := range entries {
			refs = append(refs, e.Resources()...)
		}
		if _, err := lockResources(ctx, s.deps.Resources, exec, refs); err != nil {
			return err
		}

		for _, entry := range entries {
			for day := periodStart; !day.After(periodEnd); day = day.AddDate(0, 0, 1) {
				if models.ISOWeekday(day) != entry.DayOfWeek {
					continue
				}
				occ, ok, err := s.placeCandidate(ctx, exec, class, entry, day, now)
				if err != nil {
					return err
				}
				if !ok {
					skipped++
					continue
				}
				created = append(created, *occ)
			}
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to generate class occurrences")
	}

	sort.Slice(created, func(i, j int) bool { return created[i].StartsAt.Before(created[j].StartsAt) })
	s.deps.Metrics.RecordGeneration(len(created), skipped)
	if len(created) > 0 {
		s.deps.Cache.InvalidateResources(ctx, refs...)
	}
	s.deps.Logger.Info("class occurrences generated",
		zap.String("class_id", req.ClassID),
		zap.String("period_start", req.PeriodStart),
		zap.String("period_end", req.PeriodEnd),
		zap.Int("created", len(created)),
		zap.Int("skipped", skipped))

	result := &dto.GenerateOccurrencesResult{Created: make([]dto.OccurrenceResponse, 0, len(created)), CreatedCount: len(created), Skipped: skipped}
	for _, occ := range created {
		result.Created = append(result.Created, dto.NewOccurrenceResponse(occ))
	}
	return result, nil
}

// placeCandidate inserts one candidate occurrence, reporting false when it was skipped.
func (s *OccurrenceService) placeCandidate(ctx context.Context, exec sqlx.ExtContext, class *models.Class, entry models.ClassScheduleEntry, day, now time.Time) (*models.ClassOccurrence, bool, error) {
	start, err := models.AtTimeOfDay(day, entry.StartTime)
	if err != nil {
		s.deps.Logger.Warn("skipping malformed schedule entry", zap.String("entry_id", entry.ID), zap.Error(err))
		return nil, false, nil
	}
	occ := &models.ClassOccurrence{
		ClassID:      class.ID,
		InstructorID: entry.InstructorID,
		CourtID:      entry.CourtID,
		StartsAt:     start,
		EndsAt:       start.Add(class.Duration()),
		Status:       models.OccurrenceScheduled,
	}
	if occ.StartsAt.Before(now) {
		return nil, false, nil
	}

	exists, err := s.occurrences.ExistsAt(ctx, exec, class.ID, occ.StartsAt)
	if err != nil {
		return nil, false, asAppError(err, "failed to check existing occurrence")
	}
	if exists {
		return nil, false, nil
	}

	for _, ref := range occ.Resources() {
		conflict, err := s.deps.Conflicts.FindConflict(ctx, exec, ref, occ.Interval(), "")
		if err != nil {
			return nil, false, asAppError(err, "failed to check conflicts")
		}
		if conflict != nil {
			s.deps.Logger.Debug("occurrence candidate collides",
				zap.String("class_id", class.ID),
				zap.String("start", dto.FormatDateTime(occ.StartsAt)),
				zap.String("resource", ref.Key()),
				zap.String("commitment_id", conflict.ID))
			return nil, false, nil
		}
	}

	inserted, err := s.occurrences.InsertIfAbsent(ctx, exec, occ)
	if err != nil {
		return nil, false, asAppError(err, "failed to create occurrence")
	}
	return occ, inserted, nil
}

// Cancel cancels an occurrence, then every active enrollment in it and
// their open charges, in one transaction.
func (s *OccurrenceService) Cancel(ctx context.Context, actor *models.JWTClaims, id string, force bool) (*dto.CancelOccurrenceResult, error) {
	if err := s.deps.Policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()
	result := &dto.CancelOccurrenceResult{OccurrenceID: id, Status: string(models.OccurrenceCancelled)}

	var (
		occ       models.ClassOccurrence
		className string
		affected  []models.Enrollment
	)
	err := s.deps.timedTx(ctx, "occurrence.cancel", func(exec sqlx.ExtContext) error {
		current, err := s.occurrences.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "class occurrence", "failed to load class occurrence")
		}
		occ = *current
		if current.Status == models.OccurrenceCancelled {
			result.AlreadyCancelled = true
			return nil
		}
		if current.StartsAt.Before(now) && !force {
			return appErrors.Clone(appErrors.ErrPastOccurrence, "")
		}
		if err := s.occurrences.UpdateStatus(ctx, exec, current.ID, models.OccurrenceCancelled); err != nil {
			return asAppError(err, "failed to cancel class occurrence")
		}
		occ.Status = models.OccurrenceCancelled

		affected, err = s.enrollments.CancelActiveByOccurrence(ctx, exec, current.ID)
		if err != nil {
			return asAppError(err, "failed to cancel enrollments")
		}
		result.EnrollmentsCancelled = len(affected)
		for _, e := range affected {
			charge, err := s.deps.Billing.CancelOpenCharge(ctx, exec, models.ChargeRefEnrollment, e.ID)
			if err != nil {
				return err
			}
			if charge != nil {
				result.ChargesCancelled++
			}
		}

		if class, err := s.classes.FindByID(ctx, exec, current.ClassID); err == nil {
			className = class.Name
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to cancel class occurrence")
	}
	if result.AlreadyCancelled {
		return result, nil
	}

	s.deps.Metrics.RecordOccurrenceCancelled()
	s.deps.Cache.InvalidateResources(ctx, occ.Resources()...)
	for _, e := range affected {
		s.deps.Notifier.Notify(ctx, models.NotificationEvent{UserID: e.UserID, Type: models.NotifyOccurrenceCancelled, Params: occurrenceParams(className, occ)})
	}
	s.deps.Logger.Info("class occurrence cancelled",
		zap.String("occurrence_id", occ.ID),
		zap.Int("enrollments_cancelled", result.EnrollmentsCancelled),
		zap.Int("charges_cancelled", result.ChargesCancelled))
	return result, nil
}

// Confirm marks a scheduled occurrence as confirmed. Administrators only.
func (s *OccurrenceService) Confirm(ctx context.Context, actor *models.JWTClaims, id string) (*dto.OccurrenceResponse, error) {
	if err := s.deps.Policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	var occ models.ClassOccurrence
	err := s.deps.timedTx(ctx, "occurrence.confirm", func(exec sqlx.ExtContext) error {
		current, err := s.occurrences.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "class occurrence", "failed to load class occurrence")
		}
		if !current.Status.CanTransitionTo(models.OccurrenceConfirmed) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "class occurrence is "+string(current.Status))
		}
		if err := s.occurrences.UpdateStatus(ctx, exec, current.ID, models.OccurrenceConfirmed); err != nil {
			return asAppError(err, "failed to confirm class occurrence")
		}
		occ = *current
		occ.Status = models.OccurrenceConfirmed
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to confirm class occurrence")
	}
	resp := dto.NewOccurrenceResponse(occ)
	return &resp, nil
}

// List returns occurrences with seat usage.
func (s *OccurrenceService) List(ctx context.Context, query dto.OccurrenceListQuery) ([]dto.OccurrenceResponse, *models.Pagination, error) {
	filter := models.OccurrenceFilter{
		ClassID:      query.ClassID,
		InstructorID: query.InstructorID,
		CourtID:      query.CourtID,
		Status:       models.OccurrenceStatus(query.Status),
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	var err error
	if filter.From, err = optionalDateTime(query.From); err != nil {
		return nil, nil, validationError(err, "invalid from")
	}
	if filter.To, err = optionalDateTime(query.To); err != nil {
		return nil, nil, validationError(err, "invalid to")
	}

	items, total, err := s.occurrences.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class occurrences")
	}
	resp := make([]dto.OccurrenceResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.NewOccurrenceSummaryResponse(item))
	}
	page, size := pageOf(query.Page, query.PageSize)
	return resp, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Roster lists the enrolled users of an occurrence.
func (s *OccurrenceService) Roster(ctx context.Context, id string) (*dto.RosterResponse, error) {
	summary, err := s.occurrences.FindSummary(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "class occurrence", "failed to load class occurrence")
	}
	enrolled, err := s.enrollments.ListByOccurrence(ctx, id, models.EnrollmentEnrolled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	resp := &dto.RosterResponse{
		Occurrence:  dto.NewOccurrenceSummaryResponse(*summary),
		Enrollments: make([]dto.EnrollmentResponse, 0, len(enrolled)),
		Capacity:    summary.CapacityMax,
		Enrolled:    len(enrolled),
	}
	for _, e := range enrolled {
		resp.Enrollments = append(resp.Enrollments, dto.NewEnrollmentResponse(e))
	}
	if remaining := summary.CapacityMax - len(enrolled); remaining > 0 {
		resp.Remaining = remaining
	}
	return resp, nil
}
