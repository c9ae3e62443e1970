package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

type bookingStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error)
	UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.BookingStatus, cancelledAt *time.Time) error
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

// BookingConfig tunes booking billing.
type BookingConfig struct {
	ChargeDueDays int
}

// BookingService runs court and personal-session bookings. Every write
// re-checks availability while holding row locks on the resources involved.
type BookingService struct {
	bookings bookingStore
	deps     SchedulingDeps
	config   BookingConfig
}

// NewBookingService constructs the service.
func NewBookingService(bookings bookingStore, deps SchedulingDeps, cfg BookingConfig) *BookingService {
	if cfg.ChargeDueDays <= 0 {
		cfg.ChargeDueDays = 7
	}
	return &BookingService{bookings: bookings, deps: deps.withDefaults(), config: cfg}
}

// bookingTarget is a parsed, validated booking request.
type bookingTarget struct {
	kind         models.BookingKind
	interval     models.TimeInterval
	courtID      string
	instructorID string
}

func (t bookingTarget) refs() []models.ResourceRef {
	refs := make([]models.ResourceRef, 0, 2)
	if t.kind == models.BookingKindPersonal {
		refs = append(refs, models.ResourceRef{Type: models.ResourceInstructor, ID: t.instructorID})
	}
	if t.courtID != "" {
		refs = append(refs, models.ResourceRef{Type: models.ResourceCourt, ID: t.courtID})
	}
	return refs
}

// primary is the resource the booking is priced on.
func (t bookingTarget) primary() models.ResourceRef {
	if t.kind == models.BookingKindPersonal {
		return models.ResourceRef{Type: models.ResourceInstructor, ID: t.instructorID}
	}
	return models.ResourceRef{Type: models.ResourceCourt, ID: t.courtID}
}

// verdict is the outcome of an availability evaluation.
type verdict struct {
	available bool
	reason    *appErrors.Error
	price     float64
	resources map[string]*models.Resource
}

func (s *BookingService) parseRequest(req dto.BookingRequest) (bookingTarget, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return bookingTarget{}, validationError(err, "invalid booking payload")
	}
	interval, err := parseInterval(req.Start, req.End)
	if err != nil {
		return bookingTarget{}, err
	}
	target := bookingTarget{
		kind:         models.BookingKind(req.Kind),
		interval:     interval,
		courtID:      strings.TrimSpace(req.CourtID),
		instructorID: strings.TrimSpace(req.InstructorID),
	}
	if target.kind == models.BookingKindCourt {
		target.instructorID = ""
	}
	return target, nil
}

func parseInterval(rawStart, rawEnd string) (models.TimeInterval, error) {
	start, err := dto.ParseDateTime(rawStart)
	if err != nil {
		return models.TimeInterval{}, validationError(err, "invalid start")
	}
	end, err := dto.ParseDateTime(rawEnd)
	if err != nil {
		return models.TimeInterval{}, validationError(err, "invalid end")
	}
	return models.NewTimeInterval(start, end)
}

// evaluate checks the target against resource state, the instructor's weekly
// window and existing commitments. With lock set the resource rows are taken
// FOR UPDATE on exec and stay locked until the caller's transaction ends.
func (s *BookingService) evaluate(ctx context.Context, exec sqlx.ExtContext, target bookingTarget, excludeBookingID string, lock bool) (verdict, error) {
	v := verdict{resources: make(map[string]*models.Resource, 2)}
	refs := target.refs()

	if lock {
		locked, err := lockResources(ctx, s.deps.Resources, exec, refs)
		if err != nil {
			return v, err
		}
		v.resources = locked
	} else {
		for _, ref := range refs {
			res, err := s.deps.Resources.Find(ctx, exec, ref)
			if err != nil {
				return v, notFoundOr(err, string(ref.Type), "failed to load "+string(ref.Type))
			}
			v.resources[ref.Key()] = res
		}
	}

	for _, ref := range refs {
		if !v.resources[ref.Key()].Active {
			v.reason = appErrors.Clone(appErrors.ErrUnavailable, string(ref.Type)+" is inactive")
			return v, nil
		}
	}

	if target.kind == models.BookingKindPersonal {
		if !target.interval.SameDay() {
			v.reason = appErrors.Clone(appErrors.ErrUnavailable, "personal sessions must start and end on the same day")
			return v, nil
		}
		instructor := models.ResourceRef{Type: models.ResourceInstructor, ID: target.instructorID}
		window, err := s.deps.Windows.FindWindow(ctx, exec, instructor, models.ISOWeekday(target.interval.Start))
		if err != nil {
			if isNoRows(err) {
				v.reason = appErrors.Clone(appErrors.ErrUnavailable, "instructor has no availability on this weekday")
				return v, nil
			}
			return v, asAppError(err, "failed to load instructor availability")
		}
		span, err := window.IntervalOn(target.interval.Start)
		if err != nil || !span.Contains(target.interval) {
			v.reason = appErrors.Clone(appErrors.ErrUnavailable,
				fmt.Sprintf("outside instructor availability (%s-%s)", window.StartTime, window.EndTime))
			return v, nil
		}
	}

	for _, ref := range refs {
		conflict, err := s.deps.Conflicts.FindConflict(ctx, exec, ref, target.interval, excludeBookingID)
		if err != nil {
			return v, asAppError(err, "failed to check conflicts")
		}
		if conflict != nil {
			v.reason = appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s already has a commitment from %s to %s",
				ref.Type, conflict.StartsAt.Format(dto.TimeLayout), conflict.EndsAt.Format(dto.TimeLayout)))
			return v, nil
		}
	}

	v.available = true
	v.price = roundMoney(v.resources[target.primary().Key()].HourlyRate * target.interval.Hours())
	return v, nil
}

// CheckAvailability answers whether a booking request could succeed right
// now. It fails closed: lookup failures report available=false.
func (s *BookingService) CheckAvailability(ctx context.Context, req dto.BookingRequest) (*dto.AvailabilityCheckResponse, error) {
	target, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	if target.interval.Start.Before(s.deps.Clock.Now()) {
		return &dto.AvailabilityCheckResponse{Available: false, Reason: appErrors.ErrPastInterval.Message}, nil
	}

	v, err := s.evaluate(ctx, nil, target, "", false)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrInternal.Code {
			s.deps.Logger.Error("availability check failed", zap.Error(err))
			return &dto.AvailabilityCheckResponse{Available: false, Reason: "availability could not be verified"}, nil
		}
		return &dto.AvailabilityCheckResponse{Available: false, Reason: appErr.Message}, nil
	}
	if !v.available {
		return &dto.AvailabilityCheckResponse{Available: false, Reason: v.reason.Message}, nil
	}
	return &dto.AvailabilityCheckResponse{Available: true, Price: v.price}, nil
}

// Create books a court or a personal session for the actor, or for another
// member when the actor is an administrator.
func (s *BookingService) Create(ctx context.Context, actor *models.JWTClaims, req dto.BookingRequest) (*dto.BookingResult, error) {
	ownerID, err := s.deps.Policy.SubjectFor(actor, req.OwnerID)
	if err != nil {
		return nil, err
	}
	target, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()
	if target.interval.Start.Before(now) {
		return nil, appErrors.Clone(appErrors.ErrPastInterval, "")
	}

	var (
		booking    models.Booking
		charge     *models.Charge
		instructor *models.Resource
	)
	err = s.deps.timedTx(ctx, "booking.create", func(exec sqlx.ExtContext) error {
		v, err := s.evaluate(ctx, exec, target, "", true)
		if err != nil {
			return err
		}
		if !v.available {
			return v.reason
		}
		if target.kind == models.BookingKindPersonal {
			instructor = v.resources[target.primary().Key()]
		}

		status := models.BookingPending
		if v.price == 0 || actor.IsAdmin() {
			status = models.BookingConfirmed
		}
		booking = models.Booking{
			Kind:         target.kind,
			OwnerID:      ownerID,
			CourtID:      strPtr(target.courtID),
			InstructorID: strPtr(target.instructorID),
			StartsAt:     target.interval.Start,
			EndsAt:       target.interval.End,
			Price:        v.price,
			Status:       status,
			Note:         strPtr(strings.TrimSpace(req.Note)),
		}
		if err := s.bookings.Create(ctx, exec, &booking); err != nil {
			return asAppError(err, "failed to create booking")
		}

		if booking.Price > 0 {
			charge, err = s.deps.Billing.CreateCharge(ctx, exec, models.ChargeRequest{
				OwnerID:       ownerID,
				ReferenceType: booking.Kind.ChargeReference(),
				ReferenceID:   booking.ID,
				Amount:        booking.Price,
				Description:   bookingDescription(booking),
				DueDate:       dueDate(now, s.config.ChargeDueDays),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.deps.Metrics.RecordBooking(string(target.kind), "rejected")
		return nil, asAppError(err, "failed to create booking")
	}

	s.deps.Metrics.RecordBooking(string(booking.Kind), "created")
	s.deps.Cache.InvalidateResources(ctx, booking.Resources()...)
	s.deps.Notifier.Notify(ctx, models.NotificationEvent{UserID: booking.OwnerID, Type: models.NotifyBookingCreated, Params: bookingParams(booking)})
	if instructor != nil && instructor.UserID != nil {
		s.deps.Notifier.Notify(ctx, models.NotificationEvent{UserID: *instructor.UserID, Type: models.NotifySessionScheduled, Params: bookingParams(booking)})
	}
	if charge != nil {
		s.deps.Notifier.Notify(ctx, chargeEvent(charge))
	}
	s.deps.Logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("kind", string(booking.Kind)),
		zap.String("owner_id", booking.OwnerID),
		zap.String("status", string(booking.Status)),
		zap.Float64("price", booking.Price))

	return &dto.BookingResult{Booking: dto.NewBookingResponse(booking), Charge: dto.NewChargeResponse(charge)}, nil
}

// Reschedule moves an active booking to a new interval, and optionally a new
// court, re-running every availability check while ignoring the booking itself.
// A changed price replaces the open charge.
func (s *BookingService) Reschedule(ctx context.Context, actor *models.JWTClaims, id string, req dto.RescheduleBookingRequest) (*dto.BookingResult, error) {
	if err := s.deps.Policy.RequireActor(actor); err != nil {
		return nil, err
	}
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reschedule payload")
	}
	interval, err := parseInterval(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()
	if interval.Start.Before(now) {
		return nil, appErrors.Clone(appErrors.ErrPastInterval, "")
	}

	var (
		booking models.Booking
		oldRefs []models.ResourceRef
		charge  *models.Charge
	)
	err = s.deps.timedTx(ctx, "booking.reschedule", func(exec sqlx.ExtContext) error {
		current, err := s.bookings.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "booking", "failed to load booking")
		}
		if !s.deps.Policy.CanManage(actor, current.OwnerID) {
			return appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another user")
		}
		if !current.Status.Active() {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "cancelled bookings cannot be rescheduled")
		}
		if current.StartsAt.Before(now) && !actor.IsAdmin() {
			return appErrors.Clone(appErrors.ErrPastBooking, "")
		}

		target := bookingTarget{kind: current.Kind, interval: interval, courtID: deref(current.CourtID), instructorID: deref(current.InstructorID)}
		if req.CourtID != nil {
			target.courtID = strings.TrimSpace(*req.CourtID)
		}
		if target.kind == models.BookingKindCourt && target.courtID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "court bookings require a court")
		}

		v, err := s.evaluate(ctx, exec, target, current.ID, true)
		if err != nil {
			return err
		}
		if !v.available {
			return v.reason
		}

		oldRefs = current.Resources()
		oldPrice := current.Price
		booking = *current
		booking.CourtID = strPtr(target.courtID)
		booking.StartsAt = interval.Start
		booking.EndsAt = interval.End
		booking.Price = v.price
		if req.Note != nil {
			booking.Note = strPtr(strings.TrimSpace(*req.Note))
		}
		if err := s.bookings.UpdateSchedule(ctx, exec, &booking); err != nil {
			return asAppError(err, "failed to reschedule booking")
		}

		if booking.Price == oldPrice {
			return nil
		}
		replaced, err := s.deps.Billing.CancelOpenCharge(ctx, exec, booking.Kind.ChargeReference(), booking.ID)
		if err != nil {
			return err
		}
		settled := replaced == nil && oldPrice > 0
		if settled {
			s.deps.Logger.Warn("booking price changed after its charge was settled",
				zap.String("booking_id", booking.ID), zap.Float64("old_price", oldPrice), zap.Float64("new_price", booking.Price))
			return nil
		}
		if booking.Price > 0 {
			charge, err = s.deps.Billing.CreateCharge(ctx, exec, models.ChargeRequest{
				OwnerID:       booking.OwnerID,
				ReferenceType: booking.Kind.ChargeReference(),
				ReferenceID:   booking.ID,
				Amount:        booking.Price,
				Description:   bookingDescription(booking),
				DueDate:       dueDate(now, s.config.ChargeDueDays),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to reschedule booking")
	}

	s.deps.Metrics.RecordBooking(string(booking.Kind), "rescheduled")
	s.deps.Cache.InvalidateResources(ctx, append(oldRefs, booking.Resources()...)...)
	if charge != nil {
		s.deps.Notifier.Notify(ctx, chargeEvent(charge))
	}
	s.deps.Logger.Info("booking rescheduled", zap.String("booking_id", booking.ID), zap.String("start", dto.FormatDateTime(booking.StartsAt)))

	return &dto.BookingResult{Booking: dto.NewBookingResponse(booking), Charge: dto.NewChargeResponse(charge)}, nil
}

// Cancel cancels a booking and its open charge. Cancelling twice reports
// AlreadyCancelled. Bookings that have started can only be force-cancelled
// by an administrator.
func (s *BookingService) Cancel(ctx context.Context, actor *models.JWTClaims, id string, force bool) (*dto.CancelBookingResult, error) {
	if err := s.deps.Policy.RequireActor(actor); err != nil {
		return nil, err
	}
	now := s.deps.Clock.Now()
	result := &dto.CancelBookingResult{BookingID: id, Status: string(models.BookingCancelled)}

	var booking models.Booking
	err := s.deps.timedTx(ctx, "booking.cancel", func(exec sqlx.ExtContext) error {
		current, err := s.bookings.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "booking", "failed to load booking")
		}
		if !s.deps.Policy.CanManage(actor, current.OwnerID) {
			return appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another user")
		}
		booking = *current
		if current.Status == models.BookingCancelled {
			result.AlreadyCancelled = true
			return nil
		}
		if current.StartsAt.Before(now) && !(force && actor.IsAdmin()) {
			return appErrors.Clone(appErrors.ErrPastBooking, "")
		}
		if !current.Status.CanTransitionTo(models.BookingCancelled) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "booking cannot be cancelled from "+string(current.Status))
		}
		if err := s.bookings.UpdateStatus(ctx, exec, current.ID, models.BookingCancelled, &now); err != nil {
			return asAppError(err, "failed to cancel booking")
		}
		booking.Status = models.BookingCancelled
		booking.CancelledAt = &now

		cancelled, err := s.deps.Billing.CancelOpenCharge(ctx, exec, current.Kind.ChargeReference(), current.ID)
		if err != nil {
			return err
		}
		result.ChargeCancelled = cancelled != nil
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to cancel booking")
	}
	if result.AlreadyCancelled {
		return result, nil
	}

	s.deps.Metrics.RecordBooking(string(booking.Kind), "cancelled")
	s.deps.Cache.InvalidateResources(ctx, booking.Resources()...)
	s.deps.Notifier.Notify(ctx, models.NotificationEvent{UserID: booking.OwnerID, Type: models.NotifyBookingCancelled, Params: bookingParams(booking)})
	s.deps.Logger.Info("booking cancelled",
		zap.String("booking_id", booking.ID),
		zap.String("actor_id", actor.UserID),
		zap.Bool("forced", force),
		zap.Bool("charge_cancelled", result.ChargeCancelled))
	return result, nil
}

// Confirm moves a pending booking to confirmed. Administrators only.
func (s *BookingService) Confirm(ctx context.Context, actor *models.JWTClaims, id string) (*dto.BookingResponse, error) {
	if err := s.deps.Policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	var booking models.Booking
	err := s.deps.timedTx(ctx, "booking.confirm", func(exec sqlx.ExtContext) error {
		current, err := s.bookings.LockByID(ctx, exec, id)
		if err != nil {
			return notFoundOr(err, "booking", "failed to load booking")
		}
		if !current.Status.CanTransitionTo(models.BookingConfirmed) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "booking is "+string(current.Status))
		}
		if err := s.bookings.UpdateStatus(ctx, exec, current.ID, models.BookingConfirmed, nil); err != nil {
			return asAppError(err, "failed to confirm booking")
		}
		booking = *current
		booking.Status = models.BookingConfirmed
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to confirm booking")
	}

	s.deps.Metrics.RecordBooking(string(booking.Kind), "confirmed")
	s.deps.Notifier.Notify(ctx, models.NotificationEvent{UserID: booking.OwnerID, Type: models.NotifyBookingConfirmed, Params: bookingParams(booking)})
	resp := dto.NewBookingResponse(booking)
	return &resp, nil
}

// Get returns one booking visible to the actor.
func (s *BookingService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.BookingResponse, error) {
	if err := s.deps.Policy.RequireActor(actor); err != nil {
		return nil, err
	}
	booking, err := s.bookings.FindByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundOr(err, "booking", "failed to load booking")
	}
	if !s.deps.Policy.CanManage(actor, booking.OwnerID) && !s.instructs(ctx, actor, booking) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another user")
	}
	resp := dto.NewBookingResponse(*booking)
	return &resp, nil
}

func (s *BookingService) instructs(ctx context.Context, actor *models.JWTClaims, booking *models.Booking) bool {
	if actor.Role != models.RoleInstructor || booking.InstructorID == nil {
		return false
	}
	res, err := s.deps.Resources.Find(ctx, nil, models.ResourceRef{Type: models.ResourceInstructor, ID: *booking.InstructorID})
	if err != nil {
		return false
	}
	return s.deps.Policy.CanView(actor, booking.OwnerID, res.UserID)
}

// List returns bookings. Non-administrators only ever see their own.
func (s *BookingService) List(ctx context.Context, actor *models.JWTClaims, query dto.BookingListQuery) ([]dto.BookingResponse, *models.Pagination, error) {
	if err := s.deps.Policy.RequireActor(actor); err != nil {
		return nil, nil, err
	}
	filter := models.BookingFilter{
		OwnerID:      query.OwnerID,
		Kind:         models.BookingKind(query.Kind),
		CourtID:      query.CourtID,
		InstructorID: query.InstructorID,
		Status:       models.BookingStatus(query.Status),
		Page:         query.Page,
		PageSize:     query.PageSize,
		SortOrder:    "ASC",
	}
	if !actor.IsAdmin() {
		filter.OwnerID = actor.UserID
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "kind must be court or personal")
	}
	var err error
	if filter.From, err = optionalDateTime(query.From); err != nil {
		return nil, nil, validationError(err, "invalid from")
	}
	if filter.To, err = optionalDateTime(query.To); err != nil {
		return nil, nil, validationError(err, "invalid to")
	}

	items, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	resp := make([]dto.BookingResponse, 0, len(items))
	for _, b := range items {
		resp = append(resp, dto.NewBookingResponse(b))
	}
	page, size := pageOf(query.Page, query.PageSize)
	return resp, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListMine returns the actor's own bookings.
func (s *BookingService) ListMine(ctx context.Context, actor *models.JWTClaims, query dto.BookingListQuery) ([]dto.BookingResponse, *models.Pagination, error) {
	if err := s.deps.Policy.RequireActor(actor); err != nil {
		return nil, nil, err
	}
	query.OwnerID = actor.UserID
	mine := *actor
	mine.Role = models.RoleStudent
	return s.List(ctx, &mine, query)
}

func bookingDescription(b models.Booking) string {
	label := "Court booking"
	if b.Kind == models.BookingKindPersonal {
		label = "Personal training"
	}
	return fmt.Sprintf("%s - %s %s-%s", label, b.StartsAt.Format("02/01/2006"), b.StartsAt.Format(dto.TimeLayout), b.EndsAt.Format(dto.TimeLayout))
}

// optionalDateTime accepts either a date or a date-time.
func optionalDateTime(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if t, err := dto.ParseDateTime(raw); err == nil {
		return &t, nil
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func pageOf(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
