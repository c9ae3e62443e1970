package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	"github.com/noah-isme/sports-facility-api/pkg/clock"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

type availabilityStore interface {
	windowReader
	ListWindows(ctx context.Context, ref models.ResourceRef) ([]models.WeeklyAvailability, error)
	UpsertWindow(ctx context.Context, window *models.WeeklyAvailability) error
}

// AvailabilityConfig tunes slot generation.
type AvailabilityConfig struct {
	SlotMinutes int
	CacheTTL    time.Duration
}

// AvailabilityService expands weekly windows into daily slot grids.
type AvailabilityService struct {
	windows   availabilityStore
	resources resourceStore
	conflicts *ConflictDetector
	cache     *CacheService
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger
	config    AvailabilityConfig
}

// NewAvailabilityService constructs the service. cache may be nil.
func NewAvailabilityService(windows availabilityStore, resources resourceStore, conflicts *ConflictDetector, cache *CacheService, clk clock.Clock, validate *validator.Validate, logger *zap.Logger, cfg AvailabilityConfig) *AvailabilityService {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	if clk == nil {
		clk = &clock.System{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		windows:   windows,
		resources: resources,
		conflicts: conflicts,
		cache:     cache,
		clock:     clk,
		validator: validate,
		logger:    logger,
		config:    cfg,
	}
}

// GenerateSlots splits the resource's window on date into slotMinutes pieces
// and marks each one available unless an active commitment overlaps it. Past
// days and days without a window yield no slots.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, ref models.ResourceRef, date time.Time, slotMinutes int) ([]models.Slot, *models.WeeklyAvailability, error) {
	if slotMinutes <= 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "slot size must be positive")
	}
	day := clock.StartOfDay(date)
	if day.Before(clock.StartOfDay(s.clock.Now())) {
		return []models.Slot{}, nil, nil
	}

	window, err := s.windows.FindWindow(ctx, nil, ref, models.ISOWeekday(day))
	if err != nil {
		if isNoRows(err) {
			return []models.Slot{}, nil, nil
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability window")
	}
	span, err := window.IntervalOn(day)
	if err != nil {
		s.logger.Warn("skipping malformed availability window", zap.String("window_id", window.ID), zap.Error(err))
		return []models.Slot{}, window, nil
	}

	busy, err := s.conflicts.Busy(ctx, nil, ref, span)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commitments")
	}

	step := time.Duration(slotMinutes) * time.Minute
	slots := make([]models.Slot, 0, int(span.Duration()/step))
	for start := span.Start; !start.Add(step).After(span.End); start = start.Add(step) {
		slot := models.Slot{Start: start, End: start.Add(step), Available: true}
		for _, c := range busy {
			if c.Interval().Overlaps(slot.Interval()) {
				slot.Available = false
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, window, nil
}

// DailySlots serves the slot grid of one resource day, through the cache when enabled.
func (s *AvailabilityService) DailySlots(ctx context.Context, resourceType, resourceID, date string, slotMinutes int) (*dto.DailyAvailabilityResponse, error) {
	ref, err := s.resolve(ctx, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	day, err := dto.ParseDate(date)
	if err != nil {
		return nil, validationError(err, "invalid date")
	}
	if slotMinutes <= 0 {
		slotMinutes = s.config.SlotMinutes
	}

	// A day that has passed has no slots, whatever was cached for it earlier.
	cacheable := !day.Before(clock.StartOfDay(s.clock.Now()))
	key := AvailabilityKey(ref, day, slotMinutes)
	gen := s.cache.Generation(ref)
	var cached dto.DailyAvailabilityResponse
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	slots, window, err := s.GenerateSlots(ctx, ref, day, slotMinutes)
	if err != nil {
		return nil, err
	}

	resp := &dto.DailyAvailabilityResponse{
		ResourceType: string(ref.Type),
		ResourceID:   ref.ID,
		Date:         dto.FormatDate(day),
		DayOfWeek:    models.ISOWeekday(day),
		SlotMinutes:  slotMinutes,
		Slots:        make([]dto.SlotResponse, 0, len(slots)),
	}
	if window != nil {
		w := dto.NewWindowResponse(*window)
		resp.Window = &w
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, dto.SlotResponse{
			Start:     dto.FormatDateTime(slot.Start),
			End:       dto.FormatDateTime(slot.End),
			StartTime: slot.Start.Format(dto.TimeLayout),
			EndTime:   slot.End.Format(dto.TimeLayout),
			Available: slot.Available,
		})
		if slot.Available {
			resp.AvailableSlots++
		}
	}
	resp.TotalSlots = len(resp.Slots)

	if cacheable {
		s.cache.SetFresh(ctx, ref, gen, key, resp, s.config.CacheTTL)
	}
	return resp, nil
}

// ListWindows returns the weekly windows of a resource.
func (s *AvailabilityService) ListWindows(ctx context.Context, resourceType, resourceID string) ([]dto.WindowResponse, error) {
	ref, err := s.resolve(ctx, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	windows, err := s.windows.ListWindows(ctx, ref)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability windows")
	}
	resp := make([]dto.WindowResponse, 0, len(windows))
	for _, w := range windows {
		resp = append(resp, dto.NewWindowResponse(w))
	}
	return resp, nil
}

// SetWindow creates or replaces a resource's window for one weekday.
// Existing bookings are not re-validated against the new window.
func (s *AvailabilityService) SetWindow(ctx context.Context, actor *models.JWTClaims, resourceType, resourceID string, req dto.SetWindowRequest) (*dto.WindowResponse, error) {
	if err := NewAccessPolicy().RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid availability window payload")
	}
	ref, err := s.resolve(ctx, resourceType, resourceID)
	if err != nil {
		return nil, err
	}

	window := &models.WeeklyAvailability{
		ResourceType: ref.Type,
		ResourceID:   ref.ID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	}
	// Anchor on any date to check the clock readings and their order.
	if _, err := window.IntervalOn(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		if errors.Is(err, appErrors.ErrInvalidInterval) {
			return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "window start must be before its end")
		}
		return nil, validationError(err, "invalid window time")
	}

	if err := s.windows.UpsertWindow(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability window")
	}
	s.cache.InvalidateResources(ctx, ref)
	s.logger.Info("availability window saved",
		zap.String("resource", ref.Key()),
		zap.Int("day_of_week", req.DayOfWeek),
		zap.String("start", req.StartTime),
		zap.String("end", req.EndTime))

	resp := dto.NewWindowResponse(*window)
	return &resp, nil
}

func (s *AvailabilityService) resolve(ctx context.Context, resourceType, resourceID string) (models.ResourceRef, error) {
	ref := models.ResourceRef{Type: models.ResourceType(resourceType), ID: resourceID}
	if !ref.Type.Valid() {
		return ref, appErrors.Clone(appErrors.ErrValidation, "resource type must be court or instructor")
	}
	if resourceID == "" {
		return ref, appErrors.Clone(appErrors.ErrValidation, "resource id is required")
	}
	if _, err := s.resources.Find(ctx, nil, ref); err != nil {
		return ref, notFoundOr(err, string(ref.Type), "failed to load "+string(ref.Type))
	}
	return ref, nil
}
