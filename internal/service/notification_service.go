package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	"github.com/noah-isme/sports-facility-api/internal/repository"
	"github.com/noah-isme/sports-facility-api/pkg/clock"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
	"github.com/noah-isme/sports-facility-api/pkg/jobs"
)

// NotificationJobType tags queued notification deliveries.
const NotificationJobType = "notification.deliver"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

type eventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

type jobOfferer interface {
	Offer(job jobs.Job) error
}

type notificationTemplate struct {
	title   string
	message string
	link    string
}

var notificationTemplates = map[models.NotificationType]notificationTemplate{
	models.NotifyBookingCreated: {
		title:   "Booking received",
		message: "Your {kind} booking on {date} from {start} to {end} was received with status {status}.",
		link:    "/bookings/{booking_id}",
	},
	models.NotifyBookingConfirmed: {
		title:   "Booking confirmed",
		message: "Your {kind} booking on {date} from {start} to {end} is confirmed.",
		link:    "/bookings/{booking_id}",
	},
	models.NotifyBookingCancelled: {
		title:   "Booking cancelled",
		message: "Your {kind} booking on {date} from {start} to {end} was cancelled.",
		link:    "/bookings/{booking_id}",
	},
	models.NotifySessionScheduled: {
		title:   "New personal session",
		message: "A personal session was booked with you on {date} from {start} to {end}.",
		link:    "/bookings/{booking_id}",
	},
	models.NotifyEnrollmentCreated: {
		title:   "Class enrollment confirmed",
		message: "You are enrolled in {class} on {date} at {start}.",
		link:    "/class-enrollments/me",
	},
	models.NotifyEnrollmentCancelled: {
		title:   "Class enrollment cancelled",
		message: "Your seat in {class} on {date} at {start} was released.",
		link:    "/class-enrollments/me",
	},
	models.NotifyOccurrenceCancelled: {
		title:   "Class cancelled",
		message: "{class} on {date} at {start} was cancelled. Any open charge for it was cancelled too.",
		link:    "/class-enrollments/me",
	},
	models.NotifyChargeCreated: {
		title:   "New charge",
		message: "A charge of {amount} was issued for {description}. Due {due_date}.",
		link:    "/charges/{charge_id}",
	},
}

// RenderNotification fills the template of event.Type with event.Params.
// Unknown placeholders are left as written.
func RenderNotification(event models.NotificationEvent) (models.Notification, error) {
	tpl, ok := notificationTemplates[event.Type]
	if !ok {
		return models.Notification{}, fmt.Errorf("no template for notification type %q", event.Type)
	}
	pairs := make([]string, 0, len(event.Params)*2)
	for k, v := range event.Params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	n := models.Notification{
		UserID:  event.UserID,
		Type:    event.Type,
		Title:   r.Replace(tpl.title),
		Message: r.Replace(tpl.message),
	}
	if tpl.link != "" {
		link := r.Replace(tpl.link)
		if !strings.Contains(link, "{") {
			n.Link = &link
		}
	}
	return n, nil
}

// NotificationService renders domain events into in-app notifications and
// delivers them off the request path. Delivery failures are logged and never
// reach the caller.
type NotificationService struct {
	store     notificationStore
	publisher eventPublisher
	queue     jobOfferer
	clock     clock.Clock
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService constructs the service. publisher may be nil.
func NewNotificationService(store notificationStore, publisher eventPublisher, clk clock.Clock, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if clk == nil {
		clk = &clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, publisher: publisher, clock: clk, metrics: metrics, logger: logger}
}

// AttachQueue routes deliveries through q. Without a queue, Notify delivers inline.
func (s *NotificationService) AttachQueue(q jobOfferer) {
	s.queue = q
}

// Notify renders event and schedules its delivery.
func (s *NotificationService) Notify(ctx context.Context, event models.NotificationEvent) {
	if event.UserID == "" {
		return
	}
	n, err := RenderNotification(event)
	if err != nil {
		s.logger.Warn("notification not rendered", zap.String("type", string(event.Type)), zap.Error(err))
		s.metrics.RecordNotification(string(event.Type), "unrendered")
		return
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.clock.Now()

	if s.queue == nil {
		if err := s.Deliver(ctx, &n); err != nil {
			s.logger.Warn("notification delivery failed", zap.String("notification_id", n.ID), zap.Error(err))
		}
		return
	}
	job := jobs.Job{ID: n.ID, Type: NotificationJobType, Payload: &n}
	if err := s.queue.Offer(job); err != nil {
		s.metrics.RecordNotification(string(n.Type), "dropped")
		s.logger.Warn("notification dropped", zap.String("notification_id", n.ID), zap.String("user_id", n.UserID), zap.Error(err))
	}
}

// HandleJob is the queue handler for NotificationJobType.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(*models.Notification)
	if !ok || n == nil {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.Deliver(ctx, n)
}

// Settled observes the final outcome of a queued delivery; only abandoned
// deliveries are recorded since Deliver already counts successes.
func (s *NotificationService) Settled(job jobs.Job, err error) {
	if err == nil {
		return
	}
	notificationType := "unknown"
	if n, ok := job.Payload.(*models.Notification); ok && n != nil {
		notificationType = string(n.Type)
	}
	s.metrics.RecordNotification(notificationType, "abandoned")
	s.logger.Error("notification abandoned", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

// Deliver persists n and fans it out to the broker. Retries are safe: a
// notification already stored under the same id is not stored twice.
func (s *NotificationService) Deliver(ctx context.Context, n *models.Notification) error {
	if err := s.store.Create(ctx, n); err != nil && !repository.IsUniqueViolation(err) {
		s.metrics.RecordNotification(string(n.Type), "failed")
		return fmt.Errorf("store notification: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishJSON(ctx, "notification."+string(n.Type), n); err != nil {
			s.metrics.RecordNotification(string(n.Type), "publish_failed")
			return fmt.Errorf("publish notification: %w", err)
		}
	}
	s.metrics.RecordNotification(string(n.Type), "delivered")
	return nil
}

// ListMine returns the actor's latest notifications.
func (s *NotificationService) ListMine(ctx context.Context, actor *models.JWTClaims, limit int) ([]dto.NotificationResponse, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, err := s.store.ListByUser(ctx, actor.UserID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	resp := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, dto.NewNotificationResponse(n))
	}
	return resp, nil
}

func bookingParams(b models.Booking) map[string]string {
	return map[string]string{
		"booking_id": b.ID,
		"kind":       bookingKindLabel(b.Kind),
		"date":       b.StartsAt.Format("02/01/2006"),
		"start":      b.StartsAt.Format(dto.TimeLayout),
		"end":        b.EndsAt.Format(dto.TimeLayout),
		"status":     string(b.Status),
	}
}

func occurrenceParams(className string, o models.ClassOccurrence) map[string]string {
	return map[string]string{
		"occurrence_id": o.ID,
		"class":         className,
		"date":          o.StartsAt.Format("02/01/2006"),
		"start":         o.StartsAt.Format(dto.TimeLayout),
	}
}

func chargeEvent(c *models.Charge) models.NotificationEvent {
	return models.NotificationEvent{
		UserID: c.OwnerID,
		Type:   models.NotifyChargeCreated,
		Params: map[string]string{
			"charge_id":   c.ID,
			"amount":      fmt.Sprintf("%.2f", c.Amount),
			"description": c.Description,
			"due_date":    c.DueDate.Format("02/01/2006"),
		},
	}
}

func bookingKindLabel(k models.BookingKind) string {
	if k == models.BookingKindPersonal {
		return "personal training"
	}
	return "court"
}
