package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/internal/models"
	"github.com/noah-isme/sports-facility-api/internal/repository"
	"github.com/noah-isme/sports-facility-api/pkg/clock"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

// txRunner runs fn inside one database transaction. A nil exec passed to a
// repository means "use the pool", which is how read paths run.
type txRunner interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type resourceStore interface {
	Find(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef) (*models.Resource, error)
	Lock(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef) (*models.Resource, error)
}

type windowReader interface {
	FindWindow(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef, dayOfWeek int) (*models.WeeklyAvailability, error)
}

type chargeIssuer interface {
	CreateCharge(ctx context.Context, exec sqlx.ExtContext, req models.ChargeRequest) (*models.Charge, error)
	CancelOpenCharge(ctx context.Context, exec sqlx.ExtContext, refType models.ChargeReferenceType, refID string) (*models.Charge, error)
}

type notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent)
}

type availabilityInvalidator interface {
	InvalidateResources(ctx context.Context, refs ...models.ResourceRef)
}

// SchedulingDeps bundles the collaborators shared by booking, occurrence and
// enrollment workflows. Nil optional fields fall back to no-ops.
type SchedulingDeps struct {
	Tx        txRunner
	Clock     clock.Clock
	Resources resourceStore
	Windows   windowReader
	Conflicts *ConflictDetector
	Billing   chargeIssuer
	Notifier  notifier
	Cache     availabilityInvalidator
	Policy    *AccessPolicy
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, models.NotificationEvent) {}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateResources(context.Context, ...models.ResourceRef) {}

func (d SchedulingDeps) withDefaults() SchedulingDeps {
	if d.Clock == nil {
		d.Clock = &clock.System{}
	}
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Cache == nil {
		d.Cache = noopInvalidator{}
	}
	if d.Policy == nil {
		d.Policy = NewAccessPolicy()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// timedTx runs fn in a transaction and records its duration.
func (d SchedulingDeps) timedTx(ctx context.Context, operation string, fn func(exec sqlx.ExtContext) error) error {
	start := time.Now()
	err := d.Tx.WithinTx(ctx, fn)
	d.Metrics.ObserveTransaction(operation, time.Since(start))
	return err
}

// lockResources takes row locks on refs in a global order, instructors
// before courts and then by id, so concurrent writers cannot deadlock.
func lockResources(ctx context.Context, store resourceStore, exec sqlx.ExtContext, refs []models.ResourceRef) (map[string]*models.Resource, error) {
	ordered := orderRefs(refs)
	locked := make(map[string]*models.Resource, len(ordered))
	for _, ref := range ordered {
		res, err := store.Lock(ctx, exec, ref)
		if err != nil {
			return nil, notFoundOr(err, string(ref.Type), "failed to lock "+string(ref.Type))
		}
		locked[ref.Key()] = res
	}
	return locked, nil
}

func orderRefs(refs []models.ResourceRef) []models.ResourceRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]models.ResourceRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.Key()]; ok {
			continue
		}
		seen[ref.Key()] = struct{}{}
		out = append(out, ref)
	}
	rank := func(t models.ResourceType) int {
		if t == models.ResourceInstructor {
			return 0
		}
		return 1
	}
	sort.SliceStable(out, func(i, j int) bool {
		if rank(out[i].Type) != rank(out[j].Type) {
			return rank(out[i].Type) < rank(out[j].Type)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// asAppError keeps typed errors and maps the rest to internal failures.
func asAppError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func isNoRows(err error) bool {
	return repository.IsNoRows(err)
}

func notFoundOr(err error, what, message string) error {
	if isNoRows(err) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return asAppError(err, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func dueDate(now time.Time, days int) time.Time {
	return clock.StartOfDay(now).AddDate(0, 0, days)
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
