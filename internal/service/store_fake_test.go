package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
	"github.com/noah-isme/sports-facility-api/pkg/clock"
)

// memDB is an in-memory stand-in for Postgres. Transactions are serialised
// by txMu and roll back by restoring a snapshot, which is enough to exercise
// the services' atomicity and locking contracts.
type memDB struct {
	txMu sync.Mutex

	resources     map[string]models.Resource
	windows       map[string]models.WeeklyAvailability
	bookings      map[string]models.Booking
	classes       map[string]models.Class
	entries       map[string][]models.ClassScheduleEntry
	occurrences   map[string]models.ClassOccurrence
	enrollments   map[string]models.Enrollment
	charges       map[string]models.Charge
	notifications []models.Notification

	seq        int
	lockLog    []string
	chargeFail error
	// missErr replaces sql.ErrNoRows on lookup misses. Postgres answers
	// 22P02 rather than no rows when an id is not a UUID.
	missErr error
}

func (db *memDB) miss() error {
	if db.missErr != nil {
		return db.missErr
	}
	return sql.ErrNoRows
}

func newMemDB() *memDB {
	return &memDB{
		resources:   map[string]models.Resource{},
		windows:     map[string]models.WeeklyAvailability{},
		bookings:    map[string]models.Booking{},
		classes:     map[string]models.Class{},
		entries:     map[string][]models.ClassScheduleEntry{},
		occurrences: map[string]models.ClassOccurrence{},
		enrollments: map[string]models.Enrollment{},
		charges:     map[string]models.Charge{},
	}
}

type memSnapshot struct {
	bookings    map[string]models.Booking
	occurrences map[string]models.ClassOccurrence
	enrollments map[string]models.Enrollment
	charges     map[string]models.Charge
	windows     map[string]models.WeeklyAvailability
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (db *memDB) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	snap := memSnapshot{
		bookings:    copyMap(db.bookings),
		occurrences: copyMap(db.occurrences),
		enrollments: copyMap(db.enrollments),
		charges:     copyMap(db.charges),
		windows:     copyMap(db.windows),
	}
	if err := fn(nil); err != nil {
		db.bookings = snap.bookings
		db.occurrences = snap.occurrences
		db.enrollments = snap.enrollments
		db.charges = snap.charges
		db.windows = snap.windows
		return err
	}
	return nil
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memDB) addCourt(id string, rate float64) {
	db.resources[models.ResourceRef{Type: models.ResourceCourt, ID: id}.Key()] = models.Resource{ID: id, Type: models.ResourceCourt, Name: "Court " + id, HourlyRate: rate, Active: true}
}

func (db *memDB) addInstructor(id, userID string, rate float64) {
	db.resources[models.ResourceRef{Type: models.ResourceInstructor, ID: id}.Key()] = models.Resource{ID: id, Type: models.ResourceInstructor, Name: "Instructor " + id, HourlyRate: rate, Active: true, UserID: &userID}
}

func (db *memDB) addWindow(ref models.ResourceRef, day int, start, end string) {
	db.windows[windowKey(ref, day)] = models.WeeklyAvailability{ID: db.nextID("win"), ResourceType: ref.Type, ResourceID: ref.ID, DayOfWeek: day, StartTime: start, EndTime: end}
}

func (db *memDB) addClass(c models.Class, entries ...models.ClassScheduleEntry) {
	if c.Status == "" {
		c.Status = models.ClassActive
	}
	db.classes[c.ID] = c
	for i := range entries {
		entries[i].ClassID = c.ID
		if entries[i].ID == "" {
			entries[i].ID = db.nextID("entry")
		}
	}
	db.entries[c.ID] = entries
}

func windowKey(ref models.ResourceRef, day int) string {
	return fmt.Sprintf("%s:%d", ref.Key(), day)
}

type fakeResources struct{ db *memDB }

func (f fakeResources) Find(_ context.Context, _ sqlx.ExtContext, ref models.ResourceRef) (*models.Resource, error) {
	res, ok := f.db.resources[ref.Key()]
	if !ok {
		return nil, f.db.miss()
	}
	return &res, nil
}

func (f fakeResources) Lock(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef) (*models.Resource, error) {
	f.db.lockLog = append(f.db.lockLog, ref.Key())
	return f.Find(ctx, exec, ref)
}

type fakeWindows struct{ db *memDB }

func (f fakeWindows) FindWindow(_ context.Context, _ sqlx.ExtContext, ref models.ResourceRef, day int) (*models.WeeklyAvailability, error) {
	w, ok := f.db.windows[windowKey(ref, day)]
	if !ok {
		return nil, f.db.miss()
	}
	return &w, nil
}

func (f fakeWindows) ListWindows(_ context.Context, ref models.ResourceRef) ([]models.WeeklyAvailability, error) {
	var out []models.WeeklyAvailability
	for day := 1; day <= 7; day++ {
		if w, ok := f.db.windows[windowKey(ref, day)]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f fakeWindows) UpsertWindow(_ context.Context, w *models.WeeklyAvailability) error {
	key := windowKey(models.ResourceRef{Type: w.ResourceType, ID: w.ResourceID}, w.DayOfWeek)
	if existing, ok := f.db.windows[key]; ok {
		w.ID = existing.ID
	} else if w.ID == "" {
		w.ID = f.db.nextID("win")
	}
	f.db.windows[key] = *w
	return nil
}

type fakeCommitments struct{ db *memDB }

func (f fakeCommitments) ListCommitments(_ context.Context, _ sqlx.ExtContext, ref models.ResourceRef, window models.TimeInterval, exclude string) ([]models.Commitment, error) {
	var out []models.Commitment
	for _, b := range f.db.bookings {
		if !b.Status.Active() || b.ID == exclude {
			continue
		}
		holds := false
		for _, r := range b.Resources() {
			holds = holds || r == ref
		}
		if holds && b.Interval().Overlaps(window) {
			out = append(out, models.Commitment{ID: b.ID, Source: models.CommitmentBooking, StartsAt: b.StartsAt, EndsAt: b.EndsAt})
		}
	}
	for _, o := range f.db.occurrences {
		if o.Status == models.OccurrenceCancelled {
			continue
		}
		holds := false
		for _, r := range o.Resources() {
			holds = holds || r == ref
		}
		if holds && o.Interval().Overlaps(window) {
			out = append(out, models.Commitment{ID: o.ID, Source: models.CommitmentOccurrence, StartsAt: o.StartsAt, EndsAt: o.EndsAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

type fakeBookings struct{ db *memDB }

func (f fakeBookings) Create(_ context.Context, _ sqlx.ExtContext, b *models.Booking) error {
	b.ID = f.db.nextID("booking")
	f.db.bookings[b.ID] = *b
	return nil
}

func (f fakeBookings) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Booking, error) {
	b, ok := f.db.bookings[id]
	if !ok {
		return nil, f.db.miss()
	}
	return &b, nil
}

func (f fakeBookings) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error) {
	return f.FindByID(ctx, exec, id)
}

func (f fakeBookings) UpdateSchedule(_ context.Context, _ sqlx.ExtContext, b *models.Booking) error {
	f.db.bookings[b.ID] = *b
	return nil
}

func (f fakeBookings) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.BookingStatus, at *time.Time) error {
	b := f.db.bookings[id]
	b.Status = status
	b.CancelledAt = at
	f.db.bookings[id] = b
	return nil
}

func (f fakeBookings) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	var out []models.Booking
	for _, b := range f.db.bookings {
		if filter.OwnerID != "" && b.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Kind != "" && b.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, len(out), nil
}

type fakeClasses struct{ db *memDB }

func (f fakeClasses) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Class, error) {
	c, ok := f.db.classes[id]
	if !ok {
		return nil, f.db.miss()
	}
	return &c, nil
}

func (f fakeClasses) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	return f.FindByID(ctx, exec, id)
}

func (f fakeClasses) ListScheduleEntries(_ context.Context, _ sqlx.ExtContext, classID string) ([]models.ClassScheduleEntry, error) {
	return f.db.entries[classID], nil
}

type fakeOccurrences struct{ db *memDB }

func (f fakeOccurrences) InsertIfAbsent(_ context.Context, _ sqlx.ExtContext, o *models.ClassOccurrence) (bool, error) {
	for _, existing := range f.db.occurrences {
		if existing.ClassID == o.ClassID && existing.StartsAt.Equal(o.StartsAt) {
			return false, nil
		}
	}
	o.ID = f.db.nextID("occ")
	f.db.occurrences[o.ID] = *o
	return true, nil
}

func (f fakeOccurrences) ExistsAt(_ context.Context, _ sqlx.ExtContext, classID string, start time.Time) (bool, error) {
	for _, o := range f.db.occurrences {
		if o.ClassID == classID && o.StartsAt.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeOccurrences) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.ClassOccurrence, error) {
	o, ok := f.db.occurrences[id]
	if !ok {
		return nil, f.db.miss()
	}
	return &o, nil
}

func (f fakeOccurrences) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassOccurrence, error) {
	return f.FindByID(ctx, exec, id)
}

func (f fakeOccurrences) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.OccurrenceStatus) error {
	o := f.db.occurrences[id]
	o.Status = status
	f.db.occurrences[id] = o
	return nil
}

func (f fakeOccurrences) summary(o models.ClassOccurrence) models.OccurrenceSummary {
	c := f.db.classes[o.ClassID]
	count := 0
	for _, e := range f.db.enrollments {
		if e.OccurrenceID == o.ID && e.Status == models.EnrollmentEnrolled {
			count++
		}
	}
	return models.OccurrenceSummary{ClassOccurrence: o, ClassName: c.Name, CapacityMax: c.CapacityMax, EnrolledCount: count}
}

func (f fakeOccurrences) FindSummary(_ context.Context, id string) (*models.OccurrenceSummary, error) {
	o, ok := f.db.occurrences[id]
	if !ok {
		return nil, f.db.miss()
	}
	s := f.summary(o)
	return &s, nil
}

func (f fakeOccurrences) List(_ context.Context, filter models.OccurrenceFilter) ([]models.OccurrenceSummary, int, error) {
	var out []models.OccurrenceSummary
	for _, o := range f.db.occurrences {
		if filter.ClassID != "" && o.ClassID != filter.ClassID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, f.summary(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, len(out), nil
}

type fakeEnrollments struct{ db *memDB }

func (f fakeEnrollments) FindByOccurrenceAndUser(_ context.Context, _ sqlx.ExtContext, occurrenceID, userID string) (*models.Enrollment, error) {
	for _, e := range f.db.enrollments {
		if e.OccurrenceID == occurrenceID && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, f.db.miss()
}

func (f fakeEnrollments) LockByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Enrollment, error) {
	e, ok := f.db.enrollments[id]
	if !ok {
		return nil, f.db.miss()
	}
	return &e, nil
}

func (f fakeEnrollments) CountActive(_ context.Context, _ sqlx.ExtContext, occurrenceID string) (int, error) {
	count := 0
	for _, e := range f.db.enrollments {
		if e.OccurrenceID == occurrenceID && e.Status == models.EnrollmentEnrolled {
			count++
		}
	}
	return count, nil
}

func (f fakeEnrollments) Create(ctx context.Context, exec sqlx.ExtContext, e *models.Enrollment) error {
	if _, err := f.FindByOccurrenceAndUser(ctx, exec, e.OccurrenceID, e.UserID); err == nil {
		return errors.New("duplicate enrollment row")
	}
	e.ID = f.db.nextID("enr")
	f.db.enrollments[e.ID] = *e
	return nil
}

func (f fakeEnrollments) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.EnrollmentStatus) error {
	e := f.db.enrollments[id]
	e.Status = status
	f.db.enrollments[id] = e
	return nil
}

func (f fakeEnrollments) CancelActiveByOccurrence(_ context.Context, _ sqlx.ExtContext, occurrenceID string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for id, e := range f.db.enrollments {
		if e.OccurrenceID == occurrenceID && e.Status == models.EnrollmentEnrolled {
			e.Status = models.EnrollmentCancelled
			f.db.enrollments[id] = e
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeEnrollments) ListByOccurrence(_ context.Context, occurrenceID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range f.db.enrollments {
		if e.OccurrenceID == occurrenceID && (status == "" || e.Status == status) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeEnrollments) ListByUser(_ context.Context, userID string, from *time.Time) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range f.db.enrollments {
		if e.UserID != userID {
			continue
		}
		o := f.db.occurrences[e.OccurrenceID]
		if from != nil && o.StartsAt.Before(*from) {
			continue
		}
		out = append(out, models.EnrollmentDetail{Enrollment: e, ClassName: f.db.classes[e.ClassID].Name, StartsAt: o.StartsAt, EndsAt: o.EndsAt, OccurrenceStatus: o.Status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out, nil
}

type fakeCharges struct{ db *memDB }

func (f fakeCharges) Create(_ context.Context, _ sqlx.ExtContext, c *models.Charge) error {
	if f.db.chargeFail != nil {
		return f.db.chargeFail
	}
	c.ID = f.db.nextID("charge")
	f.db.charges[c.ID] = *c
	return nil
}

func (f fakeCharges) FindOpenByReference(_ context.Context, _ sqlx.ExtContext, refType models.ChargeReferenceType, refID string) (*models.Charge, error) {
	for _, c := range f.db.charges {
		if c.ReferenceType == refType && c.ReferenceID == refID && c.Status.Open() {
			return &c, nil
		}
	}
	return nil, f.db.miss()
}

func (f fakeCharges) LockByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Charge, error) {
	c, ok := f.db.charges[id]
	if !ok {
		return nil, f.db.miss()
	}
	return &c, nil
}

func (f fakeCharges) UpdateStatus(_ context.Context, _ sqlx.ExtContext, id string, status models.ChargeStatus) error {
	c := f.db.charges[id]
	c.Status = status
	f.db.charges[id] = c
	return nil
}

func (db *memDB) chargesFor(refID string) []models.Charge {
	var out []models.Charge
	for _, c := range db.charges {
		if c.ReferenceID == refID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event models.NotificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) types() []models.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	db           *memDB
	clock        *clock.Fixed
	notifier     *recordingNotifier
	bookings     *BookingService
	occurrences  *OccurrenceService
	enrollments  *EnrollmentService
	availability *AvailabilityService
	charges      *ChargeService
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	db := newMemDB()
	clk := clock.NewFixed(now)
	notifier := &recordingNotifier{}
	detector := NewConflictDetector(fakeCommitments{db: db})
	charges := NewChargeService(fakeCharges{db: db}, nil, nil, nil)

	deps := SchedulingDeps{
		Tx:        db,
		Clock:     clk,
		Resources: fakeResources{db: db},
		Windows:   fakeWindows{db: db},
		Conflicts: detector,
		Billing:   charges,
		Notifier:  notifier,
	}

	return &harness{
		db:           db,
		clock:        clk,
		notifier:     notifier,
		bookings:     NewBookingService(fakeBookings{db: db}, deps, BookingConfig{ChargeDueDays: 7}),
		occurrences:  NewOccurrenceService(fakeClasses{db: db}, fakeOccurrences{db: db}, fakeEnrollments{db: db}, deps, OccurrenceConfig{MaxGenerationDays: 120}),
		enrollments:  NewEnrollmentService(fakeClasses{db: db}, fakeOccurrences{db: db}, fakeEnrollments{db: db}, deps, EnrollmentConfig{ChargeDueDays: 7}),
		availability: NewAvailabilityService(fakeWindows{db: db}, fakeResources{db: db}, detector, nil, clk, nil, nil, AvailabilityConfig{SlotMinutes: 30}),
		charges:      charges,
	}
}

func student(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func admin() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func courtRef(id string) models.ResourceRef {
	return models.ResourceRef{Type: models.ResourceCourt, ID: id}
}

func instructorRef(id string) models.ResourceRef {
	return models.ResourceRef{Type: models.ResourceInstructor, ID: id}
}

func at(raw string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", raw, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}
