package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

const bookingColumns = `id, kind, owner_id, court_id, instructor_id, starts_at, ends_at, price, status, note, cancelled_at, created_at, updated_at`

// BookingRepository persists court and personal bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking, assigning id and timestamps when empty.
func (r *BookingRepository) Create(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error {
	now := time.Now().UTC()
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = booking.CreatedAt

	const query = `INSERT INTO bookings (id, kind, owner_id, court_id, instructor_id, starts_at, ends_at, price, status, note, cancelled_at, created_at, updated_at)
VALUES (:id, :kind, :owner_id, :court_id, :instructor_id, :starts_at, :ends_at, :price, :status, :note, :cancelled_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindByID returns a booking or sql.ErrNoRows.
func (r *BookingRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// LockByID reads the booking FOR UPDATE.
func (r *BookingRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	var booking models.Booking
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateSchedule stores a new interval, court, price and note.
func (r *BookingRepository) UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET court_id = :court_id, starts_at = :starts_at, ends_at = :ends_at,
price = :price, note = :note, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, booking); err != nil {
		return fmt.Errorf("reschedule booking: %w", err)
	}
	return nil
}

// UpdateStatus moves a booking to status. cancelledAt is stored as given.
func (r *BookingRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.BookingStatus, cancelledAt *time.Time) error {
	const query = `UPDATE bookings SET status = $2, cancelled_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := pick(r.db, exec).ExecContext(ctx, query, id, status, cancelledAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// List returns bookings matching filter and the total count.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	var where whereBuilder
	if filter.OwnerID != "" {
		where.add("owner_id = $%d", filter.OwnerID)
	}
	if filter.Kind != "" {
		where.add("kind = $%d", filter.Kind)
	}
	if filter.CourtID != "" {
		where.add("court_id = $%d", filter.CourtID)
	}
	if filter.InstructorID != "" {
		where.add("instructor_id = $%d", filter.InstructorID)
	}
	if filter.Status != "" {
		where.add("status = $%d", filter.Status)
	}
	if filter.From != nil {
		where.add("ends_at > $%d", *filter.From)
	}
	if filter.To != nil {
		where.add("starts_at < $%d", *filter.To)
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY starts_at %s LIMIT %d OFFSET %d`,
		bookingColumns, where.clause(), order, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bookings"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}
