package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-facility-api/internal/models"
)

type commitmentReader interface {
	ListCommitments(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef, window models.TimeInterval, excludeBookingID string) ([]models.Commitment, error)
}

// ConflictDetector decides whether a resource is free over an interval.
// Active bookings and non-cancelled class occurrences both hold a resource.
type ConflictDetector struct {
	commitments commitmentReader
}

// NewConflictDetector constructs the detector.
func NewConflictDetector(commitments commitmentReader) *ConflictDetector {
	return &ConflictDetector{commitments: commitments}
}

// FindConflict returns the first commitment on ref overlapping interval, or
// nil. excludeBookingID lets a booking ignore itself when moved.
func (d *ConflictDetector) FindConflict(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef, interval models.TimeInterval, excludeBookingID string) (*models.Commitment, error) {
	items, err := d.commitments.ListCommitments(ctx, exec, ref, interval, excludeBookingID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		c := items[i]
		if c.Source == models.CommitmentBooking && excludeBookingID != "" && c.ID == excludeBookingID {
			continue
		}
		if c.Interval().Overlaps(interval) {
			return &c, nil
		}
	}
	return nil, nil
}

// HasConflict reports whether any commitment overlaps interval.
func (d *ConflictDetector) HasConflict(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef, interval models.TimeInterval, excludeBookingID string) (bool, error) {
	c, err := d.FindConflict(ctx, exec, ref, interval, excludeBookingID)
	return c != nil, err
}

// Busy returns every commitment on ref intersecting window.
func (d *ConflictDetector) Busy(ctx context.Context, exec sqlx.ExtContext, ref models.ResourceRef, window models.TimeInterval) ([]models.Commitment, error) {
	return d.commitments.ListCommitments(ctx, exec, ref, window, "")
}
