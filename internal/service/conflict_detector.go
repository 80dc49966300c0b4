package service

import (
	"context"
	"time"

	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"
)

// ConflictDetector decides whether a candidate range collides with a
// blocking booking of the same room. A positive buffer widens the
// candidate on both sides to enforce a turnover gap.
type ConflictDetector struct {
	buffer time.Duration
}

func NewConflictDetector(buffer time.Duration) *ConflictDetector {
	if buffer < 0 {
		buffer = 0
	}
	return &ConflictDetector{buffer: buffer}
}

func (d *ConflictDetector) Buffer() time.Duration {
	return d.buffer
}

// HasConflict queries through bookings, which should be bound to the
// transaction that holds the room lock
func (d *ConflictDetector) HasConflict(ctx context.Context, bookings *repository.BookingRepository, roomID uint, tr models.TimeRange) (bool, error) {
	return bookings.ExistsOverlapping(ctx, roomID, tr.Pad(d.buffer), models.BlockingStatuses())
}

// Collides reports whether an already loaded booking blocks tr
func (d *ConflictDetector) Collides(existing models.Booking, tr models.TimeRange) bool {
	return existing.Status.IsBlocking() && existing.TimeRange.Overlaps(tr.Pad(d.buffer))
}
