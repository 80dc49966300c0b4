package models

import (
	"fmt"
	"time"
)

const (
	MinBookingDuration = 30 * time.Minute
	MaxBookingDuration = 120 * time.Minute
	slotMinutes        = 30
)

// TimeRange is the start/end pair of a booking. It is embedded in the
// bookings table and never updated once the booking exists.
type TimeRange struct {
	StartTime time.Time `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"column:end_time;not null;index" json:"end_time"`
}

// NewTimeRange validates that end is after start, that the duration is
// within [30, 120] minutes and that both ends sit on a :00 or :30 boundary
// with no seconds. The result is stored in UTC.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, fmt.Errorf("%w: start_time and end_time are required", ErrInvalidTimeRange)
	}
	if !end.After(start) {
		return TimeRange{}, fmt.Errorf("%w: end_time must be after start_time", ErrInvalidTimeRange)
	}

	d := end.Sub(start)
	if d < MinBookingDuration {
		return TimeRange{}, fmt.Errorf("%w: booking duration must be at least %d minutes", ErrInvalidTimeRange, int(MinBookingDuration.Minutes()))
	}
	if d > MaxBookingDuration {
		return TimeRange{}, fmt.Errorf("%w: booking duration must be at most %d minutes", ErrInvalidTimeRange, int(MaxBookingDuration.Minutes()))
	}

	if err := checkAligned("start_time", start); err != nil {
		return TimeRange{}, err
	}
	if err := checkAligned("end_time", end); err != nil {
		return TimeRange{}, err
	}

	return TimeRange{StartTime: start.UTC(), EndTime: end.UTC()}, nil
}

func checkAligned(field string, t time.Time) error {
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return fmt.Errorf("%w: %s must have zero seconds", ErrInvalidTimeRange, field)
	}
	if t.Minute()%slotMinutes != 0 {
		return fmt.Errorf("%w: %s must align to 30-minute slots", ErrInvalidTimeRange, field)
	}
	return nil
}

// Overlaps is half-open interval intersection: ranges that only touch at
// a boundary do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.StartTime.Before(other.EndTime) && other.StartTime.Before(r.EndTime)
}

// Pad widens the range by buffer on both sides. The result is used for
// conflict queries only and is not validated.
func (r TimeRange) Pad(buffer time.Duration) TimeRange {
	if buffer <= 0 {
		return r
	}
	return TimeRange{StartTime: r.StartTime.Add(-buffer), EndTime: r.EndTime.Add(buffer)}
}

func (r TimeRange) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
