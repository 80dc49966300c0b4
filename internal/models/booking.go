package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed       BookingStatus = "CONFIRMED"
	StatusCheckInRequired BookingStatus = "CHECK_IN_REQUIRED"
	StatusCheckedIn       BookingStatus = "CHECKED_IN"
	StatusCompleted       BookingStatus = "COMPLETED"
	StatusCancelled       BookingStatus = "CANCELLED"
	StatusNoShow          BookingStatus = "NO_SHOW"
)

// ParseBookingStatus validates a status name (case-insensitive).
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusConfirmed, StatusCheckInRequired, StatusCheckedIn,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// IsTerminal reports whether no transition may leave the status.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	case StatusConfirmed, StatusCheckInRequired, StatusCheckedIn:
		return false
	default:
		return true
	}
}

// IsBlocking reports whether a booking in this status holds its time slot.
func (s BookingStatus) IsBlocking() bool {
	switch s {
	case StatusConfirmed, StatusCheckInRequired, StatusCheckedIn:
		return true
	default:
		return false
	}
}

// BlockingStatuses lists the statuses that count toward conflict detection.
func BlockingStatuses() []BookingStatus {
	return []BookingStatus{StatusConfirmed, StatusCheckInRequired, StatusCheckedIn}
}

// Booking represents the bookings table
type Booking struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	RoomID       uint          `gorm:"not null;index" json:"room_id"`
	RoomLocation string        `gorm:"size:20;not null" json:"room_location"`
	BookedBy     string        `gorm:"size:100;not null;index" json:"booked_by"`
	TimeRange    TimeRange     `gorm:"embedded" json:"time_range"`
	BookingDate  string        `gorm:"size:10;not null" json:"booking_date"`
	Status       BookingStatus `gorm:"size:20;not null;index" json:"status"`
	Version      uint          `gorm:"not null" json:"version"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName specifies the table name for Booking model
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking creates a CONFIRMED booking. The room must be enabled and the
// range must not start before now; overlap checks are the caller's job
// because they need the datastore.
func NewBooking(room *Room, bookedBy string, tr TimeRange, now time.Time) (*Booking, error) {
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if !room.IsEnabled() {
		return nil, fmt.Errorf("%w: %s", ErrRoomDisabled, room.Location)
	}
	if tr.StartTime.Before(now) {
		return nil, fmt.Errorf("%w: start_time %s is before %s", ErrBookingInPast,
			tr.StartTime.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	if strings.TrimSpace(bookedBy) == "" {
		bookedBy = AnonymousSubject
	}
	return &Booking{
		RoomID:       room.ID,
		RoomLocation: room.Location,
		BookedBy:     bookedBy,
		TimeRange:    tr,
		BookingDate:  now.Format("2006-01-02"),
		Status:       StatusConfirmed,
		Version:      1,
	}, nil
}

func (b *Booking) illegal(action string) error {
	return fmt.Errorf("%w: cannot %s booking %d in status %s", ErrIllegalTransition, action, b.ID, b.Status)
}

// RequireCheckIn moves CONFIRMED to CHECK_IN_REQUIRED once the start time is reached.
func (b *Booking) RequireCheckIn() error {
	if b.Status != StatusConfirmed {
		return b.illegal("require check-in for")
	}
	b.Status = StatusCheckInRequired
	return nil
}

// CheckIn moves CHECK_IN_REQUIRED to CHECKED_IN.
func (b *Booking) CheckIn() error {
	if b.Status != StatusCheckInRequired {
		return b.illegal("check in")
	}
	b.Status = StatusCheckedIn
	return nil
}

// MarkNoShow moves CHECK_IN_REQUIRED to NO_SHOW.
func (b *Booking) MarkNoShow() error {
	if b.Status != StatusCheckInRequired {
		return b.illegal("mark no-show for")
	}
	b.Status = StatusNoShow
	return nil
}

// Complete moves CHECKED_IN to COMPLETED.
func (b *Booking) Complete() error {
	if b.Status != StatusCheckedIn {
		return b.illegal("complete")
	}
	b.Status = StatusCompleted
	return nil
}

// Cancel moves any non-terminal status to CANCELLED, strictly before the end time.
func (b *Booking) Cancel(now time.Time) error {
	if b.Status.IsTerminal() {
		return b.illegal("cancel")
	}
	if !now.Before(b.TimeRange.EndTime) {
		return fmt.Errorf("%w: booking %d ended at %s", ErrBookingLapsed, b.ID, b.TimeRange.EndTime.Format(time.RFC3339))
	}
	b.Status = StatusCancelled
	return nil
}

// CheckInDue reports whether now has reached the start time.
func (b *Booking) CheckInDue(now time.Time) bool {
	return !now.Before(b.TimeRange.StartTime)
}

// NoShowDue reports whether the grace period after the start has elapsed.
func (b *Booking) NoShowDue(now time.Time, grace time.Duration) bool {
	return !now.Before(b.TimeRange.StartTime.Add(grace))
}

// CompletionDue reports whether now has reached the end time.
func (b *Booking) CompletionDue(now time.Time) bool {
	return !now.Before(b.TimeRange.EndTime)
}
