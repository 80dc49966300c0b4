package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"room-booking-backend/internal/clock"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"
	"room-booking-backend/pkg/apperror"

	"gorm.io/gorm"
)

// Availability statuses
const (
	Available   = "AVAILABLE"
	Unavailable = "UNAVAILABLE"
)

var errRoomRequired = apperror.Validation("room_id or room_location is required")

// BookingHours bounds the daily availability grid and sets the zone in
// which local timestamps are read
type BookingHours struct {
	Location    *time.Location
	OpeningHour int
	ClosingHour int
	GracePeriod time.Duration
}

type BookingService struct {
	db          *gorm.DB
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
	detector    *ConflictDetector
	bridge      *RoomBridge
	authz       *Authorizer
	dispatcher  *events.Dispatcher
	clock       clock.Clock
	hours       BookingHours
}

func NewBookingService(
	db *gorm.DB,
	roomRepo *repository.RoomRepository,
	bookingRepo *repository.BookingRepository,
	detector *ConflictDetector,
	bridge *RoomBridge,
	authz *Authorizer,
	dispatcher *events.Dispatcher,
	clk clock.Clock,
	hours BookingHours,
) *BookingService {
	if hours.Location == nil {
		hours.Location = time.UTC
	}
	return &BookingService{
		db:          db,
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		detector:    detector,
		bridge:      bridge,
		authz:       authz,
		dispatcher:  dispatcher,
		clock:       clk,
		hours:       hours,
	}
}

// CreateBookingInput identifies the room by ID or location code
type CreateBookingInput struct {
	RoomID       uint
	RoomLocation string
	StartTime    string
	EndTime      string
}

// AvailabilityResult answers whether a room is free for a range
type AvailabilityResult struct {
	RoomID    uint      `json:"room_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
}

// Slot is one cell of the daily availability grid
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

// RoomAvailability is the daily grid of one room
type RoomAvailability struct {
	RoomID       uint            `json:"room_id"`
	RoomLocation string          `json:"room_location"`
	Name         string          `json:"name"`
	RoomType     models.RoomType `json:"room_type"`
	Slots        []Slot          `json:"slots"`
}

// CreateBooking reserves a room. The room row stays locked from the
// conflict check through the insert, so two callers cannot both pass the
// check for the same slot.
func (s *BookingService) CreateBooking(ctx context.Context, p models.Principal, in CreateBookingInput) (*models.Booking, error) {
	tr, err := s.parseRange(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	roomID := in.RoomID
	if roomID == 0 {
		location := strings.TrimSpace(in.RoomLocation)
		if location == "" {
			return nil, errRoomRequired
		}
		room, err := s.roomRepo.FindByLocation(ctx, location)
		if err != nil {
			return nil, err
		}
		roomID = room.ID
	}

	now := s.clock.Now()
	var booking *models.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.roomRepo.WithTx(tx).FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return err
		}

		booking, err = models.NewBooking(room, s.authz.Subject(p), tr, now)
		if err != nil {
			return err
		}

		bookings := s.bookingRepo.WithTx(tx)
		conflict, err := s.detector.HasConflict(ctx, bookings, room.ID, tr)
		if err != nil {
			return err
		}
		if conflict {
			return fmt.Errorf("%w: %s %s-%s", models.ErrBookingConflict, room.Location,
				tr.StartTime.Format(time.RFC3339), tr.EndTime.Format(time.RFC3339))
		}

		return bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, p, booking, events.BookingCreated)
	return booking, nil
}

// CancelBooking cancels a booking that has not ended yet
func (s *BookingService) CancelBooking(ctx context.Context, p models.Principal, id uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookingRepo.WithTx(tx)
		var err error
		booking, err = bookings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authz.RequireOwnerOrStaff(p, booking.BookedBy); err != nil {
			return err
		}

		from := booking.Status
		if err := booking.Cancel(s.clock.Now()); err != nil {
			return err
		}
		if err := bookings.UpdateStatus(ctx, booking, from); err != nil {
			return err
		}

		if from == models.StatusCheckedIn {
			s.bridge.OnReleased(ctx, tx, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, p, booking, events.BookingCancelled)
	return booking, nil
}

// CheckIn checks the caller into a booking whose start time has been
// reached. A CONFIRMED booking the scheduler has not advanced yet is moved
// to CHECK_IN_REQUIRED first. Check-in closes when the grace period ends.
func (s *BookingService) CheckIn(ctx context.Context, p models.Principal, id uint) (*models.Booking, error) {
	now := s.clock.Now()
	var booking *models.Booking
	var emitted []events.Type
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.bookingRepo.WithTx(tx)
		var err error
		booking, err = bookings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authz.RequireOwnerOrStaff(p, booking.BookedBy); err != nil {
			return err
		}

		if booking.Status == models.StatusConfirmed && booking.CheckInDue(now) {
			if err := booking.RequireCheckIn(); err != nil {
				return err
			}
			if err := bookings.UpdateStatus(ctx, booking, models.StatusConfirmed); err != nil {
				return err
			}
			emitted = append(emitted, events.BookingCheckInRequired)
		}

		if booking.Status == models.StatusCheckInRequired && s.hours.GracePeriod > 0 && booking.NoShowDue(now, s.hours.GracePeriod) {
			return fmt.Errorf("%w: check-in for booking %d closed at %s", models.ErrIllegalTransition, booking.ID,
				booking.TimeRange.StartTime.Add(s.hours.GracePeriod).Format(time.RFC3339))
		}

		from := booking.Status
		if err := booking.CheckIn(); err != nil {
			return err
		}
		if err := bookings.UpdateStatus(ctx, booking, from); err != nil {
			return err
		}
		emitted = append(emitted, events.BookingCheckedIn)

		return s.bridge.OnCheckedIn(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, p, booking, emitted...)
	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *BookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return s.bookingRepo.FindByID(ctx, id)
}

// ListBookings lists every booking, optionally filtered by status
func (s *BookingService) ListBookings(ctx context.Context, status string) ([]models.Booking, error) {
	filter := repository.BookingFilter{}
	if status != "" {
		st, err := models.ParseBookingStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	return s.bookingRepo.List(ctx, filter)
}

// ListBookingsByRoom lists the bookings of one room
func (s *BookingService) ListBookingsByRoom(ctx context.Context, roomID uint) ([]models.Booking, error) {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.bookingRepo.List(ctx, repository.BookingFilter{RoomID: roomID})
}

// ListMyBookings lists the bookings owned by the caller
func (s *BookingService) ListMyBookings(ctx context.Context, p models.Principal) ([]models.Booking, error) {
	return s.bookingRepo.List(ctx, repository.BookingFilter{BookedBy: s.authz.Subject(p)})
}

// CheckAvailability reports whether a booking for the range would be
// accepted right now
func (s *BookingService) CheckAvailability(ctx context.Context, roomID uint, startTime, endTime string) (*AvailabilityResult, error) {
	tr, err := s.parseRange(startTime, endTime)
	if err != nil {
		return nil, err
	}
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityResult{
		RoomID:    room.ID,
		StartTime: tr.StartTime,
		EndTime:   tr.EndTime,
		Status:    Unavailable,
	}
	if !room.IsEnabled() || tr.StartTime.Before(s.clock.Now()) {
		return result, nil
	}

	conflict, err := s.detector.HasConflict(ctx, s.bookingRepo, room.ID, tr)
	if err != nil {
		return nil, err
	}
	if !conflict {
		result.Status = Available
	}
	return result, nil
}

// DailyAvailability lays out 30-minute slots between opening and closing
// hour of date for every enabled room
func (s *BookingService) DailyAvailability(ctx context.Context, date string) ([]RoomAvailability, error) {
	var day time.Time
	if strings.TrimSpace(date) == "" {
		day = s.clock.Now().In(s.hours.Location)
	} else {
		var err error
		day, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(date), s.hours.Location)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindValidation, "date must be formatted as YYYY-MM-DD", err)
		}
	}

	opening := time.Date(day.Year(), day.Month(), day.Day(), s.hours.OpeningHour, 0, 0, 0, s.hours.Location)
	closing := time.Date(day.Year(), day.Month(), day.Day(), s.hours.ClosingHour, 0, 0, 0, s.hours.Location)

	rooms, err := s.roomRepo.List(ctx, repository.RoomFilter{Status: models.RoomEnabled})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pad := s.detector.Buffer()
	grid := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		booked, err := s.bookingRepo.ListOverlapping(ctx, room.ID, opening.Add(-pad), closing.Add(pad), models.BlockingStatuses())
		if err != nil {
			return nil, err
		}

		ra := RoomAvailability{
			RoomID:       room.ID,
			RoomLocation: room.Location,
			Name:         room.Name,
			RoomType:     room.RoomType,
		}
		for start := opening; start.Before(closing); start = start.Add(models.MinBookingDuration) {
			slot := models.TimeRange{StartTime: start.UTC(), EndTime: start.Add(models.MinBookingDuration).UTC()}
			free := !slot.StartTime.Before(now)
			for _, b := range booked {
				if free && s.detector.Collides(b, slot) {
					free = false
				}
			}
			ra.Slots = append(ra.Slots, Slot{StartTime: slot.StartTime, EndTime: slot.EndTime, Available: free})
		}
		grid = append(grid, ra)
	}
	return grid, nil
}

func (s *BookingService) parseRange(start, end string) (models.TimeRange, error) {
	st, err := ParseTimestamp(start, s.hours.Location)
	if err != nil {
		return models.TimeRange{}, fmt.Errorf("start_time: %w", err)
	}
	et, err := ParseTimestamp(end, s.hours.Location)
	if err != nil {
		return models.TimeRange{}, fmt.Errorf("end_time: %w", err)
	}
	return models.NewTimeRange(st, et)
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp reads RFC3339, or a local ISO timestamp in loc
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is required", models.ErrInvalidTimeRange)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised timestamp %q", models.ErrInvalidTimeRange, s)
}

func (s *BookingService) publish(ctx context.Context, p models.Principal, b *models.Booking, types ...events.Type) {
	evts := make([]events.Event, 0, len(types))
	for _, t := range types {
		evts = append(evts, bookingEvent(t, b, s.authz.Subject(p), s.clock.Now()))
	}
	s.dispatcher.Dispatch(ctx, evts...)
}

func bookingEvent(t events.Type, b *models.Booking, actor string, now time.Time) events.Event {
	evt := events.New(t, now)
	evt.BookingID = b.ID
	evt.RoomID = b.RoomID
	evt.RoomLocation = b.RoomLocation
	evt.Actor = actor
	evt.Status = string(b.Status)
	return evt
}

// isStale reports whether err came from a concurrent writer winning the race
func isStale(err error) bool {
	return errors.Is(err, models.ErrStaleBooking)
}
