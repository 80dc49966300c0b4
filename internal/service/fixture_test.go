package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"room-booking-backend/internal/clock"
	"room-booking-backend/internal/database/dbtest"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDay = time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func rfc(t time.Time) string {
	return t.Format(time.RFC3339)
}

var (
	staff = models.Principal{Subject: "sam", Username: "sam", Role: models.RoleStaff}
	alice = models.Principal{Subject: "alice", Username: "alice", Role: models.RoleUser}
	bob   = models.Principal{Subject: "bob", Username: "bob", Role: models.RoleUser}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixtureOptions struct {
	security bool
	buffer   time.Duration
}

type fixture struct {
	db          *gorm.DB
	clock       *clock.Fake
	published   *recordingPublisher
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
	auditRepo   *repository.AuditRepository
	rooms       *RoomService
	bookings    *BookingService
	lifecycle   *LifecycleService
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()

	db := dbtest.New(t)
	clk := clock.NewFake(at(8, 0))
	published := &recordingPublisher{}
	dispatcher := events.NewDispatcher(published)

	roomRepo := repository.NewRoomRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	authz := NewAuthorizer(opts.security)
	bridge := NewRoomBridge(roomRepo, bookingRepo)
	grace := 15 * time.Minute

	return &fixture{
		db:          db,
		clock:       clk,
		published:   published,
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		auditRepo:   auditRepo,
		rooms:       NewRoomService(db, roomRepo, auditRepo, authz, dispatcher, clk),
		bookings: NewBookingService(db, roomRepo, bookingRepo, NewConflictDetector(opts.buffer), bridge, authz, dispatcher, clk,
			BookingHours{Location: time.UTC, OpeningHour: 8, ClosingHour: 18, GracePeriod: grace}),
		lifecycle: NewLifecycleService(db, bookingRepo, bridge, dispatcher, clk, time.Minute, grace),
	}
}

func (f *fixture) addRoom(t *testing.T, location string) *models.Room {
	t.Helper()
	room, err := f.rooms.AddRoom(context.Background(), staff, AddRoomInput{
		Name:     "Room " + location,
		Location: location,
		RoomType: string(models.RoomTypeStudy),
	})
	require.NoError(t, err)
	return room
}

func (f *fixture) book(t *testing.T, p models.Principal, room *models.Room, start, end time.Time) *models.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), p, CreateBookingInput{
		RoomID:    room.ID,
		StartTime: rfc(start),
		EndTime:   rfc(end),
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) reloadBooking(t *testing.T, id uint) *models.Booking {
	t.Helper()
	b, err := f.bookingRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) reloadRoom(t *testing.T, id uint) *models.Room {
	t.Helper()
	r, err := f.roomRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (r *recordingPublisher) count(t events.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}
