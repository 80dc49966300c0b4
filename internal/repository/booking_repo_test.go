package repository

import (
	"context"
	"testing"
	"time"

	"room-booking-backend/internal/database/dbtest"
	"room-booking-backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)

func hm(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func seedBooking(t *testing.T, repo *BookingRepository, room *models.Room, owner string, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	tr, err := models.NewTimeRange(start, end)
	require.NoError(t, err)
	b, err := models.NewBooking(room, owner, tr, day)
	require.NoError(t, err)
	b.Status = status
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestBookingRepository_ExistsOverlapping(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	room := seedRoom(t, NewRoomRepo(db), "LIB-03-12", models.RoomTypeStudy)
	other := seedRoom(t, NewRoomRepo(db), "LIB-03-14", models.RoomTypeStudy)
	repo := NewBookingRepo(db)

	seedBooking(t, repo, room, "alice", hm(10, 0), hm(11, 0), models.StatusConfirmed)
	seedBooking(t, repo, room, "bob", hm(13, 0), hm(14, 0), models.StatusCancelled)

	tests := []struct {
		name   string
		roomID uint
		start  time.Time
		end    time.Time
		want   bool
	}{
		{"overlapping", room.ID, hm(10, 30), hm(11, 30), true},
		{"identical", room.ID, hm(10, 0), hm(11, 0), true},
		{"touching end", room.ID, hm(11, 0), hm(12, 0), false},
		{"touching start", room.ID, hm(9, 0), hm(10, 0), false},
		{"cancelled booking ignored", room.ID, hm(13, 0), hm(14, 0), false},
		{"other room", other.ID, hm(10, 0), hm(11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := models.NewTimeRange(tt.start, tt.end)
			require.NoError(t, err)
			got, err := repo.ExistsOverlapping(ctx, tt.roomID, tr, models.BlockingStatuses())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookingRepository_ListAndFilters(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	room := seedRoom(t, NewRoomRepo(db), "LIB-03-12", models.RoomTypeStudy)
	repo := NewBookingRepo(db)

	seedBooking(t, repo, room, "alice", hm(14, 0), hm(15, 0), models.StatusConfirmed)
	first := seedBooking(t, repo, room, "bob", hm(9, 0), hm(10, 0), models.StatusConfirmed)
	seedBooking(t, repo, room, "alice", hm(11, 0), hm(12, 0), models.StatusCancelled)

	all, err := repo.List(ctx, BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, hm(9, 0), all[0].TimeRange.StartTime.UTC())

	mine, err := repo.List(ctx, BookingFilter{BookedBy: "alice"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	cancelled, err := repo.List(ctx, BookingFilter{RoomID: room.ID, Status: models.StatusCancelled})
	require.NoError(t, err)
	assert.Len(t, cancelled, 1)

	found, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", found.BookedBy)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, models.ErrBookingNotFound)
}

func TestBookingRepository_ListOverlapping(t *testing.T) {
	db := dbtest.New(t)
	room := seedRoom(t, NewRoomRepo(db), "LIB-03-12", models.RoomTypeStudy)
	repo := NewBookingRepo(db)

	seedBooking(t, repo, room, "alice", hm(8, 0), hm(9, 0), models.StatusConfirmed)
	seedBooking(t, repo, room, "alice", hm(17, 30), hm(19, 0), models.StatusCheckedIn)
	seedBooking(t, repo, room, "alice", hm(20, 0), hm(21, 0), models.StatusConfirmed)

	got, err := repo.ListOverlapping(context.Background(), room.ID, hm(8, 0), hm(18, 0), models.BlockingStatuses())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBookingRepository_DueQueries(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	room := seedRoom(t, NewRoomRepo(db), "LIB-03-12", models.RoomTypeStudy)
	repo := NewBookingRepo(db)

	due := seedBooking(t, repo, room, "alice", hm(10, 0), hm(11, 0), models.StatusConfirmed)
	seedBooking(t, repo, room, "alice", hm(12, 0), hm(13, 0), models.StatusConfirmed)
	ended := seedBooking(t, repo, room, "alice", hm(8, 0), hm(9, 0), models.StatusCheckedIn)

	started, err := repo.FindStartedBy(ctx, models.StatusConfirmed, hm(10, 0))
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, due.ID, started[0].ID)

	finished, err := repo.FindEndedBy(ctx, models.StatusCheckedIn, hm(9, 0))
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, ended.ID, finished[0].ID)

	none, err := repo.FindEndedBy(ctx, models.StatusCheckedIn, hm(8, 59))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	room := seedRoom(t, NewRoomRepo(db), "LIB-03-12", models.RoomTypeStudy)
	repo := NewBookingRepo(db)

	b := seedBooking(t, repo, room, "alice", hm(10, 0), hm(11, 0), models.StatusConfirmed)
	stale := *b

	require.NoError(t, b.RequireCheckIn())
	require.NoError(t, repo.UpdateStatus(ctx, b, models.StatusConfirmed))
	assert.Equal(t, uint(2), b.Version)

	stored, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckInRequired, stored.Status)
	assert.Equal(t, uint(2), stored.Version)

	require.NoError(t, stale.Cancel(hm(9, 0)))
	err = repo.UpdateStatus(ctx, &stale, models.StatusConfirmed)
	assert.ErrorIs(t, err, models.ErrStaleBooking)

	stored, err = repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckInRequired, stored.Status, "stale write must not be applied")
}

func TestBookingRepository_UpdateStatusMySQLStale(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `bookings` SET .*`version`=version \\+ 1.*id = \\? AND status = \\? AND version = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	b := &models.Booking{ID: 3, Status: models.StatusCheckedIn, Version: 4}
	err := repo.UpdateStatus(context.Background(), b, models.StatusCheckInRequired)
	assert.ErrorIs(t, err, models.ErrStaleBooking)
	assert.Equal(t, uint(4), b.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
