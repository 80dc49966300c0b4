package service

import (
	"context"
	"net/http"
	"testing"

	"room-booking-backend/internal/events"
	"room-booking-backend/internal/models"
	"room-booking-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})

	room, err := f.rooms.AddRoom(ctx, staff, AddRoomInput{Name: "Boardroom", Location: " ENG-02-101 ", RoomType: "meeting_room"})
	require.NoError(t, err)
	assert.Equal(t, "ENG-02-101", room.Location)
	assert.Equal(t, models.RoomTypeMeeting, room.RoomType)
	assert.True(t, room.IsEnabled())
	assert.False(t, room.IsActive())

	_, err = f.rooms.AddRoom(ctx, staff, AddRoomInput{Name: "Copy", Location: "ENG-02-101", RoomType: "STUDY_ROOM"})
	assert.ErrorIs(t, err, models.ErrDuplicateLocation)
	assert.Equal(t, http.StatusConflict, apperror.StatusOf(err))

	_, err = f.rooms.AddRoom(ctx, staff, AddRoomInput{Name: "Bad", Location: "eng-2-1", RoomType: "STUDY_ROOM"})
	assert.ErrorIs(t, err, models.ErrInvalidLocationFormat)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))

	_, err = f.rooms.AddRoom(ctx, staff, AddRoomInput{Name: "Bad", Location: "ENG-02-102", RoomType: "GYM"})
	assert.ErrorIs(t, err, models.ErrInvalidRoomType)

	logs, err := f.auditRepo.ListAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "room_added", logs[0].Action)
}

func TestEnableDisableRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	room := f.addRoom(t, "LIB-03-12")

	_, err := f.rooms.EnableRoom(ctx, staff, room.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyInState)

	disabled, err := f.rooms.DisableRoom(ctx, staff, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomDisabled, disabled.OperationalStatus)

	_, err = f.rooms.DisableRoom(ctx, staff, room.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyInState)

	enabled, err := f.rooms.EnableRoom(ctx, staff, room.ID)
	require.NoError(t, err)
	assert.True(t, enabled.IsEnabled())

	_, err = f.rooms.EnableRoom(ctx, staff, 999)
	assert.ErrorIs(t, err, models.ErrRoomNotFound)

	assert.Equal(t, []events.Type{events.RoomAdded, events.RoomDisabled, events.RoomEnabled}, f.published.types())
}

func TestRemoveRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	room := f.addRoom(t, "LIB-03-12")

	err := f.rooms.RemoveRoom(ctx, staff, room.ID)
	assert.ErrorIs(t, err, models.ErrRoomActive, "enabled rooms cannot be removed")

	_, err = f.rooms.DisableRoom(ctx, staff, room.ID)
	require.NoError(t, err)

	stored := f.reloadRoom(t, room.ID)
	require.NoError(t, stored.Activate())
	require.NoError(t, f.roomRepo.Save(ctx, stored))
	assert.ErrorIs(t, f.rooms.RemoveRoom(ctx, staff, room.ID), models.ErrRoomActive, "occupied rooms cannot be removed")

	require.NoError(t, stored.Deactivate())
	require.NoError(t, f.roomRepo.Save(ctx, stored))
	require.NoError(t, f.rooms.RemoveRoom(ctx, staff, room.ID))

	_, err = f.rooms.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
	assert.Contains(t, f.published.types(), events.RoomRemoved)
}

func TestRoomReads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{})
	study := f.addRoom(t, "LIB-03-12")
	_, err := f.rooms.AddRoom(ctx, staff, AddRoomInput{Name: "Hall", Location: "ENG-01-100", RoomType: "CONFERENCE_ROOM"})
	require.NoError(t, err)
	_, err = f.rooms.DisableRoom(ctx, staff, study.ID)
	require.NoError(t, err)

	located, err := f.rooms.LocateRoom(ctx, "LIB-03-12")
	require.NoError(t, err)
	assert.Equal(t, study.ID, located.ID)

	_, err = f.rooms.LocateRoom(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrInvalidLocationFormat)

	all, err := f.rooms.ListRooms(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	disabled, err := f.rooms.ListRooms(ctx, "disabled")
	require.NoError(t, err)
	require.Len(t, disabled, 1)
	assert.Equal(t, "LIB-03-12", disabled[0].Location)

	enabled, err := f.rooms.ListEnabledRooms(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "ENG-01-100", enabled[0].Location)

	conference, err := f.rooms.ListRoomsByType(ctx, "CONFERENCE_ROOM")
	require.NoError(t, err)
	assert.Len(t, conference, 1)

	_, err = f.rooms.ListRooms(ctx, "BROKEN")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
}

func TestRoomMutationsRequireStaff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOptions{security: true})
	room := f.addRoom(t, "LIB-03-12")

	_, err := f.rooms.AddRoom(ctx, alice, AddRoomInput{Name: "X", Location: "LIB-03-13", RoomType: "STUDY_ROOM"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.rooms.DisableRoom(ctx, alice, room.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	assert.ErrorIs(t, f.rooms.RemoveRoom(ctx, alice, room.ID), models.ErrForbidden)

	logs, err := f.auditRepo.ListAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "sam", logs[0].Actor)
}
