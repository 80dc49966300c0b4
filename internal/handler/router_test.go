package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"room-booking-backend/internal/clock"
	"room-booking-backend/internal/config"
	"room-booking-backend/internal/database/dbtest"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"
	"room-booking-backend/internal/service"
	"room-booking-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 17, 8, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, security bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitJWT("handler-test-secret", 15*time.Minute, time.Hour)

	db := dbtest.New(t)
	clk := clock.NewFake(testNow)
	dispatcher := events.NewDispatcher()
	authz := service.NewAuthorizer(security)

	roomRepo := repository.NewRoomRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	bridge := service.NewRoomBridge(roomRepo, bookingRepo)

	rooms := service.NewRoomService(db, roomRepo, auditRepo, authz, dispatcher, clk)
	bookings := service.NewBookingService(db, roomRepo, bookingRepo, service.NewConflictDetector(0), bridge, authz, dispatcher, clk,
		service.BookingHours{Location: time.UTC, OpeningHour: 8, ClosingHour: 18, GracePeriod: 15 * time.Minute})
	auth := service.NewAuthService(repository.NewUserRepo(db), auditRepo, clk)

	return NewRouter(Handlers{
		Auth:     NewAuthHandler(auth),
		Rooms:    NewRoomHandler(rooms),
		Bookings: NewBookingHandler(bookings),
	}, RouterOptions{
		SecurityEnabled: security,
		CORS:            config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	})
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorBody {
	t.Helper()
	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func createRoom(t *testing.T, r http.Handler, location, token string) models.Room {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/rooms", gin.H{
		"name":          "Room " + location,
		"room_location": location,
		"room_type":     "STUDY_ROOM",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room models.Room
	decodeData(t, w, &room)
	return room
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, false)
	w := doJSON(t, r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestBookingFlow(t *testing.T) {
	r := newTestRouter(t, false)
	room := createRoom(t, r, "LIB-03-12", "")

	w := doJSON(t, r, http.MethodPost, "/bookings", gin.H{
		"room_location": "LIB-03-12",
		"start_time":    "2026-02-17T10:00",
		"end_time":      "2026-02-17T11:00",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booking BookingResponse
	decodeData(t, w, &booking)
	assert.Equal(t, room.ID, booking.RoomID)
	assert.Equal(t, models.StatusConfirmed, booking.Status)
	assert.Equal(t, models.AnonymousSubject, booking.BookedBy)
	assert.Equal(t, "2026-02-17", booking.BookingDate)

	t.Run("overlap is a conflict", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/bookings", gin.H{
			"room_id":    room.ID,
			"start_time": "2026-02-17T10:30:00Z",
			"end_time":   "2026-02-17T11:30:00Z",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, http.StatusConflict, body.Status)
		assert.Equal(t, "Conflict", body.Error)
		assert.Equal(t, "/bookings", body.Path)
		assert.NotEmpty(t, body.Message)
		assert.False(t, body.Timestamp.IsZero())
	})

	t.Run("touching booking is accepted", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/bookings", gin.H{
			"room_id":    room.ID,
			"start_time": "2026-02-17T11:00:00Z",
			"end_time":   "2026-02-17T12:00:00Z",
		}, "")
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("availability", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/bookings/availability?roomId=1&startTime=2026-02-17T10:00:00Z&endTime=2026-02-17T11:00:00Z", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var result service.AvailabilityResult
		decodeData(t, w, &result)
		assert.Equal(t, service.Unavailable, result.Status)

		w = doJSON(t, r, http.MethodGet, "/bookings/availability?roomId=1&startTime=2026-02-17T14:00:00Z&endTime=2026-02-17T15:00:00Z", nil, "")
		decodeData(t, w, &result)
		assert.Equal(t, service.Available, result.Status)

		w = doJSON(t, r, http.MethodGet, "/bookings/availability?roomId=1", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cancel", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/bookings/1/cancel", nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var cancelled BookingResponse
		decodeData(t, w, &cancelled)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)

		w = doJSON(t, r, http.MethodPut, "/bookings/1/cancel", nil, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("list by room", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/bookings/room/1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var list []BookingResponse
		decodeData(t, w, &list)
		assert.Len(t, list, 2)
	})
}

func TestBookingValidationErrors(t *testing.T) {
	r := newTestRouter(t, false)
	createRoom(t, r, "LIB-03-12", "")

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"missing end", gin.H{"room_id": 1, "start_time": "2026-02-17T10:00"}, http.StatusBadRequest},
		{"too short", gin.H{"room_id": 1, "start_time": "2026-02-17T10:00", "end_time": "2026-02-17T10:15"}, http.StatusBadRequest},
		{"misaligned", gin.H{"room_id": 1, "start_time": "2026-02-17T10:10", "end_time": "2026-02-17T11:10"}, http.StatusBadRequest},
		{"in the past", gin.H{"room_id": 1, "start_time": "2026-02-17T07:00", "end_time": "2026-02-17T07:30"}, http.StatusBadRequest},
		{"no room", gin.H{"start_time": "2026-02-17T10:00", "end_time": "2026-02-17T11:00"}, http.StatusBadRequest},
		{"unknown room", gin.H{"room_id": 42, "start_time": "2026-02-17T10:00", "end_time": "2026-02-17T11:00"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/bookings", tt.body, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestNotFoundAndBadIDs(t *testing.T) {
	r := newTestRouter(t, false)

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/bookings/99", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/rooms/99", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/rooms/abc", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/rooms/locate?roomLocation=bad", nil, "").Code)
}

func TestRoomRoutes(t *testing.T) {
	r := newTestRouter(t, false)
	room := createRoom(t, r, "ENG-02-101", "")

	w := doJSON(t, r, http.MethodPost, "/rooms", gin.H{"name": "Copy", "room_location": "ENG-02-101", "room_type": "STUDY_ROOM"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/rooms/1", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code, "enabled rooms cannot be removed")

	w = doJSON(t, r, http.MethodPut, "/rooms/1/disable", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var disabled models.Room
	decodeData(t, w, &disabled)
	assert.Equal(t, models.RoomDisabled, disabled.OperationalStatus)

	w = doJSON(t, r, http.MethodGet, "/rooms/enabled", nil, "")
	var enabled []models.Room
	decodeData(t, w, &enabled)
	assert.Empty(t, enabled)

	w = doJSON(t, r, http.MethodGet, "/rooms/locate?roomLocation=ENG-02-101", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var located models.Room
	decodeData(t, w, &located)
	assert.Equal(t, room.ID, located.ID)

	w = doJSON(t, r, http.MethodDelete, "/rooms/1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSecuredRoutes(t *testing.T) {
	r := newTestRouter(t, true)

	staffToken, err := utils.GenerateAccessToken(1, "sam", models.RoleStaff)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/rooms", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/rooms", decodeError(t, w).Path)

	w = doJSON(t, r, http.MethodPost, "/auth/register", gin.H{"username": "alice", "password": "password1"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered service.LoginResponse
	decodeData(t, w, &registered)
	aliceToken := registered.AccessToken

	w = doJSON(t, r, http.MethodPost, "/rooms", gin.H{"name": "X", "room_location": "LIB-03-12", "room_type": "STUDY_ROOM"}, aliceToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	createRoom(t, r, "LIB-03-12", staffToken)

	w = doJSON(t, r, http.MethodPost, "/bookings", gin.H{
		"room_id":    1,
		"start_time": "2026-02-17T10:00",
		"end_time":   "2026-02-17T11:00",
	}, aliceToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var booking BookingResponse
	decodeData(t, w, &booking)
	assert.Equal(t, "alice", booking.BookedBy)

	otherToken, err := utils.GenerateAccessToken(3, "bob", models.RoleUser)
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodPut, "/bookings/1/cancel", nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/bookings/mine", nil, aliceToken)
	var mine []BookingResponse
	decodeData(t, w, &mine)
	assert.Len(t, mine, 1)

	w = doJSON(t, r, http.MethodPut, "/bookings/1/cancel", nil, staffToken)
	assert.Equal(t, http.StatusOK, w.Code)
}
