package handler

import (
	"time"

	"room-booking-backend/internal/middleware"
	"room-booking-backend/internal/models"
	"room-booking-backend/internal/service"
	"room-booking-backend/pkg/apperror"
	"room-booking-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService *service.BookingService
}

func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// CreateBookingRequest takes either room_id or room_location. Timestamps
// are RFC3339 or local ISO (2006-01-02T15:04).
type CreateBookingRequest struct {
	RoomID       uint   `json:"room_id"`
	RoomLocation string `json:"room_location"`
	StartTime    string `json:"start_time" binding:"required"`
	EndTime      string `json:"end_time" binding:"required"`
}

// BookingResponse flattens a booking for clients
type BookingResponse struct {
	ID           uint                 `json:"id"`
	RoomID       uint                 `json:"room_id"`
	RoomLocation string               `json:"room_location"`
	BookedBy     string               `json:"booked_by"`
	StartTime    time.Time            `json:"start_time"`
	EndTime      time.Time            `json:"end_time"`
	BookingDate  string               `json:"booking_date"`
	Status       models.BookingStatus `json:"status"`
	Version      uint                 `json:"version"`
	CreatedAt    time.Time            `json:"created_at"`
}

func toBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		RoomID:       b.RoomID,
		RoomLocation: b.RoomLocation,
		BookedBy:     b.BookedBy,
		StartTime:    b.TimeRange.StartTime.UTC(),
		EndTime:      b.TimeRange.EndTime.UTC(),
		BookingDate:  b.BookingDate,
		Status:       b.Status,
		Version:      b.Version,
		CreatedAt:    b.CreatedAt.UTC(),
	}
}

func toBookingResponses(bookings []models.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return out
}

// CreateBooking reserves a room
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, apperror.Wrap(apperror.KindValidation, "invalid request body", err))
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), middleware.CurrentPrincipal(c), service.CreateBookingInput{
		RoomID:       req.RoomID,
		RoomLocation: req.RoomLocation,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, toBookingResponse(booking))
}

// GetBooking retrieves a booking by ID
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, toBookingResponse(booking))
}

// ListBookings lists bookings, optionally filtered by ?status=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListBookings(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, toBookingResponses(bookings))
}

// ListBookingsByRoom lists the bookings of one room
func (h *BookingHandler) ListBookingsByRoom(c *gin.Context) {
	roomID, err := parseID(c, "roomId")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	bookings, err := h.bookingService.ListBookingsByRoom(c.Request.Context(), roomID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, toBookingResponses(bookings))
}

// ListMyBookings lists the caller's bookings
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListMyBookings(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, toBookingResponses(bookings))
}

// CancelBooking cancels a booking before it ends
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, toBookingResponse(booking))
}

// CheckIn checks the caller into a booking
func (h *BookingHandler) CheckIn(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	booking, err := h.bookingService.CheckIn(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, toBookingResponse(booking))
}

type AvailabilityQuery struct {
	RoomID    uint   `form:"roomId" binding:"required"`
	StartTime string `form:"startTime" binding:"required"`
	EndTime   string `form:"endTime" binding:"required"`
}

// CheckAvailability answers ?roomId&startTime&endTime with AVAILABLE or UNAVAILABLE
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleError(c, apperror.Wrap(apperror.KindValidation, "roomId, startTime and endTime are required", err))
		return
	}

	result, err := h.bookingService.CheckAvailability(c.Request.Context(), q.RoomID, q.StartTime, q.EndTime)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// DailyAvailability returns the slot grid for ?date=YYYY-MM-DD (default today)
func (h *BookingHandler) DailyAvailability(c *gin.Context) {
	grid, err := h.bookingService.DailyAvailability(c.Request.Context(), c.Query("date"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, grid)
}
