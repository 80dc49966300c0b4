package handler

import (
	"room-booking-backend/internal/middleware"
	"room-booking-backend/internal/service"
	"room-booking-backend/pkg/apperror"
	"room-booking-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
	}
}

type AddRoomRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	RoomLocation string `json:"room_location" binding:"required"`
	RoomType     string `json:"room_type" binding:"required"`
}

// AddRoom registers a new room
func (h *RoomHandler) AddRoom(c *gin.Context) {
	var req AddRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, apperror.Wrap(apperror.KindValidation, "invalid request body", err))
		return
	}

	room, err := h.roomService.AddRoom(c.Request.Context(), middleware.CurrentPrincipal(c), service.AddRoomInput{
		Name:     req.Name,
		Location: req.RoomLocation,
		RoomType: req.RoomType,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, room)
}

// RemoveRoom deletes a disabled room
func (h *RoomHandler) RemoveRoom(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.roomService.RemoveRoom(c.Request.Context(), middleware.CurrentPrincipal(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Room removed successfully")
}

// EnableRoom reopens a room for booking
func (h *RoomHandler) EnableRoom(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	room, err := h.roomService.EnableRoom(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, room)
}

// DisableRoom closes a room for new bookings
func (h *RoomHandler) DisableRoom(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	room, err := h.roomService.DisableRoom(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, room)
}

// GetRoom retrieves a specific room by ID
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	room, err := h.roomService.GetRoom(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, room)
}

// LocateRoom retrieves a room by ?roomLocation=
func (h *RoomHandler) LocateRoom(c *gin.Context) {
	room, err := h.roomService.LocateRoom(c.Request.Context(), c.Query("roomLocation"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, room)
}

// ListRooms lists rooms, optionally filtered by ?status=
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// ListEnabledRooms lists rooms open for booking
func (h *RoomHandler) ListEnabledRooms(c *gin.Context) {
	rooms, err := h.roomService.ListEnabledRooms(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// ListRoomsByType lists rooms of the type in the path
func (h *RoomHandler) ListRoomsByType(c *gin.Context) {
	rooms, err := h.roomService.ListRoomsByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}
