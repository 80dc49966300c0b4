package models

import "room-booking-backend/pkg/apperror"

// Room registry errors
var (
	ErrRoomNotFound          = apperror.NotFound("room not found")
	ErrDuplicateLocation     = apperror.Conflict("room location already exists")
	ErrInvalidLocationFormat = apperror.Validation("invalid room location format, expected BUILDING-LEVEL-ROOMCODE (e.g. LIB-03-12)")
	ErrInvalidRoomType       = apperror.Validation("invalid room type")
	ErrInvalidRoom           = apperror.Validation("invalid room")
	ErrRoomActive            = apperror.Conflict("cannot remove an enabled or occupied room, disable it first")
	ErrAlreadyInState        = apperror.Conflict("room is already in the requested state")
)

// Booking errors
var (
	ErrBookingNotFound   = apperror.NotFound("booking not found")
	ErrInvalidTimeRange  = apperror.Validation("invalid time range")
	ErrBookingInPast     = apperror.Validation("booking must not start in the past")
	ErrRoomDisabled      = apperror.Conflict("cannot create booking for a disabled room")
	ErrBookingConflict   = apperror.Conflict("room is not available for the requested time range")
	ErrIllegalTransition = apperror.Conflict("illegal booking transition")
	ErrBookingLapsed     = apperror.Conflict("cannot cancel a booking after its end time")
	ErrStaleBooking      = apperror.Conflict("booking was modified concurrently")
	ErrInvalidStatus     = apperror.Validation("invalid booking status")
)

// Access errors
var (
	ErrForbidden          = apperror.Forbidden("access denied")
	ErrUnauthenticated    = apperror.Unauthorized("authentication required")
	ErrInvalidCredentials = apperror.Unauthorized("invalid credentials")
	ErrUsernameTaken      = apperror.Conflict("username already exists")
)
