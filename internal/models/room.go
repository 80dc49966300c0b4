package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RoomType enumerates the kinds of bookable rooms.
type RoomType string

const (
	RoomTypeStudy      RoomType = "STUDY_ROOM"
	RoomTypeMeeting    RoomType = "MEETING_ROOM"
	RoomTypeConference RoomType = "CONFERENCE_ROOM"
)

// ParseRoomType validates a room type name (case-insensitive).
func ParseRoomType(s string) (RoomType, error) {
	switch t := RoomType(strings.ToUpper(strings.TrimSpace(s))); t {
	case RoomTypeStudy, RoomTypeMeeting, RoomTypeConference:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomType, s)
	}
}

// OperationalStatus is the staff-controlled flag that decides whether a
// room may receive new bookings.
type OperationalStatus string

const (
	RoomEnabled  OperationalStatus = "ENABLED"
	RoomDisabled OperationalStatus = "DISABLED"
)

// ParseOperationalStatus validates an operational status name (case-insensitive).
func ParseOperationalStatus(s string) (OperationalStatus, error) {
	switch st := OperationalStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case RoomEnabled, RoomDisabled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown operational status %q", ErrInvalidRoom, s)
	}
}

// Activity tracks whether a checked-in booking currently occupies the room.
// Only the room/booking bridge changes it.
type Activity string

const (
	RoomActive   Activity = "ACTIVE"
	RoomInactive Activity = "INACTIVE"
)

var locationPattern = regexp.MustCompile(`^[A-Z]{2,10}-\d{2}-\d{2,4}$`)

// ValidateLocation checks a location code such as LIB-03-12.
func ValidateLocation(code string) error {
	if !locationPattern.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidLocationFormat, code)
	}
	return nil
}

// Room represents the rooms table
type Room struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"size:100;not null" json:"name"`
	Location          string            `gorm:"column:room_location;size:20;not null;uniqueIndex" json:"room_location"`
	RoomType          RoomType          `gorm:"size:30;not null;index" json:"room_type"`
	OperationalStatus OperationalStatus `gorm:"size:20;not null;index" json:"operational_status"`
	Activity          Activity          `gorm:"size:20;not null" json:"activity"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Room model
func (Room) TableName() string {
	return "rooms"
}

// NewRoom builds an enabled, inactive room after validating its profile.
func NewRoom(name, location string, roomType RoomType) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRoom)
	}
	if err := ValidateLocation(location); err != nil {
		return nil, err
	}
	if _, err := ParseRoomType(string(roomType)); err != nil {
		return nil, err
	}
	return &Room{
		Name:              name,
		Location:          location,
		RoomType:          roomType,
		OperationalStatus: RoomEnabled,
		Activity:          RoomInactive,
	}, nil
}

func (r *Room) IsEnabled() bool { return r.OperationalStatus == RoomEnabled }
func (r *Room) IsActive() bool  { return r.Activity == RoomActive }

// Enable allows bookings on the room. Enabling an enabled room is an error.
func (r *Room) Enable() error {
	if r.IsEnabled() {
		return fmt.Errorf("%w: room %s is already enabled", ErrAlreadyInState, r.Location)
	}
	r.OperationalStatus = RoomEnabled
	return nil
}

// Disable stops new bookings on the room.
func (r *Room) Disable() error {
	if !r.IsEnabled() {
		return fmt.Errorf("%w: room %s is already disabled", ErrAlreadyInState, r.Location)
	}
	r.OperationalStatus = RoomDisabled
	return nil
}

// Activate marks the room as occupied.
func (r *Room) Activate() error {
	if r.IsActive() {
		return fmt.Errorf("%w: room %s is already active", ErrAlreadyInState, r.Location)
	}
	r.Activity = RoomActive
	return nil
}

// Deactivate marks the room as free.
func (r *Room) Deactivate() error {
	if !r.IsActive() {
		return fmt.Errorf("%w: room %s is already inactive", ErrAlreadyInState, r.Location)
	}
	r.Activity = RoomInactive
	return nil
}

// Removable reports whether the room may be deleted from the registry.
func (r *Room) Removable() error {
	if r.IsEnabled() || r.IsActive() {
		return fmt.Errorf("%w: room %s", ErrRoomActive, r.Location)
	}
	return nil
}
