package service

import (
	"context"
	"fmt"
	"strings"

	"room-booking-backend/internal/clock"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"

	"gorm.io/gorm"
)

type RoomService struct {
	db         *gorm.DB
	roomRepo   *repository.RoomRepository
	auditRepo  *repository.AuditRepository
	authz      *Authorizer
	dispatcher *events.Dispatcher
	clock      clock.Clock
}

func NewRoomService(
	db *gorm.DB,
	roomRepo *repository.RoomRepository,
	auditRepo *repository.AuditRepository,
	authz *Authorizer,
	dispatcher *events.Dispatcher,
	clk clock.Clock,
) *RoomService {
	return &RoomService{
		db:         db,
		roomRepo:   roomRepo,
		auditRepo:  auditRepo,
		authz:      authz,
		dispatcher: dispatcher,
		clock:      clk,
	}
}

// AddRoomInput is the profile of a new room
type AddRoomInput struct {
	Name     string
	Location string
	RoomType string
}

// AddRoom registers a room. New rooms are enabled and inactive.
func (s *RoomService) AddRoom(ctx context.Context, p models.Principal, in AddRoomInput) (*models.Room, error) {
	if err := s.authz.RequireStaff(p); err != nil {
		return nil, err
	}

	roomType, err := models.ParseRoomType(in.RoomType)
	if err != nil {
		return nil, err
	}
	room, err := models.NewRoom(in.Name, strings.TrimSpace(in.Location), roomType)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.roomRepo.WithTx(tx).Create(ctx, room); err != nil {
			return err
		}
		return s.audit(ctx, tx, p, "room_added", room)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.RoomAdded, p, room)
	return room, nil
}

// RemoveRoom deletes a room. Only disabled, unoccupied rooms may go.
func (s *RoomService) RemoveRoom(ctx context.Context, p models.Principal, id uint) error {
	if err := s.authz.RequireStaff(p); err != nil {
		return err
	}

	var removed *models.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms := s.roomRepo.WithTx(tx)
		room, err := rooms.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := room.Removable(); err != nil {
			return err
		}
		if err := rooms.Delete(ctx, room.ID); err != nil {
			return err
		}
		removed = room
		return s.audit(ctx, tx, p, "room_removed", room)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.RoomRemoved, p, removed)
	return nil
}

// EnableRoom reopens a disabled room for booking
func (s *RoomService) EnableRoom(ctx context.Context, p models.Principal, id uint) (*models.Room, error) {
	return s.toggle(ctx, p, id, "room_enabled", events.RoomEnabled, (*models.Room).Enable)
}

// DisableRoom stops new bookings on a room. Existing bookings are kept.
func (s *RoomService) DisableRoom(ctx context.Context, p models.Principal, id uint) (*models.Room, error) {
	return s.toggle(ctx, p, id, "room_disabled", events.RoomDisabled, (*models.Room).Disable)
}

func (s *RoomService) toggle(ctx context.Context, p models.Principal, id uint, action string, eventType events.Type, apply func(*models.Room) error) (*models.Room, error) {
	if err := s.authz.RequireStaff(p); err != nil {
		return nil, err
	}

	var room *models.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms := s.roomRepo.WithTx(tx)
		var err error
		room, err = rooms.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(room); err != nil {
			return err
		}
		if err := rooms.Save(ctx, room); err != nil {
			return err
		}
		return s.audit(ctx, tx, p, action, room)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventType, p, room)
	return room, nil
}

// GetRoom retrieves a room by ID
func (s *RoomService) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	return s.roomRepo.FindByID(ctx, id)
}

// LocateRoom retrieves a room by its location code
func (s *RoomService) LocateRoom(ctx context.Context, location string) (*models.Room, error) {
	location = strings.TrimSpace(location)
	if err := models.ValidateLocation(location); err != nil {
		return nil, err
	}
	return s.roomRepo.FindByLocation(ctx, location)
}

// ListRooms lists all rooms, or those with the given operational status
func (s *RoomService) ListRooms(ctx context.Context, status string) ([]models.Room, error) {
	filter := repository.RoomFilter{}
	if status != "" {
		st, err := models.ParseOperationalStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	return s.roomRepo.List(ctx, filter)
}

// ListEnabledRooms lists rooms open for booking
func (s *RoomService) ListEnabledRooms(ctx context.Context) ([]models.Room, error) {
	return s.roomRepo.List(ctx, repository.RoomFilter{Status: models.RoomEnabled})
}

// ListRoomsByType lists rooms of one type
func (s *RoomService) ListRoomsByType(ctx context.Context, roomType string) ([]models.Room, error) {
	rt, err := models.ParseRoomType(roomType)
	if err != nil {
		return nil, err
	}
	return s.roomRepo.List(ctx, repository.RoomFilter{Type: rt})
}

func (s *RoomService) audit(ctx context.Context, tx *gorm.DB, p models.Principal, action string, room *models.Room) error {
	details := fmt.Sprintf("Room %s (%s, id=%d) %s", room.Location, room.Name, room.ID, room.OperationalStatus)
	return s.auditRepo.WithTx(tx).CreateAuditLog(ctx, s.authz.Subject(p), action, details)
}

func (s *RoomService) publish(ctx context.Context, eventType events.Type, p models.Principal, room *models.Room) {
	evt := events.New(eventType, s.clock.Now())
	evt.RoomID = room.ID
	evt.RoomLocation = room.Location
	evt.Actor = s.authz.Subject(p)
	evt.Status = string(room.OperationalStatus)
	s.dispatcher.Dispatch(ctx, evt)
}
