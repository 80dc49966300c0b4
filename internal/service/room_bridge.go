package service

import (
	"context"
	"errors"
	"log"

	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"

	"gorm.io/gorm"
)

// RoomBridge mirrors booking check-in state onto the room's activity flag.
// Both hooks run inside the caller's transaction.
type RoomBridge struct {
	rooms    *repository.RoomRepository
	bookings *repository.BookingRepository
}

func NewRoomBridge(rooms *repository.RoomRepository, bookings *repository.BookingRepository) *RoomBridge {
	return &RoomBridge{rooms: rooms, bookings: bookings}
}

// OnCheckedIn marks the booking's room active. A room that is already
// active is left alone.
func (b *RoomBridge) OnCheckedIn(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	rooms := b.rooms.WithTx(tx)
	room, err := rooms.FindByIDForUpdate(ctx, booking.RoomID)
	if err != nil {
		return err
	}

	if err := room.Activate(); err != nil {
		if errors.Is(err, models.ErrAlreadyInState) {
			log.Printf("Room %s already active on check-in of booking %d, leaving as is", room.Location, booking.ID)
			return nil
		}
		return err
	}
	return rooms.Save(ctx, room)
}

// OnReleased deactivates the room after a booking leaves CHECKED_IN or
// ends. It works in a savepoint and only logs failures: the booking write
// that triggered it must stand, and the next sweep can correct the room.
func (b *RoomBridge) OnReleased(ctx context.Context, tx *gorm.DB, booking *models.Booking) {
	err := tx.Transaction(func(sp *gorm.DB) error {
		rooms := b.rooms.WithTx(sp)
		room, err := rooms.FindByIDForUpdate(ctx, booking.RoomID)
		if err != nil {
			return err
		}
		if !room.IsActive() {
			return nil
		}

		occupants, err := b.bookings.WithTx(sp).List(ctx, repository.BookingFilter{
			RoomID: booking.RoomID,
			Status: models.StatusCheckedIn,
		})
		if err != nil {
			return err
		}
		for _, other := range occupants {
			if other.ID != booking.ID {
				return nil
			}
		}

		if err := room.Deactivate(); err != nil {
			return err
		}
		return rooms.Save(ctx, room)
	})
	if err != nil {
		log.Printf("Warning: failed to deactivate room %d after booking %d (%s): %v",
			booking.RoomID, booking.ID, booking.Status, err)
	}
}
