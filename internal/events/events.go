// Package events carries booking and room lifecycle notifications to
// downstream consumers.
package events

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Type names a lifecycle event. Values double as AMQP routing keys.
type Type string

const (
	BookingCreated         Type = "booking.created"
	BookingCheckInRequired Type = "booking.check_in_required"
	BookingCheckedIn       Type = "booking.checked_in"
	BookingNoShow          Type = "booking.no_show"
	BookingCompleted       Type = "booking.completed"
	BookingCancelled       Type = "booking.cancelled"

	RoomAdded    Type = "room.added"
	RoomEnabled  Type = "room.enabled"
	RoomDisabled Type = "room.disabled"
	RoomRemoved  Type = "room.removed"
)

// Event is the payload published for every state change
type Event struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	BookingID    uint      `json:"booking_id,omitempty"`
	RoomID       uint      `json:"room_id"`
	RoomLocation string    `json:"room_location"`
	Actor        string    `json:"actor,omitempty"`
	Status       string    `json:"status,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// New stamps an event with a fresh ID
func New(eventType Type, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
	}
}

// Publisher delivers events to one destination
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher fans events out to every registered publisher. Failures are
// logged and never returned, so a broken sink cannot undo a committed
// state change.
type Dispatcher struct {
	publishers []Publisher
}

func NewDispatcher(publishers ...Publisher) *Dispatcher {
	return &Dispatcher{publishers: publishers}
}

// Dispatch publishes events in order
func (d *Dispatcher) Dispatch(ctx context.Context, evts ...Event) {
	if d == nil {
		return
	}
	for _, evt := range evts {
		for _, p := range d.publishers {
			if err := p.Publish(ctx, evt); err != nil {
				log.Printf("Error publishing event %s (%s): %v", evt.ID, evt.Type, err)
			}
		}
	}
}

// LogPublisher writes events to the standard logger
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, evt Event) error {
	if evt.BookingID != 0 {
		log.Printf("[event] %s booking=%d room=%s status=%s actor=%s",
			evt.Type, evt.BookingID, evt.RoomLocation, evt.Status, evt.Actor)
		return nil
	}
	log.Printf("[event] %s room=%s actor=%s", evt.Type, evt.RoomLocation, evt.Actor)
	return nil
}
