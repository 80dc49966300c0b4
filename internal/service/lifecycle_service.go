package service

import (
	"context"
	"log"
	"time"

	"room-booking-backend/internal/clock"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"

	"gorm.io/gorm"
)

// SweepResult counts the bookings each sweep advanced
type SweepResult struct {
	CheckInRequired int
	NoShow          int
	Completed       int
}

// LifecycleService advances bookings across their start, grace and end
// boundaries on a fixed interval
type LifecycleService struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
	bridge      *RoomBridge
	dispatcher  *events.Dispatcher
	clock       clock.Clock
	interval    time.Duration
	grace       time.Duration
}

func NewLifecycleService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	bridge *RoomBridge,
	dispatcher *events.Dispatcher,
	clk clock.Clock,
	interval time.Duration,
	grace time.Duration,
) *LifecycleService {
	return &LifecycleService{
		db:          db,
		bookingRepo: bookingRepo,
		bridge:      bridge,
		dispatcher:  dispatcher,
		clock:       clk,
		interval:    interval,
		grace:       grace,
	}
}

// Start runs a sweep immediately and then on every tick until ctx is done
func (l *LifecycleService) Start(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	log.Printf("Booking lifecycle scheduler started - sweeping every %s (grace %s)", l.interval, l.grace)
	l.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Booking lifecycle scheduler stopped")
			return
		case <-ticker.C:
			l.RunOnce(ctx)
		}
	}
}

// RunOnce performs the three sweeps against the current time
func (l *LifecycleService) RunOnce(ctx context.Context) SweepResult {
	now := l.clock.Now()
	var result SweepResult

	// 1. CONFIRMED -> CHECK_IN_REQUIRED once the start time is reached
	due, err := l.bookingRepo.FindStartedBy(ctx, models.StatusConfirmed, now)
	if err != nil {
		log.Printf("Error fetching bookings due for check-in: %v", err)
	} else {
		result.CheckInRequired = l.sweep(ctx, "check-in required", due, now, events.BookingCheckInRequired,
			(*models.Booking).RequireCheckIn, false)
	}

	// 2. CHECK_IN_REQUIRED -> NO_SHOW once the grace period has passed
	lapsed, err := l.bookingRepo.FindStartedBy(ctx, models.StatusCheckInRequired, now.Add(-l.grace))
	if err != nil {
		log.Printf("Error fetching bookings past the check-in grace period: %v", err)
	} else {
		result.NoShow = l.sweep(ctx, "no-show", lapsed, now, events.BookingNoShow,
			(*models.Booking).MarkNoShow, true)
	}

	// 3. CHECKED_IN -> COMPLETED once the end time is reached
	ended, err := l.bookingRepo.FindEndedBy(ctx, models.StatusCheckedIn, now)
	if err != nil {
		log.Printf("Error fetching bookings due for completion: %v", err)
	} else {
		result.Completed = l.sweep(ctx, "completion", ended, now, events.BookingCompleted,
			(*models.Booking).Complete, true)
	}

	if result.CheckInRequired+result.NoShow+result.Completed > 0 {
		log.Printf("Lifecycle sweep at %s: %d check-in required, %d no-show, %d completed",
			now.Format(time.RFC3339), result.CheckInRequired, result.NoShow, result.Completed)
	}
	return result
}

// sweep applies advance to each candidate and writes them in one
// transaction, one savepoint per booking. A booking that fails, or that
// another writer advanced first, is logged and skipped.
func (l *LifecycleService) sweep(
	ctx context.Context,
	name string,
	candidates []models.Booking,
	now time.Time,
	eventType events.Type,
	advance func(*models.Booking) error,
	release bool,
) int {
	if len(candidates) == 0 {
		return 0
	}

	var advanced []events.Event
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range candidates {
			b := &candidates[i]
			from := b.Status

			err := tx.Transaction(func(sp *gorm.DB) error {
				if err := advance(b); err != nil {
					return err
				}
				if err := l.bookingRepo.WithTx(sp).UpdateStatus(ctx, b, from); err != nil {
					return err
				}
				if release {
					l.bridge.OnReleased(ctx, sp, b)
				}
				return nil
			})
			if err != nil {
				if isStale(err) {
					log.Printf("Skipping %s for booking %d: already changed by another writer", name, b.ID)
				} else {
					log.Printf("Error applying %s to booking %d: %v", name, b.ID, err)
				}
				b.Status = from
				continue
			}
			advanced = append(advanced, bookingEvent(eventType, b, "scheduler", now))
		}
		return nil
	})
	if err != nil {
		log.Printf("Error committing %s sweep: %v", name, err)
		return 0
	}

	l.dispatcher.Dispatch(ctx, advanced...)
	return len(advanced)
}
