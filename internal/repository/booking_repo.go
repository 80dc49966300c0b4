package repository

import (
	"context"
	"errors"
	"time"

	"room-booking-backend/internal/models"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

// BookingFilter narrows booking listings. Zero values match everything.
type BookingFilter struct {
	RoomID   uint
	BookedBy string
	Status   models.BookingStatus
}

// Create inserts a new booking
func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// FindByID retrieves a booking by ID
func (r *BookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List retrieves bookings matching the filter ordered by start time
func (r *BookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.RoomID != 0 {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.BookedBy != "" {
		q = q.Where("booked_by = ?", filter.BookedBy)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var bookings []models.Booking
	err := q.Order("start_time ASC, id ASC").Find(&bookings).Error
	return bookings, err
}

// ExistsOverlapping reports whether the room has a booking in one of the
// given statuses whose range intersects tr. Touching ranges do not count.
func (r *BookingRepository) ExistsOverlapping(ctx context.Context, roomID uint, tr models.TimeRange, statuses []models.BookingStatus) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("room_id = ? AND status IN ?", roomID, statuses).
		Where("start_time < ? AND end_time > ?", tr.EndTime.UTC(), tr.StartTime.UTC()).
		Count(&count).Error
	return count > 0, err
}

// ListOverlapping retrieves bookings of a room in the given statuses that
// intersect [from, to)
func (r *BookingRepository) ListOverlapping(ctx context.Context, roomID uint, from, to time.Time, statuses []models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status IN ?", roomID, statuses).
		Where("start_time < ? AND end_time > ?", to.UTC(), from.UTC()).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

// FindStartedBy retrieves bookings in status whose start time is at or before t
func (r *BookingRepository) FindStartedBy(ctx context.Context, status models.BookingStatus, t time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", status, t.UTC()).
		Order("start_time ASC, id ASC").
		Find(&bookings).Error
	return bookings, err
}

// FindEndedBy retrieves bookings in status whose end time is at or before t
func (r *BookingRepository) FindEndedBy(ctx context.Context, status models.BookingStatus, t time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", status, t.UTC()).
		Order("end_time ASC, id ASC").
		Find(&bookings).Error
	return bookings, err
}

// UpdateStatus persists b.Status, provided the stored row still carries
// status from and b's version. The version is bumped on success; a
// concurrent writer makes this return ErrStaleBooking.
func (r *BookingRepository) UpdateStatus(ctx context.Context, b *models.Booking, from models.BookingStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ? AND version = ?", b.ID, from, b.Version).
		Updates(map[string]interface{}{
			"status":  b.Status,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrStaleBooking
	}
	b.Version++
	return nil
}
