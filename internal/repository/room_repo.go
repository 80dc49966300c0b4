package repository

import (
	"context"
	"errors"
	"fmt"

	"room-booking-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// RoomFilter narrows room listings. Zero values match everything.
type RoomFilter struct {
	Type   models.RoomType
	Status models.OperationalStatus
}

// Create inserts a new room, rejecting duplicate location codes
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("room_location = ?", room.Location).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", models.ErrDuplicateLocation, room.Location)
	}

	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateLocation, room.Location)
		}
		return err
	}
	return nil
}

// FindByID retrieves a room by ID
func (r *RoomRepository) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// FindByIDForUpdate retrieves a room and holds a row lock on it until the
// surrounding transaction ends. Must be called on a repository bound to a
// transaction.
func (r *RoomRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := forUpdate(r.db.WithContext(ctx)).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// FindByLocation retrieves a room by its location code
func (r *RoomRepository) FindByLocation(ctx context.Context, location string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Where("room_location = ?", location).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrRoomNotFound, location)
		}
		return nil, err
	}
	return &room, nil
}

// List retrieves rooms matching the filter ordered by location
func (r *RoomRepository) List(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	q := r.db.WithContext(ctx).Model(&models.Room{})
	if filter.Type != "" {
		q = q.Where("room_type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("operational_status = ?", filter.Status)
	}

	var rooms []models.Room
	err := q.Order("room_location ASC").Find(&rooms).Error
	return rooms, err
}

// Save persists the mutable state of an existing room
func (r *RoomRepository) Save(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// Delete removes a room permanently
func (r *RoomRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Room{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrRoomNotFound
	}
	return nil
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// SQLite serializes writers on its own and rejects the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
