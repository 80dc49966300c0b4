package repository

import (
	"context"

	"room-booking-backend/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx}
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, actor, action, details string) error {
	entry := &models.AuditLog{
		Actor:   actor,
		Action:  action,
		Details: details,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListAuditLogs retrieves the most recent entries, newest first
func (r *AuditRepository) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
