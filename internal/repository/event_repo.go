package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jmpark/foyer/internal/domain"
)

// EventRepository handles recognition-event audit records.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates an EventRepository bound to db.
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new recognition event.
func (r *EventRepository) Create(ctx context.Context, event *domain.RecognitionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CountByKind returns the number of events of the given kind.
func (r *EventRepository) CountByKind(ctx context.Context, kind domain.EventKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.RecognitionEvent{}).
		Where("kind = ?", kind).
		Count(&count).Error
	return count, err
}

// RecentByVisitor returns the most recent events for a visitor, newest first.
func (r *EventRepository) RecentByVisitor(ctx context.Context, visitorID string, limit int) ([]domain.RecognitionEvent, error) {
	var events []domain.RecognitionEvent
	err := r.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
