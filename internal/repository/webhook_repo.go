package repository

import (
	"context"
	"errors"

	"github.com/oggyb/campus-match/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookRepository stores per-user webhook endpoints and signing secrets.
type WebhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new repository bound to the given DB connection.
func NewWebhookRepository(database *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: database}
}

// Get returns the user's webhook, or ok=false when none is configured.
func (r *WebhookRepository) Get(ctx context.Context, userID uint64) (*db.WebhookConfig, bool, error) {
	var cfg db.WebhookConfig
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &cfg, true, nil
}

// Upsert creates or replaces the user's webhook.
func (r *WebhookRepository) Upsert(ctx context.Context, cfg *db.WebhookConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "secret", "enabled", "updated_at"}),
		}).
		Create(cfg).Error
}
