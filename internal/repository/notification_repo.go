package repository

import (
	"context"
	"time"

	"github.com/oggyb/campus-match/internal/db"

	"gorm.io/gorm"
)

// NotificationRepository persists notifications and their read/delivery state.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new repository bound to the given DB connection.
func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

// WithTx returns a copy of the repository bound to tx.
func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

// Create inserts n and fills its generated fields.
func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	if n.DeliveryStatus == "" {
		n.DeliveryStatus = db.DeliveryPending
	}
	return r.db.WithContext(ctx).Create(n).Error
}

// FindByID loads a notification. Returns gorm.ErrRecordNotFound if absent.
func (r *NotificationRepository) FindByID(ctx context.Context, id uint64) (*db.Notification, error) {
	var n db.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead flips is_read false → true. It never clears the flag, and
// changed is false when the row was already read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns a recipient's notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context, recipientID uint64, unreadOnly bool) ([]db.Notification, error) {
	var rows []db.Notification
	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

// CountUnread counts a recipient's unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

// UpdateDelivery records the outcome of webhook delivery.
func (r *NotificationRepository) UpdateDelivery(ctx context.Context, id uint64, status string, attempts int) error {
	return r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"delivery_status": status, "delivery_attempts": attempts}).Error
}

// ListPendingDelivery returns up to limit notifications still awaiting
// delivery that were created before cutoff, in id order after afterID.
func (r *NotificationRepository) ListPendingDelivery(ctx context.Context, cutoff time.Time, afterID uint64, limit int) ([]db.Notification, error) {
	var rows []db.Notification
	err := r.db.WithContext(ctx).
		Where("delivery_status = ? AND created_at < ? AND id > ?", db.DeliveryPending, cutoff, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
