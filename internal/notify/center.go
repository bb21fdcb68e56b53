// Package notify persists kind-tagged notifications, manages their read state
// and hands them to the webhook dispatcher.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

// Publisher receives notifications after they are durably stored.
type Publisher interface {
	Enqueue(n Notification)
}

// Center is the notification store. Creation never waits on delivery.
type Center struct {
	repo      *repository.NotificationRepository
	cache     *cache.RedisCache
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewCenter builds a Center on the AppContext DB and cache. publisher may be
// nil, in which case notifications are only stored.
func NewCenter(appCtx *app.AppContext, publisher Publisher) *Center {
	return &Center{
		repo:      repository.NewNotificationRepository(appCtx.DB),
		cache:     appCtx.RedisCache,
		publisher: publisher,
		log:       appCtx.Logger.With("component", "notify"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a notification and enqueues it for delivery.
func (c *Center) Create(ctx context.Context, recipientID uint64, p Payload) (Notification, error) {
	n, err := c.CreateTx(ctx, nil, recipientID, p)
	if err != nil {
		return Notification{}, err
	}
	c.Publish(ctx, n)
	return n, nil
}

// CreateTx stores a notification inside tx (or the default connection when
// tx is nil) without publishing it. Callers publish after commit.
func (c *Center) CreateTx(ctx context.Context, tx *gorm.DB, recipientID uint64, p Payload) (Notification, error) {
	if recipientID == 0 {
		return Notification{}, svcErr.Validation("recipient is required")
	}
	row, err := toRow(recipientID, p)
	if err != nil {
		return Notification{}, err
	}

	repo := c.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	if err := repo.Create(ctx, row); err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return fromRow(*row)
}

// Publish bumps unread counters and hands notifications to the publisher.
func (c *Center) Publish(ctx context.Context, ns ...Notification) {
	for _, n := range ns {
		if c.cache != nil {
			if err := c.cache.AdjustCounter(ctx, c.cache.KeyForUnreadCount(n.RecipientID), 1); err != nil {
				c.log.Warn("unread counter update failed", "recipient", n.RecipientID, "err", err)
			}
		}
		if c.publisher != nil {
			c.publisher.Enqueue(n)
		}
		c.log.Debug("notification published", "id", n.ID, "kind", n.Kind, "recipient", n.RecipientID)
	}
}

const requeueBatch = 100

// RequeuePending hands notifications still marked pending and created before
// cutoff back to the publisher. Rows newer than cutoff may still have a
// delivery in flight and are left alone.
func (c *Center) RequeuePending(ctx context.Context, cutoff time.Time) (int, error) {
	if c.publisher == nil {
		return 0, nil
	}
	var (
		total   int
		afterID uint64
	)
	for {
		rows, err := c.repo.ListPendingDelivery(ctx, cutoff, afterID, requeueBatch)
		if err != nil {
			c.log.Error("list pending deliveries failed", "err", err)
			return total, fmt.Errorf("list pending deliveries: %w", err)
		}
		for _, row := range rows {
			afterID = row.ID
			n, err := fromRow(row)
			if err != nil {
				c.log.Error("skipping undecodable notification", "id", row.ID, "err", err)
				continue
			}
			c.publisher.Enqueue(n)
			total++
		}
		if len(rows) < requeueBatch {
			break
		}
	}
	if total > 0 {
		c.log.Info("requeued pending deliveries", "count", total)
	}
	return total, nil
}

// RunRequeue requeues everything pending once, then every interval requeues
// rows older than interval, until ctx ends. A non-positive interval only runs
// the first sweep.
func (c *Center) RunRequeue(ctx context.Context, interval time.Duration) {
	_, _ = c.RequeuePending(ctx, c.now())
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.RequeuePending(ctx, c.now().Add(-interval))
		}
	}
}

// MarkAsRead marks a notification read on behalf of requester.
//
// Behavior:
//   - ErrNotFound for an unknown id, ErrForbidden if requester is not the recipient.
//   - Idempotent: an already-read notification is returned unchanged.
func (c *Center) MarkAsRead(ctx context.Context, id, requester uint64) (Notification, error) {
	changed, err := c.MarkAsReadTx(ctx, nil, id, requester)
	if err != nil {
		return Notification{}, err
	}
	if changed {
		c.ReadStateChanged(ctx, requester)
	}

	row, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return Notification{}, fmt.Errorf("reload notification: %w", err)
	}
	return fromRow(*row)
}

// MarkAsReadTx is MarkAsRead inside tx. changed reports whether the row went
// from unread to read; callers should call ReadStateChanged after commit.
func (c *Center) MarkAsReadTx(ctx context.Context, tx *gorm.DB, id, requester uint64) (bool, error) {
	repo := c.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}

	row, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, svcErr.NotFound("notification")
	}
	if err != nil {
		return false, fmt.Errorf("load notification: %w", err)
	}
	if row.RecipientID != requester {
		return false, fmt.Errorf("notification %d: %w", id, svcErr.ErrForbidden)
	}
	if row.IsRead {
		return false, nil
	}

	changed, err := repo.MarkRead(ctx, id, c.now())
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return changed, nil
}

// ReadStateChanged decrements the cached unread count of recipient.
func (c *Center) ReadStateChanged(ctx context.Context, recipientID uint64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.AdjustCounter(ctx, c.cache.KeyForUnreadCount(recipientID), -1); err != nil {
		c.log.Warn("unread counter update failed", "recipient", recipientID, "err", err)
	}
}

// List returns the recipient's notifications, newest first.
func (c *Center) List(ctx context.Context, recipientID uint64, unreadOnly bool) ([]Notification, error) {
	rows, err := c.repo.List(ctx, recipientID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]Notification, 0, len(rows))
	for _, row := range rows {
		n, err := fromRow(row)
		if err != nil {
			c.log.Error("skipping undecodable notification", "id", row.ID, "err", err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// CountUnread returns the unread count, cache-first with DB fallback.
func (c *Center) CountUnread(ctx context.Context, recipientID uint64) (int64, error) {
	var key string
	if c.cache != nil {
		key = c.cache.KeyForUnreadCount(recipientID)
		if n, ok, err := c.cache.GetCounter(ctx, key); err == nil && ok {
			return n, nil
		}
	}

	n, err := c.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	if c.cache != nil {
		_ = c.cache.SetCounter(ctx, key, n)
	}
	return n, nil
}
