package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

const (
	HeaderSignature  = "X-Signature"
	HeaderDeliveryID = "X-Delivery-ID"
)

// WebhookConfigStore resolves a recipient's endpoint.
type WebhookConfigStore interface {
	Get(ctx context.Context, userID uint64) (*db.WebhookConfig, bool, error)
}

// DeliveryRecorder records the outcome of a delivery on the notification.
type DeliveryRecorder interface {
	UpdateDelivery(ctx context.Context, id uint64, status string, attempts int) error
}

// WebhookBody is the JSON document POSTed to receivers.
type WebhookBody struct {
	NotificationID uint64  `json:"notificationId"`
	Type           Kind    `json:"type"`
	Recipient      uint64  `json:"recipient"`
	Payload        Payload `json:"payload"`
	Timestamp      string  `json:"timestamp"`
}

// Dispatcher pushes notifications to recipient webhooks in the background.
// Each notification gets its own goroutine and up to MaxAttempts tries with
// exponential backoff.
type Dispatcher struct {
	store    WebhookConfigStore
	recorder DeliveryRecorder
	client   *http.Client
	log      *slog.Logger

	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher wires a Dispatcher to the webhook and notification tables.
// A nil client means http.DefaultClient.
func NewDispatcher(appCtx *app.AppContext, client *http.Client) *Dispatcher {
	return newDispatcher(
		appCtx,
		repository.NewWebhookRepository(appCtx.DB),
		repository.NewNotificationRepository(appCtx.DB),
		client,
	)
}

func newDispatcher(appCtx *app.AppContext, store WebhookConfigStore, recorder DeliveryRecorder, client *http.Client) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	cfg := appCtx.Config.Webhook
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:       store,
		recorder:    recorder,
		client:      client,
		log:         appCtx.Logger.With("component", "webhook"),
		timeout:     cfg.Timeout,
		maxAttempts: maxAttempts,
		backoffBase: cfg.BackoffBase,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Enqueue schedules delivery and returns immediately.
func (d *Dispatcher) Enqueue(n Notification) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn("dispatcher closed, dropping delivery", "notification", n.ID)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.deliver(d.ctx, n)
	}()
}

// Close stops accepting work and waits for in-flight deliveries. If ctx ends
// first, outstanding deliveries are cancelled and ctx.Err is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	log := d.log.With("notification", n.ID, "recipient", n.RecipientID)

	hook, ok, err := d.store.Get(ctx, n.RecipientID)
	if err != nil {
		log.Error("webhook lookup failed", "err", err)
		d.record(ctx, n.ID, db.DeliveryFailed, 0)
		return
	}
	if !ok || !hook.Enabled || hook.URL == "" {
		d.record(ctx, n.ID, db.DeliverySkipped, 0)
		return
	}

	body, err := json.Marshal(WebhookBody{
		NotificationID: n.ID,
		Type:           n.Kind,
		Recipient:      n.RecipientID,
		Payload:        n.Payload,
		Timestamp:      n.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		log.Error("encode webhook body", "err", err)
		d.record(ctx, n.ID, db.DeliveryFailed, 0)
		return
	}
	signature := Sign(hook.Secret, body)
	deliveryID := uuid.NewString()

	attempts := 0
	err = backoff.RetryNotify(func() error {
		attempts++
		return d.post(ctx, hook.URL, body, signature, deliveryID)
	}, d.RetryPolicy(ctx), func(err error, wait time.Duration) {
		log.Warn("webhook attempt failed", "attempt", attempts, "retry_in", wait, "err", err)
	})
	if err == nil {
		log.Info("webhook delivered", "attempt", attempts, "delivery_id", deliveryID)
		d.record(ctx, n.ID, db.DeliveryDelivered, attempts)
		return
	}

	err = fmt.Errorf("%w: notification %d after %d attempts: %v", svcErr.ErrUpstreamDelivery, n.ID, attempts, err)
	log.Error("webhook delivery failed", "err", err, "delivery_id", deliveryID)
	d.record(ctx, n.ID, db.DeliveryFailed, attempts)
}

// RetryPolicy allows MaxAttempts tries. The wait before attempt n (n >= 2)
// is base * 2^(n-2), without jitter, and ends early when ctx is done.
func (d *Dispatcher) RetryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.backoffBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.maxAttempts-1)), ctx)
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte, signature, deliveryID string) error {
	reqCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set(HeaderDeliveryID, deliveryID)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("receiver responded %d", resp.StatusCode)
	}
	return nil
}

// record survives dispatcher shutdown so the final status is always written.
func (d *Dispatcher) record(ctx context.Context, id uint64, status string, attempts int) {
	if err := d.recorder.UpdateDelivery(context.WithoutCancel(ctx), id, status, attempts); err != nil {
		d.log.Error("record delivery status", "notification", id, "status", status, "err", err)
	}
}

// Sign returns the lowercase hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
