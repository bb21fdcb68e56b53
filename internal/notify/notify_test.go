package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
)

type fixture struct {
	db         *gorm.DB
	appCtx     *app.AppContext
	center     *notify.Center
	dispatcher *notify.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	rc, _ := testutil.NewCache(t)
	appCtx := app.New(testutil.Config(), gdb, rc, logger.Discard(), nil)
	d := notify.NewDispatcher(appCtx, nil)
	return &fixture{
		db:         gdb,
		appCtx:     appCtx,
		center:     notify.NewCenter(appCtx, d),
		dispatcher: d,
	}
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.dispatcher.Close(ctx))
}

func (f *fixture) hook(t *testing.T, userID uint64, url, secret string) {
	t.Helper()
	repo := repository.NewWebhookRepository(f.db)
	require.NoError(t, repo.Upsert(context.Background(), &db.WebhookConfig{
		UserID: userID, URL: url, Secret: secret, Enabled: true,
	}))
}

func (f *fixture) row(t *testing.T, id uint64) *db.Notification {
	t.Helper()
	row, err := repository.NewNotificationRepository(f.db).FindByID(context.Background(), id)
	require.NoError(t, err)
	return row
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	like, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1, Message: "hey"})
	require.NoError(t, err)
	assert.Equal(t, notify.KindLike, like.Kind)
	assert.False(t, like.IsRead)

	_, err = f.center.Create(ctx, 2, notify.MatchPayload{MatchID: 7, PeerID: 1})
	require.NoError(t, err)
	_, err = f.center.Create(ctx, 3, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	f.drain(t)

	list, err := f.center.List(ctx, 2, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	kinds := []notify.Kind{list[0].Kind, list[1].Kind}
	assert.ElementsMatch(t, []notify.Kind{notify.KindLike, notify.KindMatch}, kinds)

	for _, n := range list {
		if p, ok := n.Payload.(notify.LikePayload); ok {
			assert.Equal(t, "hey", p.Message)
		}
		assert.Equal(t, db.DeliverySkipped, n.DeliveryStatus)
	}

	_, err = f.center.Create(ctx, 0, notify.LikePayload{LikerID: 1})
	assert.ErrorIs(t, err, svcErr.ErrValidation)
	_, err = f.center.Create(ctx, 2, nil)
	assert.Error(t, err)
}

func TestMarkAsRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	n, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	f.drain(t)

	count, err := f.center.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = f.center.MarkAsRead(ctx, n.ID, 3)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	_, err = f.center.MarkAsRead(ctx, 9999, 2)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	read, err := f.center.MarkAsRead(ctx, n.ID, 2)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	again, err := f.center.MarkAsRead(ctx, n.ID, 2)
	require.NoError(t, err)
	assert.True(t, again.IsRead)
	assert.True(t, read.ReadAt.Equal(*again.ReadAt))

	count, err = f.center.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	unread, err := f.center.List(ctx, 2, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestCountUnreadCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.center.Create(ctx, 4, notify.LikePayload{LikerID: uint64(10 + i)})
		require.NoError(t, err)
	}
	f.drain(t)

	// first call fills the cache from the DB
	count, err := f.center.CountUnread(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	key := f.appCtx.RedisCache.KeyForUnreadCount(4)
	cached, ok, err := f.appCtx.RedisCache.GetCounter(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), cached)
}

func TestDispatcherRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	f.hook(t, 2, srv.URL, "secret")

	n, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, int32(5), hits.Load())
	row := f.row(t, n.ID)
	assert.Equal(t, db.DeliveryFailed, row.DeliveryStatus)
	assert.Equal(t, 5, row.DeliveryAttempts)

	// a failed delivery never removes the notification
	list, err := f.center.List(ctx, 2, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestDispatcherSignsBody(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var (
		mu        sync.Mutex
		body      []byte
		signature string
		delivery  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = b
		signature = r.Header.Get(notify.HeaderSignature)
		delivery = r.Header.Get(notify.HeaderDeliveryID)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	f.hook(t, 2, srv.URL, "s3cr3t")

	n, err := f.center.Create(ctx, 2, notify.MatchPayload{MatchID: 3, PeerID: 1})
	require.NoError(t, err)
	f.drain(t)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, notify.Verify("s3cr3t", body, signature))
	assert.False(t, notify.Verify("other", body, signature))
	assert.NotEmpty(t, delivery)

	var got struct {
		NotificationID uint64          `json:"notificationId"`
		Type           string          `json:"type"`
		Recipient      uint64          `json:"recipient"`
		Payload        json.RawMessage `json:"payload"`
		Timestamp      string          `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, n.ID, got.NotificationID)
	assert.Equal(t, "match", got.Type)
	assert.Equal(t, uint64(2), got.Recipient)
	assert.JSONEq(t, `{"match_id":3,"peer_id":1}`, string(got.Payload))
	_, err = time.Parse(time.RFC3339Nano, got.Timestamp)
	assert.NoError(t, err)

	row := f.row(t, n.ID)
	assert.Equal(t, db.DeliveryDelivered, row.DeliveryStatus)
	assert.Equal(t, 1, row.DeliveryAttempts)
}

func TestDispatcherRecoversAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	f.hook(t, 2, srv.URL, "k")

	n, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	f.drain(t)

	row := f.row(t, n.ID)
	assert.Equal(t, db.DeliveryDelivered, row.DeliveryStatus)
	assert.Equal(t, 3, row.DeliveryAttempts)
}

func TestDispatcherDisabledHookIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	require.NoError(t, repository.NewWebhookRepository(f.db).Upsert(ctx, &db.WebhookConfig{
		UserID: 2, URL: srv.URL, Secret: "k", Enabled: false,
	}))

	n, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	f.drain(t)

	assert.Zero(t, hits.Load())
	assert.Equal(t, db.DeliverySkipped, f.row(t, n.ID).DeliveryStatus)
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.drain(t)

	n, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	assert.Equal(t, db.DeliveryPending, f.row(t, n.ID).DeliveryStatus)
}

func TestDispatcherTimesOutHangingReceiver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	timeout := f.appCtx.Config.Webhook.Timeout

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(10 * timeout):
		}
	}))
	defer srv.Close()
	f.hook(t, 2, srv.URL, "k")

	start := time.Now()
	n, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), timeout)

	f.drain(t)

	assert.Equal(t, int32(5), hits.Load())
	row := f.row(t, n.ID)
	assert.Equal(t, db.DeliveryFailed, row.DeliveryStatus)
	assert.Equal(t, 5, row.DeliveryAttempts)
}

func TestRequeuePendingDeliversLeftovers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	f.hook(t, 2, srv.URL, "k")

	// stored by a run that never delivered it
	storeOnly := notify.NewCenter(f.appCtx, nil)
	n, err := storeOnly.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)
	assert.Equal(t, db.DeliveryPending, f.row(t, n.ID).DeliveryStatus)

	count, err := storeOnly.RequeuePending(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)

	// newer than the cutoff, may still be in flight
	count, err = f.center.RequeuePending(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = f.center.RequeuePending(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	f.drain(t)

	assert.Equal(t, int32(1), hits.Load())
	row := f.row(t, n.ID)
	assert.Equal(t, db.DeliveryDelivered, row.DeliveryStatus)
	assert.Equal(t, 1, row.DeliveryAttempts)
}

func TestRunRequeueSweepsOnStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.drain(t)

	// enqueued after close, so it stays pending
	n, err := f.center.Create(ctx, 2, notify.LikePayload{LikerID: 1})
	require.NoError(t, err)

	restarted := notify.NewDispatcher(f.appCtx, nil)
	center := notify.NewCenter(f.appCtx, restarted)
	time.Sleep(2 * time.Millisecond)
	center.RunRequeue(ctx, 0)

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, restarted.Close(closeCtx))

	// no webhook configured, so the sweep resolves it as skipped
	assert.Equal(t, db.DeliverySkipped, f.row(t, n.ID).DeliveryStatus)
}

func TestRetryPolicyDoubles(t *testing.T) {
	appCtx := app.New(testutil.Config(), nil, nil, logger.Discard(), nil)
	appCtx.Config.Webhook.BackoffBase = time.Second
	d := notify.NewDispatcher(appCtx, nil)

	policy := d.RetryPolicy(context.Background())
	var waits []time.Duration
	for {
		next := policy.NextBackOff()
		if next == backoff.Stop {
			break
		}
		waits = append(waits, next)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, backoff.Stop, d.RetryPolicy(ctx).NextBackOff())
}
