// Package matching records likes and dislikes, detects mutual interest and
// creates matches.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/interest"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/utils/pagination"
	"github.com/oggyb/campus-match/internal/validation"
)

// UserDirectory resolves users to their interests, region and block-list.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint64) (*db.User, error)
	ListActiveExcept(ctx context.Context, exclude []uint64) ([]db.User, error)
	BlockedWith(ctx context.Context, userID uint64) ([]uint64, error)
}

// LikeResult reports what a LikeUser call changed.
type LikeResult struct {
	// Created is false when the like edge already existed.
	Created bool   `json:"created"`
	Matched bool   `json:"matched"`
	MatchID uint64 `json:"match_id,omitempty"`
}

// Person is a SearchPeople hit.
type Person struct {
	ID        uint64   `json:"id"`
	Username  string   `json:"username"`
	Region    string   `json:"region,omitempty"`
	Interests []string `json:"interests"`
	Shared    int      `json:"shared"`
}

// Liker is one entry of a "who liked me" list.
type Liker struct {
	UserID  uint64    `json:"user_id"`
	Message string    `json:"message,omitempty"`
	LikedAt time.Time `json:"liked_at"`
}

// Match is a match seen from one side.
type Match struct {
	ID        uint64    `json:"id"`
	PeerID    uint64    `json:"peer_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Engine implements the social-matching graph on top of the repositories.
type Engine struct {
	db       *gorm.DB
	users    UserDirectory
	likes    *repository.LikeRepository
	matches  *repository.MatchRepository
	center   *notify.Center
	cache    *cache.RedisCache
	taxonomy *interest.Taxonomy
	log      *slog.Logger

	dislikeTTL time.Duration
	now        func() time.Time
}

// NewEngine creates an Engine with dependencies from AppContext.
func NewEngine(appCtx *app.AppContext, center *notify.Center) *Engine {
	return NewEngineWithDirectory(appCtx, center, repository.NewUserRepository(appCtx.DB))
}

// NewEngineWithDirectory is NewEngine with an explicit user directory.
func NewEngineWithDirectory(appCtx *app.AppContext, center *notify.Center, users UserDirectory) *Engine {
	return &Engine{
		db:         appCtx.DB,
		users:      users,
		likes:      repository.NewLikeRepository(appCtx.DB),
		matches:    repository.NewMatchRepository(appCtx.DB),
		center:     center,
		cache:      appCtx.RedisCache,
		taxonomy:   appCtx.Taxonomy,
		log:        appCtx.Logger.With("component", "matching"),
		dislikeTTL: appCtx.Config.Matching.DislikeTTL,
		now:        time.Now,
	}
}

// LikeUser records liker → target and creates a match when the like is mutual.
//
// Behavior:
//   - The edge insert commits on its own before the reciprocal check, so of two
//     concurrent opposite likes at least one sees both edges.
//   - The match insert relies on the unique canonical-pair index; only the
//     winning insert creates the two Match notifications.
//   - A new edge without a reciprocal creates one Like notification.
//   - A repeated like creates nothing.
//   - Notifications are published after the transaction commits.
//
// Example:
//
//	engine.LikeUser(ctx, 1, 2, "coffee?")
func (e *Engine) LikeUser(ctx context.Context, likerID, targetID uint64, message string) (LikeResult, error) {
	e.log.Debug("LikeUser called", "liker", likerID, "target", targetID)

	if err := e.checkPair(ctx, likerID, targetID); err != nil {
		return LikeResult{}, err
	}

	created, err := e.likes.InsertLike(ctx, likerID, targetID, message)
	if err != nil {
		e.log.Error("insert like failed", "liker", likerID, "target", targetID, "err", err)
		return LikeResult{}, fmt.Errorf("insert like: %w", err)
	}
	if created {
		e.invalidateLikeCount(ctx, targetID)
	}

	result := LikeResult{Created: created}
	var pending []notify.Notification

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reciprocal, err := e.likes.WithTx(tx).HasLiked(ctx, targetID, likerID)
		if err != nil {
			return fmt.Errorf("check reciprocal: %w", err)
		}

		if !reciprocal {
			if !created {
				return nil
			}
			n, err := e.center.CreateTx(ctx, tx, targetID, notify.LikePayload{LikerID: likerID, Message: message})
			if err != nil {
				return err
			}
			pending = append(pending, n)
			return nil
		}

		match, won, err := e.matches.WithTx(tx).CreateIfAbsent(ctx, likerID, targetID)
		if err != nil {
			return fmt.Errorf("create match: %w", err)
		}
		result.Matched = true
		result.MatchID = match.ID
		if !won {
			return nil
		}

		for _, side := range [][2]uint64{{likerID, targetID}, {targetID, likerID}} {
			n, err := e.center.CreateTx(ctx, tx, side[0], notify.MatchPayload{MatchID: match.ID, PeerID: side[1]})
			if err != nil {
				return err
			}
			pending = append(pending, n)
		}
		return nil
	})
	if err != nil {
		e.log.Error("like transaction failed", "liker", likerID, "target", targetID, "err", err)
		return LikeResult{}, err
	}

	e.center.Publish(ctx, pending...)
	e.log.Debug("LikeUser result", "created", result.Created, "matched", result.Matched, "match_id", result.MatchID)
	return result, nil
}

// DislikeUser hides target from liker's SearchPeople results. Idempotent.
func (e *Engine) DislikeUser(ctx context.Context, likerID, targetID uint64) error {
	e.log.Debug("DislikeUser called", "liker", likerID, "target", targetID)

	if err := e.checkPair(ctx, likerID, targetID); err != nil {
		return err
	}
	if _, err := e.likes.InsertDislike(ctx, likerID, targetID); err != nil {
		e.log.Error("insert dislike failed", "liker", likerID, "target", targetID, "err", err)
		return fmt.Errorf("insert dislike: %w", err)
	}
	// the disliked user no longer counts among liker's likers
	e.invalidateLikeCount(ctx, likerID)
	return nil
}

// SearchPeople lists users sharing at least one expanded interest token with
// userID, most shared tokens first, then by id.
//
// Excluded: the requester, users it liked, users it disliked within the
// dislike TTL, and users blocked in either direction.
func (e *Engine) SearchPeople(ctx context.Context, userID uint64, params pagination.Params) (pagination.Page[Person], error) {
	e.log.Debug("SearchPeople called", "user", userID, "page", params.Page, "page_size", params.PageSize)

	if err := validation.Struct(params); err != nil {
		return pagination.Page[Person]{}, err
	}
	me, err := e.resolve(ctx, userID)
	if err != nil {
		return pagination.Page[Person]{}, err
	}

	exclude, err := e.excluded(ctx, userID)
	if err != nil {
		e.log.Error("load exclusions failed", "user", userID, "err", err)
		return pagination.Page[Person]{}, err
	}
	users, err := e.users.ListActiveExcept(ctx, exclude)
	if err != nil {
		e.log.Error("list users failed", "err", err)
		return pagination.Page[Person]{}, fmt.Errorf("list users: %w", err)
	}

	mine := interest.NewSet(e.taxonomy.Expand(interest.ParseList(me.Interests)))
	people := make([]Person, 0, len(users))
	for _, u := range users {
		declared := interest.ParseList(u.Interests)
		shared := mine.Overlap(interest.NewSet(e.taxonomy.Expand(declared)))
		if shared == 0 {
			continue
		}
		people = append(people, Person{
			ID:        u.ID,
			Username:  u.Username,
			Region:    u.Region,
			Interests: declared,
			Shared:    shared,
		})
	}
	sort.SliceStable(people, func(i, j int) bool {
		if people[i].Shared != people[j].Shared {
			return people[i].Shared > people[j].Shared
		}
		return people[i].ID < people[j].ID
	})

	return pagination.Slice(people, params), nil
}

// ListLikers returns who liked recipientID, newest first, with a cursor for
// the next page. Likers the recipient disliked are hidden; onlyNew also hides
// likers the recipient already liked back.
func (e *Engine) ListLikers(ctx context.Context, recipientID uint64, token *string, limit int, onlyNew bool) ([]Liker, *string, error) {
	e.log.Debug("ListLikers called", "recipient", recipientID, "only_new", onlyNew)

	if limit < 1 || limit > pagination.MaxPageSize {
		return nil, nil, svcErr.Validation("limit must be between 1 and %d", pagination.MaxPageSize)
	}

	likes, next, err := e.likes.GetLikers(ctx, recipientID, token, limit, e.likerFilter(onlyNew))
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidToken) {
			return nil, nil, svcErr.Validation("invalid pagination token")
		}
		e.log.Error("GetLikers failed", "err", err)
		return nil, nil, fmt.Errorf("get likers: %w", err)
	}

	out := make([]Liker, 0, len(likes))
	for _, l := range likes {
		out = append(out, Liker{UserID: l.LikerID, Message: l.Message, LikedAt: l.CreatedAt})
	}
	return out, next, nil
}

// CountLikers returns how many users liked recipientID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On miss, falls back to the DB.
//  3. On DB fetch, updates Redis with a 1h TTL, shortened to when the
//     recipient's oldest active dislike expires.
//  4. New like edges and dislikes drop the key.
func (e *Engine) CountLikers(ctx context.Context, recipientID uint64) (int64, error) {
	e.log.Debug("CountLikers called", "recipient", recipientID)

	var key string
	if e.cache != nil {
		key = e.cache.KeyForLikeCount(recipientID)
		if n, ok, err := e.cache.GetCounter(ctx, key); err == nil && ok {
			return n, nil
		}
	}

	count, err := e.likes.CountLikers(ctx, recipientID, e.likerFilter(false))
	if err != nil {
		e.log.Error("CountLikers failed", "err", err)
		return 0, fmt.Errorf("count likers: %w", err)
	}
	if e.cache != nil {
		ttl, err := e.likeCountTTL(ctx, recipientID)
		if err != nil {
			e.log.Warn("like counter ttl lookup failed", "recipient", recipientID, "err", err)
			return count, nil
		}
		_ = e.cache.SetCounterTTL(ctx, key, count, ttl)
	}
	return count, nil
}

// ListMatches returns userID's matches, newest first.
func (e *Engine) ListMatches(ctx context.Context, userID uint64) ([]Match, error) {
	rows, err := e.matches.ListForUser(ctx, userID)
	if err != nil {
		e.log.Error("list matches failed", "user", userID, "err", err)
		return nil, fmt.Errorf("list matches: %w", err)
	}
	out := make([]Match, 0, len(rows))
	for _, m := range rows {
		out = append(out, Match{ID: m.ID, PeerID: repository.Peer(m, userID), CreatedAt: m.CreatedAt})
	}
	return out, nil
}

func (e *Engine) checkPair(ctx context.Context, likerID, targetID uint64) error {
	if likerID == 0 || targetID == 0 {
		return svcErr.Validation("user ids are required")
	}
	if likerID == targetID {
		return svcErr.Validation("cannot like or dislike yourself")
	}
	if _, err := e.resolve(ctx, likerID); err != nil {
		return err
	}
	_, err := e.resolve(ctx, targetID)
	return err
}

func (e *Engine) resolve(ctx context.Context, id uint64) (*db.User, error) {
	u, err := e.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound(fmt.Sprintf("user %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user %d: %w", id, err)
	}
	return u, nil
}

func (e *Engine) excluded(ctx context.Context, userID uint64) ([]uint64, error) {
	liked, err := e.likes.LikedTargets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("liked targets: %w", err)
	}
	disliked, err := e.likes.DislikedTargets(ctx, userID, e.dislikeCutoff())
	if err != nil {
		return nil, fmt.Errorf("disliked targets: %w", err)
	}
	blocked, err := e.users.BlockedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("blocked users: %w", err)
	}

	out := make([]uint64, 0, 1+len(liked)+len(disliked)+len(blocked))
	out = append(out, userID)
	out = append(out, liked...)
	out = append(out, disliked...)
	return append(out, blocked...), nil
}

// dislikeCutoff is zero when dislikes never expire.
func (e *Engine) dislikeCutoff() time.Time {
	if e.dislikeTTL <= 0 {
		return time.Time{}
	}
	return e.now().UTC().Add(-e.dislikeTTL)
}

func (e *Engine) likerFilter(onlyNew bool) repository.LikerFilter {
	return repository.LikerFilter{OnlyNew: onlyNew, DislikedSince: e.dislikeCutoff()}
}

// invalidateLikeCount drops the cached count instead of adjusting it, since
// whether a new edge counts depends on the recipient's active dislikes.
func (e *Engine) invalidateLikeCount(ctx context.Context, recipientID uint64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, e.cache.KeyForLikeCount(recipientID)); err != nil {
		e.log.Warn("like counter invalidation failed", "recipient", recipientID, "err", err)
	}
}

// likeCountTTL bounds the cached count by the moment the recipient's oldest
// active dislike expires, after which the count changes.
func (e *Engine) likeCountTTL(ctx context.Context, recipientID uint64) (time.Duration, error) {
	if e.dislikeTTL <= 0 {
		return cache.CounterTTL, nil
	}
	d, ok, err := e.likes.EarliestDislike(ctx, recipientID, e.dislikeCutoff())
	if err != nil || !ok {
		return cache.CounterTTL, err
	}
	until := d.CreatedAt.Add(e.dislikeTTL).Sub(e.now())
	return min(until, cache.CounterTTL), nil
}
