package repository

import (
	"context"
	"time"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/utils/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository provides data access for like edges and dislikes.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// WithTx returns a copy of the repository bound to tx.
func (r *LikeRepository) WithTx(tx *gorm.DB) *LikeRepository {
	return &LikeRepository{db: tx}
}

// InsertLike records liker → target if the edge is absent.
//
// Behavior:
//   - Composite PK (liker_id, target_id) makes the insert idempotent.
//   - Returns created=false when the edge already existed (no-op).
//
// Example:
//
//	repo.InsertLike(ctx, 1, 2, "hi") // user 1 liked user 2
func (r *LikeRepository) InsertLike(ctx context.Context, likerID, targetID uint64, message string) (bool, error) {
	like := db.Like{LikerID: likerID, TargetID: targetID, Message: message}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// InsertDislike records a directional suppression; repeated calls are no-ops.
func (r *LikeRepository) InsertDislike(ctx context.Context, likerID, targetID uint64) (bool, error) {
	dislike := db.Dislike{LikerID: likerID, TargetID: targetID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dislike)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// HasLiked checks whether liker has a like edge towards target.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *LikeRepository) HasLiked(ctx context.Context, likerID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND target_id = ?", likerID, targetID).
		Count(&count).Error
	return count > 0, err
}

// LikedTargets lists every user likerID has liked.
func (r *LikeRepository) LikedTargets(ctx context.Context, likerID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ?", likerID).
		Pluck("target_id", &ids).Error
	return ids, err
}

// DislikedTargets lists users likerID disliked at or after since.
// A zero since means every dislike counts.
func (r *LikeRepository) DislikedTargets(ctx context.Context, likerID uint64, since time.Time) ([]uint64, error) {
	var ids []uint64
	q := r.db.WithContext(ctx).
		Model(&db.Dislike{}).
		Where("liker_id = ?", likerID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Pluck("target_id", &ids).Error
	return ids, err
}

// EarliestDislike returns the oldest dislike likerID made at or after since.
func (r *LikeRepository) EarliestDislike(ctx context.Context, likerID uint64, since time.Time) (*db.Dislike, bool, error) {
	var d db.Dislike
	q := r.db.WithContext(ctx).Where("liker_id = ?", likerID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Order("created_at ASC").Limit(1).Find(&d).Error
	if err != nil {
		return nil, false, err
	}
	if d.LikerID == 0 {
		return nil, false, nil
	}
	return &d, true, nil
}

// LikerFilter narrows GetLikers.
type LikerFilter struct {
	// OnlyNew drops likers the recipient already liked back.
	OnlyNew bool
	// DislikedSince bounds which of the recipient's dislikes hide a liker.
	DislikedSince time.Time
}

// GetLikers returns users who liked the given recipient.
//
// Behavior:
//   - Excludes likers the recipient disliked (within DislikedSince).
//   - With OnlyNew, excludes mutual likes.
//   - Ordered by created_at DESC, liker_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, 42, nil, 20, LikerFilter{}) // first 20 people who liked user 42
func (r *LikeRepository) GetLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
	filter LikerFilter,
) ([]db.Like, *string, error) {
	var likes []db.Like

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.likersQuery(ctx, recipientID, filter).
		Select("l.*").
		Order("l.created_at DESC, l.liker_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(l.created_at < ? OR (l.created_at = ? AND l.liker_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			UserID:      last.LikerID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountLikers returns how many users liked the given recipient, with the
// same exclusions as GetLikers.
func (r *LikeRepository) CountLikers(ctx context.Context, recipientID uint64, filter LikerFilter) (int64, error) {
	var count int64
	if err := r.likersQuery(ctx, recipientID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LikeRepository) likersQuery(ctx context.Context, recipientID uint64, filter LikerFilter) *gorm.DB {
	dislikes := r.db.
		Table("dislikes d").
		Select("1").
		Where("d.liker_id = ? AND d.target_id = l.liker_id", recipientID)
	if !filter.DislikedSince.IsZero() {
		dislikes = dislikes.Where("d.created_at >= ?", filter.DislikedSince)
	}

	query := r.db.WithContext(ctx).
		Table("likes l").
		Where("l.target_id = ? AND NOT EXISTS (?)", recipientID, dislikes)

	if filter.OnlyNew {
		mutual := r.db.
			Table("likes l2").
			Select("1").
			Where("l2.liker_id = l.target_id AND l2.target_id = l.liker_id")
		query = query.Where("NOT EXISTS (?)", mutual)
	}
	return query
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
