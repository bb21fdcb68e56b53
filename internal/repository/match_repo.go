package repository

import (
	"context"
	"errors"

	"github.com/oggyb/campus-match/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRepository stores confirmed mutual likes.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// WithTx returns a copy of the repository bound to tx.
func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// CanonicalPair orders two user ids as (min, max).
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// CreateIfAbsent inserts the match for the unordered pair {a, b}.
//
// Behavior:
//   - Relies on the unique index (user_a_id, user_b_id) with ON CONFLICT DO NOTHING,
//     so concurrent callers on any instance produce exactly one row.
//   - created is true only for the caller whose insert won.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, a, b uint64) (*db.Match, bool, error) {
	userA, userB := CanonicalPair(a, b)
	match := db.Match{UserAID: userA, UserBID: userB}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&match)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &match, true, nil
	}

	existing, err := r.FindByPair(ctx, userA, userB)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByPair loads the match for {a, b}. Returns gorm.ErrRecordNotFound if absent.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	userA, userB := CanonicalPair(a, b)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// Exists reports whether {a, b} is matched.
func (r *MatchRepository) Exists(ctx context.Context, a, b uint64) (bool, error) {
	_, err := r.FindByPair(ctx, a, b)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListForUser returns the matches involving userID, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// Peer returns the other side of a match.
func Peer(m db.Match, userID uint64) uint64 {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}
