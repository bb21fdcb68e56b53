package repository

import (
	"context"

	"github.com/oggyb/campus-match/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository is the database-backed user directory: it resolves users
// to their interests, region and block-list.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindByID loads an active user. Returns gorm.ErrRecordNotFound if absent.
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListActiveExcept returns every active user not in exclude, ordered by id.
func (r *UserRepository) ListActiveExcept(ctx context.Context, exclude []uint64) ([]db.User, error) {
	var users []db.User
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	err := q.Order("id ASC").Find(&users).Error
	return users, err
}

// BlockedWith returns users hidden from userID: those it blocked and those
// that blocked it.
func (r *UserRepository) BlockedWith(ctx context.Context, userID uint64) ([]uint64, error) {
	var blocks []db.Block
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(blocks))
	for _, b := range blocks {
		if b.BlockerID == userID {
			ids = append(ids, b.BlockedID)
		} else {
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}

// Block adds blocked to blocker's block-list.
func (r *UserRepository) Block(ctx context.Context, blockerID, blockedID uint64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Block{BlockerID: blockerID, BlockedID: blockedID}).Error
}
