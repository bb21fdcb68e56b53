package repository

import (
	"context"

	"github.com/oggyb/campus-match/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SuggestionRepository tracks per-user accept/reject state of locations.
type SuggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository creates a new repository bound to the given DB connection.
func NewSuggestionRepository(database *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: database}
}

// WithTx returns a copy of the repository bound to tx.
func (r *SuggestionRepository) WithTx(tx *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: tx}
}

// EnsurePending creates a pending row unless one (in any state) exists.
func (r *SuggestionRepository) EnsurePending(ctx context.Context, userID, locationID uint64) (bool, error) {
	row := db.SuggestionState{UserID: userID, LocationID: locationID, State: db.SuggestionPending}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Resolve moves a pending row to state. ok is false when the row was not
// pending anymore, i.e. another request already resolved it.
func (r *SuggestionRepository) Resolve(ctx context.Context, userID, locationID uint64, state string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.SuggestionState{}).
		Where("user_id = ? AND location_id = ? AND state = ?", userID, locationID, db.SuggestionPending).
		Update("state", state)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Get loads one state row. Returns gorm.ErrRecordNotFound if absent.
func (r *SuggestionRepository) Get(ctx context.Context, userID, locationID uint64) (*db.SuggestionState, error) {
	var row db.SuggestionState
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND location_id = ?", userID, locationID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ResolvedLocations returns the locations the user accepted or rejected.
func (r *SuggestionRepository) ResolvedLocations(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.SuggestionState{}).
		Where("user_id = ? AND state <> ?", userID, db.SuggestionPending).
		Pluck("location_id", &ids).Error
	return ids, err
}
