package repository

import (
	"context"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/geo"

	"gorm.io/gorm"
)

// LocationRepository is the database-backed location catalog.
type LocationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new repository bound to the given DB connection.
func NewLocationRepository(database *gorm.DB) *LocationRepository {
	return &LocationRepository{db: database}
}

// FindByID loads a location. Returns gorm.ErrRecordNotFound if absent.
func (r *LocationRepository) FindByID(ctx context.Context, id uint64) (*db.Location, error) {
	var loc db.Location
	if err := r.db.WithContext(ctx).First(&loc, id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindByIDs loads the given locations keyed by id; unknown ids are absent.
func (r *LocationRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]db.Location, error) {
	out := make(map[uint64]db.Location, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []db.Location
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, l := range rows {
		out[l.ID] = l
	}
	return out, nil
}

// ListByRegion returns locations in region (case-insensitive), ordered by id.
// An empty region returns the whole catalog.
func (r *LocationRepository) ListByRegion(ctx context.Context, region string) ([]db.Location, error) {
	var rows []db.Location
	q := r.db.WithContext(ctx)
	if region != "" {
		q = q.Where("LOWER(region) = LOWER(?)", region)
	}
	err := q.Order("id ASC").Find(&rows).Error
	return rows, err
}

// ListCandidates implements geo.Catalog.
func (r *LocationRepository) ListCandidates(ctx context.Context) ([]geo.Candidate, error) {
	var rows []db.Location
	if err := r.db.WithContext(ctx).Select("id", "coordinates").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]geo.Candidate, 0, len(rows))
	for _, l := range rows {
		out = append(out, geo.Candidate{ID: l.ID, Coordinates: l.Coordinates})
	}
	return out, nil
}
