// Package suggestion recommends catalog locations from a user's expanded
// interests and tracks the user's accept/reject decisions on them.
package suggestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/interest"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/utils/pagination"
	"github.com/oggyb/campus-match/internal/validation"
)

// UserDirectory resolves the requesting user.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint64) (*db.User, error)
}

// LocationCatalog supplies location records.
type LocationCatalog interface {
	FindByID(ctx context.Context, id uint64) (*db.Location, error)
	ListByRegion(ctx context.Context, region string) ([]db.Location, error)
}

// Suggestion is a recommended location.
type Suggestion struct {
	LocationID    uint64   `json:"location_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories,omitempty"`
	Coordinates   string   `json:"coordinates"`
	Rating        float64  `json:"rating"`
	Region        string   `json:"region,omitempty"`
	// Matched counts the location tokens found in the user's expanded interests.
	Matched int `json:"matched"`
}

// Workflow implements suggestion listing and resolution.
type Workflow struct {
	db        *gorm.DB
	users     UserDirectory
	locations LocationCatalog
	states    *repository.SuggestionRepository
	center    *notify.Center
	taxonomy  *interest.Taxonomy
	log       *slog.Logger
}

// NewWorkflow creates a Workflow backed by the AppContext database.
func NewWorkflow(appCtx *app.AppContext, center *notify.Center) *Workflow {
	return &Workflow{
		db:        appCtx.DB,
		users:     repository.NewUserRepository(appCtx.DB),
		locations: repository.NewLocationRepository(appCtx.DB),
		states:    repository.NewSuggestionRepository(appCtx.DB),
		center:    center,
		taxonomy:  appCtx.Taxonomy,
		log:       appCtx.Logger.With("component", "suggestion"),
	}
}

// GetSuggestions returns one page of locations for userID.
//
// Behavior:
//   - Candidates are in the user's region and share at least one token with
//     the user's expanded interests.
//   - Locations the user already accepted or rejected are left out.
//   - Ordered by matched token count desc, rating desc, id asc.
//   - A page past the end is empty, not an error.
func (w *Workflow) GetSuggestions(ctx context.Context, userID uint64, params pagination.Params) (pagination.Page[Suggestion], error) {
	w.log.Debug("GetSuggestions called", "user", userID, "page", params.Page, "page_size", params.PageSize)

	if err := validation.Struct(params); err != nil {
		return pagination.Page[Suggestion]{}, err
	}
	all, err := w.rank(ctx, userID)
	if err != nil {
		return pagination.Page[Suggestion]{}, err
	}
	return pagination.Slice(all, params), nil
}

// Accept moves the user's suggestion for locationID from pending to accepted.
// When notificationID is set, that notification is marked read in the same
// transaction.
func (w *Workflow) Accept(ctx context.Context, locationID, userID uint64, notificationID *uint64) error {
	return w.resolve(ctx, locationID, userID, notificationID, db.SuggestionAccepted)
}

// Reject is Accept ending in rejected.
func (w *Workflow) Reject(ctx context.Context, locationID, userID uint64, notificationID *uint64) error {
	return w.resolve(ctx, locationID, userID, notificationID, db.SuggestionRejected)
}

// Notify sends a LocationSuggestion notification for each of the user's top
// limit suggestions that has not been suggested before.
func (w *Workflow) Notify(ctx context.Context, userID uint64, limit int) ([]notify.Notification, error) {
	page, err := w.GetSuggestions(ctx, userID, pagination.Params{Page: 1, PageSize: limit})
	if err != nil {
		return nil, err
	}

	var created []notify.Notification
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		states := w.states.WithTx(tx)
		for _, s := range page.Items {
			fresh, err := states.EnsurePending(ctx, userID, s.LocationID)
			if err != nil {
				return fmt.Errorf("ensure pending: %w", err)
			}
			if !fresh {
				continue
			}
			n, err := w.center.CreateTx(ctx, tx, userID, notify.LocationSuggestionPayload{
				LocationID: s.LocationID,
				Name:       s.Name,
				Category:   s.Category,
			})
			if err != nil {
				return err
			}
			created = append(created, n)
		}
		return nil
	})
	if err != nil {
		w.log.Error("notify suggestions failed", "user", userID, "err", err)
		return nil, err
	}

	w.center.Publish(ctx, created...)
	return created, nil
}

func (w *Workflow) rank(ctx context.Context, userID uint64) ([]Suggestion, error) {
	user, err := w.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	wanted := interest.NewSet(w.taxonomy.Expand(interest.ParseList(user.Interests)))
	if len(wanted) == 0 {
		return nil, nil
	}

	locations, err := w.locations.ListByRegion(ctx, user.Region)
	if err != nil {
		w.log.Error("list locations failed", "region", user.Region, "err", err)
		return nil, fmt.Errorf("list locations: %w", err)
	}
	resolvedIDs, err := w.states.ResolvedLocations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolved locations: %w", err)
	}
	resolved := make(map[uint64]struct{}, len(resolvedIDs))
	for _, id := range resolvedIDs {
		resolved[id] = struct{}{}
	}

	out := make([]Suggestion, 0, len(locations))
	for _, l := range locations {
		if _, done := resolved[l.ID]; done {
			continue
		}
		subs := interest.ParseList(l.Subcategories)
		matched := wanted.Overlap(interest.NewSet(interest.LocationTokens(l.Category, subs)))
		if matched == 0 {
			continue
		}
		out = append(out, Suggestion{
			LocationID:    l.ID,
			Name:          l.Name,
			Category:      l.Category,
			Subcategories: subs,
			Coordinates:   l.Coordinates,
			Rating:        l.Rating,
			Region:        l.Region,
			Matched:       matched,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Matched != b.Matched {
			return a.Matched > b.Matched
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.LocationID < b.LocationID
	})
	return out, nil
}

func (w *Workflow) resolve(ctx context.Context, locationID, userID uint64, notificationID *uint64, state string) error {
	w.log.Debug("resolve suggestion", "user", userID, "location", locationID, "state", state)

	if locationID == 0 || userID == 0 {
		return svcErr.Validation("location and user are required")
	}
	if _, err := w.user(ctx, userID); err != nil {
		return err
	}
	if _, err := w.locations.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound(fmt.Sprintf("location %d", locationID))
		}
		return fmt.Errorf("load location: %w", err)
	}

	var readChanged bool
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if notificationID != nil {
			changed, err := w.center.MarkAsReadTx(ctx, tx, *notificationID, userID)
			if err != nil {
				return err
			}
			readChanged = changed
		}

		states := w.states.WithTx(tx)
		if _, err := states.EnsurePending(ctx, userID, locationID); err != nil {
			return fmt.Errorf("ensure pending: %w", err)
		}
		ok, err := states.Resolve(ctx, userID, locationID, state)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		if !ok {
			return fmt.Errorf("suggestion for location %d already resolved: %w", locationID, svcErr.ErrConflict)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, svcErr.ErrConflict) {
			w.log.Error("resolve suggestion failed", "user", userID, "location", locationID, "err", err)
		}
		return err
	}

	if readChanged {
		w.center.ReadStateChanged(ctx, userID)
	}
	return nil
}

func (w *Workflow) user(ctx context.Context, id uint64) (*db.User, error) {
	u, err := w.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound(fmt.Sprintf("user %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user %d: %w", id, err)
	}
	return u, nil
}
