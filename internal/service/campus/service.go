// Package campus exposes matching, notifications and suggestions as the
// campus.v1.CampusService gRPC API.
package campus

import (
	"context"
	"encoding/json"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/geo"
	"github.com/oggyb/campus-match/internal/matching"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/suggestion"
	"github.com/oggyb/campus-match/internal/utils/pagination"
	"github.com/oggyb/campus-match/internal/validation"
)

// DefaultLikersLimit is the ListLikers page size when the request leaves it unset.
const DefaultLikersLimit = 20

// Service implements the CampusService gRPC API.
// Each method validates the request, calls the owning component and maps
// domain errors to gRPC status codes.
type Service struct {
	appCtx    *app.AppContext
	engine    *matching.Engine
	center    *notify.Center
	workflow  *suggestion.Workflow
	geo       *geo.Index
	locations *repository.LocationRepository
}

// NewCampusService creates the service with dependencies from AppContext.
// center is shared with the dispatcher wiring done by the caller.
func NewCampusService(appCtx *app.AppContext, center *notify.Center) *Service {
	locations := repository.NewLocationRepository(appCtx.DB)
	return &Service{
		appCtx:    appCtx,
		engine:    matching.NewEngine(appCtx, center),
		center:    center,
		workflow:  suggestion.NewWorkflow(appCtx, center),
		geo:       geo.NewIndex(locations, appCtx.Logger.With("component", "geo")),
		locations: locations,
	}
}

// LikeUser records a like and reports whether it produced a match.
//
// Example:
//
//	svc.LikeUser(ctx, &LikeUserRequest{LikerID: 1, TargetID: 2, Message: "hi"})
func (s *Service) LikeUser(ctx context.Context, req *LikeUserRequest) (*LikeUserResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	res, err := s.engine.LikeUser(ctx, req.LikerID, req.TargetID, req.Message)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &LikeUserResponse{Created: res.Created, Matched: res.Matched, MatchID: res.MatchID}, nil
}

func (s *Service) DislikeUser(ctx context.Context, req *DislikeUserRequest) (*DislikeUserResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.engine.DislikeUser(ctx, req.LikerID, req.TargetID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &DislikeUserResponse{}, nil
}

func (s *Service) SearchPeople(ctx context.Context, req *SearchPeopleRequest) (*SearchPeopleResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	page, err := s.engine.SearchPeople(ctx, req.UserID, pagination.Params{Page: req.Page, PageSize: req.PageSize})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SearchPeopleResponse{
		People:   page.Items,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		HasMore:  page.HasMore,
	}, nil
}

// ListLikers returns who liked the recipient, newest first.
//
// Behavior:
//   - Hides likers the recipient disliked.
//   - OnlyNew also hides likers already liked back.
//   - Supports cursor-based pagination with PaginationToken.
func (s *Service) ListLikers(ctx context.Context, req *ListLikersRequest) (*ListLikersResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLikersLimit
	}
	likers, next, err := s.engine.ListLikers(ctx, req.RecipientID, req.PaginationToken, limit, req.OnlyNew)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListLikersResponse{Likers: likers, NextPaginationToken: next}, nil
}

// CountLikers returns how many users liked the recipient (cache-first).
func (s *Service) CountLikers(ctx context.Context, req *CountLikersRequest) (*CountLikersResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.engine.CountLikers(ctx, req.RecipientID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CountLikersResponse{Count: n}, nil
}

func (s *Service) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	matches, err := s.engine.ListMatches(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListMatchesResponse{Matches: matches}, nil
}

func (s *Service) ListNotifications(ctx context.Context, req *ListNotificationsRequest) (*ListNotificationsResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	list, err := s.center.List(ctx, req.RecipientID, req.UnreadOnly)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out, err := toWire(list)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListNotificationsResponse{Notifications: out}, nil
}

// MarkNotificationRead marks a notification read. Only its recipient may do so.
func (s *Service) MarkNotificationRead(ctx context.Context, req *MarkNotificationReadRequest) (*MarkNotificationReadResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.center.MarkAsRead(ctx, req.NotificationID, req.RequesterID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	wire, err := notificationToWire(n)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &MarkNotificationReadResponse{Notification: wire}, nil
}

func (s *Service) CountUnreadNotifications(ctx context.Context, req *CountUnreadNotificationsRequest) (*CountUnreadNotificationsResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.center.CountUnread(ctx, req.RecipientID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &CountUnreadNotificationsResponse{Count: n}, nil
}

func (s *Service) GetSuggestions(ctx context.Context, req *GetSuggestionsRequest) (*GetSuggestionsResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	page, err := s.workflow.GetSuggestions(ctx, req.UserID, pagination.Params{Page: req.Page, PageSize: req.PageSize})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &GetSuggestionsResponse{
		Suggestions: page.Items,
		Page:        page.Page,
		PageSize:    page.PageSize,
		Total:       page.Total,
		HasMore:     page.HasMore,
	}, nil
}

func (s *Service) AcceptSuggestion(ctx context.Context, req *ResolveSuggestionRequest) (*ResolveSuggestionResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.workflow.Accept(ctx, req.LocationID, req.UserID, req.NotificationID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &ResolveSuggestionResponse{State: db.SuggestionAccepted}, nil
}

func (s *Service) RejectSuggestion(ctx context.Context, req *ResolveSuggestionRequest) (*ResolveSuggestionResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.workflow.Reject(ctx, req.LocationID, req.UserID, req.NotificationID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &ResolveSuggestionResponse{State: db.SuggestionRejected}, nil
}

// NotifySuggestions pushes the user's top suggestions as notifications.
func (s *Service) NotifySuggestions(ctx context.Context, req *NotifySuggestionsRequest) (*NotifySuggestionsResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	created, err := s.workflow.Notify(ctx, req.UserID, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out, err := toWire(created)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &NotifySuggestionsResponse{Notifications: out}, nil
}

// NearbyLocations lists catalog locations within RadiusKM of Origin
// ("lat,lng"), nearest first.
func (s *Service) NearbyLocations(ctx context.Context, req *NearbyLocationsRequest) (*NearbyLocationsResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, svcErr.Map(err)
	}
	hits, err := s.geo.NearbyLocations(ctx, req.Origin, req.RadiusKM)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]uint64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	byID, err := s.locations.FindByIDs(ctx, ids)
	if err != nil {
		s.appCtx.Logger.Error("load nearby locations failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &NearbyLocationsResponse{Locations: make([]NearbyLocation, 0, len(hits))}
	for _, h := range hits {
		loc := byID[h.ID]
		resp.Locations = append(resp.Locations, NearbyLocation{
			ID:          h.ID,
			Name:        loc.Name,
			Category:    loc.Category,
			Coordinates: h.Point.String(),
			DistanceKM:  h.DistanceKM,
		})
	}
	return resp, nil
}

func toWire(list []notify.Notification) ([]Notification, error) {
	out := make([]Notification, 0, len(list))
	for _, n := range list {
		w, err := notificationToWire(n)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func notificationToWire(n notify.Notification) (Notification, error) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		ID:             n.ID,
		RecipientID:    n.RecipientID,
		Kind:           string(n.Kind),
		Payload:        payload,
		IsRead:         n.IsRead,
		ReadAt:         n.ReadAt,
		DeliveryStatus: n.DeliveryStatus,
		CreatedAt:      n.CreatedAt,
	}, nil
}
