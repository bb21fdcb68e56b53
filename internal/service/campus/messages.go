package campus

import (
	"encoding/json"
	"time"

	"github.com/oggyb/campus-match/internal/matching"
	"github.com/oggyb/campus-match/internal/suggestion"
)

type LikeUserRequest struct {
	LikerID  uint64 `json:"liker_id" validate:"required"`
	TargetID uint64 `json:"target_id" validate:"required,nefield=LikerID"`
	Message  string `json:"message,omitempty" validate:"max=500"`
}

type LikeUserResponse struct {
	Created bool   `json:"created"`
	Matched bool   `json:"matched"`
	MatchID uint64 `json:"match_id,omitempty"`
}

type DislikeUserRequest struct {
	LikerID  uint64 `json:"liker_id" validate:"required"`
	TargetID uint64 `json:"target_id" validate:"required,nefield=LikerID"`
}

type DislikeUserResponse struct{}

type SearchPeopleRequest struct {
	UserID   uint64 `json:"user_id" validate:"required"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type SearchPeopleResponse struct {
	People   []matching.Person `json:"people"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
	HasMore  bool              `json:"has_more"`
}

type ListLikersRequest struct {
	RecipientID     uint64  `json:"recipient_id" validate:"required"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	// Limit defaults to DefaultLikersLimit when zero.
	Limit   int  `json:"limit,omitempty"`
	OnlyNew bool `json:"only_new,omitempty"`
}

type ListLikersResponse struct {
	Likers              []matching.Liker `json:"likers"`
	NextPaginationToken *string          `json:"next_pagination_token,omitempty"`
}

type CountLikersRequest struct {
	RecipientID uint64 `json:"recipient_id" validate:"required"`
}

type CountLikersResponse struct {
	Count int64 `json:"count"`
}

type ListMatchesRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type ListMatchesResponse struct {
	Matches []matching.Match `json:"matches"`
}

// Notification is the wire form of a notification. Payload is the
// kind-specific JSON document.
type Notification struct {
	ID             uint64          `json:"id"`
	RecipientID    uint64          `json:"recipient_id"`
	Kind           string          `json:"kind"`
	Payload        json.RawMessage `json:"payload"`
	IsRead         bool            `json:"is_read"`
	ReadAt         *time.Time      `json:"read_at,omitempty"`
	DeliveryStatus string          `json:"delivery_status"`
	CreatedAt      time.Time       `json:"created_at"`
}

type ListNotificationsRequest struct {
	RecipientID uint64 `json:"recipient_id" validate:"required"`
	UnreadOnly  bool   `json:"unread_only,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}

type MarkNotificationReadRequest struct {
	NotificationID uint64 `json:"notification_id" validate:"required"`
	RequesterID    uint64 `json:"requester_id" validate:"required"`
}

type MarkNotificationReadResponse struct {
	Notification Notification `json:"notification"`
}

type CountUnreadNotificationsRequest struct {
	RecipientID uint64 `json:"recipient_id" validate:"required"`
}

type CountUnreadNotificationsResponse struct {
	Count int64 `json:"count"`
}

type GetSuggestionsRequest struct {
	UserID   uint64 `json:"user_id" validate:"required"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type GetSuggestionsResponse struct {
	Suggestions []suggestion.Suggestion `json:"suggestions"`
	Page        int                     `json:"page"`
	PageSize    int                     `json:"page_size"`
	Total       int                     `json:"total"`
	HasMore     bool                    `json:"has_more"`
}

// ResolveSuggestionRequest is shared by AcceptSuggestion and RejectSuggestion.
type ResolveSuggestionRequest struct {
	LocationID     uint64  `json:"location_id" validate:"required"`
	UserID         uint64  `json:"user_id" validate:"required"`
	NotificationID *uint64 `json:"notification_id,omitempty"`
}

type ResolveSuggestionResponse struct {
	State string `json:"state"`
}

type NotifySuggestionsRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
}

type NotifySuggestionsResponse struct {
	Notifications []Notification `json:"notifications"`
}

type NearbyLocationsRequest struct {
	Origin   string  `json:"origin" validate:"required"`
	RadiusKM float64 `json:"radius_km"`
}

type NearbyLocation struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Coordinates string  `json:"coordinates"`
	DistanceKM  float64 `json:"distance_km"`
}

type NearbyLocationsResponse struct {
	Locations []NearbyLocation `json:"locations"`
}
