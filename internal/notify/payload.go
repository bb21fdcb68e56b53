package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oggyb/campus-match/internal/db"
)

// Kind tags a notification and decides the shape of its payload.
type Kind string

const (
	KindLike               Kind = "like"
	KindMatch              Kind = "match"
	KindLocationSuggestion Kind = "location_suggestion"
)

// Payload is implemented by exactly one struct per Kind.
type Payload interface {
	Kind() Kind
}

// LikePayload tells the target someone liked them.
type LikePayload struct {
	LikerID uint64 `json:"liker_id"`
	Message string `json:"message,omitempty"`
}

func (LikePayload) Kind() Kind { return KindLike }

// MatchPayload tells one side of a match who the peer is.
type MatchPayload struct {
	MatchID uint64 `json:"match_id"`
	PeerID  uint64 `json:"peer_id"`
}

func (MatchPayload) Kind() Kind { return KindMatch }

// LocationSuggestionPayload proposes a location to the recipient.
type LocationSuggestionPayload struct {
	LocationID uint64 `json:"location_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
}

func (LocationSuggestionPayload) Kind() Kind { return KindLocationSuggestion }

// DecodePayload restores the typed payload stored for kind.
func DecodePayload(kind Kind, raw []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch kind {
	case KindLike:
		var v LikePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case KindMatch:
		var v MatchPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case KindLocationSuggestion:
		var v LocationSuggestionPayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown notification kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return p, nil
}

// Notification is the decoded form of a stored notification.
type Notification struct {
	ID               uint64     `json:"id"`
	RecipientID      uint64     `json:"recipient_id"`
	Kind             Kind       `json:"kind"`
	Payload          Payload    `json:"payload"`
	IsRead           bool       `json:"is_read"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	DeliveryStatus   string     `json:"delivery_status"`
	DeliveryAttempts int        `json:"delivery_attempts"`
	CreatedAt        time.Time  `json:"created_at"`
}

func fromRow(row db.Notification) (Notification, error) {
	p, err := DecodePayload(Kind(row.Kind), row.Payload)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		ID:               row.ID,
		RecipientID:      row.RecipientID,
		Kind:             Kind(row.Kind),
		Payload:          p,
		IsRead:           row.IsRead,
		ReadAt:           row.ReadAt,
		DeliveryStatus:   row.DeliveryStatus,
		DeliveryAttempts: row.DeliveryAttempts,
		CreatedAt:        row.CreatedAt,
	}, nil
}

func toRow(recipientID uint64, p Payload) (*db.Notification, error) {
	if p == nil {
		return nil, fmt.Errorf("notification payload is required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return &db.Notification{
		RecipientID:    recipientID,
		Kind:           string(p.Kind()),
		Payload:        raw,
		DeliveryStatus: db.DeliveryPending,
	}, nil
}
