package db

import (
	"time"

	"gorm.io/datatypes"
)

// User is the local projection of the user directory.
// Interests are stored as comma-joined tokens ("movie,theatre:opera").
type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Username  string    `gorm:"uniqueIndex;size:64;not null"`
	Email     string    `gorm:"uniqueIndex;size:128;not null"`
	Interests string    `gorm:"type:text"`
	Region    string    `gorm:"size:64;index"`
	Active    bool      `gorm:"default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Block is one entry of a user's block-list. Blocks hide users from each
// other in both directions.
type Block struct {
	BlockerID uint64    `gorm:"primaryKey"`
	BlockedID uint64    `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Like is a directed like edge.
//
// Composite PK: (LikerID, TargetID)
//   - Guarantees one edge per ordered pair; inserts use ON CONFLICT DO NOTHING.
//
// Indexes:
//   - idx_target_created(target_id, created_at DESC) for "who liked me" lists.
type Like struct {
	LikerID   uint64    `gorm:"primaryKey"`
	TargetID  uint64    `gorm:"primaryKey;index:idx_target_created,priority:1"`
	Message   string    `gorm:"size:500"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_target_created,priority:2,sort:desc"`
}

// Dislike suppresses TargetID from LikerID's candidate lists.
type Dislike struct {
	LikerID   uint64    `gorm:"primaryKey"`
	TargetID  uint64    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match confirms two users liked each other.
//
// UserAID is always the smaller id. The unique index on (user_a_id, user_b_id)
// is what prevents duplicate matches when both users like each other at the
// same moment, across any number of service instances.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserAID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	UserBID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Notification delivery states.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliverySkipped   = "skipped"
)

// Notification is a persisted, kind-tagged message for one recipient.
// Payload holds the JSON encoding of the kind-specific payload.
type Notification struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement"`
	RecipientID      uint64         `gorm:"not null;index:idx_recipient_read_created,priority:1"`
	Kind             string         `gorm:"size:32;not null"`
	Payload          datatypes.JSON `gorm:"not null"`
	IsRead           bool           `gorm:"not null;default:false;index:idx_recipient_read_created,priority:2"`
	ReadAt           *time.Time
	DeliveryStatus   string    `gorm:"size:16;not null;default:pending"`
	DeliveryAttempts int       `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index:idx_recipient_read_created,priority:3,sort:desc"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Suggestion states.
const (
	SuggestionPending  = "pending"
	SuggestionAccepted = "accepted"
	SuggestionRejected = "rejected"
)

// SuggestionState tracks one user's decision on one location.
type SuggestionState struct {
	UserID     uint64    `gorm:"primaryKey"`
	LocationID uint64    `gorm:"primaryKey"`
	State      string    `gorm:"size:16;not null;default:pending"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// Location is a catalog entry. Coordinates are kept as "lat,lng".
type Location struct {
	ID            uint64  `gorm:"primaryKey;autoIncrement"`
	Name          string  `gorm:"size:128;not null"`
	Coordinates   string  `gorm:"size:64;not null"`
	Category      string  `gorm:"size:64;not null;index"`
	Subcategories string  `gorm:"type:text"`
	Rating        float64 `gorm:"not null;default:0"`
	Region        string  `gorm:"size:64;index"`
}

// WebhookConfig is a user's external delivery endpoint.
type WebhookConfig struct {
	UserID    uint64    `gorm:"primaryKey"`
	URL       string    `gorm:"size:512;not null"`
	Secret    string    `gorm:"size:256;not null"`
	Enabled   bool      `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Block{}, &Like{}, &Dislike{}, &Match{},
		&Notification{}, &SuggestionState{}, &Location{}, &WebhookConfig{},
	}
}
