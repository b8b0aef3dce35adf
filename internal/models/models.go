package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultClientID identifies callers that do not send a client id
const DefaultClientID = "anonymous"

// ClientPreference stores the per-client "skip confirmation" toggle. It is the
// only state this service persists.
type ClientPreference struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ClientID         string    `gorm:"size:128;not null;uniqueIndex" json:"client_id"`
	SkipConfirmation bool      `gorm:"not null;default:false" json:"skip_confirmation"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (p *ClientPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AutoMigrate creates or updates database tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ClientPreference{})
}
