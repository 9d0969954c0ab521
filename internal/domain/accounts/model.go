package accounts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountStatus string

const (
	AccountConnected    AccountStatus = "CONNECTED"
	AccountDisconnected AccountStatus = "DISCONNECTED"
)

// Account is an external platform channel linked to exactly one creator.
type Account struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID string `gorm:"type:uuid;not null;index" json:"creator_id"`

	Platform string `gorm:"type:varchar(30);not null;default:'youtube'" json:"platform"`
	Email    string `gorm:"not null" json:"email"`
	Title    string `json:"title"`

	// Subject id from the OAuth provider; one external channel links once.
	ProviderSub *string `gorm:"uniqueIndex:idx_accounts_provider_sub" json:"-"`

	// Stored but never refreshed here; token refresh lives outside this service.
	RefreshToken *string `json:"-"`

	Status AccountStatus `gorm:"type:varchar(20);not null;default:'CONNECTED'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
