package folders

import (
	"time"

	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Folder groups contributions under one account. Editor assignment is optional
// and only valid while the editor holds an ACTIVE grant on the account.
type Folder struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string `gorm:"size:150;not null" json:"name"`
	AccountID string `gorm:"type:uuid;not null;index" json:"account_id"`
	CreatorID string `gorm:"type:uuid;not null;index" json:"creator_id"`

	EditorID *string `gorm:"type:uuid;index" json:"editor_id,omitempty"`

	Account *accounts.Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Editor  *users.User       `gorm:"foreignKey:EditorID" json:"editor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
