package maps

import (
	"fmt"
	"time"

	"collab-app/internal/apperr"
	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MapStatus string

const (
	StatusPending  MapStatus = "PENDING"
	StatusActive   MapStatus = "ACTIVE"
	StatusInactive MapStatus = "INACTIVE"
)

func (s MapStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive:
		return true
	}
	return false
}

func ParseStatus(s string) (MapStatus, error) {
	st := MapStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown map status %q: %w", s, apperr.ErrValidation)
	}
	return st, nil
}

// CreatorEditorMap is a creator's relationship to an editor. One row per pair;
// repeated requests re-enter PENDING on the existing row.
type CreatorEditorMap struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID string `gorm:"type:uuid;not null;uniqueIndex:idx_maps_creator_editor,priority:1" json:"creator_id"`
	EditorID  string `gorm:"type:uuid;not null;uniqueIndex:idx_maps_creator_editor,priority:2" json:"editor_id"`

	Status MapStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	Creator *users.User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Editor  *users.User `gorm:"foreignKey:EditorID" json:"editor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *CreatorEditorMap) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// AccountEditorMap is an account-level upload grant for an editor, scoped to the
// owning creator through the account. An ACTIVE grant requires an ACTIVE
// CreatorEditorMap between the account's creator and the editor.
type AccountEditorMap struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID string `gorm:"type:uuid;not null;uniqueIndex:idx_maps_account_editor,priority:1" json:"account_id"`
	EditorID  string `gorm:"type:uuid;not null;uniqueIndex:idx_maps_account_editor,priority:2" json:"editor_id"`

	Status MapStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	Account *accounts.Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Editor  *users.User       `gorm:"foreignKey:EditorID" json:"editor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *AccountEditorMap) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
