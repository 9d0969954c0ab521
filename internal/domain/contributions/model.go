package contributions

import (
	"fmt"
	"time"

	"collab-app/internal/apperr"
	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusRejected   Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further review transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown contribution status %q: %w", s, apperr.ErrValidation)
	}
	return st, nil
}

// Contribution is an editor upload under one account, reviewed by the account's
// creator through its ordered versions.
type Contribution struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID string `gorm:"type:uuid;not null;index" json:"account_id"`
	EditorID  string `gorm:"type:uuid;not null;index" json:"editor_id"`

	FolderID *string `gorm:"type:uuid;index" json:"folder_id,omitempty"`

	Title       string   `gorm:"not null" json:"title"`
	Description string   `json:"description"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	Duration    int      `json:"duration"`

	Status Status `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	Account  *accounts.Account     `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Editor   *users.User           `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
	Versions []ContributionVersion `gorm:"foreignKey:ContributionID" json:"versions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Contribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ContributionVersion numbering starts at 1 per contribution and is strictly
// monotonic; rows are never renumbered or deleted out of order.
type ContributionVersion struct {
	ID             string `gorm:"type:uuid;primaryKey" json:"id"`
	ContributionID string `gorm:"type:uuid;not null;uniqueIndex:idx_contribution_version,priority:1" json:"contribution_id"`
	VersionNumber  int    `gorm:"not null;uniqueIndex:idx_contribution_version,priority:2" json:"version_number"`

	Title       string   `gorm:"not null" json:"title"`
	Description string   `json:"description"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	Duration    int      `json:"duration"`

	Status Status `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	VideoKey     string `json:"video_key"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *ContributionVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VersionComment is append-only; listings order by created_at ascending.
type VersionComment struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	VersionID string `gorm:"type:uuid;not null;index" json:"version_id"`
	AuthorID  string `gorm:"type:uuid;not null" json:"author_id"`

	Content string `gorm:"not null" json:"content"`

	Author *users.User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *VersionComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
