package users

import (
	"fmt"
	"time"

	"collab-app/internal/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a closed enumeration. Unknown values are rejected at every boundary
// (registration, token claims, guards) instead of being treated as "no permission".
type Role string

const (
	RoleCreator Role = "creator"
	RoleEditor  Role = "editor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCreator, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q: %w", s, apperr.ErrValidation)
	}
	return r, nil
}

type User struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	Name   string `json:"name"`
	Email  string `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Avatar string `json:"avatar,omitempty"`

	Password     *string `gorm:"" json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"-"`

	Role Role `gorm:"type:varchar(20);not null" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
