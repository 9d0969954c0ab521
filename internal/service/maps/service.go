package maps

import (
	"context"
	"errors"
	"fmt"

	"collab-app/internal/apperr"
	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/maps"
	"collab-app/internal/domain/users"

	"gorm.io/gorm"
)

// upsertAttempts bounds the lookup-then-write retry loops. A losing concurrent
// insert aborts its transaction on Postgres, so recovery must re-run on a fresh
// statement rather than continue inside the failed one.
const upsertAttempts = 3

// Service owns the creator/editor relationship graph and its status machine.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// EditorLookup is the read-probe result of FindCreatorEditorMap. When no map row
// exists the Status is INACTIVE, meaning "no relationship" — no row is created.
type EditorLookup struct {
	CreatorID    string         `json:"creator_id"`
	EditorID     string         `json:"editor_id"`
	EditorEmail  string         `json:"editor_email"`
	EditorName   string         `json:"editor_name"`
	EditorAvatar string         `json:"editor_avatar,omitempty"`
	Status       maps.MapStatus `json:"status"`
}

func (s *Service) FindCreatorEditorMap(ctx context.Context, creatorID, editorEmail string) (*EditorLookup, error) {
	db := s.db.WithContext(ctx)

	var creator users.User
	if err := db.First(&creator, "id = ? AND role = ?", creatorID, users.RoleCreator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("creator %s: %w", creatorID, apperr.ErrNotFound)
		}
		return nil, err
	}

	var editor users.User
	if err := db.First(&editor, "email = ? AND role = ?", editorEmail, users.RoleEditor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("editor %s: %w", editorEmail, apperr.ErrNotFound)
		}
		return nil, err
	}

	out := &EditorLookup{
		CreatorID:    creator.ID,
		EditorID:     editor.ID,
		EditorEmail:  editor.Email,
		EditorName:   editor.Name,
		EditorAvatar: editor.Avatar,
		Status:       maps.StatusInactive,
	}

	var m maps.CreatorEditorMap
	err := db.First(&m, "creator_id = ? AND editor_id = ?", creator.ID, editor.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, nil
		}
		return nil, err
	}
	out.Status = m.Status
	return out, nil
}

// RequestEditor creates the pair's map row as PENDING, or resets an existing row
// (any status, including INACTIVE) back to PENDING. Idempotent per pair.
func (s *Service) RequestEditor(ctx context.Context, creatorID, editorID string) (*maps.CreatorEditorMap, error) {
	db := s.db.WithContext(ctx)

	if err := requireUserWithRole(db, creatorID, users.RoleCreator); err != nil {
		return nil, err
	}
	if err := requireUserWithRole(db, editorID, users.RoleEditor); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		var existing maps.CreatorEditorMap
		err := db.First(&existing, "creator_id = ? AND editor_id = ?", creatorID, editorID).Error
		if err == nil {
			if err := db.Model(&existing).Update("status", maps.StatusPending).Error; err != nil {
				return nil, err
			}
			existing.Status = maps.StatusPending
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		m := maps.CreatorEditorMap{
			CreatorID: creatorID,
			EditorID:  editorID,
			Status:    maps.StatusPending,
		}
		err = db.Create(&m).Error
		if err == nil {
			return &m, nil
		}
		// a concurrent request won the insert; loop back to the update path
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("editor request contended for creator %s and editor %s: %w",
		creatorID, editorID, apperr.ErrConflict)
}

// UpdateCreatorEditorStatus sets the relationship status. A transition to
// INACTIVE cascades inside the same transaction: every grant between the
// creator's accounts and the editor is forced INACTIVE in one batch update.
func (s *Service) UpdateCreatorEditorStatus(ctx context.Context, mapID string, status maps.MapStatus) (*maps.CreatorEditorMap, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, apperr.ErrValidation)
	}

	var result maps.CreatorEditorMap
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m maps.CreatorEditorMap
		if err := tx.First(&m, "id = ?", mapID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("creator-editor map %s: %w", mapID, apperr.ErrNotFound)
			}
			return err
		}

		if err := tx.Model(&m).Update("status", status).Error; err != nil {
			return err
		}
		m.Status = status

		if status == maps.StatusInactive {
			creatorAccounts := tx.Model(&accounts.Account{}).
				Select("id").
				Where("creator_id = ?", m.CreatorID)
			if err := tx.Model(&maps.AccountEditorMap{}).
				Where("editor_id = ? AND account_id IN (?)", m.EditorID, creatorAccounts).
				Update("status", maps.StatusInactive).Error; err != nil {
				return err
			}
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindAccountEditors lists the ACTIVE editor grants on an account the creator owns.
func (s *Service) FindAccountEditors(ctx context.Context, creatorID, accountID string) ([]maps.AccountEditorMap, error) {
	db := s.db.WithContext(ctx)

	if err := requireAccountOwner(db, accountID, creatorID); err != nil {
		return nil, err
	}

	var grants []maps.AccountEditorMap
	err := db.Preload("Editor").
		Where("account_id = ? AND status = ?", accountID, maps.StatusActive).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// FindAccountsByEditor lists every ACTIVE account grant an editor holds.
func (s *Service) FindAccountsByEditor(ctx context.Context, editorID string) ([]maps.AccountEditorMap, error) {
	var grants []maps.AccountEditorMap
	err := s.db.WithContext(ctx).Preload("Account").
		Where("editor_id = ? AND status = ?", editorID, maps.StatusActive).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// ChangeAccountEditorStatus is the gatekeeper for account-level grants. Granting
// (ACTIVE or PENDING) requires an ACTIVE creator-editor relationship; revocation
// is always permitted, since the cascade must be able to force INACTIVE grants
// regardless of relationship state.
func (s *Service) ChangeAccountEditorStatus(ctx context.Context, creatorID, accountID, editorID string, status maps.MapStatus) (*maps.AccountEditorMap, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, apperr.ErrValidation)
	}

	db := s.db.WithContext(ctx)

	if err := requireAccountOwner(db, accountID, creatorID); err != nil {
		return nil, err
	}

	if status != maps.StatusInactive {
		var rel maps.CreatorEditorMap
		err := db.First(&rel,
			"creator_id = ? AND editor_id = ? AND status = ?",
			creatorID, editorID, maps.StatusActive,
		).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("no active relationship between creator %s and editor %s: %w",
					creatorID, editorID, apperr.ErrPreconditionFailed)
			}
			return nil, err
		}
	}

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		var existing maps.AccountEditorMap
		err := db.First(&existing, "account_id = ? AND editor_id = ?", accountID, editorID).Error
		if err == nil {
			if err := db.Model(&existing).Update("status", status).Error; err != nil {
				return nil, err
			}
			existing.Status = status
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		m := maps.AccountEditorMap{
			AccountID: accountID,
			EditorID:  editorID,
			Status:    status,
		}
		err = db.Create(&m).Error
		if err == nil {
			return &m, nil
		}
		// a concurrent grant won the insert; loop back to the update path
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("grant upsert contended for account %s and editor %s: %w",
		accountID, editorID, apperr.ErrConflict)
}

// FindMapsByCreator lists a creator's relationships with editor profiles attached.
func (s *Service) FindMapsByCreator(ctx context.Context, creatorID string) ([]maps.CreatorEditorMap, error) {
	var rows []maps.CreatorEditorMap
	err := s.db.WithContext(ctx).Preload("Editor").
		Where("creator_id = ?", creatorID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindMapsByEditor lists an editor's relationships with creator profiles attached.
func (s *Service) FindMapsByEditor(ctx context.Context, editorID string) ([]maps.CreatorEditorMap, error) {
	var rows []maps.CreatorEditorMap
	err := s.db.WithContext(ctx).Preload("Creator").
		Where("editor_id = ?", editorID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func requireUserWithRole(db *gorm.DB, userID string, role users.Role) error {
	var u users.User
	if err := db.First(&u, "id = ? AND role = ?", userID, role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s %s: %w", role, userID, apperr.ErrNotFound)
		}
		return err
	}
	return nil
}

func requireAccountOwner(db *gorm.DB, accountID, creatorID string) error {
	var acct accounts.Account
	if err := db.First(&acct, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("account %s: %w", accountID, apperr.ErrNotFound)
		}
		return err
	}
	if acct.CreatorID != creatorID {
		return fmt.Errorf("account %s is not owned by creator %s: %w", accountID, creatorID, apperr.ErrForbidden)
	}
	return nil
}
