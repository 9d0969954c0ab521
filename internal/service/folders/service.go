package folders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"collab-app/internal/apperr"
	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/folders"
	"collab-app/internal/domain/maps"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	AccountID string
	Name      string
	EditorID  *string
}

// Create makes a folder under an account the creator owns. Assigning an editor
// requires that editor to hold an ACTIVE grant on the account.
func (s *Service) Create(ctx context.Context, creatorID string, in CreateInput) (*folders.Folder, error) {
	db := s.db.WithContext(ctx)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required: %w", apperr.ErrValidation)
	}

	if err := requireAccountOwner(db, in.AccountID, creatorID); err != nil {
		return nil, err
	}

	if in.EditorID != nil {
		if err := requireActiveGrant(db, in.AccountID, *in.EditorID); err != nil {
			return nil, err
		}
	}

	f := folders.Folder{
		Name:      name,
		AccountID: in.AccountID,
		CreatorID: creatorID,
		EditorID:  in.EditorID,
	}
	if err := db.Create(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Service) ListByAccount(ctx context.Context, creatorID, accountID string) ([]folders.Folder, error) {
	db := s.db.WithContext(ctx)

	if err := requireAccountOwner(db, accountID, creatorID); err != nil {
		return nil, err
	}

	var rows []folders.Folder
	if err := db.Preload("Editor").Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) ListByEditor(ctx context.Context, editorID string) ([]folders.Folder, error) {
	var rows []folders.Folder
	err := s.db.WithContext(ctx).Preload("Account").
		Where("editor_id = ?", editorID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) Rename(ctx context.Context, creatorID, folderID, name string) (*folders.Folder, error) {
	db := s.db.WithContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("folder name is required: %w", apperr.ErrValidation)
	}

	f, err := s.ownedFolder(db, creatorID, folderID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(f).Update("name", name).Error; err != nil {
		return nil, err
	}
	f.Name = name
	return f, nil
}

// AssignEditor sets or clears the folder's editor. A non-nil editor must hold an
// ACTIVE grant on the folder's account.
func (s *Service) AssignEditor(ctx context.Context, creatorID, folderID string, editorID *string) (*folders.Folder, error) {
	db := s.db.WithContext(ctx)

	f, err := s.ownedFolder(db, creatorID, folderID)
	if err != nil {
		return nil, err
	}

	if editorID != nil {
		if err := requireActiveGrant(db, f.AccountID, *editorID); err != nil {
			return nil, err
		}
	}

	if err := db.Model(f).Update("editor_id", editorID).Error; err != nil {
		return nil, err
	}
	f.EditorID = editorID
	return f, nil
}

func (s *Service) Delete(ctx context.Context, creatorID, folderID string) error {
	res := s.db.WithContext(ctx).
		Delete(&folders.Folder{}, "id = ? AND creator_id = ?", folderID, creatorID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
	}
	return nil
}

func (s *Service) ownedFolder(db *gorm.DB, creatorID, folderID string) (*folders.Folder, error) {
	var f folders.Folder
	if err := db.First(&f, "id = ?", folderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
		}
		return nil, err
	}
	if f.CreatorID != creatorID {
		return nil, fmt.Errorf("folder %s is not owned by creator %s: %w", folderID, creatorID, apperr.ErrForbidden)
	}
	return &f, nil
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

func requireActiveGrant(db *gorm.DB, accountID, editorID string) error {
	var grant maps.AccountEditorMap
	err := db.First(&grant,
		"account_id = ? AND editor_id = ? AND status = ?",
		accountID, editorID, maps.StatusActive,
	).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("editor %s has no active grant on account %s: %w",
				editorID, accountID, apperr.ErrPreconditionFailed)
		}
		return err
	}
	return nil
}
