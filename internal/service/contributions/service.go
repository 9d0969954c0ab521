package contributions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"collab-app/internal/apperr"
	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/contributions"
	"collab-app/internal/domain/folders"
	"collab-app/internal/domain/maps"

	"gorm.io/gorm"
)

// createAttempts bounds the retry loop used when two uploads race for the same
// version number; the unique (contribution_id, version_number) index arbitrates.
const createAttempts = 3

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateContributionInput struct {
	AccountID    string
	FolderID     *string
	Title        string
	Description  string
	Tags         []string
	Duration     int
	VideoKey     string
	ThumbnailKey string
}

type CreateVersionInput struct {
	Title        string
	Description  string
	Tags         []string
	Duration     int
	VideoKey     string
	ThumbnailKey string
}

// CreateContribution persists a PENDING contribution with its implicit version 1.
// The editor must hold an ACTIVE grant on the account.
func (s *Service) CreateContribution(ctx context.Context, editorID string, in CreateContributionInput) (*contributions.Contribution, error) {
	db := s.db.WithContext(ctx)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", apperr.ErrValidation)
	}
	if in.VideoKey == "" {
		return nil, fmt.Errorf("video reference is required: %w", apperr.ErrValidation)
	}

	if err := requireActiveGrant(db, in.AccountID, editorID); err != nil {
		return nil, err
	}

	if in.FolderID != nil {
		var f folders.Folder
		if err := db.First(&f, "id = ? AND account_id = ?", *in.FolderID, in.AccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("folder %s on account %s: %w", *in.FolderID, in.AccountID, apperr.ErrNotFound)
			}
			return nil, err
		}
	}

	var result contributions.Contribution
	err := db.Transaction(func(tx *gorm.DB) error {
		c := contributions.Contribution{
			AccountID:   in.AccountID,
			EditorID:    editorID,
			FolderID:    in.FolderID,
			Title:       title,
			Description: in.Description,
			Tags:        in.Tags,
			Duration:    in.Duration,
			Status:      contributions.StatusPending,
		}
		if err := tx.Create(&c).Error; err != nil {
			return err
		}

		v := contributions.ContributionVersion{
			ContributionID: c.ID,
			VersionNumber:  1,
			Title:          title,
			Description:    in.Description,
			Tags:           in.Tags,
			Duration:       in.Duration,
			Status:         contributions.StatusPending,
			VideoKey:       in.VideoKey,
			ThumbnailKey:   in.ThumbnailKey,
		}
		if err := tx.Create(&v).Error; err != nil {
			return err
		}

		c.Versions = []contributions.ContributionVersion{v}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateVersion appends the next version, numbered max(existing)+1. Concurrent
// appends for one contribution are serialized by the unique version index: a
// losing insert recomputes and retries.
func (s *Service) CreateVersion(ctx context.Context, editorID, contributionID string, in CreateVersionInput) (*contributions.ContributionVersion, error) {
	db := s.db.WithContext(ctx)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", apperr.ErrValidation)
	}
	if in.VideoKey == "" {
		return nil, fmt.Errorf("video reference is required: %w", apperr.ErrValidation)
	}

	var c contributions.Contribution
	if err := db.First(&c, "id = ?", contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contribution %s: %w", contributionID, apperr.ErrNotFound)
		}
		return nil, err
	}
	if c.EditorID != editorID {
		return nil, fmt.Errorf("contribution %s is not owned by editor %s: %w", contributionID, editorID, apperr.ErrForbidden)
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		var v contributions.ContributionVersion
		err := db.Transaction(func(tx *gorm.DB) error {
			var next int
			row := tx.Model(&contributions.ContributionVersion{}).
				Where("contribution_id = ?", contributionID).
				Select("COALESCE(MAX(version_number), 0) + 1")
			if err := row.Scan(&next).Error; err != nil {
				return err
			}

			v = contributions.ContributionVersion{
				ContributionID: contributionID,
				VersionNumber:  next,
				Title:          title,
				Description:    in.Description,
				Tags:           in.Tags,
				Duration:       in.Duration,
				Status:         contributions.StatusPending,
				VideoKey:       in.VideoKey,
				ThumbnailKey:   in.ThumbnailKey,
			}
			return tx.Create(&v).Error
		})
		if err == nil {
			return &v, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("version numbering contended for contribution %s: %w (%v)",
		contributionID, apperr.ErrConflict, lastErr)
}

// UpdateVersionStatus is the creator-side review action. COMPLETED and REJECTED
// are terminal. When the reviewed version is the latest one, the contribution
// status mirrors it.
func (s *Service) UpdateVersionStatus(ctx context.Context, creatorID, versionID string, status contributions.Status) (*contributions.ContributionVersion, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, apperr.ErrValidation)
	}

	var result contributions.ContributionVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v contributions.ContributionVersion
		if err := tx.First(&v, "id = ?", versionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("version %s: %w", versionID, apperr.ErrNotFound)
			}
			return err
		}

		var c contributions.Contribution
		if err := tx.First(&c, "id = ?", v.ContributionID).Error; err != nil {
			return err
		}

		var acct accounts.Account
		if err := tx.First(&acct, "id = ?", c.AccountID).Error; err != nil {
			return err
		}
		if acct.CreatorID != creatorID {
			return fmt.Errorf("version %s belongs to another creator's account: %w", versionID, apperr.ErrForbidden)
		}

		if v.Status.Terminal() {
			return fmt.Errorf("version %s already %s: %w", versionID, v.Status, apperr.ErrConflict)
		}

		if err := tx.Model(&v).Update("status", status).Error; err != nil {
			return err
		}
		v.Status = status

		var latest int
		row := tx.Model(&contributions.ContributionVersion{}).
			Where("contribution_id = ?", c.ID).
			Select("COALESCE(MAX(version_number), 0)")
		if err := row.Scan(&latest).Error; err != nil {
			return err
		}
		if v.VersionNumber == latest {
			if err := tx.Model(&c).Update("status", status).Error; err != nil {
				return err
			}
		}

		result = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateVersionComment appends a comment. The author must be a party to the
// contribution: the uploading editor or the account's creator.
func (s *Service) CreateVersionComment(ctx context.Context, authorID, versionID, content string) (*contributions.VersionComment, error) {
	db := s.db.WithContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", apperr.ErrValidation)
	}

	if _, err := s.versionForParty(db, authorID, versionID); err != nil {
		return nil, err
	}

	comment := contributions.VersionComment{
		VersionID: versionID,
		AuthorID:  authorID,
		Content:   content,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListVersions returns a contribution's versions ordered by version number. The
// caller must be a party to the contribution.
func (s *Service) ListVersions(ctx context.Context, callerID, contributionID string) ([]contributions.ContributionVersion, error) {
	db := s.db.WithContext(ctx)

	var c contributions.Contribution
	if err := db.First(&c, "id = ?", contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contribution %s: %w", contributionID, apperr.ErrNotFound)
		}
		return nil, err
	}
	if err := requireParty(db, callerID, &c); err != nil {
		return nil, err
	}

	var rows []contributions.ContributionVersion
	err := db.Where("contribution_id = ?", contributionID).
		Order("version_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListComments returns a version's comments oldest first. The caller must be a
// party to the owning contribution.
func (s *Service) ListComments(ctx context.Context, callerID, versionID string) ([]contributions.VersionComment, error) {
	db := s.db.WithContext(ctx)

	if _, err := s.versionForParty(db, callerID, versionID); err != nil {
		return nil, err
	}

	var rows []contributions.VersionComment
	err := db.Preload("Author").
		Where("version_id = ?", versionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindVersionForParty loads a version for playback or inspection, enforcing the
// same party check as the comment surface.
func (s *Service) FindVersionForParty(ctx context.Context, callerID, versionID string) (*contributions.ContributionVersion, error) {
	return s.versionForParty(s.db.WithContext(ctx), callerID, versionID)
}

// AuthorizeUpload checks the editor holds an ACTIVE grant on the account before
// any upload URL is minted into its media prefix.
func (s *Service) AuthorizeUpload(ctx context.Context, editorID, accountID string) error {
	return requireActiveGrant(s.db.WithContext(ctx), accountID, editorID)
}

// ListByAccount is the creator's review queue for one account.
func (s *Service) ListByAccount(ctx context.Context, creatorID, accountID string) ([]contributions.Contribution, error) {
	db := s.db.WithContext(ctx)

	var acct accounts.Account
	if err := db.First(&acct, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", accountID, apperr.ErrNotFound)
		}
		return nil, err
	}
	if acct.CreatorID != creatorID {
		return nil, fmt.Errorf("account %s is not owned by creator %s: %w", accountID, creatorID, apperr.ErrForbidden)
	}

	var rows []contributions.Contribution
	err := db.Preload("Editor").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByEditor is the editor's view of their own uploads.
func (s *Service) ListByEditor(ctx context.Context, editorID string) ([]contributions.Contribution, error) {
	var rows []contributions.Contribution
	err := s.db.WithContext(ctx).Preload("Account").
		Where("editor_id = ?", editorID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) versionForParty(db *gorm.DB, callerID, versionID string) (*contributions.ContributionVersion, error) {
	var v contributions.ContributionVersion
	if err := db.First(&v, "id = ?", versionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("version %s: %w", versionID, apperr.ErrNotFound)
		}
		return nil, err
	}

	var c contributions.Contribution
	if err := db.First(&c, "id = ?", v.ContributionID).Error; err != nil {
		return nil, err
	}
	if err := requireParty(db, callerID, &c); err != nil {
		return nil, err
	}
	return &v, nil
}

// requireParty admits the uploading editor and the account's creator, nobody else.
func requireParty(db *gorm.DB, callerID string, c *contributions.Contribution) error {
	if callerID == c.EditorID {
		return nil
	}
	var acct accounts.Account
	if err := db.First(&acct, "id = ?", c.AccountID).Error; err != nil {
		return err
	}
	if callerID != acct.CreatorID {
		return fmt.Errorf("user %s is not a party to contribution %s: %w", callerID, c.ID, apperr.ErrForbidden)
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
				editorID, accountID, apperr.ErrForbidden)
		}
		return err
	}
	return nil
}
