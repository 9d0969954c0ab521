package maps

import (
	"context"
	"testing"

	"collab-app/internal/apperr"
	"collab-app/internal/domain/accounts"
	"collab-app/internal/domain/contributions"
	"collab-app/internal/domain/folders"
	"collab-app/internal/domain/maps"
	"collab-app/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&users.User{},
		&accounts.Account{},
		&maps.CreatorEditorMap{},
		&maps.AccountEditorMap{},
		&folders.Folder{},
		&contributions.Contribution{},
		&contributions.ContributionVersion{},
		&contributions.VersionComment{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role users.Role, email string) users.User {
	t.Helper()
	u := users.User{Name: string(role) + " " + email, Email: email, Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedAccount(t *testing.T, db *gorm.DB, creatorID string) accounts.Account {
	t.Helper()
	a := accounts.Account{CreatorID: creatorID, Platform: "youtube", Email: creatorID + "@channel.test"}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func TestRequestEditor_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")

	first, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, maps.StatusPending, first.Status)

	second, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, maps.StatusPending, second.Status)

	var count int64
	require.NoError(t, db.Model(&maps.CreatorEditorMap{}).
		Where("creator_id = ? AND editor_id = ?", creator.ID, editor.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRequestEditor_ReactivatesInactiveRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")

	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)

	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusInactive)
	require.NoError(t, err)

	again, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, maps.StatusPending, again.Status)
}

func TestRequestEditor_LosingRaceRetriesAsUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")

	// a rival request inserts the pair's row just before ours does, so our
	// insert loses on the unique index and the service must start over
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("rival_request", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*maps.CreatorEditorMap); !ok {
			return
		}
		raced = true
		rival := maps.CreatorEditorMap{CreatorID: creator.ID, EditorID: editor.ID, Status: maps.StatusPending}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			tx.AddError(err)
		}
	}))

	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	require.True(t, raced)
	assert.Equal(t, maps.StatusPending, m.Status)

	var count int64
	require.NoError(t, db.Model(&maps.CreatorEditorMap{}).
		Where("creator_id = ? AND editor_id = ?", creator.ID, editor.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRequestEditor_UnknownParties(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")

	_, err := svc.RequestEditor(ctx, "missing-id", editor.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.RequestEditor(ctx, creator.ID, "missing-id")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// a creator id in the editor position does not resolve
	_, err = svc.RequestEditor(ctx, creator.ID, creator.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindCreatorEditorMap_ProbeDoesNotCreateRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")

	probe, err := svc.FindCreatorEditorMap(ctx, creator.ID, editor.Email)
	require.NoError(t, err)
	assert.Equal(t, maps.StatusInactive, probe.Status)
	assert.Equal(t, editor.ID, probe.EditorID)
	assert.Equal(t, editor.Email, probe.EditorEmail)

	var count int64
	require.NoError(t, db.Model(&maps.CreatorEditorMap{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// once a row exists the probe reflects it
	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusActive)
	require.NoError(t, err)

	probe, err = svc.FindCreatorEditorMap(ctx, creator.ID, editor.Email)
	require.NoError(t, err)
	assert.Equal(t, maps.StatusActive, probe.Status)
}

func TestFindCreatorEditorMap_NotFoundCases(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	otherCreator := seedUser(t, db, users.RoleCreator, "c2@test.dev")

	_, err := svc.FindCreatorEditorMap(ctx, creator.ID, "nobody@test.dev")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// the email resolves to a user, but not to an editor
	_, err = svc.FindCreatorEditorMap(ctx, creator.ID, otherCreator.Email)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	_, err = svc.FindCreatorEditorMap(ctx, editor.ID, editor.Email)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateCreatorEditorStatus_CascadesToAccountGrants(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct1 := seedAccount(t, db, creator.ID)
	acct2 := seedAccount(t, db, creator.ID)

	// an unrelated creator's grant for the same editor must survive the cascade
	bystander := seedUser(t, db, users.RoleCreator, "c2@test.dev")
	bystanderAcct := seedAccount(t, db, bystander.ID)

	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusActive)
	require.NoError(t, err)

	bm, err := svc.RequestEditor(ctx, bystander.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.UpdateCreatorEditorStatus(ctx, bm.ID, maps.StatusActive)
	require.NoError(t, err)

	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct1.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)
	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct2.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)
	_, err = svc.ChangeAccountEditorStatus(ctx, bystander.ID, bystanderAcct.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)

	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusInactive)
	require.NoError(t, err)

	var active int64
	require.NoError(t, db.Model(&maps.AccountEditorMap{}).
		Where("account_id IN ? AND editor_id = ? AND status = ?",
			[]string{acct1.ID, acct2.ID}, editor.ID, maps.StatusActive).
		Count(&active).Error)
	assert.EqualValues(t, 0, active, "cascade must deactivate every grant under the creator")

	var bystanderGrant maps.AccountEditorMap
	require.NoError(t, db.First(&bystanderGrant, "account_id = ?", bystanderAcct.ID).Error)
	assert.Equal(t, maps.StatusActive, bystanderGrant.Status)
}

func TestUpdateCreatorEditorStatus_Errors(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.UpdateCreatorEditorStatus(ctx, "missing-id", maps.StatusActive)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateCreatorEditorStatus(ctx, "missing-id", maps.MapStatus("FROZEN"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestChangeAccountEditorStatus_RequiresActiveRelationship(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct := seedAccount(t, db, creator.ID)

	// no relationship at all
	_, err := svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusActive)
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)

	// a PENDING relationship is not enough
	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusActive)
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)

	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusActive)
	require.NoError(t, err)
	grant, err := svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, maps.StatusActive, grant.Status)
}

func TestChangeAccountEditorStatus_StaleInactiveGrantStillNeedsRelationship(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct := seedAccount(t, db, creator.ID)

	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusActive)
	require.NoError(t, err)
	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)

	// relationship revoked; grant row is now INACTIVE via cascade
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusInactive)
	require.NoError(t, err)

	// even though the grant row exists, reactivation requires the relationship
	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusActive)
	assert.ErrorIs(t, err, apperr.ErrPreconditionFailed)
}

func TestChangeAccountEditorStatus_RevocationIsUnconditional(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct := seedAccount(t, db, creator.ID)

	// seed a grant row directly, with no relationship backing it
	grant := maps.AccountEditorMap{AccountID: acct.ID, EditorID: editor.ID, Status: maps.StatusActive}
	require.NoError(t, db.Create(&grant).Error)

	out, err := svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, maps.StatusInactive, out.Status)
}

func TestChangeAccountEditorStatus_OwnershipAndValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	intruder := seedUser(t, db, users.RoleCreator, "c2@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct := seedAccount(t, db, creator.ID)

	_, err := svc.ChangeAccountEditorStatus(ctx, intruder.ID, acct.ID, editor.ID, maps.StatusInactive)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, "missing-id", editor.ID, maps.StatusInactive)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.MapStatus("SUSPENDED"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestChangeAccountEditorStatus_LosingRaceRetries(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct := seedAccount(t, db, creator.ID)

	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusActive)
	require.NoError(t, err)

	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("rival_grant", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*maps.AccountEditorMap); !ok {
			return
		}
		raced = true
		rival := maps.AccountEditorMap{AccountID: acct.ID, EditorID: editor.ID, Status: maps.StatusPending}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			tx.AddError(err)
		}
	}))

	grant, err := svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)
	require.True(t, raced)
	assert.Equal(t, maps.StatusActive, grant.Status)

	var count int64
	require.NoError(t, db.Model(&maps.AccountEditorMap{}).
		Where("account_id = ? AND editor_id = ?", acct.ID, editor.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFindAccountEditors(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	intruder := seedUser(t, db, users.RoleCreator, "c2@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct := seedAccount(t, db, creator.ID)

	_, err := svc.FindAccountEditors(ctx, intruder.ID, acct.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusActive)
	require.NoError(t, err)
	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)

	grants, err := svc.FindAccountEditors(ctx, creator.ID, acct.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.NotNil(t, grants[0].Editor)
	assert.Equal(t, editor.Email, grants[0].Editor.Email)

	// revoking the relationship empties the listing
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusInactive)
	require.NoError(t, err)

	grants, err = svc.FindAccountEditors(ctx, creator.ID, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestFindAccountsByEditor(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	editor := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	acct1 := seedAccount(t, db, creator.ID)
	acct2 := seedAccount(t, db, creator.ID)

	m, err := svc.RequestEditor(ctx, creator.ID, editor.ID)
	require.NoError(t, err)
	_, err = svc.UpdateCreatorEditorStatus(ctx, m.ID, maps.StatusActive)
	require.NoError(t, err)

	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct1.ID, editor.ID, maps.StatusActive)
	require.NoError(t, err)
	_, err = svc.ChangeAccountEditorStatus(ctx, creator.ID, acct2.ID, editor.ID, maps.StatusInactive)
	require.NoError(t, err)

	grants, err := svc.FindAccountsByEditor(ctx, editor.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, acct1.ID, grants[0].AccountID)
	require.NotNil(t, grants[0].Account)
	assert.Equal(t, creator.ID, grants[0].Account.CreatorID)
}

func TestFindMapsByParty(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	creator := seedUser(t, db, users.RoleCreator, "c1@test.dev")
	e1 := seedUser(t, db, users.RoleEditor, "e1@test.dev")
	e2 := seedUser(t, db, users.RoleEditor, "e2@test.dev")

	_, err := svc.RequestEditor(ctx, creator.ID, e1.ID)
	require.NoError(t, err)
	_, err = svc.RequestEditor(ctx, creator.ID, e2.ID)
	require.NoError(t, err)

	byCreator, err := svc.FindMapsByCreator(ctx, creator.ID)
	require.NoError(t, err)
	assert.Len(t, byCreator, 2)
	require.NotNil(t, byCreator[0].Editor)

	byEditor, err := svc.FindMapsByEditor(ctx, e1.ID)
	require.NoError(t, err)
	require.Len(t, byEditor, 1)
	require.NotNil(t, byEditor[0].Creator)
	assert.Equal(t, creator.Email, byEditor[0].Creator.Email)
}
