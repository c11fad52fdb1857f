package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pwvault/internal/adapter/driven/saltcipher"
	"github.com/ericfisherdev/pwvault/internal/domain/model"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

func addCredential(t *testing.T, repo *CredentialRepo, secret, name, site string, explicit bool) model.Credential {
	t.Helper()
	cred, err := repo.Add(context.Background(), model.AddInput{Secret: secret, Name: name, Site: site}, explicit)
	require.NoError(t, err)
	return cred
}

func TestCredentialRepo_AddAndSearchRevealed(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	cred, err := repo.Add(ctx, model.AddInput{Secret: "密码3", Name: "姓名3", Site: "站点3", Desc: "bank"}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cred.ID)
	assert.Equal(t, cred.Created, cred.Modified)

	creds, err := repo.Search(ctx, model.Pattern{}, true)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "姓名3", creds[0].Name)
	assert.Equal(t, "站点3", creds[0].Site)
	assert.Equal(t, "bank", creds[0].Desc)
	assert.Equal(t, "密码3", creds[0].Secret)
	assert.True(t, creds[0].Revealed)
	assert.GreaterOrEqual(t, len(creds[0].Sealed), saltcipher.MinLength)
}

func TestCredentialRepo_SearchHidesSecrets(t *testing.T) {
	repo := setupTestRepo(t)
	addCredential(t, repo, "hunter2", "Alice", "Bank", true)

	creds, err := repo.Search(context.Background(), model.Pattern{}, false)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Empty(t, creds[0].Secret)
	assert.False(t, creds[0].Revealed)
	assert.NotEmpty(t, creds[0].Sealed)
	assert.NotContains(t, string(creds[0].Sealed), "hunter2")
}

func TestCredentialRepo_AddExplicitConflict(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	addCredential(t, repo, "s1", "Alice", "Bank", true)

	_, err := repo.Add(ctx, model.AddInput{Secret: "s2", Name: "Alice", Site: "Bank"}, true)
	assert.ErrorIs(t, err, driven.ErrConflict)

	creds, err := repo.Search(ctx, model.Pattern{}, true)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "s1", creds[0].Secret)
}

func TestCredentialRepo_AddRenamesDefaults(t *testing.T) {
	repo := setupTestRepo(t)

	first := addCredential(t, repo, "s1", model.DefaultName, model.DefaultSite, false)
	second := addCredential(t, repo, "s2", model.DefaultName, model.DefaultSite, false)
	third := addCredential(t, repo, "s3", model.DefaultName, model.DefaultSite, false)

	assert.Equal(t, "Guest", first.Name)
	assert.Equal(t, "Guest~2", second.Name)
	assert.Equal(t, "Guest~3", third.Name)
	assert.Equal(t, "Default", second.Site)
	assert.Less(t, first.ID, second.ID)
	assert.Less(t, second.ID, third.ID)
}

func TestCredentialRepo_AddRenameIsPerSite(t *testing.T) {
	repo := setupTestRepo(t)

	addCredential(t, repo, "s1", "name2", "Default", false)
	other := addCredential(t, repo, "s2", "name2", "Mail", false)
	again := addCredential(t, repo, "s3", "name2", "Default", false)

	assert.Equal(t, "name2", other.Name)
	assert.Equal(t, "name2~2", again.Name)
}

func TestCredentialRepo_AddRejectsBlankSecret(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Add(context.Background(), model.AddInput{Secret: "   ", Name: "a", Site: "b"}, true)
	assert.ErrorIs(t, err, driven.ErrValidation)
}

func TestCredentialRepo_IDsNotReusedAfterDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := addCredential(t, repo, "s1", "a", "b", true)
	require.NoError(t, repo.Delete(ctx, model.DeleteInput{ID: first.ID}))

	second := addCredential(t, repo, "s2", "a", "b", true)
	assert.Greater(t, second.ID, first.ID)
}

func TestCredentialRepo_DeleteByID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	cred := addCredential(t, repo, "s1", "Alice", "Bank", true)
	addCredential(t, repo, "s2", "Bob", "Bank", true)

	require.NoError(t, repo.Delete(ctx, model.DeleteInput{ID: cred.ID}))

	creds, err := repo.Search(ctx, model.Pattern{}, false)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "Bob", creds[0].Name)
}

func TestCredentialRepo_DeleteByNameSite(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	addCredential(t, repo, "s1", "Alice", "Bank", true)

	require.NoError(t, repo.Delete(ctx, model.DeleteInput{Name: "Alice", Site: "Bank"}))

	creds, err := repo.Search(ctx, model.Pattern{}, false)
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestCredentialRepo_DeleteMissingLeavesTable(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	addCredential(t, repo, "s1", "Alice", "Bank", true)

	err := repo.Delete(ctx, model.DeleteInput{ID: 42})
	assert.ErrorIs(t, err, driven.ErrNotFound)

	err = repo.Delete(ctx, model.DeleteInput{Name: "no-name", Site: "no-site"})
	assert.ErrorIs(t, err, driven.ErrNotFound)

	creds, err := repo.Search(ctx, model.Pattern{}, false)
	require.NoError(t, err)
	assert.Len(t, creds, 1)
}

func TestCredentialRepo_DeleteValidation(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Delete(ctx, model.DeleteInput{}), driven.ErrValidation)
	assert.ErrorIs(t, repo.Delete(ctx, model.DeleteInput{Name: "a"}), driven.ErrValidation)
	assert.ErrorIs(t, repo.Delete(ctx, model.DeleteInput{ID: -1, Site: "b"}), driven.ErrValidation)
}

func TestCredentialRepo_UpdateDescOnly(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	orig := addCredential(t, repo, "s1", "Alice", "Bank", true)

	updated, err := repo.Update(ctx, model.UpdateInput{ID: orig.ID, Desc: "new"})
	require.NoError(t, err)

	assert.Equal(t, "new", updated.Desc)
	assert.Equal(t, orig.Name, updated.Name)
	assert.Equal(t, orig.Site, updated.Site)
	assert.Equal(t, orig.Sealed, updated.Sealed)
	assert.Equal(t, orig.Created, updated.Created)
	assert.True(t, updated.Modified.After(orig.Modified))
}

func TestCredentialRepo_UpdateByNameSiteReencrypts(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	orig := addCredential(t, repo, "old-password", "new-name2", "Default", true)

	updated, err := repo.Update(ctx, model.UpdateInput{Name: "new-name2", Site: "Default", Secret: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, orig.ID, updated.ID)
	assert.NotEqual(t, orig.Sealed, updated.Sealed)

	creds, err := repo.Search(ctx, model.Pattern{Name: "^new-name2$"}, true)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "new-password", creds[0].Secret)
}

func TestCredentialRepo_UpdateByNameSiteIgnoresRename(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	addCredential(t, repo, "s1", "Alice", "Bank", true)

	updated, err := repo.Update(ctx, model.UpdateInput{Name: "Alice", Site: "Bank", Desc: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "Bank", updated.Site)
}

func TestCredentialRepo_UpdateByIDRenames(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	orig := addCredential(t, repo, "s1", "name2", "Default", false)

	updated, err := repo.Update(ctx, model.UpdateInput{ID: orig.ID, Name: "new-name2"})
	require.NoError(t, err)
	assert.Equal(t, "new-name2", updated.Name)
	assert.Equal(t, "Default", updated.Site)
}

func TestCredentialRepo_UpdateByIDIntoTakenPairConflicts(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	addCredential(t, repo, "s1", "Alice", "Bank", true)
	bob := addCredential(t, repo, "s2", "Bob", "Bank", true)

	_, err := repo.Update(ctx, model.UpdateInput{ID: bob.ID, Name: "Alice"})
	assert.ErrorIs(t, err, driven.ErrConflict)
}

func TestCredentialRepo_UpdateNotFound(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Update(ctx, model.UpdateInput{ID: 2, Name: "some-name"})
	assert.ErrorIs(t, err, driven.ErrNotFound)

	_, err = repo.Update(ctx, model.UpdateInput{Name: "new-name2", Site: "no-site", Secret: "x"})
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestCredentialRepo_UpdateValidation(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   model.UpdateInput
	}{
		{"empty", model.UpdateInput{}},
		{"id only", model.UpdateInput{ID: 1}},
		{"id with blanks", model.UpdateInput{ID: 1, Name: " ", Desc: "\t"}},
		{"name site nothing to update", model.UpdateInput{Name: "a", Site: "b"}},
		{"missing site", model.UpdateInput{Name: "a", Secret: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Update(ctx, tt.in)
			assert.ErrorIs(t, err, driven.ErrValidation)
		})
	}
}

func TestCredentialRepo_SearchAndSemantics(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	bank := addCredential(t, repo, "s1", "Alice", "Bank", true)
	addCredential(t, repo, "s2", "Alice", "Mail", true)

	creds, err := repo.Search(ctx, model.Pattern{Name: "Alice", Site: "Bank"}, false)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, bank.ID, creds[0].ID)

	creds, err = repo.Search(ctx, model.Pattern{Name: "Alice"}, false)
	require.NoError(t, err)
	assert.Len(t, creds, 2)
}

func TestCredentialRepo_SearchRegexSemantics(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	addCredential(t, repo, "s1", "new-name2", "Default", true)
	addCredential(t, repo, "s2", "Guest", "Default", false)
	addCredential(t, repo, "s3", "Guest", "Default", false)
	addCredential(t, repo, "s4", "guest", "9site", true)

	creds, err := repo.Search(ctx, model.Pattern{Name: `\-`}, false)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "new-name2", creds[0].Name)

	creds, err = repo.Search(ctx, model.Pattern{Name: `~`, Site: `^\D`}, false)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "Guest~2", creds[0].Name)

	// Case-sensitive substring match.
	creds, err = repo.Search(ctx, model.Pattern{Name: "uest"}, false)
	require.NoError(t, err)
	assert.Len(t, creds, 3)

	creds, err = repo.Search(ctx, model.Pattern{Name: "^Guest"}, false)
	require.NoError(t, err)
	assert.Len(t, creds, 2)
}

func TestCredentialRepo_SearchByDesc(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	_, err := repo.Add(ctx, model.AddInput{Secret: "s", Name: "a", Site: "b", Desc: "work laptop"}, true)
	require.NoError(t, err)
	addCredential(t, repo, "s", "c", "d", true)

	creds, err := repo.Search(ctx, model.Pattern{Desc: "laptop$"}, false)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "a", creds[0].Name)
}

func TestCredentialRepo_SearchNoMatchIsEmpty(t *testing.T) {
	repo := setupTestRepo(t)
	addCredential(t, repo, "s1", "Alice", "Bank", true)

	creds, err := repo.Search(context.Background(), model.Pattern{Site: "Nowhere"}, true)
	require.NoError(t, err)
	assert.NotNil(t, creds)
	assert.Empty(t, creds)
}

func TestCredentialRepo_SearchInvalidPattern(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Search(context.Background(), model.Pattern{Name: "("}, false)
	assert.ErrorIs(t, err, driven.ErrValidation)
}

func TestCredentialRepo_SearchWrongKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	right, err := saltcipher.New("right", saltcipher.ModeGCM)
	require.NoError(t, err)
	wrong, err := saltcipher.New("wrong", saltcipher.ModeGCM)
	require.NoError(t, err)

	_, err = NewCredentialRepo(db, right).Add(ctx, model.AddInput{Secret: "s", Name: "a", Site: "b"}, true)
	require.NoError(t, err)

	_, err = NewCredentialRepo(db, wrong).Search(ctx, model.Pattern{}, true)
	assert.ErrorIs(t, err, driven.ErrCrypto)

	creds, err := NewCredentialRepo(db, wrong).Search(ctx, model.Pattern{}, false)
	require.NoError(t, err)
	assert.Len(t, creds, 1)
}

func TestSchemaVersion(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := SchemaVersion(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
