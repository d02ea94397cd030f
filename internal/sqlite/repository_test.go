package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testPaste(id string, expiresAt *time.Time) *pastes.Paste {
	return &pastes.Paste{
		ID:          id,
		StoredName:  id + ".txt",
		DisplayName: "notes.txt",
		Extension:   ".txt",
		Size:        42,
		ContentType: "text/plain; charset=utf-8",
		IsText:      true,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
}

func TestRepositoryInsertAndGet(t *testing.T) {
	repo := newTestRepository(t)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	want := testPaste("aaaa1111", &expires)
	require.NoError(t, repo.Insert(want))

	got, err := repo.Get("aaaa1111")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.StoredName, got.StoredName)
	assert.Equal(t, want.DisplayName, got.DisplayName)
	assert.Equal(t, want.Extension, got.Extension)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.ContentType, got.ContentType)
	assert.Equal(t, want.IsText, got.IsText)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt), "want %v, got %v", expires, got.ExpiresAt)
}

func TestRepositoryInsertNullableFields(t *testing.T) {
	repo := newTestRepository(t)

	p := testPaste("bbbb2222", nil)
	p.ContentType = ""
	require.NoError(t, repo.Insert(p))

	got, err := repo.Get("bbbb2222")
	require.NoError(t, err)
	assert.Empty(t, got.ContentType)
	assert.Nil(t, got.ExpiresAt, "no expiration must round-trip as nil")
}

func TestRepositoryDuplicateID(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Insert(testPaste("cccc3333", nil)))
	err := repo.Insert(testPaste("cccc3333", nil))
	assert.ErrorIs(t, err, pastes.ErrDuplicateID)
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get("nosuchid")
	assert.ErrorIs(t, err, pastes.ErrNotFound)
}

func TestRepositoryListExpired(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	exact := now
	future := now.Add(time.Hour)

	require.NoError(t, repo.Insert(testPaste("pastpast", &past)))
	require.NoError(t, repo.Insert(testPaste("exactnow", &exact)))
	require.NoError(t, repo.Insert(testPaste("future11", &future)))
	require.NoError(t, repo.Insert(testPaste("forever1", nil)))

	expired, err := repo.ListExpired(now)
	require.NoError(t, err)

	var ids []string
	for _, p := range expired {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"pastpast", "exactnow"}, ids)
}

func TestRepositoryDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Insert(testPaste("dddd4444", nil)))

	assert.NoError(t, repo.Delete("dddd4444"))
	assert.NoError(t, repo.Delete("dddd4444"))

	_, err := repo.Get("dddd4444")
	assert.ErrorIs(t, err, pastes.ErrNotFound)
}
