package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrychef/recipegen/internal/config"
)

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"fridge.jpg":            "fridge.jpg",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\photo.png`: "photo.png",
		"my fridge (1).jpg":     "my_fridge_1.jpg",
		"..hidden":              "hidden",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeKey(in), "SanitizeKey(%q)", in)
	}

	assert.NotEmpty(t, SanitizeKey("../"))
	assert.NotEmpty(t, SanitizeKey(""))
}

func TestUploadKey(t *testing.T) {
	assert.Equal(t, "output_fridge.jpg", UploadKey("fridge.jpg"))
	assert.Equal(t, "output_passwd", UploadKey("/etc/passwd"))
}

func TestHashContent(t *testing.T) {
	assert.Equal(t, HashContent([]byte("a")), HashContent([]byte("a")))
	assert.NotEqual(t, HashContent([]byte("a")), HashContent([]byte("b")))
	assert.Len(t, HashContent(nil), 64)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", DetectContentType([]byte("\x89PNG\r\n\x1a\n0000")))
}

func TestLocalStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, UploadKey("fridge.jpg"), "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "/static/output_fridge.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "output_fridge.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	require.NoError(t, store.Delete(ctx, "output_fridge.jpg"))
	_, err = os.Stat(filepath.Join(dir, "output_fridge.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "output_fridge.jpg"))
}

func TestLocalStore_SaveCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "static"), "/static/")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "../outside.txt", "text/plain", []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, "/static/outside.txt", url)
	_, err = os.Stat(filepath.Join(dir, "outside.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_Sweep(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "")
	require.NoError(t, err)

	old := filepath.Join(dir, "output_old.jpg")
	fresh := filepath.Join(dir, "output_fresh.jpg")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	removed, err := store.Sweep(context.Background(), 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Storage.Dir = t.TempDir()

	store, err := New(context.Background(), cfg)
	require.NoError(t, err)
	_, isSweeper := store.(Sweeper)
	assert.True(t, isSweeper)

	cfg.Storage.Backend = "supabase"
	store, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &SupabaseStore{}, store)

	cfg.Storage.Backend = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
