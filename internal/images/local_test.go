package images

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/images/item")
	ctx := context.Background()

	f, err := s.Save(ctx, Upload{Filename: "Photo.PNG", Content: strings.NewReader("png-bytes")})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(f.Name, ".png"))
	assert.NotContains(t, f.Name, "Photo")
	assert.Equal(t, "/images/item/"+f.Name, f.URL)

	b, err := os.ReadFile(filepath.Join(dir, f.Name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	require.NoError(t, s.Delete(ctx, f.Name))
	assert.ErrorIs(t, s.Delete(ctx, f.Name), ErrFileNotFound)
}

func TestLocalStore_SameOriginalNameDoesNotCollide(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "/img/")
	ctx := context.Background()

	a, err := s.Save(ctx, Upload{Filename: "a.jpg", Content: strings.NewReader("1")})
	require.NoError(t, err)
	b, err := s.Save(ctx, Upload{Filename: "a.jpg", Content: strings.NewReader("2")})
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, b.Name)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLocalStore_FailedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/img/")

	_, err := s.Save(context.Background(), Upload{Filename: "a.jpg", Content: failingReader{}})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_DeleteRejectsPaths(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "/img/")
	assert.ErrorIs(t, s.Delete(context.Background(), "../etc/passwd"), ErrFileNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), ""), ErrFileNotFound)
}

func TestUploadError_Unwrap(t *testing.T) {
	err := error(&UploadError{Filename: "a.jpg", Err: os.ErrPermission})
	assert.ErrorIs(t, err, os.ErrPermission)

	var ue *UploadError
	assert.True(t, errors.As(err, &ue))
	assert.Contains(t, err.Error(), "a.jpg")
}

func TestPublicID(t *testing.T) {
	for _, name := range []string{"Photo.PNG", "archive.tar.gz", "noext", "dir.v2/shot.jpg"} {
		id := publicID(name)
		assert.NotContains(t, id, ".", name)
		assert.Len(t, id, 36, name)
	}
}
