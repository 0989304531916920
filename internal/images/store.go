// Package images persists uploaded image binaries and hands back an opaque
// stored name plus a public URL.
package images

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"io"
	"path/filepath"
	"strings"
)

var ErrFileNotFound = errors.New("stored file not found")

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Empty reports whether the client sent no file in this slot.
func (u Upload) Empty() bool { return u.Filename == "" || u.Content == nil }

type StoredFile struct {
	Name string
	URL  string
}

// FileStore saves and removes image binaries.
type FileStore interface {
	Save(ctx context.Context, up Upload) (StoredFile, error)
	// Delete returns ErrFileNotFound when nothing is stored under name.
	Delete(ctx context.Context, name string) error
}

// UploadError is returned when the binary could not be persisted.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// storedName builds a collision-free name, keeping the client's extension.
func storedName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 10 {
		ext = ""
	}
	return uuid.NewString() + ext
}
