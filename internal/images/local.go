package images

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images into a directory served under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalStore(dir, urlPrefix string) *LocalStore {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{Dir: dir, URLPrefix: urlPrefix}
}

func (s *LocalStore) Save(ctx context.Context, up Upload) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return StoredFile{}, err
	}
	name := storedName(up.Filename)
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return StoredFile{}, err
	}
	if _, err := io.Copy(f, up.Content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return StoredFile{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return StoredFile{}, err
	}
	return StoredFile{Name: name, URL: s.URLPrefix + name}, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	// stored names never carry directories
	if name == "" || filepath.Base(name) != name {
		return ErrFileNotFound
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrFileNotFound
	}
	return err
}
