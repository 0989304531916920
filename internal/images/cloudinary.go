package images

import (
	"context"
	"errors"
	"fmt"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"path/filepath"
	"strings"
)

// CloudinaryStore keeps images in a Cloudinary folder. The stored name is the
// Cloudinary public id.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudURL, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, up Upload) (StoredFile, error) {
	res, err := s.cld.Upload.Upload(ctx, up.Content, uploader.UploadParams{
		PublicID: publicID(up.Filename),
		Folder:   s.folder,
	})
	if err != nil {
		return StoredFile{}, err
	}
	if res.Error.Message != "" {
		return StoredFile{}, errors.New(res.Error.Message)
	}
	return StoredFile{Name: res.PublicID, URL: res.SecureURL}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, name string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: name})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	if res.Result == "not found" {
		return ErrFileNotFound
	}
	return nil
}

// publicID is a fresh stored name without its extension; Cloudinary appends
// the format itself.
func publicID(original string) string {
	name := storedName(original)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
