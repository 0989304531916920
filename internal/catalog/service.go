package catalog

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-shop.git/internal/images"
	"github.com/ariefcatur/go-shop.git/internal/paging"
	"github.com/ariefcatur/go-shop.git/internal/validation"
	"log"
	"sort"
	"time"
)

// Store is what the item service needs from persistence; *Repo satisfies it.
type Store interface {
	CreateItem(ctx context.Context, item *Item, imgs []ItemImage) (int64, error)
	UpdateItem(ctx context.Context, item *Item, imgs []ItemImage) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	AdminPage(ctx context.Context, f SearchFilter, req paging.Request, now time.Time) (paging.Page[Item], error)
	MainPage(ctx context.Context, f SearchFilter, req paging.Request) (paging.Page[MainItem], error)
	GetImage(ctx context.Context, id int64) (*ItemImage, error)
	AddImage(ctx context.Context, img *ItemImage) (int64, error)
	UpdateImage(ctx context.Context, img *ItemImage) error
}

type Service struct {
	Store Store
	Files images.FileStore
	Now   func() time.Time
}

func NewService(store Store, files images.FileStore) *Service {
	return &Service{Store: store, Files: files, Now: time.Now}
}

func validateForm(f ItemForm) error {
	var errs validation.Errors
	errs.Required("name", f.Name, "item name is required")
	errs.Required("detail", f.Detail, "item detail is required")
	if f.Price < 0 {
		errs.Add("price", "price must not be negative")
	}
	if f.Stock < 0 {
		errs.Add("stock", "stock must not be negative")
	}
	if _, ok := ParseSellStatus(string(f.SellStatus)); !ok {
		errs.Add("sell_status", "sell status must be ON_SALE or SOLD_OUT")
	}
	return errs.Err()
}

// CreateItem stores the uploaded images first and only then records the item
// and image rows in one transaction. The first upload is required and becomes
// the representative image.
func (s *Service) CreateItem(ctx context.Context, form ItemForm, uploads []images.Upload, actor string) (int64, error) {
	if err := validateForm(form); err != nil {
		return 0, err
	}
	if len(uploads) == 0 || uploads[0].Empty() {
		return 0, validation.Errors{{Field: "images", Message: "the first item image is required"}}
	}

	var stored []images.StoredFile
	imgs := make([]ItemImage, 0, len(uploads))
	for i, up := range uploads {
		if up.Empty() {
			continue
		}
		f, err := s.Files.Save(ctx, up)
		if err != nil {
			s.discard(ctx, stored)
			return 0, &images.UploadError{Filename: up.Filename, Err: err}
		}
		stored = append(stored, f)
		imgs = append(imgs, ItemImage{
			OriginalName:   up.Filename,
			StoredName:     f.Name,
			URL:            f.URL,
			Representative: i == 0,
		})
	}

	status, _ := ParseSellStatus(string(form.SellStatus))
	item := &Item{
		Name:       form.Name,
		Price:      form.Price,
		Detail:     form.Detail,
		SellStatus: status,
		Stock:      form.Stock,
		CreatedBy:  actor,
	}
	id, err := s.Store.CreateItem(ctx, item, imgs)
	if err != nil {
		s.discard(ctx, stored)
		return 0, err
	}
	return id, nil
}

// UpdateItem edits the item fields and replaces the images named in
// replacements (image id -> new upload). All new files are written before
// the database is touched; the item row and image rows then change in one
// transaction, and the previous files are removed only after it commits.
func (s *Service) UpdateItem(ctx context.Context, id int64, form ItemForm, replacements map[int64]images.Upload, actor string) error {
	if err := validateForm(form); err != nil {
		return err
	}
	item, err := s.Store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	owned := make(map[int64]ItemImage, len(item.Images))
	for _, img := range item.Images {
		owned[img.ID] = img
	}
	imageIDs := make([]int64, 0, len(replacements))
	for imgID, up := range replacements {
		if _, ok := owned[imgID]; !ok {
			return ErrImageNotFound
		}
		if !up.Empty() {
			imageIDs = append(imageIDs, imgID)
		}
	}
	sort.Slice(imageIDs, func(i, j int) bool { return imageIDs[i] < imageIDs[j] })

	var stored []images.StoredFile
	var previous []string
	updated := make([]ItemImage, 0, len(imageIDs))
	for _, imgID := range imageIDs {
		up := replacements[imgID]
		f, err := s.Files.Save(ctx, up)
		if err != nil {
			s.discard(ctx, stored)
			return &images.UploadError{Filename: up.Filename, Err: err}
		}
		stored = append(stored, f)

		img := owned[imgID]
		previous = append(previous, img.StoredName)
		img.OriginalName = up.Filename
		img.StoredName = f.Name
		img.URL = f.URL
		updated = append(updated, img)
	}

	item.Name = form.Name
	item.Price = form.Price
	item.Detail = form.Detail
	item.SellStatus, _ = ParseSellStatus(string(form.SellStatus))
	item.Stock = form.Stock
	item.ModifiedBy = actor
	if err := s.Store.UpdateItem(ctx, item, updated); err != nil {
		s.discard(ctx, stored)
		return err
	}
	s.dropPrevious(ctx, previous)
	return nil
}

// AttachImage saves one more image for an existing item. It becomes the
// representative image only when the item has none yet.
func (s *Service) AttachImage(ctx context.Context, itemID int64, up images.Upload) (*ItemImage, error) {
	item, err := s.Store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	f, err := s.Files.Save(ctx, up)
	if err != nil {
		return nil, &images.UploadError{Filename: up.Filename, Err: err}
	}
	img := &ItemImage{
		ItemID:         itemID,
		OriginalName:   up.Filename,
		StoredName:     f.Name,
		URL:            f.URL,
		Representative: !hasRepresentative(item.Images),
	}
	if _, err := s.Store.AddImage(ctx, img); err != nil {
		s.discard(ctx, []images.StoredFile{f})
		return nil, err
	}
	return img, nil
}

func hasRepresentative(imgs []ItemImage) bool {
	for _, img := range imgs {
		if img.Representative {
			return true
		}
	}
	return false
}

// ReplaceImage writes the new binary, repoints the record at it and then
// removes the previous file. A previous file that is already gone is logged.
func (s *Service) ReplaceImage(ctx context.Context, imageID int64, up images.Upload) (*ItemImage, error) {
	img, err := s.Store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	f, err := s.Files.Save(ctx, up)
	if err != nil {
		return nil, &images.UploadError{Filename: up.Filename, Err: err}
	}

	old := img.StoredName
	img.OriginalName = up.Filename
	img.StoredName = f.Name
	img.URL = f.URL
	if err := s.Store.UpdateImage(ctx, img); err != nil {
		s.discard(ctx, []images.StoredFile{f})
		return nil, err
	}

	s.dropPrevious(ctx, []string{old})
	return img, nil
}

// dropPrevious removes files that no record points at any more. A file that
// is already gone is only logged.
func (s *Service) dropPrevious(ctx context.Context, names []string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := s.Files.Delete(ctx, name); errors.Is(err, images.ErrFileNotFound) {
			log.Printf("previous image file %s not found", name)
		} else if err != nil {
			log.Printf("delete previous image file %s: %v", name, err)
		}
	}
}

func (s *Service) discard(ctx context.Context, files []images.StoredFile) {
	for _, f := range files {
		if err := s.Files.Delete(ctx, f.Name); err != nil && !errors.Is(err, images.ErrFileNotFound) {
			log.Printf("discard stored file %s: %v", f.Name, err)
		}
	}
}

func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	return s.Store.GetItem(ctx, id)
}

func (s *Service) AdminPage(ctx context.Context, f SearchFilter, req paging.Request) (paging.Page[Item], error) {
	return s.Store.AdminPage(ctx, f, req.Normalize(), s.Now())
}

func (s *Service) MainPage(ctx context.Context, f SearchFilter, req paging.Request) (paging.Page[MainItem], error) {
	return s.Store.MainPage(ctx, f, req.Normalize())
}
