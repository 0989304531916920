package httpx

import (
	"context"
	"github.com/ariefcatur/go-shop.git/internal/auth"
	"github.com/ariefcatur/go-shop.git/internal/catalog"
	"github.com/ariefcatur/go-shop.git/internal/images"
	"github.com/ariefcatur/go-shop.git/internal/paging"
	"github.com/ariefcatur/go-shop.git/internal/validation"
	"github.com/go-chi/chi/v5"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

const maxUploadBytes = 32 << 20

type CatalogService interface {
	MainPage(ctx context.Context, f catalog.SearchFilter, req paging.Request) (paging.Page[catalog.MainItem], error)
	AdminPage(ctx context.Context, f catalog.SearchFilter, req paging.Request) (paging.Page[catalog.Item], error)
	GetItem(ctx context.Context, id int64) (*catalog.Item, error)
	CreateItem(ctx context.Context, form catalog.ItemForm, uploads []images.Upload, actor string) (int64, error)
	UpdateItem(ctx context.Context, id int64, form catalog.ItemForm, replacements map[int64]images.Upload, actor string) error
	AttachImage(ctx context.Context, itemID int64, up images.Upload) (*catalog.ItemImage, error)
}

type ItemsHandler struct {
	Catalog CatalogService
}

func (h *ItemsHandler) Register(r chi.Router) {
	r.Get("/", h.mainPage)
	r.Get("/item/{id}", h.itemDetail)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/admin/items", h.adminPage)
		r.Post("/admin/item/new", h.createItem)
		r.Get("/admin/item/{id}", h.itemDetail)
		r.Post("/admin/item/{id}", h.updateItem)
		r.Post("/admin/item/{id}/images", h.attachImage)
	})
}

func pageReq(r *http.Request) paging.Request {
	q := r.URL.Query()
	return paging.Parse(q.Get("page"), q.Get("size"))
}

func (h *ItemsHandler) mainPage(w http.ResponseWriter, r *http.Request) {
	f := catalog.SearchFilter{Query: strings.TrimSpace(r.URL.Query().Get("searchQuery"))}
	page, err := h.Catalog.MainPage(r.Context(), f, pageReq(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ItemsHandler) itemDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid item id")
		return
	}
	item, err := h.Catalog.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemsHandler) adminPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.SearchFilter{
		DateWindow: catalog.DateWindow(q.Get("searchDateType")),
		SearchBy:   catalog.SearchField(q.Get("searchBy")),
		Query:      strings.TrimSpace(q.Get("searchQuery")),
	}
	if st, ok := catalog.ParseSellStatus(q.Get("searchSellStatus")); ok {
		f.SellStatus = st
	}
	page, err := h.Catalog.AdminPage(r.Context(), f, pageReq(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ItemsHandler) createItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	form, err := itemForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	uploads, closeAll, err := openUploads(r.MultipartForm.File["images"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeAll()

	p, _ := auth.PrincipalFrom(r.Context())
	id, err := h.Catalog.CreateItem(r.Context(), form, uploads, p.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"item_id": id})
}

// updateItem takes replacement files in fields named image_{imageID}.
func (h *ItemsHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	form, err := itemForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	replacements := map[int64]images.Upload{}
	var headers []*multipart.FileHeader
	var imageIDs []int64
	for field, fhs := range r.MultipartForm.File {
		imgID, err := strconv.ParseInt(strings.TrimPrefix(field, "image_"), 10, 64)
		if !strings.HasPrefix(field, "image_") || err != nil || len(fhs) == 0 {
			continue
		}
		headers = append(headers, fhs[0])
		imageIDs = append(imageIDs, imgID)
	}
	uploads, closeAll, err := openUploads(headers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeAll()
	for i, up := range uploads {
		replacements[imageIDs[i]] = up
	}

	p, _ := auth.PrincipalFrom(r.Context())
	if err := h.Catalog.UpdateItem(r.Context(), id, form, replacements, p.Email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemsHandler) attachImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	uploads, closeAll, err := openUploads(r.MultipartForm.File["image"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer closeAll()
	if len(uploads) == 0 {
		writeError(w, r, validation.Errors{{Field: "image", Message: "image file is required"}})
		return
	}
	img, err := h.Catalog.AttachImage(r.Context(), id, uploads[0])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func itemForm(r *http.Request) (catalog.ItemForm, error) {
	var errs validation.Errors
	form := catalog.ItemForm{
		Name:       strings.TrimSpace(r.FormValue("name")),
		Detail:     strings.TrimSpace(r.FormValue("detail")),
		SellStatus: catalog.SellStatus(r.FormValue("sell_status")),
	}
	price, err := strconv.ParseInt(r.FormValue("price"), 10, 64)
	if err != nil {
		errs.Add("price", "price must be a whole number")
	}
	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil {
		errs.Add("stock", "stock must be a whole number")
	}
	form.Price, form.Stock = price, stock
	return form, errs.Err()
}

// openUploads opens every file header; the returned func closes them all.
func openUploads(headers []*multipart.FileHeader) ([]images.Upload, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			if err := f.Close(); err != nil {
				log.Printf("close upload: %v", err)
			}
		}
	}
	uploads := make([]images.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, &images.UploadError{Filename: fh.Filename, Err: err}
		}
		files = append(files, f)
		uploads = append(uploads, images.Upload{Filename: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}
