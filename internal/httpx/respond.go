package httpx

import (
	"encoding/json"
	"errors"
	"github.com/ariefcatur/go-shop.git/internal/auth"
	"github.com/ariefcatur/go-shop.git/internal/catalog"
	"github.com/ariefcatur/go-shop.git/internal/images"
	"github.com/ariefcatur/go-shop.git/internal/members"
	"github.com/ariefcatur/go-shop.git/internal/orders"
	"github.com/ariefcatur/go-shop.git/internal/validation"
	"github.com/go-chi/chi/v5"
	"log"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	var uerr *images.UploadError
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
	case errors.Is(err, orders.ErrInvalidQuantity):
		writeMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, catalog.ErrImageNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, members.ErrMemberNotFound):
		writeMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrInvalidState),
		errors.Is(err, members.ErrDuplicateEmail):
		writeMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, members.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated):
		writeMsg(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, orders.ErrNotOwner),
		errors.Is(err, auth.ErrForbidden):
		writeMsg(w, http.StatusForbidden, err.Error())
	case errors.As(err, &uerr):
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeMsg(w, http.StatusInternalServerError, "image upload failed")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeMsg(w, http.StatusInternalServerError, "internal error")
	}
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
