package httpx

import (
	"github.com/ariefcatur/go-shop.git/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"net/http"
	"strings"
	"time"
)

// NewRouter builds the base router. Every request passes through the
// session middleware; route groups decide whether a principal is required.
func NewRouter(sessions *auth.Sessions) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(sessions.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// MountImages serves locally stored item images under prefix.
func MountImages(r chi.Router, prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"*", fs.ServeHTTP)
}
