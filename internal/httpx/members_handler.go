package httpx

import (
	"context"
	"encoding/json"
	"github.com/ariefcatur/go-shop.git/internal/auth"
	"github.com/ariefcatur/go-shop.git/internal/members"
	"github.com/go-chi/chi/v5"
	"net/http"
	"time"
)

type MemberService interface {
	Register(ctx context.Context, f members.RegisterForm) (*members.Member, error)
	Authenticate(ctx context.Context, email, password string) (*members.Member, error)
	Get(ctx context.Context, id int64) (*members.Member, error)
}

type MembersHandler struct {
	Members  MemberService
	Sessions *auth.Sessions
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResp struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Member    *members.Member `json:"member"`
}

func (h *MembersHandler) Register(r chi.Router) {
	r.Post("/members/new", h.register)
	r.Post("/members/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireMember)
		r.Post("/members/logout", h.logout)
		r.Get("/members/me", h.me)
	})
}

func (h *MembersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req members.RegisterForm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := h.Members.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MembersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := h.Members.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, p, err := h.Sessions.Issue(m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.SetCookie(w, token, p.ExpiresAt)
	writeJSON(w, http.StatusOK, LoginResp{Token: token, ExpiresAt: p.ExpiresAt, Member: m})
}

func (h *MembersHandler) logout(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	if err := h.Sessions.Revoke(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *MembersHandler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	m, err := h.Members.Get(r.Context(), p.MemberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
