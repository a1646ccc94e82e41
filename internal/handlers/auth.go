package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/services"
)

// AuthHandler serves login, token refresh and session endpoints.
type AuthHandler struct {
	responder
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService, exposeDetail bool) *AuthHandler {
	return &AuthHandler{
		responder:   responder{exposeDetail: exposeDetail},
		authService: authService,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, requireAuth func(http.Handler) http.Handler, exposeDetail bool) {
	handler := NewAuthHandler(authService, exposeDetail)

	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.With(requireAuth).Post("/logout", handler.Logout)
	r.With(requireAuth).Get("/me", handler.Me)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.fail(w, r, auth.ErrMissingToken)
		return
	}
	if err := h.authService.Logout(r.Context(), identity.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, "Logged out successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.fail(w, r, auth.ErrMissingToken)
		return
	}
	user, err := h.authService.Me(r.Context(), identity.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
