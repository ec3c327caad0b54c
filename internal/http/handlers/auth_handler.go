package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/pkg/auth"
	"github.com/diagnosis/party-hub/pkg/config"
	"github.com/diagnosis/party-hub/pkg/logger"
)

type SecretFinder interface {
	FindBySecret(ctx context.Context, secret string) (*domain.Author, error)
}

// AuthHandler exchanges an author secret for a session cookie.
type AuthHandler struct {
	authors SecretFinder
	cfg     *config.Config
}

func NewAuthHandler(authors SecretFinder, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authors: authors, cfg: cfg}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	secret := strings.TrimSpace(r.PostFormValue("author-secret"))

	a, err := h.authors.FindBySecret(r.Context(), secret)
	if err != nil {
		logger.ErrorContext(r.Context(), "Author lookup failed", "error", err)
	}
	if a == nil {
		logger.InfoContext(r.Context(), "Login rejected", "remote", r.RemoteAddr)
		http.Redirect(w, r, "/auth?error=invalid", http.StatusFound)
		return
	}

	token, err := auth.NewSession(a.ID, h.cfg.Auth.Secret, h.cfg.Auth.SessionTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to sign session", "error", err)
		http.Redirect(w, r, "/auth?error=invalid", http.StatusFound)
		return
	}
	http.SetCookie(w, h.cookie(token, h.cfg.Auth.SessionTTL))
	logger.InfoContext(r.Context(), "Author logged in", "author_id", a.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c := h.cookie("", 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
	http.Redirect(w, r, "/auth", http.StatusFound)
}

func (h *AuthHandler) cookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.Auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   !h.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	}
}
