package middleware

import (
	"context"
	"net/http"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/internal/http/response"
	"github.com/diagnosis/party-hub/pkg/auth"
	"github.com/diagnosis/party-hub/pkg/logger"
)

type ctxKey string

const CtxAuthor ctxKey = "author"

type AuthorFinder interface {
	FindByID(ctx context.Context, id string) (*domain.Author, error)
}

// Session resolves the author behind the session cookie.
type Session struct {
	authors    AuthorFinder
	secret     string
	cookieName string
}

func NewSession(authors AuthorFinder, secret, cookieName string) *Session {
	return &Session{authors: authors, secret: secret, cookieName: cookieName}
}

// Lookup returns nil when the request carries no valid session.
func (s *Session) Lookup(r *http.Request) *domain.Author {
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	claims, err := auth.Parse(c.Value, s.secret)
	if err != nil {
		logger.DebugContext(r.Context(), "Rejected session cookie", "error", err)
		return nil
	}
	a, err := s.authors.FindByID(r.Context(), claims.Subject)
	if err != nil {
		logger.ErrorContext(r.Context(), "Author lookup failed", "error", err)
		return nil
	}
	return a
}

// RequireAuthor answers 401 JSON for API routes without a session.
func (s *Session) RequireAuthor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := s.Lookup(r)
		if a == nil {
			response.Unauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withAuthor(r.Context(), a)))
	})
}

// RequireAuthorPage redirects pages to the login form instead.
func (s *Session) RequireAuthorPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := s.Lookup(r)
		if a == nil {
			http.Redirect(w, r, "/auth", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withAuthor(r.Context(), a)))
	})
}

func withAuthor(ctx context.Context, a *domain.Author) context.Context {
	ctx = context.WithValue(ctx, CtxAuthor, a)
	return context.WithValue(ctx, logger.UserIDKey, a.ID)
}

func Author(r *http.Request) *domain.Author {
	a, _ := r.Context().Value(CtxAuthor).(*domain.Author)
	return a
}
