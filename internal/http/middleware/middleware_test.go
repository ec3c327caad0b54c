package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/party-hub/internal/domain"
	"github.com/diagnosis/party-hub/pkg/auth"
	"github.com/diagnosis/party-hub/pkg/config"
)

type fakeAuthors map[string]*domain.Author

func (f fakeAuthors) FindByID(_ context.Context, id string) (*domain.Author, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	return f[id], nil
}

var echoAuthor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(Author(r).ID))
})

func sessionRequest(t *testing.T, authorID, secret string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/party", nil)
	if authorID != "" {
		tok, err := auth.NewSession(authorID, secret, time.Hour)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tok})
	}
	return req
}

func TestRequireAuthor(t *testing.T) {
	s := NewSession(fakeAuthors{"a1": {ID: "a1", Name: "Alice"}}, "secret", "auth_token")

	tests := []struct {
		name     string
		authorID string
		secret   string
		code     int
	}{
		{"valid session", "a1", "secret", http.StatusOK},
		{"no cookie", "", "", http.StatusUnauthorized},
		{"forged cookie", "a1", "other", http.StatusUnauthorized},
		{"deleted author", "a9", "secret", http.StatusUnauthorized},
		{"lookup error", "broken", "secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.RequireAuthor(echoAuthor).ServeHTTP(rec, sessionRequest(t, tt.authorID, tt.secret))
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "a1", rec.Body.String())
			}
		})
	}
}

func TestRequireAuthorPageRedirects(t *testing.T) {
	s := NewSession(fakeAuthors{}, "secret", "auth_token")
	rec := httptest.NewRecorder()
	s.RequireAuthorPage(echoAuthor).ServeHTTP(rec, sessionRequest(t, "", ""))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get("Location"))
}

func TestRateLimiterPerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, config.RateLimitConfig{PerMinute: 1, Burst: 2})
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestRateLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, config.RateLimitConfig{PerMinute: 1, Burst: 1})
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	do := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, do("3.3.3.3"))
}

func TestRateLimiterSweepsIdleEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, config.RateLimitConfig{PerMinute: 10, Burst: 1})
	rl.allow("10.0.0.1")

	rl.sweep(time.Now().Add(5 * time.Minute))
	assert.Len(t, rl.limiters, 1)
	rl.sweep(time.Now().Add(idleLimiterTTL + time.Minute))
	assert.Empty(t, rl.limiters)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     map[string]string
		remote     string
		trustProxy bool
		want       string
	}{
		{"forwarded chain behind proxy", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "9.9.9.9:1", true, "1.1.1.1"},
		{"real ip behind proxy", map[string]string{"X-Real-IP": "3.3.3.3"}, "9.9.9.9:1", true, "3.3.3.3"},
		{"proxy without headers", nil, "9.9.9.9:1", true, "9.9.9.9"},
		{"forwarded ignored without proxy", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "9.9.9.9:1", false, "9.9.9.9"},
		{"real ip ignored without proxy", map[string]string{"X-Real-IP": "3.3.3.3"}, "9.9.9.9:1", false, "9.9.9.9"},
		{"remote addr", nil, "9.9.9.9:1", false, "9.9.9.9"},
		{"ipv6", nil, "[::1]:8080", false, "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req, tt.trustProxy))
		})
	}
}
