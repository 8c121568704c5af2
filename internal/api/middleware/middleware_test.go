package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/storefront/internal/api/middleware"
	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/service"
	"github.com/dom/storefront/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearFlag(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := middleware.ClearFlag(next)

	tests := []struct {
		name     string
		method   string
		target   string
		status   int
		location string
	}{
		{"flag set", http.MethodGet, "/api/v1/chat?clear=true", http.StatusFound, "/api/v1/chat"},
		{"flag with other params", http.MethodGet, "/api/v1/chat?clear=true&x=1", http.StatusFound, "/api/v1/chat"},
		{"flag false", http.MethodGet, "/api/v1/chat?clear=false", http.StatusTeapot, ""},
		{"no flag", http.MethodGet, "/api/v1/chat", http.StatusTeapot, ""},
		{"post with flag", http.MethodPost, "/api/v1/chat?clear=true", http.StatusFound, "/api/v1/chat"},
		{"delete with flag", http.MethodDelete, "/api/v1/carts/abc?clear=true", http.StatusFound, "/api/v1/carts/abc"},
		{"post without flag", http.MethodPost, "/api/v1/chat", http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestSession(t *testing.T) {
	store := testutil.NewMemorySessionRepo()
	sessions := service.NewSessionService(store, "secret", time.Minute)

	principal := domain.Principal{UserID: uuid.New(), Email: "m@example.com", Role: domain.RoleAdmin}
	_, token, err := sessions.Start(context.Background(), principal)
	require.NoError(t, err)

	var seen *domain.Principal
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = nil
		if p, ok := middleware.GetPrincipal(r.Context()); ok {
			seen = &p
		}
		w.WriteHeader(http.StatusOK)
	})
	h := middleware.Session(sessions, "sid")(capture)

	serve := func(cookie string) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	serve(token)
	require.NotNil(t, seen)
	assert.Equal(t, principal, *seen)

	serve("")
	assert.Nil(t, seen)

	serve("forged")
	assert.Nil(t, seen)

	require.NoError(t, sessions.End(context.Background(), token))
	serve(token)
	assert.Nil(t, seen)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middleware.RequireAdmin(ok)

	tests := []struct {
		name      string
		principal *domain.Principal
		status    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &domain.Principal{UserID: uuid.New(), Role: domain.RoleUser}, http.StatusForbidden},
		{"admin", &domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(context.WithValue(req.Context(), middleware.PrincipalKey, *tt.principal))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
