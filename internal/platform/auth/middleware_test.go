package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubAuthenticator struct {
	identity Identity
	err      error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return s.identity, s.err
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	var got Identity
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	mw := Middleware{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Authenticator: stubAuthenticator{identity: Identity{Subject: "user-1", Roles: []string{"admin"}}},
	}

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !ok || got.Subject != "user-1" {
		t.Fatalf("identity = %+v, ok = %v", got, ok)
	}
}

func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})

	mw := Middleware{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Authenticator: stubAuthenticator{err: ErrUnauthenticated},
	}

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	mw := Middleware{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Authenticator: stubAuthenticator{err: errors.New("token expired")},
	}

	rec := httptest.NewRecorder()
	mw.Wrap(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMiddlewareSkipsHealthEndpoints(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := Middleware{
		Authenticator: stubAuthenticator{err: ErrUnauthenticated},
		SkipPrefixes:  []string{"/healthz", "/readyz"},
	}

	rec := httptest.NewRecorder()
	mw.Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := tokenFromHeader(r); got != tt.want {
			t.Fatalf("tokenFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
