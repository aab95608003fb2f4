package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func guardedServer(resolver Resolver) *echo.Echo {
	e := echo.New()
	g := e.Group("", Guard(resolver, zerolog.Nop()))
	g.GET("/*", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"user":     UserIDFromContext(c.Request().Context()),
			"echo_key": c.Get("user").(*User).ID,
		})
	})
	return e
}

func noSession() Resolver {
	return ResolverFunc(func(*http.Request) (*Session, *User, error) { return nil, nil, nil })
}

func TestGuard_RedirectsWithoutSession(t *testing.T) {
	tests := map[string]string{
		"/patients":                 "/login?redirectTo=/patients",
		"/patients/123/notes?tab=2": "/login?redirectTo=/patients/123/notes",
		"/patients/a%20b":           "/login?redirectTo=/patients/a%20b",
	}
	e := guardedServer(noSession())
	for target, want := range tests {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s: expected 303, got %d", target, rec.Code)
		}
		if got := rec.Header().Get("Location"); got != want {
			t.Errorf("%s: Location = %q, want %q", target, got, want)
		}
	}
}

func TestGuard_ResolverErrorRedirects(t *testing.T) {
	e := guardedServer(ResolverFunc(func(*http.Request) (*Session, *User, error) {
		return nil, nil, errors.New("securecookie: the value is not valid")
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", rec.Code)
	}
}

func TestGuard_PassesSessionThrough(t *testing.T) {
	e := guardedServer(DevResolver{})
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `{"echo_key":"dev-user","user":"dev-user"}`
	if got := rec.Body.String(); got != want+"\n" {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestGuard_FillsUserFromSession(t *testing.T) {
	e := guardedServer(ResolverFunc(func(*http.Request) (*Session, *User, error) {
		return &Session{User: &User{ID: "from-session"}}, nil, nil
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := `{"echo_key":"from-session","user":"from-session"}`
	if got := rec.Body.String(); got != want+"\n" {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := UserIDFromContext(req.Context()); id != "" {
		t.Errorf("expected empty user id, got %q", id)
	}
}
