package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func runWithTimeout(t *testing.T, timeout time.Duration, ctx context.Context, h echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil).WithContext(ctx)
	return RequestTimeout(timeout)(h)(e.NewContext(req, httptest.NewRecorder()))
}

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	err := runWithTimeout(t, 2*time.Second, context.Background(), func(c echo.Context) error {
		deadline, ok := c.Request().Context().Deadline()
		if !ok {
			t.Fatal("expected deadline on request context")
		}
		if time.Until(deadline) > 2*time.Second {
			t.Errorf("deadline too far in the future: %v", deadline)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_Expires(t *testing.T) {
	err := runWithTimeout(t, time.Millisecond, context.Background(), func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRequestTimeout_KeepsSoonerCallerDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	want, _ := parent.Deadline()

	err := runWithTimeout(t, time.Minute, parent, func(c echo.Context) error {
		if got, _ := c.Request().Context().Deadline(); !got.Equal(want) {
			t.Errorf("deadline = %v, want caller deadline %v", got, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	err := runWithTimeout(t, 0, context.Background(), func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("expected no deadline when timeout is zero")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
