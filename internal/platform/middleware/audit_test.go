package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/platform/session"
)

func TestExtractResource(t *testing.T) {
	tests := map[string]string{
		"/api/v1/patients":           "patients",
		"/api/v1/patients/abc":       "patients",
		"/api/v1/patients/recent":    "patients",
		"/api/v1/patients/abc/notes": "notes",
		"/api/v1/notes/def":          "notes",
		"/api/v1/session":            "",
		"/health":                    "",
		"/api/v1/":                   "",
	}
	for path, want := range tests {
		if got := extractResource(path); got != want {
			t.Errorf("extractResource(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("httpMethodToAction(%s) = %q, want %q", method, got, want)
		}
	}
}

func TestAudit_RecordsEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var recorded []AuditEntry
	recorder := AuditRecorderFunc(func(entry AuditEntry) error {
		recorded = append(recorded, entry)
		return nil
	})

	e := echo.New()
	e.Use(RequestID())
	e.DELETE("/api/v1/patients/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, Audit(logger, recorder))

	id := uuid.NewString()
	user := &session.User{ID: "user-5"}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+id, nil)
	req = req.WithContext(session.WithSession(context.Background(), &session.Session{User: user}, user))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if len(recorded) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorded))
	}
	got := recorded[0]
	if got.UserID != "user-5" || got.Resource != "patients" || got.Action != "delete" || got.RecordID != id {
		t.Errorf("unexpected entry %+v", got)
	}
	if got.StatusCode != http.StatusOK || got.RequestID == "" {
		t.Errorf("expected status and request id, got %+v", got)
	}

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["message"] != "record_access" || line["user_id"] != "user-5" {
		t.Errorf("unexpected log line %v", line)
	}
}

func TestAudit_SkipsNonRecordPaths(t *testing.T) {
	called := false
	recorder := AuditRecorderFunc(func(AuditEntry) error {
		called = true
		return nil
	})

	e := echo.New()
	e.GET("/api/v1/session", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, Audit(zerolog.Nop(), recorder))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	if called {
		t.Error("expected no audit entry for session route")
	}
}
