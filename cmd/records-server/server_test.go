package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/records/internal/config"
	"github.com/ehr/records/internal/domain/note"
	"github.com/ehr/records/internal/domain/patient"
	"github.com/ehr/records/internal/platform/db"
	"github.com/ehr/records/internal/platform/metrics"
	"github.com/ehr/records/internal/platform/session"
)

// recentOnlyRepo serves Recent; any other call panics.
type recentOnlyRepo struct {
	patient.Repository
	patients []*patient.Patient
}

func (r *recentOnlyRepo) Recent(_ context.Context, limit int) ([]*patient.Patient, error) {
	if limit < len(r.patients) {
		return r.patients[:limit], nil
	}
	return r.patients, nil
}

type noopNoteRepo struct {
	note.Repository
}

func testDeps(t *testing.T, resolver session.Resolver) routerDeps {
	t.Helper()
	registry := metrics.NewRegistry()
	opMetrics, err := metrics.NewOperationMetrics(registry)
	if err != nil {
		t.Fatalf("register operation metrics: %v", err)
	}
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		t.Fatalf("register http metrics: %v", err)
	}
	logger := zerolog.Nop()
	repo := &recentOnlyRepo{patients: []*patient.Patient{{
		ID:            uuid.New(),
		PatientNumber: 1,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		DateOfBirth:   patient.NewDate(1815, time.December, 10),
	}}}
	return routerDeps{
		cfg:         &config.Config{Env: "development", CORSOrigins: []string{"http://localhost:5173"}},
		logger:      logger,
		registry:    registry,
		httpMetrics: httpMetrics,
		resolver:    resolver,
		patients:    patient.NewService(repo, logger, opMetrics),
		notes:       note.NewService(&noopNoteRepo{}, logger, opMetrics),
	}
}

func TestRouter_Health(t *testing.T) {
	e := newRouter(testDeps(t, session.DevResolver{}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected security headers")
	}
}

func TestRouter_GuardRedirectsAnonymous(t *testing.T) {
	anonymous := session.ResolverFunc(func(*http.Request) (*session.Session, *session.User, error) {
		return nil, nil, nil
	})
	e := newRouter(testDeps(t, anonymous))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/patients/recent", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login?redirectTo=/api/v1/patients/recent" {
		t.Errorf("unexpected Location %q", got)
	}
}

func TestRouter_RecentPatients(t *testing.T) {
	d := testDeps(t, session.DevResolver{})
	e := newRouter(d)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/patients/recent?limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool              `json:"success"`
		Data    []patient.Patient `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || len(body.Data) != 1 || body.Data[0].LastName != "Lovelace" {
		t.Errorf("unexpected body %+v", body)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	scrape, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`records_http_requests_total{method="GET",route="/api/v1/patients/recent",status_code="200"} 1`,
		`records_operations_total{entity="patient",operation="recent",outcome="success"} 1`,
	} {
		if !bytes.Contains(scrape, []byte(want)) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRouter_SignInNotMountedWithoutCookies(t *testing.T) {
	e := newRouter(testDeps(t, session.DevResolver{}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{}`)))

	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected sign-in to be unavailable, got %d", rec.Code)
	}
}

func TestNewResolver(t *testing.T) {
	dev := &config.Config{Env: "development"}
	if r, cookies := newResolver(dev, zerolog.Nop()); cookies != nil {
		t.Errorf("expected development resolver, got %T", r)
	}

	prod := &config.Config{
		Env:               "production",
		AuthJWTSecret:     strings.Repeat("k", 32),
		SessionSecret:     strings.Repeat("s", 32),
		SessionCookieName: "records_session",
		SessionSecure:     true,
	}
	r, cookies := newResolver(prod, zerolog.Nop())
	if cookies == nil {
		t.Fatal("expected cookie resolver")
	}
	if _, ok := r.(*session.CookieResolver); !ok {
		t.Errorf("expected *session.CookieResolver, got %T", r)
	}
}

func TestRateLimitConfig(t *testing.T) {
	rl := rateLimitConfig(&config.Config{})
	if rl.RequestsPerSecond != 50 || rl.BurstSize != 100 {
		t.Errorf("expected defaults, got %+v", rl)
	}
	rl = rateLimitConfig(&config.Config{RateLimitRPS: 5, RateLimitBurst: 7})
	if rl.RequestsPerSecond != 5 || rl.BurstSize != 7 {
		t.Errorf("expected configured values, got %+v", rl)
	}
}

func TestNewLogger_Level(t *testing.T) {
	if got := newLogger("production", "warn").GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("expected warn, got %s", got)
	}
	if got := newLogger("production", "bogus").GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := db.NewMigrator(nil, migrationsFS("")).LoadMigrations()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migs) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migs))
	}
	if migs[0].Name != "001_patients.sql" || migs[1].Name != "002_patient_notes.sql" {
		t.Errorf("unexpected order %s, %s", migs[0].Name, migs[1].Name)
	}
}

func TestPrintStatus(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, "public", []db.MigrationStatus{
		{Version: 1, Name: "001_patients.sql", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "002_patient_notes.sql"},
	})

	out := buf.String()
	if !strings.Contains(out, "applied    2024-03-01 12:00:00") {
		t.Errorf("missing applied row:\n%s", out)
	}
	if !strings.Contains(out, "002_patient_notes.sql") || !strings.Contains(out, "pending") {
		t.Errorf("missing pending row:\n%s", out)
	}
}
