package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer() (*echo.Echo, *Service, *mockRepo) {
	svc, repo := newTestService()
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e, svc, repo
}

func do(t *testing.T, e *echo.Echo, ctx context.Context, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

const createBody = `{"first_name":"Ada","last_name":"Lovelace","date_of_birth":"1815-12-10","gender":"female"}`

func TestHandler_GetInvalidID(t *testing.T) {
	e, _, _ := newTestServer()
	rec, env := do(t, e, context.Background(), http.MethodGet, "/api/v1/patients/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if env.Success || env.Error != "invalid id" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestHandler_GetMissingReturnsNullData(t *testing.T) {
	e, _, _ := newTestServer()
	rec, env := do(t, e, context.Background(), http.MethodGet, "/api/v1/patients/"+uuid.NewString(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !env.Success || string(env.Data) != "null" {
		t.Errorf("expected success with null data, got %+v (%s)", env, env.Data)
	}
}

func TestHandler_CreateUnauthorized(t *testing.T) {
	e, _, _ := newTestServer()
	rec, env := do(t, e, context.Background(), http.MethodPost, "/api/v1/patients", createBody)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if env.Error != "You must be logged in to create a patient" {
		t.Errorf("unexpected error %q", env.Error)
	}
}

func TestHandler_CreateAndGet(t *testing.T) {
	e, _, _ := newTestServer()
	rec, env := do(t, e, signedIn("user-1"), http.MethodPost, "/api/v1/patients", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Patient
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode patient: %v", err)
	}
	if created.CreatedBy != "user-1" || created.DateOfBirth.String() != "1815-12-10" {
		t.Errorf("unexpected patient %+v", created)
	}

	rec, env = do(t, e, context.Background(), http.MethodGet, "/api/v1/patients/"+created.ID.String(), "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 success, got %d %+v", rec.Code, env)
	}
}

func TestHandler_CreateValidation(t *testing.T) {
	e, _, repo := newTestServer()
	rec, env := do(t, e, signedIn("user-1"), http.MethodPost, "/api/v1/patients",
		`{"first_name":"Ada","date_of_birth":"1815-12-10"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(env.Error, "last_name") {
		t.Errorf("expected last_name in error, got %q", env.Error)
	}
	if len(repo.patients) != 0 {
		t.Error("expected no insert for invalid form")
	}
}

func TestHandler_SearchBadPatientNumber(t *testing.T) {
	e, _, _ := newTestServer()
	rec, _ := do(t, e, context.Background(), http.MethodGet, "/api/v1/patients?patientNumber=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_SearchFilters(t *testing.T) {
	e, svc, _ := newTestServer()
	mustCreate(t, svc, validForm("Jane", "Smith"))
	mustCreate(t, svc, validForm("Bob", "Jones"))

	rec, env := do(t, e, context.Background(), http.MethodGet, "/api/v1/patients?lastName=smi&dateOfBirth=1980-03-14", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var patients []Patient
	if err := json.Unmarshal(env.Data, &patients); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(patients) != 1 || patients[0].LastName != "Smith" {
		t.Errorf("expected only Smith, got %+v", patients)
	}
}

func TestHandler_RecentRespectsLimit(t *testing.T) {
	e, _, repo := newTestServer()
	rec, _ := do(t, e, context.Background(), http.MethodGet, "/api/v1/patients/recent?limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.lastLimit != 3 {
		t.Errorf("expected limit 3, got %d", repo.lastLimit)
	}
}

func TestHandler_ExistsRequiresNationalID(t *testing.T) {
	e, _, _ := newTestServer()
	rec, _ := do(t, e, context.Background(), http.MethodGet, "/api/v1/patients/exists", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	rec, env := do(t, e, context.Background(), http.MethodGet, "/api/v1/patients/exists?national_id=X", "")
	if rec.Code != http.StatusOK || string(env.Data) != "false" {
		t.Errorf("expected 200 with false, got %d %s", rec.Code, env.Data)
	}
}

func TestHandler_UpdateMissingIsDriverFault(t *testing.T) {
	e, _, _ := newTestServer()
	rec, env := do(t, e, signedIn("user-1"), http.MethodPut, "/api/v1/patients/"+uuid.NewString(), createBody)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if env.Error != "Failed to update patient: no rows in result set" {
		t.Errorf("unexpected error %q", env.Error)
	}
}

func TestHandler_Delete(t *testing.T) {
	e, svc, _ := newTestServer()
	p := mustCreate(t, svc, validForm("Ada", "Lovelace"))

	rec, _ := do(t, e, context.Background(), http.MethodDelete, "/api/v1/patients/"+p.ID.String(), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without user, got %d", rec.Code)
	}

	rec, env := do(t, e, signedIn("user-1"), http.MethodDelete, "/api/v1/patients/"+p.ID.String(), "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Errorf("expected 200 success, got %d %+v", rec.Code, env)
	}
}
