package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLiveness(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db, testSessionManager(t), t.TempDir())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	h.Liveness(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "alive" {
		t.Errorf("status = %q, want alive", resp["status"])
	}
}

func TestReadiness(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db, testSessionManager(t), t.TempDir())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	h.Readiness(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "ready" {
		t.Errorf("status = %q, want ready", resp["status"])
	}
}

func TestReadinessDatabaseDown(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db, testSessionManager(t), t.TempDir())
	db.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	h.Readiness(rec, req)

	assertStatus(t, rec.Code, http.StatusServiceUnavailable)
}

func TestHealthUnauthenticated(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db, testSessionManager(t), t.TempDir())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Health(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)

	// Unauthenticated callers only see the overall status.
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", resp["status"])
	}
	if _, ok := resp["checks"]; ok {
		t.Error("unauthenticated response must not include check details")
	}
}

func TestHealthAdmin(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager(t)
	h := NewHealthHandler(db, sm, t.TempDir())

	admin := createTestUser(t, db, testUser{Email: "admin@example.com", Name: "Admin", Role: "admin"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req = requestWithSession(sm, req)
	sm.Put(req.Context(), SessionKeyUserID, admin.ID)

	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assertStatus(t, rec.Code, http.StatusOK)

	var resp HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := resp.Checks["database"]; !ok {
		t.Error("admin response must include the database check")
	}
}
