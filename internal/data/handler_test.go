package data

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mock-auth-server/internal/auth"
	"mock-auth-server/internal/observability"
	"mock-auth-server/internal/respond"
	"mock-auth-server/internal/store"
)

// gatedHandler mounts the handler behind the real auth gate, the way
// bootstrap wires it.
func gatedHandler(t *testing.T) (http.Handler, string) {
	t.Helper()

	st := store.New()
	tokens := auth.NewTokens("test-secret", time.Minute, time.Minute, st.RefreshTokens, st.Blacklist)
	access, _, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	h := NewHandler(st.UserData, observability.NewLogger())
	mux := http.NewServeMux()
	mux.Handle("GET /api/data", auth.Middleware(tokens, http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/data", auth.Middleware(tokens, http.HandlerFunc(h.Put)))
	mux.Handle("PUT /api/data", auth.Middleware(tokens, http.HandlerFunc(h.Put)))
	mux.Handle("DELETE /api/data", auth.Middleware(tokens, http.HandlerFunc(h.Delete)))

	return mux, access
}

func doData(t *testing.T, mux http.Handler, method, target, bearer, body string) (int, respond.Data) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var res respond.Data
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return rec.Code, res
}

func TestHandler_CRUD(t *testing.T) {
	t.Parallel()

	mux, access := gatedHandler(t)

	status, res := doData(t, mux, http.MethodGet, "/api/data", access, "")
	if status != http.StatusOK || res.Data != "" {
		t.Fatalf("initial get: status=%d data=%q", status, res.Data)
	}
	if res.Message != "Data retrieved" {
		t.Fatalf("message = %q", res.Message)
	}

	_, res = doData(t, mux, http.MethodPost, "/api/data", access, `{"data":"blob-1"}`)
	if !res.Success || res.Data != "blob-1" {
		t.Fatalf("post: %+v", res)
	}

	_, res = doData(t, mux, http.MethodGet, "/api/data", access, "")
	if res.Data != "blob-1" {
		t.Fatalf("get after post: %q", res.Data)
	}

	_, res = doData(t, mux, http.MethodPut, "/api/data", access, `{"data":"blob-2"}`)
	if res.Data != "blob-2" || res.Message != "Data updated" {
		t.Fatalf("put: %+v", res)
	}

	_, res = doData(t, mux, http.MethodDelete, "/api/data", access, "")
	if !res.Success || res.Message != "Data deleted" {
		t.Fatalf("delete: %+v", res)
	}

	_, res = doData(t, mux, http.MethodGet, "/api/data", access, "")
	if res.Data != "" {
		t.Fatalf("get after delete: %q", res.Data)
	}
}

func TestHandler_RequiresAuth(t *testing.T) {
	t.Parallel()

	mux, _ := gatedHandler(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		status, res := doData(t, mux, method, "/api/data", "", `{"data":"x"}`)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s without token: status = %d, want 401", method, status)
		}
		if res.Code != "UNAUTHORIZED" {
			t.Fatalf("%s without token: code = %q", method, res.Code)
		}
	}
}

func TestHandler_FaultShortCircuits(t *testing.T) {
	t.Parallel()

	mux, access := gatedHandler(t)

	status, res := doData(t, mux, http.MethodPost, "/api/data?status=502", access, `{"data":"never-stored"}`)
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", status)
	}
	if res.Code != "SIMULATED_502" {
		t.Fatalf("code = %q", res.Code)
	}

	// The injected failure fired before the write.
	_, res = doData(t, mux, http.MethodGet, "/api/data", access, "")
	if res.Data != "" {
		t.Fatalf("data stored despite simulated failure: %q", res.Data)
	}
}

func TestHandler_InvalidBody(t *testing.T) {
	t.Parallel()

	mux, access := gatedHandler(t)

	status, res := doData(t, mux, http.MethodPost, "/api/data", access, "{broken")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if res.Code != "INVALID_BODY" {
		t.Fatalf("code = %q", res.Code)
	}
}
