package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConstantTimeEqual(t *testing.T) {
	if !constantTimeEqual("secret", "secret") {
		t.Fatal("expected equal secrets to match")
	}
	if constantTimeEqual("secret", "different") {
		t.Fatal("expected different secrets to not match")
	}
	if constantTimeEqual("short", "longerstring") {
		t.Fatal("expected different lengths to not match")
	}
}

func TestAtoiDefault(t *testing.T) {
	if got := atoiDefault("", 50); got != 50 {
		t.Fatalf("expected default 50, got %d", got)
	}
	if got := atoiDefault("not-a-number", 50); got != 50 {
		t.Fatalf("expected default on parse failure, got %d", got)
	}
	if got := atoiDefault("12", 50); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}

func TestCorsMiddleware_AllowAllWhenNoOriginsConfigured(t *testing.T) {
	handler := corsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestCorsMiddleware_AllowlistRejectsUnknownOrigin(t *testing.T) {
	handler := corsMiddleware([]string{"https://dashboard.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header for unknown origin, got %q", got)
	}
}

func TestCorsMiddleware_OptionsShortCircuits(t *testing.T) {
	called := false
	handler := corsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Fatal("expected OPTIONS request to short-circuit before reaching the handler")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for OPTIONS preflight, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RejectsMissingHeader(t *testing.T) {
	s := &Server{}
	called := false
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if called {
		t.Fatal("expected request without Authorization header to be rejected")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRespondJSONAndError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusCreated, map[string]string{"ok": "true"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}

	rec2 := httptest.NewRecorder()
	respondError(rec2, http.StatusBadRequest, "bad input")
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec2.Code)
	}
}

func TestLoggingResponseWriter_CapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	lrw := &loggingResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	lrw.WriteHeader(http.StatusTeapot)

	if lrw.statusCode != http.StatusTeapot {
		t.Fatalf("expected captured status %d, got %d", http.StatusTeapot, lrw.statusCode)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected underlying recorder status %d, got %d", http.StatusTeapot, rec.Code)
	}
}
