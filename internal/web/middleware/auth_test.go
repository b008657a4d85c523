package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKey_EmptyKeyDisablesCheck(t *testing.T) {
	handler := APIKey("")(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200 without configured key, got %d", recorder.Code)
	}
}

func TestAPIKey_MissingKeyRejected(t *testing.T) {
	handler := APIKey("secret")(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "unauthorized") {
		t.Errorf("expected unauthorized error body, got %s", recorder.Body.String())
	}
}

func TestAPIKey_WrongKeyRejected(t *testing.T) {
	handler := APIKey("secret")(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("X-API-Key", "guess")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", recorder.Code)
	}
}

func TestAPIKey_HeaderAccepted(t *testing.T) {
	handler := APIKey("secret")(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("X-API-Key", "secret")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200 with valid key, got %d", recorder.Code)
	}
}

func TestAPIKey_BearerTokenAccepted(t *testing.T) {
	handler := APIKey("secret")(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200 with bearer token, got %d", recorder.Code)
	}
}
