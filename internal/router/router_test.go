package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grabberbot/internal/bot"
)

func TestHealthEndpoint(t *testing.T) {
	handler := New(bot.New(nil, nil, "test", "test"), "token", false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Expected ok status body, got %s", rec.Body.String())
	}
}

func TestWebhookRouteAbsentWhenDisabled(t *testing.T) {
	handler := New(bot.New(nil, nil, "test", "test"), "token", false)

	req := httptest.NewRequest(http.MethodPost, "/webhook/token", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with webhook disabled, got %d", rec.Code)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	handler := New(bot.New(nil, nil, "test", "test"), "token", true)

	req := httptest.NewRequest(http.MethodPost, "/webhook/token", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed update, got %d", rec.Code)
	}
}

func TestWebhookAcceptsUpdate(t *testing.T) {
	handler := New(bot.New(nil, nil, "test", "test"), "token", true)

	// An update without a message is acknowledged and dropped.
	req := httptest.NewRequest(http.MethodPost, "/webhook/token", strings.NewReader(`{"update_id":1}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for a valid update, got %d", rec.Code)
	}
}

func TestWebhookWrongTokenNotFound(t *testing.T) {
	handler := New(bot.New(nil, nil, "test", "test"), "token", true)

	req := httptest.NewRequest(http.MethodPost, "/webhook/other", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a wrong token path, got %d", rec.Code)
	}
}
