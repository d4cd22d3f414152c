package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/lazarillo/internal/store"
)

func TestSettingsHandler_GetUnconfigured(t *testing.T) {
	s := newTestStore(t)
	handler := NewSettingsHandler(s, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp settingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.GeminiConfigured {
		t.Error("gemini should not be configured on a fresh store")
	}
}

func TestSettingsHandler_SetAPIKey(t *testing.T) {
	s := newTestStore(t)

	var changed string
	handler := NewSettingsHandler(s, func(key string) { changed = key })

	body, _ := json.Marshal(map[string]string{"gemini_api_key": "test-key"})
	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp settingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.GeminiConfigured {
		t.Error("gemini should be configured after setting the key")
	}
	if changed != "test-key" {
		t.Errorf("change callback got %q, want test-key", changed)
	}

	// The key itself must never appear in the response.
	if bytes.Contains(rec.Body.Bytes(), []byte("test-key")) {
		t.Error("API key must not be echoed back")
	}

	stored, err := s.Settings().Get(store.SettingGeminiAPIKey)
	if err != nil {
		t.Fatalf("failed to read stored key: %v", err)
	}
	if stored != "test-key" {
		t.Errorf("stored key = %q, want test-key", stored)
	}
}

func TestSettingsHandler_ClearAPIKey(t *testing.T) {
	s := newTestStore(t)
	if err := s.Settings().Set(store.SettingGeminiAPIKey, "old-key"); err != nil {
		t.Fatalf("failed to seed key: %v", err)
	}

	handler := NewSettingsHandler(s, nil)

	body, _ := json.Marshal(map[string]string{"gemini_api_key": ""})
	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp settingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.GeminiConfigured {
		t.Error("gemini should be unconfigured after clearing the key")
	}
}

func TestSettingsHandler_InvalidBody(t *testing.T) {
	s := newTestStore(t)
	handler := NewSettingsHandler(s, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
