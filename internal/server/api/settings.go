package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/lazarillo/internal/store"
)

// SettingsHandler serves the runtime settings. The Gemini API key is entered
// from the UI and stored here; it is never echoed back in full.
type SettingsHandler struct {
	store          *store.Store
	onAPIKeyChange func(key string)
}

// NewSettingsHandler creates a new SettingsHandler. onAPIKeyChange may be nil.
func NewSettingsHandler(s *store.Store, onAPIKeyChange func(key string)) *SettingsHandler {
	return &SettingsHandler{store: s, onAPIKeyChange: onAPIKeyChange}
}

type settingsResponse struct {
	GeminiConfigured bool `json:"gemini_configured"`
}

type settingsRequest struct {
	GeminiAPIKey *string `json:"gemini_api_key,omitempty"`
}

// ServeHTTP handles GET and PUT on /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	key, err := h.store.Settings().Get(store.SettingGeminiAPIKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Failed to read settings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		GeminiConfigured: key != "",
	})
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.GeminiAPIKey != nil {
		key := *req.GeminiAPIKey
		var err error
		if key == "" {
			err = h.store.Settings().Delete(store.SettingGeminiAPIKey)
		} else {
			err = h.store.Settings().Set(store.SettingGeminiAPIKey, key)
		}
		if err != nil {
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}
		if h.onAPIKeyChange != nil {
			h.onAPIKeyChange(key)
		}
	}

	h.get(w, r)
}
