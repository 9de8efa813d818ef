package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"render-presets/preset"
)

func (h *handler) listPresets(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scenes.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "scene not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, preset.Collect(s.Children))
}

// createPresets accepts an optional settings body. Without one the settings
// are taken from the scene's current render state.
func (h *handler) createPresets(w http.ResponseWriter, r *http.Request) {
	var settings *preset.Settings
	var req preset.Settings
	switch err := json.NewDecoder(r.Body).Decode(&req); {
	case err == nil:
		settings = &req
	case errors.Is(err, io.EOF):
	default:
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.scenes.CreatePresets(chi.URLParam(r, "id"), settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) applyPreset(w http.ResponseWriter, r *http.Request) {
	s, err := h.scenes.ApplyPreset(chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
