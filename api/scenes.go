package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (h *handler) listScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scenes.List())
}

func (h *handler) createScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Camera string `json:"camera"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s, err := h.scenes.Create(strings.TrimSpace(req.Name), req.Camera)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *handler) getScene(w http.ResponseWriter, r *http.Request) {
	s, ok := h.scenes.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "scene not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) deleteScene(w http.ResponseWriter, r *http.Request) {
	if err := h.scenes.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) setCamera(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Camera string `json:"camera"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s, err := h.scenes.SetCamera(chi.URLParam(r, "id"), req.Camera)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) setChildren(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Children []string `json:"children"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s, err := h.scenes.SetChildren(chi.URLParam(r, "id"), req.Children)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) setPathMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Absolute bool `json:"absolute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s, err := h.scenes.SetUseAbsolutePath(chi.URLParam(r, "id"), req.Absolute)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
