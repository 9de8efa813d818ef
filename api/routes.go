package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"render-presets/preset"
	"render-presets/scene"
)

func RegisterRoutes(scenes *scene.Manager, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{scenes: scenes, logger: logger.With(slog.String("component", "api"))}

	// Scenes
	r.Get("/api/scenes", h.listScenes)
	r.Post("/api/scenes", h.createScene)
	r.Get("/api/scenes/{id}", h.getScene)
	r.Delete("/api/scenes/{id}", h.deleteScene)
	r.Put("/api/scenes/{id}/camera", h.setCamera)
	r.Put("/api/scenes/{id}/children", h.setChildren)
	r.Put("/api/scenes/{id}/path-mode", h.setPathMode)

	// Presets
	r.Get("/api/scenes/{id}/presets", h.listPresets)
	r.Post("/api/scenes/{id}/presets", h.createPresets)
	r.Post("/api/scenes/{id}/presets/{name}/apply", h.applyPreset)

	// WebSocket
	r.Get("/api/scenes/{id}/ws", h.handleWS)

	// Stateless codec
	r.Post("/api/codec/encode", h.encode)
	r.Post("/api/codec/decode", h.decode)
	r.Post("/api/codec/resolve", h.resolve)

	return r
}

type handler struct {
	scenes *scene.Manager
	logger *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scene.ErrNotFound):
		http.Error(w, "scene not found", http.StatusNotFound)
	case errors.Is(err, preset.ErrPresetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, scene.ErrNameTaken):
		http.Error(w, "scene name already in use", http.StatusConflict)
	case errors.Is(err, scene.ErrNoCamera):
		http.Error(w, "scene has no active camera", http.StatusConflict)
	case errors.Is(err, scene.ErrInvalidSettings):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
