package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"render-presets/preset"
)

type encodeRequest struct {
	Name   string        `json:"name"`
	Index  int           `json:"index,omitempty"`
	Params preset.Params `json:"params"`
}

type encodeResponse struct {
	Suffix string `json:"suffix"`
	Label  string `json:"label,omitempty"`
}

func (h *handler) encode(w http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	resp := encodeResponse{Suffix: preset.Encode(req.Name, req.Params)}
	if req.Index > 0 {
		resp.Label = preset.FormatLabel(req.Index, req.Name, resp.Suffix)
	}
	writeJSON(w, http.StatusOK, resp)
}

type decodeRequest struct {
	Label  string `json:"label,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

type decodeResponse struct {
	Name   string        `json:"name,omitempty"`
	Params preset.Params `json:"params"`
}

// decode never fails on malformed text; it returns whatever parsed.
func (h *handler) decode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	var resp decodeResponse
	if req.Label != "" {
		if key, suffix, ok := preset.ParseLabel(req.Label); ok {
			resp.Name = key
			resp.Params = preset.Decode(suffix)
		} else {
			resp.Params = preset.Params{}
		}
	} else {
		resp.Params = preset.Decode(req.Suffix)
	}
	writeJSON(w, http.StatusOK, resp)
}

type resolveRequest struct {
	Preset          string              `json:"preset"`
	Labels          []string            `json:"labels"`
	State           *preset.RenderState `json:"state,omitempty"`
	SceneName       string              `json:"scene_name"`
	UseAbsolutePath bool                `json:"use_absolute_path"`
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Preset) == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	state := preset.DefaultRenderState()
	if req.State != nil {
		state = *req.State
	}
	got, err := preset.Apply(state, req.Preset, preset.Collect(req.Labels), preset.ApplyOptions{
		SceneName:       req.SceneName,
		UseAbsolutePath: req.UseAbsolutePath,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}
