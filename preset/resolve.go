package preset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Frame range used for "%" ranges when no HD range can be read.
const (
	defaultFrameStart = 0
	defaultFrameEnd   = 100
)

// ApplyOptions carries the scene context a preset is applied in.
type ApplyOptions struct {
	SceneName       string
	UseAbsolutePath bool
}

// Apply resolves the named preset against the HD preset in set and returns
// state updated with the result. Fields whose values cannot be parsed keep
// their value from state. The only error is ErrPresetNotFound; HD may be
// applied even when no HD marker exists.
func Apply(state RenderState, name string, set Set, opts ApplyOptions) (RenderState, error) {
	key := Key(name)
	params, ok := set.Lookup(key)
	if key == Key(Folder) || (!ok && key != Key(HD)) {
		return state, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}

	if len(set.Folder) > 0 {
		if path, ok := OutputPath(set.Folder, key, opts.SceneName, opts.UseAbsolutePath); ok {
			state.FilePath = path
		}
	}

	if v, ok := params[KeyResolution]; ok {
		applyResolution(&state, v, set.HD)
	}
	if v, ok := params[KeySamples]; ok {
		applySamples(&state, v, set.HD)
	}
	if v, ok := params[KeyRange]; ok {
		applyRange(&state, v, set.HD)
	}
	return state, nil
}

// OutputPath builds the render output template for preset from the folder
// preset's relative or absolute base path.
func OutputPath(folder Params, preset, scene string, absolute bool) (string, bool) {
	pathKey := KeyRelative
	if absolute {
		pathKey = KeyAbsolute
	}
	base := strings.Trim(strings.TrimSpace(folder[pathKey]), `"`)
	base = strings.TrimRight(strings.ReplaceAll(base, `\`, "/"), "/")
	if base == "" {
		return "", false
	}

	p := Key(preset)
	path := collapseSlashes(fmt.Sprintf("%s/Render_%s/%s_%s/%s_%s_", base, p, scene, p, scene, p))
	if !absolute {
		path = "//" + strings.TrimLeft(path, "/")
	}
	return path, true
}

func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '/' && i > 0 && s[i-1] == '/' {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func applyResolution(state *RenderState, value string, hd Params) {
	size := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.Contains(size, "%"):
		pct, err := strconv.Atoi(strings.TrimSpace(strings.Trim(size, "%")))
		if err != nil || pct < 1 {
			return
		}
		if w, h, ok := parseSize(strings.ToLower(hd[KeyResolution])); ok {
			state.ResolutionX, state.ResolutionY = w, h
		}
		state.ResolutionPercentage = pct
	case strings.Contains(size, "x"):
		w, h, ok := parseSize(size)
		if !ok {
			return
		}
		state.ResolutionX, state.ResolutionY = w, h
		state.ResolutionPercentage = 100
	}
}

func parseSize(s string) (w, h int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || w < 4 {
		return 0, 0, false
	}
	h, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || h < 4 {
		return 0, 0, false
	}
	return w, h, true
}

func applySamples(state *RenderState, value string, hd Params) {
	v := strings.TrimSpace(value)
	if strings.Contains(v, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(v, "%")), 64)
		if err != nil || pct < 0 || math.IsNaN(pct) || math.IsInf(pct, 0) {
			return
		}
		state.Samples = max(1, int(math.Round(float64(hdSamples(hd))*pct/100)))
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return
	}
	state.Samples = n
}

func hdSamples(hd Params) int {
	n, err := strconv.Atoi(strings.TrimSpace(hd[KeySamples]))
	if err != nil || n < 1 {
		return DefaultSamples
	}
	return n
}

func applyRange(state *RenderState, value string, hd Params) {
	body, step, ok := splitStep(value)
	if ok {
		state.FrameStep = step
	}

	if strings.Contains(body, "%") {
		state.FrameStart, state.FrameEnd = hdRange(hd)
		return
	}
	if start, end, ok := parseRange(body); ok {
		state.FrameStart, state.FrameEnd = start, end
	}
}

// splitStep separates an optional "@step" suffix. A missing step is 1; a
// malformed one reports ok=false.
func splitStep(v string) (body string, step int, ok bool) {
	body, stepText, found := strings.Cut(strings.TrimSpace(v), "@")
	body = strings.TrimSpace(body)
	if !found {
		return body, 1, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(stepText))
	if err != nil || n < 1 {
		return body, 0, false
	}
	return body, n, true
}

func parseRange(body string) (start, end int, ok bool) {
	if first, last, found := strings.Cut(body, "-"); found {
		s, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil {
			return 0, 0, false
		}
		e, err := strconv.Atoi(strings.TrimSpace(last))
		if err != nil {
			return 0, 0, false
		}
		if s < 0 || s > e {
			return 0, 0, false
		}
		return s, e, true
	}
	frame, err := strconv.Atoi(body)
	if err != nil || frame < 0 {
		return 0, 0, false
	}
	return frame, frame, true
}

func hdRange(hd Params) (start, end int) {
	body, _, _ := splitStep(hd[KeyRange])
	if strings.Contains(body, "%") {
		return defaultFrameStart, defaultFrameEnd
	}
	if s, e, ok := parseRange(body); ok {
		return s, e
	}
	return defaultFrameStart, defaultFrameEnd
}
