package preset

import (
	"errors"
	"fmt"
	"strings"
)

// Preset names understood by Apply. Lookups are case-insensitive.
const (
	HD     = "HD"
	Style  = "Style"
	Prev   = "prev"
	Demo   = "demo"
	Folder = "folder"
)

// Recognized parameter keys.
const (
	KeyResolution = "xy"
	KeySamples    = "sp"
	KeyRange      = "rng"
	KeyRelative   = "relative"
	KeyAbsolute   = "absolute"
)

// DefaultSamples is the sample count relative presets scale against when no
// HD preset is available.
const DefaultSamples = 1536

var ErrPresetNotFound = errors.New("preset not found")

// Params is a decoded parameter block, keyed by lower-case parameter name.
type Params map[string]string

// Set is the collection of presets found on a camera.
type Set struct {
	HD     Params            `json:"hd,omitempty"`
	Folder Params            `json:"folder,omitempty"`
	Others map[string]Params `json:"others,omitempty"`
}

// Lookup returns the parameters for name. HD and folder are matched as well.
func (s Set) Lookup(name string) (Params, bool) {
	switch key := Key(name); key {
	case Key(HD):
		return s.HD, s.HD != nil
	case Key(Folder):
		return s.Folder, s.Folder != nil
	default:
		p, ok := s.Others[key]
		return p, ok
	}
}

// Key normalizes a preset name for lookups.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RenderState is the effective render configuration of a scene.
type RenderState struct {
	ResolutionX          int    `json:"resolution_x"`
	ResolutionY          int    `json:"resolution_y"`
	ResolutionPercentage int    `json:"resolution_percentage"`
	Samples              int    `json:"samples"`
	FrameStart           int    `json:"frame_start"`
	FrameEnd             int    `json:"frame_end"`
	FrameStep            int    `json:"frame_step"`
	FilePath             string `json:"filepath"`
}

// DefaultRenderState mirrors a freshly created scene.
func DefaultRenderState() RenderState {
	return RenderState{
		ResolutionX:          1920,
		ResolutionY:          1080,
		ResolutionPercentage: 100,
		Samples:              DefaultSamples,
		FrameStart:           0,
		FrameEnd:             100,
		FrameStep:            1,
	}
}

// Settings holds the values the preset markers are generated from.
type Settings struct {
	ResolutionX     int    `json:"resolution_x" toml:"resolution_x"`
	ResolutionY     int    `json:"resolution_y" toml:"resolution_y"`
	Samples         int    `json:"samples" toml:"samples"`
	FrameStart      int    `json:"frame_start" toml:"frame_start"`
	FrameEnd        int    `json:"frame_end" toml:"frame_end"`
	FrameStep       int    `json:"frame_step" toml:"frame_step"`
	RelativePath    string `json:"relative_path" toml:"relative_path"`
	AbsolutePath    string `json:"absolute_path" toml:"absolute_path"`
	UseAbsolutePath bool   `json:"use_absolute_path" toml:"use_absolute_path"`
}

// DefaultSettings returns the stock preset settings.
func DefaultSettings() Settings {
	return Settings{
		ResolutionX:  1920,
		ResolutionY:  1080,
		Samples:      DefaultSamples,
		FrameStart:   0,
		FrameEnd:     100,
		FrameStep:    1,
		RelativePath: `//__Cache__\`,
		AbsolutePath: `F:\__Cache__\`,
	}
}

// SettingsFromState seeds settings from a scene's current render state,
// keeping the cache paths of base.
func SettingsFromState(state RenderState, base Settings) Settings {
	s := base
	s.ResolutionX = state.ResolutionX
	s.ResolutionY = state.ResolutionY
	s.Samples = state.Samples
	s.FrameStart = state.FrameStart
	s.FrameEnd = state.FrameEnd
	s.FrameStep = state.FrameStep
	return s
}

// Normalize forces the relative cache path to start with "//".
func (s *Settings) Normalize() {
	if !strings.HasPrefix(s.RelativePath, "//") {
		s.RelativePath = "//" + strings.TrimLeft(s.RelativePath, `/\`)
	}
}

// Validate checks the minimums the host application enforces.
func (s Settings) Validate() error {
	var errs []error
	if s.ResolutionX < 4 || s.ResolutionY < 4 {
		errs = append(errs, fmt.Errorf("resolution %dx%d below minimum 4x4", s.ResolutionX, s.ResolutionY))
	}
	if s.Samples < 1 {
		errs = append(errs, fmt.Errorf("samples must be at least 1, got %d", s.Samples))
	}
	if s.FrameStart < 0 || s.FrameEnd < 0 {
		errs = append(errs, fmt.Errorf("frame range %d-%d must not be negative", s.FrameStart, s.FrameEnd))
	}
	if s.FrameStart > s.FrameEnd {
		errs = append(errs, fmt.Errorf("frame start %d after frame end %d", s.FrameStart, s.FrameEnd))
	}
	if s.FrameStep < 1 {
		errs = append(errs, fmt.Errorf("frame step must be at least 1, got %d", s.FrameStep))
	}
	if strings.ContainsRune(s.RelativePath, '"') || strings.ContainsRune(s.AbsolutePath, '"') {
		errs = append(errs, errors.New("cache paths must not contain double quotes"))
	}
	return errors.Join(errs...)
}
