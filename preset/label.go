package preset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CurrentName prefixes the label that displays the applied settings.
const CurrentName = "Current"

var (
	markerPattern = regexp.MustCompile(`^\d+\..+`)
	indexPrefix   = regexp.MustCompile(`^\d+\.\s*`)
)

// Entry is one preset marker: its position in the list, display name and
// parameters.
type Entry struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Params Params `json:"params"`
}

// Label renders the entry as a marker label, e.g.
// "1. HD    :[xy=1920x1080, sp=1536, Rng=0-100@1]".
func (e Entry) Label() string {
	return FormatLabel(e.Index, e.Name, Encode(e.Name, e.Params))
}

// FormatLabel joins an index, a padded preset name and an encoded block.
func FormatLabel(index int, name, suffix string) string {
	return fmt.Sprintf("%d. %-6s:%s", index, name, suffix)
}

// ParseLabel splits a marker label into its normalized preset key and the
// text after the first colon.
func ParseLabel(label string) (key, suffix string, ok bool) {
	head, suffix, found := strings.Cut(label, ":")
	if !found {
		return "", "", false
	}
	key = indexPrefix.ReplaceAllString(Key(head), "")
	return key, suffix, key != ""
}

// IsMarker reports whether a camera child was generated by CreatePresets and
// may be replaced when presets are recreated.
func IsMarker(name string) bool {
	return markerPattern.MatchString(name) || strings.HasPrefix(name, CurrentName)
}

// Collect gathers the presets defined by a camera's children labels. Later
// labels win over earlier ones with the same name. A folder label whose path
// list is malformed counts as no folder preset.
func Collect(labels []string) Set {
	set := Set{Others: map[string]Params{}}
	for _, label := range labels {
		if strings.HasPrefix(label, CurrentName) {
			continue
		}
		key, suffix, ok := ParseLabel(label)
		if !ok {
			continue
		}
		params := Decode(suffix)
		switch key {
		case Key(Folder):
			if len(params) > 0 {
				set.Folder = params
			}
		case Key(HD):
			set.HD = params
		default:
			set.Others[key] = params
		}
	}
	return set
}

// DefaultEntries returns the presets written when markers are created.
func DefaultEntries(s Settings) []Entry {
	return []Entry{
		{Index: 1, Name: HD, Params: Params{
			KeyResolution: fmt.Sprintf("%dx%d", s.ResolutionX, s.ResolutionY),
			KeySamples:    strconv.Itoa(s.Samples),
			KeyRange:      fmt.Sprintf("%d-%d@%d", s.FrameStart, s.FrameEnd, s.FrameStep),
		}},
		{Index: 2, Name: Style, Params: Params{KeyResolution: "100%", KeySamples: "100%", KeyRange: "20-100@80"}},
		{Index: 3, Name: Prev, Params: Params{KeyResolution: "100%", KeySamples: "10%", KeyRange: "0-100@1"}},
		{Index: 4, Name: Demo, Params: Params{KeyResolution: "50%", KeySamples: "30%", KeyRange: "100%@1"}},
		{Index: 5, Name: Folder, Params: Params{KeyRelative: s.RelativePath, KeyAbsolute: s.AbsolutePath}},
	}
}

// DisplayName returns the stock spelling of a preset name, or its key when
// the name is not one of the stock presets.
func DisplayName(name string) string {
	key := Key(name)
	for _, n := range []string{HD, Style, Prev, Demo, Folder} {
		if Key(n) == key {
			return n
		}
	}
	return key
}

// CurrentLabel renders the display label for the settings last applied.
func CurrentLabel(name string, st RenderState, absolute bool) string {
	pathType := "Rel"
	if absolute {
		pathType = "Abs"
	}
	return fmt.Sprintf("%s: %s [xy=%dx%d@%d%%, sp=%d, Rng=%d-%d@%d, %s]",
		CurrentName, name,
		st.ResolutionX, st.ResolutionY, st.ResolutionPercentage,
		st.Samples,
		st.FrameStart, st.FrameEnd, st.FrameStep,
		pathType)
}
