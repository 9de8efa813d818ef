package preset

import (
	"sort"
	"strings"
)

// orderedKeys is the stable order parameters are written in. The range key
// is spelled "Rng" on output to match labels created by older tooling.
var orderedKeys = []struct {
	key   string
	label string
}{
	{KeyResolution, "xy"},
	{KeySamples, "sp"},
	{KeyRange, "Rng"},
}

// Encode writes params as a bracketed parameter block. The folder preset is
// written as a quoted path pair, every other preset as key=value fragments.
//
// Values must not contain double quotes; Decode strips them.
func Encode(name string, params Params) string {
	if Key(name) == Key(Folder) {
		return `["` + params[KeyRelative] + `","` + params[KeyAbsolute] + `"]`
	}

	var fragments []string
	seen := make(map[string]bool, len(orderedKeys))
	for _, k := range orderedKeys {
		seen[k.key] = true
		if v, ok := params[k.key]; ok {
			fragments = append(fragments, k.label+"="+quoteValue(v))
		}
	}

	extra := make([]string, 0, len(params))
	for k := range params {
		if !seen[k] && validKey(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		fragments = append(fragments, k+"="+quoteValue(params[k]))
	}

	return "[" + strings.Join(fragments, ", ") + "]"
}

// Decode parses the bracketed block of a label suffix. It never fails: what
// cannot be parsed is left out of the result.
func Decode(suffix string) Params {
	params := Params{}
	open := strings.IndexByte(suffix, '[')
	end := strings.LastIndexByte(suffix, ']')
	if open < 0 || end < open {
		return params
	}
	content := strings.TrimSpace(suffix[open+1 : end])

	if strings.HasPrefix(content, `"`) {
		paths := splitTopLevel(content)
		if len(paths) < 2 {
			return params
		}
		params[KeyRelative] = unquote(paths[0])
		params[KeyAbsolute] = unquote(paths[1])
		return params
	}

	for _, fragment := range splitTopLevel(content) {
		key, value, found := strings.Cut(fragment, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		params[key] = unquote(value)
	}
	return params
}

// splitTopLevel splits s on commas that are not inside double quotes.
func splitTopLevel(s string) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

func quoteValue(v string) string {
	if v != strings.TrimSpace(v) || strings.ContainsAny(v, ",[]") {
		return `"` + v + `"`
	}
	return v
}

func validKey(k string) bool {
	return k != "" && k == strings.ToLower(strings.TrimSpace(k)) && !strings.ContainsAny(k, `=,[]"`)
}
