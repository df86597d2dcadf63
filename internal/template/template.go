// Package template renders installer-script templates by substituting
// named {field} placeholders from a flat string binding map. Unknown
// placeholders are left untouched so that installer scripts can freely
// contain shell ${VAR} syntax alongside flintrock's own {field} markers.
//
// This is a direct port of original_source's get_formatted_template,
// which wraps Python's str.format_map with a dict subclass whose
// __missing__ returns the literal "{key}" instead of raising. Go has no
// equivalent stdlib formatting primitive with that "preserve unknown
// keys" behavior, so it is reimplemented here with a small regexp scan
// rather than reached for from a third-party templating engine: every
// general-purpose Go template library (text/template included) requires
// placeholders to be declared ahead of time and has no "pass through
// verbatim" mode for names it doesn't recognize.
package template

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render substitutes every {name} placeholder found in bindings and
// leaves any other {name} token exactly as written.
func Render(text string, bindings map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := bindings[name]; ok {
			return value
		}
		return match
	})
}
