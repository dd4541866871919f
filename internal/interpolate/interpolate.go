// Package interpolate resolves {{var}} placeholders against session vars.
package interpolate

import (
	"fmt"
	"regexp"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Lookup resolves a variable name to its value.
type Lookup func(name string) (any, bool)

// Render substitutes every {{name}} placeholder in text using lookup.
// Missing variables resolve to the empty string. This is deliberate and
// documented behavior: a typo in a placeholder produces a blank, not an error.
func Render(text string, lookup Lookup) string {
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		val, ok := lookup(name)
		if !ok || val == nil {
			return ""
		}
		if s, ok := val.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", val)
	})
}
