package backend

import (
	"fmt"
	"regexp"
)

// identRe matches the only identifiers this layer will interpolate into SQL.
// The table contract uses plain snake_case names; anything else is rejected
// rather than quoted, since quoting rules differ across the supported
// dialects.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether s is a plain, dialect-neutral identifier.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

// Qualify joins schema and name into a qualified table reference after
// validating both parts.
func Qualify(schema, name string) (string, error) {
	if !ValidIdent(schema) {
		return "", fmt.Errorf("invalid schema identifier %q", schema)
	}
	if !ValidIdent(name) {
		return "", fmt.Errorf("invalid table identifier %q", name)
	}
	return schema + "." + name, nil
}
