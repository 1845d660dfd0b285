package util

import (
	"strconv"
	"strings"
)

// ParseBoolDefault parses a query flag ("true", "1", "false", "0", any case).
// Empty or unparsable input yields def.
func ParseBoolDefault(s string, def bool) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return def
	}
	return v
}
