package util

import (
	"strconv"
	"strings"
)

// ParseBoolDefault accepts the strconv spellings plus "yes"/"no".
func ParseBoolDefault(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
