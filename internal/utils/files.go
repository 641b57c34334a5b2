package utils

import (
	"path"
	"strings"
)

// BaseName returns the last element of a server-supplied name so it can be
// joined onto a local directory. Both slash styles count as separators.
// It returns "" when nothing usable is left.
func BaseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	switch base {
	case "", ".", "/", "..":
		return ""
	}
	return base
}
