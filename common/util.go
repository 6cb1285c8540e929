package common

import (
	"path/filepath"
	"strings"
)

// ReprPath returns the path used to refer to a file in diagnostics: relative
// to the build root when the file lies beneath it, absolute otherwise.
func ReprPath(buildRoot, abspath string) string {
	if buildRoot == "" {
		return abspath
	}

	rel, err := filepath.Rel(buildRoot, abspath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abspath
	}

	return rel
}

// ReplaceExt swaps the extension of a file path
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
