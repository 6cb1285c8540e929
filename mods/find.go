package mods

import (
	"os"
	"path/filepath"

	"github.com/AreaLayer/aluasm/common"
	"github.com/pelletier/go-toml"
)

// FindManifest searches `dir` and then each of its parents for a manifest
// file and returns the path to the first one found
func FindManifest(dir string) (string, bool) {
	abspath, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}

	for {
		if path := filepath.Join(abspath, common.ManifestFileName); checkPath(path) {
			return path, true
		}

		parent := filepath.Dir(abspath)
		if parent == abspath {
			return "", false
		}

		abspath = parent
	}
}

// checkPath checks to see if a potential manifest path is valid.  A file that
// does not parse or does not name a library is passed over rather than
// reported since the user did not explicitly point us at it.
func checkPath(path string) bool {
	finfo, err := os.Stat(path)
	if err != nil || finfo.IsDir() {
		return false
	}

	// only the name matters here so we don't do the full unmarshal
	tree, err := toml.LoadFile(path)
	if err != nil {
		return false
	}

	if name, ok := tree.Get("link.name").(string); ok {
		return name != ""
	}

	return false
}
