package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AreaLayer/aluasm/common"
	"github.com/pelletier/go-toml"
)

// InitManifest creates a new manifest for a library with the given name in
// the directory `dir` and returns the path to it
func InitManifest(name, dir string) (string, error) {
	path := filepath.Join(dir, common.ManifestFileName)

	// check to see if a manifest already exists
	_, err := os.Stat(path)
	if err == nil {
		return "", errors.New("manifest file already exists")
	}

	if !os.IsNotExist(err) {
		return "", fmt.Errorf("manifest file error: %s", err.Error())
	}

	if !IsValidIdentifier(name) {
		return "", errors.New("library name must be a valid identifier")
	}

	tmf := &tomlManifestFile{
		Link: &tomlLink{
			Name:    name,
			Output:  filepath.Join("build", name+common.LibFileExtension),
			Store:   filepath.Join("build", "libs.db"),
			Version: common.AluasmVersion,
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating manifest file: %s", err.Error())
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Order(toml.OrderPreserve).Encode(tmf); err != nil {
		return "", fmt.Errorf("error encoding TOML %s", err.Error())
	}

	return path, nil
}
