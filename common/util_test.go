package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReprPath(t *testing.T) {
	root := filepath.FromSlash("/home/user/proj")

	assert.Equal(t, filepath.FromSlash("src/app.aluasm"), ReprPath(root, filepath.FromSlash("/home/user/proj/src/app.aluasm")))
	assert.Equal(t, filepath.FromSlash("/etc/app.aluasm"), ReprPath(root, filepath.FromSlash("/etc/app.aluasm")))
	assert.Equal(t, filepath.FromSlash("/etc/app.aluasm"), ReprPath("", filepath.FromSlash("/etc/app.aluasm")))
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "build/app.ao", ReplaceExt("build/app.aluasm", ObjFileExtension))
	assert.Equal(t, "app", ReplaceExt("app.aluasm", ""))
	assert.Equal(t, "noext.ao", ReplaceExt("noext", ObjFileExtension))
}
