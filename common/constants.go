package common

const (
	AluasmVersion = "0.1.0"

	SrcFileExtension = ".aluasm"
	ObjFileExtension = ".ao"
	LibFileExtension = ".alulib"

	ManifestFileName = "aluasm.toml"

	// DefaultObjectDir is where `assemble` writes object modules and where
	// `link` looks for them when no inputs are given
	DefaultObjectDir = "build/objects"
)
