package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ComedicChimera/olive"

	"github.com/AreaLayer/aluasm/build"
	"github.com/AreaLayer/aluasm/common"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/mods"
)

// Execute runs the main `aluasm` application and returns its exit code
func Execute() int {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("aluasm", "aluasm assembles and links AluVM libraries", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	asmCmd := cli.AddSubcommand("assemble", "assemble source files into object modules", true)
	asmCmd.AddPrimaryArg("source", "the source file(s) to assemble, separated by commas", true)
	asmCmd.AddStringArg("isae", "i", "the ISA extensions the target supports, separated by commas", false)
	asmCmd.AddStringArg("output", "o", "the directory to write object modules to", false)
	asmCmd.AddStringArg("dump", "d", "the path of a debug log of the assembly", false)
	asmCmd.AddFlag("test-lib", "tl", "link each module on its own and print its library ID")
	asmCmd.AddFlag("test-disassemble", "td", "like test-lib, also printing the library's code")

	linkCmd := cli.AddSubcommand("link", "link object modules into a library", true)
	linkCmd.AddPrimaryArg("objects", "an object file, a directory of object files or a comma separated list", false)
	linkCmd.AddStringArg("manifest", "m", "the path to the link manifest", false)
	linkCmd.AddStringArg("output", "o", "the path of the produced library", false)

	initCmd := cli.AddSubcommand("init", "create a link manifest in the working directory", true)
	initCmd.AddPrimaryArg("name", "the name of the library", true)

	cli.AddSubcommand("version", "print the aluasm version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		logging.PrintErrorMessage("CLI Usage Error", err)
		return 1
	}

	loglevel := result.Arguments["loglevel"].(string)

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "assemble":
		return execAssembleCommand(subResult, loglevel)
	case "link":
		return execLinkCommand(subResult, loglevel)
	case "init":
		return execInitCommand(subResult)
	case "version":
		logging.PrintInfoMessage("aluasm Version", common.AluasmVersion)
	}

	return 0
}

// stringArg returns the value of an optional string argument
func stringArg(result *olive.ArgParseResult, name string) string {
	if v, ok := result.Arguments[name]; ok {
		return v.(string)
	}

	return ""
}

// splitList splits a comma separated argument, dropping empty items
func splitList(arg string) []string {
	var items []string
	for _, item := range strings.Split(arg, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// loadManifest loads the manifest at path or, if path is empty, the first
// manifest found from dir upward.  It returns nil when there is none.
func loadManifest(path, dir string) (*mods.Manifest, bool) {
	if path == "" {
		found, ok := mods.FindManifest(dir)
		if !ok {
			return nil, true
		}
		path = found
	}

	m, err := mods.LoadManifest(path)
	if err != nil {
		logging.PrintErrorMessage("Manifest Load Error", err)
		return nil, false
	}

	return m, true
}

// execAssembleCommand executes the assemble subcommand and handles all errors
func execAssembleCommand(result *olive.ArgParseResult, loglevel string) int {
	sourceArg, _ := result.PrimaryArg()
	sources := splitList(sourceArg)

	workDir, err := os.Getwd()
	if err != nil {
		logging.PrintErrorMessage("Path Error", err)
		return 1
	}

	opts := build.Options{
		OutputDir:       stringArg(result, "output"),
		DumpPath:        stringArg(result, "dump"),
		TestLib:         result.HasFlag("test-lib"),
		TestDisassemble: result.HasFlag("test-disassemble"),
		Codec:           libs.DefaultCodec,
	}

	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(workDir, common.DefaultObjectDir)
	}

	if isae := stringArg(result, "isae"); isae != "" {
		selected, err := isa.ParseSet(splitList(isae))
		if err != nil {
			logging.PrintErrorMessage("CLI Usage Error", err)
			return 1
		}
		opts.Selected = selected
	}

	// `.lib` IDs are read with the codec of the enclosing build, if any
	if len(sources) > 0 {
		m, ok := loadManifest("", filepath.Dir(sources[0]))
		if !ok {
			return 1
		}

		if m != nil {
			opts.Codec = m.Codec
		}
	}

	logging.Initialize(workDir, loglevel)
	logging.LogHeader("assemble", strings.Join(sources, ", "))

	c, err := build.NewCompiler(opts)
	if err != nil {
		logging.PrintErrorMessage("Build Error", err)
		return 1
	}

	c.Assemble(sources)
	if err := c.Close(); err != nil {
		logging.PrintErrorMessage("Build Error", err)
		return 1
	}

	return exitCode(logging.LogFinished())
}

// execLinkCommand executes the link subcommand and handles all errors
func execLinkCommand(result *olive.ArgParseResult, loglevel string) int {
	workDir, err := os.Getwd()
	if err != nil {
		logging.PrintErrorMessage("Path Error", err)
		return 1
	}

	objects, ok := result.PrimaryArg()
	if !ok || objects == "" {
		objects = filepath.Join(workDir, common.DefaultObjectDir)
	}

	m, ok := loadManifest(stringArg(result, "manifest"), workDir)
	if !ok {
		return 1
	}

	buildRoot := workDir
	if m != nil {
		buildRoot = m.Root
	}

	logging.Initialize(buildRoot, loglevel)
	logging.LogHeader("link", objects)

	c, err := build.NewCompiler(build.Options{Codec: libs.DefaultCodec})
	if err != nil {
		logging.PrintErrorMessage("Build Error", err)
		return 1
	}

	c.Link(context.Background(), []string{objects}, m, stringArg(result, "output"))
	if err := c.Close(); err != nil {
		logging.PrintErrorMessage("Build Error", err)
		return 1
	}

	return exitCode(logging.LogFinished())
}

// execInitCommand executes the init subcommand
func execInitCommand(result *olive.ArgParseResult) int {
	name, _ := result.PrimaryArg()

	workDir, err := os.Getwd()
	if err != nil {
		logging.PrintErrorMessage("Path Error", err)
		return 1
	}

	path, err := mods.InitManifest(name, workDir)
	if err != nil {
		logging.PrintErrorMessage("Manifest Init Error", err)
		return 1
	}

	logging.PrintInfoMessage("Created", path)
	return 0
}

func exitCode(success bool) int {
	if success {
		return 0
	}
	return 1
}
