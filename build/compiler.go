// Package build drives the assembler and the linker over files on disk and
// reports what happens through the global logger.
package build

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/logging"
)

// Options configures a build
type Options struct {
	// Selected is the extension selection given on the command line.  Zero
	// means no selection was made.
	Selected isa.Set

	// OutputDir is the directory object modules are written to
	OutputDir string

	// DumpPath is the path of the debug log; empty disables it
	DumpPath string

	// TestLib links every assembled module on its own and reports its ID;
	// TestDisassemble additionally prints the library's code
	TestLib         bool
	TestDisassemble bool

	// Codec parses `.lib` IDs and computes library IDs
	Codec libs.Codec
}

// Compiler is the data structure responsible for maintaining all high-level
// state of a build
type Compiler struct {
	opts Options

	// units are the source files being assembled in command line order
	units []*deps.Unit

	events *eventStream
	dump   *os.File
}

// NewCompiler creates a new compiler.  The compiler must be closed once the
// build is over to flush its diagnostics.
func NewCompiler(opts Options) (*Compiler, error) {
	if opts.Codec.Hasher == nil || opts.Codec.Encoding == nil {
		opts.Codec = libs.DefaultCodec
	}

	c := &Compiler{opts: opts, events: newEventStream()}
	c.events.consume(logEvent)

	if opts.DumpPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.DumpPath), 0755); err != nil {
			return nil, errors.Wrap(err, "creating dump directory")
		}

		f, err := os.Create(opts.DumpPath)
		if err != nil {
			return nil, errors.Wrap(err, "creating dump file")
		}

		c.dump = f
		d := &dumper{w: f}
		c.events.consume(d.dumpEvent)
	}

	return c, nil
}

// Close waits for every event to be reported and closes the dump
func (c *Compiler) Close() error {
	c.events.close()

	if c.dump != nil {
		return errors.Wrap(c.dump.Close(), "closing dump file")
	}

	return nil
}

// Units returns the units of the last assembly
func (c *Compiler) Units() []*deps.Unit {
	return c.units
}

// Assemble runs the full assembly algorithm on the given source files.  It
// handles all diagnostics appropriately and returns whether every file was
// assembled.
func (c *Compiler) Assemble(paths []string) bool {
	if !c.phase("Parsing", func() bool { return c.initUnits(paths) }) {
		return false
	}

	if !c.phase("Analyzing", c.analyzeUnits) {
		return false
	}

	if !c.phase("Encoding", c.encodeUnits) {
		return false
	}

	if !c.writeObjects() {
		return false
	}

	if c.opts.TestLib || c.opts.TestDisassemble {
		return c.phase("Linking", c.testLibs)
	}

	return true
}

// phase runs one build phase.  The phase fails if fn does or if any error was
// reported while it ran.
func (c *Compiler) phase(name string, fn func() bool) bool {
	c.events.write(Event{Kind: EventPhase, Message: name})

	ok := fn()

	c.events.sync()
	logging.LogEndPhase()

	return ok && logging.ShouldProceed()
}

// reportError sends an error about a unit down the event stream
func (c *Compiler) reportError(u *deps.Unit, kind int, msg string, pos *logging.TextPosition) {
	c.events.write(Event{
		Kind:     EventError,
		Name:     u.Name,
		Context:  u.LogContext,
		Message:  msg,
		LogKind:  kind,
		Position: pos,
	})
}

// reportWarning sends a warning about a unit down the event stream
func (c *Compiler) reportWarning(u *deps.Unit, kind int, msg string, pos *logging.TextPosition) {
	c.events.write(Event{
		Kind:     EventWarning,
		Name:     u.Name,
		Context:  u.LogContext,
		Message:  msg,
		LogKind:  kind,
		Position: pos,
	})
}
