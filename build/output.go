package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AreaLayer/aluasm/common"
	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/link"
	"github.com/AreaLayer/aluasm/logging"
)

// ObjectPath returns the path the object module of a unit is written to
func (c *Compiler) ObjectPath(u *deps.Unit) string {
	return filepath.Join(c.opts.OutputDir, u.Name+common.ObjFileExtension)
}

// writeObjects writes the object module of every unit to the output
// directory
func (c *Compiler) writeObjects() bool {
	if err := os.MkdirAll(c.opts.OutputDir, 0755); err != nil {
		logging.LogConfigError("Output", fmt.Sprintf("unable to create output directory: %s", err))
		return false
	}

	for _, u := range c.units {
		if err := writeFile(c.ObjectPath(u), u.Module); err != nil {
			logging.LogConfigError("Output", err.Error())
			return false
		}
	}

	return true
}

// writeFile creates a file holding the serialized form of wt
func writeFile(path string, wt io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %s", path, err)
	}

	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to write %s: %s", path, err)
	}

	return f.Close()
}

// testLibs links each unit on its own against an empty environment and
// reports the ID the library would have
func (c *Compiler) testLibs() bool {
	ok := true

	for _, u := range c.units {
		env := deps.NewEnvironment(c.opts.Codec)

		lib, err := link.NewLinker(env).Link(u.Name, u.Module)
		if err != nil {
			c.reportError(u, logging.LMKLink, err.Error(), nil)
			ok = false
			continue
		}

		c.events.write(Event{Kind: EventLinked, Name: u.Name, Value: lib})
		logging.LogInfo("Library", fmt.Sprintf("%s %s", u.Name, c.opts.Codec.Format(lib.ID)))

		if c.opts.TestDisassemble {
			if !c.disassemble(u, lib) {
				ok = false
			}
		}
	}

	return ok
}

// disassemble prints the code of a library
func (c *Compiler) disassemble(u *deps.Unit, lib *libs.Library) bool {
	lines, err := lib.Disassemble()
	if err != nil {
		c.reportError(u, logging.LMKEncoding, err.Error(), nil)
		return false
	}

	c.events.sync()
	for _, line := range lines {
		fmt.Println(line)
	}

	return true
}
