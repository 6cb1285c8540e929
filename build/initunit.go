package build

import (
	"fmt"
	"io/ioutil"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/logging"
)

// initUnits loads and parses every source file concurrently.  Files that fail
// to parse still get a unit so that all of their errors are reported.
func (c *Compiler) initUnits(paths []string) bool {
	if len(paths) == 0 {
		logging.LogConfigError("Build", "no source files given")
		return false
	}

	c.units = make([]*deps.Unit, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			u, err := c.initUnit(path)
			c.units[i] = u
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logging.LogConfigError("Build", err.Error())
		return false
	}

	ok := true
	seen := make(map[string]string)
	for _, u := range c.units {
		if u.AST == nil {
			ok = false
		}

		if other, ok := seen[u.Name]; ok {
			logging.LogConfigError("Build", fmt.Sprintf("%s and %s both produce the module `%s`", other, u.FilePath, u.Name))
			return false
		}

		seen[u.Name] = u.FilePath
	}

	return ok
}

// initUnit reads and parses a single file
func (c *Compiler) initUnit(path string) (*deps.Unit, error) {
	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve %s: %s", path, err)
	}

	src, err := ioutil.ReadFile(abspath)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %s", path, err)
	}

	u := deps.NewUnit(abspath, src)

	prog, errs := ast.Parse(src)
	for _, perr := range errs {
		kind := logging.LMKSyntax
		if perr.Message != "" && perr.Rule == "" {
			kind = logging.LMKToken
		}

		c.reportError(u, kind, perr.Describe(), perr.Position())
	}

	if len(errs) == 0 {
		u.AST = prog
		c.events.write(Event{Kind: EventParsed, Name: u.Name, Value: prog})
	}

	return u, nil
}
