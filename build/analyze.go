package build

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/generate"
	"github.com/AreaLayer/aluasm/logging"
	"github.com/AreaLayer/aluasm/walk"
)

// forEachUnit runs fn over every unit concurrently.  Units share no state so
// no coordination beyond waiting is needed.
func (c *Compiler) forEachUnit(fn func(u *deps.Unit) bool) bool {
	var g errgroup.Group
	failed := make([]bool, len(c.units))

	for i, u := range c.units {
		i, u := i, u
		g.Go(func() error {
			failed[i] = !fn(u)
			return nil
		})
	}

	g.Wait()

	for _, f := range failed {
		if f {
			return false
		}
	}

	return true
}

// analyzeUnits runs the semantic analyzer over every unit
func (c *Compiler) analyzeUnits() bool {
	opts := walk.Options{Selected: c.opts.Selected, Codec: c.opts.Codec}

	return c.forEachUnit(func(u *deps.Unit) bool {
		prog, errs := walk.NewWalker(u.Name, opts).WalkProgram(u.AST)

		for _, w := range prog.Warnings {
			c.reportWarning(u, logging.LMKUsage, w.Message, w.Position)
		}

		for _, e := range errs {
			c.reportError(u, e.Kind.LogKind(), e.Message, e.Position)
		}

		if len(errs) > 0 {
			return false
		}

		u.Program = prog
		c.events.write(Event{Kind: EventAnalyzed, Name: u.Name, Value: prog})
		return true
	})
}

// encodeUnits encodes every analyzed unit into its object module
func (c *Compiler) encodeUnits() bool {
	return c.forEachUnit(func(u *deps.Unit) bool {
		mod, err := generate.Generate(u.Program)
		if err != nil {
			c.reportEncodingError(u, err)
			return false
		}

		u.Module = mod
		c.events.write(Event{Kind: EventEncoded, Name: u.Name, Value: mod})
		return true
	})
}

// reportEncodingError locates an encoding error at its instruction when
// there is one
func (c *Compiler) reportEncodingError(u *deps.Unit, err error) {
	encErr, ok := err.(*generate.EncodingError)
	if !ok {
		c.reportError(u, logging.LMKEncoding, err.Error(), nil)
		return
	}

	if encErr.Mnemonic != "" {
		for _, instr := range u.Program.Instrs {
			if instr.Offset == encErr.Offset {
				c.reportError(u, logging.LMKEncoding, fmt.Sprintf("`%s`: %s", encErr.Mnemonic, encErr.Message), instr.Position)
				return
			}
		}
	}

	c.reportError(u, logging.LMKEncoding, encErr.Error(), nil)
}
