// Package link turns object modules into content-addressed libraries.
package link

import (
	"fmt"

	"github.com/AreaLayer/aluasm/deps"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/object"
)

// Linker runs link jobs against an environment.  Libraries built from the
// environment's inline modules are linked on demand and memoized, so a
// Linker must not be shared between goroutines; independent Linkers can run
// in parallel.
type Linker struct {
	env *deps.Environment

	// produced holds the libraries linked from inline modules by alias
	produced map[string]*libs.Library
	order    []string

	// inProgress marks the jobs currently on the stack
	inProgress map[string]bool
}

// NewLinker creates a linker over an environment
func NewLinker(env *deps.Environment) *Linker {
	return &Linker{
		env:        env,
		produced:   make(map[string]*libs.Library),
		inProgress: make(map[string]bool),
	}
}

// Link merges the modules into a single library
func (l *Linker) Link(name string, modules ...*object.Module) (*libs.Library, error) {
	return l.NewJob(name, modules...).Run()
}

// NewJob creates a link job without running it
func (l *Linker) NewJob(name string, modules ...*object.Module) *Job {
	return &Job{Name: name, linker: l, modules: modules, entry: -1}
}

// Produced returns the libraries linked from inline modules, dependencies
// first
func (l *Linker) Produced() []*libs.Library {
	ls := make([]*libs.Library, len(l.order))
	for i, alias := range l.order {
		ls[i] = l.produced[alias]
	}
	return ls
}

// linkInline links the inline module of an alias, reusing earlier results
func (l *Linker) linkInline(alias string, m *object.Module) (*libs.Library, *LinkError) {
	if lib, ok := l.produced[alias]; ok {
		return lib, nil
	}

	if l.inProgress[alias] {
		return nil, newError(CyclicDependency, m.Name, alias, -1, "module `%s` depends on itself", alias)
	}

	job := l.NewJob(alias, m)
	lib, err := job.Run()
	if err != nil {
		le := job.err
		if le == nil {
			return nil, newError(Internal, m.Name, alias, -1, "%s", err)
		}

		if le.Kind == CyclicDependency {
			return nil, le
		}

		return nil, newError(le.Kind, le.Module, le.Symbol, le.Offset, "while linking `%s`: %s", alias, le.Message)
	}

	l.produced[alias] = lib
	l.order = append(l.order, alias)
	return lib, nil
}

// -----------------------------------------------------------------------------

// Run executes the job.  On failure the job is left Failed and no library is
// returned.
func (j *Job) Run() (*libs.Library, error) {
	if j.state != Unlinked {
		return nil, fmt.Errorf("link job %s has already run", j.Name)
	}

	if len(j.modules) == 0 {
		return j.fail(newError(Internal, "", j.Name, -1, "nothing to link"))
	}

	j.linker.inProgress[j.Name] = true
	defer delete(j.linker.inProgress, j.Name)

	if err := j.merge(); err != nil {
		return j.fail(err)
	}

	if err := j.resolveLocal(); err != nil {
		return j.fail(err)
	}
	j.advance(PartiallyResolved)

	if err := j.resolveLibCalls(); err != nil {
		return j.fail(err)
	}

	if err := j.resolveData(); err != nil {
		return j.fail(err)
	}
	j.advance(Resolved)

	if err := j.address(); err != nil {
		return j.fail(err)
	}
	j.advance(Addressed)

	return j.lib, nil
}

// merge concatenates the segments of the modules and their exports
func (j *Job) merge() *LinkError {
	j.exports = make(map[string]libs.Export)
	j.slots = make(map[libs.ID]int)

	var exts isa.Set
	for _, m := range j.modules {
		if err := m.Validate(); err != nil {
			return newError(Internal, m.Name, "", -1, "%s", err)
		}

		j.codeBase = append(j.codeBase, len(j.code))
		j.dataBase = append(j.dataBase, len(j.data))

		for _, e := range m.Exports {
			if len(j.code)+int(e.Offset) >= libs.MaxSegmentSize {
				return newError(Internal, m.Name, e.Name, -1, "export lies beyond the code segment limit")
			}

			if _, ok := j.exports[e.Name]; ok {
				return newError(DuplicateExport, m.Name, e.Name, -1, "routine is exported by more than one module")
			}

			j.exports[e.Name] = libs.Export{Name: e.Name, Offset: uint16(len(j.code) + int(e.Offset))}
		}

		if m.HasEntry {
			if j.entry >= 0 {
				return newError(DuplicateExport, m.Name, "main", -1, "more than one module has an entry point")
			}

			j.entry = len(j.code) + int(m.Entry)
		}

		j.code = append(j.code, m.Code...)
		j.data = append(j.data, m.Data...)
		exts = exts.Union(m.Extensions)
	}

	if len(j.code) > libs.MaxSegmentSize {
		return newError(Internal, "", "", -1, "merged code segment of %d bytes exceeds the limit of %d", len(j.code), libs.MaxSegmentSize)
	}

	if len(j.data) > libs.MaxSegmentSize {
		return newError(Internal, "", "", -1, "merged data segment of %d bytes exceeds the limit of %d", len(j.data), libs.MaxSegmentSize)
	}

	if missing, ok := j.linker.env.Supports(exts); !ok {
		return newError(IsaExtensionMismatch, "", missing.String(), -1, "not supported by the link environment (supported: %s)", j.linker.env.Supported)
	}

	j.exts = exts
	return nil
}

// forEachReloc visits the relocations of the given kinds in ascending offset
// order, passing the offset of the instruction in the merged code
func (j *Job) forEachReloc(fn func(m *object.Module, ndx int, r object.Reloc, offset int) *LinkError, kinds ...object.RelocKind) *LinkError {
	for ndx, m := range j.modules {
		for _, r := range m.Relocs {
			for _, k := range kinds {
				if r.Kind == k {
					if err := fn(m, ndx, r, j.codeBase[ndx]+int(r.Offset)); err != nil {
						return err
					}
					break
				}
			}
		}
	}

	return nil
}

// patch rewrites a relocated field after checking it holds what the encoder
// left there
func (j *Job) patch(m *object.Module, r object.Reloc, offset int, expect, value uint64) *LinkError {
	word := isa.ReadWord(j.code, offset)

	if got := isa.GetField(word, r.Shift, r.Width); got != expect {
		return newError(Internal, m.Name, r.Target, offset, "relocated field holds %#x, expected %#x", got, expect)
	}

	word, err := isa.PutField(word, r.Shift, r.Width, value)
	if err != nil {
		return newError(Internal, m.Name, r.Target, offset, "%s", err)
	}

	isa.WriteWord(j.code, offset, word)
	return nil
}

// resolveLocal rebases label references and binds imports to the exports of
// the merged modules
func (j *Job) resolveLocal() *LinkError {
	return j.forEachReloc(func(m *object.Module, ndx int, r object.Reloc, offset int) *LinkError {
		if r.Kind == object.RelocLocal {
			return j.patch(m, r, offset, uint64(r.Addend), uint64(j.codeBase[ndx])+uint64(r.Addend))
		}

		target, ok := j.exports[r.Target]
		if !ok {
			return newError(UndefinedExternal, m.Name, r.Target, offset, "no linked module exports this routine")
		}

		return j.patch(m, r, offset, 0, uint64(target.Offset))
	}, object.RelocLocal, object.RelocImport)
}

// resolveLibCalls binds library calls to call table slots and routine offsets
func (j *Job) resolveLibCalls() *LinkError {
	return j.forEachReloc(func(m *object.Module, ndx int, r object.Reloc, offset int) *LinkError {
		alias, routine, ok := object.SplitLibTarget(r.Target)
		if !ok {
			return newError(Internal, m.Name, r.Target, offset, "malformed library call target")
		}

		lib, err := j.resolveLib(m, alias, r.Target, offset)
		if err != nil {
			return err
		}

		routineOffset, ok := lib.Routine(routine)
		if !ok {
			return newError(UndefinedExternal, m.Name, r.Target, offset, "library %s does not export `%s`", j.linker.env.Codec.Format(lib.ID), routine)
		}

		slot, ok := j.slots[lib.ID]
		if !ok {
			if len(j.callTable) == libs.MaxCallTable {
				return newError(Internal, m.Name, r.Target, offset, "call table is full")
			}

			slot = len(j.callTable)
			j.slots[lib.ID] = slot
			j.callTable = append(j.callTable, lib.ID)
		}

		return j.patch(m, r, offset, 0, uint64(slot)<<isa.LibCallSlotShift|uint64(routineOffset))
	}, object.RelocLibCall)
}

// resolveLib finds the library an alias of a module refers to: the inline
// module of that alias, then the ID the module pinned, then the environment's
// alias table
func (j *Job) resolveLib(m *object.Module, alias, target string, offset int) (*libs.Library, *LinkError) {
	env := j.linker.env

	var lib *libs.Library
	if inline, ok := env.Module(alias); ok {
		var err *LinkError
		if lib, err = j.linker.linkInline(alias, inline); err != nil {
			return nil, err
		}
	} else {
		var id libs.ID
		if ref, ok := m.Lib(alias); ok && ref.Pinned {
			id = ref.ID
		} else if id, ok = env.Alias(alias); !ok {
			return nil, newError(UndefinedExternal, m.Name, target, offset, "library alias `%s` is not bound to a library", alias)
		}

		if lib, ok = env.Library(id); !ok {
			return nil, newError(UndefinedExternal, m.Name, target, offset, "library %s is not available", env.Codec.Format(id))
		}
	}

	if missing, ok := env.Supports(lib.Extensions); !ok {
		return nil, newError(IsaExtensionMismatch, m.Name, missing.String(), offset, "library %s uses unsupported extensions", env.Codec.Format(lib.ID))
	}

	return lib, nil
}

// resolveData rebases data references
func (j *Job) resolveData() *LinkError {
	return j.forEachReloc(func(m *object.Module, ndx int, r object.Reloc, offset int) *LinkError {
		return j.patch(m, r, offset, uint64(r.Addend), uint64(j.dataBase[ndx])+uint64(r.Addend))
	}, object.RelocData)
}

// address builds the library and computes its ID
func (j *Job) address() *LinkError {
	lib := &libs.Library{
		Name:       j.Name,
		Extensions: j.exts,
		Code:       j.code,
		Data:       j.data,
		Libs:       j.callTable,
	}

	for _, e := range j.exports {
		lib.Exports = append(lib.Exports, e)
	}

	if j.entry >= 0 {
		lib.Entry, lib.HasEntry = uint16(j.entry), true
	}

	if err := lib.Seal(j.linker.env.Codec.Hasher); err != nil {
		return newError(Internal, "", j.Name, -1, "%s", err)
	}

	j.lib = lib
	return nil
}
