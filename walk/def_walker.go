package walk

import (
	"encoding/binary"
	"math/big"

	"github.com/AreaLayer/aluasm/ast"
	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/sem"
)

// dataType describes an integer type usable in `.data` declarations
type dataType struct {
	size   int
	signed bool
}

var dataTypes = map[string]dataType{
	"u8":  {1, false},
	"u16": {2, false},
	"u32": {4, false},
	"u64": {8, false},
	"i8":  {1, true},
	"i16": {2, true},
	"i32": {4, true},
	"i64": {8, true},
}

// strDataType is the name of the byte string data type
const strDataType = "str"

var (
	minInt64 = big.NewInt(-1 << 63)
	maxInt64 = big.NewInt(1<<63 - 1)
)

// walkDefs is the first pass: it collects every declaration and assigns the
// offsets of routines, labels and data
func (w *Walker) walkDefs(p *ast.Program) {
	for _, dir := range p.Directives {
		switch dir.Kind {
		case ast.DirIsae:
			w.walkIsae(dir)
		case ast.DirLib:
			w.walkLib(dir)
		case ast.DirExtern:
			for _, name := range dir.Names {
				w.define(&sem.Symbol{Name: name.Name, Kind: sem.ImportedExternal, Position: name.Pos})
			}
		case ast.DirConst:
			w.walkConst(dir)
		case ast.DirData:
			w.walkData(dir)
		}
	}

	if len(w.prog.Data) > libs.MaxSegmentSize {
		w.logError(sem.ErrLimit, nil, "data segment of %d bytes exceeds the limit of %d", len(w.prog.Data), libs.MaxSegmentSize)
	}

	// labels defined since the last instruction
	var trailing []*sem.Symbol

	offset := 0
	for _, r := range p.Routines {
		sym := &sem.Symbol{Name: r.Name.Name, Kind: sem.ExportedLabel, Position: r.Name.Pos}
		if w.defineResolved(sym, int64(offset)) && r.Main {
			w.prog.Entry = sym
		}

		start, before := offset, len(trailing)
		for _, stmt := range r.Body {
			switch v := stmt.(type) {
			case *ast.LabelDef:
				label := &sem.Symbol{Name: v.Name.Name, Kind: sem.LocalLabel, Position: v.Name.Pos}
				if w.defineResolved(label, int64(offset)) {
					trailing = append(trailing, label)
				}
			case *ast.Instruction:
				offset += isa.WordSize
				trailing = trailing[:0]
			}
		}

		if offset == start {
			if r.Main {
				w.logError(sem.ErrEmptyCode, r.Pos, "`.main` has no instructions")
			} else {
				w.logError(sem.ErrEmptyCode, r.Name.Pos, "routine `%s` has no instructions", r.Name.Name)
			}

			trailing = trailing[:before]
		}
	}

	for _, label := range trailing {
		w.logError(sem.ErrEmptyCode, label.Position, "label `%s` is not followed by any instruction", label.Name)
	}

	if offset > libs.MaxSegmentSize {
		w.logError(sem.ErrLimit, nil, "code segment of %d bytes exceeds the limit of %d", offset, libs.MaxSegmentSize)
	}
}

// walkIsae walks an `.isae` directive
func (w *Walker) walkIsae(dir *ast.Directive) {
	for _, name := range dir.Names {
		ext, ok := isa.ParseExtension(name.Name)
		if !ok {
			w.logError(sem.ErrIsa, name.Pos, "unknown ISA extension `%s`", name.Name)
			continue
		}

		if w.opts.Selected != 0 && !w.opts.Selected.Has(ext) {
			w.logError(sem.ErrIsa, name.Pos, "ISA extension `%s` is not enabled for this build (enabled: %s)", ext, w.opts.Selected)
			continue
		}

		if _, ok := w.isaeDecls[ext]; !ok {
			w.isaeDecls[ext] = name.Pos
		}

		w.prog.Extensions = w.prog.Extensions.With(ext)
	}
}

// walkLib walks a `.lib` directive
func (w *Walker) walkLib(dir *ast.Directive) {
	alias := dir.Names[0]

	if prev, ok := w.prog.Lib(alias.Name); ok {
		w.logRepeatDef(alias.Name, alias.Pos, prev.Position)
		return
	}

	ref := &sem.LibRef{Alias: alias.Name, Position: alias.Pos}
	if dir.LibID != nil {
		id, err := w.opts.Codec.Parse(dir.LibID.Value)
		if err != nil {
			w.logError(sem.ErrLibrary, dir.LibID.Pos, "%s", err)
			return
		}

		ref.ID, ref.Pinned = id, true
	}

	w.prog.Libs = append(w.prog.Libs, ref)
}

// walkConst walks a `.const` directive
func (w *Walker) walkConst(dir *ast.Directive) {
	name := dir.Names[0]
	imm := dir.Values[0].(*ast.Immediate)

	if imm.Value.Cmp(minInt64) < 0 || imm.Value.Cmp(maxInt64) > 0 {
		w.logError(sem.ErrOutOfRange, imm.Pos, "constant `%s` does not fit in a signed 64-bit integer", name.Name)
		return
	}

	w.defineResolved(&sem.Symbol{Name: name.Name, Kind: sem.Constant, Position: name.Pos}, imm.Value.Int64())
}

// walkData walks a `.data` directive and appends its bytes to the data
// segment
func (w *Walker) walkData(dir *ast.Directive) {
	name := dir.Names[0]

	var bytes []byte
	ok := true

	if dir.Type.Name == strDataType {
		for _, v := range dir.Values {
			s, isStr := v.(*ast.StringLit)
			if !isStr {
				w.logError(sem.ErrDataType, v.Position(), "`str` data must be string literals")
				ok = false
				continue
			}

			bytes = append(bytes, s.Value...)
		}
	} else if dt, known := dataTypes[dir.Type.Name]; known {
		for _, v := range dir.Values {
			imm, isImm := v.(*ast.Immediate)
			if !isImm {
				w.logError(sem.ErrDataType, v.Position(), "`%s` data must be integers", dir.Type.Name)
				ok = false
				continue
			}

			encoded, fits := dt.encode(imm.Value)
			if !fits {
				w.logError(sem.ErrOutOfRange, imm.Pos, "value %s does not fit in `%s`", imm.Value, dir.Type.Name)
				ok = false
				continue
			}

			bytes = append(bytes, encoded...)
		}
	} else {
		w.logError(sem.ErrDataType, dir.Type.Pos, "unknown data type `%s`", dir.Type.Name)
		ok = false
	}

	sym := &sem.Symbol{Name: name.Name, Kind: sem.DataSymbol, Position: name.Pos, Size: len(bytes)}
	if !w.defineResolved(sym, int64(len(w.prog.Data))) || !ok {
		return
	}

	w.prog.Data = append(w.prog.Data, bytes...)
}

// encode converts an integer to its little endian representation, reporting
// whether it fits the type
func (dt dataType) encode(v *big.Int) ([]byte, bool) {
	slot := isa.Slot{Kind: isa.SlotImm, Width: uint8(dt.size * 8), Signed: dt.signed}
	if !slot.Fits(v) {
		return nil, false
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, slot.ImmField(v))
	return buf[:dt.size], true
}
