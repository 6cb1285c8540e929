package object

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
)

// object file header
const (
	Magic   = "ALUO"
	Version = 1

	headerSize = 8
)

// encoder collects the first error of a sequence of writes
type encoder struct {
	buf *proto.Buffer
	err error
}

func (e *encoder) varint(v uint64) {
	if e.err == nil {
		e.err = e.buf.EncodeVarint(v)
	}
}

func (e *encoder) bytes(b []byte) {
	if e.err == nil {
		e.err = e.buf.EncodeRawBytes(b)
	}
}

func (e *encoder) str(s string) {
	if e.err == nil {
		e.err = e.buf.EncodeStringBytes(s)
	}
}

// MarshalBinary serializes the module.  The output only depends on the
// module's content.
func (m *Module) MarshalBinary() ([]byte, error) {
	header := make([]byte, 0, headerSize)
	header = append(header, Magic...)
	header = binary.LittleEndian.AppendUint16(header, Version)
	header = binary.LittleEndian.AppendUint16(header, uint16(m.Extensions))

	e := &encoder{buf: proto.NewBuffer(header)}

	e.str(m.Name)
	e.bytes(m.Code)
	e.bytes(m.Data)

	e.varint(uint64(len(m.Exports)))
	for _, exp := range m.Exports {
		e.str(exp.Name)
		e.varint(uint64(exp.Kind))
		e.varint(uint64(exp.Offset))
	}

	e.varint(uint64(len(m.Imports)))
	for _, imp := range m.Imports {
		e.str(imp.Name)
		e.varint(uint64(imp.Kind))
	}

	e.varint(uint64(len(m.Relocs)))
	for _, r := range m.Relocs {
		e.varint(uint64(r.Offset))
		e.varint(uint64(r.Shift))
		e.varint(uint64(r.Width))
		e.varint(uint64(r.Kind))
		e.str(r.Target)
		e.varint(uint64(r.Addend))
	}

	e.varint(uint64(len(m.Libs)))
	for _, l := range m.Libs {
		e.str(l.Alias)
		if l.Pinned {
			e.bytes(l.ID[:])
		} else {
			e.bytes(nil)
		}
	}

	if m.HasEntry {
		e.varint(uint64(m.Entry) + 1)
	} else {
		e.varint(0)
	}

	if e.err != nil {
		return nil, errors.Wrap(e.err, "encoding object module")
	}

	return e.buf.Bytes(), nil
}

// decoder collects the first error of a sequence of reads
type decoder struct {
	buf *proto.Buffer
	err error
}

func (d *decoder) varint(what string, max uint64) uint64 {
	if d.err != nil {
		return 0
	}

	v, err := d.buf.DecodeVarint()
	if err != nil {
		d.err = errors.Wrapf(err, "reading %s", what)
	} else if v > max {
		d.err = errors.Errorf("%s value %d is out of range", what, v)
	}

	return v
}

func (d *decoder) bytes(what string) []byte {
	if d.err != nil {
		return nil
	}

	b, err := d.buf.DecodeRawBytes(true)
	if err != nil {
		d.err = errors.Wrapf(err, "reading %s", what)
	}

	if len(b) == 0 {
		return nil
	}

	return b
}

func (d *decoder) str(what string) string {
	if d.err != nil {
		return ""
	}

	s, err := d.buf.DecodeStringBytes()
	if err != nil {
		d.err = errors.Wrapf(err, "reading %s", what)
	}

	return s
}

// maxTableEntries bounds the entry count of the symbol and relocation tables
const maxTableEntries = libs.MaxSegmentSize

// UnmarshalBinary reads a serialized module.  The module is validated after
// decoding.
func (m *Module) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize || string(data[:4]) != Magic {
		return errors.New("not an object module: bad magic")
	}

	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return errors.Errorf("unsupported object module version %d", v)
	}

	out := Module{Extensions: isa.Set(binary.LittleEndian.Uint16(data[6:]))}
	d := &decoder{buf: proto.NewBuffer(data[headerSize:])}

	out.Name = d.str("name")
	out.Code = d.bytes("code segment")
	out.Data = d.bytes("data segment")

	for i, n := uint64(0), d.varint("export count", maxTableEntries); i < n && d.err == nil; i++ {
		out.Exports = append(out.Exports, Export{
			Name:   d.str("export name"),
			Kind:   SymbolKind(d.varint("export kind", uint64(KindLibRoutine))),
			Offset: uint32(d.varint("export offset", libs.MaxSegmentSize)),
		})
	}

	for i, n := uint64(0), d.varint("import count", maxTableEntries); i < n && d.err == nil; i++ {
		out.Imports = append(out.Imports, Import{
			Name: d.str("import name"),
			Kind: SymbolKind(d.varint("import kind", uint64(KindLibRoutine))),
		})
	}

	for i, n := uint64(0), d.varint("relocation count", maxTableEntries); i < n && d.err == nil; i++ {
		out.Relocs = append(out.Relocs, Reloc{
			Offset: uint32(d.varint("relocation offset", libs.MaxSegmentSize)),
			Shift:  uint8(d.varint("relocation shift", 63)),
			Width:  uint8(d.varint("relocation width", 64)),
			Kind:   RelocKind(d.varint("relocation kind", uint64(RelocImport))),
			Target: d.str("relocation target"),
			Addend: uint32(d.varint("relocation addend", libs.MaxSegmentSize)),
		})
	}

	for i, n := uint64(0), d.varint("library count", libs.MaxCallTable); i < n && d.err == nil; i++ {
		ref := LibRef{Alias: d.str("library alias")}

		if raw := d.bytes("library ID"); d.err == nil && raw != nil {
			id, err := libs.IDFromBytes(raw)
			if err != nil {
				return errors.Wrapf(err, "library `%s`", ref.Alias)
			}

			ref.ID, ref.Pinned = id, true
		}

		out.Libs = append(out.Libs, ref)
	}

	if entry := d.varint("entry point", libs.MaxSegmentSize); entry > 0 {
		out.Entry, out.HasEntry = uint32(entry-1), true
	}

	if d.err != nil {
		return d.err
	}

	if rest := d.buf.Unread(); len(rest) > 0 {
		return errors.Errorf("%d trailing bytes after object module", len(rest))
	}

	if err := out.Validate(); err != nil {
		return errors.Wrap(err, "invalid object module")
	}

	*m = out
	return nil
}

// WriteTo writes the serialized module to w
func (m *Module) WriteTo(w io.Writer) (int64, error) {
	b, err := m.MarshalBinary()
	if err != nil {
		return 0, err
	}

	n, err := w.Write(b)
	return int64(n), errors.Wrap(err, "writing object module")
}

// ReadModule reads a serialized module from r
func ReadModule(r io.Reader) (*Module, error) {
	var b bytes.Buffer
	if _, err := b.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "reading object module")
	}

	m := new(Module)
	if err := m.UnmarshalBinary(b.Bytes()); err != nil {
		return nil, err
	}

	return m, nil
}
