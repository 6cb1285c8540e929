package libs

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/AreaLayer/aluasm/isa"
)

// library file header
const (
	fileMagic   = "ALUL"
	fileVersion = 1
)

// MarshalBinary serializes the library in the `.alulib` file format
func (l *Library) MarshalBinary() ([]byte, error) {
	header := make([]byte, 0, 8)
	header = append(header, fileMagic...)
	header = binary.LittleEndian.AppendUint16(header, fileVersion)
	header = binary.LittleEndian.AppendUint16(header, uint16(l.Extensions))

	buf := proto.NewBuffer(header)
	enc := func(fns ...func() error) error {
		for _, fn := range fns {
			if err := fn(); err != nil {
				return err
			}
		}
		return nil
	}

	err := enc(
		func() error { return buf.EncodeStringBytes(l.Name) },
		func() error { return buf.EncodeRawBytes(l.ID[:]) },
		func() error { return buf.EncodeRawBytes(l.Code) },
		func() error { return buf.EncodeRawBytes(l.Data) },
		func() error { return buf.EncodeVarint(uint64(len(l.Libs))) },
	)
	if err != nil {
		return nil, errors.Wrap(err, "encoding library")
	}

	for _, id := range l.Libs {
		if err := buf.EncodeRawBytes(id[:]); err != nil {
			return nil, errors.Wrap(err, "encoding call table")
		}
	}

	if err := buf.EncodeVarint(uint64(len(l.Exports))); err != nil {
		return nil, errors.Wrap(err, "encoding exports")
	}

	for _, e := range l.Exports {
		if err := enc(
			func() error { return buf.EncodeStringBytes(e.Name) },
			func() error { return buf.EncodeVarint(uint64(e.Offset)) },
		); err != nil {
			return nil, errors.Wrapf(err, "encoding export %s", e.Name)
		}
	}

	var entry uint64
	if l.HasEntry {
		entry = uint64(l.Entry) + 1
	}

	if err := buf.EncodeVarint(entry); err != nil {
		return nil, errors.Wrap(err, "encoding entry point")
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary reads a library in the `.alulib` file format.  It does not
// check the ID: use ReadLibrary or Verify for that.
func (l *Library) UnmarshalBinary(data []byte) error {
	if len(data) < 8 || string(data[:4]) != fileMagic {
		return errors.New("not a library file: bad magic")
	}

	if v := binary.LittleEndian.Uint16(data[4:]); v != fileVersion {
		return errors.Errorf("unsupported library file version %d", v)
	}

	var out Library
	out.Extensions = isa.Set(binary.LittleEndian.Uint16(data[6:]))

	buf := proto.NewBuffer(data[8:])

	var err error
	if out.Name, err = buf.DecodeStringBytes(); err != nil {
		return errors.Wrap(err, "reading name")
	}

	rawID, err := buf.DecodeRawBytes(false)
	if err != nil {
		return errors.Wrap(err, "reading ID")
	}
	if out.ID, err = IDFromBytes(rawID); err != nil {
		return err
	}

	if out.Code, err = buf.DecodeRawBytes(true); err != nil {
		return errors.Wrap(err, "reading code segment")
	}

	if out.Data, err = buf.DecodeRawBytes(true); err != nil {
		return errors.Wrap(err, "reading data segment")
	}

	nlibs, err := buf.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "reading call table")
	}
	if nlibs > MaxCallTable {
		return errors.Errorf("call table of %d entries exceeds the limit of %d", nlibs, MaxCallTable)
	}

	for i := uint64(0); i < nlibs; i++ {
		raw, err := buf.DecodeRawBytes(false)
		if err != nil {
			return errors.Wrapf(err, "reading call table entry %d", i)
		}

		id, err := IDFromBytes(raw)
		if err != nil {
			return errors.Wrapf(err, "reading call table entry %d", i)
		}

		out.Libs = append(out.Libs, id)
	}

	nexports, err := buf.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "reading exports")
	}

	for i := uint64(0); i < nexports; i++ {
		name, err := buf.DecodeStringBytes()
		if err != nil {
			return errors.Wrapf(err, "reading export %d", i)
		}

		offset, err := buf.DecodeVarint()
		if err != nil {
			return errors.Wrapf(err, "reading export %s", name)
		}
		if offset >= MaxSegmentSize {
			return errors.Errorf("export %s has out of range offset %d", name, offset)
		}

		out.Exports = append(out.Exports, Export{Name: name, Offset: uint16(offset)})
	}

	entry, err := buf.DecodeVarint()
	if err != nil {
		return errors.Wrap(err, "reading entry point")
	}
	if entry > 0 {
		if entry > MaxSegmentSize {
			return errors.Errorf("entry point %d is out of range", entry-1)
		}

		out.Entry, out.HasEntry = uint16(entry-1), true
	}

	if rest := buf.Unread(); len(rest) > 0 {
		return errors.Errorf("%d trailing bytes after library", len(rest))
	}

	if err := out.Validate(); err != nil {
		return err
	}

	*l = out
	return nil
}

// WriteTo writes the library file to w
func (l *Library) WriteTo(w io.Writer) (int64, error) {
	b, err := l.MarshalBinary()
	if err != nil {
		return 0, err
	}

	n, err := w.Write(b)
	return int64(n), errors.Wrap(err, "writing library")
}

// ReadLibrary reads a library file and checks its ID with the given hasher
func ReadLibrary(r io.Reader, h Hasher) (*Library, error) {
	var b bytes.Buffer
	if _, err := b.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "reading library")
	}

	l := new(Library)
	if err := l.UnmarshalBinary(b.Bytes()); err != nil {
		return nil, err
	}

	if err := l.Verify(h); err != nil {
		return nil, err
	}

	return l, nil
}
