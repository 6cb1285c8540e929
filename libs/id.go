package libs

import (
	"database/sql/driver"
	"fmt"
	"io"
)

// IDSize is the length of a library content ID in bytes
const IDSize = 32

// ID is the content address of a library: the digest of its canonical
// serialization
type ID [IDSize]byte

// IDFromBytes creates an ID from a byte slice of the right length
func IDFromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != IDSize {
		return id, fmt.Errorf("library ID must be %d bytes, got %d", IDSize, len(b))
	}

	copy(id[:], b)
	return id, nil
}

// Bytes returns the ID as a byte slice
func (id ID) Bytes() []byte {
	return append([]byte(nil), id[:]...)
}

// IsZero tells whether the ID is all zeroes
func (id ID) IsZero() bool {
	return id == ID{}
}

// String renders the ID with the default encoding
func (id ID) String() string {
	return DefaultCodec.Encoding.Encode(id)
}

// MarshalText satisfies the TextMarshaler interface using the default encoding
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText satisfies the TextUnmarshaler interface using the default
// encoding
func (id *ID) UnmarshalText(v []byte) error {
	parsed, err := DefaultCodec.Encoding.Decode(string(v))
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// Value satisfies the driver.Valuer interface
func (id ID) Value() (driver.Value, error) {
	return id.Bytes(), nil
}

// Scan satisfies the driver.Scanner interface
func (id *ID) Scan(v interface{}) error {
	b, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("ID.Scan received unsupported type %T", v)
	}

	parsed, err := IDFromBytes(b)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// WriteTo satisfies the io.WriterTo interface
func (id ID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(id[:])
	return int64(n), err
}

// ReadFrom satisfies the io.ReaderFrom interface
func (id *ID) ReadFrom(r io.Reader) (int64, error) {
	n, err := io.ReadFull(r, id[:])
	return int64(n), err
}
