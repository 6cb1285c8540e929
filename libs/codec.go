package libs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hasher digests the canonical serialization of a library
type Hasher interface {
	Name() string
	Sum(canonical []byte) ID
}

// Encoding renders IDs as text and parses them back
type Encoding interface {
	Name() string
	Encode(id ID) string
	Decode(s string) (ID, error)
}

// Codec pairs the digest and the text encoding used for library IDs
type Codec struct {
	Hasher   Hasher
	Encoding Encoding
}

const (
	// DefaultTag is the domain separation tag of the default hasher
	DefaultTag = "aluvm:lib:v1"

	// DefaultHRP is the human readable part of bech32m encoded IDs
	DefaultHRP = "alu"
)

// DefaultCodec is the codec used unless a build configures another
var DefaultCodec = Codec{
	Hasher:   TaggedSHA256{Tag: DefaultTag},
	Encoding: Bech32m{HRP: DefaultHRP},
}

// Sum computes the ID of a canonical serialization
func (c Codec) Sum(canonical []byte) ID {
	return c.Hasher.Sum(canonical)
}

// Format renders an ID as text
func (c Codec) Format(id ID) string {
	return c.Encoding.Encode(id)
}

// Parse reads an ID from text
func (c Codec) Parse(s string) (ID, error) {
	return c.Encoding.Decode(s)
}

// NewCodec builds a codec from hasher and encoding names.  Empty names select
// the defaults.
func NewCodec(hasherName, encodingName string) (Codec, error) {
	c := DefaultCodec

	if hasherName != "" {
		h, err := HasherByName(hasherName)
		if err != nil {
			return c, err
		}
		c.Hasher = h
	}

	if encodingName != "" {
		e, err := EncodingByName(encodingName)
		if err != nil {
			return c, err
		}
		c.Encoding = e
	}

	return c, nil
}

// HasherByName returns one of the known hashers
func HasherByName(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "sha256", "tagged-sha256":
		return TaggedSHA256{Tag: DefaultTag}, nil
	case "sha3", "sha3-256":
		return SHA3{}, nil
	case "blake2b", "blake2b-256":
		return Blake2b{}, nil
	}

	return nil, fmt.Errorf("unknown hash function `%s`", name)
}

// EncodingByName returns one of the known ID encodings
func EncodingByName(name string) (Encoding, error) {
	switch strings.ToLower(name) {
	case "bech32m":
		return Bech32m{HRP: DefaultHRP}, nil
	case "hex":
		return Hex{}, nil
	}

	return nil, fmt.Errorf("unknown ID encoding `%s`", name)
}

// -----------------------------------------------------------------------------

// TaggedSHA256 is SHA-256 with domain separation:
// SHA256(SHA256(tag) || SHA256(tag) || msg)
type TaggedSHA256 struct {
	Tag string
}

func (h TaggedSHA256) Name() string {
	return "sha256"
}

func (h TaggedSHA256) Sum(canonical []byte) ID {
	tag := sha256.Sum256([]byte(h.Tag))

	d := sha256.New()
	d.Write(tag[:])
	d.Write(tag[:])
	d.Write(canonical)

	var id ID
	copy(id[:], d.Sum(nil))
	return id
}

// SHA3 is SHA3-256
type SHA3 struct{}

func (SHA3) Name() string {
	return "sha3-256"
}

func (SHA3) Sum(canonical []byte) ID {
	return ID(sha3.Sum256(canonical))
}

// Blake2b is unkeyed BLAKE2b-256
type Blake2b struct{}

func (Blake2b) Name() string {
	return "blake2b-256"
}

func (Blake2b) Sum(canonical []byte) ID {
	return ID(blake2b.Sum256(canonical))
}

// -----------------------------------------------------------------------------

// Bech32m encodes IDs as checksummed bech32m strings
type Bech32m struct {
	HRP string
}

func (e Bech32m) Name() string {
	return "bech32m"
}

func (e Bech32m) Encode(id ID) string {
	data, err := bech32.ConvertBits(id[:], 8, 5, true)
	if err != nil {
		// regrouping 8-bit bytes with padding cannot fail
		panic(err)
	}

	s, err := bech32.EncodeM(e.HRP, data)
	if err != nil {
		panic(err)
	}

	return s
}

func (e Bech32m) Decode(s string) (ID, error) {
	hrp, data, version, err := bech32.DecodeGeneric(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid library ID `%s`: %s", s, err)
	}

	if version != bech32.VersionM {
		return ID{}, fmt.Errorf("invalid library ID `%s`: not bech32m", s)
	}

	if hrp != strings.ToLower(e.HRP) {
		return ID{}, fmt.Errorf("invalid library ID `%s`: prefix must be `%s`", s, e.HRP)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return ID{}, fmt.Errorf("invalid library ID `%s`: %s", s, err)
	}

	id, err := IDFromBytes(raw)
	if err != nil {
		return ID{}, fmt.Errorf("invalid library ID `%s`: %s", s, err)
	}

	return id, nil
}

// Hex encodes IDs as lowercase hex prefixed with `0x`.  The prefix is optional
// when decoding.
type Hex struct{}

func (Hex) Name() string {
	return "hex"
}

func (Hex) Encode(id ID) string {
	return "0x" + hex.EncodeToString(id[:])
}

func (Hex) Decode(s string) (ID, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	raw, err := hex.DecodeString(digits)
	if err != nil {
		return ID{}, fmt.Errorf("invalid library ID `%s`: %s", s, err)
	}

	id, err := IDFromBytes(raw)
	if err != nil {
		return ID{}, fmt.Errorf("invalid library ID `%s`: %s", s, err)
	}

	return id, nil
}
