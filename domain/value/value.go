// Package value provides the tagged scalar type stored by the cache.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindText is UTF-8 text.
	KindText Kind = iota
	// KindBytes is an opaque byte string.
	KindBytes
	// KindInteger is a signed 64-bit integer.
	KindInteger
	// KindFloat is a 64-bit floating-point number.
	KindFloat
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a kind name to a Kind.
// It accepts the names produced by Kind.String plus a few common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "text", "str", "string":
		return KindText, nil
	case "bytes", "raw":
		return KindBytes, nil
	case "int", "integer":
		return KindInteger, nil
	case "float", "double":
		return KindFloat, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrUnknownKind, s)
	}
}

// Value is an immutable scalar of exactly one Kind.
// The zero Value is empty text.
type Value struct {
	kind  Kind
	text  string
	bytes []byte
	i     int64
	f     float64
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Bytes returns a bytes Value holding a copy of b.
func Bytes(b []byte) Value {
	c := make([]byte, len(b))
	copy(c, b)
	return Value{kind: KindBytes, bytes: c}
}

// Integer returns an integer Value.
func Integer(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// Float returns a floating-point Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Parse builds a Value of the given kind from its textual form,
// as typed on a command line.
func Parse(kind Kind, s string) (Value, error) {
	switch kind {
	case KindText:
		return Text(s), nil
	case KindBytes:
		return Bytes([]byte(s)), nil
	case KindInteger, KindFloat:
		return Decode(kind, []byte(s))
	default:
		return Value{}, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// Encode returns the wire form written to the store.
// Integers are base-10 ASCII and floats the shortest decimal that round-trips.
func (v Value) Encode() []byte {
	switch v.kind {
	case KindBytes:
		c := make([]byte, len(v.bytes))
		copy(c, v.bytes)
		return c
	case KindInteger:
		return strconv.AppendInt(nil, v.i, 10)
	case KindFloat:
		return strconv.AppendFloat(nil, v.f, 'g', -1, 64)
	default:
		return []byte(v.text)
	}
}

// Text returns the text payload and whether v is text.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Bytes returns the bytes payload and whether v is bytes.
func (v Value) Bytes() ([]byte, bool) {
	return v.bytes, v.kind == KindBytes
}

// Int returns the integer payload and whether v is an integer.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// Float returns the float payload and whether v is a float.
func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Equal reports whether v and o hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBytes:
		return string(v.bytes) == string(o.bytes)
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	default:
		return v.text == o.text
	}
}

// String renders v as a Go literal: text is quoted, bytes are written as a
// []byte conversion, numbers in their natural form. Call history uses this.
func (v Value) String() string {
	switch v.kind {
	case KindBytes:
		return "[]byte(" + strconv.Quote(string(v.bytes)) + ")"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return strconv.Quote(v.text)
	}
}
