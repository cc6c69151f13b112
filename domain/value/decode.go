package value

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Decoder converts raw stored bytes into a typed result.
type Decoder[T any] func(raw []byte) (T, error)

// DecodeText interprets raw as UTF-8 text.
func DecodeText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrDecode)
	}
	return string(raw), nil
}

// DecodeInt parses raw as a base-10 signed integer.
func DecodeInt(raw []byte) (int64, error) {
	i, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrDecode, truncate(raw))
	}
	return i, nil
}

// DecodeFloat parses raw as a 64-bit float.
func DecodeFloat(raw []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a float", ErrDecode, truncate(raw))
	}
	return f, nil
}

// DecodeBytes returns a copy of raw.
func DecodeBytes(raw []byte) ([]byte, error) {
	c := make([]byte, len(raw))
	copy(c, raw)
	return c, nil
}

// Decode rebuilds a Value of the requested kind from its wire form.
// The store keeps no type tag, so the caller names the kind.
func Decode(kind Kind, raw []byte) (Value, error) {
	switch kind {
	case KindText:
		s, err := DecodeText(raw)
		if err != nil {
			return Value{}, err
		}
		return Text(s), nil
	case KindBytes:
		return Bytes(raw), nil
	case KindInteger:
		i, err := DecodeInt(raw)
		if err != nil {
			return Value{}, err
		}
		return Integer(i), nil
	case KindFloat:
		f, err := DecodeFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	default:
		return Value{}, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
}

func truncate(raw []byte) string {
	if len(raw) > 64 {
		return string(raw[:64]) + "..."
	}
	return string(raw)
}
