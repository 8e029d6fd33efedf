package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrKind is returned when a kind name is not recognised.
var ErrKind = errors.New("unknown value kind")

// Kind identifies a Value variant.
type Kind int

const (
	KindText Kind = iota
	KindBinary
	KindInteger
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a user-facing kind name to a Kind.
// Accepts the aliases used on the command line and in scenario files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "str", "string":
		return KindText, nil
	case "binary", "bytes":
		return KindBinary, nil
	case "int", "integer":
		return KindInteger, nil
	case "float":
		return KindFloat, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrKind, s)
	}
}

// Value is a sealed interface. Only Text, Binary, Integer and Float
// implement it.
type Value interface {
	Kind() Kind
	// Encode returns the bytes written to the external store.
	Encode() []byte
	// String returns the textual form recorded in call histories.
	String() string
	value()
}

// Text is a UTF-8 string payload.
type Text string

func (Text) value()           {}
func (Text) Kind() Kind       { return KindText }
func (t Text) Encode() []byte { return []byte(t) }
func (t Text) String() string { return string(t) }

// Binary is an opaque byte payload.
type Binary []byte

func (Binary) value()           {}
func (Binary) Kind() Kind       { return KindBinary }
func (b Binary) Encode() []byte { return append([]byte(nil), b...) }
func (b Binary) String() string { return string(b) }

// Integer is a signed 64-bit payload, encoded in base 10.
type Integer int64

func (Integer) value()           {}
func (Integer) Kind() Kind       { return KindInteger }
func (i Integer) Encode() []byte { return strconv.AppendInt(nil, int64(i), 10) }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a 64-bit floating-point payload, encoded as the shortest
// decimal that round-trips.
type Float float64

func (Float) value()           {}
func (Float) Kind() Kind       { return KindFloat }
func (f Float) Encode() []byte { return []byte(f.String()) }

func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Parse builds a Value of the given kind from its textual form.
// Text and Binary accept any input.
func Parse(kind Kind, s string) (Value, error) {
	switch kind {
	case KindText:
		return Text(s), nil
	case KindBinary:
		return Binary(s), nil
	case KindInteger:
		return DecodeInteger([]byte(s))
	case KindFloat:
		return DecodeFloat([]byte(s))
	default:
		return nil, fmt.Errorf("%w: %v", ErrKind, kind)
	}
}

// Decode interprets raw store bytes as the given kind.
func Decode(kind Kind, raw []byte) (Value, error) {
	switch kind {
	case KindText:
		return DecodeText(raw), nil
	case KindBinary:
		return Binary(append([]byte(nil), raw...)), nil
	case KindInteger:
		return DecodeInteger(raw)
	case KindFloat:
		return DecodeFloat(raw)
	default:
		return nil, fmt.Errorf("%w: %v", ErrKind, kind)
	}
}

// DecodeText interprets raw bytes as UTF-8 text.
// Invalid sequences are kept as-is.
func DecodeText(raw []byte) Text {
	return Text(raw)
}

// DecodeInteger parses base-10 bytes, ignoring surrounding ASCII space.
func DecodeInteger(raw []byte) (Integer, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode integer %q: %w", raw, err)
	}
	return Integer(n), nil
}

// DecodeFloat parses decimal bytes, accepting the inf/-inf/nan spellings
// produced by Float.Encode.
func DecodeFloat(raw []byte) (Float, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("decode float %q: %w", raw, err)
	}
	return Float(f), nil
}
