package ply

import (
	"encoding/binary"
	"math"
)

// Format is the encoding of the body of a PLY file.
type Format int

const (
	// FormatASCII is whitespace separated text, one element instance per line.
	FormatASCII Format = iota
	// FormatBinaryLittleEndian is packed little endian binary.
	FormatBinaryLittleEndian
	// FormatBinaryBigEndian is packed big endian binary.
	FormatBinaryBigEndian
)

var formatNames = map[Format]string{
	FormatASCII:              "ascii",
	FormatBinaryLittleEndian: "binary_little_endian",
	FormatBinaryBigEndian:    "binary_big_endian",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat returns the Format named by a `format` header line.
func ParseFormat(name string) (Format, bool) {
	for f, n := range formatNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

func (f Format) byteOrder() binary.ByteOrder {
	if f == FormatBinaryBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ScalarType is the storage type of a property value or list count.
type ScalarType int

// The scalar types allowed by PLY.
const (
	Int8 ScalarType = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

// Both the classic and the sized spellings are accepted.
var scalarTypeNames = map[string]ScalarType{
	"char":    Int8,
	"int8":    Int8,
	"uchar":   Uint8,
	"uint8":   Uint8,
	"short":   Int16,
	"int16":   Int16,
	"ushort":  Uint16,
	"uint16":  Uint16,
	"int":     Int32,
	"int32":   Int32,
	"uint":    Uint32,
	"uint32":  Uint32,
	"float":   Float32,
	"float32": Float32,
	"double":  Float64,
	"float64": Float64,
}

// ParseScalarType looks up a type name as it appears in a `property` line.
func ParseScalarType(name string) (ScalarType, bool) {
	t, ok := scalarTypeNames[name]
	return t, ok
}

// String returns the classic PLY spelling.
func (t ScalarType) String() string {
	switch t {
	case Int8:
		return "char"
	case Uint8:
		return "uchar"
	case Int16:
		return "short"
	case Uint16:
		return "ushort"
	case Int32:
		return "int"
	case Uint32:
		return "uint"
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		return "unknown"
	}
}

// Size is the number of bytes a value of this type takes in a binary body.
func (t ScalarType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether the type is a floating point type.
func (t ScalarType) IsFloat() bool {
	return t == Float32 || t == Float64
}

func (t ScalarType) bounds() (float64, float64) {
	switch t {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint8:
		return 0, math.MaxUint8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint16:
		return 0, math.MaxUint16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Uint32:
		return 0, math.MaxUint32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// Holds reports whether v can be stored in this type without loss. Floats always hold (float32
// rounds), as do NaN and the infinities.
func (t ScalarType) Holds(v float64) bool {
	if t.IsFloat() {
		return true
	}
	lo, hi := t.bounds()
	return v >= lo && v <= hi && v == math.Trunc(v)
}

// Normalize rounds v to the precision of the type. Only float32 changes anything; integer values
// are expected to already satisfy Holds.
func (t ScalarType) Normalize(v float64) float64 {
	if t == Float32 {
		return float64(float32(v))
	}
	return v
}

func (t ScalarType) decode(order binary.ByteOrder, buf []byte) float64 {
	switch t {
	case Int8:
		return float64(int8(buf[0]))
	case Uint8:
		return float64(buf[0])
	case Int16:
		return float64(int16(order.Uint16(buf)))
	case Uint16:
		return float64(order.Uint16(buf))
	case Int32:
		return float64(int32(order.Uint32(buf)))
	case Uint32:
		return float64(order.Uint32(buf))
	case Float32:
		return float64(math.Float32frombits(order.Uint32(buf)))
	default:
		return math.Float64frombits(order.Uint64(buf))
	}
}

func (t ScalarType) encode(order binary.ByteOrder, v float64, buf []byte) {
	switch t {
	case Int8:
		buf[0] = byte(int8(v))
	case Uint8:
		buf[0] = uint8(v)
	case Int16:
		order.PutUint16(buf, uint16(int16(v)))
	case Uint16:
		order.PutUint16(buf, uint16(v))
	case Int32:
		order.PutUint32(buf, uint32(int32(v)))
	case Uint32:
		order.PutUint32(buf, uint32(v))
	case Float32:
		order.PutUint32(buf, math.Float32bits(float32(v)))
	default:
		order.PutUint64(buf, math.Float64bits(v))
	}
}
