// Package nbt implements the named binary tag format used for
// structured metadata on the wire and in world template files.
//
// Values are modeled as a dynamic tree:
//
//	TagByte      int8
//	TagShort     int16
//	TagInt       int32
//	TagLong      int64
//	TagFloat     float32
//	TagDouble    float64
//	TagByteArray ByteArray
//	TagString    string
//	TagList      List
//	TagCompound  Compound
//	TagIntArray  IntArray
//	TagLongArray LongArray
//
// All multi-byte numbers are big-endian.
package nbt

import (
	"fmt"
	"reflect"
)

// TagType identifies the payload type of a tag.
type TagType byte

// Tag type IDs.
const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

// String implements fmt.Stringer.
func (t TagType) String() string {
	switch t {
	case TagEnd:
		return "End"
	case TagByte:
		return "Byte"
	case TagShort:
		return "Short"
	case TagInt:
		return "Int"
	case TagLong:
		return "Long"
	case TagFloat:
		return "Float"
	case TagDouble:
		return "Double"
	case TagByteArray:
		return "ByteArray"
	case TagString:
		return "String"
	case TagList:
		return "List"
	case TagCompound:
		return "Compound"
	case TagIntArray:
		return "IntArray"
	case TagLongArray:
		return "LongArray"
	}
	return fmt.Sprintf("Unknown(%d)", byte(t))
}

// Compound is an unordered set of named tags.
type Compound map[string]any

// List is a sequence of payloads sharing one tag type.
// An empty list may carry ElemType TagEnd.
type List struct {
	ElemType TagType
	Elems    []any
}

// ByteArray is a TagByteArray payload.
type ByteArray []byte

// IntArray is a TagIntArray payload.
type IntArray []int32

// LongArray is a TagLongArray payload.
type LongArray []int64

// TypeOf returns the tag type of a value, or TagEnd
// if the value is not a representable payload.
func TypeOf(v any) TagType {
	switch v.(type) {
	case int8:
		return TagByte
	case int16:
		return TagShort
	case int32:
		return TagInt
	case int64:
		return TagLong
	case float32:
		return TagFloat
	case float64:
		return TagDouble
	case ByteArray:
		return TagByteArray
	case string:
		return TagString
	case List:
		return TagList
	case Compound:
		return TagCompound
	case IntArray:
		return TagIntArray
	case LongArray:
		return TagLongArray
	}
	return TagEnd
}

// Equal reports structural equality of two values: same tag types,
// same compound keys and same payloads, ignoring compound key order.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Int returns the named int tag of c, or def if absent or mistyped.
func (c Compound) Int(name string, def int32) int32 {
	if v, ok := c[name].(int32); ok {
		return v
	}
	return def
}

// String returns the named string tag of c, or def if absent or mistyped.
func (c Compound) String(name string, def string) string {
	if v, ok := c[name].(string); ok {
		return v
	}
	return def
}

// Compound returns the named child compound of c, or nil.
func (c Compound) Compound(name string) Compound {
	v, _ := c[name].(Compound)
	return v
}
