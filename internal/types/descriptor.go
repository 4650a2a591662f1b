package types

import (
	"fmt"
	"strings"
)

// Kind tags the descriptor variant
type Kind int

const (
	FixedInt Kind = iota
	Bool
	FixedString
	DynamicArray
	Mapping
	Enum
	Address
	Event
	Struct
)

var kindNames = map[Kind]string{
	FixedInt:     "FixedInt",
	Bool:         "Bool",
	FixedString:  "FixedString",
	DynamicArray: "DynamicArray",
	Mapping:      "Mapping",
	Enum:         "Enum",
	Address:      "Address",
	Event:        "Event",
	Struct:       "Struct",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Field is one named member of a struct or event descriptor
type Field struct {
	Name string
	Type *Descriptor
}

// Descriptor is the resolved model type for one source type. Every
// DynamicArray and Mapping descriptor carries a finite bound by the time it
// reaches the emitter; the mapper refuses to produce one otherwise.
type Descriptor struct {
	Kind Kind

	// FixedInt
	Bits   int
	Signed bool

	// FixedString
	MaxBytes int

	// DynamicArray
	Elem   *Descriptor
	MaxLen int

	// Mapping
	Key        *Descriptor
	Value      *Descriptor
	MaxEntries int

	// Enum, Struct, Event
	Name   string
	Values []string // enum constants, declaration order
	Fields []Field  // struct/event members, declaration order
}

func (d *Descriptor) String() string {
	switch d.Kind {
	case FixedInt:
		sign := "u"
		if d.Signed {
			sign = "i"
		}
		return fmt.Sprintf("%s%d", sign, d.Bits)
	case Bool:
		return "bool"
	case FixedString:
		return fmt.Sprintf("string[%d]", d.MaxBytes)
	case DynamicArray:
		return fmt.Sprintf("array<%s>[%d]", d.Elem, d.MaxLen)
	case Mapping:
		return fmt.Sprintf("mapping<%s, %s>[%d]", d.Key, d.Value, d.MaxEntries)
	case Enum:
		return fmt.Sprintf("enum %s {%s}", d.Name, strings.Join(d.Values, ", "))
	case Address:
		return "address"
	case Event:
		return fmt.Sprintf("event %s", d.Name)
	case Struct:
		return fmt.Sprintf("struct %s", d.Name)
	}
	return "unknown"
}

// Counter is the descriptor generated bookkeeping counters use; wide enough
// that a configured bound never wraps it
func Counter() *Descriptor {
	return &Descriptor{Kind: FixedInt, Bits: 32}
}

// Scalar reports whether the descriptor emits as a single PROMELA variable
func (d *Descriptor) Scalar() bool {
	switch d.Kind {
	case FixedInt, Bool, Enum, Address:
		return true
	}
	return false
}

// PromelaType is the PROMELA scalar carrying this descriptor. Addresses and
// enum indices are small opaque constants and travel as byte; PROMELA has no
// 64-bit scalar, so 32- and 64-bit integers share int.
func (d *Descriptor) PromelaType() string {
	switch d.Kind {
	case FixedInt:
		switch {
		case d.Bits == 8 && !d.Signed:
			return "byte"
		case d.Bits <= 8:
			return "short"
		case d.Bits == 16 && d.Signed:
			return "short"
		default:
			return "int"
		}
	case Bool:
		return "bool"
	case Address, Enum:
		return "byte"
	case FixedString:
		return "byte"
	}
	return "int"
}

// ZeroValue is the descriptor's zero, matching zero-initialized storage
// semantics: absent mapping keys read as this value
func (d *Descriptor) ZeroValue() string {
	if d.Kind == Bool {
		return "false"
	}
	return "0"
}
