package types

import (
	"strconv"
	"strings"

	"solspin/internal/ast"
	"solspin/internal/config"
	"solspin/internal/errors"
	"solspin/internal/ledger"
)

// Mapper resolves source type references into model descriptors. Mapping is
// deterministic: identical type plus identical configuration always yields an
// identical descriptor, so generated models stay diffable between runs.
//
// The ledger is handed in by the pipeline; the mapper appends exactly one
// record per width fallback and never abstracts silently.
type Mapper struct {
	cfg *config.Config
	led *ledger.Ledger

	enums   map[string]*ast.EnumDef
	structs map[string]*ast.StructDef

	// in-flight struct names, to refuse value-recursive structs
	expanding map[string]bool
}

func NewMapper(cfg *config.Config, led *ledger.Ledger) *Mapper {
	return &Mapper{
		cfg:       cfg,
		led:       led,
		enums:     make(map[string]*ast.EnumDef),
		structs:   make(map[string]*ast.StructDef),
		expanding: make(map[string]bool),
	}
}

// RegisterDeclarations records the contract's enum and struct declarations
// so later type references resolve by name
func (m *Mapper) RegisterDeclarations(contract *ast.Contract) {
	for _, item := range contract.Items {
		switch node := item.(type) {
		case *ast.EnumDef:
			m.enums[node.Name] = node
		case *ast.StructDef:
			m.structs[node.Name] = node
		}
	}
}

// Map resolves one type reference. declName names the declaration being
// typed; per-declaration bounds are looked up under it.
func (m *Mapper) Map(t ast.TypeName, declName string) (*Descriptor, error) {
	switch node := t.(type) {
	case *ast.ElementaryType:
		return m.mapElementary(node, declName)

	case *ast.ArrayType:
		elem, err := m.Map(node.Elem, declName)
		if err != nil {
			return nil, err
		}
		bound, ok := m.cfg.ArrayBound(declName)
		if !ok {
			return nil, errors.NewUnresolvedBound(declName, "dynamic array", node.Pos)
		}
		return &Descriptor{Kind: DynamicArray, Elem: elem, MaxLen: bound}, nil

	case *ast.MappingType:
		key, err := m.Map(node.Key, declName)
		if err != nil {
			return nil, err
		}
		value, err := m.Map(node.Value, declName)
		if err != nil {
			return nil, err
		}
		bound, ok := m.cfg.MappingBound(declName)
		if !ok {
			return nil, errors.NewUnresolvedBound(declName, "mapping", node.Pos)
		}
		return &Descriptor{Kind: Mapping, Key: key, Value: value, MaxEntries: bound}, nil

	case *ast.NamedType:
		if enum, ok := m.enums[node.Name]; ok {
			values := make([]string, len(enum.Values))
			copy(values, enum.Values)
			return &Descriptor{Kind: Enum, Name: enum.Name, Values: values}, nil
		}
		if st, ok := m.structs[node.Name]; ok {
			return m.mapStruct(st, declName, node.Pos)
		}
		return nil, errors.NewUnsupportedConstruct("type "+node.Name, node.Pos)
	}

	return nil, errors.NewUnsupportedConstruct("type reference", t.NodePos())
}

// MapEvent composes the descriptor for an event declaration
func (m *Mapper) MapEvent(event *ast.EventDef) (*Descriptor, error) {
	fields := make([]Field, 0, len(event.Fields))
	for _, f := range event.Fields {
		ft, err := m.Map(f.Type, event.Name+"."+f.Name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: f.Name, Type: ft})
	}
	return &Descriptor{Kind: Event, Name: event.Name, Fields: fields}, nil
}

func (m *Mapper) mapStruct(st *ast.StructDef, declName string, pos ast.Position) (*Descriptor, error) {
	if m.expanding[st.Name] {
		return nil, errors.NewUnsupportedConstruct("recursive struct "+st.Name, pos)
	}
	m.expanding[st.Name] = true
	defer delete(m.expanding, st.Name)

	fields := make([]Field, 0, len(st.Fields))
	for _, f := range st.Fields {
		ft, err := m.Map(f.Type, declName+"."+f.Name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: f.Name, Type: ft})
	}
	return &Descriptor{Kind: Struct, Name: st.Name, Fields: fields}, nil
}

func (m *Mapper) mapElementary(t *ast.ElementaryType, declName string) (*Descriptor, error) {
	switch t.Name {
	case "bool":
		return &Descriptor{Kind: Bool}, nil
	case "address":
		return &Descriptor{Kind: Address}, nil
	case "string", "bytes":
		return &Descriptor{Kind: FixedString, MaxBytes: m.cfg.StringMaxBytes}, nil
	}

	if strings.HasPrefix(t.Name, "uint") || strings.HasPrefix(t.Name, "int") {
		return m.mapInteger(t, declName)
	}

	return nil, errors.NewUnsupportedConstruct("elementary type "+t.Name, t.Pos)
}

var supportedBits = map[int]bool{8: true, 16: true, 32: true, 64: true}

func (m *Mapper) mapInteger(t *ast.ElementaryType, declName string) (*Descriptor, error) {
	signed := !strings.HasPrefix(t.Name, "uint")
	suffix := strings.TrimPrefix(strings.TrimPrefix(t.Name, "uint"), "int")

	// bare "uint"/"int" are 256-bit in the source language
	bits := 256
	if suffix != "" {
		parsed, err := strconv.Atoi(suffix)
		if err != nil || parsed < 8 || parsed > 256 || parsed%8 != 0 {
			return nil, errors.NewUnsupportedConstruct("integer type "+t.Name, t.Pos)
		}
		bits = parsed
	}

	if supportedBits[bits] {
		return &Descriptor{Kind: FixedInt, Bits: bits, Signed: signed}, nil
	}

	fallback := m.cfg.IntWidthFallback
	m.led.Append(t.Pos, ledger.TypeWidthAbstraction,
		"%s %q narrowed from %d to %d bits", t.Name, declName, bits, fallback)
	return &Descriptor{Kind: FixedInt, Bits: fallback, Signed: signed}, nil
}
