package ir

import (
	"solspin/internal/ast"
	"solspin/internal/types"
)

// The contract IR sits between the parsed tree and the generator: every type
// reference is resolved to a bounded descriptor, declarations keep their
// source order, and function bodies are retained for statement translation.
// A Program is built once per run and read-only after the generator stage.

// Program is the normalized form of all input contracts. The first contract
// is the primary one driven by the synthesized agents.
type Program struct {
	Contracts []*Contract

	// addresses assigns each contract a fixed address, disjoint from the
	// agent address domain
	addresses map[string]int
}

// Primary returns the contract the agents call into
func (p *Program) Primary() *Contract {
	return p.Contracts[0]
}

// Lookup finds a contract by name
func (p *Program) Lookup(name string) (*Contract, bool) {
	for _, c := range p.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AddressOf returns a contract's fixed address
func (p *Program) AddressOf(name string) (int, bool) {
	addr, ok := p.addresses[name]
	return addr, ok
}

// Contract is one normalized contract definition
type Contract struct {
	Pos       ast.Position
	Name      string
	Address   int
	StateVars []StateVar
	Functions []*FunctionSignature
	Enums     []EnumDecl
	Structs   []StructDecl
	Events    []EventDecl

	// Mapper resolves types declared inside this contract's function
	// bodies with the same declarations and bounds used for signatures
	Mapper *types.Mapper
}

// Constructor returns the contract's constructor signature, if declared
func (c *Contract) Constructor() *FunctionSignature {
	for _, f := range c.Functions {
		if f.Constructor {
			return f
		}
	}
	return nil
}

// ExternalFunctions returns the externally visible, non-constructor
// functions in declaration order
func (c *Contract) ExternalFunctions() []*FunctionSignature {
	var out []*FunctionSignature
	for _, f := range c.Functions {
		if f.External && !f.Constructor {
			out = append(out, f)
		}
	}
	return out
}

// Function finds a function signature by name
func (c *Contract) Function(name string) (*FunctionSignature, bool) {
	for _, f := range c.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// StateVar finds a state variable declaration by name
func (c *Contract) StateVar(name string) (*StateVar, bool) {
	for i := range c.StateVars {
		if c.StateVars[i].Name == name {
			return &c.StateVars[i], true
		}
	}
	return nil, false
}

// StateVar is one storage declaration with its resolved descriptor
type StateVar struct {
	Pos  ast.Position
	Name string
	Type *types.Descriptor
}

// Param is one resolved function parameter
type Param struct {
	Name string
	Type *types.Descriptor
}

// FunctionSignature is one resolved function header plus its retained body.
// Each externally visible signature is 1:1 with exactly one channel pair in
// the generated model.
type FunctionSignature struct {
	Pos         ast.Position
	Name        string
	Visibility  string
	External    bool
	Constructor bool
	Params      []Param
	Return      *types.Descriptor // nil when the function returns nothing
	Body        *ast.Block
}

// EnumDecl is one enum with its symbolic constants in declaration order
type EnumDecl struct {
	Pos    ast.Position
	Name   string
	Values []string
}

// StructDecl is one struct with its composed descriptor
type StructDecl struct {
	Pos  ast.Position
	Name string
	Type *types.Descriptor
}

// EventDecl is one event with its composed descriptor
type EventDecl struct {
	Pos  ast.Position
	Name string
	Type *types.Descriptor
}
