package ast

// The translation engine consumes an already-parsed Solidity contract as a
// closed set of node shapes. Anything a parser hands us outside this set has
// no defined PROMELA mapping and is rejected during normalization, never
// silently skipped.

// Position tracks source location for diagnostics and the abstraction ledger
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return positionString(p.Line, p.Column)
	}
	return p.File + ":" + positionString(p.Line, p.Column)
}

// Contract represents one parsed Solidity contract definition
// Example: "contract Bank { uint8 balance; function add(uint8 x) public { ... } }"
type Contract struct {
	Pos   Position
	Name  string
	Items []ContractItem
}

// StateVariable represents a contract storage declaration
// Example: "uint8 balance;", "mapping(address => uint256) balances;"
type StateVariable struct {
	Pos  Position
	Name string
	Type TypeName
}

// Param represents one function parameter
// Example: "uint8 x", "address to"
type Param struct {
	Pos  Position
	Name string
	Type TypeName
}

// Function represents a function definition
// Example: "function add(uint8 x) public { balance += x; }"
type Function struct {
	Pos         Position
	Name        string
	Visibility  string // "public", "external", "internal", "private"
	Constructor bool
	Params      []*Param
	Returns     TypeName // nil when the function returns nothing
	Body        *Block
}

// External reports whether the function is callable from outside the
// contract and therefore receives a channel pair in the generated model.
func (f *Function) External() bool {
	return f.Visibility == "public" || f.Visibility == "external"
}

// StructDef represents a struct declaration
// Example: "struct Account { address owner; uint256 amount; }"
type StructDef struct {
	Pos    Position
	Name   string
	Fields []*Param
}

// EnumDef represents an enum declaration; value order is significant
// Example: "enum Phase { Open, Locked, Closed }"
type EnumDef struct {
	Pos    Position
	Name   string
	Values []string
}

// EventDef represents an event declaration
// Example: "event Transfer(address from, address to, uint256 value);"
type EventDef struct {
	Pos    Position
	Name   string
	Fields []*Param
}

// Type references

// ElementaryType is a builtin Solidity type by name
// Example: "uint256", "uint8", "bool", "address", "string"
type ElementaryType struct {
	Pos  Position
	Name string
}

// ArrayType is a dynamic array of an element type
// Example: "uint8[]", "address[]"
type ArrayType struct {
	Pos  Position
	Elem TypeName
}

// MappingType is a key/value mapping
// Example: "mapping(address => uint256)"
type MappingType struct {
	Pos   Position
	Key   TypeName
	Value TypeName
}

// NamedType references a user-declared struct or enum by name
type NamedType struct {
	Pos  Position
	Name string
}

// Statements

// Block is a brace-delimited statement sequence
type Block struct {
	Pos   Position
	Stmts []Stmt
}

// VarDeclStmt declares a function-local variable
// Example: "uint8 tmp = balance;"
type VarDeclStmt struct {
	Pos   Position
	Name  string
	Type  TypeName
	Value Expr // nil when zero-initialized
}

// AssignStmt assigns to a state variable, local, index or member target
// Example: "balance += x;", "balances[to] = v;"
type AssignStmt struct {
	Pos    Position
	Target Expr
	Op     string // "=", "+=", "-=", "*=", "/="
	Value  Expr
}

// IfStmt is a conditional with an optional else branch
type IfStmt struct {
	Pos  Position
	Cond Expr
	Then *Block
	Else *Block // nil when absent
}

// WhileStmt is a while loop; bodies without a statically provable bound
// are truncated at the configured maximum iteration count
type WhileStmt struct {
	Pos  Position
	Cond Expr
	Body *Block
}

// ForStmt is a counting loop
// Example: "for (uint8 i = 0; i < 3; i += 1) { ... }"
type ForStmt struct {
	Pos  Position
	Init *VarDeclStmt // nil when absent
	Cond Expr
	Post *AssignStmt // nil when absent
	Body *Block
}

// RequireStmt guards execution; a failing condition is a terminal leaf of
// the explored tree, not a propagated fault
// Example: "require(balance >= x);"
type RequireStmt struct {
	Pos  Position
	Cond Expr
}

// AssertStmt behaves like require in the generated model
type AssertStmt struct {
	Pos  Position
	Cond Expr
}

// ReturnStmt returns from the enclosing function
type ReturnStmt struct {
	Pos   Position
	Value Expr // nil for plain "return;"
}

// EmitStmt raises an event
// Example: "emit Transfer(msg.sender, to, amount);"
type EmitStmt struct {
	Pos   Position
	Event string
	Args  []Expr
}

// ExprStmt wraps an expression used as a statement, such as arr.push(v)
// or an external contract call
type ExprStmt struct {
	Pos Position
	X   Expr
}

// Expressions

// IdentExpr names a state variable, local or parameter
type IdentExpr struct {
	Pos  Position
	Name string
}

// LiteralExpr is an integer, boolean or address literal kept in source form
// Example: "42", "true", "0x01"
type LiteralExpr struct {
	Pos   Position
	Value string
}

// BinaryExpr applies an arithmetic, comparison or logical operator
type BinaryExpr struct {
	Pos   Position
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpr applies "!" or "-"
type UnaryExpr struct {
	Pos Position
	Op  string
	X   Expr
}

// IndexExpr reads or addresses a mapping or array element
// Example: "balances[to]", "entries[i]"
type IndexExpr struct {
	Pos    Position
	Target Expr
	Key    Expr
}

// MemberExpr accesses a member of a builtin global, struct value or array
// Example: "msg.sender", "block.number", "arr.length", "acct.amount"
type MemberExpr struct {
	Pos    Position
	Target Expr
	Field  string
}

// CallExpr calls a member function such as push, or an internal function
// Example: "arr.push(v)"
type CallExpr struct {
	Pos    Position
	Callee Expr
	Args   []Expr
}

// ExternalCallExpr calls a function on another contract instance
// Example: "Token(tokenAddr).transfer(to, amount)"
type ExternalCallExpr struct {
	Pos      Position
	Contract string
	Address  Expr
	Function string
	Args     []Expr
}

// NewExpr instantiates a sub-contract; modeled as process spawning with an
// address back-reference, never as a call stack
// Example: "new Token(supply)"
type NewExpr struct {
	Pos      Position
	Contract string
	Args     []Expr
}

// ParenExpr preserves explicit grouping
type ParenExpr struct {
	Pos Position
	X   Expr
}
