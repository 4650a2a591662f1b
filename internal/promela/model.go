package promela

// The model package holds the assembled intermediate representation of the
// generated PROMELA program. The generator builds it in declaration order;
// the printer serializes it in exactly that order, which keeps runs
// reproducible and diffable.

// Model is the complete generated program
type Model struct {
	// Name of the primary contract, used in the header comment
	Name string

	Defines  []Define
	Typedefs []Typedef
	Globals  []VarDecl
	Channels []ChanDecl
	Inlines  []Inline
	Procs    []*Proctype
	Init     *Init
}

// Define is one preprocessor constant
type Define struct {
	Name    string
	Value   string
	Comment string
}

// Typedef is a record declaration, the typedef-equivalent for bounded
// arrays, mappings, events and structs
type Typedef struct {
	Name    string
	Fields  []VarDecl
	Comment string
}

// VarDecl declares a variable, record field, or process parameter.
// ArrayLen > 0 makes it a fixed-size array.
type VarDecl struct {
	Name     string
	Type     string
	ArrayLen int
	Init     string // empty for default initialization
	Comment  string
}

// ChanDecl declares a rendezvous channel; all generated channels are
// unbuffered so every call is a strict two-phase handshake
type ChanDecl struct {
	Name      string
	ElemTypes []string
	Comment   string
}

// Inline is a parameterized macro body, used for the linear-scan mapping
// accessors
type Inline struct {
	Name    string
	Params  []string
	Body    []Stmt
	Comment string
}

// Proctype is one process declaration: the contract process, an agent, or a
// spawnable sub-contract
type Proctype struct {
	Name    string
	Active  bool
	Params  []VarDecl
	Locals  []VarDecl
	Body    []Stmt
	Comment string
}

// Init is the init process
type Init struct {
	Body []Stmt
}

// Statements

type Stmt interface {
	isStmt()
}

// Assign is "lhs = rhs"
type Assign struct {
	Lhs string
	Rhs string
}

// Expr is an expression statement; as a guard position it blocks until the
// expression is true, which is how dead ends ("false") are expressed
type Expr struct {
	Text string
}

// Send is a channel send "ch ! a, b"
type Send struct {
	Chan string
	Args []string
}

// Recv is a channel receive "ch ? a, b"
type Recv struct {
	Chan string
	Args []string
}

// Branch is one guarded option of an if or do
type Branch struct {
	Guard string // "else" for the else option
	Body  []Stmt
}

// If is a guarded selection
type If struct {
	Branches []Branch
}

// Do is a guarded repetition
type Do struct {
	Branches []Branch
}

// Atomic wraps statements in an atomic block
type Atomic struct {
	Body []Stmt
}

// CallInline expands a named inline
type CallInline struct {
	Name string
	Args []string
}

// Run spawns a process instance
type Run struct {
	Proc string
	Args []string
}

// Comment is an emitted comment line
type Comment struct {
	Text string
}

// Label marks the next statement as a goto target
type Label struct {
	Name string
}

// Goto jumps to a label; used for early returns inside translated bodies
type Goto struct {
	Label string
}

// Skip is the no-op statement
type Skip struct{}

// Break leaves the innermost do loop
type Break struct{}

func (*Assign) isStmt()     {}
func (*Expr) isStmt()       {}
func (*Send) isStmt()       {}
func (*Recv) isStmt()       {}
func (*If) isStmt()         {}
func (*Do) isStmt()         {}
func (*Atomic) isStmt()     {}
func (*CallInline) isStmt() {}
func (*Run) isStmt()        {}
func (*Comment) isStmt()    {}
func (*Label) isStmt()      {}
func (*Goto) isStmt()       {}
func (*Skip) isStmt()       {}
func (*Break) isStmt()      {}
