package ast

import "fmt"

type Node interface {
	NodePos() Position
	NodeKind() NodeKind
}

// ContractItem is a top-level declaration inside a contract block
type ContractItem interface {
	Node
	isContractItem()
}

func (*StateVariable) isContractItem() {}
func (*Function) isContractItem()      {}
func (*StructDef) isContractItem()     {}
func (*EnumDef) isContractItem()       {}
func (*EventDef) isContractItem()      {}

// TypeName is a reference to a Solidity type
type TypeName interface {
	Node
	isTypeName()
}

func (*ElementaryType) isTypeName() {}
func (*ArrayType) isTypeName()      {}
func (*MappingType) isTypeName()    {}
func (*NamedType) isTypeName()      {}

// Stmt is a statement inside a function body
type Stmt interface {
	Node
	isStmt()
}

func (*Block) isStmt()       {}
func (*VarDeclStmt) isStmt() {}
func (*AssignStmt) isStmt()  {}
func (*IfStmt) isStmt()      {}
func (*WhileStmt) isStmt()   {}
func (*ForStmt) isStmt()     {}
func (*RequireStmt) isStmt() {}
func (*AssertStmt) isStmt()  {}
func (*ReturnStmt) isStmt()  {}
func (*EmitStmt) isStmt()    {}
func (*ExprStmt) isStmt()    {}

// Expr is an expression node
type Expr interface {
	Node
	isExpr()
}

func (*IdentExpr) isExpr()        {}
func (*LiteralExpr) isExpr()      {}
func (*BinaryExpr) isExpr()       {}
func (*UnaryExpr) isExpr()        {}
func (*IndexExpr) isExpr()        {}
func (*MemberExpr) isExpr()       {}
func (*CallExpr) isExpr()         {}
func (*ExternalCallExpr) isExpr() {}
func (*NewExpr) isExpr()          {}
func (*ParenExpr) isExpr()        {}

func (c *Contract) NodePos() Position         { return c.Pos }
func (*Contract) NodeKind() NodeKind          { return CONTRACT }
func (v *StateVariable) NodePos() Position    { return v.Pos }
func (*StateVariable) NodeKind() NodeKind     { return STATE_VARIABLE }
func (f *Function) NodePos() Position         { return f.Pos }
func (*Function) NodeKind() NodeKind          { return FUNCTION }
func (p *Param) NodePos() Position            { return p.Pos }
func (*Param) NodeKind() NodeKind             { return PARAM }
func (s *StructDef) NodePos() Position        { return s.Pos }
func (*StructDef) NodeKind() NodeKind         { return STRUCT_DEF }
func (e *EnumDef) NodePos() Position          { return e.Pos }
func (*EnumDef) NodeKind() NodeKind           { return ENUM_DEF }
func (e *EventDef) NodePos() Position         { return e.Pos }
func (*EventDef) NodeKind() NodeKind          { return EVENT_DEF }
func (t *ElementaryType) NodePos() Position   { return t.Pos }
func (*ElementaryType) NodeKind() NodeKind    { return ELEMENTARY_TYPE }
func (t *ArrayType) NodePos() Position        { return t.Pos }
func (*ArrayType) NodeKind() NodeKind         { return ARRAY_TYPE }
func (t *MappingType) NodePos() Position      { return t.Pos }
func (*MappingType) NodeKind() NodeKind       { return MAPPING_TYPE }
func (t *NamedType) NodePos() Position        { return t.Pos }
func (*NamedType) NodeKind() NodeKind         { return NAMED_TYPE }
func (b *Block) NodePos() Position            { return b.Pos }
func (*Block) NodeKind() NodeKind             { return BLOCK }
func (s *VarDeclStmt) NodePos() Position      { return s.Pos }
func (*VarDeclStmt) NodeKind() NodeKind       { return VAR_DECL_STMT }
func (s *AssignStmt) NodePos() Position       { return s.Pos }
func (*AssignStmt) NodeKind() NodeKind        { return ASSIGN_STMT }
func (s *IfStmt) NodePos() Position           { return s.Pos }
func (*IfStmt) NodeKind() NodeKind            { return IF_STMT }
func (s *WhileStmt) NodePos() Position        { return s.Pos }
func (*WhileStmt) NodeKind() NodeKind         { return WHILE_STMT }
func (s *ForStmt) NodePos() Position          { return s.Pos }
func (*ForStmt) NodeKind() NodeKind           { return FOR_STMT }
func (s *RequireStmt) NodePos() Position      { return s.Pos }
func (*RequireStmt) NodeKind() NodeKind       { return REQUIRE_STMT }
func (s *AssertStmt) NodePos() Position       { return s.Pos }
func (*AssertStmt) NodeKind() NodeKind        { return ASSERT_STMT }
func (s *ReturnStmt) NodePos() Position       { return s.Pos }
func (*ReturnStmt) NodeKind() NodeKind        { return RETURN_STMT }
func (s *EmitStmt) NodePos() Position         { return s.Pos }
func (*EmitStmt) NodeKind() NodeKind          { return EMIT_STMT }
func (s *ExprStmt) NodePos() Position         { return s.Pos }
func (*ExprStmt) NodeKind() NodeKind          { return EXPR_STMT }
func (e *IdentExpr) NodePos() Position        { return e.Pos }
func (*IdentExpr) NodeKind() NodeKind         { return IDENT_EXPR }
func (e *LiteralExpr) NodePos() Position      { return e.Pos }
func (*LiteralExpr) NodeKind() NodeKind       { return LITERAL_EXPR }
func (e *BinaryExpr) NodePos() Position       { return e.Pos }
func (*BinaryExpr) NodeKind() NodeKind        { return BINARY_EXPR }
func (e *UnaryExpr) NodePos() Position        { return e.Pos }
func (*UnaryExpr) NodeKind() NodeKind         { return UNARY_EXPR }
func (e *IndexExpr) NodePos() Position        { return e.Pos }
func (*IndexExpr) NodeKind() NodeKind         { return INDEX_EXPR }
func (e *MemberExpr) NodePos() Position       { return e.Pos }
func (*MemberExpr) NodeKind() NodeKind        { return MEMBER_EXPR }
func (e *CallExpr) NodePos() Position         { return e.Pos }
func (*CallExpr) NodeKind() NodeKind          { return CALL_EXPR }
func (e *ExternalCallExpr) NodePos() Position { return e.Pos }
func (*ExternalCallExpr) NodeKind() NodeKind  { return EXTERNAL_CALL_EXPR }
func (e *NewExpr) NodePos() Position          { return e.Pos }
func (*NewExpr) NodeKind() NodeKind           { return NEW_EXPR }
func (e *ParenExpr) NodePos() Position        { return e.Pos }
func (*ParenExpr) NodeKind() NodeKind         { return PAREN_EXPR }

func positionString(line, column int) string {
	return fmt.Sprintf("%d:%d", line, column)
}
