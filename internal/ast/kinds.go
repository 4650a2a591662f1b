package ast

type NodeKind int

const (
	ILLEGAL NodeKind = iota

	// High-level constructs
	CONTRACT
	STATE_VARIABLE
	FUNCTION
	PARAM
	STRUCT_DEF
	ENUM_DEF
	EVENT_DEF

	// Types
	ELEMENTARY_TYPE
	ARRAY_TYPE
	MAPPING_TYPE
	NAMED_TYPE

	// Statements
	BLOCK
	VAR_DECL_STMT
	ASSIGN_STMT
	IF_STMT
	WHILE_STMT
	FOR_STMT
	REQUIRE_STMT
	ASSERT_STMT
	RETURN_STMT
	EMIT_STMT
	EXPR_STMT

	// Expressions
	IDENT_EXPR
	LITERAL_EXPR
	BINARY_EXPR
	UNARY_EXPR
	INDEX_EXPR
	MEMBER_EXPR
	CALL_EXPR
	EXTERNAL_CALL_EXPR
	NEW_EXPR
	PAREN_EXPR
)

var kindNames = map[NodeKind]string{
	ILLEGAL:            "Illegal",
	CONTRACT:           "Contract",
	STATE_VARIABLE:     "StateVariable",
	FUNCTION:           "Function",
	PARAM:              "Param",
	STRUCT_DEF:         "StructDef",
	ENUM_DEF:           "EnumDef",
	EVENT_DEF:          "EventDef",
	ELEMENTARY_TYPE:    "ElementaryType",
	ARRAY_TYPE:         "ArrayType",
	MAPPING_TYPE:       "MappingType",
	NAMED_TYPE:         "NamedType",
	BLOCK:              "Block",
	VAR_DECL_STMT:      "VarDeclStmt",
	ASSIGN_STMT:        "AssignStmt",
	IF_STMT:            "IfStmt",
	WHILE_STMT:         "WhileStmt",
	FOR_STMT:           "ForStmt",
	REQUIRE_STMT:       "RequireStmt",
	ASSERT_STMT:        "AssertStmt",
	RETURN_STMT:        "ReturnStmt",
	EMIT_STMT:          "EmitStmt",
	EXPR_STMT:          "ExprStmt",
	IDENT_EXPR:         "IdentExpr",
	LITERAL_EXPR:       "LiteralExpr",
	BINARY_EXPR:        "BinaryExpr",
	UNARY_EXPR:         "UnaryExpr",
	INDEX_EXPR:         "IndexExpr",
	MEMBER_EXPR:        "MemberExpr",
	CALL_EXPR:          "CallExpr",
	EXTERNAL_CALL_EXPR: "ExternalCallExpr",
	NEW_EXPR:           "NewExpr",
	PAREN_EXPR:         "ParenExpr",
}

func (k NodeKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}
