package ir

import (
	"encoding/json"

	"solspin/internal/ast"
	"solspin/internal/errors"
)

// The external parser hands the engine its tree serialized as JSON, one
// object per node with a "nodeType" discriminator matching the closed node
// set. Decoding is strict: a nodeType outside the set is the same fatal
// condition as meeting the node during translation.

type rawPos struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (p rawPos) position() ast.Position {
	return ast.Position{File: p.File, Line: p.Line, Column: p.Column}
}

type rawNode struct {
	NodeType    string     `json:"nodeType"`
	Pos         rawPos     `json:"pos"`
	Name        string     `json:"name,omitempty"`
	Value       string     `json:"value,omitempty"`
	Op          string     `json:"op,omitempty"`
	Field       string     `json:"field,omitempty"`
	Visibility  string     `json:"visibility,omitempty"`
	Constructor bool       `json:"constructor,omitempty"`
	Contract    string     `json:"contract,omitempty"`
	Event       string     `json:"event,omitempty"`
	Values      []string   `json:"values,omitempty"`
	Type        *rawNode   `json:"type,omitempty"`
	Key         *rawNode   `json:"key,omitempty"`
	Elem        *rawNode   `json:"elem,omitempty"`
	ValueNode   *rawNode   `json:"valueNode,omitempty"`
	Returns     *rawNode   `json:"returns,omitempty"`
	Target      *rawNode   `json:"target,omitempty"`
	Left        *rawNode   `json:"left,omitempty"`
	Right       *rawNode   `json:"right,omitempty"`
	Cond        *rawNode   `json:"cond,omitempty"`
	X           *rawNode   `json:"x,omitempty"`
	Callee      *rawNode   `json:"callee,omitempty"`
	Address     *rawNode   `json:"address,omitempty"`
	Then        *rawNode   `json:"then,omitempty"`
	Else        *rawNode   `json:"else,omitempty"`
	Body        *rawNode   `json:"body,omitempty"`
	Init        *rawNode   `json:"init,omitempty"`
	Post        *rawNode   `json:"post,omitempty"`
	Params      []*rawNode `json:"params,omitempty"`
	Fields      []*rawNode `json:"fields,omitempty"`
	Args        []*rawNode `json:"args,omitempty"`
	Items       []*rawNode `json:"items,omitempty"`
	Stmts       []*rawNode `json:"stmts,omitempty"`
}

// DecodeContracts decodes the serialized tree: either a single contract
// object or an array of contract objects
func DecodeContracts(data []byte) ([]*ast.Contract, error) {
	var nodes []*rawNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		var single rawNode
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, errors.NewInputError("input is not a serialized contract tree: %v", err)
		}
		nodes = []*rawNode{&single}
	}

	contracts := make([]*ast.Contract, 0, len(nodes))
	for _, n := range nodes {
		c, err := decodeContract(n)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

func decodeContract(n *rawNode) (*ast.Contract, error) {
	if n.NodeType != "Contract" {
		return nil, errors.NewUnsupportedConstruct("top-level "+n.NodeType, n.Pos.position())
	}
	contract := &ast.Contract{Pos: n.Pos.position(), Name: n.Name}
	for _, item := range n.Items {
		decoded, err := decodeItem(item)
		if err != nil {
			return nil, err
		}
		contract.Items = append(contract.Items, decoded)
	}
	return contract, nil
}

func decodeItem(n *rawNode) (ast.ContractItem, error) {
	switch n.NodeType {
	case "StateVariable":
		t, err := decodeType(n.Type)
		if err != nil {
			return nil, err
		}
		return &ast.StateVariable{Pos: n.Pos.position(), Name: n.Name, Type: t}, nil

	case "Function":
		fn := &ast.Function{
			Pos:         n.Pos.position(),
			Name:        n.Name,
			Visibility:  n.Visibility,
			Constructor: n.Constructor,
		}
		for _, p := range n.Params {
			param, err := decodeParam(p)
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, param)
		}
		if n.Returns != nil {
			t, err := decodeType(n.Returns)
			if err != nil {
				return nil, err
			}
			fn.Returns = t
		}
		if n.Body != nil {
			body, err := decodeBlock(n.Body)
			if err != nil {
				return nil, err
			}
			fn.Body = body
		}
		return fn, nil

	case "StructDef":
		st := &ast.StructDef{Pos: n.Pos.position(), Name: n.Name}
		for _, f := range n.Fields {
			field, err := decodeParam(f)
			if err != nil {
				return nil, err
			}
			st.Fields = append(st.Fields, field)
		}
		return st, nil

	case "EnumDef":
		values := make([]string, len(n.Values))
		copy(values, n.Values)
		return &ast.EnumDef{Pos: n.Pos.position(), Name: n.Name, Values: values}, nil

	case "EventDef":
		ev := &ast.EventDef{Pos: n.Pos.position(), Name: n.Name}
		for _, f := range n.Fields {
			field, err := decodeParam(f)
			if err != nil {
				return nil, err
			}
			ev.Fields = append(ev.Fields, field)
		}
		return ev, nil
	}
	return nil, errors.NewUnsupportedConstruct(n.NodeType, n.Pos.position())
}

func decodeParam(n *rawNode) (*ast.Param, error) {
	t, err := decodeType(n.Type)
	if err != nil {
		return nil, err
	}
	return &ast.Param{Pos: n.Pos.position(), Name: n.Name, Type: t}, nil
}

func decodeType(n *rawNode) (ast.TypeName, error) {
	if n == nil {
		return nil, errors.NewInputError("missing type node")
	}
	switch n.NodeType {
	case "ElementaryType":
		return &ast.ElementaryType{Pos: n.Pos.position(), Name: n.Name}, nil
	case "ArrayType":
		elem, err := decodeType(n.Elem)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayType{Pos: n.Pos.position(), Elem: elem}, nil
	case "MappingType":
		key, err := decodeType(n.Key)
		if err != nil {
			return nil, err
		}
		value, err := decodeType(n.ValueNode)
		if err != nil {
			return nil, err
		}
		return &ast.MappingType{Pos: n.Pos.position(), Key: key, Value: value}, nil
	case "NamedType":
		return &ast.NamedType{Pos: n.Pos.position(), Name: n.Name}, nil
	}
	return nil, errors.NewUnsupportedConstruct(n.NodeType, n.Pos.position())
}

func decodeBlock(n *rawNode) (*ast.Block, error) {
	if n == nil {
		return nil, errors.NewInputError("missing block node")
	}
	if n.NodeType != "Block" {
		return nil, errors.NewUnsupportedConstruct(n.NodeType, n.Pos.position())
	}
	block := &ast.Block{Pos: n.Pos.position()}
	for _, s := range n.Stmts {
		stmt, err := decodeStmt(s)
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	return block, nil
}

func decodeStmt(n *rawNode) (ast.Stmt, error) {
	switch n.NodeType {
	case "Block":
		return decodeBlock(n)

	case "VarDeclStmt":
		t, err := decodeType(n.Type)
		if err != nil {
			return nil, err
		}
		stmt := &ast.VarDeclStmt{Pos: n.Pos.position(), Name: n.Name, Type: t}
		if n.ValueNode != nil {
			value, err := decodeExpr(n.ValueNode)
			if err != nil {
				return nil, err
			}
			stmt.Value = value
		}
		return stmt, nil

	case "AssignStmt":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.ValueNode)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Pos: n.Pos.position(), Target: target, Op: n.Op, Value: value}, nil

	case "IfStmt":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(n.Then)
		if err != nil {
			return nil, err
		}
		stmt := &ast.IfStmt{Pos: n.Pos.position(), Cond: cond, Then: then}
		if n.Else != nil {
			elseBlock, err := decodeBlock(n.Else)
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
		return stmt, nil

	case "WhileStmt":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Pos: n.Pos.position(), Cond: cond, Body: body}, nil

	case "ForStmt":
		stmt := &ast.ForStmt{Pos: n.Pos.position()}
		if n.Init != nil {
			init, err := decodeStmt(n.Init)
			if err != nil {
				return nil, err
			}
			decl, ok := init.(*ast.VarDeclStmt)
			if !ok {
				return nil, errors.NewUnsupportedConstruct("for initializer "+n.Init.NodeType, n.Init.Pos.position())
			}
			stmt.Init = decl
		}
		if n.Cond != nil {
			cond, err := decodeExpr(n.Cond)
			if err != nil {
				return nil, err
			}
			stmt.Cond = cond
		}
		if n.Post != nil {
			post, err := decodeStmt(n.Post)
			if err != nil {
				return nil, err
			}
			assign, ok := post.(*ast.AssignStmt)
			if !ok {
				return nil, errors.NewUnsupportedConstruct("for post statement "+n.Post.NodeType, n.Post.Pos.position())
			}
			stmt.Post = assign
		}
		body, err := decodeBlock(n.Body)
		if err != nil {
			return nil, err
		}
		stmt.Body = body
		return stmt, nil

	case "RequireStmt":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		return &ast.RequireStmt{Pos: n.Pos.position(), Cond: cond}, nil

	case "AssertStmt":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		return &ast.AssertStmt{Pos: n.Pos.position(), Cond: cond}, nil

	case "ReturnStmt":
		stmt := &ast.ReturnStmt{Pos: n.Pos.position()}
		if n.ValueNode != nil {
			value, err := decodeExpr(n.ValueNode)
			if err != nil {
				return nil, err
			}
			stmt.Value = value
		}
		return stmt, nil

	case "EmitStmt":
		args, err := decodeExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.EmitStmt{Pos: n.Pos.position(), Event: n.Event, Args: args}, nil

	case "ExprStmt":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Pos: n.Pos.position(), X: x}, nil
	}
	return nil, errors.NewUnsupportedConstruct(n.NodeType, n.Pos.position())
}

func decodeExpr(n *rawNode) (ast.Expr, error) {
	if n == nil {
		return nil, errors.NewInputError("missing expression node")
	}
	switch n.NodeType {
	case "IdentExpr":
		return &ast.IdentExpr{Pos: n.Pos.position(), Name: n.Name}, nil

	case "LiteralExpr":
		return &ast.LiteralExpr{Pos: n.Pos.position(), Value: n.Value}, nil

	case "BinaryExpr":
		left, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Pos: n.Pos.position(), Op: n.Op, Left: left, Right: right}, nil

	case "UnaryExpr":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: n.Pos.position(), Op: n.Op, X: x}, nil

	case "IndexExpr":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		key, err := decodeExpr(n.Key)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{Pos: n.Pos.position(), Target: target, Key: key}, nil

	case "MemberExpr":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		return &ast.MemberExpr{Pos: n.Pos.position(), Target: target, Field: n.Field}, nil

	case "CallExpr":
		callee, err := decodeExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Pos: n.Pos.position(), Callee: callee, Args: args}, nil

	case "ExternalCallExpr":
		addr, err := decodeExpr(n.Address)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.ExternalCallExpr{
			Pos:      n.Pos.position(),
			Contract: n.Contract,
			Address:  addr,
			Function: n.Name,
			Args:     args,
		}, nil

	case "NewExpr":
		args, err := decodeExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &ast.NewExpr{Pos: n.Pos.position(), Contract: n.Contract, Args: args}, nil

	case "ParenExpr":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Pos: n.Pos.position(), X: x}, nil
	}
	return nil, errors.NewUnsupportedConstruct(n.NodeType, n.Pos.position())
}

func decodeExprs(nodes []*rawNode) ([]ast.Expr, error) {
	exprs := make([]ast.Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := decodeExpr(n)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}
