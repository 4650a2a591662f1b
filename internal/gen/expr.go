package gen

import (
	"fmt"

	"solspin/internal/ast"
	"solspin/internal/errors"
	"solspin/internal/ledger"
	"solspin/internal/promela"
	"solspin/internal/types"
)

var binaryOps = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"==": "==", "!=": "!=", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
	"&&": "&&", "||": "||",
	"&": "&", "|": "|", "^": "^", "<<": "<<", ">>": ">>",
}

// expr renders one expression as PROMELA text. Sub-expressions that cannot
// render inline (mapping reads, calls) evaluate into temporaries through
// statements appended to pre, which the caller emits ahead of the use site.
func (s *fnScope) expr(e ast.Expr, pre *[]promela.Stmt) (string, error) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return n.Value, nil

	case *ast.IdentExpr:
		name, _, err := s.resolveIdent(n)
		return name, err

	case *ast.BinaryExpr:
		op, ok := binaryOps[n.Op]
		if !ok {
			return "", errors.NewUnsupportedConstruct("operator "+n.Op, n.Pos)
		}
		left, err := s.expr(n.Left, pre)
		if err != nil {
			return "", err
		}
		right, err := s.expr(n.Right, pre)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), nil

	case *ast.UnaryExpr:
		if n.Op != "!" && n.Op != "-" {
			return "", errors.NewUnsupportedConstruct("unary operator "+n.Op, n.Pos)
		}
		x, err := s.expr(n.X, pre)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s%s)", n.Op, x), nil

	case *ast.ParenExpr:
		x, err := s.expr(n.X, pre)
		if err != nil {
			return "", err
		}
		return "(" + x + ")", nil

	case *ast.IndexExpr:
		return s.indexExpr(n, pre)

	case *ast.MemberExpr:
		return s.memberExpr(n, pre)

	case *ast.CallExpr:
		return s.callExpr(n, pre)

	case *ast.ExternalCallExpr:
		return s.externalCall(n, pre)

	case *ast.NewExpr:
		return s.newExpr(n, pre)

	default:
		return "", errors.NewUnsupportedConstruct(
			fmt.Sprintf("expression %s", e.NodeKind()), e.NodePos())
	}
}

// resolveIdent binds a bare name: boolean literals, then function-scope
// bindings, then contract state
func (s *fnScope) resolveIdent(n *ast.IdentExpr) (string, *types.Descriptor, error) {
	switch n.Name {
	case "true", "false":
		return n.Name, &types.Descriptor{Kind: types.Bool}, nil
	}
	if bind, ok := s.vars[n.Name]; ok {
		return bind.name, bind.desc, nil
	}
	c := s.contract()
	if sv, ok := c.StateVar(n.Name); ok {
		return stateVarName(c, n.Name), sv.Type, nil
	}
	return "", nil, errors.NewUnsupportedConstruct("unresolved identifier "+n.Name, n.Pos)
}

// lvalue resolves an assignable or readable storage path to its rendered
// name and descriptor. Index keys evaluate through pre.
func (s *fnScope) lvalue(e ast.Expr, pre *[]promela.Stmt) (string, *types.Descriptor, error) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		return s.resolveIdent(n)

	case *ast.MemberExpr:
		base, desc, err := s.lvalue(n.Target, pre)
		if err != nil {
			return "", nil, err
		}
		if desc.Kind != types.Struct {
			return "", nil, errors.NewUnsupportedConstruct(
				fmt.Sprintf("member %s on %s value", n.Field, desc.Kind), n.Pos)
		}
		for _, f := range desc.Fields {
			if f.Name == n.Field {
				return base + "." + n.Field, f.Type, nil
			}
		}
		return "", nil, errors.NewUnsupportedConstruct(
			fmt.Sprintf("struct %s has no field %s", desc.Name, n.Field), n.Pos)

	case *ast.IndexExpr:
		base, desc, err := s.lvalue(n.Target, pre)
		if err != nil {
			return "", nil, err
		}
		if desc.Kind != types.DynamicArray {
			return "", nil, errors.NewUnsupportedConstruct(
				fmt.Sprintf("index into %s value", desc.Kind), n.Pos)
		}
		key, err := s.expr(n.Key, pre)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s.elements[%s]", base, key), desc.Elem, nil
	}
	return "", nil, errors.NewUnsupportedConstruct(
		fmt.Sprintf("assignment target %s", e.NodeKind()), e.NodePos())
}

// indexExpr reads one element: arrays render inline, mapping reads go
// through the get inline into a temporary
func (s *fnScope) indexExpr(n *ast.IndexExpr, pre *[]promela.Stmt) (string, error) {
	base, desc, err := s.lvalue(n.Target, pre)
	if err != nil {
		return "", err
	}

	switch desc.Kind {
	case types.DynamicArray:
		key, err := s.expr(n.Key, pre)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.elements[%s]", base, key), nil

	case types.Mapping:
		key, err := s.expr(n.Key, pre)
		if err != nil {
			return "", err
		}
		tname, err := s.ps.b.ensureMappingTypedef(desc, n.Pos)
		if err != nil {
			return "", err
		}
		out := s.newTemp(desc.Value)
		*pre = append(*pre, &promela.CallInline{Name: tname + "_get", Args: []string{base, key, out}})
		return out, nil
	}
	return "", errors.NewUnsupportedConstruct(
		fmt.Sprintf("index into %s value", desc.Kind), n.Pos)
}

// memberExpr resolves environment accesses, enum constants, array length
// and struct field reads
func (s *fnScope) memberExpr(n *ast.MemberExpr, pre *[]promela.Stmt) (string, error) {
	if id, ok := n.Target.(*ast.IdentExpr); ok {
		switch id.Name {
		case "msg":
			switch n.Field {
			case "sender":
				return "msg_sender", nil
			case "sig":
				return "msg_sig", nil
			}
			return "", errors.NewUnsupportedConstruct("msg."+n.Field, n.Pos)
		case "block":
			switch n.Field {
			case "number":
				return "block_number", nil
			case "timestamp":
				return "block_timestamp", nil
			case "difficulty":
				return "block_difficulty", nil
			case "coinbase":
				return "BLOCK_COINBASE", nil
			case "gaslimit":
				return "BLOCK_GASLIMIT", nil
			}
			return "", errors.NewUnsupportedConstruct("block."+n.Field, n.Pos)
		case "tx":
			switch n.Field {
			case "origin":
				return "tx_origin", nil
			case "gasprice":
				return "TX_GASPRICE", nil
			}
			return "", errors.NewUnsupportedConstruct("tx."+n.Field, n.Pos)
		}

		c := s.contract()
		for _, e := range c.Enums {
			if e.Name != id.Name {
				continue
			}
			for _, v := range e.Values {
				if v == n.Field {
					return enumDefine(c, e.Name, v), nil
				}
			}
			return "", errors.NewUnsupportedConstruct(
				fmt.Sprintf("enum %s has no value %s", e.Name, n.Field), n.Pos)
		}
	}

	base, desc, err := s.lvalue(n.Target, pre)
	if err != nil {
		return "", err
	}
	if desc.Kind == types.DynamicArray && n.Field == "length" {
		return base + ".length", nil
	}
	if desc.Kind == types.Struct {
		for _, f := range desc.Fields {
			if f.Name == n.Field {
				return base + "." + n.Field, nil
			}
		}
	}
	return "", errors.NewUnsupportedConstruct(
		fmt.Sprintf("member %s on %s value", n.Field, desc.Kind), n.Pos)
}

// callExpr handles calls to functions of the same contract, expanded inline
// under a configured depth bound
func (s *fnScope) callExpr(n *ast.CallExpr, pre *[]promela.Stmt) (string, error) {
	id, ok := n.Callee.(*ast.IdentExpr)
	if !ok {
		return "", errors.NewUnsupportedConstruct("call through a computed callee", n.Pos)
	}
	c := s.contract()
	fn, ok := c.Function(id.Name)
	if !ok || fn.Constructor {
		return "", errors.NewUnsupportedConstruct("call to unknown function "+id.Name, n.Pos)
	}
	if len(n.Args) != len(fn.Params) {
		return "", errors.NewUnsupportedConstruct(
			fmt.Sprintf("call to %s with %d arguments, want %d", fn.Name, len(n.Args), len(fn.Params)), n.Pos)
	}

	if s.depth >= s.ps.b.cfg.CallDepth {
		s.ps.b.led.Append(n.Pos, ledger.LoopBoundAbstraction,
			"call chain through %s cut off at depth %d", fn.Name, s.ps.b.cfg.CallDepth)
		*pre = append(*pre,
			&promela.Comment{Text: "call depth bound reached: no transition"},
			&promela.Expr{Text: "false"},
		)
		if fn.Return != nil {
			return fn.Return.ZeroValue(), nil
		}
		return "0", nil
	}

	s.ps.labelN++
	sub := newFnScope(s.ps, fn, fmt.Sprintf("%s_%s%d", s.prefix, fn.Name, s.ps.labelN), s.depth+1)
	sub.retLabel = sub.prefix + "_done"

	for i, p := range fn.Params {
		arg, err := s.expr(n.Args[i], pre)
		if err != nil {
			return "", err
		}
		local := sub.prefix + "_" + p.Name
		s.ps.addLocal(local, p.Type.PromelaType())
		sub.vars[p.Name] = &varBinding{name: local, desc: p.Type}
		*pre = append(*pre, &promela.Assign{Lhs: local, Rhs: arg})
	}

	result := "0"
	if fn.Return != nil {
		sub.retVar = sub.prefix + "_rv"
		s.ps.addLocal(sub.retVar, fn.Return.PromelaType())
		*pre = append(*pre, &promela.Assign{Lhs: sub.retVar, Rhs: fn.Return.ZeroValue()})
		result = sub.retVar
	}

	body, err := sub.block(fn.Body)
	if err != nil {
		return "", err
	}
	*pre = append(*pre, &promela.Comment{Text: "inlined call to " + fn.Name})
	*pre = append(*pre, body...)
	*pre = append(*pre, &promela.Label{Name: sub.retLabel}, &promela.Skip{})
	return result, nil
}

// externalCall performs a cross-contract call over the callee's channel
// pair; the sender travels as this contract's own address
func (s *fnScope) externalCall(n *ast.ExternalCallExpr, pre *[]promela.Stmt) (string, error) {
	callee, ok := s.ps.b.program.Lookup(n.Contract)
	if !ok {
		return "", errors.NewUnsupportedConstruct("call into unknown contract "+n.Contract, n.Pos)
	}
	fn, ok := callee.Function(n.Function)
	if !ok || !fn.External || fn.Constructor {
		return "", errors.NewUnsupportedConstruct(
			fmt.Sprintf("%s has no externally visible function %s", n.Contract, n.Function), n.Pos)
	}
	if len(n.Args) != len(fn.Params) {
		return "", errors.NewUnsupportedConstruct(
			fmt.Sprintf("call to %s.%s with %d arguments, want %d",
				n.Contract, fn.Name, len(n.Args), len(fn.Params)), n.Pos)
	}

	// the address expression still evaluates; dispatch is static per the
	// declared contract type
	if n.Address != nil {
		if _, err := s.expr(n.Address, pre); err != nil {
			return "", err
		}
	}

	sendArgs := []string{addrDefine(s.contract())}
	for i := range fn.Params {
		arg, err := s.expr(n.Args[i], pre)
		if err != nil {
			return "", err
		}
		sendArgs = append(sendArgs, arg)
	}

	ret := fn.Return
	if ret == nil {
		ret = types.Counter()
	}
	out := s.newTemp(ret)
	*pre = append(*pre,
		&promela.Send{Chan: callChan(callee, fn.Name), Args: sendArgs},
		&promela.Recv{Chan: retChan(callee, fn.Name), Args: []string{out}},
	)
	return out, nil
}

// newExpr starts the named contract's process and yields its fixed address;
// creation is address binding, not ownership
func (s *fnScope) newExpr(n *ast.NewExpr, pre *[]promela.Stmt) (string, error) {
	target, ok := s.ps.b.program.Lookup(n.Contract)
	if !ok {
		return "", errors.NewUnsupportedConstruct("new of unknown contract "+n.Contract, n.Pos)
	}

	var runArgs []string
	ctor := target.Constructor()
	if ctor != nil {
		if len(n.Args) != len(ctor.Params) {
			return "", errors.NewUnsupportedConstruct(
				fmt.Sprintf("new %s with %d arguments, want %d",
					n.Contract, len(n.Args), len(ctor.Params)), n.Pos)
		}
		for i := range ctor.Params {
			arg, err := s.expr(n.Args[i], pre)
			if err != nil {
				return "", err
			}
			runArgs = append(runArgs, arg)
		}
	} else if len(n.Args) != 0 {
		return "", errors.NewUnsupportedConstruct(
			"new "+n.Contract+" with arguments but no constructor", n.Pos)
	}

	s.ps.b.spawned[target.Name] = true
	*pre = append(*pre, &promela.Run{Proc: target.Name, Args: runArgs})
	return addrDefine(target), nil
}
