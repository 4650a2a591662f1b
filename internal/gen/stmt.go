package gen

import (
	"fmt"
	"strings"

	"solspin/internal/ast"
	"solspin/internal/errors"
	"solspin/internal/ir"
	"solspin/internal/ledger"
	"solspin/internal/promela"
	"solspin/internal/types"
)

// fnScope is the translation context for one function body, or one inline
// expansion of an internal call. Names bind to process locals prefixed by
// the scope so expansions never collide.
type fnScope struct {
	ps     *procScope
	fn     *ir.FunctionSignature
	prefix string
	vars   map[string]*varBinding

	retVar   string // empty when the function returns nothing
	retLabel string
	depth    int // internal-call expansion depth
	tempN    int
}

type varBinding struct {
	name string
	desc *types.Descriptor
}

func newFnScope(ps *procScope, fn *ir.FunctionSignature, prefix string, depth int) *fnScope {
	return &fnScope{
		ps:     ps,
		fn:     fn,
		prefix: prefix,
		vars:   make(map[string]*varBinding),
		depth:  depth,
	}
}

func (s *fnScope) contract() *ir.Contract { return s.ps.contract }

func (s *fnScope) newTemp(desc *types.Descriptor) string {
	s.tempN++
	name := fmt.Sprintf("%s_t%d", s.prefix, s.tempN)
	s.ps.addLocal(name, desc.PromelaType())
	return name
}

func (s *fnScope) block(blk *ast.Block) ([]promela.Stmt, error) {
	if blk == nil {
		return nil, nil
	}
	var out []promela.Stmt
	for _, st := range blk.Stmts {
		stmts, err := s.stmt(st)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func (s *fnScope) stmt(node ast.Stmt) ([]promela.Stmt, error) {
	switch n := node.(type) {
	case *ast.VarDeclStmt:
		return s.varDecl(n)
	case *ast.AssignStmt:
		return s.assign(n)
	case *ast.IfStmt:
		return s.ifStmt(n)
	case *ast.WhileStmt:
		return s.whileStmt(n)
	case *ast.ForStmt:
		return s.forStmt(n)
	case *ast.RequireStmt:
		return s.guardStmt(n.Cond, "requirement failed: dead end")
	case *ast.AssertStmt:
		return s.guardStmt(n.Cond, "assertion failed: dead end")
	case *ast.ReturnStmt:
		return s.returnStmt(n)
	case *ast.EmitStmt:
		return s.emitStmt(n)
	case *ast.ExprStmt:
		return s.exprStmt(n)
	case *ast.Block:
		return s.block(n)
	default:
		return nil, errors.NewUnsupportedConstruct(
			fmt.Sprintf("statement %s", node.NodeKind()), node.NodePos())
	}
}

func (s *fnScope) varDecl(n *ast.VarDeclStmt) ([]promela.Stmt, error) {
	desc, err := s.contract().Mapper.Map(n.Type, s.fn.Name+"."+n.Name)
	if err != nil {
		return nil, err
	}
	if !desc.Scalar() {
		return nil, errors.NewUnsupportedConstruct(
			"non-scalar local variable "+n.Name, n.Pos)
	}

	name := s.prefix + "_" + n.Name
	s.ps.addLocal(name, desc.PromelaType())
	s.vars[n.Name] = &varBinding{name: name, desc: desc}

	// explicit init even without an initializer: process locals persist
	// across serve iterations
	var pre []promela.Stmt
	rhs := desc.ZeroValue()
	if n.Value != nil {
		rhs, err = s.expr(n.Value, &pre)
		if err != nil {
			return nil, err
		}
	}
	return append(pre, &promela.Assign{Lhs: name, Rhs: rhs}), nil
}

func (s *fnScope) assign(n *ast.AssignStmt) ([]promela.Stmt, error) {
	var pre []promela.Stmt
	rhs, err := s.expr(n.Value, &pre)
	if err != nil {
		return nil, err
	}

	// mapping writes go through the set inline; everything else is a
	// plain PROMELA assignment to the resolved lvalue
	if idx, ok := n.Target.(*ast.IndexExpr); ok {
		var peek []promela.Stmt
		if base, desc, berr := s.lvalue(idx.Target, &peek); berr == nil && desc.Kind == types.Mapping {
			pre = append(pre, peek...)
			return s.mappingAssign(n, base, desc, idx, rhs, pre)
		}
	}

	lhs, _, err := s.lvalue(n.Target, &pre)
	if err != nil {
		return nil, err
	}
	return append(pre, &promela.Assign{Lhs: lhs, Rhs: compound(lhs, n.Op, rhs)}), nil
}

// compound folds += and friends into a plain right-hand side
func compound(lhs, op, rhs string) string {
	if op == "=" {
		return rhs
	}
	return fmt.Sprintf("%s %s %s", lhs, strings.TrimSuffix(op, "="), rhs)
}

func (s *fnScope) mappingAssign(n *ast.AssignStmt, base string, desc *types.Descriptor, idx *ast.IndexExpr, rhs string, pre []promela.Stmt) ([]promela.Stmt, error) {
	key, err := s.expr(idx.Key, &pre)
	if err != nil {
		return nil, err
	}
	tname, err := s.ps.b.ensureMappingTypedef(desc, idx.Pos)
	if err != nil {
		return nil, err
	}

	value := rhs
	if n.Op != "=" {
		cur := s.newTemp(desc.Value)
		pre = append(pre, &promela.CallInline{Name: tname + "_get", Args: []string{base, key, cur}})
		value = fmt.Sprintf("(%s)", compound(cur, n.Op, rhs))
	}
	return append(pre, &promela.CallInline{Name: tname + "_set", Args: []string{base, key, value}}), nil
}

// ifStmt keeps the source structure and adds an else-skip branch when the
// source has none, so a false condition falls through instead of blocking
func (s *fnScope) ifStmt(n *ast.IfStmt) ([]promela.Stmt, error) {
	var pre []promela.Stmt
	cond, err := s.expr(n.Cond, &pre)
	if err != nil {
		return nil, err
	}
	thenBody, err := s.block(n.Then)
	if err != nil {
		return nil, err
	}
	if len(thenBody) == 0 {
		thenBody = []promela.Stmt{&promela.Skip{}}
	}

	elseBody := []promela.Stmt{&promela.Skip{}}
	if n.Else != nil {
		elseBody, err = s.block(n.Else)
		if err != nil {
			return nil, err
		}
		if len(elseBody) == 0 {
			elseBody = []promela.Stmt{&promela.Skip{}}
		}
	}

	return append(pre, &promela.If{Branches: []promela.Branch{
		{Guard: cond, Body: thenBody},
		{Guard: "else", Body: elseBody},
	}}), nil
}

// loopCond evaluates a loop condition, which must be free of collection
// reads and calls: its prelude would not re-execute on later iterations
func (s *fnScope) loopCond(cond ast.Expr) (string, error) {
	var pre []promela.Stmt
	text, err := s.expr(cond, &pre)
	if err != nil {
		return "", err
	}
	if len(pre) > 0 {
		return "", errors.NewUnsupportedConstruct(
			"loop condition with collection access or call", cond.NodePos())
	}
	return text, nil
}

func (s *fnScope) whileStmt(n *ast.WhileStmt) ([]promela.Stmt, error) {
	cond, err := s.loopCond(n.Cond)
	if err != nil {
		return nil, err
	}
	body, err := s.block(n.Body)
	if err != nil {
		return nil, err
	}

	bound := s.ps.b.cfg.LoopBound
	s.ps.b.led.Append(n.Pos, ledger.LoopBoundAbstraction,
		"while loop truncated after %d iterations", bound)

	cnt := s.newTemp(types.Counter())
	body = append(body, &promela.Assign{Lhs: cnt, Rhs: cnt + " + 1"})
	return []promela.Stmt{
		&promela.Assign{Lhs: cnt, Rhs: "0"},
		&promela.Do{Branches: []promela.Branch{
			{Guard: fmt.Sprintf("(%s && %s < %d)", cond, cnt, bound), Body: body},
			{Guard: "else", Body: []promela.Stmt{&promela.Break{}}},
		}},
	}, nil
}

func (s *fnScope) forStmt(n *ast.ForStmt) ([]promela.Stmt, error) {
	var out []promela.Stmt
	if n.Init != nil {
		initStmts, err := s.varDecl(n.Init)
		if err != nil {
			return nil, err
		}
		out = append(out, initStmts...)
	}

	// for(;;) carries no condition and relies on the iteration cap alone
	cond := "true"
	if n.Cond != nil {
		var err error
		cond, err = s.loopCond(n.Cond)
		if err != nil {
			return nil, err
		}
	}
	body, err := s.block(n.Body)
	if err != nil {
		return nil, err
	}
	if n.Post != nil {
		postStmts, err := s.assign(n.Post)
		if err != nil {
			return nil, err
		}
		body = append(body, postStmts...)
	}

	// loops whose trip count is evident from literal bounds translate
	// without truncation; everything else gets the configured cap
	if staticallyBounded(n) {
		return append(out, &promela.Do{Branches: []promela.Branch{
			{Guard: cond, Body: body},
			{Guard: "else", Body: []promela.Stmt{&promela.Break{}}},
		}}), nil
	}

	bound := s.ps.b.cfg.LoopBound
	s.ps.b.led.Append(n.Pos, ledger.LoopBoundAbstraction,
		"for loop truncated after %d iterations", bound)

	cnt := s.newTemp(types.Counter())
	body = append(body, &promela.Assign{Lhs: cnt, Rhs: cnt + " + 1"})
	out = append(out, &promela.Assign{Lhs: cnt, Rhs: "0"})
	return append(out, &promela.Do{Branches: []promela.Branch{
		{Guard: fmt.Sprintf("(%s && %s < %d)", cond, cnt, bound), Body: body},
		{Guard: "else", Body: []promela.Stmt{&promela.Break{}}},
	}}), nil
}

// staticallyBounded recognizes the counting idiom: a literal-initialized
// loop variable, compared against a literal with < or <=, stepped by a
// literal amount toward the bound
func staticallyBounded(n *ast.ForStmt) bool {
	if n.Init == nil || n.Cond == nil || n.Post == nil {
		return false
	}
	if n.Init.Value != nil {
		if _, ok := n.Init.Value.(*ast.LiteralExpr); !ok {
			return false
		}
	}
	loopVar := n.Init.Name

	cmp, ok := n.Cond.(*ast.BinaryExpr)
	if !ok || (cmp.Op != "<" && cmp.Op != "<=") {
		return false
	}
	if id, ok := cmp.Left.(*ast.IdentExpr); !ok || id.Name != loopVar {
		return false
	}
	if _, ok := cmp.Right.(*ast.LiteralExpr); !ok {
		return false
	}

	target, ok := n.Post.Target.(*ast.IdentExpr)
	if !ok || target.Name != loopVar {
		return false
	}
	stepped := false
	switch n.Post.Op {
	case "+=":
		_, stepped = n.Post.Value.(*ast.LiteralExpr)
	case "=":
		if sum, ok := n.Post.Value.(*ast.BinaryExpr); ok && sum.Op == "+" {
			left, lok := sum.Left.(*ast.IdentExpr)
			_, rok := sum.Right.(*ast.LiteralExpr)
			stepped = lok && rok && left.Name == loopVar
		}
	}
	return stepped && !blockWrites(n.Body, loopVar)
}

// blockWrites reports whether any statement in the block assigns the name
func blockWrites(blk *ast.Block, name string) bool {
	if blk == nil {
		return false
	}
	for _, st := range blk.Stmts {
		switch n := st.(type) {
		case *ast.AssignStmt:
			if id, ok := n.Target.(*ast.IdentExpr); ok && id.Name == name {
				return true
			}
		case *ast.VarDeclStmt:
			if n.Name == name {
				return true
			}
		case *ast.IfStmt:
			if blockWrites(n.Then, name) || blockWrites(n.Else, name) {
				return true
			}
		case *ast.WhileStmt:
			if blockWrites(n.Body, name) {
				return true
			}
		case *ast.ForStmt:
			if blockWrites(n.Body, name) {
				return true
			}
		case *ast.Block:
			if blockWrites(n, name) {
				return true
			}
		}
	}
	return false
}

// guardStmt translates require and assert: a failing condition leaves the
// process with no outgoing transition, which the checker reports
func (s *fnScope) guardStmt(cond ast.Expr, note string) ([]promela.Stmt, error) {
	var pre []promela.Stmt
	text, err := s.expr(cond, &pre)
	if err != nil {
		return nil, err
	}
	return append(pre, &promela.If{Branches: []promela.Branch{
		{Guard: text, Body: []promela.Stmt{&promela.Skip{}}},
		{Guard: "else", Body: []promela.Stmt{
			&promela.Comment{Text: note},
			&promela.Expr{Text: "false"},
		}},
	}}), nil
}

func (s *fnScope) returnStmt(n *ast.ReturnStmt) ([]promela.Stmt, error) {
	var pre []promela.Stmt
	if n.Value != nil {
		if s.retVar == "" {
			return nil, errors.NewUnsupportedConstruct(
				"return with a value from a function without a return type", n.Pos)
		}
		v, err := s.expr(n.Value, &pre)
		if err != nil {
			return nil, err
		}
		pre = append(pre, &promela.Assign{Lhs: s.retVar, Rhs: v})
	}
	return append(pre, &promela.Goto{Label: s.retLabel}), nil
}

func (s *fnScope) emitStmt(n *ast.EmitStmt) ([]promela.Stmt, error) {
	c := s.contract()
	found := false
	for _, e := range c.Events {
		if e.Name == n.Event {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.NewUnsupportedConstruct("emit of undeclared event "+n.Event, n.Pos)
	}

	// arguments still evaluate for their side effects
	var pre []promela.Stmt
	for _, a := range n.Args {
		if _, err := s.expr(a, &pre); err != nil {
			return nil, err
		}
	}
	ev := eventVarName(c, n.Event) + ".count"
	return append(pre,
		&promela.Comment{Text: "emit " + n.Event},
		&promela.Assign{Lhs: ev, Rhs: ev + " + 1"},
	), nil
}

func (s *fnScope) exprStmt(n *ast.ExprStmt) ([]promela.Stmt, error) {
	// array push sits in statement position only
	if call, ok := n.X.(*ast.CallExpr); ok {
		if m, ok := call.Callee.(*ast.MemberExpr); ok && m.Field == "push" {
			return s.pushStmt(call, m)
		}
	}

	var pre []promela.Stmt
	if _, err := s.expr(n.X, &pre); err != nil {
		return nil, err
	}
	return pre, nil
}

func (s *fnScope) pushStmt(call *ast.CallExpr, m *ast.MemberExpr) ([]promela.Stmt, error) {
	var pre []promela.Stmt
	base, desc, err := s.lvalue(m.Target, &pre)
	if err != nil {
		return nil, err
	}
	if desc.Kind != types.DynamicArray {
		return nil, errors.NewUnsupportedConstruct("push on a non-array value", call.Pos)
	}
	if len(call.Args) != 1 {
		return nil, errors.NewUnsupportedConstruct("push with other than one argument", call.Pos)
	}
	v, err := s.expr(call.Args[0], &pre)
	if err != nil {
		return nil, err
	}

	length := base + ".length"
	return append(pre, &promela.If{Branches: []promela.Branch{
		{Guard: fmt.Sprintf("(%s < %d)", length, desc.MaxLen), Body: []promela.Stmt{
			&promela.Assign{Lhs: fmt.Sprintf("%s.elements[%s]", base, length), Rhs: v},
			&promela.Assign{Lhs: length, Rhs: length + " + 1"},
		}},
		{Guard: "else", Body: s.ps.b.overflowStmts()},
	}}), nil
}
