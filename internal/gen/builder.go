package gen

import (
	"fmt"
	"strings"

	"solspin/internal/ast"
	"solspin/internal/config"
	"solspin/internal/errors"
	"solspin/internal/ir"
	"solspin/internal/ledger"
	"solspin/internal/promela"
	"solspin/internal/types"
)

// builder assembles the PROMELA model from the normalized program. Every
// fidelity-reducing decision made here goes through the ledger; every
// construct without a defined mapping is a fatal error, never a silent skip.
type builder struct {
	program *ir.Program
	cfg     *config.Config
	led     *ledger.Ledger
	model   *promela.Model

	typedefSeen map[string]bool
	usesMapping bool

	// contracts instantiated via new; init does not pre-run these
	spawned map[string]bool
}

func newBuilder(program *ir.Program, cfg *config.Config, led *ledger.Ledger) *builder {
	return &builder{
		program:     program,
		cfg:         cfg,
		led:         led,
		model:       &promela.Model{Name: program.Primary().Name},
		typedefSeen: make(map[string]bool),
		spawned:     make(map[string]bool),
	}
}

// Build runs declaration and process generation for every contract, then
// agent synthesis and the init process. Nothing is emitted on error: the
// caller discards the model unless Build returns nil.
func (b *builder) Build() (*promela.Model, error) {
	if b.cfg.ArrayOverflowPolicy != config.DefaultOverflowPolicy {
		b.led.Append(b.program.Primary().Pos, ledger.OverflowPolicyAbstraction,
			"collection overflow policy %q applied instead of default %q",
			b.cfg.ArrayOverflowPolicy, config.DefaultOverflowPolicy)
	}

	b.declareEnvironment()

	for _, c := range b.program.Contracts {
		if err := b.declareContract(c); err != nil {
			return nil, err
		}
	}

	// translated after all declarations so cross-contract channel
	// references resolve regardless of declaration order
	for _, c := range b.program.Contracts {
		proc, err := b.buildContractProcess(c)
		if err != nil {
			return nil, err
		}
		b.model.Procs = append(b.model.Procs, proc)
	}

	if b.usesMapping {
		b.model.Globals = append(b.model.Globals, promela.VarDecl{
			Name: "map_i", Type: "byte",
			Comment: "scan cursor shared by the mapping inlines; safe under the transaction lock",
		})
	}

	if err := b.buildAgents(); err != nil {
		return nil, err
	}

	if err := b.buildInit(); err != nil {
		return nil, err
	}

	return b.model, nil
}

// Naming helpers; all generated names are derived deterministically from
// declaration names so repeated runs emit identical text.

func stateVarName(c *ir.Contract, name string) string {
	return c.Name + "_" + name
}

func callChan(c *ir.Contract, fn string) string {
	return c.Name + "_" + fn + "_call"
}

func retChan(c *ir.Contract, fn string) string {
	return c.Name + "_" + fn + "_ret"
}

func addrDefine(c *ir.Contract) string {
	return "ADDR_" + c.Name
}

func sigDefine(c *ir.Contract, fn string) string {
	return "SIG_" + c.Name + "_" + fn
}

func enumDefine(c *ir.Contract, enum, value string) string {
	return strings.ToUpper(c.Name + "_" + enum + "_" + value)
}

func eventVarName(c *ir.Contract, event string) string {
	return c.Name + "_ev_" + event
}

// declareContract emits the per-contract declarations in source order:
// address constant, enum constants, struct and event typedefs, state
// variables, then one channel pair and selector constant per externally
// visible function.
func (b *builder) declareContract(c *ir.Contract) error {
	b.model.Defines = append(b.model.Defines, promela.Define{
		Name:    addrDefine(c),
		Value:   fmt.Sprintf("%d", c.Address),
		Comment: "contract address",
	})

	for _, e := range c.Enums {
		for i, v := range e.Values {
			b.model.Defines = append(b.model.Defines, promela.Define{
				Name:  enumDefine(c, e.Name, v),
				Value: fmt.Sprintf("%d", i),
			})
		}
	}

	for _, s := range c.Structs {
		if _, err := b.ensureStructTypedef(c, s.Type, s.Pos); err != nil {
			return err
		}
	}

	for _, e := range c.Events {
		b.declareEvent(c, e)
	}

	for _, sv := range c.StateVars {
		if err := b.declareStateVar(c, sv); err != nil {
			return err
		}
	}

	for _, fn := range c.ExternalFunctions() {
		if err := b.declareFunctionChannels(c, fn); err != nil {
			return err
		}
	}

	return nil
}

func (b *builder) declareEvent(c *ir.Contract, e ir.EventDecl) {
	tname := "Evt_" + c.Name + "_" + e.Name
	if !b.typedefSeen[tname] {
		b.typedefSeen[tname] = true
		b.model.Typedefs = append(b.model.Typedefs, promela.Typedef{
			Name:    tname,
			Fields:  []promela.VarDecl{{Name: "count", Type: "int"}},
			Comment: fmt.Sprintf("event %s: occurrence counter, no control-flow effect", e.Name),
		})
	}
	b.model.Globals = append(b.model.Globals, promela.VarDecl{
		Name: eventVarName(c, e.Name),
		Type: tname,
	})
}

func (b *builder) declareStateVar(c *ir.Contract, sv ir.StateVar) error {
	name := stateVarName(c, sv.Name)
	desc := sv.Type

	switch desc.Kind {
	case types.DynamicArray:
		tname, err := b.ensureArrayTypedef(desc, sv.Pos)
		if err != nil {
			return err
		}
		b.model.Globals = append(b.model.Globals, promela.VarDecl{Name: name, Type: tname})

	case types.Mapping:
		tname, err := b.ensureMappingTypedef(desc, sv.Pos)
		if err != nil {
			return err
		}
		b.model.Globals = append(b.model.Globals, promela.VarDecl{Name: name, Type: tname})

	case types.FixedString:
		b.model.Globals = append(b.model.Globals, promela.VarDecl{
			Name: name, Type: "byte", ArrayLen: desc.MaxBytes,
		})

	case types.Struct:
		tname, err := b.ensureStructTypedef(c, desc, sv.Pos)
		if err != nil {
			return err
		}
		b.model.Globals = append(b.model.Globals, promela.VarDecl{Name: name, Type: tname})

	case types.Event:
		return errors.NewUnsupportedConstruct("event-typed state variable "+sv.Name, sv.Pos)

	default:
		b.model.Globals = append(b.model.Globals, promela.VarDecl{
			Name: name, Type: desc.PromelaType(),
		})
	}
	return nil
}

func (b *builder) declareFunctionChannels(c *ir.Contract, fn *ir.FunctionSignature) error {
	callElems := []string{"byte"} // msg.sender travels with every call
	for _, p := range fn.Params {
		if !p.Type.Scalar() {
			return errors.NewUnsupportedConstruct(
				fmt.Sprintf("non-scalar parameter %s of %s", p.Name, fn.Name), fn.Pos)
		}
		callElems = append(callElems, p.Type.PromelaType())
	}

	retElems := []string{"byte"}
	if fn.Return != nil {
		if !fn.Return.Scalar() {
			return errors.NewUnsupportedConstruct(
				"non-scalar return type of "+fn.Name, fn.Pos)
		}
		retElems = []string{fn.Return.PromelaType()}
	}

	b.model.Channels = append(b.model.Channels,
		promela.ChanDecl{
			Name:      callChan(c, fn.Name),
			ElemTypes: callElems,
			Comment:   fmt.Sprintf("%s.%s rendezvous: sender plus arguments", c.Name, fn.Name),
		},
		promela.ChanDecl{
			Name:      retChan(c, fn.Name),
			ElemTypes: retElems,
		},
	)

	b.model.Defines = append(b.model.Defines, promela.Define{
		Name:    sigDefine(c, fn.Name),
		Value:   Selector(fn),
		Comment: "first four bytes of " + CanonicalSignature(fn),
	})
	return nil
}

// ensureStructTypedef emits the typedef for a struct descriptor once.
// Struct fields must themselves be scalar or fixed-string; nested
// collections inside structs have no mapping.
func (b *builder) ensureStructTypedef(c *ir.Contract, desc *types.Descriptor, pos ast.Position) (string, error) {
	tname := c.Name + "_" + desc.Name
	if b.typedefSeen[tname] {
		return tname, nil
	}
	fields := make([]promela.VarDecl, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		switch {
		case f.Type.Scalar():
			fields = append(fields, promela.VarDecl{Name: f.Name, Type: f.Type.PromelaType()})
		case f.Type.Kind == types.FixedString:
			fields = append(fields, promela.VarDecl{Name: f.Name, Type: "byte", ArrayLen: f.Type.MaxBytes})
		default:
			return "", errors.NewUnsupportedConstruct(
				fmt.Sprintf("struct field %s.%s of kind %s", desc.Name, f.Name, f.Type.Kind), pos)
		}
	}
	b.typedefSeen[tname] = true
	b.model.Typedefs = append(b.model.Typedefs, promela.Typedef{
		Name:    tname,
		Fields:  fields,
		Comment: "struct " + desc.Name,
	})
	return tname, nil
}

// ensureArrayTypedef emits the bounded-array typedef for a descriptor once
func (b *builder) ensureArrayTypedef(desc *types.Descriptor, pos ast.Position) (string, error) {
	if !desc.Elem.Scalar() {
		return "", errors.NewUnsupportedConstruct("array of non-scalar elements", pos)
	}
	elem := desc.Elem.PromelaType()
	tname := fmt.Sprintf("Arr_%s_%d", elem, desc.MaxLen)
	if b.typedefSeen[tname] {
		return tname, nil
	}
	b.typedefSeen[tname] = true
	b.model.Typedefs = append(b.model.Typedefs, promela.Typedef{
		Name: tname,
		Fields: []promela.VarDecl{
			{Name: "elements", Type: elem, ArrayLen: desc.MaxLen},
			{Name: "length", Type: "byte"},
		},
		Comment: fmt.Sprintf("dynamic array bounded at %d elements", desc.MaxLen),
	})
	return tname, nil
}

// ensureMappingTypedef emits the bounded-mapping typedef and its linear-scan
// accessor inlines once per (key, value, bound) shape
func (b *builder) ensureMappingTypedef(desc *types.Descriptor, pos ast.Position) (string, error) {
	if !desc.Key.Scalar() {
		return "", errors.NewUnsupportedConstruct("mapping with non-scalar key", pos)
	}
	if !desc.Value.Scalar() {
		return "", errors.NewUnsupportedConstruct("mapping with non-scalar value", pos)
	}

	kt := desc.Key.PromelaType()
	vt := desc.Value.PromelaType()
	tname := fmt.Sprintf("Map_%s_%s_%d", kt, vt, desc.MaxEntries)
	if b.typedefSeen[tname] {
		return tname, nil
	}
	b.typedefSeen[tname] = true
	b.usesMapping = true

	b.model.Typedefs = append(b.model.Typedefs, promela.Typedef{
		Name: tname,
		Fields: []promela.VarDecl{
			{Name: "keys", Type: kt, ArrayLen: desc.MaxEntries},
			{Name: "vals", Type: vt, ArrayLen: desc.MaxEntries},
			{Name: "size", Type: "byte"},
		},
		Comment: fmt.Sprintf("mapping bounded at %d entries", desc.MaxEntries),
	})

	b.model.Inlines = append(b.model.Inlines,
		b.mappingGetInline(tname, desc),
		b.mappingSetInline(tname, desc),
	)
	return tname, nil
}

func (b *builder) mappingGetInline(tname string, desc *types.Descriptor) promela.Inline {
	return promela.Inline{
		Name:    tname + "_get",
		Params:  []string{"m", "k", "out"},
		Comment: "get: absent keys read as the value type's zero",
		Body: []promela.Stmt{
			&promela.Assign{Lhs: "out", Rhs: desc.Value.ZeroValue()},
			&promela.Assign{Lhs: "map_i", Rhs: "0"},
			&promela.Do{Branches: []promela.Branch{
				{Guard: "(map_i < m.size)", Body: []promela.Stmt{
					&promela.If{Branches: []promela.Branch{
						{Guard: "(m.keys[map_i] == k)", Body: []promela.Stmt{
							&promela.Assign{Lhs: "out", Rhs: "m.vals[map_i]"},
							&promela.Break{},
						}},
						{Guard: "else", Body: []promela.Stmt{
							&promela.Assign{Lhs: "map_i", Rhs: "map_i + 1"},
						}},
					}},
				}},
				{Guard: "else", Body: []promela.Stmt{&promela.Break{}}},
			}},
		},
	}
}

func (b *builder) mappingSetInline(tname string, desc *types.Descriptor) promela.Inline {
	overflow := b.overflowStmts()
	return promela.Inline{
		Name:    tname + "_set",
		Params:  []string{"m", "k", "v"},
		Comment: "set: updates in place, inserts while below the bound",
		Body: []promela.Stmt{
			&promela.Assign{Lhs: "map_i", Rhs: "0"},
			&promela.Do{Branches: []promela.Branch{
				{Guard: "(map_i < m.size)", Body: []promela.Stmt{
					&promela.If{Branches: []promela.Branch{
						{Guard: "(m.keys[map_i] == k)", Body: []promela.Stmt{
							&promela.Assign{Lhs: "m.vals[map_i]", Rhs: "v"},
							&promela.Break{},
						}},
						{Guard: "else", Body: []promela.Stmt{
							&promela.Assign{Lhs: "map_i", Rhs: "map_i + 1"},
						}},
					}},
				}},
				{Guard: "else", Body: []promela.Stmt{&promela.Break{}}},
			}},
			&promela.If{Branches: []promela.Branch{
				{Guard: "(map_i < m.size)", Body: []promela.Stmt{&promela.Skip{}}},
				{Guard: "else", Body: []promela.Stmt{
					&promela.If{Branches: []promela.Branch{
						{Guard: fmt.Sprintf("(m.size < %d)", desc.MaxEntries), Body: []promela.Stmt{
							&promela.Assign{Lhs: "m.keys[m.size]", Rhs: "k"},
							&promela.Assign{Lhs: "m.vals[m.size]", Rhs: "v"},
							&promela.Assign{Lhs: "m.size", Rhs: "m.size + 1"},
						}},
						{Guard: "else", Body: overflow},
					}},
				}},
			}},
		},
	}
}

// overflowStmts renders the configured bound-violation behavior: reject
// blocks the transition, saturate drops the value
func (b *builder) overflowStmts() []promela.Stmt {
	if b.cfg.ArrayOverflowPolicy == config.OverflowSaturate {
		return []promela.Stmt{
			&promela.Comment{Text: "bound reached: value dropped"},
			&promela.Skip{},
		}
	}
	return []promela.Stmt{
		&promela.Comment{Text: "bound reached: no transition"},
		&promela.Expr{Text: "false"},
	}
}

// procScope carries the per-proctype local declarations and label counter
type procScope struct {
	b        *builder
	contract *ir.Contract
	locals   []promela.VarDecl
	declared map[string]bool
	labelN   int
}

func (ps *procScope) addLocal(name, ptype string) {
	if ps.declared[name] {
		return
	}
	ps.declared[name] = true
	ps.locals = append(ps.locals, promela.VarDecl{Name: name, Type: ptype})
}

// buildContractProcess translates one contract into its serving process:
// optional constructor body, then a do loop with one receive/translate/reply
// branch per externally visible function.
func (b *builder) buildContractProcess(c *ir.Contract) (*promela.Proctype, error) {
	ps := &procScope{b: b, contract: c, declared: make(map[string]bool)}
	ps.addLocal("msg_sender", "byte")
	ps.addLocal("msg_sig", "int")

	var body []promela.Stmt
	var params []promela.VarDecl

	if ctor := c.Constructor(); ctor != nil {
		for _, p := range ctor.Params {
			if !p.Type.Scalar() {
				return nil, errors.NewUnsupportedConstruct(
					"non-scalar constructor parameter "+p.Name, ctor.Pos)
			}
			params = append(params, promela.VarDecl{Name: "ctor_" + p.Name, Type: p.Type.PromelaType()})
		}

		scope := newFnScope(ps, ctor, "ctor", 0)
		for i, p := range ctor.Params {
			scope.vars[p.Name] = &varBinding{name: params[i].Name, desc: p.Type}
		}
		scope.retLabel = "ctor_done"

		ctorBody, err := scope.block(ctor.Body)
		if err != nil {
			return nil, err
		}
		body = append(body, &promela.Comment{Text: "constructor"})
		body = append(body, ctorBody...)
		body = append(body, &promela.Label{Name: "ctor_done"}, &promela.Skip{})
	}

	var branches []promela.Branch
	for _, fn := range c.ExternalFunctions() {
		branch, err := b.translateFunctionBranch(ps, c, fn)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	if len(branches) > 0 {
		body = append(body, &promela.Do{Branches: branches})
	}
	if len(body) == 0 {
		body = append(body, &promela.Skip{})
	}

	return &promela.Proctype{
		Name:    c.Name,
		Params:  params,
		Locals:  ps.locals,
		Body:    body,
		Comment: fmt.Sprintf("contract %s at address %d", c.Name, c.Address),
	}, nil
}

// translateFunctionBranch builds one serve branch: block on the call
// channel, run the translated body, reply on the result channel. Every path
// reaches the reply except require/assert dead ends.
func (b *builder) translateFunctionBranch(ps *procScope, c *ir.Contract, fn *ir.FunctionSignature) (promela.Branch, error) {
	scope := newFnScope(ps, fn, fn.Name, 0)

	recvArgs := []string{"msg_sender"}
	for _, p := range fn.Params {
		local := fn.Name + "_" + p.Name
		ps.addLocal(local, p.Type.PromelaType())
		scope.vars[p.Name] = &varBinding{name: local, desc: p.Type}
		recvArgs = append(recvArgs, local)
	}

	body := []promela.Stmt{
		&promela.Assign{Lhs: "msg_sig", Rhs: sigDefine(c, fn.Name)},
	}

	replyValue := "0"
	if fn.Return != nil {
		rv := fn.Name + "_rv"
		ps.addLocal(rv, fn.Return.PromelaType())
		scope.retVar = rv
		replyValue = rv
		// locals persist across serve iterations; reset the reply value
		body = append(body, &promela.Assign{Lhs: rv, Rhs: fn.Return.ZeroValue()})
	}
	scope.retLabel = fn.Name + "_done"

	translated, err := scope.block(fn.Body)
	if err != nil {
		return promela.Branch{}, err
	}
	body = append(body, translated...)
	body = append(body,
		&promela.Label{Name: scope.retLabel},
		&promela.Send{Chan: retChan(c, fn.Name), Args: []string{replyValue}},
	)

	return promela.Branch{
		Guard: fmt.Sprintf("%s ? %s", callChan(c, fn.Name), strings.Join(recvArgs, ", ")),
		Body:  body,
	}, nil
}
