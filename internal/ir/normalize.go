package ir

import (
	"solspin/internal/ast"
	"solspin/internal/config"
	"solspin/internal/errors"
	"solspin/internal/ledger"
	"solspin/internal/types"
)

// Normalize resolves every type reference in the parsed contracts and builds
// the read-only Program the generator consumes. The ledger is threaded in
// from the pipeline so width fallbacks made here are recorded alongside the
// later stages' entries.
func Normalize(contracts []*ast.Contract, cfg *config.Config, led *ledger.Ledger) (*Program, error) {
	if len(contracts) == 0 {
		return nil, errors.NewInputError("no contract definitions in input")
	}

	program := &Program{addresses: make(map[string]int)}

	// contract addresses live above the agent address domain so the two
	// spaces never collide
	nextAddr := 1
	for _, a := range cfg.AgentAddresses {
		if a >= nextAddr {
			nextAddr = a + 1
		}
	}

	for _, src := range contracts {
		mapper := types.NewMapper(cfg, led)
		mapper.RegisterDeclarations(src)

		contract, err := normalizeContract(src, mapper)
		if err != nil {
			return nil, err
		}
		// addresses travel in byte channel slots and 255 is the lock
		// sentinel, so the space ends at 254
		if nextAddr > 254 {
			return nil, errors.NewConfigError(
				"no address left for contract %q: agent addresses and earlier contracts exhaust the 1..254 range", src.Name)
		}
		contract.Address = nextAddr
		contract.Mapper = mapper
		nextAddr++

		program.addresses[contract.Name] = contract.Address
		program.Contracts = append(program.Contracts, contract)
	}

	return program, nil
}

func normalizeContract(src *ast.Contract, mapper *types.Mapper) (*Contract, error) {
	contract := &Contract{
		Pos:  src.Pos,
		Name: src.Name,
	}

	for _, item := range src.Items {
		switch node := item.(type) {
		case *ast.StateVariable:
			desc, err := mapper.Map(node.Type, node.Name)
			if err != nil {
				return nil, err
			}
			contract.StateVars = append(contract.StateVars, StateVar{
				Pos:  node.Pos,
				Name: node.Name,
				Type: desc,
			})

		case *ast.Function:
			sig, err := normalizeFunction(node, mapper)
			if err != nil {
				return nil, err
			}
			contract.Functions = append(contract.Functions, sig)

		case *ast.EnumDef:
			values := make([]string, len(node.Values))
			copy(values, node.Values)
			contract.Enums = append(contract.Enums, EnumDecl{
				Pos:    node.Pos,
				Name:   node.Name,
				Values: values,
			})

		case *ast.StructDef:
			desc, err := mapper.Map(&ast.NamedType{Pos: node.Pos, Name: node.Name}, node.Name)
			if err != nil {
				return nil, err
			}
			contract.Structs = append(contract.Structs, StructDecl{
				Pos:  node.Pos,
				Name: node.Name,
				Type: desc,
			})

		case *ast.EventDef:
			desc, err := mapper.MapEvent(node)
			if err != nil {
				return nil, err
			}
			contract.Events = append(contract.Events, EventDecl{
				Pos:  node.Pos,
				Name: node.Name,
				Type: desc,
			})

		default:
			return nil, errors.NewUnsupportedConstruct(item.NodeKind().String(), item.NodePos())
		}
	}

	return contract, nil
}

func normalizeFunction(fn *ast.Function, mapper *types.Mapper) (*FunctionSignature, error) {
	switch fn.Visibility {
	case "public", "external", "internal", "private":
	case "":
		if !fn.Constructor {
			return nil, errors.NewUnsupportedConstruct("function without visibility", fn.Pos)
		}
	default:
		return nil, errors.NewUnsupportedConstruct("visibility "+fn.Visibility, fn.Pos)
	}

	sig := &FunctionSignature{
		Pos:         fn.Pos,
		Name:        fn.Name,
		Visibility:  fn.Visibility,
		External:    fn.External(),
		Constructor: fn.Constructor,
		Body:        fn.Body,
	}

	for _, p := range fn.Params {
		desc, err := mapper.Map(p.Type, fn.Name+"."+p.Name)
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, Param{Name: p.Name, Type: desc})
	}

	if fn.Returns != nil {
		desc, err := mapper.Map(fn.Returns, fn.Name+".return")
		if err != nil {
			return nil, err
		}
		sig.Return = desc
	}

	return sig, nil
}
