package gen

import (
	"fmt"

	"solspin/internal/errors"
	"solspin/internal/promela"
)

const agentProcName = "Agent"

// validateAgents checks everything synthesis depends on: a positive agent
// count, one distinct address per agent outside the reserved range, and a
// non-empty value domain for every argument of every externally visible
// function of the primary contract.
func (b *builder) validateAgents() error {
	cfg := b.cfg
	if cfg.AgentCount < 1 {
		return errors.NewInvalidAgentConfig("agentCount must be at least 1; got %d", cfg.AgentCount)
	}
	if len(cfg.AgentAddresses) != cfg.AgentCount {
		return errors.NewInvalidAgentConfig(
			"agentAddresses has %d entries for %d agents", len(cfg.AgentAddresses), cfg.AgentCount)
	}
	seen := make(map[int]bool)
	for _, a := range cfg.AgentAddresses {
		if a < 1 || a > 254 {
			return errors.NewInvalidAgentConfig("agent address %d outside 1..254", a)
		}
		if seen[a] {
			return errors.NewInvalidAgentConfig("agent address %d assigned twice", a)
		}
		seen[a] = true
	}

	primary := b.program.Primary()
	for _, fn := range primary.ExternalFunctions() {
		for i, p := range fn.Params {
			dom, ok, err := cfg.ArgumentDomain(fn.Name, i)
			if err != nil {
				return errors.NewInvalidAgentConfig(
					"domain for %s argument %d (%s): %v", fn.Name, i, p.Name, err)
			}
			if !ok {
				return errors.NewInvalidAgentConfig(
					"no value domain configured for %s argument %d (%s)", fn.Name, i, p.Name)
			}
			if dom.Empty() {
				return errors.NewInvalidAgentConfig(
					"empty value domain for %s argument %d (%s)", fn.Name, i, p.Name)
			}
		}
	}
	return nil
}

// buildAgents synthesizes the caller process and registers one instance per
// configured agent. Each iteration is one transaction: take the lock, pick
// a function and arguments nondeterministically, complete the rendezvous,
// release, then let the chain advance.
func (b *builder) buildAgents() error {
	if err := b.validateAgents(); err != nil {
		return err
	}

	primary := b.program.Primary()
	fns := primary.ExternalFunctions()

	var locals []promela.VarDecl
	var choices []promela.Branch

	for _, fn := range fns {
		callArgs := []string{"addr"}
		var argChoices []promela.Stmt

		for i, p := range fn.Params {
			dom, _, err := b.cfg.ArgumentDomain(fn.Name, i)
			if err != nil {
				return err
			}
			local := fmt.Sprintf("a_%s_%s", fn.Name, p.Name)
			locals = append(locals, promela.VarDecl{Name: local, Type: p.Type.PromelaType()})
			callArgs = append(callArgs, local)

			var pick []promela.Branch
			for _, v := range dom.Values {
				pick = append(pick, promela.Branch{Guard: fmt.Sprintf("%s = %d", local, v)})
			}
			argChoices = append(argChoices, &promela.If{Branches: pick})
		}

		ret := "r_" + fn.Name
		retType := "byte"
		if fn.Return != nil {
			retType = fn.Return.PromelaType()
		}
		locals = append(locals, promela.VarDecl{Name: ret, Type: retType})

		body := append([]promela.Stmt{&promela.Comment{Text: "transaction: " + fn.Name}}, argChoices...)
		body = append(body,
			&promela.Send{Chan: callChan(primary, fn.Name), Args: callArgs},
			&promela.Recv{Chan: retChan(primary, fn.Name), Args: []string{ret}},
		)
		choices = append(choices, promela.Branch{Guard: "true", Body: body})
	}

	loop := []promela.Stmt{
		&promela.Atomic{Body: []promela.Stmt{
			&promela.Expr{Text: "(lock_holder == LOCK_IDLE)"},
			&promela.Assign{Lhs: "lock_holder", Rhs: "id"},
		}},
		&promela.Assign{Lhs: "tx_origin", Rhs: "addr"},
	}
	if len(choices) > 0 {
		loop = append(loop, &promela.If{Branches: choices})
	}
	loop = append(loop,
		&promela.Assign{Lhs: "lock_holder", Rhs: "LOCK_IDLE"},
		// the chain advances between transactions, never mid-transaction
		&promela.Atomic{Body: []promela.Stmt{
			&promela.If{Branches: []promela.Branch{
				{Guard: "block_number = block_number + 1"},
				{Guard: "block_number = block_number + 2"},
			}},
			&promela.If{Branches: []promela.Branch{
				{Guard: "block_timestamp = block_timestamp + 1"},
				{Guard: "block_timestamp = block_timestamp + 2"},
			}},
		}},
	)

	b.model.Procs = append(b.model.Procs, &promela.Proctype{
		Name: agentProcName,
		Params: []promela.VarDecl{
			{Name: "id", Type: "byte"},
			{Name: "addr", Type: "byte"},
		},
		Locals:  locals,
		Body:    []promela.Stmt{&promela.Do{Branches: []promela.Branch{{Guard: "true", Body: loop}}}},
		Comment: "synthesized caller: one instance per configured agent",
	})
	return nil
}
