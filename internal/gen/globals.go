package gen

import (
	"fmt"

	"solspin/internal/errors"
	"solspin/internal/promela"
)

// uniformStmtCost is the flat per-statement gas estimate behind the
// exploration depth hint
const uniformStmtCost = 3

// declareEnvironment emits the chain environment shared by every process:
// the transaction lock, the monotonic block clock, and the constants the
// model never varies
func (b *builder) declareEnvironment() {
	cfg := b.cfg
	b.model.Defines = append(b.model.Defines,
		promela.Define{Name: "LOCK_IDLE", Value: "255", Comment: "no transaction in flight"},
		promela.Define{Name: "BLOCK_COINBASE", Value: "0"},
		promela.Define{Name: "BLOCK_GASLIMIT", Value: fmt.Sprintf("%d", cfg.GasLimit)},
		promela.Define{Name: "TX_GASPRICE", Value: fmt.Sprintf("%d", cfg.TxGasPrice)},
		promela.Define{
			Name:    "DEPTH_HINT",
			Value:   fmt.Sprintf("%d", cfg.GasLimit/uniformStmtCost),
			Comment: "suggested search depth; never enforced during generation",
		},
	)

	b.model.Globals = append(b.model.Globals,
		promela.VarDecl{
			Name: "lock_holder", Type: "byte", Init: "LOCK_IDLE",
			Comment: "agent id of the transaction in flight; one transaction at a time",
		},
		promela.VarDecl{Name: "block_number", Type: "int", Init: "1"},
		promela.VarDecl{Name: "block_timestamp", Type: "int", Init: "1"},
		promela.VarDecl{Name: "block_difficulty", Type: "int", Comment: "drawn once at startup"},
		promela.VarDecl{Name: "tx_origin", Type: "byte"},
	)
}

// buildInit assembles the startup process: draw the difficulty, start every
// contract that is not created at runtime, start the agents. Everything is
// atomic so no transaction observes a half-started world.
func (b *builder) buildInit() error {
	dom, err := b.cfg.ParseDifficultyDomain()
	if err != nil {
		return err
	}

	var body []promela.Stmt
	if len(dom.Values) == 1 {
		body = append(body, &promela.Assign{
			Lhs: "block_difficulty", Rhs: fmt.Sprintf("%d", dom.Values[0]),
		})
	} else {
		var branches []promela.Branch
		for _, v := range dom.Values {
			branches = append(branches, promela.Branch{
				Guard: fmt.Sprintf("block_difficulty = %d", v),
			})
		}
		body = append(body, &promela.If{Branches: branches})
	}

	for _, c := range b.program.Contracts {
		if b.spawned[c.Name] {
			continue
		}
		if ctor := c.Constructor(); ctor != nil && len(ctor.Params) > 0 {
			return errors.NewUnsupportedConstruct(
				fmt.Sprintf("contract %s needs constructor arguments but is never created at runtime", c.Name),
				c.Pos)
		}
		body = append(body, &promela.Run{Proc: c.Name})
	}

	for i := 0; i < b.cfg.AgentCount; i++ {
		body = append(body, &promela.Run{
			Proc: agentProcName,
			Args: []string{fmt.Sprintf("%d", i), fmt.Sprintf("%d", b.cfg.AgentAddresses[i])},
		})
	}

	b.model.Init = &promela.Init{Body: []promela.Stmt{&promela.Atomic{Body: body}}}
	return nil
}
