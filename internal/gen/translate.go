// Package gen turns normalized contracts into a PROMELA model. Generation
// is all or nothing: the first unsupported construct, unresolved bound, or
// invalid agent configuration aborts with no partial model, while every
// fidelity-reducing substitution that does go through lands in the ledger.
package gen

import (
	"solspin/internal/ast"
	"solspin/internal/config"
	"solspin/internal/ir"
	"solspin/internal/ledger"
	"solspin/internal/promela"
)

// Translate runs the full pipeline over parsed contracts: configuration
// validation, normalization, then model construction. The first contract is
// primary; the returned ledger holds every abstraction applied on the way.
func Translate(contracts []*ast.Contract, cfg *config.Config) (*promela.Model, *ledger.Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	led := ledger.New()
	program, err := ir.Normalize(contracts, cfg, led)
	if err != nil {
		return nil, nil, err
	}

	model, err := newBuilder(program, cfg, led).Build()
	if err != nil {
		return nil, nil, err
	}
	return model, led, nil
}

// Emit renders a built model to its deterministic textual form
func Emit(model *promela.Model) string {
	return promela.Print(model)
}
