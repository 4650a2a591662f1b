package gen

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solspin/internal/ast"
	"solspin/internal/config"
	"solspin/internal/errors"
	"solspin/internal/ledger"
	"solspin/internal/promela"
)

func elem(name string) *ast.ElementaryType {
	return &ast.ElementaryType{Name: name}
}

func ident(name string) *ast.IdentExpr {
	return &ast.IdentExpr{Name: name}
}

func lit(v string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Value: v}
}

func body(stmts ...ast.Stmt) *ast.Block {
	return &ast.Block{Stmts: stmts}
}

// counterContract is the smallest interesting input: one byte of state and
// one public mutator
func counterContract() *ast.Contract {
	return &ast.Contract{
		Name: "Counter",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "value", Type: elem("uint8")},
			&ast.Function{
				Name:       "add",
				Visibility: "public",
				Params:     []*ast.Param{{Name: "x", Type: elem("uint8")}},
				Body: body(
					&ast.AssignStmt{Target: ident("value"), Op: "+=", Value: ident("x")},
				),
			},
		},
	}
}

func counterConfig() *config.Config {
	cfg := config.Default()
	cfg.SetArgumentDomain("add", 0, "{0,1,2}")
	return cfg
}

func translateOne(t *testing.T, c *ast.Contract, cfg *config.Config) (*promela.Model, *ledger.Ledger, string) {
	t.Helper()
	model, led, err := Translate([]*ast.Contract{c}, cfg)
	require.NoError(t, err)
	return model, led, Emit(model)
}

func TestTranslateCounter(t *testing.T) {
	model, led, out := translateOne(t, counterContract(), counterConfig())

	// one contract process plus the agent template
	require.Len(t, model.Procs, 2)
	assert.Equal(t, "Counter", model.Procs[0].Name)
	assert.Equal(t, "Agent", model.Procs[1].Name)

	// exactly one channel pair for the one external function
	require.Len(t, model.Channels, 2)
	assert.Equal(t, "Counter_add_call", model.Channels[0].Name)
	assert.Equal(t, []string{"byte", "byte"}, model.Channels[0].ElemTypes)
	assert.Equal(t, "Counter_add_ret", model.Channels[1].Name)

	// agent addresses 1 and 2 are taken, the contract lands above them
	assert.Contains(t, out, "#define ADDR_Counter 3")
	assert.Contains(t, out, "byte Counter_value;")
	assert.Contains(t, out, ":: Counter_add_call ? msg_sender, add_x ->")
	assert.Contains(t, out, "msg_sig = SIG_Counter_add;")
	assert.Contains(t, out, "Counter_value = Counter_value + add_x;")
	assert.Contains(t, out, "add_done:")
	assert.Contains(t, out, "Counter_add_ret ! 0;")

	// nothing in this contract forces an approximation
	assert.Zero(t, led.Len())
}

func TestTranslateIsDeterministic(t *testing.T) {
	_, _, first := translateOne(t, counterContract(), counterConfig())
	_, _, second := translateOne(t, counterContract(), counterConfig())
	assert.Equal(t, first, second)
}

func TestAgentSynthesis(t *testing.T) {
	_, _, out := translateOne(t, counterContract(), counterConfig())

	assert.Contains(t, out, "proctype Agent(byte id; byte addr) {")
	assert.Contains(t, out, "(lock_holder == LOCK_IDLE);")
	assert.Contains(t, out, "lock_holder = id;")
	assert.Contains(t, out, "tx_origin = addr;")
	assert.Contains(t, out, "lock_holder = LOCK_IDLE;")

	// one choice branch per domain value
	assert.Contains(t, out, ":: a_add_x = 0 ->")
	assert.Contains(t, out, ":: a_add_x = 1 ->")
	assert.Contains(t, out, ":: a_add_x = 2 ->")
	assert.Contains(t, out, "Counter_add_call ! addr, a_add_x;")
	assert.Contains(t, out, "Counter_add_ret ? r_add;")

	// the chain clock only moves between transactions
	assert.Contains(t, out, "block_number = block_number + 1")
	assert.Contains(t, out, "block_timestamp = block_timestamp + 2")
}

func TestInitRunsContractAndAgents(t *testing.T) {
	model, _, out := translateOne(t, counterContract(), counterConfig())

	require.NotNil(t, model.Init)
	assert.Contains(t, out, "run Counter();")
	assert.Contains(t, out, "run Agent(0, 1);")
	assert.Contains(t, out, "run Agent(1, 2);")

	// default difficulty domain is {0,1}
	assert.Contains(t, out, ":: block_difficulty = 0 ->")
	assert.Contains(t, out, ":: block_difficulty = 1 ->")
}

func TestMissingDomainIsFatal(t *testing.T) {
	_, _, err := Translate([]*ast.Contract{counterContract()}, config.Default())
	require.Error(t, err)

	var agentErr *errors.InvalidAgentConfigError
	require.True(t, stderrors.As(err, &agentErr))
	assert.Contains(t, err.Error(), "add")
}

func TestAgentConfigRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero agents", func(c *config.Config) { c.AgentCount = 0; c.AgentAddresses = nil }},
		{"address count mismatch", func(c *config.Config) { c.AgentAddresses = []int{1} }},
		{"duplicate address", func(c *config.Config) { c.AgentAddresses = []int{4, 4} }},
		{"address out of range", func(c *config.Config) { c.AgentAddresses = []int{1, 255} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := counterConfig()
			tt.mutate(cfg)
			_, _, err := Translate([]*ast.Contract{counterContract()}, cfg)
			var agentErr *errors.InvalidAgentConfigError
			require.True(t, stderrors.As(err, &agentErr), "got %v", err)
		})
	}
}

func TestRequireBecomesDeadEnd(t *testing.T) {
	c := &ast.Contract{
		Name: "Vault",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "owner", Type: elem("address")},
			&ast.Function{
				Name:       "withdraw",
				Visibility: "public",
				Body: body(
					&ast.RequireStmt{Cond: &ast.BinaryExpr{
						Op:    "==",
						Left:  &ast.MemberExpr{Target: ident("msg"), Field: "sender"},
						Right: ident("owner"),
					}},
				),
			},
		},
	}
	_, _, out := translateOne(t, c, config.Default())

	assert.Contains(t, out, ":: (msg_sender == Vault_owner) ->")
	assert.Contains(t, out, "/* requirement failed: dead end */")
	assert.Contains(t, out, "false;")
}

func TestReturnValueFlowsThroughRetChannel(t *testing.T) {
	c := &ast.Contract{
		Name: "Counter",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "value", Type: elem("uint8")},
			&ast.Function{
				Name:       "get",
				Visibility: "external",
				Returns:    elem("uint8"),
				Body:       body(&ast.ReturnStmt{Value: ident("value")}),
			},
		},
	}
	model, _, out := translateOne(t, c, config.Default())

	assert.Equal(t, []string{"byte"}, model.Channels[1].ElemTypes)
	assert.Contains(t, out, "get_rv = Counter_value;")
	assert.Contains(t, out, "goto get_done;")
	assert.Contains(t, out, "get_done:")
	assert.Contains(t, out, "Counter_get_ret ! get_rv;")
}

func TestMappingAccessors(t *testing.T) {
	cfg := config.Default()
	cfg.SetArgumentDomain("balance_of", 0, "{1,2}")
	cfg.SetArgumentDomain("credit", 0, "{1,2}")

	c := &ast.Contract{
		Name: "Bank",
		Items: []ast.ContractItem{
			&ast.StateVariable{
				Name: "balances",
				Type: &ast.MappingType{Key: elem("address"), Value: elem("uint8")},
			},
			&ast.Function{
				Name:       "balance_of",
				Visibility: "public",
				Params:     []*ast.Param{{Name: "who", Type: elem("address")}},
				Returns:    elem("uint8"),
				Body: body(&ast.ReturnStmt{
					Value: &ast.IndexExpr{Target: ident("balances"), Key: ident("who")},
				}),
			},
			&ast.Function{
				Name:       "credit",
				Visibility: "public",
				Params:     []*ast.Param{{Name: "who", Type: elem("address")}},
				Body: body(&ast.AssignStmt{
					Target: &ast.IndexExpr{Target: ident("balances"), Key: ident("who")},
					Op:     "+=",
					Value:  lit("1"),
				}),
			},
		},
	}
	_, led, out := translateOne(t, c, cfg)

	assert.Contains(t, out, "typedef Map_byte_byte_4 {")
	assert.Contains(t, out, "byte map_i;")
	assert.Contains(t, out, "Map_byte_byte_4_get(Bank_balances, balance_of_who, balance_of_t1);")
	assert.Contains(t, out, "get: absent keys read as the value type's zero")
	// compound update reads the current value first
	assert.Contains(t, out, "Map_byte_byte_4_get(Bank_balances, credit_who, credit_t1);")
	assert.Contains(t, out, "Map_byte_byte_4_set(Bank_balances, credit_who, (credit_t1 + 1));")

	// bounded access with the default policy is not an approximation
	assert.Zero(t, led.Len())
}

func TestArrayPushPolicies(t *testing.T) {
	build := func(policy config.OverflowPolicy) (string, *ledger.Ledger) {
		cfg := config.Default()
		cfg.ArrayOverflowPolicy = policy
		cfg.SetArgumentDomain("join", 0, "{1,2}")
		c := &ast.Contract{
			Name: "Club",
			Items: []ast.ContractItem{
				&ast.StateVariable{Name: "members", Type: &ast.ArrayType{Elem: elem("address")}},
				&ast.Function{
					Name:       "join",
					Visibility: "public",
					Params:     []*ast.Param{{Name: "who", Type: elem("address")}},
					Body: body(&ast.ExprStmt{X: &ast.CallExpr{
						Callee: &ast.MemberExpr{Target: ident("members"), Field: "push"},
						Args:   []ast.Expr{ident("who")},
					}}),
				},
			},
		}
		_, led, out := translateOne(t, c, cfg)
		return out, led
	}

	rejectOut, rejectLed := build(config.OverflowReject)
	assert.Contains(t, rejectOut, ":: (Club_members.length < 4) ->")
	assert.Contains(t, rejectOut, "Club_members.elements[Club_members.length] = join_who;")
	assert.Contains(t, rejectOut, "/* bound reached: no transition */")
	assert.Zero(t, rejectLed.Len())

	saturateOut, saturateLed := build(config.OverflowSaturate)
	assert.Contains(t, saturateOut, "/* bound reached: value dropped */")
	assert.Equal(t, 1, saturateLed.CountByCategory(ledger.OverflowPolicyAbstraction))
}

func TestWhileLoopIsBounded(t *testing.T) {
	c := &ast.Contract{
		Name: "Miner",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "nonce", Type: elem("uint8")},
			&ast.Function{
				Name:       "spin",
				Visibility: "public",
				Body: body(&ast.WhileStmt{
					Cond: &ast.BinaryExpr{Op: "<", Left: ident("nonce"), Right: lit("200")},
					Body: body(&ast.AssignStmt{Target: ident("nonce"), Op: "+=", Value: lit("1")}),
				}),
			},
		},
	}
	_, led, out := translateOne(t, c, config.Default())

	require.Equal(t, 1, led.CountByCategory(ledger.LoopBoundAbstraction))
	assert.Contains(t, led.Records()[0].Description, "8 iterations")
	assert.Contains(t, out, ":: ((Miner_nonce < 200) && spin_t1 < 8) ->")
}

func TestCountingForLoopNeedsNoBound(t *testing.T) {
	c := &ast.Contract{
		Name: "Sum",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "acc", Type: elem("uint8")},
			&ast.Function{
				Name:       "run",
				Visibility: "public",
				Body: body(&ast.ForStmt{
					Init: &ast.VarDeclStmt{Name: "i", Type: elem("uint8"), Value: lit("0")},
					Cond: &ast.BinaryExpr{Op: "<", Left: ident("i"), Right: lit("3")},
					Post: &ast.AssignStmt{Target: ident("i"), Op: "+=", Value: lit("1")},
					Body: body(&ast.AssignStmt{Target: ident("acc"), Op: "+=", Value: ident("i")}),
				}),
			},
		},
	}
	_, led, out := translateOne(t, c, config.Default())

	assert.Zero(t, led.CountByCategory(ledger.LoopBoundAbstraction))
	assert.Contains(t, out, ":: (run_i < 3) ->")
}

func TestForLoopWithMutatedCounterIsBounded(t *testing.T) {
	c := &ast.Contract{
		Name: "Odd",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "acc", Type: elem("uint8")},
			&ast.Function{
				Name:       "run",
				Visibility: "public",
				Body: body(&ast.ForStmt{
					Init: &ast.VarDeclStmt{Name: "i", Type: elem("uint8"), Value: lit("0")},
					Cond: &ast.BinaryExpr{Op: "<", Left: ident("i"), Right: lit("3")},
					Post: &ast.AssignStmt{Target: ident("i"), Op: "+=", Value: lit("1")},
					Body: body(&ast.AssignStmt{Target: ident("i"), Op: "=", Value: lit("0")}),
				}),
			},
		},
	}
	_, led, _ := translateOne(t, c, config.Default())
	assert.Equal(t, 1, led.CountByCategory(ledger.LoopBoundAbstraction))
}

func TestConditionlessForLoopIsBounded(t *testing.T) {
	c := &ast.Contract{
		Name: "Pump",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "acc", Type: elem("uint8")},
			&ast.Function{
				Name:       "run",
				Visibility: "public",
				Body: body(&ast.ForStmt{
					Body: body(&ast.AssignStmt{Target: ident("acc"), Op: "+=", Value: lit("1")}),
				}),
			},
		},
	}
	_, led, out := translateOne(t, c, config.Default())

	require.Equal(t, 1, led.CountByCategory(ledger.LoopBoundAbstraction))
	assert.Contains(t, out, ":: (true && run_t1 < 8) ->")
}

func TestInternalCallIsInlined(t *testing.T) {
	c := &ast.Contract{
		Name: "Calc",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "value", Type: elem("uint8")},
			&ast.Function{
				Name:       "double",
				Visibility: "internal",
				Params:     []*ast.Param{{Name: "x", Type: elem("uint8")}},
				Returns:    elem("uint8"),
				Body: body(&ast.ReturnStmt{
					Value: &ast.BinaryExpr{Op: "*", Left: ident("x"), Right: lit("2")},
				}),
			},
			&ast.Function{
				Name:       "bump",
				Visibility: "public",
				Body: body(&ast.AssignStmt{
					Target: ident("value"),
					Op:     "=",
					Value:  &ast.CallExpr{Callee: ident("double"), Args: []ast.Expr{ident("value")}},
				}),
			},
		},
	}
	_, led, out := translateOne(t, c, config.Default())

	assert.Contains(t, out, "/* inlined call to double */")
	assert.Contains(t, out, "goto bump_double1_done;")
	assert.Contains(t, out, "bump_double1_done:")
	assert.Zero(t, led.Len())
}

func TestRecursionHitsCallDepthBound(t *testing.T) {
	cfg := config.Default()
	cfg.CallDepth = 2
	c := &ast.Contract{
		Name: "Loop",
		Items: []ast.ContractItem{
			&ast.Function{
				Name:       "spin",
				Visibility: "public",
				Body:       body(&ast.ExprStmt{X: &ast.CallExpr{Callee: ident("spin")}}),
			},
		},
	}
	_, led, out := translateOne(t, c, cfg)

	assert.Equal(t, 1, led.CountByCategory(ledger.LoopBoundAbstraction))
	assert.Contains(t, out, "/* call depth bound reached: no transition */")
}

func TestEnumAndEventTranslation(t *testing.T) {
	cfg := config.Default()
	cfg.SetArgumentDomain("close", 0, "{0,1}")
	c := &ast.Contract{
		Name: "Sale",
		Items: []ast.ContractItem{
			&ast.EnumDef{Name: "Phase", Values: []string{"Open", "Closed"}},
			&ast.EventDef{Name: "Closed", Fields: []*ast.Param{{Name: "by", Type: elem("address")}}},
			&ast.StateVariable{Name: "phase", Type: &ast.NamedType{Name: "Phase"}},
			&ast.Function{
				Name:       "close",
				Visibility: "public",
				Params:     []*ast.Param{{Name: "hard", Type: elem("bool")}},
				Body: body(
					&ast.AssignStmt{
						Target: ident("phase"),
						Op:     "=",
						Value:  &ast.MemberExpr{Target: ident("Phase"), Field: "Closed"},
					},
					&ast.EmitStmt{
						Event: "Closed",
						Args:  []ast.Expr{&ast.MemberExpr{Target: ident("msg"), Field: "sender"}},
					},
				),
			},
		},
	}
	_, _, out := translateOne(t, c, cfg)

	assert.Contains(t, out, "#define SALE_PHASE_OPEN 0")
	assert.Contains(t, out, "#define SALE_PHASE_CLOSED 1")
	assert.Contains(t, out, "Sale_phase = SALE_PHASE_CLOSED;")
	assert.Contains(t, out, "typedef Evt_Sale_Closed {")
	assert.Contains(t, out, "/* emit Closed */")
	assert.Contains(t, out, "Sale_ev_Closed.count = Sale_ev_Closed.count + 1;")
}

func TestConstructorRunsBeforeServing(t *testing.T) {
	c := &ast.Contract{
		Name: "Owned",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "owner", Type: elem("address")},
			&ast.Function{
				Name:        "constructor",
				Constructor: true,
				Body: body(&ast.AssignStmt{
					Target: ident("owner"),
					Op:     "=",
					Value:  &ast.MemberExpr{Target: ident("msg"), Field: "sender"},
				}),
			},
			&ast.Function{
				Name:       "get",
				Visibility: "public",
				Returns:    elem("address"),
				Body:       body(&ast.ReturnStmt{Value: ident("owner")}),
			},
		},
	}
	_, _, out := translateOne(t, c, config.Default())

	assert.Contains(t, out, "/* constructor */")
	assert.Contains(t, out, "Owned_owner = msg_sender;")

	ctorAt := strings.Index(out, "/* constructor */")
	serveAt := strings.Index(out, ":: Owned_get_call")
	require.True(t, ctorAt >= 0 && serveAt >= 0)
	assert.Less(t, ctorAt, serveAt)
}

func TestCrossContractCall(t *testing.T) {
	cfg := config.Default()
	cfg.SetArgumentDomain("ping", 0, "{1}")

	oracle := &ast.Contract{
		Name: "Oracle",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "price", Type: elem("uint8")},
			&ast.Function{
				Name:       "read",
				Visibility: "external",
				Returns:    elem("uint8"),
				Body:       body(&ast.ReturnStmt{Value: ident("price")}),
			},
		},
	}
	market := &ast.Contract{
		Name: "Market",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "last", Type: elem("uint8")},
			&ast.StateVariable{Name: "oracle", Type: elem("address")},
			&ast.Function{
				Name:       "ping",
				Visibility: "public",
				Params:     []*ast.Param{{Name: "n", Type: elem("uint8")}},
				Body: body(&ast.AssignStmt{
					Target: ident("last"),
					Op:     "=",
					Value: &ast.ExternalCallExpr{
						Contract: "Oracle",
						Address:  ident("oracle"),
						Function: "read",
					},
				}),
			},
		},
	}

	model, _, err := Translate([]*ast.Contract{market, oracle}, cfg)
	require.NoError(t, err)
	out := Emit(model)

	// the primary keeps the first address after the agents
	assert.Contains(t, out, "#define ADDR_Market 3")
	assert.Contains(t, out, "#define ADDR_Oracle 4")

	// the caller identifies itself by its own address constant
	assert.Contains(t, out, "Oracle_read_call ! ADDR_Market;")
	assert.Contains(t, out, "Oracle_read_ret ? ping_t1;")
	assert.Contains(t, out, "Market_last = ping_t1;")

	// both serving processes start at init; agents only drive the primary
	assert.Contains(t, out, "run Market();")
	assert.Contains(t, out, "run Oracle();")
	assert.NotContains(t, out, "a_read_")
}

func TestNewStartsCalleeProcess(t *testing.T) {
	cfg := config.Default()
	cfg.SetArgumentDomain("spawn", 0, "{1}")

	child := &ast.Contract{
		Name: "Child",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "tag", Type: elem("uint8")},
		},
	}
	parent := &ast.Contract{
		Name: "Parent",
		Items: []ast.ContractItem{
			&ast.StateVariable{Name: "childAddr", Type: elem("address")},
			&ast.Function{
				Name:       "spawn",
				Visibility: "public",
				Params:     []*ast.Param{{Name: "n", Type: elem("uint8")}},
				Body: body(&ast.AssignStmt{
					Target: ident("childAddr"),
					Op:     "=",
					Value:  &ast.NewExpr{Contract: "Child"},
				}),
			},
		},
	}

	model, _, err := Translate([]*ast.Contract{parent, child}, cfg)
	require.NoError(t, err)
	out := Emit(model)

	assert.Contains(t, out, "run Child();")
	assert.Contains(t, out, "Parent_childAddr = ADDR_Child;")

	// init must not also start the runtime-created contract
	atomicBody := model.Init.Body[0].(*promela.Atomic).Body
	for _, st := range atomicBody {
		if run, ok := st.(*promela.Run); ok {
			assert.NotEqual(t, "Child", run.Proc)
		}
	}
}

func TestUnsupportedStatementAborts(t *testing.T) {
	c := &ast.Contract{
		Name: "C",
		Items: []ast.ContractItem{
			&ast.Function{
				Name:       "f",
				Visibility: "public",
				Body: body(&ast.ExprStmt{X: &ast.CallExpr{
					Callee: &ast.MemberExpr{Target: ident("selfdestruct"), Field: "call"},
				}}),
			},
		},
	}
	model, _, err := Translate([]*ast.Contract{c}, config.Default())
	require.Error(t, err)
	assert.Nil(t, model, "fatal errors must not leak a partial model")

	var unsupported *errors.UnsupportedConstructError
	assert.True(t, stderrors.As(err, &unsupported))
}

func TestEnvironmentDeclarations(t *testing.T) {
	_, _, out := translateOne(t, counterContract(), counterConfig())

	assert.Contains(t, out, "#define LOCK_IDLE 255")
	assert.Contains(t, out, "#define BLOCK_GASLIMIT 30000")
	assert.Contains(t, out, "#define TX_GASPRICE 0")
	assert.Contains(t, out, "#define DEPTH_HINT 10000")
	assert.Contains(t, out, "byte lock_holder = LOCK_IDLE;")
	assert.Contains(t, out, "int block_number = 1;")
	assert.Contains(t, out, "int block_timestamp = 1;")
	assert.Contains(t, out, "byte tx_origin;")
}
