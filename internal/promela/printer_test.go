package promela

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() *Model {
	return &Model{
		Name: "Counter",
		Defines: []Define{
			{Name: "ADDR_Counter", Value: "3", Comment: "contract address"},
			{Name: "SIG_Counter_add", Value: "1234"},
		},
		Typedefs: []Typedef{
			{Name: "Map_byte_byte_4", Fields: []VarDecl{
				{Name: "keys", Type: "byte", ArrayLen: 4},
				{Name: "vals", Type: "byte", ArrayLen: 4},
				{Name: "size", Type: "byte"},
			}},
		},
		Globals: []VarDecl{
			{Name: "lock_holder", Type: "byte", Init: "LOCK_IDLE"},
			{Name: "Counter_value", Type: "byte"},
		},
		Channels: []ChanDecl{
			{Name: "Counter_add_call", ElemTypes: []string{"byte", "byte"}},
			{Name: "Counter_add_ret", ElemTypes: []string{"byte"}},
		},
		Procs: []*Proctype{
			{
				Name:   "Counter",
				Locals: []VarDecl{{Name: "msg_sender", Type: "byte"}, {Name: "add_x", Type: "byte"}},
				Body: []Stmt{
					&Do{Branches: []Branch{
						{
							Guard: "Counter_add_call ? msg_sender, add_x",
							Body: []Stmt{
								&Assign{Lhs: "Counter_value", Rhs: "Counter_value + add_x"},
								&Label{Name: "add_done"},
								&Send{Chan: "Counter_add_ret", Args: []string{"0"}},
							},
						},
					}},
				},
			},
		},
		Init: &Init{Body: []Stmt{
			&Atomic{Body: []Stmt{
				&Run{Proc: "Counter"},
				&Run{Proc: "Agent", Args: []string{"0", "1"}},
			}},
		}},
	}
}

func TestPrintModelSections(t *testing.T) {
	out := Print(sampleModel())

	assert.True(t, strings.HasPrefix(out, "/* model generated from contract Counter */"))
	assert.Contains(t, out, "#define ADDR_Counter 3 /* contract address */")
	assert.Contains(t, out, "#define SIG_Counter_add 1234")
	assert.Contains(t, out, "typedef Map_byte_byte_4 {")
	assert.Contains(t, out, "byte keys[4];")
	assert.Contains(t, out, "byte lock_holder = LOCK_IDLE;")
	assert.Contains(t, out, "chan Counter_add_call = [0] of { byte, byte };")
	assert.Contains(t, out, "proctype Counter() {")
	assert.Contains(t, out, ":: Counter_add_call ? msg_sender, add_x ->")
	assert.Contains(t, out, "add_done:")
	assert.Contains(t, out, "Counter_add_ret ! 0;")
	assert.Contains(t, out, "init {")
	assert.Contains(t, out, "run Agent(0, 1);")
	assert.Contains(t, out, "/* never claims: insert user-authored properties below */")
}

func TestPrintSectionOrder(t *testing.T) {
	out := Print(sampleModel())

	defineAt := strings.Index(out, "#define")
	typedefAt := strings.Index(out, "typedef")
	globalAt := strings.Index(out, "byte lock_holder")
	chanAt := strings.Index(out, "chan ")
	procAt := strings.Index(out, "proctype")
	initAt := strings.Index(out, "init {")
	neverAt := strings.Index(out, "never claims")

	require.True(t, defineAt >= 0 && typedefAt >= 0 && globalAt >= 0)
	assert.Less(t, defineAt, typedefAt)
	assert.Less(t, typedefAt, globalAt)
	assert.Less(t, globalAt, chanAt)
	assert.Less(t, chanAt, procAt)
	assert.Less(t, procAt, initAt)
	assert.Less(t, initAt, neverAt)
}

func TestPrintIsDeterministic(t *testing.T) {
	assert.Equal(t, Print(sampleModel()), Print(sampleModel()))
}

func TestPrintStatements(t *testing.T) {
	proc := &Proctype{
		Name: "P",
		Body: []Stmt{
			&If{Branches: []Branch{
				{Guard: "(x > 0)", Body: []Stmt{&Skip{}}},
				{Guard: "else", Body: []Stmt{
					&Comment{Text: "requirement failed: dead end"},
					&Expr{Text: "false"},
				}},
			}},
			&Do{Branches: []Branch{
				{Guard: "(i < 4)", Body: []Stmt{
					&CallInline{Name: "Map_byte_byte_4_get", Args: []string{"m", "k", "out"}},
					&Break{},
				}},
				{Guard: "else"},
			}},
			&Goto{Label: "done"},
		},
	}
	out := Print(&Model{Name: "M", Procs: []*Proctype{proc}})

	assert.Contains(t, out, ":: (x > 0) ->")
	assert.Contains(t, out, "/* requirement failed: dead end */")
	assert.Contains(t, out, "false;")
	assert.Contains(t, out, "Map_byte_byte_4_get(m, k, out);")
	assert.Contains(t, out, "break;")
	assert.Contains(t, out, "goto done;")

	// a guard-only branch still gets an executable body
	assert.Contains(t, out, ":: else ->\n    skip;")
}

func TestPrintActiveProctype(t *testing.T) {
	out := Print(&Model{Name: "M", Procs: []*Proctype{
		{Name: "Watch", Active: true, Params: []VarDecl{{Name: "id", Type: "byte"}}},
	}})
	assert.Contains(t, out, "active proctype Watch(byte id) {")
}
