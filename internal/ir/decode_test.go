package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solspin/internal/ast"
)

const counterJSON = `{
  "nodeType": "Contract",
  "pos": {"file": "counter.sol", "line": 1, "column": 1},
  "name": "Counter",
  "items": [
    {
      "nodeType": "StateVariable",
      "pos": {"file": "counter.sol", "line": 2, "column": 3},
      "name": "value",
      "type": {"nodeType": "ElementaryType", "name": "uint8"}
    },
    {
      "nodeType": "Function",
      "pos": {"file": "counter.sol", "line": 4, "column": 3},
      "name": "add",
      "visibility": "public",
      "params": [
        {"name": "x", "type": {"nodeType": "ElementaryType", "name": "uint8"}}
      ],
      "body": {
        "nodeType": "Block",
        "stmts": [
          {
            "nodeType": "AssignStmt",
            "op": "+=",
            "target": {"nodeType": "IdentExpr", "name": "value"},
            "valueNode": {"nodeType": "IdentExpr", "name": "x"}
          }
        ]
      }
    }
  ]
}`

func TestDecodeSingleContract(t *testing.T) {
	contracts, err := DecodeContracts([]byte(counterJSON))
	require.NoError(t, err)
	require.Len(t, contracts, 1)

	c := contracts[0]
	assert.Equal(t, "Counter", c.Name)
	assert.Equal(t, "counter.sol", c.Pos.File)
	require.Len(t, c.Items, 2)

	sv, ok := c.Items[0].(*ast.StateVariable)
	require.True(t, ok)
	assert.Equal(t, "value", sv.Name)
	et, ok := sv.Type.(*ast.ElementaryType)
	require.True(t, ok)
	assert.Equal(t, "uint8", et.Name)

	fn, ok := c.Items[1].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.True(t, fn.External())
	require.Len(t, fn.Params, 1)
	require.Len(t, fn.Body.Stmts, 1)

	assign, ok := fn.Body.Stmts[0].(*ast.AssignStmt)
	require.True(t, ok)
	assert.Equal(t, "+=", assign.Op)
}

func TestDecodeContractArray(t *testing.T) {
	contracts, err := DecodeContracts([]byte("[" + counterJSON + "," + counterJSON + "]"))
	require.NoError(t, err)
	assert.Len(t, contracts, 2)
}

func TestDecodeRejectsNonJSON(t *testing.T) {
	_, err := DecodeContracts([]byte("contract Counter {}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E0300")
}

func TestDecodeRejectsUnknownNodeType(t *testing.T) {
	_, err := DecodeContracts([]byte(`{
	  "nodeType": "Contract",
	  "name": "C",
	  "items": [{"nodeType": "ModifierDef", "pos": {"line": 3, "column": 1}, "name": "onlyOwner"}]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E0100")
	assert.Contains(t, err.Error(), "ModifierDef")
}

func TestDecodeRejectsMissingBlock(t *testing.T) {
	_, err := DecodeContracts([]byte(`{
	  "nodeType": "Contract",
	  "name": "C",
	  "items": [{
	    "nodeType": "Function",
	    "name": "f",
	    "visibility": "public",
	    "body": {
	      "nodeType": "Block",
	      "stmts": [{
	        "nodeType": "IfStmt",
	        "cond": {"nodeType": "LiteralExpr", "value": "true"}
	      }]
	    }
	  }]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E0300")
	assert.Contains(t, err.Error(), "missing block node")
}

func TestDecodeRejectsNonContractRoot(t *testing.T) {
	_, err := DecodeContracts([]byte(`{"nodeType": "Function", "name": "free"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top-level Function")
}

func TestDecodeStatements(t *testing.T) {
	contracts, err := DecodeContracts([]byte(`{
	  "nodeType": "Contract",
	  "name": "C",
	  "items": [{
	    "nodeType": "Function",
	    "name": "f",
	    "visibility": "public",
	    "body": {
	      "nodeType": "Block",
	      "stmts": [
	        {"nodeType": "RequireStmt", "cond": {"nodeType": "BinaryExpr", "op": ">",
	          "left": {"nodeType": "IdentExpr", "name": "x"},
	          "right": {"nodeType": "LiteralExpr", "value": "0"}}},
	        {"nodeType": "IfStmt",
	          "cond": {"nodeType": "IdentExpr", "name": "flag"},
	          "then": {"nodeType": "Block", "stmts": []},
	          "else": {"nodeType": "Block", "stmts": []}},
	        {"nodeType": "EmitStmt", "event": "Ping", "args": []},
	        {"nodeType": "ReturnStmt"}
	      ]
	    }
	  }]
	}`))
	require.NoError(t, err)

	fn := contracts[0].Items[0].(*ast.Function)
	require.Len(t, fn.Body.Stmts, 4)

	req, ok := fn.Body.Stmts[0].(*ast.RequireStmt)
	require.True(t, ok)
	cmp, ok := req.Cond.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ">", cmp.Op)

	ifStmt, ok := fn.Body.Stmts[1].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, ifStmt.Else)

	emit, ok := fn.Body.Stmts[2].(*ast.EmitStmt)
	require.True(t, ok)
	assert.Equal(t, "Ping", emit.Event)

	ret, ok := fn.Body.Stmts[3].(*ast.ReturnStmt)
	require.True(t, ok)
	assert.Nil(t, ret.Value)
}
