package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solspin/internal/ast"
)

func pos(line int) ast.Position {
	return ast.Position{File: "token.sol", Line: line, Column: 1}
}

func TestAppendKeepsOrder(t *testing.T) {
	led := New()
	led.Append(pos(3), TypeWidthAbstraction, "uint256 narrowed to 64 bits")
	led.Append(pos(9), LoopBoundAbstraction, "loop truncated after %d iterations", 8)

	records := led.Records()
	require.Len(t, records, 2)
	assert.Equal(t, TypeWidthAbstraction, records[0].Category)
	assert.Equal(t, LoopBoundAbstraction, records[1].Category)
	assert.Equal(t, "loop truncated after 8 iterations", records[1].Description)
	assert.Equal(t, 3, records[0].SourceLocation.Line)
}

func TestRecordsReturnsCopy(t *testing.T) {
	led := New()
	led.Append(pos(1), TypeWidthAbstraction, "narrowed")

	records := led.Records()
	records[0].Description = "tampered"

	assert.Equal(t, "narrowed", led.Records()[0].Description)
}

func TestCountByCategory(t *testing.T) {
	led := New()
	led.Append(pos(1), TypeWidthAbstraction, "a")
	led.Append(pos(2), TypeWidthAbstraction, "b")
	led.Append(pos(3), LoopBoundAbstraction, "c")

	assert.Equal(t, 3, led.Len())
	assert.Equal(t, 2, led.CountByCategory(TypeWidthAbstraction))
	assert.Equal(t, 1, led.CountByCategory(LoopBoundAbstraction))
	assert.Equal(t, 0, led.CountByCategory(OverflowPolicyAbstraction))
}

func TestReport(t *testing.T) {
	led := New()
	assert.Equal(t, "", led.Report())

	led.Append(pos(4), TypeWidthAbstraction, "uint200 narrowed")
	report := led.Report()
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "token.sol:4:1")
	assert.Contains(t, lines[0], string(TypeWidthAbstraction))
	assert.Contains(t, lines[0], "uint200 narrowed")
}
