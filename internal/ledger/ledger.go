package ledger

import (
	"fmt"
	"strings"

	"solspin/internal/ast"
)

// Category classifies one approximation decision
type Category string

const (
	// TypeWidthAbstraction: integer width outside the supported set was
	// mapped to the configured fallback width
	TypeWidthAbstraction Category = "TypeWidthAbstraction"

	// LoopBoundAbstraction: a loop with no statically provable bound was
	// truncated at the configured maximum iteration count
	LoopBoundAbstraction Category = "LoopBoundAbstraction"

	// OverflowPolicyAbstraction: a collection overflow policy other than
	// the default was applied
	OverflowPolicyAbstraction Category = "OverflowPolicyAbstraction"
)

// Record is one approximation made during translation. Records are never
// mutated or removed once added.
type Record struct {
	SourceLocation ast.Position
	Category       Category
	Description    string
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s: %s", r.SourceLocation, r.Category, r.Description)
}

// Ledger is the append-only accumulator threaded explicitly through every
// translation stage. It is deliberately not ambient state: each stage
// receives it as an argument and hands it on.
type Ledger struct {
	records []Record
}

func New() *Ledger {
	return &Ledger{}
}

// Append records one approximation decision
func (l *Ledger) Append(pos ast.Position, category Category, format string, args ...interface{}) {
	l.records = append(l.records, Record{
		SourceLocation: pos,
		Category:       category,
		Description:    fmt.Sprintf(format, args...),
	})
}

// Records returns the entries in append order. The returned slice is a copy;
// the ledger itself stays append-only.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len is the ledger's size, exposed to the surrounding tool as a
// coverage/fidelity metric
func (l *Ledger) Len() int {
	return len(l.records)
}

// CountByCategory tallies records per category
func (l *Ledger) CountByCategory(category Category) int {
	n := 0
	for _, r := range l.records {
		if r.Category == category {
			n++
		}
	}
	return n
}

// Report renders the ordered record sequence, one line per entry, for the
// external renderer
func (l *Ledger) Report() string {
	if len(l.records) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, r := range l.records {
		sb.WriteString(r.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
