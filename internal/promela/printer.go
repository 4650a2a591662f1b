package promela

import (
	"fmt"
	"strings"
)

// Printer serializes an assembled model into PROMELA text. One deterministic
// pass, declarations in the order they were added; no partial output paths
// exist because the printer only ever sees a fully generated model.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new model printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the PROMELA text for a model
func Print(model *Model) string {
	p := NewPrinter()
	p.printModel(model)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) blank() {
	p.output.WriteString("\n")
}

func (p *Printer) printModel(model *Model) {
	p.writeLine("/* model generated from contract %s */", model.Name)
	p.blank()

	for _, d := range model.Defines {
		if d.Comment != "" {
			p.writeLine("#define %s %s /* %s */", d.Name, d.Value, d.Comment)
		} else {
			p.writeLine("#define %s %s", d.Name, d.Value)
		}
	}
	if len(model.Defines) > 0 {
		p.blank()
	}

	for _, t := range model.Typedefs {
		p.printTypedef(t)
		p.blank()
	}

	for _, g := range model.Globals {
		p.printVarDecl(g)
	}
	if len(model.Globals) > 0 {
		p.blank()
	}

	for _, c := range model.Channels {
		if c.Comment != "" {
			p.writeLine("/* %s */", c.Comment)
		}
		p.writeLine("chan %s = [0] of { %s };", c.Name, strings.Join(c.ElemTypes, ", "))
	}
	if len(model.Channels) > 0 {
		p.blank()
	}

	for _, in := range model.Inlines {
		p.printInline(in)
		p.blank()
	}

	for _, proc := range model.Procs {
		p.printProctype(proc)
		p.blank()
	}

	if model.Init != nil {
		p.writeLine("init {")
		p.indent++
		p.printStmts(model.Init.Body)
		p.indent--
		p.writeLine("}")
		p.blank()
	}

	p.writeLine("/* never claims: insert user-authored properties below */")
	p.writeLine("/* e.g. never { do :: assert(!violation) od } */")
}

func (p *Printer) printTypedef(t Typedef) {
	if t.Comment != "" {
		p.writeLine("/* %s */", t.Comment)
	}
	p.writeLine("typedef %s {", t.Name)
	p.indent++
	for _, f := range t.Fields {
		p.printVarDecl(f)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printVarDecl(v VarDecl) {
	decl := v.Type + " " + v.Name
	if v.ArrayLen > 0 {
		decl = fmt.Sprintf("%s[%d]", decl, v.ArrayLen)
	}
	if v.Init != "" {
		decl += " = " + v.Init
	}
	if v.Comment != "" {
		p.writeLine("%s; /* %s */", decl, v.Comment)
	} else {
		p.writeLine("%s;", decl)
	}
}

func (p *Printer) printInline(in Inline) {
	if in.Comment != "" {
		p.writeLine("/* %s */", in.Comment)
	}
	p.writeLine("inline %s(%s) {", in.Name, strings.Join(in.Params, ", "))
	p.indent++
	p.printStmts(in.Body)
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printProctype(proc *Proctype) {
	if proc.Comment != "" {
		p.writeLine("/* %s */", proc.Comment)
	}
	params := make([]string, 0, len(proc.Params))
	for _, param := range proc.Params {
		params = append(params, param.Type+" "+param.Name)
	}
	keyword := "proctype"
	if proc.Active {
		keyword = "active proctype"
	}
	p.writeLine("%s %s(%s) {", keyword, proc.Name, strings.Join(params, "; "))
	p.indent++
	for _, local := range proc.Locals {
		p.printVarDecl(local)
	}
	if len(proc.Locals) > 0 {
		p.blank()
	}
	p.printStmts(proc.Body)
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printStmts(stmts []Stmt) {
	for _, s := range stmts {
		p.printStmt(s)
	}
}

func (p *Printer) printStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *Assign:
		p.writeLine("%s = %s;", s.Lhs, s.Rhs)
	case *Expr:
		p.writeLine("%s;", s.Text)
	case *Send:
		p.writeLine("%s ! %s;", s.Chan, strings.Join(s.Args, ", "))
	case *Recv:
		p.writeLine("%s ? %s;", s.Chan, strings.Join(s.Args, ", "))
	case *If:
		p.writeLine("if")
		p.printBranches(s.Branches)
		p.writeLine("fi;")
	case *Do:
		p.writeLine("do")
		p.printBranches(s.Branches)
		p.writeLine("od;")
	case *Atomic:
		p.writeLine("atomic {")
		p.indent++
		p.printStmts(s.Body)
		p.indent--
		p.writeLine("}")
	case *CallInline:
		p.writeLine("%s(%s);", s.Name, strings.Join(s.Args, ", "))
	case *Run:
		p.writeLine("run %s(%s);", s.Proc, strings.Join(s.Args, ", "))
	case *Comment:
		p.writeLine("/* %s */", s.Text)
	case *Label:
		p.writeLine("%s:", s.Name)
	case *Goto:
		p.writeLine("goto %s;", s.Label)
	case *Skip:
		p.writeLine("skip;")
	case *Break:
		p.writeLine("break;")
	}
}

func (p *Printer) printBranches(branches []Branch) {
	for _, b := range branches {
		p.writeLine(":: %s ->", b.Guard)
		p.indent++
		if len(b.Body) == 0 {
			p.writeLine("skip;")
		} else {
			p.printStmts(b.Body)
		}
		p.indent--
	}
}
