package ir

import (
	"fmt"
	"strings"
)

// Printer provides pretty-printing for IR
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the string representation of an IR program
func Print(program *Program) string {
	p := NewPrinter()
	p.printProgram(program)
	return p.output.String()
}

// PrintMethod returns the listing of a single method
func PrintMethod(m *Method) string {
	p := NewPrinter()
	p.printMethod(m)
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

func (p *Printer) printProgram(program *Program) {
	p.writeLine("class %s (IR)", program.Class)
	for _, m := range program.Methods {
		p.writeLine("")
		p.printMethod(m)
	}
}

func (p *Printer) printMethod(m *Method) {
	params := make([]string, len(m.Params))
	for i, l := range m.Params {
		params[i] = l.Type.String()
	}
	p.writeLine("void %s(%s) {", m.Name, strings.Join(params, ", "))
	p.indent++

	for _, l := range m.Locals {
		p.writeLine("%s %s;", l.Type, l.Name)
	}
	if len(m.Locals) > 0 {
		p.writeLine("")
	}

	targets := map[*Unit]bool{}
	for _, u := range m.Units {
		if u.Target != nil {
			targets[u.Target] = true
		}
	}
	heads := map[*Unit]bool{}
	for _, h := range m.CFG().LoopHeads() {
		heads[h] = true
	}

	for _, u := range m.Units {
		if targets[u] {
			p.indent--
			if heads[u] {
				p.writeLine("L%d: ; loop head", u.Index)
			} else {
				p.writeLine("L%d:", u.Index)
			}
			p.indent++
		}
		p.writeLine("%s;", u)
	}

	p.indent--
	p.writeLine("}")
}
