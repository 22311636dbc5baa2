package grammar

import (
	"fmt"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("    ", level)
}

func (f *File) String() string {
	var b strings.Builder
	if f.Package != nil {
		b.WriteString("package " + f.Package.String() + ";\n\n")
	}
	for _, imp := range f.Imports {
		b.WriteString("import " + imp.String() + ";\n")
	}
	if len(f.Imports) > 0 {
		b.WriteString("\n")
	}
	for i, c := range f.Classes {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.String())
	}
	return b.String()
}

func (q *QualifiedName) String() string {
	return strings.Join(q.Parts, ".")
}

func (c *Class) String() string {
	var b strings.Builder
	for _, m := range c.Modifiers {
		b.WriteString(m + " ")
	}
	b.WriteString("class " + c.Name + " {\n")
	for i, m := range c.Methods {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.StringWithIndent(1))
	}
	b.WriteString("}\n")
	return b.String()
}

func (m *Method) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString(indent(level))
	for _, mod := range m.Modifiers {
		b.WriteString(mod + " ")
	}
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type + " " + p.Name
	}
	b.WriteString(fmt.Sprintf("%s %s(%s) ", m.Result, m.Name, strings.Join(params, ", ")))
	b.WriteString(m.Body.StringWithIndent(level))
	b.WriteString("\n")
	return b.String()
}

func (bl *Block) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range bl.Statements {
		b.WriteString(indent(level+1) + s.StringWithIndent(level+1) + "\n")
	}
	b.WriteString(indent(level) + "}")
	return b.String()
}

func (s *Statement) StringWithIndent(level int) string {
	switch {
	case s.If != nil:
		out := fmt.Sprintf("if (%s) %s", s.If.Cond, s.If.Then.StringWithIndent(level))
		if s.If.Else != nil {
			out += " else " + s.If.Else.StringWithIndent(level)
		}
		return out
	case s.While != nil:
		return fmt.Sprintf("while (%s) %s", s.While.Cond, s.While.Body.StringWithIndent(level))
	case s.Return:
		return "return;"
	case s.Block != nil:
		return s.Block.StringWithIndent(level)
	case s.Empty:
		return ";"
	case s.Decl != nil:
		return s.Decl.String()
	case s.Assign != nil:
		return s.Assign.String()
	case s.Call != nil:
		return s.Call.String()
	}
	return ""
}

func (d *LocalDecl) String() string {
	if d.Value == nil {
		return fmt.Sprintf("%s %s;", d.Type, d.Name)
	}
	return fmt.Sprintf("%s %s = %s;", d.Type, d.Name, d.Value)
}

func (a *AssignStmt) String() string {
	if a.Field != "" {
		return fmt.Sprintf("%s.%s = %s;", a.Target, a.Field, a.Value)
	}
	return fmt.Sprintf("%s = %s;", a.Target, a.Value)
}

func (c *CallStmt) String() string {
	return fmt.Sprintf("%s.%s(%s);", c.Receiver, c.Method, joinExprs(c.Args))
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

func (e *Expr) String() string {
	var b strings.Builder
	b.WriteString(e.Left.String())
	for _, t := range e.Tail {
		b.WriteString(" " + t.Operator + " " + t.Term.String())
	}
	return b.String()
}

func (t *Term) String() string {
	var b strings.Builder
	b.WriteString(t.Left.String())
	for _, f := range t.Tail {
		b.WriteString(" " + f.Operator + " " + f.Factor.String())
	}
	return b.String()
}

func (f *Factor) String() string {
	switch {
	case f.Neg != nil:
		return "-" + f.Neg.String()
	case f.New != nil:
		return fmt.Sprintf("new %s(%s)", f.New.Class, joinExprs(f.New.Args))
	case f.Number != nil:
		return *f.Number
	case f.Ident != nil:
		return *f.Ident
	case f.Parens != nil:
		return "(" + f.Parens.String() + ")"
	}
	return ""
}

func joinExprs(exprs []*Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
