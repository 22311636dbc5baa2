package ir

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"

	"frogcheck/grammar"
)

// Builder lowers a parsed class to three-address code
type Builder struct {
	program *Program

	method  *Method
	scopes  []map[string]*Local
	pending map[*Unit]int // jump target as a unit index, resolved at method end
	exits   []*Unit       // gotos standing in for `return;`
	pos     lexer.Position

	intTemps int
	refTemps int
}

// NewBuilder creates a new IR builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build lowers every method of the class. The class must have passed the
// semantic checks; anything the lowering cannot express is reported as an
// error rather than guessed at.
func (b *Builder) Build(class *grammar.Class) (*Program, error) {
	b.program = &Program{Class: class.Name}

	for _, m := range class.Methods {
		method, err := b.buildMethod(class.Name, m)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		b.program.Methods = append(b.program.Methods, method)
	}

	return b.program, nil
}

func (b *Builder) buildMethod(class string, m *grammar.Method) (*Method, error) {
	b.method = &Method{Name: m.Name, Class: class, Pos: m.Pos}
	b.scopes = []map[string]*Local{{}}
	b.pending = map[*Unit]int{}
	b.exits = nil
	b.intTemps, b.refTemps = 0, 0

	for i, p := range m.Params {
		t, err := typeOf(p.Type)
		if err != nil {
			return nil, err
		}
		b.pos = p.Pos
		local, err := b.declare(p.Name, t)
		if err != nil {
			return nil, err
		}
		b.method.Params = append(b.method.Params, local)
		b.emit(&Unit{Kind: IdentityStmt, Left: local, Right: ParameterRef{Index: i, Type: t}})
	}

	if err := b.block(m.Body); err != nil {
		return nil, err
	}

	b.pos = m.Body.EndPos
	ret := b.emit(&Unit{Kind: ReturnVoidStmt})
	for _, g := range b.exits {
		g.Target = ret
	}
	for u, idx := range b.pending {
		u.Target = b.method.Units[idx]
	}

	return b.method, nil
}

func typeOf(name string) (Type, error) {
	switch name {
	case "int":
		return IntType, nil
	case "double":
		return DoubleType, nil
	case "Frog":
		return FrogType, nil
	}
	return 0, fmt.Errorf("unsupported type %s", name)
}

// Scopes

func (b *Builder) pushScope() { b.scopes = append(b.scopes, map[string]*Local{}) }
func (b *Builder) popScope()  { b.scopes = b.scopes[:len(b.scopes)-1] }

// declare binds name in the innermost scope. Sibling blocks may reuse a
// source name; the local is shared when the types agree and renamed otherwise.
func (b *Builder) declare(name string, t Type) (*Local, error) {
	scope := b.scopes[len(b.scopes)-1]
	if _, exists := scope[name]; exists {
		return nil, fmt.Errorf("%s redeclared", name)
	}

	local := b.method.Local(name)
	if local == nil || local.Type != t {
		irName := name
		for i := 1; b.method.Local(irName) != nil; i++ {
			irName = fmt.Sprintf("%s#%d", name, i)
		}
		local = &Local{Name: irName, Type: t}
		b.method.Locals = append(b.method.Locals, local)
	}
	scope[name] = local
	return local, nil
}

func (b *Builder) lookup(name string) (*Local, error) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if l, ok := b.scopes[i][name]; ok {
			return l, nil
		}
	}
	return nil, fmt.Errorf("undefined variable %s", name)
}

func (b *Builder) temp(t Type) *Local {
	var name string
	if t == FrogType {
		name = fmt.Sprintf("$r%d", b.refTemps)
		b.refTemps++
	} else {
		name = fmt.Sprintf("$i%d", b.intTemps)
		b.intTemps++
	}
	local := &Local{Name: name, Type: t}
	b.method.Locals = append(b.method.Locals, local)
	return local
}

func (b *Builder) emit(u *Unit) *Unit {
	u.Index = len(b.method.Units)
	u.Pos = b.pos
	b.method.Units = append(b.method.Units, u)
	return u
}

// jumpTo defers the target of u to whatever unit ends up at index idx
func (b *Builder) jumpTo(u *Unit, idx int) {
	b.pending[u] = idx
}

func (b *Builder) next() int {
	return len(b.method.Units)
}

// Statements

func (b *Builder) block(block *grammar.Block) error {
	b.pushScope()
	defer b.popScope()

	for _, s := range block.Statements {
		if err := b.statement(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) statement(s *grammar.Statement) error {
	b.pos = s.Pos

	switch {
	case s.If != nil:
		return b.ifStatement(s.If)
	case s.While != nil:
		return b.whileStatement(s.While)
	case s.Return:
		b.exits = append(b.exits, b.emit(&Unit{Kind: GotoStmt}))
		return nil
	case s.Block != nil:
		return b.block(s.Block)
	case s.Empty:
		return nil
	case s.Decl != nil:
		return b.declaration(s.Decl)
	case s.Assign != nil:
		return b.assignment(s.Assign)
	case s.Call != nil:
		return b.call(s.Call)
	}
	return fmt.Errorf("%d:%d: empty statement node", s.Pos.Line, s.Pos.Column)
}

// nested statements of if and while get their own scope, as in Java
func (b *Builder) scopedStatement(s *grammar.Statement) error {
	b.pushScope()
	defer b.popScope()
	return b.statement(s)
}

func (b *Builder) ifStatement(s *grammar.IfStmt) error {
	cond, err := b.condition(s.Cond)
	if err != nil {
		return err
	}
	cond.Cmp = cond.Cmp.Negate()
	branch := b.emit(&Unit{Kind: IfStmt, Cond: cond})

	if err := b.scopedStatement(s.Then); err != nil {
		return err
	}

	if s.Else == nil {
		b.jumpTo(branch, b.next())
		return nil
	}

	b.pos = s.Else.Pos
	skip := b.emit(&Unit{Kind: GotoStmt})
	b.jumpTo(branch, b.next())
	if err := b.scopedStatement(s.Else); err != nil {
		return err
	}
	b.jumpTo(skip, b.next())
	return nil
}

func (b *Builder) whileStatement(s *grammar.WhileStmt) error {
	head := b.next()
	cond, err := b.condition(s.Cond)
	if err != nil {
		return err
	}
	cond.Cmp = cond.Cmp.Negate()
	exit := b.emit(&Unit{Kind: IfStmt, Cond: cond})

	if err := b.scopedStatement(s.Body); err != nil {
		return err
	}

	b.pos = s.Pos
	back := b.emit(&Unit{Kind: GotoStmt})
	b.jumpTo(back, head)
	b.jumpTo(exit, b.next())
	return nil
}

func (b *Builder) declaration(d *grammar.LocalDecl) error {
	t, err := typeOf(d.Type)
	if err != nil {
		return err
	}

	// the initializer is evaluated before the name comes into scope
	var value Value
	if d.Value != nil {
		if value, err = b.expr(d.Value); err != nil {
			return err
		}
	}

	local, err := b.declare(d.Name, t)
	if err != nil {
		return err
	}
	if value != nil {
		b.emit(&Unit{Kind: AssignStmt, Left: local, Right: value})
	}
	return nil
}

func (b *Builder) assignment(a *grammar.AssignStmt) error {
	target, err := b.lookup(a.Target)
	if err != nil {
		return err
	}

	if a.Field != "" {
		value, err := b.immediate(a.Value)
		if err != nil {
			return err
		}
		b.emit(&Unit{Kind: AssignStmt, Left: &FieldRef{Base: target, Field: a.Field}, Right: value})
		return nil
	}

	value, err := b.expr(a.Value)
	if err != nil {
		return err
	}
	b.emit(&Unit{Kind: AssignStmt, Left: target, Right: value})
	return nil
}

func (b *Builder) call(c *grammar.CallStmt) error {
	receiver, err := b.lookup(c.Receiver)
	if err != nil {
		return err
	}

	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		if args[i], err = b.immediate(a); err != nil {
			return err
		}
	}

	b.emit(&Unit{Kind: InvokeStmt, Invoke: &InvokeExpr{
		Kind:   VirtualInvoke,
		Base:   receiver,
		Method: c.Method,
		Args:   args,
	}})
	return nil
}

func (b *Builder) condition(c *grammar.Condition) (*ConditionExpr, error) {
	cmp, ok := ParseCmp(c.Op)
	if !ok {
		return nil, fmt.Errorf("unknown comparison %s", c.Op)
	}
	op1, err := b.immediate(c.Left)
	if err != nil {
		return nil, err
	}
	op2, err := b.immediate(c.Right)
	if err != nil {
		return nil, err
	}
	return &ConditionExpr{Cmp: cmp, Op1: op1, Op2: op2}, nil
}

// Expressions

// expr lowers e to a right-hand side with at most one operator
func (b *Builder) expr(e *grammar.Expr) (Value, error) {
	v, err := b.term(e.Left)
	if err != nil {
		return nil, err
	}

	for _, t := range e.Tail {
		left := b.materialize(v)
		right, err := b.term(t.Term)
		if err != nil {
			return nil, err
		}
		op := Add
		if t.Operator == "-" {
			op = Sub
		}
		v = &BinopExpr{Op: op, Op1: left, Op2: b.materialize(right)}
	}
	return v, nil
}

func (b *Builder) term(t *grammar.Term) (Value, error) {
	v, err := b.factor(t.Left)
	if err != nil {
		return nil, err
	}

	for _, f := range t.Tail {
		left := b.materialize(v)
		right, err := b.factor(f.Factor)
		if err != nil {
			return nil, err
		}
		op := Mul
		if f.Operator == "/" {
			op = Div
		}
		v = &BinopExpr{Op: op, Op1: left, Op2: b.materialize(right)}
	}
	return v, nil
}

func (b *Builder) factor(f *grammar.Factor) (Value, error) {
	switch {
	case f.Neg != nil:
		inner, err := b.factor(f.Neg)
		if err != nil {
			return nil, err
		}
		if c, ok := inner.(IntConstant); ok {
			return IntConstant{Value: -c.Value}, nil
		}
		return &NegExpr{Op: b.materialize(inner)}, nil
	case f.New != nil:
		return b.allocation(f.New)
	case f.Number != nil:
		n, err := strconv.ParseInt(*f.Number, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer literal %s: %w", *f.Number, err)
		}
		return IntConstant{Value: n}, nil
	case f.Ident != nil:
		return b.lookup(*f.Ident)
	case f.Parens != nil:
		return b.expr(f.Parens)
	}
	return nil, fmt.Errorf("%d:%d: empty expression node", f.Pos.Line, f.Pos.Column)
}

// allocation emits `$r = new C; specialinvoke $r.<init>(args)` and yields $r
func (b *Builder) allocation(n *grammar.NewExpr) (Value, error) {
	t, err := typeOf(n.Class)
	if err != nil || t != FrogType {
		return nil, fmt.Errorf("cannot allocate %s", n.Class)
	}

	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		if args[i], err = b.immediate(a); err != nil {
			return nil, err
		}
	}

	ref := b.temp(FrogType)
	b.emit(&Unit{Kind: AssignStmt, Left: ref, Right: NewExpr{Class: n.Class}})
	b.emit(&Unit{Kind: InvokeStmt, Invoke: &InvokeExpr{
		Kind:   SpecialInvoke,
		Base:   ref,
		Method: "<init>",
		Args:   args,
	}})
	return ref, nil
}

func (b *Builder) immediate(e *grammar.Expr) (Value, error) {
	v, err := b.expr(e)
	if err != nil {
		return nil, err
	}
	return b.materialize(v), nil
}

// materialize stores a compound value in a fresh temporary
func (b *Builder) materialize(v Value) Value {
	switch v.(type) {
	case *Local, IntConstant:
		return v
	}
	t := b.temp(IntType)
	b.emit(&Unit{Kind: AssignStmt, Left: t, Right: v})
	return t
}
