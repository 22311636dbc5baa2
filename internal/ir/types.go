package ir

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Three-address code in the style of Jimple: every unit has at most one
// operator, operands are immediates (locals or constants), and control flow
// is expressed with conditional and unconditional jumps between units.

// Program is one class in IR form
type Program struct {
	Class   string
	Methods []*Method
}

// Method returns the method with the given name, or nil
func (p *Program) Method(name string) *Method {
	for _, m := range p.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Method is a lowered method body
type Method struct {
	Name   string
	Class  string
	Params []*Local // receiving locals of the @parameterN identities, in order
	Locals []*Local // every local, including parameters and temporaries
	Units  []*Unit
	Pos    lexer.Position

	cfg *CFG
}

// CFG returns the control flow graph of the body, computing it on first use
func (m *Method) CFG() *CFG {
	if m.cfg == nil {
		m.cfg = NewCFG(m)
	}
	return m.cfg
}

// Local looks up a local by name
func (m *Method) Local(name string) *Local {
	for _, l := range m.Locals {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Last returns the final unit of the body, which is always the return
func (m *Method) Last() *Unit {
	if len(m.Units) == 0 {
		return nil
	}
	return m.Units[len(m.Units)-1]
}

// SellSites returns the virtual sell invocations in unit order
func (m *Method) SellSites() []*Unit {
	var sites []*Unit
	for _, u := range m.Units {
		if u.IsSell() {
			sites = append(sites, u)
		}
	}
	return sites
}

// Type of a local
type Type int

const (
	IntType Type = iota
	DoubleType
	FrogType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "int"
	case DoubleType:
		return "double"
	case FrogType:
		return "Frog"
	}
	return "unknown"
}

// Value is an operand or right-hand side of a unit
type Value interface {
	String() string
	value()
}

// Local is a method-scoped variable
type Local struct {
	Name string
	Type Type
}

// IntConstant is an integer literal
type IntConstant struct {
	Value int64
}

// ParameterRef is the @parameterN value bound by an identity unit
type ParameterRef struct {
	Index int
	Type  Type
}

// NewExpr allocates an object of Class; the constructor runs in the next unit
type NewExpr struct {
	Class string
}

// BinOp is an arithmetic operator
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
)

func (op BinOp) String() string {
	return [...]string{"+", "-", "*", "/"}[op]
}

// BinopExpr applies Op to two immediates
type BinopExpr struct {
	Op       BinOp
	Op1, Op2 Value
}

// NegExpr is arithmetic negation of an immediate
type NegExpr struct {
	Op Value
}

// FieldRef is an instance field access, only produced by field assignments
type FieldRef struct {
	Base  *Local
	Field string
}

func (*Local) value() {}
func (IntConstant) value() {}
func (ParameterRef) value() {}
func (NewExpr) value() {}
func (*BinopExpr) value() {}
func (*NegExpr) value() {}
func (*FieldRef) value() {}

func (l *Local) String() string { return l.Name }
func (c IntConstant) String() string { return fmt.Sprintf("%d", c.Value) }
func (p ParameterRef) String() string { return fmt.Sprintf("@parameter%d: %s", p.Index, p.Type) }
func (n NewExpr) String() string { return "new " + n.Class }
func (b *BinopExpr) String() string { return fmt.Sprintf("%s %s %s", b.Op1, b.Op, b.Op2) }
func (n *NegExpr) String() string { return "neg " + n.Op.String() }
func (f *FieldRef) String() string { return fmt.Sprintf("%s.<%s>", f.Base, f.Field) }

// Cmp is a comparison operator
type Cmp int

const (
	EQ Cmp = iota
	NE
	LT
	LE
	GT
	GE
)

func (c Cmp) String() string {
	return [...]string{"==", "!=", "<", "<=", ">", ">="}[c]
}

// Negate returns the complementary comparison
func (c Cmp) Negate() Cmp {
	return [...]Cmp{NE, EQ, GE, GT, LE, LT}[c]
}

// ParseCmp maps a source operator to its comparison
func ParseCmp(op string) (Cmp, bool) {
	switch op {
	case "==":
		return EQ, true
	case "!=":
		return NE, true
	case "<":
		return LT, true
	case "<=":
		return LE, true
	case ">":
		return GT, true
	case ">=":
		return GE, true
	}
	return 0, false
}

// ConditionExpr compares two immediates
type ConditionExpr struct {
	Cmp      Cmp
	Op1, Op2 Value
}

func (c *ConditionExpr) String() string {
	return fmt.Sprintf("%s %s %s", c.Op1, c.Cmp, c.Op2)
}

// UnitKind tags the statement variant of a unit
type UnitKind int

const (
	IdentityStmt UnitKind = iota
	AssignStmt
	IfStmt
	GotoStmt
	InvokeStmt
	ReturnVoidStmt
	NopStmt
)

func (k UnitKind) String() string {
	return [...]string{"identity", "assign", "if", "goto", "invoke", "return", "nop"}[k]
}

// InvokeKind distinguishes dynamic dispatch from constructor calls
type InvokeKind int

const (
	VirtualInvoke InvokeKind = iota
	SpecialInvoke
)

// InvokeExpr is a method call on a local
type InvokeExpr struct {
	Kind   InvokeKind
	Base   *Local
	Method string
	Args   []Value
}

func (e *InvokeExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	kind := "virtualinvoke"
	if e.Kind == SpecialInvoke {
		kind = "specialinvoke"
	}
	return fmt.Sprintf("%s %s.<Frog: void %s(int)>(%s)", kind, e.Base, e.Method, strings.Join(args, ", "))
}

// Unit is one statement. Which fields are set depends on Kind:
// Identity and Assign use Left and Right, If uses Cond and Target, Goto uses
// Target, Invoke uses Invoke.
type Unit struct {
	Index  int
	Kind   UnitKind
	Left   Value // *Local, or *FieldRef for a field store
	Right  Value
	Cond   *ConditionExpr
	Target *Unit
	Invoke *InvokeExpr
	Pos    lexer.Position
}

// IsSell reports whether u is a virtual call to sell
func (u *Unit) IsSell() bool {
	return u.Kind == InvokeStmt && u.Invoke.Kind == VirtualInvoke && u.Invoke.Method == "sell"
}

// IsFrogInit reports whether u is the constructor call of a Frog allocation
func (u *Unit) IsFrogInit() bool {
	return u.Kind == InvokeStmt && u.Invoke.Kind == SpecialInvoke && u.Invoke.Method == "<init>" &&
		u.Invoke.Base.Type == FrogType
}

// FallsThrough reports whether control may continue with the next unit
func (u *Unit) FallsThrough() bool {
	return u.Kind != GotoStmt && u.Kind != ReturnVoidStmt
}

func (u *Unit) String() string {
	switch u.Kind {
	case IdentityStmt:
		return fmt.Sprintf("%s := %s", u.Left, u.Right)
	case AssignStmt:
		return fmt.Sprintf("%s = %s", u.Left, u.Right)
	case IfStmt:
		return fmt.Sprintf("if %s goto %s", u.Cond, label(u.Target))
	case GotoStmt:
		return "goto " + label(u.Target)
	case InvokeStmt:
		return u.Invoke.String()
	case ReturnVoidStmt:
		return "return"
	case NopStmt:
		return "nop"
	}
	return "?"
}

func label(u *Unit) string {
	if u == nil {
		return "<nil>"
	}
	return fmt.Sprintf("L%d", u.Index)
}
