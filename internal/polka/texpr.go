package polka

import (
	"fmt"
	"math/big"
)

// Texpr is an expression tree over the variables of an environment
type Texpr interface {
	String() string
	texpr()
}

// Cst is an integer constant
type Cst struct {
	Value *big.Int
}

// Var names a declared variable
type Var struct {
	Name string
}

// BinOp is the operator of a Bin node
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	}
	return "?"
}

// Bin applies a binary operator
type Bin struct {
	Op          BinOp
	Left, Right Texpr
}

// Neg is unary minus
type Neg struct {
	Arg Texpr
}

func (Cst) texpr() {}
func (Var) texpr() {}
func (Bin) texpr() {}
func (Neg) texpr() {}

func (c Cst) String() string { return c.Value.String() }
func (v Var) String() string { return v.Name }
func (b Bin) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }
func (n Neg) String() string { return fmt.Sprintf("-%s", n.Arg) }

// NewCst builds an integer constant
func NewCst(v int64) Cst {
	return Cst{Value: big.NewInt(v)}
}

// NewVar names a variable
func NewVar(name string) Var {
	return Var{Name: name}
}

// NewBin builds left op right
func NewBin(op BinOp, left, right Texpr) Bin {
	return Bin{Op: op, Left: left, Right: right}
}

// ConsKind is the comparison of a constraint against zero
type ConsKind int

const (
	EQ    ConsKind = iota // e = 0
	DISEQ                 // e != 0
	SUP                   // e > 0
	SUPEQ                 // e >= 0
)

func (k ConsKind) String() string {
	switch k {
	case EQ:
		return "="
	case DISEQ:
		return "!="
	case SUP:
		return ">"
	case SUPEQ:
		return ">="
	}
	return "?"
}

// Tcons is the constraint `Expr Kind 0`
type Tcons struct {
	Kind ConsKind
	Expr Texpr
}

// NewTcons builds a constraint
func NewTcons(kind ConsKind, e Texpr) Tcons {
	return Tcons{Kind: kind, Expr: e}
}

func (c Tcons) String() string {
	return fmt.Sprintf("%s %s 0", c.Expr, c.Kind)
}

// linear is a·x + cst over the dimensions of an environment
type linear struct {
	coeffs []*big.Int
	cst    *big.Int
}

func zeroLinear(dims int) linear {
	l := linear{coeffs: make([]*big.Int, dims), cst: new(big.Int)}
	for i := range l.coeffs {
		l.coeffs[i] = new(big.Int)
	}
	return l
}

func (l linear) isConstant() bool {
	for _, c := range l.coeffs {
		if c.Sign() != 0 {
			return false
		}
	}
	return true
}

func (l linear) scale(k *big.Int) linear {
	out := zeroLinear(len(l.coeffs))
	for i, c := range l.coeffs {
		out.coeffs[i].Mul(c, k)
	}
	out.cst.Mul(l.cst, k)
	return out
}

func (l linear) add(o linear, sign int) linear {
	out := zeroLinear(len(l.coeffs))
	for i := range l.coeffs {
		if sign < 0 {
			out.coeffs[i].Sub(l.coeffs[i], o.coeffs[i])
		} else {
			out.coeffs[i].Add(l.coeffs[i], o.coeffs[i])
		}
	}
	if sign < 0 {
		out.cst.Sub(l.cst, o.cst)
	} else {
		out.cst.Add(l.cst, o.cst)
	}
	return out
}

// linearize flattens e into a linear form. A product is linear when one of
// its operands is constant.
func linearize(env *Environment, e Texpr) (linear, error) {
	switch e := e.(type) {
	case Cst:
		l := zeroLinear(env.Size())
		l.cst.Set(e.Value)
		return l, nil

	case Var:
		d, err := env.dim(e.Name)
		if err != nil {
			return linear{}, err
		}
		l := zeroLinear(env.Size())
		l.coeffs[d].SetInt64(1)
		return l, nil

	case Neg:
		arg, err := linearize(env, e.Arg)
		if err != nil {
			return linear{}, err
		}
		return arg.scale(big.NewInt(-1)), nil

	case Bin:
		left, err := linearize(env, e.Left)
		if err != nil {
			return linear{}, err
		}
		right, err := linearize(env, e.Right)
		if err != nil {
			return linear{}, err
		}
		switch e.Op {
		case OpAdd:
			return left.add(right, 1), nil
		case OpSub:
			return left.add(right, -1), nil
		case OpMul:
			if left.isConstant() {
				return right.scale(left.cst), nil
			}
			if right.isConstant() {
				return left.scale(right.cst), nil
			}
			return linear{}, fmt.Errorf("%w: %s", ErrNonLinear, e)
		}
	}
	return linear{}, fmt.Errorf("polka: unsupported expression %v", e)
}
