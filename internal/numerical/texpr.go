package numerical

import (
	"fmt"

	"frogcheck/internal/ir"
	"frogcheck/internal/polka"
)

// ToTexpr converts an integer immediate or arithmetic expression
func ToTexpr(v ir.Value) (polka.Texpr, error) {
	switch v := v.(type) {
	case ir.IntConstant:
		return polka.NewCst(v.Value), nil
	case *ir.Local:
		if v.Type != ir.IntType {
			return nil, fmt.Errorf("non-integer local %s of type %s", v, v.Type)
		}
		return polka.NewVar(v.Name), nil
	case *ir.NegExpr:
		arg, err := ToTexpr(v.Op)
		if err != nil {
			return nil, err
		}
		return polka.Neg{Arg: arg}, nil
	case *ir.BinopExpr:
		var op polka.BinOp
		switch v.Op {
		case ir.Add:
			op = polka.OpAdd
		case ir.Sub:
			op = polka.OpSub
		case ir.Mul:
			op = polka.OpMul
		default:
			return nil, fmt.Errorf("operator %s in %s", v.Op, v)
		}
		left, err := ToTexpr(v.Op1)
		if err != nil {
			return nil, err
		}
		right, err := ToTexpr(v.Op2)
		if err != nil {
			return nil, err
		}
		return polka.NewBin(op, left, right), nil
	}
	return nil, fmt.Errorf("value %s of type %T", v, v)
}

// Conditions encodes `op1 cmp op2` through e = op1 - op2 as the constraints
// holding on the taken and the fall-through branch
func Conditions(c *ir.ConditionExpr) (trueC, falseC polka.Tcons, err error) {
	op1, err := ToTexpr(c.Op1)
	if err != nil {
		return trueC, falseC, err
	}
	op2, err := ToTexpr(c.Op2)
	if err != nil {
		return trueC, falseC, err
	}
	e := polka.NewBin(polka.OpSub, op1, op2)
	neg := polka.Neg{Arg: e}

	switch c.Cmp {
	case ir.EQ:
		return polka.NewTcons(polka.EQ, e), polka.NewTcons(polka.DISEQ, e), nil
	case ir.NE:
		return polka.NewTcons(polka.DISEQ, e), polka.NewTcons(polka.EQ, e), nil
	case ir.LT:
		return polka.NewTcons(polka.SUP, neg), polka.NewTcons(polka.SUPEQ, e), nil
	case ir.LE:
		return polka.NewTcons(polka.SUPEQ, neg), polka.NewTcons(polka.SUP, e), nil
	case ir.GT:
		return polka.NewTcons(polka.SUP, e), polka.NewTcons(polka.SUPEQ, neg), nil
	case ir.GE:
		return polka.NewTcons(polka.SUPEQ, e), polka.NewTcons(polka.SUP, neg), nil
	}
	return trueC, falseC, fmt.Errorf("comparison %s", c)
}
