package semantic

import (
	"fmt"
	"math"
	"strconv"

	"frogcheck/grammar"
	"frogcheck/internal/errors"
)

// analyzeExpr returns the type of e, or "" once an error has been reported
func (a *Analyzer) analyzeExpr(e *grammar.Expr) string {
	t := a.analyzeTerm(e.Left)
	for _, tail := range e.Tail {
		t = a.arithmetic(t, tail.Operator, a.analyzeTerm(tail.Term), tail.Pos)
	}
	return t
}

func (a *Analyzer) analyzeTerm(term *grammar.Term) string {
	t := a.analyzeFactor(term.Left)
	for _, tail := range term.Tail {
		t = a.arithmetic(t, tail.Operator, a.analyzeFactor(tail.Factor), tail.Pos)
	}
	return t
}

func (a *Analyzer) arithmetic(left, op, right string, pos errors.Position) string {
	if left == "" || right == "" {
		return ""
	}
	if left == typeFrog || right == typeFrog {
		a.addError(errors.ErrorTypeMismatch,
			fmt.Sprintf("operator %s is not defined on %s and %s", op, left, right), pos)
		return ""
	}
	if left == typeDouble || right == typeDouble {
		return typeDouble
	}
	return typeInt
}

func (a *Analyzer) analyzeFactor(f *grammar.Factor) string {
	switch {
	case f.Neg != nil:
		if f.Neg.Number != nil {
			a.checkIntLiteral(f.Neg.Number, true, f.Pos)
			return typeInt
		}
		t := a.analyzeFactor(f.Neg)
		if t == typeFrog {
			a.addCompilerError(errors.TypeMismatch(typeInt, t, f.Pos))
			return ""
		}
		return t

	case f.New != nil:
		return a.analyzeNew(f.New)

	case f.Number != nil:
		a.checkIntLiteral(f.Number, false, f.Pos)
		return typeInt

	case f.Ident != nil:
		symbol := a.symbols.Lookup(*f.Ident)
		if symbol == nil {
			a.addCompilerError(errors.UndefinedVariable(*f.Ident, f.Pos, a.symbols.Names()))
			return ""
		}
		a.requireInitialized(symbol, f.Pos)
		return symbol.Type

	case f.Parens != nil:
		return a.analyzeExpr(f.Parens)
	}
	return ""
}

func (a *Analyzer) checkIntLiteral(literal *string, negated bool, pos errors.Position) {
	n, err := strconv.ParseInt(*literal, 10, 64)
	limit := int64(math.MaxInt32)
	if negated {
		limit++
	}
	if err != nil || n > limit {
		text := *literal
		if negated {
			text = "-" + text
		}
		a.addCompilerError(errors.NumericOverflow(text, pos))
	}
}

// analyzeNew accepts only `new Frog(k)` with k an integer literal, optionally
// negated, so that every allocation site carries a constant production cost
func (a *Analyzer) analyzeNew(n *grammar.NewExpr) string {
	if n.Class != typeFrog {
		a.addCompilerError(errors.InvalidAllocation(
			fmt.Sprintf("cannot allocate '%s', only Frog objects are supported", n.Class), n.Pos))
		for _, arg := range n.Args {
			a.analyzeExpr(arg)
		}
		return ""
	}

	if len(n.Args) != 1 {
		a.addCompilerError(errors.InvalidArguments("Frog constructor", 1, len(n.Args), n.Pos))
		return typeFrog
	}

	arg := n.Args[0]
	a.analyzeExpr(arg)
	if !isIntLiteral(arg) {
		a.addCompilerError(errors.InvalidAllocation(
			fmt.Sprintf("production cost '%s' is not an integer literal", arg), arg.Pos))
	}
	return typeFrog
}

func isIntLiteral(e *grammar.Expr) bool {
	if len(e.Tail) > 0 || len(e.Left.Tail) > 0 {
		return false
	}
	f := e.Left.Left
	for f.Parens != nil && len(f.Parens.Tail) == 0 && len(f.Parens.Left.Tail) == 0 {
		f = f.Parens.Left.Left
	}
	if f.Neg != nil {
		f = f.Neg
	}
	return f.Number != nil
}
