package polka

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("frogcheck.polka")

// Abstract1 is an immutable polyhedron over an environment. Every operation
// returns a new element.
type Abstract1 struct {
	man    *Manager
	env    *Environment
	bottom bool
	cons   []linear
}

// Top is the unconstrained element
func Top(man *Manager, env *Environment) *Abstract1 {
	return &Abstract1{man: man, env: env}
}

// Bottom is the empty element
func Bottom(man *Manager, env *Environment) *Abstract1 {
	return &Abstract1{man: man, env: env, bottom: true}
}

// build canonicalizes cons: contradictions give bottom and redundant
// constraints are dropped
func (m *Manager) build(env *Environment, cons []linear) *Abstract1 {
	clean, infeasible := cleanup(cons)
	if infeasible || !feasible(clean, env.Size(), m.MaxConstraints) {
		return Bottom(m, env)
	}
	return &Abstract1{
		man:  m,
		env:  env,
		cons: removeRedundant(clean, env.Size(), m.MaxConstraints),
	}
}

// Environment returns the variables of the element
func (a *Abstract1) Environment() *Environment { return a.env }

// Manager returns the manager that built the element
func (a *Abstract1) Manager() *Manager { return a.man }

// IsBottom reports whether the element has no integer point
func (a *Abstract1) IsBottom() bool { return a.bottom }

// IsTop reports whether the element is unconstrained
func (a *Abstract1) IsTop() bool { return !a.bottom && len(a.cons) == 0 }

func (a *Abstract1) sameEnv(o *Abstract1) error {
	if !a.env.Equal(o.env) {
		return fmt.Errorf("%w: %s and %s", ErrEnvironment, a.env, o.env)
	}
	return nil
}

func (a *Abstract1) entails(c linear) bool {
	if a.bottom {
		return true
	}
	return entails(a.cons, a.env.Size(), c, a.man.MaxConstraints)
}

func (a *Abstract1) bounds(lin linear) Interval {
	if a.bottom {
		return Interval{Empty: true}
	}
	return bounds(a.cons, a.env.Size(), lin, a.man.MaxConstraints)
}

// Meet intersects two elements
func (a *Abstract1) Meet(o *Abstract1) (*Abstract1, error) {
	if err := a.sameEnv(o); err != nil {
		return nil, err
	}
	if a.bottom || o.bottom {
		return Bottom(a.man, a.env), nil
	}
	return a.man.build(a.env, append(append([]linear{}, a.cons...), o.cons...)), nil
}

// Join is the convex hull of both elements. When MaxConstraints cuts the
// hull short, the constraints of each side entailed by the other are added
// back, and with Templates so are the interval and octagonal bounds valid on
// both.
func (a *Abstract1) Join(o *Abstract1) (*Abstract1, error) {
	if err := a.sameEnv(o); err != nil {
		return nil, err
	}
	if a.bottom {
		return o, nil
	}
	if o.bottom {
		return a, nil
	}
	if leq, _ := a.IsLeq(o); leq {
		return o, nil
	}
	if leq, _ := o.IsLeq(a); leq {
		return a, nil
	}

	dims := a.env.Size()
	cons, truncated := hull(a.cons, o.cons, dims, a.man.MaxConstraints)
	if truncated {
		log.Debugf("hull over %d variables hit %d constraints", dims, a.man.MaxConstraints)
		cons = append(cons, a.common(o)...)
		switch {
		case !a.man.Templates:
		case dims > a.man.TemplateVars:
			log.Debugf("skipping template bounds over %d variables (limit %d)", dims, a.man.TemplateVars)
		default:
			cons = append(cons, a.templateBounds(o)...)
		}
	}
	return a.man.build(a.env, cons), nil
}

// common returns the constraints of each side entailed by the other
func (a *Abstract1) common(o *Abstract1) []linear {
	var cons []linear
	for _, c := range a.cons {
		if o.entails(c) {
			cons = append(cons, c)
		}
	}
	for _, c := range o.cons {
		if a.entails(c) {
			cons = append(cons, c)
		}
	}
	return cons
}

// templateBounds returns the bounds on x, x+y and x-y holding in both a and o
func (a *Abstract1) templateBounds(o *Abstract1) []linear {
	dims := a.env.Size()
	var templates []linear
	for i := 0; i < dims; i++ {
		l := zeroLinear(dims)
		l.coeffs[i].SetInt64(1)
		templates = append(templates, l)
	}
	for i := 0; i < dims; i++ {
		for j := i + 1; j < dims; j++ {
			for _, sign := range []int64{1, -1} {
				l := zeroLinear(dims)
				l.coeffs[i].SetInt64(1)
				l.coeffs[j].SetInt64(sign)
				templates = append(templates, l)
			}
		}
	}

	var out []linear
	for _, t := range templates {
		x, y := a.bounds(t), o.bounds(t)
		if x.Hi != nil && y.Hi != nil {
			// max(hi) - t >= 0
			hi := x.Hi
			if y.Hi.Cmp(hi) > 0 {
				hi = y.Hi
			}
			c := t.scale(big.NewInt(-1))
			c.cst.Set(hi)
			out = append(out, c)
		}
		if x.Lo != nil && y.Lo != nil {
			// t - min(lo) >= 0
			lo := x.Lo
			if y.Lo.Cmp(lo) < 0 {
				lo = y.Lo
			}
			c := t.scale(big.NewInt(1))
			c.cst.Neg(lo)
			out = append(out, c)
		}
	}
	return out
}

// Widening keeps the constraints of a that o satisfies, together with the
// constraints of o that could replace one of a's without changing a. o is
// expected to include a.
func (a *Abstract1) Widening(o *Abstract1) (*Abstract1, error) {
	if err := a.sameEnv(o); err != nil {
		return nil, err
	}
	if a.bottom {
		return o, nil
	}
	if o.bottom {
		return a, nil
	}
	var cons []linear
	for _, c := range a.cons {
		if o.entails(c) {
			cons = append(cons, c)
		}
	}
	for _, c := range o.cons {
		if a.interchangeable(c) {
			cons = append(cons, c)
		}
	}
	return a.man.build(a.env, cons), nil
}

// interchangeable reports whether c holds on a and swapping it for some
// constraint of a describes a again
func (a *Abstract1) interchangeable(c linear) bool {
	if !a.entails(c) {
		return false
	}
	dims := a.env.Size()
	for i, d := range a.cons {
		swapped := make([]linear, 0, len(a.cons))
		swapped = append(swapped, a.cons[:i]...)
		swapped = append(swapped, a.cons[i+1:]...)
		swapped = append(swapped, c)
		if entails(swapped, dims, d, a.man.MaxConstraints) {
			return true
		}
	}
	return false
}

// MeetTcons adds a constraint. A non-linear constraint is ignored. A
// disequality only refines the element when one side of it is already
// excluded.
func (a *Abstract1) MeetTcons(tc Tcons) (*Abstract1, error) {
	lin, err := linearize(a.env, tc.Expr)
	if errors.Is(err, ErrNonLinear) {
		return a, nil
	}
	if err != nil {
		return nil, err
	}
	if a.bottom {
		return a, nil
	}

	one := big.NewInt(1)
	var added []linear
	switch tc.Kind {
	case SUPEQ:
		added = []linear{lin}
	case SUP:
		c := lin.scale(one)
		c.cst.Sub(c.cst, one)
		added = []linear{c}
	case EQ:
		added = []linear{lin, lin.scale(big.NewInt(-1))}
	case DISEQ:
		r := a.bounds(lin)
		switch {
		case r.Empty:
			return Bottom(a.man, a.env), nil
		case r.Lo != nil && r.Hi != nil && r.Lo.Sign() == 0 && r.Hi.Sign() == 0:
			return Bottom(a.man, a.env), nil
		case r.Lo != nil && r.Lo.Sign() == 0:
			c := lin.scale(one)
			c.cst.Sub(c.cst, one)
			added = []linear{c}
		case r.Hi != nil && r.Hi.Sign() == 0:
			c := lin.scale(big.NewInt(-1))
			c.cst.Sub(c.cst, one)
			added = []linear{c}
		default:
			return a, nil
		}
	}
	return a.man.build(a.env, append(append([]linear{}, a.cons...), added...)), nil
}

// Assign sets v to e. A non-linear e leaves v unconstrained.
func (a *Abstract1) Assign(v string, e Texpr) (*Abstract1, error) {
	k, err := a.env.dim(v)
	if err != nil {
		return nil, err
	}
	lin, err := linearize(a.env, e)
	if errors.Is(err, ErrNonLinear) {
		return a.Forget(v)
	}
	if err != nil {
		return nil, err
	}
	if a.bottom {
		return a, nil
	}

	// t = e over a fresh last column, then drop v and rename t to v
	dims := a.env.Size()
	ext := make([]linear, 0, len(a.cons)+2)
	for _, c := range a.cons {
		ext = append(ext, extend(c, 1))
	}
	upper := extend(lin.scale(big.NewInt(-1)), 1)
	upper.coeffs[dims].SetInt64(1)
	lower := extend(lin, 1)
	lower.coeffs[dims].SetInt64(-1)
	ext = append(ext, upper, lower)

	rest, infeasible := eliminateDim(ext, k, a.man.MaxConstraints)
	if infeasible {
		return Bottom(a.man, a.env), nil
	}
	cons := make([]linear, len(rest))
	for i, c := range rest {
		out := zeroLinear(dims)
		for j := 0; j < dims; j++ {
			out.coeffs[j].Set(c.coeffs[j])
		}
		out.coeffs[k].Set(c.coeffs[dims])
		out.cst.Set(c.cst)
		cons[i] = out
	}
	return a.man.build(a.env, cons), nil
}

// Forget removes every constraint on v
func (a *Abstract1) Forget(v string) (*Abstract1, error) {
	k, err := a.env.dim(v)
	if err != nil {
		return nil, err
	}
	if a.bottom {
		return a, nil
	}
	rest, infeasible := eliminateDim(a.cons, k, a.man.MaxConstraints)
	if infeasible {
		return Bottom(a.man, a.env), nil
	}
	return a.man.build(a.env, rest), nil
}

func eliminateDim(cons []linear, k, limit int) ([]linear, bool) {
	clean, infeasible := cleanup(cons)
	if infeasible {
		return nil, true
	}
	return eliminate(clean, k, limit)
}

// IsLeq reports whether a is included in o
func (a *Abstract1) IsLeq(o *Abstract1) (bool, error) {
	if err := a.sameEnv(o); err != nil {
		return false, err
	}
	if a.bottom {
		return true, nil
	}
	if o.bottom {
		return false, nil
	}
	for _, c := range o.cons {
		if !a.entails(c) {
			return false, nil
		}
	}
	return true, nil
}

// IsEqual reports whether both elements have the same integer points.
// Identical constraint sets are equal outright; otherwise inclusion is
// decided by entailment, which can answer false for equal elements when
// MaxConstraints truncates an elimination.
func (a *Abstract1) IsEqual(o *Abstract1) (bool, error) {
	if err := a.sameEnv(o); err != nil {
		return false, err
	}
	if a.bottom || o.bottom {
		return a.bottom == o.bottom, nil
	}
	if a.sameConstraints(o) {
		return true, nil
	}
	leq, err := a.IsLeq(o)
	if err != nil || !leq {
		return false, err
	}
	return o.IsLeq(a)
}

func (a *Abstract1) sameConstraints(o *Abstract1) bool {
	if len(a.cons) != len(o.cons) {
		return false
	}
	set := make(map[string]bool, len(a.cons))
	for _, c := range a.cons {
		set[key(c)+";"+c.cst.String()] = true
	}
	for _, c := range o.cons {
		if !set[key(c)+";"+c.cst.String()] {
			return false
		}
	}
	return true
}

// Satisfy reports whether every point of a satisfies tc. The empty element
// satisfies everything.
func (a *Abstract1) Satisfy(tc Tcons) (bool, error) {
	lin, err := linearize(a.env, tc.Expr)
	if err != nil {
		return false, err
	}
	if a.bottom {
		return true, nil
	}
	r := a.bounds(lin)
	if r.Empty {
		return true, nil
	}
	switch tc.Kind {
	case SUPEQ:
		return r.Lo != nil && r.Lo.Sign() >= 0, nil
	case SUP:
		return r.Lo != nil && r.Lo.Sign() > 0, nil
	case EQ:
		return r.Lo != nil && r.Hi != nil && r.Lo.Sign() == 0 && r.Hi.Sign() == 0, nil
	case DISEQ:
		return (r.Hi != nil && r.Hi.Sign() < 0) || (r.Lo != nil && r.Lo.Sign() > 0), nil
	}
	return false, fmt.Errorf("polka: unknown constraint kind %d", tc.Kind)
}

// Bound returns the range of e over a. Non-linear expressions are unbounded.
func (a *Abstract1) Bound(e Texpr) (Interval, error) {
	lin, err := linearize(a.env, e)
	if errors.Is(err, ErrNonLinear) {
		if a.bottom {
			return Interval{Empty: true}, nil
		}
		return Interval{}, nil
	}
	if err != nil {
		return Interval{}, err
	}
	return a.bounds(lin), nil
}

// String prints the constraints in the form `-x + 10 >= 0`, pairing
// opposite inequalities into equalities
func (a *Abstract1) String() string {
	if a.bottom {
		return "<empty>"
	}
	if len(a.cons) == 0 {
		return "<universal>"
	}

	vars := a.env.vars
	done := make(map[int]bool)
	var parts []string
	for i, c := range a.cons {
		if done[i] {
			continue
		}
		op := ">="
		for j := i + 1; j < len(a.cons); j++ {
			if !done[j] && key(a.cons[j]) == negatedKey(c) &&
				new(big.Int).Add(c.cst, a.cons[j].cst).Sign() == 0 {
				done[j] = true
				op = "="
			}
		}
		parts = append(parts, formatLinear(c, vars)+" "+op+" 0")
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func formatLinear(c linear, vars []string) string {
	var sb strings.Builder
	for i, a := range c.coeffs {
		if a.Sign() == 0 {
			continue
		}
		abs := new(big.Int).Abs(a)
		switch {
		case sb.Len() == 0 && a.Sign() < 0:
			sb.WriteString("-")
		case sb.Len() > 0 && a.Sign() < 0:
			sb.WriteString(" - ")
		case sb.Len() > 0:
			sb.WriteString(" + ")
		}
		if !abs.IsInt64() || abs.Int64() != 1 {
			sb.WriteString(abs.String())
		}
		sb.WriteString(vars[i])
	}
	switch {
	case sb.Len() == 0:
		sb.WriteString(c.cst.String())
	case c.cst.Sign() > 0:
		sb.WriteString(" + " + c.cst.String())
	case c.cst.Sign() < 0:
		sb.WriteString(" - " + new(big.Int).Abs(c.cst).String())
	}
	return sb.String()
}
