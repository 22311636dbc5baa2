// Package numerical computes, for every unit of a method, a polyhedron
// over-approximating the integer locals before the unit runs.
package numerical

import (
	stderrors "errors"
	"fmt"

	"github.com/tliron/commonlog"

	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
	"frogcheck/internal/pointer"
	"frogcheck/internal/polka"
	"frogcheck/internal/property"
)

var log = commonlog.GetLogger("frogcheck.numerical")

// WideningThreshold is the merge count at a loop head from which merges are
// widened
const WideningThreshold = 6

// Analysis is the fixpoint of one method for one property
type Analysis struct {
	method   *ir.Method
	property property.Property
	pointsTo *pointer.PointsTo
	man      *polka.Manager
	env      *polka.Environment

	// merge count and last widened state per loop head
	counts map[*ir.Unit]int
	priors map[*ir.Unit]State

	flows *Flows[State]
}

// New analyzes m. A nil manager selects the default one.
func New(m *ir.Method, prop property.Property, pt *pointer.PointsTo, man *polka.Manager) (*Analysis, error) {
	if man == nil {
		man = polka.NewManager()
	}
	a := &Analysis{
		method:   m,
		property: prop,
		pointsTo: pt,
		man:      man,
		env:      NewEnvironment(m, prop),
		counts:   make(map[*ir.Unit]int),
		priors:   make(map[*ir.Unit]State),
	}

	g := m.CFG()
	for _, head := range g.LoopHeads() {
		a.counts[head] = 0
	}

	log.Infof("analyzing %s in %s for %s", m.Name, m.Class, prop)
	flows, err := Solve[State](g, a)
	if err != nil {
		return nil, err
	}
	a.flows = flows
	return a, nil
}

// Method returns the analyzed method
func (a *Analysis) Method() *ir.Method { return a.method }

// Env returns the variables of the states
func (a *Analysis) Env() *polka.Environment { return a.env }

// Manager returns the domain manager used by the analysis
func (a *Analysis) Manager() *polka.Manager { return a.man }

// FlowBefore returns the state before u
func (a *Analysis) FlowBefore(u *ir.Unit) State {
	return a.flows.Before[u.Index]
}

// FlowAfter returns the states leaving u on its fall and branch edges
func (a *Analysis) FlowAfter(u *ir.Unit) (fall, branch State) {
	return a.flows.Fall[u.Index], a.flows.Branch[u.Index]
}

// MergeCount returns how often the state at a loop head was merged
func (a *Analysis) MergeCount(head *ir.Unit) int {
	return a.counts[head]
}

func (a *Analysis) NewInitialFlow() State {
	return Bottom(a.man, a.env)
}

// EntryInitialFlow is top, with the ghosts at zero for the overall profit
func (a *Analysis) EntryInitialFlow() State {
	s := Top(a.man, a.env)
	if a.property != property.OverallProfit {
		return s
	}
	zero := polka.NewCst(0)
	for _, ghost := range []string{GhostProfit, GhostSnapshot} {
		next, err := s.Assign(ghost, zero)
		if err != nil {
			log.Errorf("%s: cannot zero %s: %s", a.method.Name, ghost, err)
			return s
		}
		s = next
	}
	return s
}

func (a *Analysis) Copy(s State) State { return s.Copy() }

func (a *Analysis) Equal(x, y State) bool { return x.Equal(y) }

// Merge joins two incoming states. At a loop head that has been merged
// WideningThreshold times or more, the result is the widening of the prior
// state with its join with the merged state, and becomes the new prior.
func (a *Analysis) Merge(u *ir.Unit, x, y State) (State, error) {
	merged, err := x.Join(y)
	if err != nil {
		return merged, a.domainFailure(u, err)
	}

	prior, seen := a.priors[u]
	if !seen {
		a.priors[u] = merged
		prior = merged
	}

	count, head := a.counts[u]
	if !head {
		return merged, nil
	}
	count++
	a.counts[u] = count
	if count < WideningThreshold {
		return merged, nil
	}

	joined, err := prior.Join(merged)
	if err != nil {
		return merged, a.domainFailure(u, err)
	}
	widened, err := prior.Widening(joined)
	if err != nil {
		return merged, a.domainFailure(u, err)
	}
	log.Debugf("%s: widening at %s (merge %d): %s", a.method.Name, u, count, widened)
	a.priors[u] = widened
	return widened, nil
}

// FlowThrough applies the effect of u. Both out states start from in; only
// conditionals make them differ.
func (a *Analysis) FlowThrough(in State, u *ir.Unit) (fall, branch State, err error) {
	fall, branch = in.Copy(), in.Copy()

	switch u.Kind {
	case ir.IdentityStmt:
		// parameters start unconstrained
		if l, ok := u.Left.(*ir.Local); ok && l.Type == ir.DoubleType {
			return fall, branch, a.unsupported(u, "assignment to double %s", l)
		}

	case ir.AssignStmt:
		fall, err = a.assign(in, u)

	case ir.IfStmt:
		var trueC, falseC polka.Tcons
		trueC, falseC, err = Conditions(u.Cond)
		if err != nil {
			return fall, branch, a.unsupported(u, "condition %s: %s", u.Cond, err)
		}
		if branch, err = in.Meet(trueC); err != nil {
			return fall, branch, a.domainFailure(u, err)
		}
		if fall, err = in.Meet(falseC); err != nil {
			return fall, branch, a.domainFailure(u, err)
		}

	case ir.InvokeStmt:
		switch {
		case u.IsSell():
			fall, err = a.sell(in, u)
		case u.IsFrogInit():
			// constructors are modeled by the points-to analysis
		default:
			err = a.unsupported(u, "invocation %s", u.Invoke)
		}

	case ir.GotoStmt, ir.ReturnVoidStmt, ir.NopStmt:

	default:
		err = a.unsupported(u, "statement %s", u)
	}
	if err != nil {
		return fall, branch, err
	}

	log.Debugf("%s: %s %s =>[fall] %s", a.method.Name, in, u, fall)
	if u.Kind == ir.IfStmt {
		log.Debugf("%s: %s %s =>[branch] %s", a.method.Name, in, u, branch)
	}
	return fall, branch, nil
}

func (a *Analysis) assign(in State, u *ir.Unit) (State, error) {
	left, ok := u.Left.(*ir.Local)
	if !ok {
		return in, a.unsupported(u, "assignment to field %s", u.Left)
	}
	switch left.Type {
	case ir.FrogType:
		// reference copies are handled by the points-to analysis
		return in, nil
	case ir.DoubleType:
		return in, a.unsupported(u, "assignment to double %s", left)
	}

	e, err := ToTexpr(u.Right)
	if err != nil {
		return in, a.unsupported(u, "right-hand side of %s: %s", u, err)
	}
	out, err := in.Assign(left.Name, e)
	if err != nil {
		return in, a.domainFailure(u, err)
	}
	return out, nil
}

// sell adds price - maxCost to the profit ghost, going through the snapshot
// so that the update never reads the variable it writes
func (a *Analysis) sell(in State, u *ir.Unit) (State, error) {
	if a.property != property.OverallProfit || in.IsBottom() {
		return in, nil
	}

	receiver := u.Invoke.Base
	maxCost, ok := a.pointsTo.MaxCost(a.method.Name, receiver)
	if !ok {
		return in, errors.InconsistentPointsTo(a.method.Name, receiver.Name, u.Pos)
	}
	if len(u.Invoke.Args) != 1 {
		return in, a.unsupported(u, "sell with %d arguments", len(u.Invoke.Args))
	}
	price, err := ToTexpr(u.Invoke.Args[0])
	if err != nil {
		return in, a.unsupported(u, "sell price %s: %s", u.Invoke.Args[0], err)
	}

	out, err := in.Assign(GhostSnapshot, polka.NewVar(GhostProfit))
	if err != nil {
		return in, a.domainFailure(u, err)
	}
	gain := polka.NewBin(polka.OpSub, price, polka.NewCst(maxCost))
	out, err = out.Assign(GhostProfit, polka.NewBin(polka.OpAdd, gain, polka.NewVar(GhostSnapshot)))
	if err != nil {
		return in, a.domainFailure(u, err)
	}
	if r, err := out.Bound(polka.NewVar(GhostProfit)); err == nil {
		log.Debugf("%s: %s after %s", a.method.Name, GhostProfit, r)
	}
	return out, nil
}

func (a *Analysis) unsupported(u *ir.Unit, format string, args ...any) error {
	err := errors.Unsupported("numerical", a.method.Name, u.Pos, format, args...)
	log.Errorf("%s", err)
	return err
}

func (a *Analysis) domainFailure(u *ir.Unit, cause error) error {
	var analysisErr *errors.AnalysisError
	if stderrors.As(cause, &analysisErr) {
		return cause
	}
	return errors.DomainFailure(a.method.Name, u.Pos, fmt.Errorf("at %s: %w", u, cause))
}
