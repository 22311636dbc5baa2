package numerical

import (
	"frogcheck/internal/polka"
)

// State is the abstract state at one program point. States are immutable;
// operations return new ones.
type State struct {
	elem *polka.Abstract1
}

// Top is the state without constraints
func Top(man *polka.Manager, env *polka.Environment) State {
	return State{elem: polka.Top(man, env)}
}

// Bottom is the state of unreachable code
func Bottom(man *polka.Manager, env *polka.Environment) State {
	return State{elem: polka.Bottom(man, env)}
}

// Element exposes the underlying polyhedron
func (s State) Element() *polka.Abstract1 { return s.elem }

// Copy returns s; sharing is safe since states never change
func (s State) Copy() State { return s }

func (s State) IsBottom() bool { return s.elem.IsBottom() }

func (s State) IsTop() bool { return s.elem.IsTop() }

func (s State) Join(o State) (State, error) {
	elem, err := s.elem.Join(o.elem)
	return State{elem: elem}, err
}

func (s State) Widening(o State) (State, error) {
	elem, err := s.elem.Widening(o.elem)
	return State{elem: elem}, err
}

// Meet intersects s with a constraint
func (s State) Meet(c polka.Tcons) (State, error) {
	elem, err := s.elem.MeetTcons(c)
	return State{elem: elem}, err
}

// Assign is a strong update of v
func (s State) Assign(v string, e polka.Texpr) (State, error) {
	elem, err := s.elem.Assign(v, e)
	return State{elem: elem}, err
}

func (s State) Satisfy(c polka.Tcons) (bool, error) {
	return s.elem.Satisfy(c)
}

func (s State) Bound(e polka.Texpr) (polka.Interval, error) {
	return s.elem.Bound(e)
}

// Equal compares the points of both states. Mismatched environments are
// never equal. Identical constraint sets compare equal directly; beyond that
// the answer rests on entailment, which a truncated elimination can turn
// into a false "different" and so cost extra fixpoint iterations.
func (s State) Equal(o State) bool {
	if s.elem == o.elem {
		return true
	}
	eq, err := s.elem.IsEqual(o.elem)
	return err == nil && eq
}

func (s State) String() string {
	return s.elem.String()
}
