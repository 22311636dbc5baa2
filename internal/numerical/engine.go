package numerical

import (
	"github.com/bits-and-blooms/bitset"

	"frogcheck/internal/ir"
)

// Transfer is a forward dataflow problem whose units may send different
// facts along their fall-through and branch edges
type Transfer[F any] interface {
	NewInitialFlow() F
	EntryInitialFlow() F
	// Merge combines two facts arriving at u
	Merge(u *ir.Unit, a, b F) (F, error)
	// FlowThrough returns the facts after u on its fall and branch edges
	FlowThrough(in F, u *ir.Unit) (fall, branch F, err error)
	Copy(f F) F
	Equal(a, b F) bool
}

// Flows holds the facts of a solved problem, indexed by unit
type Flows[F any] struct {
	Before []F
	Fall   []F
	Branch []F
}

// Solve iterates t over g until no out fact changes. Units are visited in
// reverse postorder first; unreachable units follow in body order and keep
// the initial fact on their edges.
func Solve[F any](g *ir.CFG, t Transfer[F]) (*Flows[F], error) {
	units := g.Units()
	n := len(units)
	flows := &Flows[F]{
		Before: make([]F, n),
		Fall:   make([]F, n),
		Branch: make([]F, n),
	}
	for i := range units {
		flows.Before[i] = t.NewInitialFlow()
		flows.Fall[i] = t.NewInitialFlow()
		flows.Branch[i] = t.NewInitialFlow()
	}

	// order[k] is the unit with priority k; lower priorities run first
	order := make([]*ir.Unit, 0, n)
	priority := make([]uint, n)
	order = append(order, g.ReversePostorder()...)
	for _, u := range units {
		if !g.Reachable(u) {
			order = append(order, u)
		}
	}
	for k, u := range order {
		priority[u.Index] = uint(k)
	}

	worklist := bitset.New(uint(n)).FlipRange(0, uint(n))
	for {
		k, ok := worklist.NextSet(0)
		if !ok {
			break
		}
		worklist.Clear(k)
		u := order[k]

		in, err := mergeInto(g, t, flows, u)
		if err != nil {
			return nil, err
		}
		flows.Before[u.Index] = in

		fall, branch, err := t.FlowThrough(t.Copy(in), u)
		if err != nil {
			return nil, err
		}
		changed := !t.Equal(fall, flows.Fall[u.Index]) || !t.Equal(branch, flows.Branch[u.Index])
		flows.Fall[u.Index] = fall
		flows.Branch[u.Index] = branch

		if changed {
			for _, e := range g.Succs(u) {
				worklist.Set(priority[e.To.Index])
			}
		}
	}
	return flows, nil
}

// mergeInto folds the facts on the incoming edges of u, starting from the
// entry fact at the entry unit
func mergeInto[F any](g *ir.CFG, t Transfer[F], flows *Flows[F], u *ir.Unit) (F, error) {
	var acc F
	have := false
	if g.IsEntry(u) {
		acc, have = t.EntryInitialFlow(), true
	}
	for _, e := range g.Preds(u) {
		out := flows.Fall[e.From.Index]
		if e.Branch {
			out = flows.Branch[e.From.Index]
		}
		if !have {
			acc, have = t.Copy(out), true
			continue
		}
		var err error
		if acc, err = t.Merge(u, acc, out); err != nil {
			return acc, err
		}
	}
	if !have {
		acc = t.NewInitialFlow()
	}
	return acc, nil
}
