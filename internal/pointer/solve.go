package pointer

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/twmb/algoimpl/go/graph"

	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
)

// solve computes inclusion-based points-to sets for the Frog locals of m.
// `r = new Frog` seeds r with the site initialized by the constructor call
// on r that follows; `a = b` adds the subset edge b -> a. Cycles of copies
// always share one set, so strongly connected components of the constraint
// graph are collapsed before propagating.
func solve(m *ir.Method, perUnit map[*ir.Unit]*FrogInitializer) (map[*ir.Local][]*FrogInitializer, error) {
	g := graph.New(graph.Directed)
	nodes := make(map[*ir.Local]graph.Node)
	node := func(l *ir.Local) graph.Node {
		n, ok := nodes[l]
		if !ok {
			n = g.MakeNode()
			*n.Value = l
			nodes[l] = n
		}
		return n
	}

	seeds := make(map[*ir.Local]*bitset.BitSet)
	sites := make(map[uint]*FrogInitializer)

	for _, u := range m.Units {
		if u.Kind != ir.AssignStmt {
			continue
		}
		left, ok := u.Left.(*ir.Local)
		if !ok || left.Type != ir.FrogType {
			continue
		}
		node(left)

		switch right := u.Right.(type) {
		case ir.NewExpr:
			fi := initializerOf(m, u, left, perUnit)
			if fi == nil {
				return nil, errors.Unsupported("pointer", m.Name, u.Pos,
					"allocation %s is never initialized", u)
			}
			if seeds[left] == nil {
				seeds[left] = bitset.New(0)
			}
			seeds[left].Set(uint(fi.ID))
			sites[uint(fi.ID)] = fi
		case *ir.Local:
			if err := g.MakeEdge(node(right), node(left)); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Unsupported("pointer", m.Name, u.Pos,
				"Frog assignment from %s", u.Right)
		}
	}

	// collapse cycles: every local in a component maps to the component index
	components := g.StronglyConnectedComponents()
	componentOf := make(map[*ir.Local]int, len(nodes))
	for i, c := range components {
		for _, n := range c {
			componentOf[(*n.Value).(*ir.Local)] = i
		}
	}

	sets := make([]*bitset.BitSet, len(components))
	succs := make([]map[int]bool, len(components))
	for i := range components {
		sets[i] = bitset.New(0)
		succs[i] = make(map[int]bool)
	}
	for local, seed := range seeds {
		sets[componentOf[local]].InPlaceUnion(seed)
	}
	for local, n := range nodes {
		from := componentOf[local]
		for _, succ := range g.Neighbors(n) {
			to := componentOf[(*succ.Value).(*ir.Local)]
			if to != from {
				succs[from][to] = true
			}
		}
	}

	worklist := bitset.New(uint(len(components))).FlipRange(0, uint(len(components)))
	for {
		i, ok := worklist.NextSet(0)
		if !ok {
			break
		}
		worklist.Clear(i)
		for to := range succs[i] {
			before := sets[to].Count()
			sets[to].InPlaceUnion(sets[i])
			if sets[to].Count() != before {
				worklist.Set(uint(to))
			}
		}
	}

	result := make(map[*ir.Local][]*FrogInitializer, len(nodes))
	for local := range nodes {
		set := sets[componentOf[local]]
		out := make([]*FrogInitializer, 0, set.Count())
		for id, ok := set.NextSet(0); ok; id, ok = set.NextSet(id + 1) {
			out = append(out, sites[id])
		}
		sortByID(out)
		result[local] = out
		log.Debugf("%s.%s: %s -> %v", m.Class, m.Name, local, out)
	}
	return result, nil
}

// initializerOf finds the constructor call on left that follows the
// allocation at u, before left is reassigned or control leaves the sequence
func initializerOf(m *ir.Method, u *ir.Unit, left *ir.Local, perUnit map[*ir.Unit]*FrogInitializer) *FrogInitializer {
	for _, next := range m.Units[u.Index+1:] {
		if next.IsFrogInit() && next.Invoke.Base == left {
			return perUnit[next]
		}
		if next.Kind != ir.AssignStmt && next.Kind != ir.InvokeStmt {
			return nil
		}
		if next.Left == ir.Value(left) {
			return nil
		}
	}
	return nil
}
