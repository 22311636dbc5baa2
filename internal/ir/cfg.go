package ir

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Edge is a control flow edge. Branch edges leave a conditional or a goto
// through its target; everything else falls through to the next unit.
type Edge struct {
	From, To *Unit
	Branch   bool
}

// Loop is a natural loop: the head and every unit that reaches a back edge
// source without passing through the head.
type Loop struct {
	Head      *Unit
	Body      []*Unit // sorted by index, head included
	BackEdges []*Unit // sources of the edges into Head
	members   *bitset.BitSet
}

// Contains reports whether u belongs to the loop body
func (l *Loop) Contains(u *Unit) bool {
	return l.members.Test(uint(u.Index))
}

// CFG is the unit graph of one method body
type CFG struct {
	units []*Unit
	succs [][]Edge
	preds [][]Edge

	rpo      []*Unit
	rpoIndex []int
	dom      []*bitset.BitSet
	loops    []*Loop
	heads    map[*Unit]bool
}

// NewCFG builds the graph, dominators and loops of m
func NewCFG(m *Method) *CFG {
	n := len(m.Units)
	g := &CFG{
		units: m.Units,
		succs: make([][]Edge, n),
		preds: make([][]Edge, n),
		heads: make(map[*Unit]bool),
	}

	for i, u := range m.Units {
		if u.FallsThrough() && i+1 < n {
			g.addEdge(Edge{From: u, To: m.Units[i+1]})
		}
		if u.Target != nil {
			g.addEdge(Edge{From: u, To: u.Target, Branch: true})
		}
	}

	g.computeOrder()
	g.computeDominators()
	g.computeLoops()
	return g
}

func (g *CFG) addEdge(e Edge) {
	g.succs[e.From.Index] = append(g.succs[e.From.Index], e)
	g.preds[e.To.Index] = append(g.preds[e.To.Index], e)
}

// Units returns the units in body order
func (g *CFG) Units() []*Unit { return g.units }

// Heads returns the entry points of the graph
func (g *CFG) Heads() []*Unit {
	if len(g.units) == 0 {
		return nil
	}
	return g.units[:1]
}

// IsEntry reports whether u is an entry point
func (g *CFG) IsEntry(u *Unit) bool {
	return len(g.units) > 0 && g.units[0] == u
}

// Succs returns the outgoing edges of u, fall edge first
func (g *CFG) Succs(u *Unit) []Edge { return g.succs[u.Index] }

// Preds returns the incoming edges of u
func (g *CFG) Preds(u *Unit) []Edge { return g.preds[u.Index] }

// FallSucc returns the fall-through successor, or nil
func (g *CFG) FallSucc(u *Unit) *Unit {
	for _, e := range g.succs[u.Index] {
		if !e.Branch {
			return e.To
		}
	}
	return nil
}

// BranchSucc returns the branch target, or nil
func (g *CFG) BranchSucc(u *Unit) *Unit {
	for _, e := range g.succs[u.Index] {
		if e.Branch {
			return e.To
		}
	}
	return nil
}

// ReversePostorder returns the units reachable from the entry in reverse
// postorder of a depth-first search that visits fall edges first
func (g *CFG) ReversePostorder() []*Unit { return g.rpo }

// RPOIndex is the position of u in ReversePostorder, or -1 when unreachable
func (g *CFG) RPOIndex(u *Unit) int { return g.rpoIndex[u.Index] }

// Reachable reports whether u can be reached from the entry
func (g *CFG) Reachable(u *Unit) bool { return g.rpoIndex[u.Index] >= 0 }

// Dominates reports whether every path from the entry to b passes through a
func (g *CFG) Dominates(a, b *Unit) bool {
	return g.dom[b.Index].Test(uint(a.Index))
}

// Loops returns the natural loops, one per head, ordered by head index
func (g *CFG) Loops() []*Loop { return g.loops }

// LoopHeads returns the heads of all natural loops
func (g *CFG) LoopHeads() []*Unit {
	heads := make([]*Unit, len(g.loops))
	for i, l := range g.loops {
		heads[i] = l.Head
	}
	return heads
}

// IsLoopHead reports whether u heads a natural loop
func (g *CFG) IsLoopHead(u *Unit) bool { return g.heads[u] }

func (g *CFG) computeOrder() {
	n := len(g.units)
	g.rpoIndex = make([]int, n)
	for i := range g.rpoIndex {
		g.rpoIndex[i] = -1
	}
	if n == 0 {
		return
	}

	visited := bitset.New(uint(n))
	var post []*Unit
	var visit func(u *Unit)
	visit = func(u *Unit) {
		visited.Set(uint(u.Index))
		for _, e := range g.succs[u.Index] {
			if !visited.Test(uint(e.To.Index)) {
				visit(e.To)
			}
		}
		post = append(post, u)
	}
	visit(g.units[0])

	g.rpo = make([]*Unit, len(post))
	for i, u := range post {
		j := len(post) - 1 - i
		g.rpo[j] = u
		g.rpoIndex[u.Index] = j
	}
}

// computeDominators iterates dom(n) = {n} ∪ ⋂ dom(p) over reachable preds
// until stable. Unreachable units keep the full set.
func (g *CFG) computeDominators() {
	n := uint(len(g.units))
	g.dom = make([]*bitset.BitSet, n)
	for i := range g.dom {
		g.dom[i] = bitset.New(n).FlipRange(0, n)
	}
	if n == 0 {
		return
	}

	entry := g.units[0]
	g.dom[entry.Index] = bitset.New(n).Set(uint(entry.Index))

	for changed := true; changed; {
		changed = false
		for _, u := range g.rpo {
			if u == entry {
				continue
			}
			next := bitset.New(n).FlipRange(0, n)
			for _, e := range g.preds[u.Index] {
				if g.Reachable(e.From) {
					next.InPlaceIntersection(g.dom[e.From.Index])
				}
			}
			next.Set(uint(u.Index))
			if !next.Equal(g.dom[u.Index]) {
				g.dom[u.Index] = next
				changed = true
			}
		}
	}
}

func (g *CFG) computeLoops() {
	byHead := map[*Unit]*Loop{}

	for _, u := range g.rpo {
		for _, e := range g.succs[u.Index] {
			if !g.Dominates(e.To, u) {
				continue
			}
			l, ok := byHead[e.To]
			if !ok {
				l = &Loop{Head: e.To, members: bitset.New(uint(len(g.units))).Set(uint(e.To.Index))}
				byHead[e.To] = l
			}
			l.BackEdges = append(l.BackEdges, u)
			g.collectBody(l, u)
		}
	}

	for head, l := range byHead {
		for i, ok := l.members.NextSet(0); ok; i, ok = l.members.NextSet(i + 1) {
			l.Body = append(l.Body, g.units[i])
		}
		g.loops = append(g.loops, l)
		g.heads[head] = true
	}
	sort.Slice(g.loops, func(i, j int) bool {
		return g.loops[i].Head.Index < g.loops[j].Head.Index
	})
}

// collectBody adds every unit that reaches tail backwards without crossing the head
func (g *CFG) collectBody(l *Loop, tail *Unit) {
	stack := []*Unit{tail}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if l.members.Test(uint(u.Index)) {
			continue
		}
		l.members.Set(uint(u.Index))
		for _, e := range g.preds[u.Index] {
			if g.Reachable(e.From) {
				stack = append(stack, e.From)
			}
		}
	}
}
