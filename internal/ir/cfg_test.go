package ir

import "testing"

func TestCFGEdges(t *testing.T) {
	m := lower(t, `class C { void m(int a) { Frog f = new Frog(10); if (a >= 0) f.sell(a); } }`).Method("m")
	g := m.CFG()

	branch := m.Units[4]
	if g.FallSucc(branch) != m.Units[5] {
		t.Error("if should fall through to the sell")
	}
	if g.BranchSucc(branch) != m.Units[6] {
		t.Error("if should branch to the return")
	}
	if len(g.Preds(m.Units[6])) != 2 {
		t.Errorf("return should have two preds, got %d", len(g.Preds(m.Units[6])))
	}
	if len(g.Succs(m.Last())) != 0 {
		t.Error("return should have no successors")
	}
	if len(g.Heads()) != 1 || !g.IsEntry(m.Units[0]) {
		t.Error("first unit should be the only head")
	}
	if len(g.LoopHeads()) != 0 {
		t.Error("straight-line code has no loops")
	}
}

func TestCFGGotoHasOnlyBranch(t *testing.T) {
	m := lower(t, `class C { void m() { int x = 0; while (x < 1) { x = x + 1; } } }`).Method("m")
	g := m.CFG()

	back := m.Units[3]
	if back.Kind != GotoStmt {
		t.Fatalf("unit 3 should be the back edge goto, got %s", back)
	}
	if g.FallSucc(back) != nil {
		t.Error("goto should not fall through")
	}
	if g.BranchSucc(back) != m.Units[1] {
		t.Error("goto should jump to the loop head")
	}
}

func TestCFGNestedLoops(t *testing.T) {
	m := lower(t, `class C { void m() { int i = 0; while (i < 3) { int j = 0; while (j < i) { j = j + 1; } i = i + 1; } } }`).Method("m")
	g := m.CFG()

	loops := g.Loops()
	if len(loops) != 2 {
		t.Fatalf("expected 2 loops, got %d", len(loops))
	}
	outer, inner := loops[0], loops[1]
	if outer.Head != m.Units[1] || inner.Head != m.Units[3] {
		t.Errorf("unexpected heads %s and %s", outer.Head, inner.Head)
	}
	if len(outer.Body) != 7 {
		t.Errorf("outer body should span units 1..7, got %d units", len(outer.Body))
	}
	if len(inner.Body) != 3 || !inner.Contains(m.Units[4]) || inner.Contains(m.Units[6]) {
		t.Errorf("inner body should be units 3..5, got %v", inner.Body)
	}
	if !g.IsLoopHead(m.Units[3]) || g.IsLoopHead(m.Units[4]) {
		t.Error("loop head detection is wrong")
	}
	if !g.Dominates(m.Units[1], m.Units[7]) || g.Dominates(m.Units[4], m.Units[6]) {
		t.Error("dominance is wrong")
	}
	if len(inner.BackEdges) != 1 || inner.BackEdges[0] != m.Units[5] {
		t.Error("inner back edge should come from unit 5")
	}
}

func TestCFGLoopAtEntry(t *testing.T) {
	m := lower(t, `class C { void m() { while (1 > 0) { } } }`).Method("m")
	g := m.CFG()

	if !g.IsLoopHead(m.Units[0]) {
		t.Error("the entry unit should head the loop")
	}
	if len(g.Preds(m.Units[0])) != 1 {
		t.Error("entry loop head should have the back edge as its only pred")
	}
}

func TestCFGReversePostorder(t *testing.T) {
	m := lower(t, `class C { void m(int a) { if (a > 0) { return; } else { a = 1; } } }`).Method("m")
	g := m.CFG()

	if g.Reachable(m.Units[3]) {
		t.Error("the goto after return should be unreachable")
	}
	if g.RPOIndex(m.Units[3]) != -1 {
		t.Error("unreachable units have no RPO index")
	}
	rpo := g.ReversePostorder()
	if len(rpo) != 5 || rpo[0] != m.Units[0] {
		t.Errorf("unexpected order %v", rpo)
	}
	if g.RPOIndex(m.Last()) <= g.RPOIndex(m.Units[4]) {
		t.Error("return should come after its predecessors")
	}
}
