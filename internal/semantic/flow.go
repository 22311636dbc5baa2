package semantic

// flowState tracks which locals are definitely assigned on every path
// reaching the current statement. After a return nothing is reachable, so
// the state stands for every local at once.
type flowState struct {
	assigned map[*Symbol]bool
	returned bool
}

func newFlowState() *flowState {
	return &flowState{assigned: make(map[*Symbol]bool)}
}

func (f *flowState) clone() *flowState {
	c := &flowState{assigned: make(map[*Symbol]bool, len(f.assigned)), returned: f.returned}
	for s := range f.assigned {
		c.assigned[s] = true
	}
	return c
}

func (f *flowState) assign(s *Symbol) {
	f.assigned[s] = true
}

func (f *flowState) isAssigned(s *Symbol) bool {
	return f.returned || f.assigned[s]
}

// meet keeps what is assigned on both paths
func meet(x, y *flowState) *flowState {
	switch {
	case x.returned:
		return y.clone()
	case y.returned:
		return x.clone()
	}
	out := newFlowState()
	for s := range x.assigned {
		if y.assigned[s] {
			out.assigned[s] = true
		}
	}
	return out
}
