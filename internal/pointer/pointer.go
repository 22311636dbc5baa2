// Package pointer computes, for every Frog local of a class, the allocation
// sites it may denote. Each site is identified with the constructor call that
// initializes it and carries the production cost passed to that call.
package pointer

import (
	"fmt"
	"sort"

	"github.com/tliron/commonlog"

	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
)

var log = commonlog.GetLogger("frogcheck.pointer")

// FrogInitializer is a `specialinvoke r.<init>(k)` on a Frog local
type FrogInitializer struct {
	Unit   *ir.Unit
	Method string
	ID     int // unique within the class, in method and unit order
	Cost   int64
}

func (fi *FrogInitializer) String() string {
	return fmt.Sprintf("init#%d(%d)@%s:%d", fi.ID, fi.Cost, fi.Method, fi.Unit.Index)
}

// PointsTo holds the results for one class. It is read-only once built.
type PointsTo struct {
	class    string
	perUnit  map[*ir.Unit]*FrogInitializer
	perMeth  map[string][]*FrogInitializer
	sets     map[string]map[*ir.Local][]*FrogInitializer
	maxCosts map[string]map[*ir.Local]int64
}

// Analyze runs the analysis on every method of the program
func Analyze(program *ir.Program) (*PointsTo, error) {
	log.Debugf("running points-to analysis on %s", program.Class)

	pt := &PointsTo{
		class:    program.Class,
		perUnit:  make(map[*ir.Unit]*FrogInitializer),
		perMeth:  make(map[string][]*FrogInitializer),
		sets:     make(map[string]map[*ir.Local][]*FrogInitializer),
		maxCosts: make(map[string]map[*ir.Local]int64),
	}

	id := 0
	for _, m := range program.Methods {
		inits, err := collectInitializers(m, &id)
		if err != nil {
			return nil, err
		}
		pt.perMeth[m.Name] = inits
		for _, fi := range inits {
			pt.perUnit[fi.Unit] = fi
		}

		sets, err := solve(m, pt.perUnit)
		if err != nil {
			return nil, err
		}
		pt.sets[m.Name] = sets
		pt.maxCosts[m.Name] = make(map[*ir.Local]int64)
		for local, set := range sets {
			if len(set) == 0 {
				continue
			}
			maxCost := set[0].Cost
			for _, fi := range set[1:] {
				maxCost = max(maxCost, fi.Cost)
			}
			pt.maxCosts[m.Name][local] = maxCost
		}
	}

	return pt, nil
}

func collectInitializers(m *ir.Method, id *int) ([]*FrogInitializer, error) {
	var inits []*FrogInitializer
	for _, u := range m.Units {
		if !u.IsFrogInit() {
			continue
		}
		if len(u.Invoke.Args) != 1 {
			return nil, errors.Unsupported("pointer", m.Name, u.Pos,
				"Frog constructor with %d arguments", len(u.Invoke.Args))
		}
		cost, ok := u.Invoke.Args[0].(ir.IntConstant)
		if !ok {
			return nil, errors.Unsupported("pointer", m.Name, u.Pos,
				"production cost %s is not a constant", u.Invoke.Args[0])
		}
		inits = append(inits, &FrogInitializer{Unit: u, Method: m.Name, ID: *id, Cost: cost.Value})
		*id++
	}
	return inits, nil
}

// Initializers returns the allocation sites declared in a method
func (pt *PointsTo) Initializers(method string) []*FrogInitializer {
	return pt.perMeth[method]
}

// Initializer returns the site whose constructor call is u, or nil
func (pt *PointsTo) Initializer(u *ir.Unit) *FrogInitializer {
	return pt.perUnit[u]
}

// PointsTo returns the sites local may denote, sorted by ID. The result is
// empty for locals never bound to an allocation, e.g. Frog parameters.
func (pt *PointsTo) PointsTo(method string, local *ir.Local) []*FrogInitializer {
	return pt.sets[method][local]
}

// MaxCost returns the largest production cost among the sites of local
func (pt *PointsTo) MaxCost(method string, local *ir.Local) (int64, bool) {
	c, ok := pt.maxCosts[method][local]
	return c, ok
}

func sortByID(set []*FrogInitializer) {
	sort.Slice(set, func(i, j int) bool { return set[i].ID < set[j].ID })
}
