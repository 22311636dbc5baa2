// Package verify discharges the sell-site properties of a class from the
// numerical fixpoints of its methods.
package verify

import (
	"fmt"

	"github.com/tliron/commonlog"

	"frogcheck/internal/config"
	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
	"frogcheck/internal/numerical"
	"frogcheck/internal/pointer"
	"frogcheck/internal/polka"
	"frogcheck/internal/property"
)

var log = commonlog.GetLogger("frogcheck.verify")

// Verdict is the outcome of checking one property on a class
type Verdict int

const (
	Safe Verdict = iota
	Unsafe
)

func (v Verdict) String() string {
	if v == Safe {
		return "SAFE"
	}
	return "UNSAFE"
}

// Violation is a sell-site, or the end of a method, where a property could
// not be proven
type Violation struct {
	Method   string
	Unit     *ir.Unit
	Property property.Property
	Position errors.Position
	Reason   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%d:%d: %s: %s: %s", v.Position.Line, v.Position.Column, v.Property, v.Method, v.Reason)
}

var violationCodes = map[property.Property]string{
	property.NonNegative:   errors.ErrorNegativePrice,
	property.ItemProfit:    errors.ErrorItemLoss,
	property.OverallProfit: errors.ErrorOverallLoss,
}

// Diagnostic reports the violation as a warning at its sell-site
func (v Violation) Diagnostic() errors.CompilerError {
	code := violationCodes[v.Property]
	return errors.NewSemanticWarning(code, fmt.Sprintf("%s: %s", v.Property, v.Reason), v.Position).
		WithLength(len("sell")).
		WithNote(fmt.Sprintf("in method '%s'", v.Method)).
		WithHelp(errors.GetErrorDescription(code)).
		Build()
}

// Verifier checks the properties of one class. Points-to runs once at
// construction; each property analyzes every method once.
type Verifier struct {
	program  *ir.Program
	pointsTo *pointer.PointsTo
	cfg      *config.Config

	analyses   map[property.Property][]*numerical.Analysis
	violations map[property.Property][]Violation
	verdicts   map[property.Property]Verdict
}

// New prepares a verifier for program. A nil cfg selects the defaults.
func New(program *ir.Program, cfg *config.Config) (*Verifier, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log.Debugf("verifying %s", program.Class)
	pt, err := pointer.Analyze(program)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		program:    program,
		pointsTo:   pt,
		cfg:        cfg,
		analyses:   make(map[property.Property][]*numerical.Analysis),
		violations: make(map[property.Property][]Violation),
		verdicts:   make(map[property.Property]Verdict),
	}, nil
}

// PointsTo returns the points-to sets of the class
func (v *Verifier) PointsTo() *pointer.PointsTo { return v.pointsTo }

// Run analyzes every method for prop, once
func (v *Verifier) Run(prop property.Property) error {
	if _, done := v.analyses[prop]; done {
		return nil
	}
	var analyses []*numerical.Analysis
	for _, m := range v.program.Methods {
		log.Debugf("running analysis on %s for %s", m.Name, prop)
		a, err := numerical.New(m, prop, v.pointsTo, v.cfg.NewManager())
		if err != nil {
			return err
		}
		analyses = append(analyses, a)
	}
	v.analyses[prop] = analyses
	return nil
}

// Analysis returns the fixpoint of method for prop, after Run
func (v *Verifier) Analysis(prop property.Property, method string) *numerical.Analysis {
	for _, a := range v.analyses[prop] {
		if a.Method().Name == method {
			return a
		}
	}
	return nil
}

// Check runs and checks prop
func (v *Verifier) Check(prop property.Property) (Verdict, error) {
	if verdict, ok := v.verdicts[prop]; ok {
		return verdict, nil
	}
	if err := v.Run(prop); err != nil {
		return Unsafe, err
	}

	var found []Violation
	for _, a := range v.analyses[prop] {
		switch prop {
		case property.NonNegative:
			found = append(found, v.checkNonNegative(a)...)
		case property.ItemProfit:
			found = append(found, v.checkItemProfit(a)...)
		case property.OverallProfit:
			found = append(found, v.checkOverallProfit(a)...)
		default:
			return Unsafe, fmt.Errorf("unknown property %s", prop)
		}
	}

	verdict := Safe
	if len(found) > 0 {
		verdict = Unsafe
	}
	v.violations[prop] = found
	v.verdicts[prop] = verdict
	log.Infof("%s: %s %s", v.program.Class, prop, verdict)
	return verdict, nil
}

// CheckNonNegative proves every sell price is at least 0
func (v *Verifier) CheckNonNegative() (Verdict, error) {
	return v.Check(property.NonNegative)
}

// CheckItemProfit proves every sell price covers the cost of each frog the
// receiver may refer to
func (v *Verifier) CheckItemProfit() (Verdict, error) {
	return v.Check(property.ItemProfit)
}

// CheckOverallProfit proves the profit of every method is at least 0 when it
// returns
func (v *Verifier) CheckOverallProfit() (Verdict, error) {
	return v.Check(property.OverallProfit)
}

// Violations returns the failing sites of prop found by Check
func (v *Verifier) Violations(prop property.Property) []Violation {
	return v.violations[prop]
}

// Unreachable returns the sell-sites whose state is bottom for prop
func (v *Verifier) Unreachable(prop property.Property) []*ir.Unit {
	var out []*ir.Unit
	for _, a := range v.analyses[prop] {
		for _, u := range a.Method().SellSites() {
			if a.FlowBefore(u).IsBottom() {
				out = append(out, u)
			}
		}
	}
	return out
}

func (v *Verifier) checkNonNegative(a *numerical.Analysis) []Violation {
	var found []Violation
	m := a.Method()
	for _, u := range m.SellSites() {
		state := a.FlowBefore(u)
		if state.IsBottom() {
			continue
		}
		arg := u.Invoke.Args[0]
		if c, ok := arg.(ir.IntConstant); ok {
			if c.Value < 0 {
				found = append(found, violation(m, u, property.NonNegative, "sell(%d) with a negative price", c.Value))
			}
			continue
		}

		name, ok := argName(m, arg)
		if !ok {
			found = append(found, violation(m, u, property.NonNegative, "cannot reason about price %s", arg))
			continue
		}
		price := polka.NewVar(name)
		if !satisfies(m, u, state, polka.NewTcons(polka.SUPEQ, price)) {
			found = append(found, violation(m, u, property.NonNegative,
				"price %s may be negative (%s in %s)", name, name, describe(state, price)))
		}
	}
	return found
}

func (v *Verifier) checkItemProfit(a *numerical.Analysis) []Violation {
	var found []Violation
	m := a.Method()
	for _, u := range m.SellSites() {
		state := a.FlowBefore(u)
		if state.IsBottom() {
			continue
		}
		receiver := u.Invoke.Base
		frogs := v.pointsTo.PointsTo(m.Name, receiver)
		if len(frogs) == 0 {
			log.Errorf("%s: no frog for receiver %s at %s", m.Name, receiver, u)
			found = append(found, violation(m, u, property.ItemProfit, "receiver %s refers to no known frog", receiver))
			continue
		}

		arg := u.Invoke.Args[0]
		for _, frog := range frogs {
			if c, ok := arg.(ir.IntConstant); ok {
				if c.Value-frog.Cost < 0 {
					found = append(found, violation(m, u, property.ItemProfit,
						"sell(%d) is below production cost %d of frog #%d", c.Value, frog.Cost, frog.ID))
				}
				continue
			}

			name, ok := argName(m, arg)
			if !ok {
				found = append(found, violation(m, u, property.ItemProfit, "cannot reason about price %s", arg))
				break
			}
			profit := polka.NewBin(polka.OpAdd, polka.NewVar(name), polka.NewCst(-frog.Cost))
			if !satisfies(m, u, state, polka.NewTcons(polka.SUPEQ, profit)) {
				found = append(found, violation(m, u, property.ItemProfit,
					"price %s may be below production cost %d of frog #%d (%s in %s)",
					name, frog.Cost, frog.ID, name, describe(state, polka.NewVar(name))))
			}
		}
	}
	return found
}

// checkOverallProfit reads the profit ghost before the trailing return
func (v *Verifier) checkOverallProfit(a *numerical.Analysis) []Violation {
	m := a.Method()
	last := m.Last()
	if last == nil {
		return nil
	}
	state := a.FlowBefore(last)
	profit := polka.NewVar(numerical.GhostProfit)
	log.Debugf("%s: %s in %s at the end", m.Name, numerical.GhostProfit, describe(state, profit))
	if satisfies(m, last, state, polka.NewTcons(polka.SUPEQ, profit)) {
		return nil
	}
	return []Violation{violation(m, last, property.OverallProfit,
		"overall profit may be negative (%s in %s)", numerical.GhostProfit, describe(state, profit))}
}

// satisfies treats a failing domain query as not proven
func satisfies(m *ir.Method, u *ir.Unit, state numerical.State, c polka.Tcons) bool {
	ok, err := state.Satisfy(c)
	if err != nil {
		log.Errorf("%s: cannot decide %s at %s: %s", m.Name, c, u, err)
		return false
	}
	return ok
}

// argName resolves the variable holding a sell price
func argName(m *ir.Method, arg ir.Value) (string, bool) {
	switch arg := arg.(type) {
	case *ir.Local:
		return arg.Name, arg.Type == ir.IntType
	case ir.ParameterRef:
		if arg.Index < len(m.Params) {
			return m.Params[arg.Index].Name, true
		}
	}
	return "", false
}

func describe(state numerical.State, e polka.Texpr) string {
	r, err := state.Bound(e)
	if err != nil {
		return "?"
	}
	return r.String()
}

func violation(m *ir.Method, u *ir.Unit, prop property.Property, format string, args ...any) Violation {
	return Violation{
		Method:   m.Name,
		Unit:     u,
		Property: prop,
		Position: u.Pos,
		Reason:   fmt.Sprintf(format, args...),
	}
}
