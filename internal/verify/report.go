package verify

import (
	"fmt"

	"frogcheck/internal/config"
	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
	"frogcheck/internal/property"
)

// Report collects the verdicts of one class
type Report struct {
	Class      string
	Properties []property.Property
	Verdicts   map[property.Property]Verdict
	Violations []Violation

	// sell-sites whose state is bottom
	Unreachable []*ir.Unit
}

// Verdict returns the outcome for prop; unchecked properties are unsafe
func (r *Report) Verdict(prop property.Property) Verdict {
	if v, ok := r.Verdicts[prop]; ok {
		return v
	}
	return Unsafe
}

// Safe reports whether every checked property holds
func (r *Report) Safe() bool {
	for _, p := range r.Properties {
		if r.Verdict(p) != Safe {
			return false
		}
	}
	return true
}

// ViolationsOf filters the violations of prop
func (r *Report) ViolationsOf(prop property.Property) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Property == prop {
			out = append(out, v)
		}
	}
	return out
}

// Diagnostics lists the violations followed by one hint per unreachable
// sell-site
func (r *Report) Diagnostics() []errors.CompilerError {
	out := make([]errors.CompilerError, 0, len(r.Violations)+len(r.Unreachable))
	for _, v := range r.Violations {
		out = append(out, v.Diagnostic())
	}
	for _, u := range r.Unreachable {
		out = append(out, errors.NewSemanticWarning(errors.WarningUnreachableSell,
			fmt.Sprintf("%s is unreachable", u), u.Pos).Build())
	}
	return out
}

// VerifyClass checks props on program in the given order
func VerifyClass(program *ir.Program, props []property.Property, cfg *config.Config) (*Report, error) {
	v, err := New(program, cfg)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Class:      program.Class,
		Properties: props,
		Verdicts:   make(map[property.Property]Verdict, len(props)),
	}
	unreachable := make(map[*ir.Unit]bool)
	for _, p := range props {
		verdict, err := v.Check(p)
		if err != nil {
			return nil, err
		}
		report.Verdicts[p] = verdict
		report.Violations = append(report.Violations, v.Violations(p)...)

		for _, u := range v.Unreachable(p) {
			unreachable[u] = true
		}
	}
	for _, m := range program.Methods {
		for _, u := range m.SellSites() {
			if unreachable[u] {
				report.Unreachable = append(report.Unreachable, u)
			}
		}
	}
	return report, nil
}
