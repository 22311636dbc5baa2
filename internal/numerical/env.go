package numerical

import (
	"frogcheck/internal/ir"
	"frogcheck/internal/polka"
	"frogcheck/internal/property"
)

// Ghost variables tracking the running profit of a method
const (
	GhostProfit   = "overall_profit"
	GhostSnapshot = "overall_profit_2"
)

// NewEnvironment declares the integer locals defined in m, either by an
// assignment or as the receiving local of a parameter, plus the ghosts when
// checking the overall profit
func NewEnvironment(m *ir.Method, prop property.Property) *polka.Environment {
	var vars []string
	for _, u := range m.Units {
		if u.Kind != ir.AssignStmt && u.Kind != ir.IdentityStmt {
			continue
		}
		if l, ok := u.Left.(*ir.Local); ok && l.Type == ir.IntType {
			vars = append(vars, l.Name)
		}
	}
	if prop == property.OverallProfit {
		vars = append(vars, GhostProfit, GhostSnapshot)
	}
	env := polka.NewEnvironment(vars...)
	log.Debugf("%s.%s: environment %s", m.Class, m.Name, env)
	return env
}
