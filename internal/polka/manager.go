// Package polka implements convex polyhedra over integer variables: the
// elements are the integer points of finite conjunctions of linear
// inequalities with unbounded integer coefficients.
package polka

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEnvironment is returned when an expression names an undeclared
	// variable or two elements are defined over different environments.
	ErrEnvironment = errors.New("polka: environment mismatch")

	// ErrNonLinear is returned by Satisfy for expressions with a product of
	// two non-constant operands.
	ErrNonLinear = errors.New("polka: non-linear expression")
)

// Manager carries the options of the domain. Elements remember the manager
// that built them; a manager must not be shared between goroutines.
type Manager struct {
	// Templates adds the interval and octagonal bounds (±x, ±x±y) common to
	// both arguments to a join whose hull was cut short by MaxConstraints.
	Templates bool

	// TemplateVars skips template bounds above this many variables, with a
	// debug log each time.
	TemplateVars int

	// MaxConstraints caps the constraints produced while eliminating a
	// variable. Dropping a constraint only loses precision.
	MaxConstraints int
}

// NewManager returns a manager with template bounds enabled
func NewManager() *Manager {
	return &Manager{
		Templates:      true,
		TemplateVars:   12,
		MaxConstraints: 512,
	}
}

// Environment is an ordered set of integer variable names
type Environment struct {
	vars  []string
	index map[string]int
}

// NewEnvironment declares the given variables, ignoring duplicates
func NewEnvironment(vars ...string) *Environment {
	seen := make(map[string]bool, len(vars))
	var unique []string
	for _, v := range vars {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	sort.Strings(unique)

	env := &Environment{vars: unique, index: make(map[string]int, len(unique))}
	for i, v := range unique {
		env.index[v] = i
	}
	return env
}

// Add returns a new environment with vars declared as well
func (e *Environment) Add(vars ...string) *Environment {
	return NewEnvironment(append(append([]string{}, e.vars...), vars...)...)
}

// Has reports whether v is declared
func (e *Environment) Has(v string) bool {
	_, ok := e.index[v]
	return ok
}

// Vars returns the declared names in sorted order
func (e *Environment) Vars() []string {
	return append([]string{}, e.vars...)
}

// Size is the number of declared variables
func (e *Environment) Size() int {
	return len(e.vars)
}

func (e *Environment) dim(v string) (int, error) {
	i, ok := e.index[v]
	if !ok {
		return 0, fmt.Errorf("%w: unknown variable %s", ErrEnvironment, v)
	}
	return i, nil
}

// Equal reports whether both environments declare the same names
func (e *Environment) Equal(o *Environment) bool {
	if e == o {
		return true
	}
	if len(e.vars) != len(o.vars) {
		return false
	}
	for i := range e.vars {
		if e.vars[i] != o.vars[i] {
			return false
		}
	}
	return true
}

func (e *Environment) String() string {
	return "(" + strings.Join(e.vars, ", ") + ")"
}
