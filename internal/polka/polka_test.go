package polka

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	x = NewVar("x")
	y = NewVar("y")
)

func cst(v int64) Cst { return NewCst(v) }

func add(l, r Texpr) Texpr { return NewBin(OpAdd, l, r) }
func sub(l, r Texpr) Texpr { return NewBin(OpSub, l, r) }
func mul(l, r Texpr) Texpr { return NewBin(OpMul, l, r) }

// meet adds constraints to top over x and y
func meet(t *testing.T, man *Manager, constraints ...Tcons) *Abstract1 {
	t.Helper()
	a := Top(man, NewEnvironment("x", "y"))
	for _, c := range constraints {
		var err error
		a, err = a.MeetTcons(c)
		require.NoError(t, err)
	}
	return a
}

// between constrains v to [lo, hi]
func between(v Texpr, lo, hi int64) []Tcons {
	return []Tcons{
		NewTcons(SUPEQ, sub(v, cst(lo))),
		NewTcons(SUPEQ, sub(cst(hi), v)),
	}
}

func assertBound(t *testing.T, a *Abstract1, e Texpr, want string) {
	t.Helper()
	r, err := a.Bound(e)
	require.NoError(t, err)
	assert.Equal(t, want, r.String())
}

func satisfies(t *testing.T, a *Abstract1, c Tcons) bool {
	t.Helper()
	ok, err := a.Satisfy(c)
	require.NoError(t, err)
	return ok
}

func TestTopAndBottom(t *testing.T) {
	man := NewManager()
	env := NewEnvironment("y", "x", "x")
	assert.Equal(t, []string{"x", "y"}, env.Vars())

	top := Top(man, env)
	assert.True(t, top.IsTop())
	assert.False(t, top.IsBottom())
	assert.False(t, satisfies(t, top, NewTcons(SUPEQ, x)))

	bottom := Bottom(man, env)
	assert.True(t, bottom.IsBottom())
	assert.True(t, satisfies(t, bottom, NewTcons(SUP, x)))
	assert.True(t, satisfies(t, bottom, NewTcons(EQ, sub(x, cst(3)))))
	assertBound(t, bottom, x, "[]")
}

func TestMeetAndSatisfy(t *testing.T) {
	a := meet(t, NewManager(), between(x, 0, 10)...)

	assertBound(t, a, x, "[0, 10]")
	assertBound(t, a, y, "[-oo, +oo]")
	assert.True(t, satisfies(t, a, NewTcons(SUPEQ, x)))
	assert.False(t, satisfies(t, a, NewTcons(SUP, x)))
	assert.True(t, satisfies(t, a, NewTcons(SUP, sub(cst(11), x))))
	assert.False(t, satisfies(t, a, NewTcons(SUPEQ, y)))

	// 11 <= x contradicts x <= 10
	b, err := a.MeetTcons(NewTcons(SUPEQ, sub(x, cst(11))))
	require.NoError(t, err)
	assert.True(t, b.IsBottom())
}

func TestMeetIsIdempotent(t *testing.T) {
	c := NewTcons(SUPEQ, sub(add(x, y), cst(4)))
	once := meet(t, NewManager(), append(between(x, 0, 10), c)...)
	twice, err := once.MeetTcons(c)
	require.NoError(t, err)

	equal, err := once.IsEqual(twice)
	require.NoError(t, err)
	assert.True(t, equal)

	self, err := once.Meet(once)
	require.NoError(t, err)
	equal, err = once.IsEqual(self)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestStrictConstraintsTighten(t *testing.T) {
	a := meet(t, NewManager(), NewTcons(SUP, x), NewTcons(SUP, sub(cst(3), x)))
	assertBound(t, a, x, "[1, 2]")
}

func TestIntegerTightening(t *testing.T) {
	// 2x = 1 has no integer solution
	two := func(e Texpr) Texpr { return mul(cst(2), e) }
	a := meet(t, NewManager(),
		NewTcons(SUPEQ, sub(two(x), cst(1))),
		NewTcons(SUPEQ, sub(cst(1), two(x))))
	assert.True(t, a.IsBottom())
}

func TestDisequality(t *testing.T) {
	man := NewManager()
	ne := NewTcons(DISEQ, x)

	a, err := meet(t, man, between(x, 0, 5)...).MeetTcons(ne)
	require.NoError(t, err)
	assertBound(t, a, x, "[1, 5]")

	b, err := meet(t, man, between(x, -5, 0)...).MeetTcons(ne)
	require.NoError(t, err)
	assertBound(t, b, x, "[-5, -1]")

	c, err := meet(t, man, NewTcons(EQ, x)).MeetTcons(ne)
	require.NoError(t, err)
	assert.True(t, c.IsBottom())

	d, err := meet(t, man, between(x, -3, 3)...).MeetTcons(ne)
	require.NoError(t, err)
	assertBound(t, d, x, "[-3, 3]")
	assert.False(t, satisfies(t, d, ne))

	assert.True(t, satisfies(t, a, ne))
	assert.True(t, satisfies(t, b, ne))
}

func TestAssign(t *testing.T) {
	a := meet(t, NewManager(), NewTcons(EQ, sub(x, cst(5))))

	a, err := a.Assign("y", add(x, cst(3)))
	require.NoError(t, err)
	assertBound(t, a, y, "[8, 8]")
	assert.True(t, satisfies(t, a, NewTcons(EQ, sub(y, add(x, cst(3))))))

	a, err = a.Assign("x", add(x, cst(1)))
	require.NoError(t, err)
	assertBound(t, a, x, "[6, 6]")
	assertBound(t, a, sub(y, x), "[2, 2]")

	a, err = a.Assign("x", mul(x, cst(2)))
	require.NoError(t, err)
	assertBound(t, a, x, "[12, 12]")

	// a product of variables forgets the target
	a, err = a.Assign("x", mul(x, y))
	require.NoError(t, err)
	assertBound(t, a, x, "[-oo, +oo]")
	assertBound(t, a, y, "[8, 8]")
}

func TestAssignDoesNotOverflow(t *testing.T) {
	a := meet(t, NewManager(), NewTcons(EQ, sub(x, cst(2147483647))))
	a, err := a.Assign("y", add(x, cst(1)))
	require.NoError(t, err)

	r, err := a.Bound(y)
	require.NoError(t, err)
	require.True(t, r.Bounded())
	assert.Equal(t, 0, r.Lo.Cmp(big.NewInt(2147483648)))
	assert.True(t, r.Contains(big.NewInt(2147483648)))
}

func TestJoin(t *testing.T) {
	man := NewManager()
	zero := meet(t, man, NewTcons(EQ, x), NewTcons(EQ, y))
	two := meet(t, man, NewTcons(EQ, sub(x, cst(2))), NewTcons(EQ, sub(y, cst(2))))

	j, err := zero.Join(two)
	require.NoError(t, err)
	assertBound(t, j, x, "[0, 2]")
	assertBound(t, j, y, "[0, 2]")
	assert.True(t, satisfies(t, j, NewTcons(EQ, sub(x, y))))

	bottom := Bottom(man, zero.Environment())
	j, err = bottom.Join(two)
	require.NoError(t, err)
	assertBound(t, j, x, "[2, 2]")
	j, err = zero.Join(bottom)
	require.NoError(t, err)
	assertBound(t, j, x, "[0, 0]")
}

func TestJoinWithoutTemplates(t *testing.T) {
	man := NewManager()
	man.Templates = false
	zero := meet(t, man, NewTcons(EQ, x), NewTcons(EQ, y))
	two := meet(t, man, NewTcons(EQ, sub(x, cst(2))), NewTcons(EQ, sub(y, cst(2))))

	j, err := zero.Join(two)
	require.NoError(t, err)
	assertBound(t, j, x, "[0, 2]")
	assert.True(t, satisfies(t, j, NewTcons(EQ, sub(x, y))))
}

func TestJoinIsTheConvexHull(t *testing.T) {
	man := NewManager()
	one := meet(t, man, NewTcons(EQ, sub(x, cst(1))), NewTcons(EQ, sub(y, cst(2))))
	two := meet(t, man, NewTcons(EQ, sub(x, cst(2))), NewTcons(EQ, sub(y, cst(4))))

	j, err := one.Join(two)
	require.NoError(t, err)
	assertBound(t, j, x, "[1, 2]")
	assertBound(t, j, y, "[2, 4]")
	assertBound(t, j, sub(y, mul(cst(2), x)), "[0, 0]")

	for _, side := range []*Abstract1{one, two} {
		leq, err := side.IsLeq(j)
		require.NoError(t, err)
		assert.True(t, leq)
	}

	// joining with an included element returns the larger one
	inner := meet(t, man, between(x, 1, 1)...)
	outer := meet(t, man, between(x, 0, 5)...)
	j, err = inner.Join(outer)
	require.NoError(t, err)
	assertBound(t, j, x, "[0, 5]")
}

func TestJoinKeepsUnboundedDirections(t *testing.T) {
	man := NewManager()
	origin := meet(t, man, NewTcons(EQ, x), NewTcons(EQ, y))
	ray := meet(t, man, NewTcons(SUPEQ, sub(x, cst(3))), NewTcons(EQ, sub(y, mul(cst(3), x))))

	j, err := origin.Join(ray)
	require.NoError(t, err)
	assertBound(t, j, x, "[0, +oo]")
	assertBound(t, j, sub(y, mul(cst(3), x)), "[0, 0]")
}

func TestTruncatedJoinIsSound(t *testing.T) {
	capped := NewManager()
	capped.MaxConstraints = 1
	capped.TemplateVars = 1
	low := append(between(x, 0, 1), between(y, 0, 1)...)
	high := append(between(x, 2, 3), between(y, 2, 3)...)

	j, err := meet(t, capped, low...).Join(meet(t, capped, high...))
	require.NoError(t, err)
	assert.False(t, j.IsBottom())

	// inclusion is checked without the cap
	full := NewManager()
	for _, side := range [][]Tcons{low, high} {
		leq, err := meet(t, full, side...).IsLeq(j)
		require.NoError(t, err)
		assert.True(t, leq)
	}
}

func TestWidening(t *testing.T) {
	man := NewManager()
	old := meet(t, man, between(x, 0, 1)...)
	next := meet(t, man, between(x, 0, 2)...)

	w, err := old.Widening(next)
	require.NoError(t, err)
	assertBound(t, w, x, "[0, +oo]")

	leq, err := next.IsLeq(w)
	require.NoError(t, err)
	assert.True(t, leq)
}

func TestWideningKeepsInterchangeableConstraints(t *testing.T) {
	man := NewManager()
	old := meet(t, man, NewTcons(EQ, x), NewTcons(EQ, y))
	next := meet(t, man, append(between(x, 0, 1), NewTcons(EQ, sub(y, mul(cst(2), x))))...)

	w, err := old.Widening(next)
	require.NoError(t, err)
	assertBound(t, w, x, "[0, +oo]")
	assertBound(t, w, sub(y, mul(cst(2), x)), "[0, 0]")
}

func TestIsEqualOnIdenticalConstraints(t *testing.T) {
	man := NewManager()
	man.MaxConstraints = 1
	c := NewTcons(SUPEQ, sub(add(x, y), cst(4)))
	a := meet(t, man, append(between(x, 0, 10), c)...)
	b := meet(t, man, append(between(x, 0, 10), c)...)

	equal, err := a.IsEqual(b)
	require.NoError(t, err)
	assert.True(t, equal)

	equal, err = a.IsEqual(Bottom(man, a.Environment()))
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestOrder(t *testing.T) {
	man := NewManager()
	small := meet(t, man, between(x, 0, 1)...)
	large := meet(t, man, between(x, 0, 2)...)

	leq, err := small.IsLeq(large)
	require.NoError(t, err)
	assert.True(t, leq)
	leq, err = large.IsLeq(small)
	require.NoError(t, err)
	assert.False(t, leq)

	redundant := meet(t, man, NewTcons(SUPEQ, x), NewTcons(SUPEQ, add(x, cst(1))))
	plain := meet(t, man, NewTcons(SUPEQ, x))
	eq, err := redundant.IsEqual(plain)
	require.NoError(t, err)
	assert.True(t, eq)
	assert.Equal(t, plain.String(), redundant.String())

	leq, err = Bottom(man, small.Environment()).IsLeq(small)
	require.NoError(t, err)
	assert.True(t, leq)
}

func TestNonLinear(t *testing.T) {
	a := meet(t, NewManager(), NewTcons(SUPEQ, mul(x, y)))
	assert.True(t, a.IsTop())

	_, err := a.Satisfy(NewTcons(SUPEQ, mul(x, y)))
	assert.ErrorIs(t, err, ErrNonLinear)

	r, err := a.Bound(mul(x, y))
	require.NoError(t, err)
	assert.Equal(t, "[-oo, +oo]", r.String())
}

func TestEnvironmentErrors(t *testing.T) {
	man := NewManager()
	a := Top(man, NewEnvironment("x"))

	_, err := a.MeetTcons(NewTcons(SUPEQ, NewVar("z")))
	assert.ErrorIs(t, err, ErrEnvironment)
	_, err = a.Assign("z", cst(1))
	assert.ErrorIs(t, err, ErrEnvironment)
	_, err = a.Join(Top(man, NewEnvironment("x", "y")))
	assert.ErrorIs(t, err, ErrEnvironment)

	assert.True(t, NewEnvironment("x").Add("y").Equal(NewEnvironment("y", "x")))
	assert.True(t, NewEnvironment("x").Add("y").Has("y"))
}

func TestString(t *testing.T) {
	man := NewManager()
	assert.Equal(t, "<universal>", Top(man, NewEnvironment("x")).String())
	assert.Equal(t, "<empty>", Bottom(man, NewEnvironment("x")).String())
	assert.Equal(t, "{ x >= 0; -x + 10 >= 0 }", meet(t, man, between(x, 0, 10)...).String())
	assert.Equal(t, "{ x - 5 = 0 }", meet(t, man, NewTcons(EQ, sub(x, cst(5)))).String())
}
