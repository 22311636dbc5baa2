package polka

import (
	"math/big"
	"strings"
)

// A constraint is a linear form read as `a·x + b >= 0`. Constraints are never
// mutated once built; every operation allocates fresh coefficients.

const (
	consOK = iota
	consTrivial
	consInfeasible
)

// content is the gcd of the coefficients, zero for a constant constraint
func content(c linear) *big.Int {
	g := new(big.Int)
	for _, a := range c.coeffs {
		if a.Sign() != 0 {
			g.GCD(nil, nil, g, a)
		}
	}
	return g
}

// normalize divides a constraint by the gcd of its coefficients. Over the
// integers the constant is rounded down, which keeps exactly the same integer
// points; over the rationals the constant joins the gcd and nothing rounds.
func normalize(c linear, rational bool) (linear, int) {
	g := content(c)
	if g.Sign() == 0 {
		if c.cst.Sign() < 0 {
			return c, consInfeasible
		}
		return c, consTrivial
	}
	if rational {
		g.GCD(nil, nil, g, c.cst)
	}
	if g.IsInt64() && g.Int64() == 1 {
		return c, consOK
	}

	out := zeroLinear(len(c.coeffs))
	for i, a := range c.coeffs {
		out.coeffs[i].Quo(a, g)
	}
	if rational {
		out.cst.Quo(c.cst, g)
	} else {
		// Div is Euclidean, so for g > 0 it is the floor
		out.cst.Div(c.cst, g)
	}
	return out, consOK
}

func key(c linear) string {
	var sb strings.Builder
	for i, a := range c.coeffs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(a.String())
	}
	return sb.String()
}

func negatedKey(c linear) string {
	var sb strings.Builder
	neg := new(big.Int)
	for i, a := range c.coeffs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(neg.Neg(a).String())
	}
	return sb.String()
}

// direction keys the primitive coefficient vector of c, so parallel
// constraints share a key whatever their scale
func direction(c linear, g *big.Int) (string, string) {
	if g.IsInt64() && g.Int64() == 1 {
		return key(c), negatedKey(c)
	}
	p := zeroLinear(len(c.coeffs))
	for i, a := range c.coeffs {
		p.coeffs[i].Quo(a, g)
	}
	return key(p), negatedKey(p)
}

// fm eliminates dimensions by Fourier–Motzkin. limit caps the constraints
// kept per elimination when positive; truncated records that a cap dropped
// something.
type fm struct {
	limit     int
	rational  bool
	truncated bool
}

// cleanup normalizes every constraint, drops trivial ones and keeps the
// tightest of parallel constraints. It reports a syntactic contradiction.
func (f *fm) cleanup(cons []linear) ([]linear, bool) {
	var out []linear
	var offsets []*big.Rat
	var opposite []string
	at := make(map[string]int, len(cons))
	for _, c := range cons {
		n, status := normalize(c, f.rational)
		switch status {
		case consInfeasible:
			return nil, true
		case consTrivial:
			continue
		}
		g := content(n)
		k, neg := direction(n, g)
		// n is g·(p·x + offset) >= 0 for the primitive p
		offset := new(big.Rat).SetFrac(n.cst, g)
		if i, ok := at[k]; ok {
			if offset.Cmp(offsets[i]) < 0 {
				out[i], offsets[i] = n, offset
			}
			continue
		}
		at[k] = len(out)
		out = append(out, n)
		offsets = append(offsets, offset)
		opposite = append(opposite, neg)
	}

	// p·x + b1 >= 0 and -p·x + b2 >= 0 need b1 + b2 >= 0
	sum := new(big.Rat)
	for i := range out {
		if j, ok := at[opposite[i]]; ok {
			if sum.Add(offsets[i], offsets[j]).Sign() < 0 {
				return nil, true
			}
		}
	}
	return out, false
}

// equality returns the index of a constraint whose opposite is also in
// cons, so that the pair states an equality involving dimension k. cons must
// be clean.
func equality(cons []linear, k int) int {
	at := make(map[string]int, len(cons))
	for i, c := range cons {
		at[key(c)] = i
	}
	sum := new(big.Int)
	for i, c := range cons {
		if c.coeffs[k].Sign() == 0 {
			continue
		}
		if j, ok := at[negatedKey(c)]; ok && sum.Add(c.cst, cons[j].cst).Sign() == 0 {
			return i
		}
	}
	return -1
}

// eliminate projects dimension k out of cons. An equality on k is
// substituted into the other constraints; otherwise every pair of opposite
// signs on k is combined. cons must be clean.
func (f *fm) eliminate(cons []linear, k int) ([]linear, bool) {
	if i := equality(cons, k); i >= 0 {
		return f.substitute(cons, k, cons[i])
	}

	var pos, neg, out []linear
	for _, c := range cons {
		switch c.coeffs[k].Sign() {
		case 1:
			pos = append(pos, c)
		case -1:
			neg = append(neg, c)
		default:
			out = append(out, c)
		}
	}

	for _, p := range pos {
		for _, n := range neg {
			if f.limit > 0 && len(out) >= f.limit {
				f.truncated = true
				break
			}
			// |n_k|·p + p_k·n cancels dimension k
			left := p.scale(new(big.Int).Neg(n.coeffs[k]))
			right := n.scale(p.coeffs[k])
			combined := left.add(right, 1)
			combined.coeffs[k].SetInt64(0)
			out = append(out, combined)
		}
	}
	return f.cleanup(out)
}

// substitute uses the equality eq = 0 to cancel dimension k everywhere
func (f *fm) substitute(cons []linear, k int, eq linear) ([]linear, bool) {
	ek := new(big.Int).Abs(eq.coeffs[k])
	out := make([]linear, 0, len(cons))
	for _, c := range cons {
		if c.coeffs[k].Sign() == 0 {
			out = append(out, c)
			continue
		}
		// |eq_k|·c - sign(eq_k)·c_k·eq, any multiple of eq being zero
		m := new(big.Int).Mul(c.coeffs[k], big.NewInt(int64(eq.coeffs[k].Sign())))
		combined := c.scale(ek).add(eq.scale(m), -1)
		combined.coeffs[k].SetInt64(0)
		out = append(out, combined)
	}
	return f.cleanup(out)
}

// pickDimension returns the dimension in keep-complement that is cheapest to
// eliminate, or -1 when none occurs in cons. Dimensions fixed by an equality
// come first since substitution never multiplies constraints.
func pickDimension(cons []linear, dims int, keep func(int) bool) int {
	best, bestCost := -1, 0
	for k := 0; k < dims; k++ {
		if keep != nil && keep(k) {
			continue
		}
		npos, nneg := 0, 0
		for _, c := range cons {
			switch c.coeffs[k].Sign() {
			case 1:
				npos++
			case -1:
				nneg++
			}
		}
		if npos+nneg == 0 {
			continue
		}
		cost := npos * nneg
		if npos > 0 && nneg > 0 && equality(cons, k) >= 0 {
			cost = -1
		}
		if best < 0 || cost < bestCost {
			best, bestCost = k, cost
		}
	}
	return best
}

// project eliminates every dimension not kept. The bool reports that the
// constraints have no solution.
func (f *fm) project(cons []linear, dims int, keep func(int) bool) ([]linear, bool) {
	cur, infeasible := f.cleanup(cons)
	if infeasible {
		return nil, true
	}
	for {
		k := pickDimension(cur, dims, keep)
		if k < 0 {
			return cur, false
		}
		cur, infeasible = f.eliminate(cur, k)
		if infeasible {
			return nil, true
		}
	}
}

// cleanup, eliminate and project over the integer points
func cleanup(cons []linear) ([]linear, bool) {
	return (&fm{}).cleanup(cons)
}

func eliminate(cons []linear, k, limit int) ([]linear, bool) {
	return (&fm{limit: limit}).eliminate(cons, k)
}

func project(cons []linear, dims int, keep func(int) bool, limit int) ([]linear, bool) {
	return (&fm{limit: limit}).project(cons, dims, keep)
}

func feasible(cons []linear, dims, limit int) bool {
	_, infeasible := project(cons, dims, nil, limit)
	return !infeasible
}

// negate returns the integer complement of c >= 0, that is -c - 1 >= 0
func negate(c linear) linear {
	out := c.scale(big.NewInt(-1))
	out.cst.Sub(out.cst, big.NewInt(1))
	return out
}

// entails reports whether every integer point of cons satisfies c. A false
// answer may be imprecise when limit truncated an elimination.
func entails(cons []linear, dims int, c linear, limit int) bool {
	with := append(append(make([]linear, 0, len(cons)+1), cons...), negate(c))
	return !feasible(with, dims, limit)
}

// extend appends zero columns to a constraint
func extend(c linear, extra int) linear {
	out := zeroLinear(len(c.coeffs) + extra)
	for i, a := range c.coeffs {
		out.coeffs[i].Set(a)
	}
	out.cst.Set(c.cst)
	return out
}

// bounds computes the range of lin over the integer points of cons by
// introducing t = lin and projecting every other dimension away
func bounds(cons []linear, dims int, lin linear, limit int) Interval {
	ext := make([]linear, 0, len(cons)+2)
	for _, c := range cons {
		ext = append(ext, extend(c, 1))
	}
	// t - lin >= 0 and lin - t >= 0
	upper := extend(lin.scale(big.NewInt(-1)), 1)
	upper.coeffs[dims].SetInt64(1)
	lower := extend(lin, 1)
	lower.coeffs[dims].SetInt64(-1)
	ext = append(ext, upper, lower)

	rest, infeasible := project(ext, dims+1, func(k int) bool { return k == dims }, limit)
	if infeasible {
		return Interval{Empty: true}
	}

	var result Interval
	for _, c := range rest {
		// normalized single-variable constraints are ±t + b >= 0
		b := new(big.Int).Set(c.cst)
		if c.coeffs[dims].Sign() > 0 {
			b.Neg(b)
			if result.Lo == nil || b.Cmp(result.Lo) > 0 {
				result.Lo = b
			}
		} else {
			if result.Hi == nil || b.Cmp(result.Hi) < 0 {
				result.Hi = b
			}
		}
	}
	if result.Lo != nil && result.Hi != nil && result.Lo.Cmp(result.Hi) > 0 {
		return Interval{Empty: true}
	}
	return result
}

// hull returns the closed convex hull of p and q, both over dims integer
// dimensions. A hull point is x = y + z with y in λ·p, z in (1-λ)·q and
// 0 <= λ <= 1; y and λ are projected away over the rationals since neither
// needs to be integral. The bool reports that limit dropped constraints, in
// which case the result is only an over-approximation.
func hull(p, q []linear, dims, limit int) ([]linear, bool) {
	// columns are x, then y, then λ
	width := 2*dims + 1
	lambda := 2 * dims
	lifted := make([]linear, 0, len(p)+len(q)+2)
	for _, c := range p {
		// a·y + b·λ >= 0
		l := zeroLinear(width)
		for i, a := range c.coeffs {
			l.coeffs[dims+i].Set(a)
		}
		l.coeffs[lambda].Set(c.cst)
		lifted = append(lifted, l)
	}
	for _, c := range q {
		// a·(x - y) + b·(1 - λ) >= 0
		l := zeroLinear(width)
		for i, a := range c.coeffs {
			l.coeffs[i].Set(a)
			l.coeffs[dims+i].Neg(a)
		}
		l.coeffs[lambda].Neg(c.cst)
		l.cst.Set(c.cst)
		lifted = append(lifted, l)
	}
	low := zeroLinear(width)
	low.coeffs[lambda].SetInt64(1)
	high := zeroLinear(width)
	high.coeffs[lambda].SetInt64(-1)
	high.cst.SetInt64(1)
	lifted = append(lifted, low, high)

	f := &fm{limit: limit, rational: true}
	rest, infeasible := f.project(lifted, width, func(k int) bool { return k < dims })
	if infeasible {
		// both sides are non-empty, so only a bug in the lifting gets here
		return nil, true
	}
	out := make([]linear, len(rest))
	for i, c := range rest {
		l := zeroLinear(dims)
		for j := 0; j < dims; j++ {
			l.coeffs[j].Set(c.coeffs[j])
		}
		l.cst.Set(c.cst)
		out[i] = l
	}
	return out, f.truncated
}

// removeRedundant drops constraints entailed by the others
func removeRedundant(cons []linear, dims, limit int) []linear {
	out := append([]linear{}, cons...)
	for i := 0; i < len(out); {
		others := make([]linear, 0, len(out)-1)
		others = append(others, out[:i]...)
		others = append(others, out[i+1:]...)
		if entails(others, dims, out[i], limit) {
			out = others
			continue
		}
		i++
	}
	return out
}
