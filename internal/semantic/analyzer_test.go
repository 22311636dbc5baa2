package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frogcheck/internal/errors"
	"frogcheck/internal/parser"
)

func analyze(t *testing.T, source string) []errors.CompilerError {
	t.Helper()
	file, parseErrors := parser.ParseSource("Test.java", source)
	require.Empty(t, parseErrors, "Should have no parse errors")
	return NewAnalyzer().AnalyzeFile(file)
}

func codes(errs []errors.CompilerError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidClasses(t *testing.T) {
	sources := map[string]string{
		"straight line": `class A { void m() { Frog f = new Frog(3); f.sell(5); } }`,
		"parameters":    `class A { void m(int a) { Frog f = new Frog(10); if (a >= 0) f.sell(a); } }`,
		"loop":          `class A { void m() { Frog f = new Frog(1); int x = 0; while (x < 10) { f.sell(x + 2); x = x + 1; } } }`,
		"copies":        `public class A { public void m(int a) { Frog f = new Frog(-1); Frog g; if (a > 0) { g = f; } else { g = new Frog(2); } g.sell(a * 2); } }`,
		"double":        `class A { void m() { double d = 1; d = d + 2; int x; x = 3; } }`,
		"field store":   `class A { void m() { Frog f = new Frog(1); f.cost = 4; } }`,
		"return":        `class A { void m(int a) { int x; if (a > 0) { x = 1; } else { return; } Frog f = new Frog(2); f.sell(x); } }`,
	}

	for name, source := range sources {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, analyze(t, source))
		})
	}
}

func TestUndefinedVariable(t *testing.T) {
	errs := analyze(t, `class A { void m(int price) { Frog f = new Frog(1); f.sell(prices); } }`)
	require.Len(t, errs, 1)
	assert.Equal(t, errors.ErrorUndefinedVariable, errs[0].Code)
	assert.Contains(t, errs[0].Suggestions[0].Message, "'price'")
	assert.Equal(t, 1, errs[0].Position.Line)
}

func TestScopesEndWithBlocks(t *testing.T) {
	errs := analyze(t, `class A { void m(int a) { if (a > 0) { int x = 1; } a = x; } }`)
	assert.Equal(t, []string{errors.ErrorUndefinedVariable}, codes(errs))
}

func TestDuplicates(t *testing.T) {
	errs := analyze(t, `class A {
    void m(int a, int a) { int b = 1; int b = 2; }
    void m() { }
}`)
	assert.ElementsMatch(t, []string{
		errors.ErrorDuplicateDeclaration,
		errors.ErrorDuplicateDeclaration,
		errors.ErrorDuplicateDeclaration,
	}, codes(errs))
}

func TestShadowingIsRejected(t *testing.T) {
	errs := analyze(t, `class A { void m(int a) { while (a > 0) { int a = 1; } } }`)
	assert.Equal(t, []string{errors.ErrorDuplicateDeclaration}, codes(errs))
}

func TestTypeMismatches(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"frog to int", `class A { void m() { Frog f = new Frog(1); int x = f; } }`},
		{"int to frog", `class A { void m() { Frog f = 3; } }`},
		{"double to int", `class A { void m() { double d = 1; int x = d; } }`},
		{"frog arithmetic", `class A { void m() { Frog f = new Frog(1); int x = f + 1; } }`},
		{"frog comparison", `class A { void m() { Frog f = new Frog(1); if (f == f) { } } }`},
		{"sell on int", `class A { void m() { int x = 1; x.sell(2); } }`},
		{"sell of frog", `class A { void m() { Frog f = new Frog(1); f.sell(f); } }`},
		{"field of int", `class A { void m() { int x = 1; x.cost = 2; } }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := analyze(t, tt.source)
			require.NotEmpty(t, errs)
			assert.Equal(t, errors.ErrorTypeMismatch, errs[0].Code)
		})
	}
}

func TestAllocations(t *testing.T) {
	errs := analyze(t, `class A { void m(int k) { Frog f = new Toad(1); Frog g = new Frog(k); Frog h = new Frog(1, 2); } }`)
	assert.Equal(t, []string{
		errors.ErrorInvalidAllocation,
		errors.ErrorInvalidAllocation,
		errors.ErrorInvalidArguments,
	}, codes(errs))
}

func TestCalls(t *testing.T) {
	errs := analyze(t, `class A { void m() { Frog f = new Frog(1); f.sel(1); f.sell(); f.sell(1, 2); } }`)
	require.Len(t, errs, 3)
	assert.Equal(t, errors.ErrorUndefinedMethod, errs[0].Code)
	assert.Contains(t, errs[0].Suggestions[0].Message, "sell")
	assert.Equal(t, errors.ErrorInvalidArguments, errs[1].Code)
	assert.Equal(t, errors.ErrorInvalidArguments, errs[2].Code)
}

func TestSignatures(t *testing.T) {
	errs := analyze(t, `class A { int m(long x) { } }`)
	assert.Equal(t, []string{errors.ErrorInvalidSignature, errors.ErrorUnknownType}, codes(errs))
}

func TestIntegerLiterals(t *testing.T) {
	assert.Empty(t, analyze(t, `class A { void m() { int x = -2147483648; int y = 2147483647; } }`))

	errs := analyze(t, `class A { void m() { int x = 2147483648; } }`)
	assert.Equal(t, []string{errors.ErrorNumericOverflow}, codes(errs))
}

func TestDefiniteAssignment(t *testing.T) {
	t.Run("unassigned read", func(t *testing.T) {
		errs := analyze(t, `class A { void m() { int x; int y = x + x; } }`)
		assert.Equal(t, []string{errors.ErrorUninitializedVariable}, codes(errs))
	})

	t.Run("assigned in one branch", func(t *testing.T) {
		errs := analyze(t, `class A { void m(int a) { int x; if (a > 0) { x = 1; } a = x; } }`)
		assert.Equal(t, []string{errors.ErrorUninitializedVariable}, codes(errs))
	})

	t.Run("assigned in both branches", func(t *testing.T) {
		assert.Empty(t, analyze(t, `class A { void m(int a) { int x; if (a > 0) { x = 1; } else { x = 2; } a = x; } }`))
	})

	t.Run("assigned in loop body", func(t *testing.T) {
		errs := analyze(t, `class A { void m(int a) { Frog f; while (a > 0) { f = new Frog(1); a = a - 1; } f.sell(1); } }`)
		assert.Equal(t, []string{errors.ErrorUninitializedVariable}, codes(errs))
	})
}
