package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frogcheck/internal/config"
)

func run(t *testing.T, input string) string {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	require.NoError(t, Start(strings.NewReader(input), &out, config.Default()))
	return out.String()
}

func TestVerifiesOnEmptyLine(t *testing.T) {
	out := run(t, `class A {
  void m() { Frog f = new Frog(5); f.sell(4); }
}

`)
	assert.Contains(t, out, "A: NON_NEGATIVE SAFE")
	assert.Contains(t, out, "A: ITEM_PROFIT UNSAFE")
	assert.Contains(t, out, "sell(4) is below production cost 5")
	assert.Contains(t, out, "A: OVERALL_PROFIT UNSAFE")
}

func TestVerifiesPendingInputAtEOF(t *testing.T) {
	out := run(t, `class B { void m() { Frog f = new Frog(1); f.sell(1); } }`)
	assert.Contains(t, out, "B: ITEM_PROFIT SAFE")
}

func TestCommands(t *testing.T) {
	out := run(t, strings.Join([]string{
		`class C { void m() { int x = ; } }`,
		`:clear`,
		`:ir`,
		`class C { void m() { Frog f = new Frog(1); f.sell(1); } }`,
		`:check`,
		`:quit`,
		`class D { }`,
	}, "\n"))

	assert.NotContains(t, out, "E0100")
	assert.Contains(t, out, "printing IR: true")
	assert.Contains(t, out, "C: NON_NEGATIVE SAFE")
	assert.NotContains(t, out, "D:")
}

func TestReportsCompileErrors(t *testing.T) {
	out := run(t, "class E { void m() { int x = ; } }\n\n")
	assert.Contains(t, out, "E0100")
	assert.NotContains(t, out, "E: NON_NEGATIVE")
}
