package verify

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frogcheck/internal/config"
	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
	"frogcheck/internal/parser"
	"frogcheck/internal/property"
	"frogcheck/internal/semantic"
)

var expectation = regexp.MustCompile(`^//\s*(NON_NEGATIVE|ITEM_PROFIT|OVERALL_PROFIT)\s+(SAFE|UNSAFE)\s*$`)

// expectations reads the `// PROPERTY VERDICT` header of a test class
func expectations(t *testing.T, path string) map[property.Property]Verdict {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	expected := make(map[property.Property]Verdict)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := expectation.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		p, err := property.Parse(m[1])
		require.NoError(t, err)
		expected[p] = Safe
		if m[2] == "UNSAFE" {
			expected[p] = Unsafe
		}
	}
	require.NoError(t, scanner.Err())
	return expected
}

func lowerFile(t *testing.T, path string) *ir.Program {
	t.Helper()
	file, parseErrors, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Empty(t, parseErrors)
	require.Empty(t, semantic.NewAnalyzer().AnalyzeFile(file))
	program, err := ir.BuildProgram(file.Classes[0])
	require.NoError(t, err)
	return program
}

func lowerSource(t *testing.T, source string) *ir.Program {
	t.Helper()
	file, parseErrors := parser.ParseSource("T.java", source)
	require.Empty(t, parseErrors)
	program, err := ir.BuildProgram(file.Classes[0])
	require.NoError(t, err)
	return program
}

func TestIntegration(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.java"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".java")
		t.Run(name, func(t *testing.T) {
			expected := expectations(t, path)
			require.Len(t, expected, len(property.All), "missing expectations")

			program := lowerFile(t, path)
			report, err := VerifyClass(program, property.All, nil)
			require.NoError(t, err)
			assert.Equal(t, name, report.Class)

			for _, p := range property.All {
				assert.Equal(t, expected[p], report.Verdict(p), "%s %s", name, p)
				assert.Equal(t, expected[p] == Safe, len(report.ViolationsOf(p)) == 0, "%s %s", name, p)
			}
		})
	}
}

func TestIndividualChecks(t *testing.T) {
	program := lowerSource(t, `class C { void m() { Frog f = new Frog(5); f.sell(5); f.sell(4); } }`)
	v, err := New(program, nil)
	require.NoError(t, err)

	verdict, err := v.CheckNonNegative()
	require.NoError(t, err)
	assert.Equal(t, Safe, verdict)

	verdict, err = v.CheckItemProfit()
	require.NoError(t, err)
	assert.Equal(t, Unsafe, verdict)
	violations := v.Violations(property.ItemProfit)
	require.Len(t, violations, 1)
	assert.Equal(t, "m", violations[0].Method)
	assert.Same(t, program.Method("m").SellSites()[1], violations[0].Unit)
	assert.Contains(t, violations[0].Reason, "sell(4) is below production cost 5")
	assert.Equal(t, 1, violations[0].Position.Line)

	verdict, err = v.CheckOverallProfit()
	require.NoError(t, err)
	assert.Equal(t, Unsafe, verdict)
	violations = v.Violations(property.OverallProfit)
	require.Len(t, violations, 1)
	assert.Same(t, program.Method("m").Last(), violations[0].Unit)
	assert.Contains(t, violations[0].Reason, "[-1, -1]")
}

func TestEveryFailingSiteIsReported(t *testing.T) {
	program := lowerSource(t, `class C {
    void m(int a) {
        Frog f = new Frog(0);
        f.sell(-1);
        f.sell(a);
        f.sell(2);
    }
    void n() {
        Frog g = new Frog(0);
        g.sell(-3);
    }
}`)
	report, err := VerifyClass(program, []property.Property{property.NonNegative}, nil)
	require.NoError(t, err)
	assert.Equal(t, Unsafe, report.Verdict(property.NonNegative))
	assert.False(t, report.Safe())

	violations := report.ViolationsOf(property.NonNegative)
	require.Len(t, violations, 3)
	assert.Equal(t, "m", violations[0].Method)
	assert.Contains(t, violations[0].Reason, "sell(-1)")
	assert.Contains(t, violations[1].Reason, "price a may be negative")
	assert.Equal(t, "n", violations[2].Method)

	// unchecked properties never count as safe
	assert.Equal(t, Unsafe, report.Verdict(property.ItemProfit))
}

func TestUnreachableSitesAreReported(t *testing.T) {
	program := lowerSource(t, `class C { void m(int a) {
    Frog f = new Frog(9);
    if (a > 0) { if (a < 0) { f.sell(-1); } }
    f.sell(9);
} }`)
	report, err := VerifyClass(program, property.All, nil)
	require.NoError(t, err)
	assert.True(t, report.Safe())
	require.Len(t, report.Unreachable, 1)
	assert.Same(t, program.Method("m").SellSites()[0], report.Unreachable[0])
}

func TestEmptyPointsToIsUnsafe(t *testing.T) {
	program := lowerSource(t, `class C { void m(Frog p) { p.sell(1); } }`)
	v, err := New(program, nil)
	require.NoError(t, err)

	verdict, err := v.CheckItemProfit()
	require.NoError(t, err)
	assert.Equal(t, Unsafe, verdict)
	assert.Contains(t, v.Violations(property.ItemProfit)[0].Reason, "no known frog")

	_, err = v.CheckOverallProfit()
	var analysisErr *errors.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, errors.ErrorInconsistentPointsTo, analysisErr.Code)
}

func TestUnsupportedConstructFails(t *testing.T) {
	program := lowerSource(t, `class C { void m() { Frog f = new Frog(1); f.cost = 2; f.sell(3); } }`)
	_, err := VerifyClass(program, property.All, nil)
	var analysisErr *errors.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, errors.ErrorUnsupportedConstruct, analysisErr.Code)
}

func TestTemplatesOff(t *testing.T) {
	cfg := config.Default()
	cfg.Templates = false
	program := lowerFile(t, filepath.Join("testdata", "Test_Param_Safe.java"))

	report, err := VerifyClass(program, property.All, cfg)
	require.NoError(t, err)
	assert.True(t, report.Safe())
}

func TestRunIsOncePerProperty(t *testing.T) {
	program := lowerSource(t, `class C { void m() { Frog f = new Frog(1); f.sell(1); } }`)
	v, err := New(program, nil)
	require.NoError(t, err)

	require.NoError(t, v.Run(property.ItemProfit))
	first := v.Analysis(property.ItemProfit, "m")
	require.NotNil(t, first)
	require.NoError(t, v.Run(property.ItemProfit))
	assert.Same(t, first, v.Analysis(property.ItemProfit, "m"))
	assert.Nil(t, v.Analysis(property.NonNegative, "m"))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "SAFE", Safe.String())
	assert.Equal(t, "UNSAFE", Unsafe.String())
}
