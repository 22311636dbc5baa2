package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestErrorReporter(t *testing.T) {
	source := `class Test {
    void m() {
        f.sell(pricee);
    }
}`

	reporter := NewErrorReporter("Test.java", source)

	err := UndefinedVariable("pricee", Position{Line: 3, Column: 16}, []string{"price", "f"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUndefinedVariable+"]")
	assert.Contains(t, formatted, "undefined variable 'pricee'")
	assert.Contains(t, formatted, "Test.java:3:16")
	assert.Contains(t, formatted, "f.sell(pricee);")
	assert.Contains(t, formatted, strings.Repeat(" ", 15)+"^^^^^^")
	assert.Contains(t, formatted, "did you mean 'price'?")
}

func TestUndefinedVariableError(t *testing.T) {
	pos := Position{Line: 1, Column: 5}

	err := UndefinedVariable("cnt", pos, []string{"cnt2", "count"})
	assert.Equal(t, ErrorUndefinedVariable, err.Code)
	require.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "did you mean one of")

	err = UndefinedVariable("xyz", pos, nil)
	require.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "make sure the variable is declared")
	assert.Len(t, err.Notes, 1)
}

func TestUndefinedMethodError(t *testing.T) {
	err := UndefinedMethod("sel", Position{Line: 2, Column: 3})
	assert.Equal(t, ErrorUndefinedMethod, err.Code)
	require.Len(t, err.Suggestions, 1)
	assert.Contains(t, err.Suggestions[0].Message, "'sell'")

	err = UndefinedMethod("jump", Position{Line: 2, Column: 3})
	assert.Empty(t, err.Suggestions)
}

func TestBuilderAndWarnings(t *testing.T) {
	warn := NewSemanticWarning(WarningUnreachableSell, "unreachable", Position{Line: 4, Column: 1}).
		WithLength(4).
		WithReplacement("remove the call", "").
		WithNote("n").
		WithHelp("h").
		Build()

	assert.Equal(t, Warning, warn.Level)
	assert.Equal(t, 4, warn.Length)
	assert.Len(t, warn.Suggestions, 1)
	assert.Equal(t, "h", warn.HelpText)

	formatted := NewErrorReporter("W.java", "a\nb\nc\nd\ne").FormatAll([]CompilerError{warn, SyntaxError("bad", Position{Line: 1, Column: 1})})
	assert.Contains(t, formatted, "warning["+WarningUnreachableSell+"]")
	assert.Contains(t, formatted, "W.java: 1 error(s), 1 warning(s)")
}

func TestErrorCodeCategories(t *testing.T) {
	tests := []struct {
		code     string
		category string
	}{
		{ErrorUndefinedVariable, "Semantic Analysis"},
		{ErrorInvalidAllocation, "Semantic Analysis"},
		{ErrorSyntax, "Parser"},
		{ErrorDomainFailure, "Analysis"},
		{ErrorItemLoss, "Verification"},
		{WarningUnreachableSell, "Warning"},
		{"X9999", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))
			if tt.category != "Unknown" {
				assert.NotEqual(t, "Unknown error code", GetErrorDescription(tt.code))
			}
		})
	}
}

func TestAnalysisError(t *testing.T) {
	err := Unsupported("numerical", "m", Position{Line: 7, Column: 9}, "unhandled unit %q", "x = y / z")
	assert.Equal(t, `numerical: m: unhandled unit "x = y / z"`, err.Error())

	diag := err.Diagnostic()
	assert.Equal(t, ErrorUnsupportedConstruct, diag.Code)
	assert.Equal(t, 7, diag.Position.Line)
	assert.Contains(t, diag.Notes[0], "'m'")

	wrapped := fmt.Errorf("verify: %w", InconsistentPointsTo("m", "f", Position{}))
	var target *AnalysisError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, ErrorInconsistentPointsTo, target.Code)

	domain := DomainFailure("m", Position{}, fmt.Errorf("nonlinear"))
	assert.Equal(t, "numerical: m: nonlinear", domain.Error())
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("sell", "sell"))
	assert.Equal(t, 1, levenshteinDistance("sel", "sell"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 4, levenshteinDistance("", "frog"))
}
