package errors

import (
	"fmt"
	"strings"
)

// SemanticErrorBuilder assembles a CompilerError one detail at a time.
type SemanticErrorBuilder struct {
	err CompilerError
}

// NewSemanticError starts an error one column wide at pos.
func NewSemanticError(code, message string, pos Position) *SemanticErrorBuilder {
	return &SemanticErrorBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewSemanticWarning is NewSemanticError at warning level.
func NewSemanticWarning(code, message string, pos Position) *SemanticErrorBuilder {
	b := NewSemanticError(code, message, pos)
	b.err.Level = Warning
	return b
}

// WithLength widens the underline.
func (b *SemanticErrorBuilder) WithLength(length int) *SemanticErrorBuilder {
	b.err.Length = length
	return b
}

func (b *SemanticErrorBuilder) WithSuggestion(message string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithReplacement suggests source to put in place of the underlined span.
func (b *SemanticErrorBuilder) WithReplacement(message, replacement string) *SemanticErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{
		Message:     message,
		Replacement: replacement,
	})
	return b
}

func (b *SemanticErrorBuilder) WithNote(note string) *SemanticErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp sets the closing help line, replacing any earlier one.
func (b *SemanticErrorBuilder) WithHelp(help string) *SemanticErrorBuilder {
	b.err.HelpText = help
	return b
}

func (b *SemanticErrorBuilder) Build() CompilerError {
	return b.err
}

// UndefinedVariable reports name, proposing close matches from candidates.
func UndefinedVariable(name string, pos Position, candidates []string) CompilerError {
	builder := NewSemanticError(ErrorUndefinedVariable, fmt.Sprintf("undefined variable '%s'", name), pos).
		WithLength(len(name))

	similar := findSimilarNames(name, candidates)
	switch len(similar) {
	case 0:
		builder = builder.WithSuggestion("make sure the variable is declared before use").
			WithNote("locals are declared as 'int x = ...;' or 'Frog f = new Frog(k);'")
	case 1:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	default:
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '")))
	}

	return builder.Build()
}

// UndefinedMethod creates an error for calls to methods Frog does not have
func UndefinedMethod(name string, pos Position) CompilerError {
	builder := NewSemanticError(ErrorUndefinedMethod, fmt.Sprintf("Frog has no method '%s'", name), pos).
		WithLength(len(name))
	if levenshteinDistance(name, "sell") <= 2 {
		builder = builder.WithSuggestion("did you mean 'sell'?")
	}
	return builder.WithNote("the only method of Frog is sell(int price)").Build()
}

// TypeMismatch creates an error for type mismatches
func TypeMismatch(expected, actual string, pos Position) CompilerError {
	builder := NewSemanticError(ErrorTypeMismatch, fmt.Sprintf("type mismatch: expected %s, found %s", expected, actual), pos)
	if expected == "int" && actual == "Frog" {
		builder = builder.WithNote("Frog references cannot take part in arithmetic or comparisons")
	}
	return builder.Build()
}

// UnknownType creates an error for declarations with an unsupported type name
func UnknownType(name string, pos Position) CompilerError {
	return NewSemanticError(ErrorUnknownType, fmt.Sprintf("unknown type '%s'", name), pos).
		WithLength(len(name)).
		WithNote("supported types are int, double and Frog").
		Build()
}

// DuplicateDeclaration creates an error for names declared twice in one scope
func DuplicateDeclaration(kind, name string, pos Position) CompilerError {
	return NewSemanticError(ErrorDuplicateDeclaration, fmt.Sprintf("%s '%s' is already declared", kind, name), pos).
		WithLength(len(name)).
		WithSuggestion(fmt.Sprintf("rename the second '%s'", name)).
		Build()
}

// InvalidArguments creates an error for calls with the wrong number of arguments
func InvalidArguments(callee string, expected, actual int, pos Position) CompilerError {
	return NewSemanticError(ErrorInvalidArguments,
		fmt.Sprintf("%s expects %d argument(s), found %d", callee, expected, actual), pos).
		Build()
}

// NumericOverflow creates an error for integer literals outside the int range
func NumericOverflow(literal string, pos Position) CompilerError {
	return NewSemanticError(ErrorNumericOverflow, fmt.Sprintf("integer literal %s overflows int", literal), pos).
		WithLength(len(literal)).
		Build()
}

// InvalidAllocation creates an error for allocations the points-to analysis cannot model
func InvalidAllocation(message string, pos Position) CompilerError {
	return NewSemanticError(ErrorInvalidAllocation, message, pos).
		WithHelp("allocate frogs as 'new Frog(k)' where k is an integer literal").
		Build()
}

// InvalidSignature creates an error for methods outside the supported fragment
func InvalidSignature(method, message string, pos Position) CompilerError {
	return NewSemanticError(ErrorInvalidSignature, fmt.Sprintf("method '%s': %s", method, message), pos).
		WithLength(len(method)).
		Build()
}

// UninitializedVariable creates an error for reads of locals that were declared without a value
func UninitializedVariable(name string, pos Position) CompilerError {
	return NewSemanticError(ErrorUninitializedVariable, fmt.Sprintf("variable '%s' might not have been initialized", name), pos).
		WithLength(len(name)).
		Build()
}

// SyntaxError wraps a parser message
func SyntaxError(message string, pos Position) CompilerError {
	return NewSemanticError(ErrorSyntax, message, pos).Build()
}

// findSimilarNames returns the candidates within edit distance 2 of target
func findSimilarNames(target string, candidates []string) []string {
	var similar []string

	for _, candidate := range candidates {
		if candidate != target && levenshteinDistance(target, candidate) <= 2 && len(candidate) > 1 {
			similar = append(similar, candidate)
		}
	}

	return similar
}

func levenshteinDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
