package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"frogcheck/grammar"
)

var fileParser = buildParser()

func buildParser() *participle.Parser[grammar.File] {
	p, err := participle.Build[grammar.File](
		participle.Lexer(grammar.FrogLexer),
		participle.Elide(grammar.Elided...),
		participle.UseLookahead(8),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build parser: %w", err))
	}

	return p
}

// ParseError is a syntax error with the position participle reported it at.
type ParseError struct {
	Message  string
	Position lexer.Position
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Position.Filename, e.Position.Line, e.Position.Column, e.Message)
}

// ParseFile reads and parses a source file.
func ParseFile(path string) (*grammar.File, []ParseError, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	file, parseErrors := ParseSource(path, string(source))
	return file, parseErrors, nil
}

// ParseSource parses source text. The tree is nil whenever errors are returned.
func ParseSource(sourceName string, source string) (*grammar.File, []ParseError) {
	file, err := fileParser.ParseString(sourceName, source)
	if err == nil {
		return file, nil
	}

	var pe participle.Error
	if errors.As(err, &pe) {
		return nil, []ParseError{{Message: pe.Message(), Position: pe.Position()}}
	}
	return nil, []ParseError{{Message: err.Error(), Position: lexer.Position{Filename: sourceName, Line: 1, Column: 1}}}
}

// EBNF returns the grammar accepted by the parser, for documentation.
func EBNF() string {
	return fileParser.String()
}
