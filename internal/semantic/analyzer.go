package semantic

import (
	"fmt"

	"frogcheck/grammar"
	"frogcheck/internal/errors"
)

const (
	typeInt    = "int"
	typeDouble = "double"
	typeFrog   = "Frog"
	typeVoid   = "void"
)

var validLocalTypes = map[string]bool{
	typeInt:    true,
	typeDouble: true,
	typeFrog:   true,
}

// Analyzer checks that a class stays within the fragment the verifier can
// lower and analyze: typed locals, Frog allocations with constant costs, and
// sell as the only call.
type Analyzer struct {
	class   *grammar.Class
	errors  []errors.CompilerError
	symbols *SymbolTable
	methods map[string]*grammar.Method

	flow *flowState // definite assignment for the method being checked
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		errors:  make([]errors.CompilerError, 0),
		methods: make(map[string]*grammar.Method),
	}
}

// AnalyzeFile checks every class of a parsed file
func (a *Analyzer) AnalyzeFile(file *grammar.File) []errors.CompilerError {
	var all []errors.CompilerError
	for _, class := range file.Classes {
		all = append(all, a.Analyze(class)...)
	}
	return all
}

// Analyze checks one class and returns the errors found, in source order
func (a *Analyzer) Analyze(class *grammar.Class) []errors.CompilerError {
	a.class = class
	a.errors = make([]errors.CompilerError, 0)
	a.methods = make(map[string]*grammar.Method)

	for _, m := range class.Methods {
		if _, exists := a.methods[m.Name]; exists {
			a.addCompilerError(errors.DuplicateDeclaration("method", m.Name, m.Pos))
			continue
		}
		a.methods[m.Name] = m
	}

	for _, m := range class.Methods {
		a.analyzeMethod(m)
	}

	return a.errors
}

// GetErrors returns the errors of the last Analyze call
func (a *Analyzer) GetErrors() []errors.CompilerError {
	return a.errors
}

func (a *Analyzer) addCompilerError(err errors.CompilerError) {
	a.errors = append(a.errors, err)
}

func (a *Analyzer) addError(code, message string, pos errors.Position) {
	a.addCompilerError(errors.NewSemanticError(code, message, pos).Build())
}

func (a *Analyzer) analyzeMethod(m *grammar.Method) {
	if m.Result != typeVoid {
		a.addCompilerError(errors.InvalidSignature(m.Name,
			fmt.Sprintf("only void methods are supported, found %s", m.Result), m.Pos))
	}

	a.symbols = NewSymbolTable(nil)
	a.flow = newFlowState()

	for _, p := range m.Params {
		if !validLocalTypes[p.Type] {
			a.addCompilerError(errors.UnknownType(p.Type, p.Pos))
		}
		if a.symbols.LookupLocal(p.Name) != nil {
			a.addCompilerError(errors.DuplicateDeclaration("parameter", p.Name, p.Pos))
			continue
		}
		a.flow.assign(a.symbols.Define(p.Name, SymbolParameter, p.Type, p.Pos))
	}

	a.analyzeBlock(m.Body)
}

func (a *Analyzer) enterScope() {
	a.symbols = NewSymbolTable(a.symbols)
}

func (a *Analyzer) exitScope() {
	a.symbols = a.symbols.parent
}
