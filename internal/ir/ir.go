package ir

import "frogcheck/grammar"

// BuildProgram is the main entry point for lowering a class to IR
func BuildProgram(class *grammar.Class) (*Program, error) {
	return NewBuilder().Build(class)
}

// PrintProgram returns a pretty-printed representation of the IR
func PrintProgram(program *Program) string {
	return Print(program)
}
