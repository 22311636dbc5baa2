package semantic

import (
	"fmt"

	"frogcheck/grammar"
	"frogcheck/internal/errors"
)

func (a *Analyzer) analyzeBlock(block *grammar.Block) {
	a.enterScope()
	defer a.exitScope()

	for _, s := range block.Statements {
		a.analyzeStatement(s)
	}
}

// nested statements of if and while open a scope even without braces
func (a *Analyzer) analyzeNested(s *grammar.Statement) {
	a.enterScope()
	defer a.exitScope()
	a.analyzeStatement(s)
}

func (a *Analyzer) analyzeStatement(s *grammar.Statement) {
	switch {
	case s.If != nil:
		a.analyzeCondition(s.If.Cond)
		before := a.flow.clone()

		a.analyzeNested(s.If.Then)
		afterThen := a.flow

		a.flow = before
		if s.If.Else != nil {
			a.analyzeNested(s.If.Else)
		}
		a.flow = meet(afterThen, a.flow)

	case s.While != nil:
		a.analyzeCondition(s.While.Cond)
		before := a.flow.clone()
		a.analyzeNested(s.While.Body)
		// the body may run zero times
		a.flow = before

	case s.Return:
		a.flow.returned = true

	case s.Block != nil:
		a.analyzeBlock(s.Block)

	case s.Empty:

	case s.Decl != nil:
		a.analyzeDecl(s.Decl)

	case s.Assign != nil:
		a.analyzeAssign(s.Assign)

	case s.Call != nil:
		a.analyzeCall(s.Call)
	}
}

func (a *Analyzer) analyzeDecl(d *grammar.LocalDecl) {
	if !validLocalTypes[d.Type] {
		a.addCompilerError(errors.UnknownType(d.Type, d.Pos))
	}

	var valueType string
	if d.Value != nil {
		valueType = a.analyzeExpr(d.Value)
	}

	if a.symbols.Lookup(d.Name) != nil {
		// Java forbids shadowing a local of an enclosing scope
		a.addCompilerError(errors.DuplicateDeclaration("variable", d.Name, d.Pos))
		return
	}
	symbol := a.symbols.Define(d.Name, SymbolVariable, d.Type, d.Pos)

	if d.Value != nil {
		a.checkAssignable(d.Type, valueType, d.Value.Pos)
		a.flow.assign(symbol)
	}
}

func (a *Analyzer) analyzeAssign(s *grammar.AssignStmt) {
	valueType := a.analyzeExpr(s.Value)

	symbol := a.symbols.Lookup(s.Target)
	if symbol == nil {
		a.addCompilerError(errors.UndefinedVariable(s.Target, s.Pos, a.symbols.Names()))
		return
	}

	if s.Field != "" {
		// field stores type-check but are left for the analyzer to reject
		if symbol.Type != typeFrog {
			a.addError(errors.ErrorTypeMismatch,
				fmt.Sprintf("'%s' of type %s has no fields", s.Target, symbol.Type), s.Pos)
			return
		}
		a.requireInitialized(symbol, s.Pos)
		a.checkAssignable(typeInt, valueType, s.Value.Pos)
		return
	}

	a.checkAssignable(symbol.Type, valueType, s.Value.Pos)
	a.flow.assign(symbol)
}

func (a *Analyzer) analyzeCall(c *grammar.CallStmt) {
	receiver := a.symbols.Lookup(c.Receiver)
	if receiver == nil {
		a.addCompilerError(errors.UndefinedVariable(c.Receiver, c.Pos, a.symbols.Names()))
	} else if receiver.Type != typeFrog {
		a.addError(errors.ErrorTypeMismatch,
			fmt.Sprintf("cannot call '%s' on '%s' of type %s", c.Method, c.Receiver, receiver.Type), c.Pos)
	} else {
		a.requireInitialized(receiver, c.Pos)
	}

	argTypes := make([]string, len(c.Args))
	for i, arg := range c.Args {
		argTypes[i] = a.analyzeExpr(arg)
	}

	if c.Method != "sell" {
		a.addCompilerError(errors.UndefinedMethod(c.Method, c.Pos))
		return
	}
	if len(c.Args) != 1 {
		a.addCompilerError(errors.InvalidArguments("sell", 1, len(c.Args), c.Pos))
		return
	}
	if argTypes[0] != "" && argTypes[0] != typeInt {
		a.addCompilerError(errors.TypeMismatch(typeInt, argTypes[0], c.Args[0].Pos))
	}
}

func (a *Analyzer) analyzeCondition(c *grammar.Condition) {
	for _, side := range []*grammar.Expr{c.Left, c.Right} {
		t := a.analyzeExpr(side)
		if t == typeFrog {
			a.addCompilerError(errors.TypeMismatch(typeInt, t, side.Pos))
		}
	}
}

// checkAssignable allows identical types and the int to double widening
func (a *Analyzer) checkAssignable(target, value string, pos errors.Position) {
	if value == "" || !validLocalTypes[target] || target == value {
		return
	}
	if target == typeDouble && value == typeInt {
		return
	}
	a.addCompilerError(errors.TypeMismatch(target, value, pos))
}

func (a *Analyzer) requireInitialized(s *Symbol, pos errors.Position) {
	if !a.flow.isAssigned(s) {
		a.addCompilerError(errors.UninitializedVariable(s.Name, pos))
		// report once
		a.flow.assign(s)
	}
}
