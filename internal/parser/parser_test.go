package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassWithLoop(t *testing.T) {
	source := `package ch.ethz.rse.integration.tests;

import ch.ethz.rse.Frog;

// expected results:
// NON_NEGATIVE SAFE
public class Loop_Test_Safe {
    /* block
       comment */
    public void m() {
        Frog f = new Frog(1);
        int x = 0;
        while (x < 10) {
            f.sell(x + 2);
            x = x + 1;
        }
    }
}`

	file, errs := ParseSource("Loop_Test_Safe.java", source)
	require.Empty(t, errs)
	require.NotNil(t, file)

	assert.Equal(t, "ch.ethz.rse.integration.tests", file.Package.String())
	require.Len(t, file.Imports, 1)
	assert.Equal(t, []string{"ch", "ethz", "rse", "Frog"}, file.Imports[0].Parts)

	require.Len(t, file.Classes, 1)
	class := file.Classes[0]
	assert.Equal(t, "Loop_Test_Safe", class.Name)
	assert.Equal(t, []string{"public"}, class.Modifiers)

	require.Len(t, class.Methods, 1)
	m := class.Methods[0]
	assert.Equal(t, "m", m.Name)
	assert.Equal(t, "void", m.Result)
	assert.Empty(t, m.Params)

	stmts := m.Body.Statements
	require.Len(t, stmts, 3)

	require.NotNil(t, stmts[0].Decl)
	assert.Equal(t, "Frog", stmts[0].Decl.Type)
	assert.Equal(t, "f", stmts[0].Decl.Name)
	require.NotNil(t, stmts[0].Decl.Value.Left.Left.New)
	assert.Equal(t, "Frog", stmts[0].Decl.Value.Left.Left.New.Class)

	require.NotNil(t, stmts[2].While)
	assert.Equal(t, "<", stmts[2].While.Cond.Op)
	body := stmts[2].While.Body.Block
	require.NotNil(t, body)
	require.Len(t, body.Statements, 2)
	require.NotNil(t, body.Statements[0].Call)
	assert.Equal(t, "f", body.Statements[0].Call.Receiver)
	assert.Equal(t, "sell", body.Statements[0].Call.Method)
	assert.Equal(t, "x + 2", body.Statements[0].Call.Args[0].String())
	require.NotNil(t, body.Statements[1].Assign)
	assert.Equal(t, "x", body.Statements[1].Assign.Target)
}

func TestParseIfElseAndParams(t *testing.T) {
	source := `class C {
    void m(int a, int b) {
        Frog f = new Frog(10);
        if (a >= -b) f.sell(a); else { f.sell(3); return; }
        f.cost = 4;
        ;
    }
}`

	file, errs := ParseSource("C.java", source)
	require.Empty(t, errs)

	m := file.Classes[0].Methods[0]
	require.Len(t, m.Params, 2)
	assert.Equal(t, "int", m.Params[1].Type)
	assert.Equal(t, "b", m.Params[1].Name)

	stmts := m.Body.Statements
	require.Len(t, stmts, 4)
	ifStmt := stmts[1].If
	require.NotNil(t, ifStmt)
	assert.Equal(t, ">=", ifStmt.Cond.Op)
	assert.Equal(t, "-b", ifStmt.Cond.Right.String())
	require.NotNil(t, ifStmt.Then.Call)
	require.NotNil(t, ifStmt.Else.Block)
	assert.True(t, ifStmt.Else.Block.Statements[1].Return)

	require.NotNil(t, stmts[2].Assign)
	assert.Equal(t, "f", stmts[2].Assign.Target)
	assert.Equal(t, "cost", stmts[2].Assign.Field)
	assert.True(t, stmts[3].Empty)
}

func TestParsePrecedence(t *testing.T) {
	file, errs := ParseSource("P.java", `class P { void m() { int x = 1 + 2 * 3 - (4 - 5); } }`)
	require.Empty(t, errs)

	value := file.Classes[0].Methods[0].Body.Statements[0].Decl.Value
	require.Len(t, value.Tail, 2)
	assert.Equal(t, "+", value.Tail[0].Operator)
	require.Len(t, value.Tail[0].Term.Tail, 1)
	assert.Equal(t, "*", value.Tail[0].Term.Tail[0].Operator)
	assert.NotNil(t, value.Tail[1].Term.Left.Parens)
	assert.Equal(t, "1 + 2 * 3 - (4 - 5)", value.String())
}

func TestParseErrorHasPosition(t *testing.T) {
	_, errs := ParseSource("Bad.java", "class Bad {\n    void m() {\n        int x = ;\n    }\n}")
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Position.Line)
	assert.Equal(t, "Bad.java", errs[0].Position.Filename)
	assert.Contains(t, errs[0].Error(), "Bad.java:3:")
}

func TestPrintRoundTrip(t *testing.T) {
	source := `class R {
    void m(int a) {
        Frog f = new Frog(2);
        if (a >= 2) {
            f.sell(a);
        }
    }
}`
	file, errs := ParseSource("R.java", source)
	require.Empty(t, errs)

	reparsed, errs := ParseSource("R2.java", file.String())
	require.Empty(t, errs)
	assert.Equal(t, file.String(), reparsed.String())
}

func TestParseFileMissing(t *testing.T) {
	_, _, err := ParseFile("does/not/exist.java")
	assert.Error(t, err)
}

func TestEBNF(t *testing.T) {
	assert.Contains(t, EBNF(), "File")
}
