package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is one source file: an optional package clause, imports and classes.
type File struct {
	Pos     lexer.Position
	Package *QualifiedName   `[ "package" @@ ";" ]`
	Imports []*QualifiedName `{ "import" @@ ";" }`
	Classes []*Class         `@@+`
}

type QualifiedName struct {
	Pos   lexer.Position
	Parts []string `@Ident { "." @Ident }`
}

type Class struct {
	Pos       lexer.Position
	EndPos    lexer.Position
	Modifiers []string  `@("public" | "final")*`
	Name      string    `"class" @Ident "{"`
	Methods   []*Method `@@* "}"`
}

type Method struct {
	Pos       lexer.Position
	EndPos    lexer.Position
	Modifiers []string `@("public" | "private" | "protected" | "static" | "final")*`
	Result    string   `@Ident`
	Name      string   `@Ident "("`
	Params    []*Param `[ @@ { "," @@ } ] ")"`
	Body      *Block   `@@`
}

type Param struct {
	Pos  lexer.Position
	Type string `@Ident`
	Name string `@Ident`
}

type Block struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Statements []*Statement `"{" @@* "}"`
}

// Statement alternatives are ordered so that keywords win over declarations,
// and declarations over assignments and calls that share an identifier prefix.
type Statement struct {
	Pos    lexer.Position
	If     *IfStmt     `  @@`
	While  *WhileStmt  `| @@`
	Return bool        `| @"return" ";"`
	Block  *Block      `| @@`
	Empty  bool        `| @";"`
	Decl   *LocalDecl  `| @@`
	Assign *AssignStmt `| @@`
	Call   *CallStmt   `| @@`
}

type IfStmt struct {
	Pos  lexer.Position
	Cond *Condition `"if" "(" @@ ")"`
	Then *Statement `@@`
	Else *Statement `[ "else" @@ ]`
}

type WhileStmt struct {
	Pos  lexer.Position
	Cond *Condition `"while" "(" @@ ")"`
	Body *Statement `@@`
}

type LocalDecl struct {
	Pos   lexer.Position
	Type  string `@Ident`
	Name  string `@Ident`
	Value *Expr  `[ "=" @@ ] ";"`
}

// AssignStmt covers `x = e;` and the field form `f.cost = e;`.
type AssignStmt struct {
	Pos    lexer.Position
	Target string `@Ident`
	Field  string `[ "." @Ident ]`
	Value  *Expr  `"=" @@ ";"`
}

type CallStmt struct {
	Pos      lexer.Position
	Receiver string  `@Ident "."`
	Method   string  `@Ident "("`
	Args     []*Expr `[ @@ { "," @@ } ] ")" ";"`
}

type Condition struct {
	Pos   lexer.Position
	Left  *Expr  `@@`
	Op    string `@("==" | "!=" | "<=" | ">=" | "<" | ">")`
	Right *Expr  `@@`
}

// Expr is a sum of terms.
type Expr struct {
	Pos  lexer.Position
	Left *Term     `@@`
	Tail []*OpTerm `{ @@ }`
}

type OpTerm struct {
	Pos      lexer.Position
	Operator string `@("+" | "-")`
	Term     *Term  `@@`
}

// Term is a product of factors.
type Term struct {
	Pos  lexer.Position
	Left *Factor     `@@`
	Tail []*OpFactor `{ @@ }`
}

type OpFactor struct {
	Pos      lexer.Position
	Operator string  `@("*" | "/")`
	Factor   *Factor `@@`
}

type Factor struct {
	Pos    lexer.Position
	Neg    *Factor  `  "-" @@`
	New    *NewExpr `| @@`
	Number *string  `| @Integer`
	Ident  *string  `| @Ident`
	Parens *Expr    `| "(" @@ ")"`
}

type NewExpr struct {
	Pos   lexer.Position
	Class string  `"new" @Ident "("`
	Args  []*Expr `[ @@ { "," @@ } ] ")"`
}
