package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var FrogLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},
		{Name: "BlockComment", Pattern: `/\*([^*]|\*+[^*/])*\*+/`, Action: nil},

		// Keywords and identifiers share a token type; the grammar matches keywords by value
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},

		{Name: "Integer", Pattern: `[0-9]+`, Action: nil},

		// Two-character operators first
		{Name: "Operator", Pattern: `(==|!=|<=|>=|[-+*/<>=])`, Action: nil},

		{Name: "Punctuation", Pattern: `[{}();,.]`, Action: nil},

		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})

// Elided lists the token types the parser skips.
var Elided = []string{"Whitespace", "Comment", "BlockComment"}
