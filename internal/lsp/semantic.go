package lsp

import (
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"frogcheck/grammar"
)

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
// TokenType is an index into the SemanticTokenTypes array
// TokenModifiers is a bitmask based on SemanticTokenModifiers
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int // index into SemanticTokenTypes
	TokenModifiers int // bitmask
}

var (
	keywords  = set("class", "if", "else", "while", "return", "new", "package", "import")
	modifiers = set("public", "private", "protected", "static", "final")
	typeNames = set("int", "double", "Frog", "void")
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// collectSemanticTokens classifies the lexer tokens of source. The lexer
// keeps going after a syntax error, so highlighting survives broken input.
func collectSemanticTokens(name, source string) []SemanticToken {
	lex, err := grammar.FrogLexer.LexString(name, source)
	if err != nil {
		return nil
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil && len(all) == 0 {
		return nil
	}

	symbols := grammar.FrogLexer.Symbols()
	ident := symbols["Ident"]
	comment := map[lexer.TokenType]bool{symbols["Comment"]: true, symbols["BlockComment"]: true}
	whitespace := symbols["Whitespace"]

	var toks []lexer.Token
	var tokens []SemanticToken
	for _, t := range all {
		switch {
		case t.EOF() || t.Type == whitespace:
		case comment[t.Type]:
			if !strings.Contains(t.Value, "\n") {
				tokens = append(tokens, makeToken(t, "comment", 0))
			}
		default:
			toks = append(toks, t)
		}
	}

	c := classifier{toks: toks, ident: ident, symbols: symbols, params: map[string]bool{}}
	for i := range toks {
		if kind, mods, ok := c.classify(i); ok {
			tokens = append(tokens, makeToken(toks[i], kind, mods))
		}
	}
	sortTokens(tokens)
	return tokens
}

type classifier struct {
	toks    []lexer.Token
	ident   lexer.TokenType
	symbols map[string]lexer.TokenType

	braces, parens int
	namespace      bool
	params         map[string]bool
}

func (c *classifier) value(i int) string {
	if i < 0 || i >= len(c.toks) {
		return ""
	}
	return c.toks[i].Value
}

func (c *classifier) isIdent(i int) bool {
	return i >= 0 && i < len(c.toks) && c.toks[i].Type == c.ident
}

// classify returns the token type and modifier mask of token i, tracking
// nesting as it goes
func (c *classifier) classify(i int) (string, int, bool) {
	t := c.toks[i]
	declaration := 1 << indexOf("declaration", SemanticTokenModifiers)

	switch t.Type {
	case c.symbols["Integer"]:
		return "number", 0, true
	case c.symbols["Operator"]:
		return "operator", 0, true
	case c.symbols["Punctuation"]:
		c.punctuation(t.Value)
		return "", 0, false
	}

	v := t.Value
	switch {
	case v == "package" || v == "import":
		c.namespace = true
		return "keyword", 0, true
	case c.namespace:
		return "namespace", 0, true
	case keywords[v]:
		return "keyword", 0, true
	case modifiers[v]:
		return "modifier", 0, true
	case c.value(i-1) == "class":
		return "type", declaration, true
	case typeNames[v]:
		return "type", 0, true
	case c.value(i-1) == ".":
		if c.value(i+1) == "(" {
			return "method", 0, true
		}
		return "property", 0, true
	case c.isIdent(i-1) && typeNames[c.value(i-1)]:
		switch {
		// method header at class level
		case c.braces == 1 && c.parens == 0 && c.value(i+1) == "(":
			c.params = map[string]bool{}
			return "method", declaration, true
		case c.braces == 1 && c.parens > 0:
			c.params[v] = true
			return "parameter", declaration, true
		}
		return "variable", declaration, true
	case c.params[v]:
		return "parameter", 0, true
	}
	return "variable", 0, true
}

func (c *classifier) punctuation(p string) {
	switch p {
	case "{":
		c.braces++
	case "}":
		c.braces--
		if c.braces <= 1 {
			c.params = map[string]bool{}
		}
	case "(":
		c.parens++
	case ")":
		c.parens--
	case ";":
		c.namespace = false
	}
}

// makeToken creates a semantic token for a lexer token
func makeToken(t lexer.Token, tokenType string, mods int) SemanticToken {
	return SemanticToken{
		Line:           uint32(t.Pos.Line - 1),   // LSP uses 0-based line numbers
		StartChar:      uint32(t.Pos.Column - 1), // LSP uses 0-based column numbers
		Length:         uint32(len(t.Value)),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: mods,
	}
}

func sortTokens(tokens []SemanticToken) {
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].StartChar < tokens[j].StartChar
	})
}

// encodeSemanticTokens produces the LSP wire format (delta-line, delta-start
// compression)
func encodeSemanticTokens(tokens []SemanticToken) []uint32 {
	data := []uint32{}
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}

		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}
	return data
}

// indexOf returns the index of a string in a slice, or 0 if not found
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return 0 // Default to first token type if not found
}
