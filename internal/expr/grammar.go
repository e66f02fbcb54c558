package expr

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Operator precedence, lowest first: + -, * /, unary sign, ^ (right
// associative). -x^2 parses as -(x^2) and 2^-1 as 2^(-1).
//
//nolint:govet // participle grammar tags are not standard struct tags
type exprAST struct {
	Left *termAST  `@@`
	Rest []*opTerm `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type opTerm struct {
	Op    string   `@("+" | "-")`
	Right *termAST `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type termAST struct {
	Left *unaryAST  `@@`
	Rest []*opUnary `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type opUnary struct {
	Op    string    `@("*" | "/")`
	Right *unaryAST `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type unaryAST struct {
	Op      string    `  ( @("-" | "+")`
	Operand *unaryAST `    @@ )`
	Power   *powerAST `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type powerAST struct {
	Base     *primaryAST `@@`
	Exponent *unaryAST   `( ("^" | "**") @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type primaryAST struct {
	Number *float64 `  @Number`
	Call   *callAST `| @@`
	Ident  *string  `| @Ident`
	Sub    *exprAST `| "(" @@ ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type callAST struct {
	Name string     `@Ident "("`
	Args []*exprAST `( @@ ( "," @@ )* )? ")"`
}

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Op", Pattern: `\*\*|[-+*/^(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var exprParser = participle.MustBuild[exprAST](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

func parse(src string) (*exprAST, error) {
	return exprParser.ParseString("", src)
}
