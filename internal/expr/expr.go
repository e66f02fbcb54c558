package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/odekit/internal/dynamo"
)

type exprKind uint8

const (
	kindScalar exprKind = iota
	kindVector
)

// Expression is the source text of a right-hand side: a single scalar
// formula in t and y, or one formula per vector component in t and y0..yn-1.
type Expression struct {
	kind       exprKind
	components []string
}

// Scalar returns a scalar expression.
func Scalar(src string) Expression {
	return Expression{kind: kindScalar, components: []string{src}}
}

// Vector returns a vector expression with one formula per component.
func Vector(srcs ...string) Expression {
	c := make([]string, len(srcs))
	copy(c, srcs)
	return Expression{kind: kindVector, components: c}
}

// ParseList splits text at top-level commas. A single formula yields a
// scalar expression; commas inside function calls do not split.
func ParseList(text string) Expression {
	parts := splitTopLevel(text)
	if len(parts) == 1 {
		return Scalar(parts[0])
	}
	return Vector(parts...)
}

func splitTopLevel(text string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(text[start:]))
}

func (e Expression) IsVector() bool { return e.kind == kindVector }
func (e Expression) Len() int       { return len(e.components) }

// Components returns a copy of the component formulas.
func (e Expression) Components() []string {
	c := make([]string, len(e.components))
	copy(c, e.components)
	return c
}

func (e Expression) String() string {
	if e.kind == kindScalar {
		return e.components[0]
	}
	return "{" + strings.Join(e.components, ", ") + "}"
}

// ParseError reports a formula that could not be compiled. It matches
// dynamo.ErrParse with errors.Is.
type ParseError struct {
	// Component is the index of the failing formula, or -1 for a scalar.
	Component int
	Source    string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Component < 0 {
		return fmt.Sprintf("expr: %q: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("expr: component %d %q: %v", e.Component, e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == dynamo.ErrParse }

var errEmpty = errors.New("empty expression")

// Func is a compiled expression. It implements dynamo.System.
//
// A Func owns private bind cells for t and y that every call to Derive
// overwrites before re-evaluating the compiled tree; nothing is re-parsed.
// Consequently a Func is not safe for concurrent use: goroutines that
// evaluate the same formula must each hold their own Clone.
type Func struct {
	expr  Expression
	asts  []*exprAST
	cells *cells
	nodes []node
	out   []float64
}

// Compile parses and binds e.
func Compile(e Expression) (*Func, error) {
	if len(e.components) == 0 {
		return nil, &ParseError{Component: 0, Err: errors.New("no component expressions")}
	}

	asts := make([]*exprAST, len(e.components))
	for i, src := range e.components {
		idx := i
		if e.kind == kindScalar {
			idx = -1
		}
		if strings.TrimSpace(src) == "" {
			return nil, &ParseError{Component: idx, Source: src, Err: errEmpty}
		}
		ast, err := parse(src)
		if err != nil {
			return nil, &ParseError{Component: idx, Source: src, Err: err}
		}
		asts[i] = ast
	}

	return bind(e, asts)
}

// CompileScalar compiles a scalar formula in t and y.
func CompileScalar(src string) (*Func, error) {
	return Compile(Scalar(src))
}

// CompileVector compiles one formula per component in t and y0..yn-1.
func CompileVector(srcs []string) (*Func, error) {
	return Compile(Vector(srcs...))
}

// MustCompile is like Compile but panics on error.
func MustCompile(e Expression) *Func {
	f, err := Compile(e)
	if err != nil {
		panic(err)
	}
	return f
}

func bind(e Expression, asts []*exprAST) (*Func, error) {
	f := &Func{
		expr:  e,
		asts:  asts,
		cells: newCells(e.kind, len(asts)),
		nodes: make([]node, len(asts)),
		out:   make([]float64, len(asts)),
	}
	c := &compiler{cells: f.cells}
	for i, ast := range asts {
		n, err := c.expr(ast)
		if err != nil {
			idx := i
			if e.kind == kindScalar {
				idx = -1
			}
			return nil, &ParseError{Component: idx, Source: e.components[i], Err: err}
		}
		f.nodes[i] = n
	}
	return f, nil
}

// Clone returns an independently bound copy that shares no cells with f.
func (f *Func) Clone() *Func {
	c, err := bind(f.expr, f.asts)
	if err != nil {
		// f was bound from the same trees.
		panic(err)
	}
	return c
}

func (f *Func) Expression() Expression { return f.expr }
func (f *Func) IsScalar() bool         { return f.expr.kind == kindScalar }
func (f *Func) Dim() int               { return len(f.nodes) }
func (f *Func) String() string         { return f.expr.String() }

// Shape is the state shape this function accepts and returns.
func (f *Func) Shape() dynamo.Shape {
	if f.IsScalar() {
		return dynamo.Shape{Kind: dynamo.KindScalar, Len: 1}
	}
	return dynamo.Shape{Kind: dynamo.KindVector, Len: len(f.nodes)}
}

// Derive evaluates the compiled formulas at (t, y).
func (f *Func) Derive(t float64, y dynamo.State) (dynamo.State, error) {
	if y.Shape() != f.Shape() {
		return dynamo.State{}, fmt.Errorf("%w: expression %s expects %s, got %s",
			dynamo.ErrDomain, f.expr, f.Shape(), y.Shape())
	}

	f.cells.t = t
	if f.IsScalar() {
		f.cells.y[0] = y.Value()
		return dynamo.Scalar(f.nodes[0]()), nil
	}

	for i := range f.cells.y {
		f.cells.y[i] = y.At(i)
	}
	for i, n := range f.nodes {
		f.out[i] = n()
	}
	return dynamo.Vector(f.out...), nil
}
