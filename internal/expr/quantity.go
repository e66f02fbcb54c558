package expr

import (
	"fmt"
	"strings"

	"github.com/san-kum/odekit/internal/dynamo"
)

// Quantity is a single scalar formula evaluated over a state of fixed
// shape, such as an energy or a norm. Like Func it owns its bind cells and
// is not safe for concurrent use.
type Quantity struct {
	src   string
	shape dynamo.Shape
	cells *cells
	node  node
}

// CompileQuantity compiles src against states of the given shape. For a
// vector shape src may reference y0..yn-1; for a scalar shape, y.
func CompileQuantity(src string, shape dynamo.Shape) (*Quantity, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &ParseError{Component: -1, Source: src, Err: errEmpty}
	}
	ast, err := parse(src)
	if err != nil {
		return nil, &ParseError{Component: -1, Source: src, Err: err}
	}

	kind := kindScalar
	if shape.Kind == dynamo.KindVector {
		kind = kindVector
	}
	q := &Quantity{src: src, shape: shape, cells: newCells(kind, shape.Len)}
	if q.node, err = (&compiler{cells: q.cells}).expr(ast); err != nil {
		return nil, &ParseError{Component: -1, Source: src, Err: err}
	}
	return q, nil
}

// CompileTime compiles a formula in t alone, such as a closed-form
// solution. Only t is bound; any reference to the state is an error.
func CompileTime(src string) (*Quantity, error) {
	return CompileQuantity(src, dynamo.Shape{Kind: dynamo.KindVector})
}

func (q *Quantity) String() string      { return q.src }
func (q *Quantity) Shape() dynamo.Shape { return q.shape }

// Eval computes the quantity at (t, y).
func (q *Quantity) Eval(t float64, y dynamo.State) (float64, error) {
	if y.Shape() != q.shape {
		return 0, fmt.Errorf("%w: quantity %s expects %s, got %s", dynamo.ErrDomain, q.src, q.shape, y.Shape())
	}
	q.cells.t = t
	for i := range q.cells.y {
		q.cells.y[i] = y.At(i)
	}
	return q.node(), nil
}

// EvalTime computes a quantity compiled by CompileTime at t.
func (q *Quantity) EvalTime(t float64) float64 {
	q.cells.t = t
	return q.node()
}
