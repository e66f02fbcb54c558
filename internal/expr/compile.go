package expr

import (
	"fmt"
	"math"
)

// node evaluates one compiled subexpression against the bind cells it
// captured at compile time.
type node func() float64

// cells is the private binding storage of one compiled Func.
type cells struct {
	t     float64
	y     []float64
	names map[string]*float64
}

func newCells(kind exprKind, n int) *cells {
	c := &cells{y: make([]float64, n)}
	c.names = map[string]*float64{"t": &c.t}
	switch kind {
	case kindScalar:
		c.names["y"] = &c.y[0]
	case kindVector:
		for i := range c.y {
			c.names[fmt.Sprintf("y%d", i)] = &c.y[i]
		}
		if n == 1 {
			c.names["y"] = &c.y[0]
		}
	}
	return c
}

type compiler struct {
	cells *cells
}

func (c *compiler) expr(a *exprAST) (node, error) {
	left, err := c.term(a.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range a.Rest {
		right, err := c.term(r.Right)
		if err != nil {
			return nil, err
		}
		l := left
		switch r.Op {
		case "+":
			left = func() float64 { return l() + right() }
		case "-":
			left = func() float64 { return l() - right() }
		}
	}
	return left, nil
}

func (c *compiler) term(a *termAST) (node, error) {
	left, err := c.unary(a.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range a.Rest {
		right, err := c.unary(r.Right)
		if err != nil {
			return nil, err
		}
		l := left
		switch r.Op {
		case "*":
			left = func() float64 { return l() * right() }
		case "/":
			left = func() float64 { return l() / right() }
		}
	}
	return left, nil
}

func (c *compiler) unary(a *unaryAST) (node, error) {
	if a.Power != nil {
		return c.power(a.Power)
	}
	inner, err := c.unary(a.Operand)
	if err != nil {
		return nil, err
	}
	if a.Op == "-" {
		return func() float64 { return -inner() }, nil
	}
	return inner, nil
}

func (c *compiler) power(a *powerAST) (node, error) {
	base, err := c.primary(a.Base)
	if err != nil {
		return nil, err
	}
	if a.Exponent == nil {
		return base, nil
	}
	exp, err := c.unary(a.Exponent)
	if err != nil {
		return nil, err
	}
	return func() float64 { return math.Pow(base(), exp()) }, nil
}

func (c *compiler) primary(a *primaryAST) (node, error) {
	switch {
	case a.Number != nil:
		v := *a.Number
		return func() float64 { return v }, nil
	case a.Call != nil:
		return c.call(a.Call)
	case a.Ident != nil:
		return c.ident(*a.Ident)
	case a.Sub != nil:
		return c.expr(a.Sub)
	}
	return nil, fmt.Errorf("empty operand")
}

func (c *compiler) ident(name string) (node, error) {
	if p, ok := c.cells.names[name]; ok {
		return func() float64 { return *p }, nil
	}
	if v, ok := constants[name]; ok {
		return func() float64 { return v }, nil
	}
	return nil, fmt.Errorf("unknown variable %q", name)
}

func (c *compiler) call(a *callAST) (node, error) {
	b, ok := builtins[a.Name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", a.Name)
	}
	if b.arity >= 0 && len(a.Args) != b.arity {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", a.Name, b.arity, len(a.Args))
	}
	if b.arity < 0 && len(a.Args) == 0 {
		return nil, fmt.Errorf("%s expects at least one argument", a.Name)
	}

	args := make([]node, len(a.Args))
	for i, arg := range a.Args {
		n, err := c.expr(arg)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}

	switch b.arity {
	case 1:
		fn, x := b.fn1, args[0]
		return func() float64 { return fn(x()) }, nil
	case 2:
		fn, x, y := b.fn2, args[0], args[1]
		return func() float64 { return fn(x(), y()) }, nil
	default:
		fn := b.fnN
		buf := make([]float64, len(args))
		return func() float64 {
			for i, arg := range args {
				buf[i] = arg()
			}
			return fn(buf)
		}, nil
	}
}
