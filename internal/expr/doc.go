// Package expr compiles textual right-hand sides into dynamo.System values.
//
// A scalar expression may reference t and y. A vector expression has one
// formula per component; each may reference t and every y0..yn-1, and a
// single-component vector additionally binds y to y0.
//
// Supported syntax: numbers, + - * / ^ (also **), unary sign, parentheses,
// the constants pi and e, and the functions listed in builtins.go.
//
//	f, err := expr.Compile(expr.Vector("y1", "-y0"))
//	dy, err := f.Derive(0, dynamo.Vector(1, 0))
package expr
