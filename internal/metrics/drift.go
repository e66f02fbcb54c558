package metrics

import (
	"math"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
)

// InvariantDrift tracks a quantity that the exact flow conserves, such as
// an energy, and reports its largest deviation from the initial value.
// The deviation is relative unless the initial value is zero.
type InvariantDrift struct {
	name     string
	quantity *expr.Quantity
	initial  float64
	maxDrift float64
	samples  int
	failed   bool
}

func NewInvariantDrift(src string, shape dynamo.Shape) (*InvariantDrift, error) {
	q, err := expr.CompileQuantity(src, shape)
	if err != nil {
		return nil, err
	}
	return &InvariantDrift{
		name:     "invariant_drift",
		quantity: q,
	}, nil
}

func (d *InvariantDrift) Name() string { return d.name }

func (d *InvariantDrift) OnStep(k int, t float64, y dynamo.State) {
	v, err := d.quantity.Eval(t, y)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		d.failed = true
		return
	}

	if d.samples == 0 {
		d.initial = v
	}
	d.samples++

	drift := math.Abs(v - d.initial)
	if d.initial != 0 {
		drift /= math.Abs(d.initial)
	}
	d.maxDrift = math.Max(d.maxDrift, drift)
}

// Value is the maximum drift seen, or +Inf once the quantity could not be
// evaluated.
func (d *InvariantDrift) Value() float64 {
	if d.failed {
		return math.Inf(1)
	}
	return d.maxDrift
}

func (d *InvariantDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
	d.failed = false
}
