package experiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/logging"
)

// CaseColumns is the header of a regression case file.
var CaseColumns = []string{"type", "expr", "t0", "tf", "h", "y0", "expected_final", "expected_derivative"}

// Case is one regression case: a problem, the value expected at Tf and
// the derivative expected at (T0, Y0).
type Case struct {
	Kind               dynamo.Kind
	Expression         expr.Expression
	T0                 float64
	Tf                 float64
	H                  float64
	Y0                 dynamo.State
	ExpectedFinal      dynamo.State
	ExpectedDerivative dynamo.State
}

// DefaultCases is dy/dt = y and its two-component analogue on [0, 1].
func DefaultCases() []Case {
	return []Case{
		{
			Kind:               dynamo.KindScalar,
			Expression:         expr.Scalar("y"),
			T0:                 0,
			Tf:                 1,
			H:                  0.001,
			Y0:                 dynamo.Scalar(1),
			ExpectedFinal:      dynamo.Scalar(math.E),
			ExpectedDerivative: dynamo.Scalar(1),
		},
		{
			Kind:               dynamo.KindVector,
			Expression:         expr.Vector("y0", "y1"),
			T0:                 0,
			Tf:                 1,
			H:                  0.001,
			Y0:                 dynamo.Vector(1, 1),
			ExpectedFinal:      dynamo.Vector(math.E, math.E),
			ExpectedDerivative: dynamo.Vector(1, 1),
		},
	}
}

// LoadCasesFile reads cases from path. A missing file yields DefaultCases.
func LoadCasesFile(path string) ([]Case, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn("case file not found, using default cases", "path", path)
		return DefaultCases(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open case file: %w", err)
	}
	defer f.Close()

	return LoadCases(f)
}

// LoadCases parses a CSV case table. Rows that cannot be used are skipped
// with a warning; only an unreadable stream or header is an error.
func LoadCases(r io.Reader) ([]Case, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err == io.EOF {
		logging.Warn("case file is empty")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read case header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range CaseColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("case header missing column %q", name)
		}
	}

	var cases []Case
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logging.CaseSkipped(row, perr.Err.Error())
				continue
			}
			return nil, fmt.Errorf("read case row %d: %w", row, err)
		}

		c, err := parseCase(record, cols)
		if err != nil {
			logging.CaseSkipped(row, err.Error())
			continue
		}
		cases = append(cases, c)
	}

	logging.Debug("loaded cases", "count", len(cases))
	return cases, nil
}

func parseCase(record []string, cols map[string]int) (Case, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return "", fmt.Errorf("missing field %s", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	values := make(map[string]string, len(CaseColumns))
	for _, name := range CaseColumns {
		v, err := field(name)
		if err != nil {
			return Case{}, err
		}
		values[name] = v
	}

	var c Case
	var err error
	for name, dst := range map[string]*float64{"t0": &c.T0, "tf": &c.Tf, "h": &c.H} {
		if *dst, err = parseNumber(name, values[name]); err != nil {
			return Case{}, err
		}
	}

	switch strings.ToLower(values["type"]) {
	case "scalar":
		c.Kind = dynamo.KindScalar
		c.Expression = expr.Scalar(values["expr"])
		if c.Y0, err = parseScalar("y0", values["y0"]); err != nil {
			return Case{}, err
		}
		if c.ExpectedFinal, err = parseScalar("expected_final", values["expected_final"]); err != nil {
			return Case{}, err
		}
		if c.ExpectedDerivative, err = parseScalar("expected_derivative", values["expected_derivative"]); err != nil {
			return Case{}, err
		}
	case "vector":
		c.Kind = dynamo.KindVector
		parts := expr.ParseList(values["expr"]).Components()
		c.Expression = expr.Vector(parts...)
		n := len(parts)
		if c.Y0, err = parseVector("y0", values["y0"], n); err != nil {
			return Case{}, err
		}
		if c.ExpectedFinal, err = parseVector("expected_final", values["expected_final"], n); err != nil {
			return Case{}, err
		}
		if c.ExpectedDerivative, err = parseVector("expected_derivative", values["expected_derivative"], n); err != nil {
			return Case{}, err
		}
	default:
		return Case{}, fmt.Errorf("unknown case type %q", values["type"])
	}

	return c, nil
}

func parseNumber(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

func parseScalar(name, s string) (dynamo.State, error) {
	v, err := parseNumber(name, s)
	if err != nil {
		return dynamo.State{}, err
	}
	return dynamo.Scalar(v), nil
}

func parseVector(name, s string, n int) (dynamo.State, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return dynamo.State{}, fmt.Errorf("%s has %d values for %d expressions", name, len(parts), n)
	}
	xs := make([]float64, n)
	for i, p := range parts {
		v, err := parseNumber(name, p)
		if err != nil {
			return dynamo.State{}, err
		}
		xs[i] = v
	}
	return dynamo.Vector(xs...), nil
}
