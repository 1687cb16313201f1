// Package features maps raw drawdown observations onto the fixed feature
// basis used by the risk model: [1, volatility, volatility², maxLossPct].
//
// The basis is a short ordered list of named transforms rather than a
// formula engine; there is exactly one model family to support.
package features

import "gonum.org/v1/gonum/floats"

// Width is the number of columns in a feature vector, bias included.
const Width = 4

// Vector is one row of the design matrix. Index 0 is the bias column.
type Vector [Width]float64

// Transform is how a basis column is derived from its source field.
type Transform int

const (
	Constant Transform = iota // always 1.0
	Identity                  // x
	Square                    // x*x
)

func (t Transform) String() string {
	switch t {
	case Constant:
		return "constant"
	case Identity:
		return "identity"
	case Square:
		return "square"
	default:
		return "unknown"
	}
}

// Source selects the observation field a column reads.
type Source int

const (
	None Source = iota
	Volatility
	MaxLossPct
)

// Column describes one entry of the basis.
type Column struct {
	Name      string
	Source    Source
	Transform Transform
}

// Basis is the ordered feature basis. Column 0 is the bias and is never
// persisted as a named feature.
var Basis = [Width]Column{
	{Name: "intercept", Source: None, Transform: Constant},
	{Name: "volatility", Source: Volatility, Transform: Identity},
	{Name: "volatilitySquared", Source: Volatility, Transform: Square},
	{Name: "maxLossPct", Source: MaxLossPct, Transform: Identity},
}

// Names returns the persisted feature names, bias excluded.
func Names() []string {
	names := make([]string, 0, Width-1)
	for _, c := range Basis[1:] {
		names = append(names, c.Name)
	}
	return names
}

func (c Column) value(o Observation) float64 {
	var x float64
	switch c.Source {
	case Volatility:
		x = o.Volatility
	case MaxLossPct:
		x = o.MaxLossPct
	}

	switch c.Transform {
	case Constant:
		return 1.0
	case Square:
		return x * x
	default:
		return x
	}
}

// Build maps one observation onto the basis.
func Build(o Observation) Vector {
	var v Vector
	for j, c := range Basis {
		v[j] = c.value(o)
	}
	return v
}

// BuildMatrix maps every observation onto the basis, preserving order.
func BuildMatrix(obs []Observation) []Vector {
	x := make([]Vector, len(obs))
	for i, o := range obs {
		x[i] = Build(o)
	}
	return x
}

// Dot returns the inner product of a weight array with a feature vector.
func Dot(w [Width]float64, x Vector) float64 {
	return floats.Dot(w[:], x[:])
}
