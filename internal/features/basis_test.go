package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		obs  Observation
		want Vector
	}{
		{"typical row", Observation{Volatility: 0.3, MaxLossPct: 5, RealizedDrawdownPct: 2}, Vector{1, 0.3, 0.09, 5}},
		{"zero row", Observation{}, Vector{1, 0, 0, 0}},
		{"negative volatility squares positive", Observation{Volatility: -2, MaxLossPct: 1}, Vector{1, -2, 4, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.obs)
			for j := range tt.want {
				assert.InDelta(t, tt.want[j], got[j], 1e-15, "column %d", j)
			}
		})
	}
}

func TestBuild_IgnoresTarget(t *testing.T) {
	a := Build(Observation{Volatility: 0.5, MaxLossPct: 3, RealizedDrawdownPct: 1})
	b := Build(Observation{Volatility: 0.5, MaxLossPct: 3, RealizedDrawdownPct: 99})
	assert.Equal(t, a, b)
}

func TestBuildMatrix_PreservesOrder(t *testing.T) {
	obs := []Observation{
		{Volatility: 0.1, MaxLossPct: 1},
		{Volatility: 0.2, MaxLossPct: 2},
		{Volatility: 0.3, MaxLossPct: 3},
	}

	x := BuildMatrix(obs)
	require.Len(t, x, 3)
	for i, o := range obs {
		assert.Equal(t, o.Volatility, x[i][1])
		assert.Equal(t, o.MaxLossPct, x[i][3])
	}
	assert.Empty(t, BuildMatrix(nil))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"volatility", "volatilitySquared", "maxLossPct"}, Names())
	assert.Equal(t, "intercept", Basis[0].Name)
	assert.Equal(t, Constant, Basis[0].Transform)
	assert.Equal(t, Square, Basis[2].Transform)
}

func TestTargets(t *testing.T) {
	obs := []Observation{{RealizedDrawdownPct: 1.5}, {RealizedDrawdownPct: -0.5}}
	assert.Equal(t, []float64{1.5, -0.5}, Targets(obs))
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 1+2*0.5+3*0.25+4*2, Dot([Width]float64{1, 2, 3, 4}, Vector{1, 0.5, 0.25, 2}), 1e-12)
}

func TestTransformString(t *testing.T) {
	assert.Equal(t, "constant", Constant.String())
	assert.Equal(t, "identity", Identity.String())
	assert.Equal(t, "square", Square.String())
	assert.Equal(t, "unknown", Transform(42).String())
}
