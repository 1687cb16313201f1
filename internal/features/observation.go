package features

// Observation is one historical row of the training source. Slices of
// observations are ordered by time.
type Observation struct {
	Volatility          float64 `json:"volatility"`
	MaxLossPct          float64 `json:"maxLossPct"`
	RealizedDrawdownPct float64 `json:"realizedDrawdownPct"`
}

// Targets returns the realized drawdown of every observation, in order.
func Targets(obs []Observation) []float64 {
	y := make([]float64, len(obs))
	for i, o := range obs {
		y[i] = o.RealizedDrawdownPct
	}
	return y
}
