package scoring

import (
	"math"
	"math/big"
)

// Normalize converts a raw detector score to a percentage in [0, 100].
// Values in [0, 1] are probabilities and get scaled; values in (1, 100] are
// already percentages. The result is rounded to two decimals.
func Normalize(v float64) (float64, error) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, &InvalidScoreError{Value: v, Reason: reasonNotFinite}
	case v < 0:
		return 0, &InvalidScoreError{Value: v, Reason: reasonNegative}
	case v <= 1:
		return round2(v * 100), nil
	case v <= 100:
		return round2(v), nil
	default:
		return 0, &InvalidScoreError{Value: v, Reason: reasonOutOfRange}
	}
}

var (
	hundred = big.NewFloat(100)
	half    = big.NewFloat(0.5)
)

// round2 rounds a non-negative v to two decimals on its exact binary value,
// with ties going up as in fixed-point decimal formatting.
func round2(v float64) float64 {
	x := new(big.Float).SetPrec(256).SetFloat64(v)
	x.Mul(x, hundred)
	x.Add(x, half)
	n, _ := x.Int(nil)
	f, _ := new(big.Rat).SetFrac(n, big.NewInt(100)).Float64()
	return f
}
