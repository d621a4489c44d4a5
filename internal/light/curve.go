package light

import (
	"cmp"
	"math"
)

// MaxBrightness is the top of the bulb's 16-bit brightness range.
const MaxBrightness = 0xffff

// Clamp limits v to [lo, hi].
func Clamp[T cmp.Ordered](lo, hi, v T) T {
	return max(lo, min(v, hi))
}

// Correct maps a linear dial position in [0, 1] onto perceived brightness
// with the curve (10^x - 1) / 9, so that Correct(0) == 0 and Correct(1) == 1.
func Correct(brightness float64) float64 {
	return Clamp(0.0, 1.0, (math.Pow(10, brightness)-1)/9)
}

// Scale converts a dial position into device brightness units.
func Scale(brightness float64) uint16 {
	scaled := math.Round(Correct(brightness) * MaxBrightness)
	return uint16(Clamp(0.0, MaxBrightness, scaled))
}
