package util

import "math"

func Clamp(value, min, max float64) float64 {
	return math.Min(math.Max(value, min), max)
}

func Mix(a, b, factor float64) float64 {
	return a*(1-factor) + factor*b
}

// Remap maps value from [fromMin, fromMax] onto [toMin, toMax] and clamps it.
func Remap(value, fromMin, fromMax, toMin, toMax float64) float64 {
	if fromMax == fromMin {
		return toMin
	}
	factor := Clamp((value-fromMin)/(fromMax-fromMin), 0, 1)
	return Mix(toMin, toMax, factor)
}
