package quant

import "math"

// internalGamma is the perceptual exponent the quantizer computes in; it
// lies between sRGB (~2.2) and linear (1.0) and correlates better with
// perceived error than either extreme.
const internalGamma = 0.5499

// gammaLUT is a 256-entry byte->linear lookup table built from a source (or
// output) gamma value. It is constructed per-image/per-result, never as a
// process-global: the legacy C implementation kept one LUT in a global, the
// active implementation moved it per-image, and this port does the same.
type gammaLUT [256]float32

// newGammaLUT builds the input LUT: lut[i] = (i/255)^(internalGamma/gamma).
func newGammaLUT(gamma float64) *gammaLUT {
	if gamma <= 0 {
		gamma = 0.45455
	}
	var lut gammaLUT
	exp := internalGamma / gamma
	for i := range lut {
		lut[i] = float32(math.Pow(float64(i)/255.0, exp))
	}
	return &lut
}

func (l *gammaLUT) at(b uint8) float32 {
	return l[b]
}
