package quant

// ProgressCallback is invoked periodically during Quantize with an overall
// completion percentage; returning false aborts the run with ErrAborted.
type ProgressCallback func(percent float32) bool

// Attributes holds every tunable of one quantization run. The zero value is
// not valid; use NewAttributes.
type Attributes struct {
	maxColors        int
	qualityMin       int
	qualityTarget    int
	speed            int
	minPosterization int
	lastIndexTransparent bool
	minOpacity       float32
	outputGamma      float64
	ditherLevel      float32
	useContrastMap   bool
	lowMemory        bool

	progress ProgressCallback
}

// NewAttributes returns an Attributes with the same defaults a caller gets
// by not touching any setter: 256 colors, full quality range, speed 4,
// standard sRGB-ish output gamma, full-strength dithering.
func NewAttributes() *Attributes {
	return &Attributes{
		maxColors:     256,
		qualityMin:    0,
		qualityTarget: 100,
		speed:         4,
		minOpacity:    0,
		outputGamma:   0.45455,
		ditherLevel:   1.0,
		useContrastMap: true,
	}
}

// SetMaxColors sets the palette size ceiling, 2-256.
func (a *Attributes) SetMaxColors(n int) *Error {
	if n < 2 || n > maxPaletteSize {
		return newError(ErrValueOutOfRange, "max colors must be between 2 and %d, got %d", maxPaletteSize, n)
	}
	a.maxColors = n
	return nil
}

func (a *Attributes) MaxColors() int { return a.maxColors }

// SetQuality sets the acceptable quality window, each 0-100, min<=target.
// Quantize returns ErrQualityTooLow if a palette meeting qualityMin cannot
// be found.
func (a *Attributes) SetQuality(min, target int) *Error {
	if min < 0 || min > 100 || target < 0 || target > 100 || min > target {
		return newError(ErrValueOutOfRange, "invalid quality range %d..%d", min, target)
	}
	a.qualityMin = min
	a.qualityTarget = target
	return nil
}

func (a *Attributes) QualityMin() int    { return a.qualityMin }
func (a *Attributes) QualityTarget() int { return a.qualityTarget }

// SetSpeed sets the speed/quality tradeoff preset, 1 (slowest, best) to 10
// (fastest). Speeds >= 9 additionally enable the resize pre-pass in
// histogram construction.
func (a *Attributes) SetSpeed(speed int) *Error {
	if speed < 1 || speed > 10 {
		return newError(ErrValueOutOfRange, "speed must be between 1 and 10, got %d", speed)
	}
	a.speed = speed
	return nil
}

func (a *Attributes) Speed() int { return a.speed }

// SetMinPosterization sets the minimum number of low bits to discard from
// each output channel, 0-4. Quantize may discard more if maxColors forces
// it, but never fewer.
func (a *Attributes) SetMinPosterization(bits int) *Error {
	if bits < 0 || bits > 4 {
		return newError(ErrValueOutOfRange, "posterization must be between 0 and 4, got %d", bits)
	}
	a.minPosterization = bits
	return nil
}

func (a *Attributes) MinPosterization() int { return a.minPosterization }

// SetLastIndexTransparent forces the final palette's last slot to be the
// fully transparent color when the input has one.
func (a *Attributes) SetLastIndexTransparent(v bool) { a.lastIndexTransparent = v }

func (a *Attributes) LastIndexTransparent() bool { return a.lastIndexTransparent }

// SetMinOpacity sets the alpha mean threshold above which a box containing
// a near-opaque pixel is forced fully opaque rather than averaged down by
// translucent neighbors. 0-1.
func (a *Attributes) SetMinOpacity(v float32) *Error {
	if v < 0 || v > 1 {
		return newError(ErrValueOutOfRange, "min opacity must be between 0 and 1, got %f", v)
	}
	a.minOpacity = v
	return nil
}

// SetOutputGamma sets the gamma output pixels are encoded in, typically
// 1/2.2 (0.45455) for sRGB-like output. The palette is rounded with it
// during Quantize; changing it afterwards does not re-round the palette of
// a Result already returned or drop its cached remap (Result.SetOutputGamma
// does both).
func (a *Attributes) SetOutputGamma(gamma float64) *Error {
	if gamma <= 0 || gamma > 1 {
		return newError(ErrValueOutOfRange, "output gamma must be in (0,1], got %f", gamma)
	}
	a.outputGamma = gamma
	return nil
}

func (a *Attributes) OutputGamma() float64 { return a.outputGamma }

// SetDitherLevel sets Floyd-Steinberg strength, 0 (off, nearest-only) to 1
// (full strength). A Result reads it when WriteRemapped computes a remap;
// changing it here does not drop a remap the Result has already cached
// (Result.SetDitherLevel does).
func (a *Attributes) SetDitherLevel(level float32) *Error {
	if level < 0 || level > 1 {
		return newError(ErrValueOutOfRange, "dither level must be between 0 and 1, got %f", level)
	}
	a.ditherLevel = level
	return nil
}

func (a *Attributes) DitherLevel() float32 { return a.ditherLevel }

// SetUseContrastMap enables or disables the noise-map weighting of the
// histogram; on by default. Dithered remapping is modulated by the edge
// map whatever this is set to.
func (a *Attributes) SetUseContrastMap(v bool) { a.useContrastMap = v }

// SetLowMemory records a low-memory hint. Quantize does not read it; the
// f-pixel cache ceiling is set per image by Image.SetLowMemory.
func (a *Attributes) SetLowMemory(v bool) { a.lowMemory = v }

func (a *Attributes) LowMemory() bool { return a.lowMemory }

// SetProgressCallback installs a progress reporter. Quantize calls it at
// 0 on entry, 20 after the histogram, 80 after median cut and Voronoi
// refinement, and 100 after palette sorting and rounding; WriteRemapped
// does not report progress.
func (a *Attributes) SetProgressCallback(cb ProgressCallback) { a.progress = cb }

func (a *Attributes) targetMSE() float32 { return mseFromQuality(a.qualityTarget) }
func (a *Attributes) maxMSE() float32    { return mseFromQuality(a.qualityMin) }
