package quant

// Result is the output of one Quantize call: a frozen palette plus enough
// state to produce (and re-produce, after a gamma/dither change) a
// remapped indexed image. Call Close when done; after that every method
// returns ErrInvalidPointer instead of operating on stale state, mirroring
// the explicit free/use-after-free guard of the C API this package's
// design is descended from, but expressed as an ordinary Go flag rather
// than a pointer-validity tag.
type Result struct {
	img  *Image
	attr *Attributes

	colormap    *Colormap
	paletteRGBA []RGBAPixel
	mse         float32

	remapCache []uint8
	closed     bool
}

// Quantize runs the full pipeline: weighted histogram, median-cut box
// splitting with multiple trials, Voronoi refinement, popularity sort, and
// output rounding. It does not remap any pixels; call WriteRemapped for
// that once a Result is returned.
func Quantize(attr *Attributes, img *Image) (*Result, *Error) {
	if !reportProgress(attr, 0) {
		return nil, newError(ErrAborted, "quantization aborted by progress callback")
	}

	// The histogram's distinct-color budget comes from the speed preset, not
	// from the palette size: median cut does the reduction to maxColors.
	maxHistogramEntries := (1 << 17) + (1<<18)*(10-attr.speed)
	hist, err := buildHistogram(img, maxHistogramEntries, inputPosterizationForSpeed(attr.speed), attr.minPosterization, attr.useContrastMap, attr.speed)
	if err != nil {
		return nil, err
	}
	if !reportProgress(attr, 20) {
		return nil, newError(ErrAborted, "quantization aborted by progress callback")
	}

	cm, mse := findBestPalette(hist, attr.maxColors, img.fixedColors, attr.minOpacity, attr.targetMSE(), attr.maxMSE(), attr.speed)
	if !reportProgress(attr, 80) {
		return nil, newError(ErrAborted, "quantization aborted by progress callback")
	}

	if mse > attr.maxMSE() && attr.maxMSE() < 1e19 {
		return nil, newError(ErrQualityTooLow, "best palette found (mse=%.4f) does not meet the requested quality floor", mse)
	}

	sortPalette(cm, attr.lastIndexTransparent)
	rgba := roundPalette(cm, attr.outputGamma, attr.minPosterization)
	if !reportProgress(attr, 100) {
		return nil, newError(ErrAborted, "quantization aborted by progress callback")
	}

	return &Result{
		img:         img,
		attr:        attr,
		colormap:    cm,
		paletteRGBA: rgba,
		mse:         mse,
	}, nil
}

func reportProgress(attr *Attributes, percent float32) bool {
	if attr.progress == nil {
		return true
	}
	return attr.progress(percent)
}

// GetPalette returns the final rounded palette, in the order it will be
// indexed by WriteRemapped.
func (r *Result) GetPalette() ([]RGBAPixel, *Error) {
	if r.closed {
		return nil, newError(ErrInvalidPointer, "result is closed")
	}
	return r.paletteRGBA, nil
}

// GetQuantizationError returns the palette's mean squared color difference
// against the source image, rescaled to the conventional reporting range.
func (r *Result) GetQuantizationError() (float64, *Error) {
	if r.closed {
		return 0, newError(ErrInvalidPointer, "result is closed")
	}
	return reportedError(r.mse), nil
}

// GetQuantizationQuality maps the result's MSE back onto the 0-100 scale
// SetQuality's callers think in.
func (r *Result) GetQuantizationQuality() (int, *Error) {
	if r.closed {
		return 0, newError(ErrInvalidPointer, "result is closed")
	}
	return qualityFromMSE(r.mse), nil
}

// ExplainPalette reports diagnostic HSL/role metadata for the final
// palette. Never consulted by WriteRemapped; purely informational.
func (r *Result) ExplainPalette() ([]PaletteSwatch, *Error) {
	if r.closed {
		return nil, newError(ErrInvalidPointer, "result is closed")
	}
	return explainPalette(r.paletteRGBA), nil
}

// SetOutputGamma changes the output encoding gamma after the fact,
// re-rounding the palette with it and invalidating any cached remap so the
// next WriteRemapped recomputes against the new rounding.
func (r *Result) SetOutputGamma(gamma float64) *Error {
	if r.closed {
		return newError(ErrInvalidPointer, "result is closed")
	}
	if gamma <= 0 || gamma > 1 {
		return newError(ErrValueOutOfRange, "output gamma must be in (0,1], got %f", gamma)
	}
	r.attr.outputGamma = gamma
	r.paletteRGBA = roundPalette(r.colormap, gamma, r.attr.minPosterization)
	r.invalidateRemap()
	return nil
}

// SetDitherLevel changes the Floyd-Steinberg strength for subsequent
// WriteRemapped calls, invalidating any cached remap.
func (r *Result) SetDitherLevel(level float32) *Error {
	if r.closed {
		return newError(ErrInvalidPointer, "result is closed")
	}
	if level < 0 || level > 1 {
		return newError(ErrValueOutOfRange, "dither level must be between 0 and 1, got %f", level)
	}
	r.attr.ditherLevel = level
	r.invalidateRemap()
	return nil
}

func (r *Result) invalidateRemap() {
	r.remapCache = nil
}

// WriteRemapped produces one palette index per source pixel, dithering
// with Floyd-Steinberg error diffusion unless the dither level is 0. The
// result is cached until a gamma or dither-level change invalidates it.
func (r *Result) WriteRemapped() ([]uint8, *Error) {
	if r.closed {
		return nil, newError(ErrInvalidPointer, "result is closed")
	}
	if r.remapCache != nil {
		return r.remapCache, nil
	}

	searcher := newNearestSearcher(r.colormap.Entries)

	var out []uint8
	var err *Error
	if r.attr.ditherLevel > 0 {
		out, err = remapDither(searcher, r.img, r.attr.ditherLevel)
	} else {
		out, err = remapNearest(searcher, r.img)
	}
	if err != nil {
		return nil, err
	}
	r.remapCache = out
	return out, nil
}

// WriteRemappedInto copies the remapped index buffer into dst, which must
// be at least width*height bytes. It never partially writes a too-small
// buffer: on ErrBufferTooSmall, dst is left untouched.
func (r *Result) WriteRemappedInto(dst []uint8) *Error {
	if r.closed {
		return newError(ErrInvalidPointer, "result is closed")
	}
	needed := r.img.Width() * r.img.Height()
	if len(dst) < needed {
		return newError(ErrBufferTooSmall, "buffer has %d bytes, need %d", len(dst), needed)
	}
	out, err := r.WriteRemapped()
	if err != nil {
		return err
	}
	copy(dst, out)
	return nil
}

// Close releases the result. Safe to call more than once.
func (r *Result) Close() {
	r.closed = true
	r.remapCache = nil
}
