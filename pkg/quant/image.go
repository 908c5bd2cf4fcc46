package quant

// RowSource is the capability an Image is built from: a single pull
// operation producing one row of RGBA pixels at a time. image_from_rows,
// image_from_rgba and image_from_callback all just construct a different
// RowSource and wrap it in an Image.
type RowSource interface {
	// GetRow fills dst (length == width) with row i's pixels.
	GetRow(i int, dst []RGBAPixel) error
}

type rowSliceSource struct{ rows [][]RGBAPixel }

func (s *rowSliceSource) GetRow(i int, dst []RGBAPixel) error {
	copy(dst, s.rows[i])
	return nil
}

type bufferSource struct {
	buf   []RGBAPixel
	width int
}

func (s *bufferSource) GetRow(i int, dst []RGBAPixel) error {
	copy(dst, s.buf[i*s.width:(i+1)*s.width])
	return nil
}

// RowCallback is invoked once per row to materialize it on demand; used by
// image_from_callback for streaming/generator-backed sources.
type RowCallback func(row int, dst []RGBAPixel) error

type callbackSource struct{ cb RowCallback }

func (s *callbackSource) GetRow(i int, dst []RGBAPixel) error {
	return s.cb(i, dst)
}

// lowMemoryCacheCeiling is the byte budget for the full f-pixel cache; above
// it the image silently falls back to per-thread scratch-row conversion.
// Exceeding it is handled by fallback, never by error.
const lowMemoryCacheCeiling = 64 * 1024 * 1024 // 64 MiB

// lowMemoryCacheCeilingHinted is the ceiling applied when the caller hints
// it is memory constrained: 1/8th of the normal budget.
const lowMemoryCacheCeilingHinted = lowMemoryCacheCeiling / 8

// Image wraps a row source plus the gamma it was declared in. It owns
// optional derived buffers (f-pixel cache, contrast/noise maps); destroying
// the image (letting it be garbage collected) releases them all.
type Image struct {
	width, height int
	gamma         float64
	rows          RowSource
	inputLUT      *gammaLUT

	fpixels   []FPixel // nil unless cached (high-memory mode)
	lowMemory bool

	contrast *contrastMaps // nil until contrastMapsFor is called

	fixedColors []FPixel
}

// NewImageFromRows constructs an image from an explicit 2D row slice.
func NewImageFromRows(rows [][]RGBAPixel, width, height int, gamma float64) (*Image, *Error) {
	if width <= 0 || height <= 0 {
		return nil, newError(ErrValueOutOfRange, "width and height must be positive, got %dx%d", width, height)
	}
	if len(rows) != height {
		return nil, newError(ErrValueOutOfRange, "rows has %d entries, want %d", len(rows), height)
	}
	for i, r := range rows {
		if len(r) != width {
			return nil, newError(ErrValueOutOfRange, "row %d has %d pixels, want %d", i, len(r), width)
		}
	}
	return newImage(&rowSliceSource{rows: rows}, width, height, gamma), nil
}

// NewImageFromRGBA constructs an image from a flat row-major RGBA buffer.
func NewImageFromRGBA(buf []RGBAPixel, width, height int, gamma float64) (*Image, *Error) {
	if width <= 0 || height <= 0 {
		return nil, newError(ErrValueOutOfRange, "width and height must be positive, got %dx%d", width, height)
	}
	if len(buf) != width*height {
		return nil, newError(ErrValueOutOfRange, "buffer has %d pixels, want %d", len(buf), width*height)
	}
	return newImage(&bufferSource{buf: buf, width: width}, width, height, gamma), nil
}

// NewImageFromCallback constructs an image backed by a pull callback,
// invoked once per row as rows are consumed.
func NewImageFromCallback(cb RowCallback, width, height int, gamma float64) (*Image, *Error) {
	if width <= 0 || height <= 0 {
		return nil, newError(ErrValueOutOfRange, "width and height must be positive, got %dx%d", width, height)
	}
	if cb == nil {
		return nil, newError(ErrInvalidPointer, "row callback must not be nil")
	}
	return newImage(&callbackSource{cb: cb}, width, height, gamma), nil
}

func newImage(src RowSource, width, height int, gamma float64) *Image {
	return &Image{
		width:    width,
		height:   height,
		gamma:    gamma,
		rows:     src,
		inputLUT: newGammaLUT(gamma),
	}
}

// SetLowMemory forces the 1/8 memory ceiling even if the full f-pixel cache
// would otherwise fit, for callers that know they are memory constrained.
func (img *Image) SetLowMemory(low bool) { img.lowMemory = low }

func (img *Image) cacheCeiling() int {
	if img.lowMemory {
		return lowMemoryCacheCeilingHinted
	}
	return lowMemoryCacheCeiling
}

// ensureFPixels materializes (and memoizes) the full f-pixel plane if it
// fits under the memory ceiling; otherwise it returns nil and callers must
// fall back to per-row conversion via eachRow.
func (img *Image) ensureFPixels() []FPixel {
	if img.fpixels != nil {
		return img.fpixels
	}
	needed := img.width * img.height * 16 // bytes, 4 float32 lanes
	if needed > img.cacheCeiling() {
		return nil
	}
	px := make([]FPixel, img.width*img.height)
	row := make([]RGBAPixel, img.width)
	for y := 0; y < img.height; y++ {
		if err := img.rows.GetRow(y, row); err != nil {
			return nil
		}
		for x, p := range row {
			px[y*img.width+x] = toFPixel(p, img.inputLUT)
		}
	}
	img.fpixels = px
	return px
}

// eachRow streams f-pixel rows via the row source without caching, for
// low-memory mode. fn receives the row index and a scratch buffer it must
// not retain past the call.
func (img *Image) eachRow(fn func(y int, row []FPixel) error) error {
	raw := make([]RGBAPixel, img.width)
	fpx := make([]FPixel, img.width)
	for y := 0; y < img.height; y++ {
		if err := img.rows.GetRow(y, raw); err != nil {
			return err
		}
		for x, p := range raw {
			fpx[x] = toFPixel(p, img.inputLUT)
		}
		if err := fn(y, fpx); err != nil {
			return err
		}
	}
	return nil
}

// AddFixedColor forces rgba into the final palette, in call order, before
// any popularity-based reordering of the remaining entries. Must be called
// before Quantize; the palette cap (256 total, fixed or not) applies.
func (img *Image) AddFixedColor(rgba RGBAPixel) *Error {
	if len(img.fixedColors) >= maxPaletteSize {
		return newError(ErrValueOutOfRange, "cannot add more than %d fixed colors", maxPaletteSize)
	}
	img.fixedColors = append(img.fixedColors, toFPixel(rgba, img.inputLUT))
	return nil
}

// Width and Height report the image dimensions.
func (img *Image) Width() int  { return img.width }
func (img *Image) Height() int { return img.height }

// contrastMapsFor builds (and memoizes) the edge/noise maps, materializing
// a transient full f-pixel plane if the image isn't already cached at full
// resolution -- the maps themselves are only width*height bytes each, far
// under the cache ceiling even in low-memory mode.
func (img *Image) contrastMapsFor() *contrastMaps {
	if img.contrast != nil {
		return img.contrast
	}
	px := img.fpixels
	if px == nil {
		px = make([]FPixel, img.width*img.height)
		_ = img.eachRow(func(y int, row []FPixel) error {
			copy(px[y*img.width:(y+1)*img.width], row)
			return nil
		})
	}
	img.contrast = buildContrastMaps(px, img.width, img.height)
	return img.contrast
}
