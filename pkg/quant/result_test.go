package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: a single solid-color pixel quantizes to a one-entry palette equal to
// the input, with zero error.
func TestQuantize_SinglePixel(t *testing.T) {
	attr := NewAttributes()
	require.Nil(t, attr.SetMaxColors(2))

	img := solidImage(1, 1, RGBAPixel{R: 255, A: 255})
	res, err := Quantize(attr, img)
	require.Nil(t, err)
	defer res.Close()

	palette, err := res.GetPalette()
	require.Nil(t, err)
	require.Len(t, palette, 1)
	assert.Equal(t, RGBAPixel{R: 255, A: 255}, palette[0])

	idx, err := res.WriteRemapped()
	require.Nil(t, err)
	assert.Equal(t, []uint8{0}, idx)

	mse, err := res.GetQuantizationError()
	require.Nil(t, err)
	assert.Equal(t, 0.0, mse)
}

// S2: two distinct colors with max_colors=2 and a zero target MSE produce a
// lossless two-entry palette; every source pixel maps to its own color.
func TestQuantize_TwoColorsLossless(t *testing.T) {
	attr := NewAttributes()
	require.Nil(t, attr.SetMaxColors(2))
	require.Nil(t, attr.SetQuality(0, 100))

	red := RGBAPixel{R: 255, A: 255}
	blue := RGBAPixel{B: 255, A: 255}
	img, ierr := NewImageFromRGBA([]RGBAPixel{red, blue}, 2, 1, 0.45455)
	require.Nil(t, ierr)

	res, err := Quantize(attr, img)
	require.Nil(t, err)
	defer res.Close()

	palette, err := res.GetPalette()
	require.Nil(t, err)
	require.Len(t, palette, 2)
	assert.ElementsMatch(t, []RGBAPixel{red, blue}, palette)

	idx, err := res.WriteRemapped()
	require.Nil(t, err)
	require.Len(t, idx, 2)
	assert.Equal(t, palette[idx[0]], red)
	assert.Equal(t, palette[idx[1]], blue)
	assert.NotEqual(t, idx[0], idx[1])

	mse, err := res.GetQuantizationError()
	require.Nil(t, err)
	assert.Equal(t, 0.0, mse)
}

// S3: fully transparent pixels of any RGB collapse into a single
// transparent palette entry.
func TestQuantize_TransparentPixelsMerge(t *testing.T) {
	attr := NewAttributes()
	require.Nil(t, attr.SetMaxColors(8))

	pixels := []RGBAPixel{
		{R: 10, G: 20, B: 30, A: 0},
		{R: 40, G: 50, B: 60, A: 0},
		{R: 0, G: 0, B: 0, A: 0},
		{R: 128, G: 128, B: 128, A: 0},
	}
	img, ierr := NewImageFromRGBA(pixels, 4, 1, 0.45455)
	require.Nil(t, ierr)

	res, err := Quantize(attr, img)
	require.Nil(t, err)
	defer res.Close()

	palette, err := res.GetPalette()
	require.Nil(t, err)
	require.Len(t, palette, 1)
	assert.Equal(t, uint8(0), palette[0].A)

	mse, err := res.GetQuantizationError()
	require.Nil(t, err)
	assert.Equal(t, 0.0, mse)
}

// S4: a fixed color is present at the start of the final palette, and a
// white pixel maps to the white entry rather than the fixed black one.
func TestQuantize_FixedColorHonored(t *testing.T) {
	attr := NewAttributes()
	require.Nil(t, attr.SetMaxColors(2))

	img := solidImage(1, 1, RGBAPixel{R: 255, G: 255, B: 255, A: 255})
	require.Nil(t, img.AddFixedColor(RGBAPixel{A: 255}))

	res, err := Quantize(attr, img)
	require.Nil(t, err)
	defer res.Close()

	palette, err := res.GetPalette()
	require.Nil(t, err)
	require.Len(t, palette, 2)
	assert.Equal(t, RGBAPixel{A: 255}, palette[0])

	idx, err := res.WriteRemapped()
	require.Nil(t, err)
	require.Len(t, idx, 1)
	assert.NotEqual(t, uint8(0), idx[0])
	assert.Equal(t, uint8(255), palette[idx[0]].R)
}

// S5: a progress callback that refuses the first tick aborts quantization
// before any palette is produced.
func TestQuantize_AbortsViaProgressCallback(t *testing.T) {
	attr := NewAttributes()
	attr.SetProgressCallback(func(percent float32) bool { return false })

	img := solidImage(4, 4, RGBAPixel{R: 100, G: 100, B: 100, A: 255})
	res, err := Quantize(attr, img)
	require.NotNil(t, err)
	assert.Equal(t, ErrAborted, err.Kind)
	assert.Nil(t, res)
}

// S6: writing into a buffer smaller than width*height fails without
// touching the buffer.
func TestWriteRemappedInto_BufferTooSmall(t *testing.T) {
	attr := NewAttributes()
	img := solidImage(4, 4, RGBAPixel{R: 100, G: 150, B: 200, A: 255})
	res, err := Quantize(attr, img)
	require.Nil(t, err)
	defer res.Close()

	buf := make([]uint8, 15)
	for i := range buf {
		buf[i] = 0xAA
	}
	werr := res.WriteRemappedInto(buf)
	require.NotNil(t, werr)
	assert.Equal(t, ErrBufferTooSmall, werr.Kind)
	for _, b := range buf {
		assert.Equal(t, uint8(0xAA), b)
	}
}

func TestResult_MethodsFailAfterClose(t *testing.T) {
	attr := NewAttributes()
	img := solidImage(2, 2, RGBAPixel{R: 10, A: 255})
	res, err := Quantize(attr, img)
	require.Nil(t, err)

	res.Close()

	_, perr := res.GetPalette()
	require.NotNil(t, perr)
	assert.Equal(t, ErrInvalidPointer, perr.Kind)

	_, rerr := res.WriteRemapped()
	require.NotNil(t, rerr)
	assert.Equal(t, ErrInvalidPointer, rerr.Kind)
}

func TestResult_SetOutputGammaInvalidatesRemapCache(t *testing.T) {
	attr := NewAttributes()
	img := checkerboardImage(8, 8, RGBAPixel{R: 255, A: 255}, RGBAPixel{B: 255, A: 255})
	res, err := Quantize(attr, img)
	require.Nil(t, err)
	defer res.Close()

	_, rerr := res.WriteRemapped()
	require.Nil(t, rerr)
	require.NotNil(t, res.remapCache)

	gerr := res.SetOutputGamma(1.0)
	require.Nil(t, gerr)
	assert.Nil(t, res.remapCache)
}
