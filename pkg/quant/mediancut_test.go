package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramFor(t *testing.T, img *Image) *Histogram {
	t.Helper()
	hist, err := buildHistogram(img, 256, 0, 0, true, 1)
	require.Nil(t, err)
	return hist
}

func TestMedianCut_RespectsTargetColors(t *testing.T) {
	img := stripedImage(16, 16, []RGBAPixel{
		{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}, {R: 255, G: 255, A: 255},
		{R: 255, B: 255, A: 255}, {G: 255, B: 255, A: 255}, {R: 128, G: 128, B: 128, A: 255}, {A: 255},
	})
	hist := histogramFor(t, img)

	cm := medianCut(hist, 4, nil, 0, 0, 1)
	assert.LessOrEqual(t, len(cm.Entries), 4)
	assert.Greater(t, len(cm.Entries), 0)
}

func TestMedianCut_FewerColorsThanTarget(t *testing.T) {
	img := solidImage(8, 8, RGBAPixel{R: 10, G: 20, B: 30, A: 255})
	hist := histogramFor(t, img)

	cm := medianCut(hist, 16, nil, 0, 0, 1)
	assert.Equal(t, 1, len(cm.Entries))
}

func TestMedianCut_FixedColorsAlwaysPresent(t *testing.T) {
	img := stripedImage(16, 16, []RGBAPixel{
		{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}, {R: 255, G: 255, A: 255},
	})
	hist := histogramFor(t, img)

	fixed := []FPixel{{A: 1, R: 0.5, G: 0.5, B: 0.5}}
	cm := medianCut(hist, 4, fixed, 0, 0, 1)

	require.GreaterOrEqual(t, len(cm.Entries), 1)
	assert.True(t, cm.Entries[0].Fixed)
	assert.Equal(t, fixed[0], cm.Entries[0].Acolor)
}

func TestMedianCut_SubsetPaletteSnapshotSmallerThanFull(t *testing.T) {
	colors := make([]RGBAPixel, 32)
	for i := range colors {
		colors[i] = RGBAPixel{R: uint8(i * 7), G: uint8(i * 11), B: uint8(i * 13), A: 255}
	}
	img := stripedImage(32, 32, colors)
	hist := histogramFor(t, img)

	cm := medianCut(hist, 32, nil, 0, 0, 1)
	if cm.SubsetPalette != nil {
		assert.Less(t, len(cm.SubsetPalette.Entries), len(cm.Entries))
	}
}

func TestPackSortValue_PrimaryChannelDominates(t *testing.T) {
	order := [4]int{chanR, chanG, chanB, chanA}
	lo := packSortValue(FPixel{A: 1, R: 0.1, G: 0, B: 0}, order)
	hi := packSortValue(FPixel{A: 1, R: 0.9, G: 0, B: 0}, order)
	assert.Less(t, lo, hi)
}

func TestSplitAxisOrder_DescendingVariance(t *testing.T) {
	order := splitAxisOrder([4]float32{0.1, 0.9, 0.3, 0.05})
	assert.Equal(t, chanR, order[0])
	assert.Equal(t, chanB, order[3])
}
