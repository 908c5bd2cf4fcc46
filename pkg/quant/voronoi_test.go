package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoronoiIterate_FixedColorsDoNotMove(t *testing.T) {
	img := stripedImage(16, 16, []RGBAPixel{
		{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255},
	})
	hist := histogramFor(t, img)

	fixed := FPixel{A: 1, R: 0.5, G: 0.5, B: 0.5}
	cm := &Colormap{Entries: []ColormapEntry{
		{Acolor: fixed, Fixed: true},
		{Acolor: FPixel{A: 1, R: 1}, Popularity: 1},
		{Acolor: FPixel{A: 1, G: 1}, Popularity: 1},
		{Acolor: FPixel{A: 1, B: 1}, Popularity: 1},
	}}

	refined, _ := voronoiIterate(hist, cm, 0)
	require.True(t, refined.Entries[0].Fixed)
	assert.Equal(t, fixed, refined.Entries[0].Acolor)
}

func TestVoronoiIterate_ReducesOrMaintainsMSE(t *testing.T) {
	img := stripedImage(16, 16, []RGBAPixel{
		{R: 250, G: 10, B: 10, A: 255}, {R: 10, G: 250, B: 10, A: 255},
		{R: 10, G: 10, B: 250, A: 255}, {R: 200, G: 200, B: 10, A: 255},
	})
	hist := histogramFor(t, img)

	cm := medianCut(hist, 4, nil, 0, 0, 1)
	refined, mse1 := voronoiIterate(hist, cm, 0)
	_, mse2 := voronoiIterate(hist, refined, 0)
	assert.LessOrEqual(t, mse2, mse1*1.5+1e-9)
}

func TestFindBestPalette_MeetsColorBudget(t *testing.T) {
	colors := make([]RGBAPixel, 20)
	for i := range colors {
		colors[i] = RGBAPixel{R: uint8(i * 12), G: uint8(i * 5), B: uint8(255 - i*10), A: 255}
	}
	img := stripedImage(20, 20, colors)
	hist := histogramFor(t, img)

	cm, mse := findBestPalette(hist, 8, nil, 0, mseFromQuality(80), mseFromQuality(0), 5)
	assert.LessOrEqual(t, len(cm.Entries), 8)
	assert.GreaterOrEqual(t, mse, float32(0))
}

func TestTrialsAndIterationsForSpeed_Monotonic(t *testing.T) {
	assert.GreaterOrEqual(t, trialsForSpeed(1), trialsForSpeed(10))
	assert.GreaterOrEqual(t, iterationsForSpeed(1), iterationsForSpeed(10))
}
