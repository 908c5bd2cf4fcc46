package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"image/png"
	"testing"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pixelforge/imagequant/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() core.Logger {
	return mtlog.New(mtlog.WithSink(sinks.NewMemorySink()))
}

func TestNew(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	logger := testLogger()

	srv, err := New(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.Same(t, cfg, srv.config)
	assert.NotNil(t, srv.mcp)
	assert.NotNil(t, srv.logger)
}

func TestNew_InvalidConfig(t *testing.T) {
	logger := testLogger()

	cfg := testutil.NewTestConfig(t)
	cfg.MaxColors = 1 // below the validated floor of 2

	_, err := New(cfg, logger)
	require.Error(t, err)
}

func TestHandleQuantizeImage_ReducesSolidImageToOneColor(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	logger := testLogger()

	srv, err := New(cfg, logger)
	require.NoError(t, err)

	pngBytes := testutil.SolidPNG(t, 4, 4, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	input := QuantizeImageInput{PNGBase64: base64.StdEncoding.EncodeToString(pngBytes)}

	_, output, err := srv.handleQuantizeImage(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, output)
	require.Len(t, output.Palette, 1)
	assert.Equal(t, 1, len(output.Swatches))

	decoded, derr := base64.StdEncoding.DecodeString(output.PNGBase64)
	require.NoError(t, derr)

	img, derr := png.Decode(bytes.NewReader(decoded))
	require.NoError(t, derr)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestHandleQuantizeImage_RespectsMaxColorsOverride(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	logger := testLogger()

	srv, err := New(cfg, logger)
	require.NoError(t, err)

	pngBytes := testutil.GradientPNG(t, 16, 16)
	maxColors := 4
	input := QuantizeImageInput{
		PNGBase64: base64.StdEncoding.EncodeToString(pngBytes),
		MaxColors: &maxColors,
	}

	_, output, err := srv.handleQuantizeImage(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, output)
	assert.LessOrEqual(t, len(output.Palette), maxColors)
}

func TestHandleQuantizeImage_RejectsBadBase64(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	logger := testLogger()

	srv, err := New(cfg, logger)
	require.NoError(t, err)

	_, _, err = srv.handleQuantizeImage(context.Background(), &mcp.CallToolRequest{}, QuantizeImageInput{PNGBase64: "not base64!!"})
	require.Error(t, err)
}

func TestHandleQuantizeImage_RejectsOutOfRangeMaxColors(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	logger := testLogger()

	srv, err := New(cfg, logger)
	require.NoError(t, err)

	pngBytes := testutil.SolidPNG(t, 2, 2, color.RGBA{R: 10, A: 255})
	badMaxColors := 999
	input := QuantizeImageInput{
		PNGBase64: base64.StdEncoding.EncodeToString(pngBytes),
		MaxColors: &badMaxColors,
	}

	_, _, err = srv.handleQuantizeImage(context.Background(), &mcp.CallToolRequest{}, input)
	require.Error(t, err)
}
