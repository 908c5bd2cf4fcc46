package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pixelforge/imagequant/pkg/quant"
)

// inputScreenGamma is the gamma PNG pixel values are assumed encoded in
// when no ICC profile or gAMA chunk overrides it -- the sRGB-ish 1/2.2
// convention every 8-bit image format defaults to in practice.
const inputScreenGamma = 0.45455

// QuantizeImageInput defines the input parameters for the quantize_image
// tool. Every tunable beyond PNGBase64 is optional and falls back to the
// server's configured default.
type QuantizeImageInput struct {
	PNGBase64     string   `json:"png_base64" jsonschema:"Source image, PNG-encoded then base64-encoded"`
	MaxColors     *int     `json:"max_colors,omitempty" jsonschema:"Target palette size, 2-256"`
	QualityMin    *int     `json:"quality_min,omitempty" jsonschema:"Minimum acceptable quality 0-100; quantization fails below it"`
	QualityTarget *int     `json:"quality_target,omitempty" jsonschema:"Quality to stop improving past, 0-100"`
	Speed         *int     `json:"speed,omitempty" jsonschema:"Speed/quality tradeoff, 1 (slowest, best) to 10 (fastest)"`
	DitherLevel   *float64 `json:"dither_level,omitempty" jsonschema:"Floyd-Steinberg dithering strength, 0 (off) to 1 (full)"`
}

// QuantizeImageOutput defines the output of the quantize_image tool.
type QuantizeImageOutput struct {
	PNGBase64  string                `json:"png_base64" jsonschema:"Quantized indexed-color PNG, base64-encoded"`
	Palette    []string              `json:"palette" jsonschema:"Final palette as hex colors, in index order"`
	Quality    int                   `json:"quality" jsonschema:"Achieved quality, 0-100"`
	ErrorScore float64               `json:"error_score" jsonschema:"Mean squared palette color error, conventional reporting scale"`
	Swatches   []quant.PaletteSwatch `json:"swatches" jsonschema:"Diagnostic hue/saturation/lightness/role metadata per palette entry"`
}

// registerQuantizeTool registers the quantize_image tool with the MCP
// server.
func (s *Server) registerQuantizeTool() {
	mcp.AddTool(
		s.mcp,
		&mcp.Tool{
			Name:        "quantize_image",
			Description: "Reduce a PNG image to a perceptually weighted color palette, with optional Floyd-Steinberg dithering. Accepts a base64-encoded PNG and returns a base64-encoded indexed-color PNG plus the final palette.",
		},
		wrapWithTiming("quantize_image", s.logger, s.handleQuantizeImage),
	)
}

func (s *Server) handleQuantizeImage(ctx context.Context, req *mcp.CallToolRequest, input QuantizeImageInput) (*mcp.CallToolResult, *QuantizeImageOutput, error) {
	opLogger := s.logger.WithContext(ctx)

	raw, err := base64.StdEncoding.DecodeString(input.PNGBase64)
	if err != nil {
		return nil, nil, fmt.Errorf("png_base64 is not valid base64: %w", err)
	}

	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	img, qerr := s.buildQuantImage(src)
	if qerr != nil {
		return nil, nil, fmt.Errorf("failed to prepare image: %s", qerr.Msg)
	}

	attr, aerr := s.buildAttributes(input)
	if aerr != nil {
		return nil, nil, fmt.Errorf("invalid quantization options: %s", aerr.Msg)
	}

	res, qerr := quant.Quantize(attr, img)
	if qerr != nil {
		return nil, nil, fmt.Errorf("quantization failed: %s", qerr.Msg)
	}
	defer res.Close()

	palette, qerr := res.GetPalette()
	if qerr != nil {
		return nil, nil, fmt.Errorf("failed to read palette: %s", qerr.Msg)
	}

	indices, qerr := res.WriteRemapped()
	if qerr != nil {
		return nil, nil, fmt.Errorf("failed to remap pixels: %s", qerr.Msg)
	}

	quality, _ := res.GetQuantizationQuality()
	errScore, _ := res.GetQuantizationError()
	swatches, _ := res.ExplainPalette()

	bounds := src.Bounds()
	out, err := encodeIndexedPNG(bounds.Dx(), bounds.Dy(), palette, indices)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode quantized PNG: %w", err)
	}

	opLogger.Information("Quantized image to {Colors} colors at quality {Quality}", len(palette), quality)

	hexPalette := make([]string, len(swatches))
	for i, sw := range swatches {
		hexPalette[i] = sw.Hex
	}

	return nil, &QuantizeImageOutput{
		PNGBase64:  base64.StdEncoding.EncodeToString(out),
		Palette:    hexPalette,
		Quality:    quality,
		ErrorScore: errScore,
		Swatches:   swatches,
	}, nil
}

// buildQuantImage flattens a decoded PNG into the row-major RGBA buffer
// quant.NewImageFromRGBA expects, declaring it at the conventional 1/2.2
// screen gamma PNG pixels are encoded at.
func (s *Server) buildQuantImage(src image.Image) (*quant.Image, *quant.Error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	buf := make([]quant.RGBAPixel, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			buf[y*w+x] = quant.RGBAPixel{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}

	return quant.NewImageFromRGBA(buf, w, h, inputScreenGamma)
}

// buildAttributes applies the server's configured defaults, then overlays
// any per-call overrides from input.
func (s *Server) buildAttributes(input QuantizeImageInput) (*quant.Attributes, *quant.Error) {
	attr := quant.NewAttributes()

	maxColors := s.config.MaxColors
	if input.MaxColors != nil {
		maxColors = *input.MaxColors
	}
	if err := attr.SetMaxColors(maxColors); err != nil {
		return nil, err
	}

	qualityMin := s.config.QualityMin
	if input.QualityMin != nil {
		qualityMin = *input.QualityMin
	}
	qualityTarget := s.config.QualityTarget
	if input.QualityTarget != nil {
		qualityTarget = *input.QualityTarget
	}
	if err := attr.SetQuality(qualityMin, qualityTarget); err != nil {
		return nil, err
	}

	speed := s.config.Speed
	if input.Speed != nil {
		speed = *input.Speed
	}
	if err := attr.SetSpeed(speed); err != nil {
		return nil, err
	}

	ditherLevel := s.config.DitheringLevel
	if input.DitherLevel != nil {
		ditherLevel = *input.DitherLevel
	}
	if err := attr.SetDitherLevel(float32(ditherLevel)); err != nil {
		return nil, err
	}

	return attr, nil
}

// encodeIndexedPNG builds an image.Paletted from a quantized palette and
// per-pixel index buffer, then PNG-encodes it.
func encodeIndexedPNG(w, h int, palette []quant.RGBAPixel, indices []uint8) ([]byte, error) {
	pal := make(color.Palette, len(palette))
	for i, p := range palette {
		pal[i] = color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}
	}

	out := image.NewPaletted(image.Rect(0, 0, w, h), pal)
	copy(out.Pix, indices)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
