package quant

import (
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// maxPaletteSize is the hard cap on any palette this package produces.
const maxPaletteSize = 256

// ColormapEntry is one palette slot: a premultiplied f-pixel, its
// popularity (summed adjusted weight from the histogram buckets assigned
// to it), and whether it was forced in via AddFixedColor.
type ColormapEntry struct {
	Acolor     FPixel
	Popularity float32
	Fixed      bool
}

// Colormap is the palette produced by median cut and refined by Voronoi
// iteration. It may carry a SubsetPalette: a smaller snapshot taken partway
// through median cut, used to accelerate downstream nearest-color search.
type Colormap struct {
	Entries       []ColormapEntry
	SubsetPalette *Colormap
}

// sortPalette handles the transparent entry (when one is pinned to the last
// index), then a popularity-descending sort of the remaining partitions,
// then the empirical {1<->7, 2<->8, 3<->9} swap for palettes bigger than 16
// entries (a pair is skipped when its lower index is a fixed color).
// Fixed colors are never reordered relative to each other or moved out of
// call order -- they are sorted as a prefix block that stays first.
func sortPalette(cm *Colormap, lastIndexTransparent bool) {
	entries := cm.Entries
	fixed := make([]ColormapEntry, 0, len(entries))
	rest := make([]ColormapEntry, 0, len(entries))
	for _, e := range entries {
		if e.Fixed {
			fixed = append(fixed, e)
		} else {
			rest = append(rest, e)
		}
	}

	if lastIndexTransparent {
		transparentIdx := -1
		for i, e := range rest {
			if e.Acolor.A < 1.0/256.0 {
				transparentIdx = i
				break
			}
		}
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].Popularity > rest[j].Popularity })
		if transparentIdx >= 0 {
			// re-find after sort and move to the very end
			for i, e := range rest {
				if e.Acolor.A < 1.0/256.0 {
					rest = append(append(append([]ColormapEntry{}, rest[:i]...), rest[i+1:]...), e)
					break
				}
			}
		}
	} else {
		opaqueCut := 255.0 / 256.0
		var translucent, opaque []ColormapEntry
		for _, e := range rest {
			if e.Acolor.A < float32(opaqueCut) {
				translucent = append(translucent, e)
			} else {
				opaque = append(opaque, e)
			}
		}
		sort.SliceStable(translucent, func(i, j int) bool { return translucent[i].Popularity > translucent[j].Popularity })
		sort.SliceStable(opaque, func(i, j int) bool { return opaque[i].Popularity > opaque[j].Popularity })
		rest = append(translucent, opaque...)
	}

	merged := append(fixed, rest...)
	if len(merged) > 16 {
		for _, p := range [3][2]int{{1, 7}, {2, 8}, {3, 9}} {
			if p[0] >= len(fixed) {
				swapPairs(merged, p[0], p[1])
			}
		}
	}
	cm.Entries = merged
}

func swapPairs(s []ColormapEntry, i, j int) {
	if i < len(s) && j < len(s) {
		s[i], s[j] = s[j], s[i]
	}
}

// roundPalette converts every entry's f-pixel to a byte RGBA pixel via the
// output gamma LUT, applying output posterization (replicating the top
// `bits` of each byte into the low bits so posterize(posterize(x)) == x),
// and re-rounds the internal f-pixel through the same LUT so a subsequent
// remap sees exactly the quantized colors the output will carry.
func roundPalette(cm *Colormap, outGamma float64, posterizeBits int) []RGBAPixel {
	exp := outGamma / internalGamma
	out := make([]RGBAPixel, len(cm.Entries))
	inLUT := newGammaLUT(outGamma)
	for i, e := range cm.Entries {
		p := toRGBAPixel(e.Acolor, exp)
		p = posterizeRGBA(p, posterizeBits)
		out[i] = p
		cm.Entries[i].Acolor = toFPixel(p, inLUT)
	}
	return out
}

// posterizeRGBA replicates the top `bits` of each channel into its low
// bits: c & ~((1<<bits)-1) | (c >> (8-bits)). With bits==0 this is the
// identity.
func posterizeRGBA(p RGBAPixel, bits int) RGBAPixel {
	if bits <= 0 {
		return p
	}
	f := func(c uint8) uint8 {
		mask := uint8(0xFF << uint(bits))
		return (c & mask) | (c >> uint(8-bits))
	}
	return RGBAPixel{R: f(p.R), G: f(p.G), B: f(p.B), A: f(p.A)}
}

// PaletteSwatch is a diagnostic view of one rounded palette entry: its hex
// color plus perceptual metadata, reported for callers that want to show a
// palette preview (palette-swatch reporting adapted from k-means-cluster
// metadata to quantizer output). It never feeds back
// into any quantization decision.
type PaletteSwatch struct {
	Hex        string
	Hue        float64
	Saturation float64
	Lightness  float64
	Role       string
}

// explainPalette converts rounded palette entries to HSL via go-colorful
// and assigns a coarse role label, purely for reporting.
func explainPalette(rgba []RGBAPixel) []PaletteSwatch {
	swatches := make([]PaletteSwatch, len(rgba))
	for i, p := range rgba {
		c := colorful.Color{R: float64(p.R) / 255, G: float64(p.G) / 255, B: float64(p.B) / 255}
		h, s, l := c.Hsl()
		swatches[i] = PaletteSwatch{
			Hex:        c.Hex(),
			Hue:        h,
			Saturation: s * 100,
			Lightness:  l * 100,
			Role:       roleForLightness(l),
		}
	}
	return swatches
}

func roleForLightness(l float64) string {
	switch {
	case l < 0.2:
		return "near-black"
	case l < 0.4:
		return "shadow"
	case l < 0.6:
		return "midtone"
	case l < 0.8:
		return "highlight"
	default:
		return "near-white"
	}
}
