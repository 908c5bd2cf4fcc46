package quant

import "math/rand"

// ditherSeed fixes the Floyd-Steinberg jitter source so two remaps of the
// same image and palette always produce byte-identical output.
const ditherSeed = 12345

// errPixel accumulates diffused quantization error per channel for one
// pixel, ahead of that pixel being visited.
type errPixel struct{ a, r, g, b float32 }

// remapNearest assigns every pixel its nearest palette index with no error
// diffusion, carrying the previous pixel's match forward as the next
// pixel's search guess (adjacent pixels are usually close in color, so
// this turns most of a row into guess hits instead of full tree descents).
func remapNearest(searcher *nearestSearcher, img *Image) ([]uint8, *Error) {
	out := make([]uint8, img.width*img.height)
	raw := make([]RGBAPixel, img.width)
	for y := 0; y < img.height; y++ {
		if err := img.rows.GetRow(y, raw); err != nil {
			return nil, newError(ErrBitmapNotAvailable, "%v", err)
		}
		guess := 0
		for x, p := range raw {
			fp := toFPixel(p, img.inputLUT)
			idx, _ := searcher.searchNear(fp, guess)
			guess = idx
			out[y*img.width+x] = uint8(idx)
		}
	}
	return out, nil
}

// remapDither assigns palette indices with zig-zag Floyd-Steinberg error
// diffusion, modulated per-pixel by the image's edge map: each pixel's
// strength is ditherLevel*edges/255, so smooth regions dither at full
// strength while hard edges and noisy regions, where the edge map is low,
// dither less or not at all.
func remapDither(searcher *nearestSearcher, img *Image, ditherLevel float32) ([]uint8, *Error) {
	w, h := img.width, img.height
	out := make([]uint8, w*h)
	raw := make([]RGBAPixel, w)

	edges := img.contrastMapsFor().edges

	thisRow := make([]errPixel, w)
	nextRow := make([]errPixel, w)

	rng := rand.New(rand.NewSource(ditherSeed))
	for x := range thisRow {
		thisRow[x] = errPixel{
			a: (rng.Float32() - 0.5) / 256,
			r: (rng.Float32() - 0.5) / 256,
			g: (rng.Float32() - 0.5) / 256,
			b: (rng.Float32() - 0.5) / 256,
		}
	}

	for y := 0; y < h; y++ {
		if err := img.rows.GetRow(y, raw); err != nil {
			return nil, newError(ErrBitmapNotAvailable, "%v", err)
		}
		for x := range nextRow {
			nextRow[x] = errPixel{}
		}

		leftToRight := y%2 == 0
		guess := 0
		for i := 0; i < w; i++ {
			x := i
			if !leftToRight {
				x = w - 1 - i
			}

			strength := ditherLevel * (float32(edges[y*w+x]) / 255.0)

			orig := toFPixel(raw[x], img.inputLUT)
			e := thisRow[x]
			adjusted := FPixel{
				A: clampErrorRatio(orig.A, e.a*strength),
				R: clampErrorRatio(orig.R, e.r*strength),
				G: clampErrorRatio(orig.G, e.g*strength),
				B: clampErrorRatio(orig.B, e.b*strength),
			}

			idx, _ := searcher.searchNear(adjusted, guess)
			guess = idx
			out[y*w+x] = uint8(idx)

			chosen := searcher.palette[idx].Acolor
			errA := adjusted.A - chosen.A
			errR := adjusted.R - chosen.R
			errG := adjusted.G - chosen.G
			errB := adjusted.B - chosen.B

			diffuse(thisRow, nextRow, x, w, leftToRight, errA, errR, errG, errB)
		}

		thisRow, nextRow = nextRow, thisRow
	}
	return out, nil
}

// clampErrorRatio adds diffused error to a channel value but scales it down
// when it would push the result out of [0,1], rather than hard-clamping:
// a hard clamp discards the excess error entirely and the next pixel never
// sees it, which is what produces visible color-fringing at saturated
// edges.
func clampErrorRatio(base, delta float32) float32 {
	v := base + delta
	if v < 0 {
		if delta < 0 && base > 0 {
			return base * 0.5
		}
		return 0
	}
	if v > 1 {
		if delta > 0 && base < 1 {
			return base + (1-base)*0.5
		}
		return 1
	}
	return v
}

// diffuse spreads one pixel's quantization error to its Floyd-Steinberg
// neighbors (7/16 ahead, 3/16 below-behind, 5/16 below, 1/16 below-ahead),
// mirroring the neighbor offsets when the row runs right-to-left so the
// diffusion pattern is always "ahead" in scan order.
func diffuse(thisRow, nextRow []errPixel, x, w int, leftToRight bool, ea, er, eg, eb float32) {
	ahead := 1
	if !leftToRight {
		ahead = -1
	}
	add := func(row []errPixel, idx int, frac float32) {
		if idx < 0 || idx >= w {
			return
		}
		row[idx].a += ea * frac
		row[idx].r += er * frac
		row[idx].g += eg * frac
		row[idx].b += eb * frac
	}
	add(thisRow, x+ahead, 7.0/16)
	add(nextRow, x-ahead, 3.0/16)
	add(nextRow, x, 5.0/16)
	add(nextRow, x+ahead, 1.0/16)
}
