package quant

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// HistItem is one bucket of the dense histogram: a representative color
// plus the weights the mediancut/Voronoi feedback loop mutates.
type HistItem struct {
	Acolor               FPixel
	PerceptualWeight     float32 // sum of per-pixel importance contributions
	AdjustedWeight       float32 // mutable weight used by mediancut/Voronoi feedback
	ColorWeight          float32 // scratch, recomputed per box split
	SortValue            uint32  // scratch, packed-channel key for median partitioning
	LikelyColormapIndex  int     // cached last nearest-palette guess
}

// Histogram is the dense, deduplicated, weighted color population of an
// image: every distinct (posterized) color seen, with how much it mattered.
type Histogram struct {
	Items                 []HistItem
	TotalPerceptualWeight float64
	Ignorebits            int
}

func hashBucketCount(width, height int) int {
	pixels := width * height
	switch {
	case pixels <= 1024*768:
		return 6673
	case pixels <= 2048*1536:
		return 12011
	default:
		return 24019
	}
}

type hashBucket struct {
	keys     [2]uint32
	weights  [2]float32
	used     int
	overflow []bucketEntry
}

// inputPosterizationForSpeed returns the forced input posterization bits
// for a given speed preset: speed 8 and above posterizes the source by 1
// bit before hashing, trading a small accuracy loss for a smaller, faster
// histogram.
func inputPosterizationForSpeed(speed int) int {
	if speed >= 8 {
		return 1
	}
	return 0
}

// buildHistogram runs the full posterize/hash/aggregate procedure,
// retrying with a higher ignorebits whenever the distinct color count
// would exceed maxColors.
func buildHistogram(img *Image, maxColors, inputPosterization, outputPosterization int, useContrastMap bool, speed int) (*Histogram, *Error) {
	ignorebits := outputPosterization
	if inputPosterization > ignorebits {
		ignorebits = inputPosterization
	}

	rows, width, height := histogramRowSource(img, speed)

	var noise []uint8
	if useContrastMap {
		noise = img.contrastMapsFor().noise
	}

	pool := newMempool()

	for {
		buckets := make([]hashBucket, hashBucketCount(width, height))
		distinct := 0
		overflowed := false

		raw := make([]RGBAPixel, width)
		mask := uint8(0xFF << ignorebits)

		addKey := func(key uint32, boost float32) bool {
			h := key % uint32(len(buckets))
			b := &buckets[h]
			for i := 0; i < b.used; i++ {
				if b.keys[i] == key {
					b.weights[i] += boost
					return true
				}
			}
			for j := range b.overflow {
				if b.overflow[j].key == key {
					b.overflow[j].weight += boost
					return true
				}
			}
			// miss: insert
			if b.used < 2 {
				b.keys[b.used] = key
				b.weights[b.used] = boost
				b.used++
				distinct++
				return distinct <= maxColors
			}
			if b.overflow == nil {
				b.overflow = pool.get()
			}
			b.overflow = append(b.overflow, bucketEntry{key: key, weight: boost})
			distinct++
			return distinct <= maxColors
		}

		for y := 0; y < height && !overflowed; y++ {
			if err := rows.GetRow(y, raw); err != nil {
				return nil, newError(ErrBitmapNotAvailable, "%v", err)
			}
			for x, p := range raw {
				if p.A == 0 {
					if !addKey(0, boostFor(noise, width, x, y, speed, width, height)) {
						overflowed = true
						break
					}
					continue
				}
				r := posterizeChannel(p.R, mask, ignorebits)
				g := posterizeChannel(p.G, mask, ignorebits)
				b := posterizeChannel(p.B, mask, ignorebits)
				a := posterizeChannel(p.A, mask, ignorebits)
				key := uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
				boost := boostFor(noise, width, x, y, speed, width, height)
				if !addKey(key, boost) {
					overflowed = true
					break
				}
			}
		}

		if overflowed {
			for bi := range buckets {
				pool.put(buckets[bi].overflow)
				buckets[bi].overflow = nil
			}
			ignorebits++
			if ignorebits > 7 {
				return nil, newError(ErrOutOfMemory, "too many distinct colors even at maximum posterization")
			}
			continue
		}

		hist := assembleHistogram(buckets, img.inputLUT, ignorebits)
		for bi := range buckets {
			pool.put(buckets[bi].overflow)
			buckets[bi].overflow = nil
		}
		return hist, nil
	}
}

// posterizeChannel replicates the top ignorebits bits of c into its low
// ignorebits bits, the same high-bit replication posterizeRGBA applies to output
// palette entries: c&mask | c>>(8-ignorebits), so e.g. white (255) stays
// white instead of collapsing to mask's zero-filled low bits.
func posterizeChannel(c, mask uint8, ignorebits int) uint8 {
	if ignorebits == 0 {
		return c
	}
	return (c & mask) | (c >> uint(8-ignorebits))
}

// boostFor returns the per-pixel weight contribution: 0.5 + noise/255 when
// a noise map is available, else 1.0.
func boostFor(noise []uint8, srcWidth, x, y, speed, width, height int) float32 {
	if noise == nil {
		return 1.0
	}
	idx := y*srcWidth + x
	if idx < 0 || idx >= len(noise) {
		return 1.0
	}
	return 0.5 + float32(noise[idx])/255.0
}

func assembleHistogram(buckets []hashBucket, lut *gammaLUT, ignorebits int) *Histogram {
	h := &Histogram{Ignorebits: ignorebits}
	for _, b := range buckets {
		for i := 0; i < b.used; i++ {
			h.appendKey(b.keys[i], b.weights[i], lut)
		}
		for _, e := range b.overflow {
			h.appendKey(e.key, e.weight, lut)
		}
	}
	return h
}

func (h *Histogram) appendKey(key uint32, weight float32, lut *gammaLUT) {
	a := uint8(key >> 24)
	r := uint8(key >> 16)
	g := uint8(key >> 8)
	b := uint8(key)
	acolor := toFPixel(RGBAPixel{R: r, G: g, B: b, A: a}, lut)
	item := HistItem{
		Acolor:              acolor,
		PerceptualWeight:    weight,
		AdjustedWeight:      weight,
		LikelyColormapIndex: 0,
	}
	h.Items = append(h.Items, item)
	h.TotalPerceptualWeight += float64(weight)
}

// histogramRowSource returns the row source histogram construction should
// read from: the image's own rows, or -- at very high speed presets -- a
// fast nearest-neighbor downsample to bound the number of pixels hashed.
// NearestNeighbor (not bilinear) is used deliberately so the pre-pass never
// invents colors that weren't in the source.
func histogramRowSource(img *Image, speed int) (RowSource, int, int) {
	if speed < 9 || img.width*img.height <= 65536 {
		return img.rows, img.width, img.height
	}
	scale := 65536.0 / float64(img.width*img.height)
	newW := int(float64(img.width)*sqrtF(scale)) + 1
	newH := int(float64(img.height)*sqrtF(scale)) + 1
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	src := &imageAdapter{img: img}
	resized := resize.Resize(uint(newW), uint(newH), src, resize.NearestNeighbor)
	return &resizedSource{img: resized}, newW, newH
}

func sqrtF(v float64) float64 {
	if v <= 0 {
		return 0
	}
	lo, hi := 0.0, v
	if hi < 1 {
		hi = 1
	}
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if mid*mid > v {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// imageAdapter exposes an *Image as a standard image.Image so it can be
// fed to github.com/nfnt/resize's fast-downsample pre-pass.
type imageAdapter struct{ img *Image }

func (a *imageAdapter) ColorModel() color.Model { return color.NRGBAModel }
func (a *imageAdapter) Bounds() image.Rectangle {
	return image.Rect(0, 0, a.img.width, a.img.height)
}
func (a *imageAdapter) At(x, y int) color.Color {
	row := make([]RGBAPixel, a.img.width)
	_ = a.img.rows.GetRow(y, row)
	p := row[x]
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}
}

// resizedSource adapts a resize.Resize result back into a RowSource.
type resizedSource struct{ img image.Image }

func (s *resizedSource) GetRow(y int, dst []RGBAPixel) error {
	b := s.img.Bounds()
	for x := range dst {
		c := color.NRGBAModel.Convert(s.img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
		dst[x] = RGBAPixel{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	return nil
}
