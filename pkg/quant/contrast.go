package quant

// contrastMaps holds the per-pixel edge and noise maps used to bias
// histogram weights and dithering strength. Both are byte-per-pixel, same
// size as the image. Built as a graded edge/noise pair rather than a
// binary edge detector, so downstream weighting can scale continuously.
type contrastMaps struct {
	width, height int
	edges         []uint8
	noise         []uint8
}

// buildContrastMaps computes edges[] and noise[] from the f-pixel plane in
// linear premultiplied space.
func buildContrastMaps(px []FPixel, width, height int) *contrastMaps {
	noise := make([]uint8, width*height)
	edges := make([]uint8, width*height)

	at := func(x, y int) FPixel {
		if x < 0 {
			x = 0
		}
		if x >= width {
			x = width - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= height {
			y = height - 1
		}
		return px[y*width+x]
	}

	maxChanDiff := func(prev, curr, next FPixel) float32 {
		da := abs32(prev.A + next.A - 2*curr.A)
		dr := abs32(prev.R + next.R - 2*curr.R)
		dg := abs32(prev.G + next.G - 2*curr.G)
		db := abs32(prev.B + next.B - 2*curr.B)
		m := da
		if dr > m {
			m = dr
		}
		if dg > m {
			m = dg
		}
		if db > m {
			m = db
		}
		return m
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			curr := at(x, y)
			horiz := maxChanDiff(at(x-1, y), curr, at(x+1, y))
			vert := maxChanDiff(at(x, y-1), curr, at(x, y+1))

			edge := horiz
			if vert > edge {
				edge = vert
			}
			lo, hi := horiz, vert
			if lo > hi {
				lo, hi = hi, lo
			}
			z := edge - (hi-lo)*0.5
			if lo > z {
				z = lo
			}
			z = 1 - z
			z = z * z
			z = z * z

			idx := y*width + x
			noise[idx] = clampByte(z * 256)
			edges[idx] = clampByte((1 - edge) * 256)
		}
	}

	cm := &contrastMaps{width: width, height: height, edges: edges, noise: noise}
	cm.postprocess()
	return cm
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampByte(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// postprocess implements the morphological cleanup pass: the noise map is
// dilated twice, box-blurred at radius 3, dilated once more, then eroded
// three times to strip thin edges from it; the edges map is closed (erode
// then dilate) and then lowered to min(noise, edges).
func (cm *contrastMaps) postprocess() {
	w, h := cm.width, cm.height

	max3(cm.noise, w, h)
	max3(cm.noise, w, h)
	boxBlur(cm.noise, w, h, 3)
	max3(cm.noise, w, h)
	min3(cm.noise, w, h)
	min3(cm.noise, w, h)
	min3(cm.noise, w, h)

	min3(cm.edges, w, h)
	max3(cm.edges, w, h)

	for i := range cm.edges {
		if cm.noise[i] < cm.edges[i] {
			cm.edges[i] = cm.noise[i]
		}
	}
}

func neighborhood3(buf []uint8, w, h, x, y int) [9]uint8 {
	var n [9]uint8
	k := 0
	for dy := -1; dy <= 1; dy++ {
		yy := y + dy
		if yy < 0 {
			yy = 0
		}
		if yy >= h {
			yy = h - 1
		}
		for dx := -1; dx <= 1; dx++ {
			xx := x + dx
			if xx < 0 {
				xx = 0
			}
			if xx >= w {
				xx = w - 1
			}
			n[k] = buf[yy*w+xx]
			k++
		}
	}
	return n
}

// max3 replaces every pixel with the max over its 3x3 neighborhood
// (clamp-to-edge boundary), dilating bright regions.
func max3(buf []uint8, w, h int) {
	out := make([]uint8, len(buf))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := neighborhood3(buf, w, h, x, y)
			m := n[0]
			for _, v := range n[1:] {
				if v > m {
					m = v
				}
			}
			out[y*w+x] = m
		}
	}
	copy(buf, out)
}

// min3 replaces every pixel with the min over its 3x3 neighborhood
// (clamp-to-edge boundary), eroding bright regions.
func min3(buf []uint8, w, h int) {
	out := make([]uint8, len(buf))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := neighborhood3(buf, w, h, x, y)
			m := n[0]
			for _, v := range n[1:] {
				if v < m {
					m = v
				}
			}
			out[y*w+x] = m
		}
	}
	copy(buf, out)
}

// boxBlur applies a separable radius-r box blur as two transposed 1D
// passes, treating out-of-line samples as repeats of the boundary pixel.
func boxBlur(buf []uint8, w, h, radius int) {
	tmp := make([]float32, w*h)
	boxBlur1D(buf, tmp, w, h, radius, false)
	out := make([]float32, w*h)
	boxBlur1DFloat(tmp, out, w, h, radius, true)
	for i, v := range out {
		buf[i] = clampByte(v)
	}
}

func boxBlur1D(src []uint8, dst []float32, w, h, radius int, transposed bool) {
	span := 2*radius + 1
	for y := 0; y < h; y++ {
		var sum float32
		get := func(x int) float32 {
			if x < 0 {
				x = 0
			}
			if x >= w {
				x = w - 1
			}
			return float32(src[y*w+x])
		}
		for i := -radius; i <= radius; i++ {
			sum += get(i)
		}
		for x := 0; x < w; x++ {
			dst[y*w+x] = sum / float32(span)
			sum += get(x + radius + 1)
			sum -= get(x - radius)
		}
	}
}

// boxBlur1DFloat performs the second (vertical, pre-transposed) pass over
// the float32 intermediate from the first pass.
func boxBlur1DFloat(src []float32, dst []float32, w, h, radius int, _ bool) {
	span := 2*radius + 1
	for x := 0; x < w; x++ {
		var sum float32
		get := func(y int) float32 {
			if y < 0 {
				y = 0
			}
			if y >= h {
				y = h - 1
			}
			return src[y*w+x]
		}
		for i := -radius; i <= radius; i++ {
			sum += get(i)
		}
		for y := 0; y < h; y++ {
			dst[y*w+x] = sum / float32(span)
			sum += get(y + radius + 1)
			sum -= get(y - radius)
		}
	}
}
