package quant

// box is a median-cut work unit: a contiguous slice [index, index+count) of
// the histogram's Items, plus cached statistics recomputed whenever the
// slice changes.
type box struct {
	index, count int
	centroid     FPixel
	variance     [4]float32 // a, r, g, b
	sum          float32    // total adjusted weight
	maxError     float32
	totalError   float32 // lazily recomputed; -1 means stale
}

func (b *box) items(items []HistItem) []HistItem {
	return items[b.index : b.index+b.count]
}

// recompute refreshes centroid/variance/sum/maxError for the box, pulling
// the centroid toward the parent's centroid when provided (see
// averagepixels below).
func (b *box) recompute(items []HistItem, minOpaqueVal float32, parentCentroid *FPixel) {
	slice := b.items(items)
	b.centroid = averagepixels(slice, minOpaqueVal, parentCentroid)

	var sum float32
	var varSum [4]float32
	var maxErr float32
	for _, it := range slice {
		sum += it.AdjustedWeight
		d := colordifference(it.Acolor, b.centroid)
		if d > maxErr {
			maxErr = d
		}
		varSum[0] += it.AdjustedWeight * sq(it.Acolor.A-b.centroid.A)
		varSum[1] += it.AdjustedWeight * sq(it.Acolor.R-b.centroid.R)
		varSum[2] += it.AdjustedWeight * sq(it.Acolor.G-b.centroid.G)
		varSum[3] += it.AdjustedWeight * sq(it.Acolor.B-b.centroid.B)
	}
	if sum > 0 {
		for i := range varSum {
			varSum[i] /= sum
		}
	}
	b.sum = sum
	b.variance = varSum
	b.maxError = maxErr
	b.totalError = -1
}

func sq(v float32) float32 { return v * v }

// computeTotalError lazily computes (and caches) the sum of
// weight*colordifference(centroid, entry) over the box -- the quantity
// compared against target_mse*total_perceptual_weight for early
// termination.
func (b *box) computeTotalError(items []HistItem) float32 {
	if b.totalError >= 0 {
		return b.totalError
	}
	var total float32
	for _, it := range b.items(items) {
		total += it.PerceptualWeight * colordifference(it.Acolor, b.centroid)
	}
	b.totalError = total
	return total
}

// maxVariance returns the largest of the four channel variances.
func (b *box) maxVariance() float32 {
	m := b.variance[0]
	for _, v := range b.variance[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// averagepixels computes the box's weighted centroid. First pass computes
// the alpha-weighted mean alpha; if the box has a near-opaque color and
// that mean exceeds minOpaqueVal, alpha is forced to 1 (preserves fully
// opaque colors from being diluted by translucent neighbors). Second pass
// un-premultiplies each entry's RGB and re-premultiplies at the box's mean
// alpha, weighting each entry by adjustedWeight*(1+|rgb-center.rgb|^2) so
// the centroid is deliberately pulled toward outliers -- the extra spread
// weight is what keeps plain averaging from desaturating the result.
func averagepixels(items []HistItem, minOpaqueVal float32, parentCentroid *FPixel) FPixel {
	if len(items) == 0 {
		if parentCentroid != nil {
			return *parentCentroid
		}
		return FPixel{}
	}

	var wsum, asum float32
	hasNearOpaque := false
	for _, it := range items {
		w := it.AdjustedWeight
		wsum += w
		asum += w * it.Acolor.A
		if it.Acolor.A > 0.999 {
			hasNearOpaque = true
		}
	}
	meanA := float32(0)
	if wsum > 0 {
		meanA = asum / wsum
	}
	if hasNearOpaque && meanA > minOpaqueVal {
		meanA = 1
	}

	centerRGB := FPixel{}
	if parentCentroid != nil {
		centerRGB = *parentCentroid
	} else {
		// First-order approximation of center for spread weighting below.
		var r, g, b float32
		for _, it := range items {
			w := it.AdjustedWeight
			ea := it.Acolor.A
			var er, eg, eb float32
			if ea > 0 {
				er, eg, eb = it.Acolor.R/ea, it.Acolor.G/ea, it.Acolor.B/ea
			}
			r += w * er
			g += w * eg
			b += w * eb
		}
		if wsum > 0 {
			r, g, b = r/wsum, g/wsum, b/wsum
		}
		centerRGB = FPixel{A: meanA, R: r * meanA, G: g * meanA, B: b * meanA}
	}

	var rsum, gsum, bsum, wsum2 float32
	for _, it := range items {
		ea := it.Acolor.A
		var er, eg, eb float32
		if ea > 0 {
			er, eg, eb = it.Acolor.R/ea, it.Acolor.G/ea, it.Acolor.B/ea
		}
		var cr, cg, cb float32
		if centerRGB.A > 0 {
			cr, cg, cb = centerRGB.R/centerRGB.A, centerRGB.G/centerRGB.A, centerRGB.B/centerRGB.A
		}
		spread := sq(er-cr) + sq(eg-cg) + sq(eb-cb)
		w := it.AdjustedWeight * (1 + spread)
		rsum += w * er
		gsum += w * eg
		bsum += w * eb
		wsum2 += w
	}
	var r, g, b float32
	if wsum2 > 0 {
		r, g, b = rsum/wsum2, gsum/wsum2, bsum/wsum2
	}
	return FPixel{
		A: meanA,
		R: clampUnit(r * meanA),
		G: clampUnit(g * meanA),
		B: clampUnit(b * meanA),
	}
}

