package quant

import (
	"math"
	"sort"
)

// subsetSnapshotCount returns the box count at which median cut snapshots a
// subset_palette: ceil(K^0.7).
func subsetSnapshotCount(k int) int {
	return int(math.Ceil(math.Pow(float64(k), 0.7)))
}

// medianCut runs the recursive box-split algorithm and returns a colormap
// of at most targetColors entries (fewer if the
// histogram has fewer distinct colors than targetColors, or if every box
// becomes unsplittable first). fixedColors are prepended verbatim, in call
// order, and count against targetColors.
func medianCut(hist *Histogram, targetColors int, fixedColors []FPixel, minOpaqueVal float32, targetMSE, maxMSE float32) *Colormap {
	splitTarget := targetColors - len(fixedColors)
	if splitTarget < 0 {
		splitTarget = 0
	}
	if splitTarget > len(hist.Items) {
		splitTarget = len(hist.Items)
	}

	items := hist.Items // mutated in place by partitioning

	var boxes []*box
	if splitTarget > 0 && len(items) > 0 {
		root := &box{index: 0, count: len(items)}
		root.recompute(items, minOpaqueVal, nil)
		boxes = []*box{root}
	}

	var subsetPalette *Colormap
	snapshotAt := subsetSnapshotCount(targetColors)

	for len(boxes) < splitTarget {
		chosen, chosenIdx := pickBoxToSplit(boxes, items, targetColors, maxMSE)
		if chosen == nil {
			break
		}

		left, right := splitBox(chosen, items, minOpaqueVal)

		boxes = append(boxes[:chosenIdx], boxes[chosenIdx+1:]...)
		boxes = append(boxes, left, right)

		if len(boxes) == snapshotAt {
			subsetPalette = snapshotColormap(boxes)
		}

		if totalErrorBelowTarget(boxes, items, targetMSE, hist.TotalPerceptualWeight) {
			break
		}
	}

	adjustWeightsAfterSplit(boxes, items)

	cm := &Colormap{SubsetPalette: subsetPalette}
	for _, c := range fixedColors {
		cm.Entries = append(cm.Entries, ColormapEntry{Acolor: c, Fixed: true})
	}
	for _, b := range boxes {
		cm.Entries = append(cm.Entries, ColormapEntry{Acolor: b.centroid, Popularity: b.sum})
	}
	return cm
}

// pickBoxToSplit scores every box with >=2 colors by sum*maxVariance,
// boosting boxes that violate the ramped current_max_mse, and returns the
// highest-scoring one plus its index in boxes.
func pickBoxToSplit(boxes []*box, items []HistItem, targetColors int, maxMSE float32) (*box, int) {
	if maxMSE <= 0 {
		maxMSE = 1e-6
	}
	currentMaxMSE := maxMSE * (1 + 16*float32(len(boxes))/float32(targetColors))

	var best *box
	bestIdx := -1
	var bestScore float32 = -1
	for i, b := range boxes {
		if b.count < 2 {
			continue
		}
		if b.maxVariance() <= 0 {
			continue
		}
		score := b.sum * b.maxVariance()
		if b.maxError > currentMaxMSE {
			score *= b.maxError / currentMaxMSE
		}
		if score > bestScore {
			bestScore = score
			best = b
			bestIdx = i
		}
	}
	return best, bestIdx
}

// channel axis indices into box.variance / FPixel.
const (
	chanA = 0
	chanR = 1
	chanG = 2
	chanB = 3
)

func chanValue(p FPixel, axis int) float32 {
	switch axis {
	case chanA:
		return p.A
	case chanR:
		return p.R
	case chanG:
		return p.G
	default:
		return p.B
	}
}

// packSortValue builds the packed 32-bit median-partition key: the primary
// split axis in the high 16 bits, and a tangential-channel tie-break mix in
// the low 16 bits. The mix deliberately weights order[2] first, order[1]
// halved, order[3] quartered -- preserved verbatim from the reference
// implementation's prepare_sort (secondary weight goes to index [2], not
// [1]; see DESIGN.md's open-question note).
func packSortValue(p FPixel, order [4]int) uint32 {
	primary := chanValue(p, order[0])
	mix := chanValue(p, order[2]) + chanValue(p, order[1])/2.0 + chanValue(p, order[3])/4.0
	lo := mix * 65535.0
	if lo < 0 {
		lo = 0
	}
	if lo > 65535 {
		lo = 65535
	}
	hi := primary * 65535.0
	if hi < 0 {
		hi = 0
	}
	if hi > 65535 {
		hi = 65535
	}
	return uint32(hi)<<16 | uint32(lo)
}

// splitAxisOrder sorts the four channel indices by descending variance.
func splitAxisOrder(variance [4]float32) [4]int {
	order := [4]int{chanA, chanR, chanG, chanB}
	sort.Slice(order[:], func(i, j int) bool { return variance[order[i]] > variance[order[j]] })
	return order
}

// splitBox partitions b's histogram-entry slice at the cumulative
// color_weight crossover point and returns the two child boxes, each
// recomputed with a pull toward the parent centroid.
func splitBox(b *box, items []HistItem, minOpaqueVal float32) (*box, *box) {
	order := splitAxisOrder(b.variance)
	slice := b.items(items)

	for i := range slice {
		slice[i].SortValue = packSortValue(slice[i].Acolor, order)
	}
	sort.Slice(slice, func(i, j int) bool { return slice[i].SortValue < slice[j].SortValue })

	median := medianColor(slice)

	colorWeights := make([]float32, len(slice))
	var total float32
	for i, it := range slice {
		d := colordifference(median, it.Acolor)
		w := sqrtF32(d) * (sqrtF32(1+it.AdjustedWeight) - 1)
		if d < 2.0/65536.0 {
			w *= 0.5
		}
		colorWeights[i] = w
		total += w
	}

	target := total / 2
	var cum float32
	breakIdx := len(slice) / 2
	for i, w := range colorWeights {
		cum += w
		if cum >= target {
			breakIdx = i + 1
			break
		}
	}
	if breakIdx < 1 {
		breakIdx = 1
	}
	if breakIdx > len(slice)-1 {
		breakIdx = len(slice) - 1
	}

	left := &box{index: b.index, count: breakIdx}
	right := &box{index: b.index + breakIdx, count: b.count - breakIdx}
	centroid := b.centroid
	left.recompute(items, minOpaqueVal, &centroid)
	right.recompute(items, minOpaqueVal, &centroid)
	return left, right
}

func medianColor(slice []HistItem) FPixel {
	n := len(slice)
	if n == 0 {
		return FPixel{}
	}
	if n%2 == 1 {
		return slice[n/2].Acolor
	}
	a := slice[n/2-1].Acolor
	b := slice[n/2].Acolor
	return FPixel{
		A: (a.A + b.A) / 2,
		R: (a.R + b.R) / 2,
		G: (a.G + b.G) / 2,
		B: (a.B + b.B) / 2,
	}
}

func sqrtF32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}

func snapshotColormap(boxes []*box) *Colormap {
	cm := &Colormap{}
	for _, b := range boxes {
		cm.Entries = append(cm.Entries, ColormapEntry{Acolor: b.centroid, Popularity: b.sum})
	}
	return cm
}

func totalErrorBelowTarget(boxes []*box, items []HistItem, targetMSE float32, totalWeight float64) bool {
	if targetMSE <= 0 {
		return false
	}
	var sum float32
	for _, b := range boxes {
		sum += b.computeTotalError(items)
	}
	return float64(sum) <= float64(targetMSE)*totalWeight
}

// adjustWeightsAfterSplit implements the post-split reweighting:
// adjusted_weight *= sqrt(1+delta/4) where delta is the distance from the
// entry's color to its box centroid, and records likely_colormap_index for
// the VP-tree spatial-locality speedup.
func adjustWeightsAfterSplit(boxes []*box, items []HistItem) {
	for bi, b := range boxes {
		for i := range items[b.index : b.index+b.count] {
			it := &items[b.index+i]
			delta := colordifference(it.Acolor, b.centroid)
			it.AdjustedWeight *= sqrtF32(1 + delta/4)
			it.LikelyColormapIndex = bi
		}
	}
}
