package quant

import "sort"

// vpNode is one node of a vantage-point tree over a colormap's entries.
// Leaves have empty near/far and just hold idx.
type vpNode struct {
	idx        int
	radius     float32
	near, far  *vpNode
}

// nearestSearcher answers nearest-palette-entry queries against a fixed
// colormap, using a vantage-point tree with triangle-inequality pruning so
// large palettes don't require a linear scan per pixel.
type nearestSearcher struct {
	palette []ColormapEntry
	root    *vpNode

	// nearestOtherDist[i] is the distance from palette[i] to its own
	// nearest neighbor in the palette, precomputed once. If the query lies
	// within half this distance of palette[i], the triangle inequality
	// makes i the nearest entry, so the tree walk can be skipped (see
	// searchNear below).
	nearestOtherDist []float32
}

func newNearestSearcher(palette []ColormapEntry) *nearestSearcher {
	idxs := make([]int, len(palette))
	for i := range idxs {
		idxs[i] = i
	}
	s := &nearestSearcher{palette: palette}
	s.root = buildVPTree(palette, idxs)
	s.nearestOtherDist = computeNearestOtherDist(palette)
	return s
}

// buildVPTree picks the highest-popularity remaining entry as vantage
// point (so the most common colors sit near the tree root and resolve in
// the fewest comparisons), splits the rest at the median distance to it,
// and recurses.
func buildVPTree(palette []ColormapEntry, idxs []int) *vpNode {
	if len(idxs) == 0 {
		return nil
	}
	if len(idxs) == 1 {
		return &vpNode{idx: idxs[0]}
	}

	vantagePos := 0
	for i, idx := range idxs {
		if palette[idx].Popularity > palette[idxs[vantagePos]].Popularity {
			vantagePos = i
		}
	}
	vantage := idxs[vantagePos]
	rest := make([]int, 0, len(idxs)-1)
	for i, idx := range idxs {
		if i != vantagePos {
			rest = append(rest, idx)
		}
	}

	dists := make([]float32, len(rest))
	for i, idx := range rest {
		dists[i] = colordiffSqrt(palette[vantage].Acolor, palette[idx].Acolor)
	}
	order := make([]int, len(rest))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })

	mid := len(order) / 2
	var radius float32
	if mid > 0 {
		radius = dists[order[mid-1]]
	}

	near := make([]int, 0, mid)
	far := make([]int, 0, len(order)-mid)
	for i, oi := range order {
		if i < mid {
			near = append(near, rest[oi])
		} else {
			far = append(far, rest[oi])
		}
	}

	return &vpNode{
		idx:    vantage,
		radius: radius,
		near:   buildVPTree(palette, near),
		far:    buildVPTree(palette, far),
	}
}

func computeNearestOtherDist(palette []ColormapEntry) []float32 {
	out := make([]float32, len(palette))
	for i := range palette {
		best := float32(-1)
		for j := range palette {
			if i == j {
				continue
			}
			d := colordiffSqrt(palette[i].Acolor, palette[j].Acolor)
			if best < 0 || d < best {
				best = d
			}
		}
		if best < 0 {
			best = 0
		}
		out[i] = best
	}
	return out
}

// search returns the index of the palette entry nearest to query, and the
// squared color difference to it.
func (s *nearestSearcher) search(query FPixel) (int, float32) {
	if s.root == nil {
		return 0, 0
	}
	bestIdx := -1
	bestDist := float32(-1)
	var visit func(n *vpNode)
	visit = func(n *vpNode) {
		if n == nil {
			return
		}
		d := colordiffSqrt(s.palette[n.idx].Acolor, query)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			bestIdx = n.idx
		}
		if n.near == nil && n.far == nil {
			return
		}
		if d < n.radius {
			visit(n.near)
			if d+bestDist >= n.radius {
				visit(n.far)
			}
		} else {
			visit(n.far)
			if d-bestDist <= n.radius {
				visit(n.near)
			}
		}
	}
	visit(s.root)
	sq := bestDist * bestDist
	return bestIdx, sq
}

// searchNear is a guided variant of search that first checks a likely
// index (typically the previous pixel's match, or a histogram entry's
// cached likely_colormap_index) before falling back to the full tree walk.
// If the guess's distance is within half its own nearest-other distance,
// the guess is accepted without a tree descent at all.
func (s *nearestSearcher) searchNear(query FPixel, guess int) (int, float32) {
	if guess >= 0 && guess < len(s.palette) {
		d := colordiffSqrt(s.palette[guess].Acolor, query)
		if d <= s.nearestOtherDist[guess]/2 {
			return guess, d * d
		}
	}
	return s.search(query)
}
