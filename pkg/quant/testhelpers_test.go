package quant

// solidImage returns a w*h image filled with a single color.
func solidImage(w, h int, p RGBAPixel) *Image {
	buf := make([]RGBAPixel, w*h)
	for i := range buf {
		buf[i] = p
	}
	img, err := NewImageFromRGBA(buf, w, h, 0.45455)
	if err != nil {
		panic(err)
	}
	return img
}

// stripedImage returns a w*h image with vertical stripes cycling through
// colors.
func stripedImage(w, h int, colors []RGBAPixel) *Image {
	buf := make([]RGBAPixel, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf[y*w+x] = colors[x%len(colors)]
		}
	}
	img, err := NewImageFromRGBA(buf, w, h, 0.45455)
	if err != nil {
		panic(err)
	}
	return img
}

// checkerboardImage alternates between two colors in a 1-pixel checker
// pattern, which stresses the dithering/edge-map paths hardest.
func checkerboardImage(w, h int, a, b RGBAPixel) *Image {
	buf := make([]RGBAPixel, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				buf[y*w+x] = a
			} else {
				buf[y*w+x] = b
			}
		}
	}
	img, err := NewImageFromRGBA(buf, w, h, 0.45455)
	if err != nil {
		panic(err)
	}
	return img
}
