// Package quant implements a perceptually weighted color quantizer.
//
// Given a 32-bit RGBA raster it produces a palette of up to 256 colors and
// an 8-bit indexed image that approximates the input under a gamma-linear,
// premultiplied-alpha color-difference metric. The pipeline is: build a
// weighted histogram of posterized colors, run a variance-driven median-cut
// split to get an initial palette, refine it with a Voronoi (Lloyd) loop
// accelerated by a vantage-point tree, then remap every pixel to its
// nearest palette entry, optionally with edge-modulated Floyd-Steinberg
// dithering.
//
// The package performs no file or network I/O, no PNG/ICC handling, and no
// CLI parsing: it consumes pixel rows (or a row callback) and produces a
// palette plus indexed row buffers. Those are the job of external
// collaborators such as pkg/server or an example PNG-optimizer frontend.
package quant
