package quadtree

import "image"

// Histogram counts pixels per 8-bit intensity of one color channel.
type Histogram [256]uint64

// Total returns the number of pixels counted.
func (h *Histogram) Total() uint64 {
	var n uint64
	for _, c := range h {
		n += c
	}
	return n
}

// ChannelStats returns the mean intensity of the histogram and the mean
// squared deviation from that mean. An empty histogram yields (0, 0).
func ChannelStats(h *Histogram) (mean, mse float64) {
	total := h.Total()
	if total == 0 {
		total = 1
	}
	n := float64(total)

	var sum float64
	for i, c := range h {
		sum += float64(i) * float64(c)
	}
	mean = sum / n

	var sq float64
	for i, c := range h {
		if c == 0 {
			continue
		}
		d := mean - float64(i)
		sq += d * d * float64(c)
	}
	mse = sq / n
	return mean, mse
}

// histograms fills one histogram per RGB channel over r, clipped to the
// image. Alpha is ignored.
func histograms(src *image.NRGBA, r image.Rectangle) (hr, hg, hb Histogram) {
	r = r.Intersect(src.Rect)
	if r.Empty() {
		return
	}
	pix := src.Pix
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := src.PixOffset(r.Min.X, y)
		for n := r.Dx(); n > 0; n-- {
			hr[pix[off]]++
			hg[pix[off+1]]++
			hb[pix[off+2]]++
			off += 4
		}
	}
	return
}
