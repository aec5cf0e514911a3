package reduce

// estimateDPI is the rough resolution proxy used by the per-image path when
// the image's physical placement on the page is unknown: a tenth of the
// larger pixel dimension. Downstream sizing depends on this exact formula;
// do not "fix" it without adjusting the fixtures that encode its output.
func estimateDPI(width, height int) float64 {
	return float64(max(width, height)) / 10
}

// EstimateDPI derives dots-per-inch from a pixel width and the width of the
// image's placement on the page in points (1/72 inch). It is the accurate
// counterpart to the heuristic above; the per-image path does not consult it.
func EstimateDPI(widthPixels int, widthPoints float64) float64 {
	if widthPoints <= 0 {
		return 72
	}
	return float64(widthPixels) / widthPoints * 72
}
