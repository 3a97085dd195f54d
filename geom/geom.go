// Package geom converts field geometry between editor space (origin at the
// top-left of the page, Y grows downward) and document space (origin at the
// bottom-left, Y grows upward), and fits images into boxes.
package geom

// Box is an axis-aligned rectangle. In editor space (X, Y) is the top-left
// corner; in document space it is the bottom-left corner.
type Box struct {
	X, Y, W, H float64
}

// ToDocument maps an editor-space box onto a page of the given height.
// Only Y changes: documentY = pageHeight - y - h.
func ToDocument(b Box, pageHeight float64) Box {
	return Box{X: b.X, Y: FlipY(b.Y, b.H, pageHeight), W: b.W, H: b.H}
}

// ToEditor is the inverse of ToDocument. The flip is its own inverse.
func ToEditor(b Box, pageHeight float64) Box { return ToDocument(b, pageHeight) }

// FlipY converts the near edge of a span of height h between the two
// spaces.
func FlipY(y, h, pageHeight float64) float64 { return pageHeight - y - h }

// Top returns the Y of the top edge of a document-space box.
func (b Box) Top() float64 { return b.Y + b.H }

// Right returns the X of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Image fit modes, matching the template objectFit values.
const (
	FitFill    = "fill"
	FitContain = "contain"
	FitCover   = "cover"
)

// Fit places an image of intrinsic size imgW x imgH in box. fill (and the
// empty mode) stretches to the box; contain scales to fit inside and
// centers; cover scales to cover the box and centers, so the result may
// overflow and must be clipped to box. The returned box is in the same space
// as the input.
func Fit(mode string, imgW, imgH float64, box Box) Box {
	if imgW <= 0 || imgH <= 0 {
		return box
	}
	var scale float64
	switch mode {
	case FitContain:
		scale = min(box.W/imgW, box.H/imgH)
	case FitCover:
		scale = max(box.W/imgW, box.H/imgH)
	default:
		return box
	}
	w, h := imgW*scale, imgH*scale
	return Box{
		X: box.X + (box.W-w)/2,
		Y: box.Y + (box.H-h)/2,
		W: w,
		H: h,
	}
}
