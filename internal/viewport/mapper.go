// Package viewport converts between the coordinate systems involved in
// placing fields on a rendered PDF: screen pixels inside the viewer
// container, percentage-of-page positions, and page indices inferred from
// scroll geometry.
package viewport

import "math"

// Point is a pointer position in viewer pixels.
type Point struct {
	X float64
	Y float64
}

// Rect is the bounding box of the viewer container in viewer pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Reference page size used to derive display dimensions from the pixel
// width/height stored on a field.
const (
	ReferenceWidth  = 800.0
	ReferenceHeight = 600.0
)

// ToPercentage maps a client point inside the container to percentages of
// the container width and height. The result is intentionally not clamped
// to [0,100]: callers near the container edges may see slightly
// out-of-range values and must clamp before storing if bounds matter.
// A degenerate container (zero or negative dimensions, seen while the
// viewer is still measuring) yields the origin rather than NaN.
func ToPercentage(p Point, container Rect) (x, y float64) {
	if container.Width <= 0 || container.Height <= 0 {
		return 0, 0
	}
	x = (p.X - container.Left) / container.Width * 100
	y = (p.Y - container.Top) / container.Height * 100
	return x, y
}

// PageEstimator infers page indices and page counts from scroll geometry.
//
// Without a real PDF layout engine, page boundaries are approximated from
// a constant estimated page height. The estimate is deliberately rough and
// every entry point degrades to a safe default instead of failing: a
// misattributed page is a UX degradation, not a correctness failure.
type PageEstimator struct {
	// FallbackPageHeight is the minimum assumed page height in pixels.
	FallbackPageHeight float64
	// MaxPages caps count estimates against runaway scroll heights from a
	// still-loading viewer.
	MaxPages int
}

// Estimator defaults preserved from the viewer. Both are arbitrary tuning
// constants, kept configurable rather than treated as invariants.
const (
	DefaultFallbackPageHeight = 800.0
	DefaultMaxPages           = 20
)

// NewPageEstimator returns an estimator with the default page height
// fallback and page cap.
func NewPageEstimator() PageEstimator {
	return PageEstimator{
		FallbackPageHeight: DefaultFallbackPageHeight,
		MaxPages:           DefaultMaxPages,
	}
}

func (e PageEstimator) fallbackHeight() float64 {
	if e.FallbackPageHeight > 0 {
		return e.FallbackPageHeight
	}
	return DefaultFallbackPageHeight
}

func (e PageEstimator) maxPages() int {
	if e.MaxPages > 0 {
		return e.MaxPages
	}
	return DefaultMaxPages
}

// DetectPage infers the 1-based page index under a click at clickY within
// the container, given the current scrollTop and the estimated page count.
// The result is always within [1, pageCount]; any internal failure yields
// page 1.
func (e PageEstimator) DetectPage(clickY float64, container Rect, scrollTop float64, pageCount int) (page int) {
	page = 1
	defer func() {
		if r := recover(); r != nil {
			page = 1
		}
	}()

	if pageCount < 1 {
		pageCount = 1
	}
	pageHeight := math.Max(e.fallbackHeight(), container.Height)
	totalOffset := scrollTop + clickY

	n := int(math.Floor(totalOffset/pageHeight)) + 1
	if n < 1 {
		n = 1
	}
	if n > pageCount {
		n = pageCount
	}
	return n
}

// EstimatePageCount estimates the page count of the rendered document from
// the viewer's scroll height and viewport height, capped at MaxPages.
// Degenerate geometry yields 1.
func (e PageEstimator) EstimatePageCount(scrollHeight, viewportHeight float64) (count int) {
	count = 1
	defer func() {
		if r := recover(); r != nil {
			count = 1
		}
	}()

	if scrollHeight <= 0 || viewportHeight <= 0 {
		return 1
	}
	n := int(math.Ceil(scrollHeight / viewportHeight))
	if n < 1 {
		n = 1
	}
	if maxPages := e.maxPages(); n > maxPages {
		n = maxPages
	}
	return n
}
