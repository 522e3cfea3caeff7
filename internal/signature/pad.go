package signature

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
)

// ErrEmptySignature is returned when a blank drawing is committed.
var ErrEmptySignature = errors.New("signature pad is empty")

// Pad drawing surface dimensions, matching the capture dialog canvas.
const (
	PadWidth  = 400
	PadHeight = 200

	penRadius = 1.5
)

// StrokePoint is a single sampled pen position on the pad.
type StrokePoint struct {
	X float64
	Y float64
}

// Pad accumulates freehand strokes on a fixed-size drawing surface and
// exports the result as a PNG data URI. A fresh pad, or one that has been
// cleared, commits nothing.
type Pad struct {
	strokes [][]StrokePoint
	current []StrokePoint
}

// NewPad returns an empty drawing pad.
func NewPad() *Pad {
	return &Pad{}
}

// BeginStroke starts a new stroke at p (pen down).
func (p *Pad) BeginStroke(pt StrokePoint) {
	p.current = []StrokePoint{pt}
}

// ExtendStroke appends a sampled position to the stroke in progress (pen
// move). Without a preceding BeginStroke the point starts a new stroke.
func (p *Pad) ExtendStroke(pt StrokePoint) {
	if p.current == nil {
		p.BeginStroke(pt)
		return
	}
	p.current = append(p.current, pt)
}

// EndStroke finishes the stroke in progress (pen up).
func (p *Pad) EndStroke() {
	if len(p.current) > 0 {
		p.strokes = append(p.strokes, p.current)
	}
	p.current = nil
}

// IsEmpty reports whether nothing has been drawn.
func (p *Pad) IsEmpty() bool {
	return len(p.strokes) == 0 && len(p.current) == 0
}

// Clear resets the pad to blank.
func (p *Pad) Clear() {
	p.strokes = nil
	p.current = nil
}

// DataURL rasterizes the strokes onto a white canvas and returns the
// drawing as a PNG data URI. Committing an empty pad fails so a blank
// signature can never be placed.
func (p *Pad) DataURL() (string, error) {
	if p.IsEmpty() {
		return "", ErrEmptySignature
	}

	img := image.NewRGBA(image.Rect(0, 0, PadWidth, PadHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	strokes := p.strokes
	if len(p.current) > 0 {
		strokes = append(strokes, p.current)
	}
	for _, stroke := range strokes {
		if len(stroke) == 1 {
			stamp(img, stroke[0])
			continue
		}
		for i := 1; i < len(stroke); i++ {
			segment(img, stroke[i-1], stroke[i])
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return EncodeDataURI("image/png", buf.Bytes()), nil
}

// segment draws a line between two sampled points by stamping the pen at
// sub-pixel steps along it.
func segment(img *image.RGBA, a, b StrokePoint) {
	dx, dy := b.X-a.X, b.Y-a.Y
	dist := math.Hypot(dx, dy)
	steps := int(dist) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stamp(img, StrokePoint{X: a.X + dx*t, Y: a.Y + dy*t})
	}
}

// stamp fills a small disk of penRadius around pt.
func stamp(img *image.RGBA, pt StrokePoint) {
	r := int(math.Ceil(penRadius))
	cx, cy := int(math.Round(pt.X)), int(math.Round(pt.Y))
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if !image.Pt(x, y).In(img.Bounds()) {
				continue
			}
			ddx, ddy := float64(x)-pt.X, float64(y)-pt.Y
			if math.Hypot(ddx, ddy) <= penRadius {
				img.Set(x, y, color.Black)
			}
		}
	}
}
