package signature

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestPadEmptyCommitRejected(t *testing.T) {
	pad := NewPad()
	if !pad.IsEmpty() {
		t.Fatal("Expected new pad to be empty")
	}
	_, err := pad.DataURL()
	if !errors.Is(err, ErrEmptySignature) {
		t.Errorf("Expected ErrEmptySignature, got %v", err)
	}
}

func TestPadStrokeLifecycle(t *testing.T) {
	pad := NewPad()

	pad.BeginStroke(StrokePoint{X: 50, Y: 100})
	pad.ExtendStroke(StrokePoint{X: 120, Y: 110})
	pad.ExtendStroke(StrokePoint{X: 200, Y: 95})
	pad.EndStroke()

	if pad.IsEmpty() {
		t.Fatal("Expected pad with a finished stroke to be non-empty")
	}

	pad.Clear()
	if !pad.IsEmpty() {
		t.Error("Expected cleared pad to be empty")
	}
	if _, err := pad.DataURL(); !errors.Is(err, ErrEmptySignature) {
		t.Error("Expected cleared pad to reject commit")
	}
}

func TestPadDataURLProducesInk(t *testing.T) {
	pad := NewPad()
	pad.BeginStroke(StrokePoint{X: 50, Y: 100})
	pad.ExtendStroke(StrokePoint{X: 350, Y: 100})
	pad.EndStroke()

	uri, err := pad.DataURL()
	if err != nil {
		t.Fatalf("DataURL returned error: %v", err)
	}

	data, format, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("Failed to decode data URI: %v", err)
	}
	if format != FormatPNG {
		t.Errorf("Expected PNG output, got %q", format)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != PadWidth || bounds.Dy() != PadHeight {
		t.Errorf("Expected %dx%d canvas, got %dx%d", PadWidth, PadHeight, bounds.Dx(), bounds.Dy())
	}

	// The stroke runs along y=100: there must be black pixels on that row
	// and the corners must stay white.
	if !isInk(img, 200, 100) {
		t.Error("Expected ink at the middle of the stroke")
	}
	if isInk(img, 0, 0) {
		t.Error("Expected white canvas at the corner")
	}
}

func TestPadSinglePointStroke(t *testing.T) {
	pad := NewPad()
	pad.BeginStroke(StrokePoint{X: 200, Y: 100})
	pad.EndStroke()

	uri, err := pad.DataURL()
	if err != nil {
		t.Fatalf("DataURL returned error: %v", err)
	}
	data, _, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("Failed to decode data URI: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if !isInk(img, 200, 100) {
		t.Error("Expected a dot at the tap position")
	}
}

func TestPadInProgressStrokeCounts(t *testing.T) {
	pad := NewPad()
	// Pen is still down, no EndStroke yet.
	pad.BeginStroke(StrokePoint{X: 10, Y: 10})
	pad.ExtendStroke(StrokePoint{X: 20, Y: 20})

	if pad.IsEmpty() {
		t.Fatal("Expected in-progress stroke to count as drawn")
	}
	if _, err := pad.DataURL(); err != nil {
		t.Errorf("Expected commit of in-progress stroke to succeed, got %v", err)
	}
}

func TestPadExtendWithoutBegin(t *testing.T) {
	pad := NewPad()
	pad.ExtendStroke(StrokePoint{X: 30, Y: 30})
	pad.EndStroke()
	if pad.IsEmpty() {
		t.Error("Expected extend without begin to start a stroke")
	}
}

func isInk(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	black := color.Black
	br, bg, bb, _ := black.RGBA()
	return r == br && g == bg && b == bb
}
