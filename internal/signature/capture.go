package signature

import (
	"errors"
	"fmt"

	"github.com/inksign/inksign/internal/field"
)

// Mode selects how a signature payload is acquired.
type Mode string

const (
	ModeDraw   Mode = "draw"
	ModeUpload Mode = "upload"
)

// ErrAlreadyCommitted guards the exactly-once completion contract.
var ErrAlreadyCommitted = errors.New("capture already committed")

// Capture is one invocation of the signature dialog: a drawing pad and an
// upload slot, mutually exclusive per commit. Completion fires exactly
// once with a non-empty result; closing discards all in-progress state.
type Capture struct {
	Pad    *Pad
	Upload *Upload

	mode      Mode
	committed bool
	onDone    func(dataURI string)
}

// NewCapture starts a capture in draw mode. onDone may be nil when the
// caller prefers to consume the Commit return value directly.
func NewCapture(onDone func(dataURI string)) *Capture {
	return &Capture{
		Pad:    NewPad(),
		Upload: NewUpload(),
		mode:   ModeDraw,
		onDone: onDone,
	}
}

// SetMode switches between drawing and uploading.
func (c *Capture) SetMode(m Mode) {
	c.mode = m
}

// Mode returns the currently selected acquisition mode.
func (c *Capture) Mode() Mode {
	return c.mode
}

// Commit confirms the capture and returns the payload data URI. A blank
// drawing or a missing upload is rejected, and a capture can only complete
// once.
func (c *Capture) Commit() (string, error) {
	if c.committed {
		return "", ErrAlreadyCommitted
	}

	var payload string
	switch c.mode {
	case ModeUpload:
		payload = c.Upload.Preview()
		if payload == "" {
			return "", fmt.Errorf("no signature image uploaded")
		}
	default:
		dataURI, err := c.Pad.DataURL()
		if err != nil {
			return "", err
		}
		payload = dataURI
	}

	c.committed = true
	if c.onDone != nil {
		c.onDone(payload)
	}
	return payload, nil
}

// Close cancels the capture, clearing both the drawing and the upload so
// nothing leaks into the next invocation.
func (c *Capture) Close() {
	c.Pad.Clear()
	c.Upload.Clear()
	c.committed = false
}

// PromptValue validates a plain value entered for a non-signature field
// type: trimmed, non-empty, and bounded by the per-type length limit.
// This is the capture path for initials, name, date, text and company
// fields.
func PromptValue(t field.Type, input string) (string, error) {
	if t == field.TypeSignature {
		return "", fmt.Errorf("signature fields are captured by drawing or upload, not text entry")
	}
	return field.ValidateValue(t, input)
}
