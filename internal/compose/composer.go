// Package compose stamps placed fields onto the pages of an existing PDF,
// producing a new byte buffer with the original page content preserved.
package compose

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"

	"github.com/inksign/inksign/internal/field"
	"github.com/inksign/inksign/internal/signature"

	// Image formats accepted for embedded signatures.
	_ "image/jpeg"
	_ "image/png"
)

// DefaultStampScale converts field pixel dimensions at the 800x600
// reference into PDF user-space units.
const DefaultStampScale = 0.75

// Fallback text drawn when a signature image cannot be embedded.
const signatureFallbackText = "SIGNATURE"

// Composer renders fields onto PDF pages. It never mutates the original
// bytes; every Compose works on a freshly loaded copy.
type Composer struct {
	scale float64
	log   zerolog.Logger
}

// NewComposer creates a composer with the given pixel-to-point scale.
// A non-positive scale falls back to the default.
func NewComposer(scale float64, logger zerolog.Logger) *Composer {
	if scale <= 0 {
		scale = DefaultStampScale
	}
	return &Composer{scale: scale, log: logger}
}

// Compose stamps every field carrying a payload onto its page of the
// original document and returns the resulting PDF bytes.
//
// A field referencing a page beyond the document is skipped, tolerating
// stale rows; a field whose signature image cannot be decoded or embedded
// degrades to a literal text marker. Only a failure to load the original
// bytes aborts the whole operation.
func (c *Composer) Compose(original []byte, fields []field.Field) ([]byte, error) {
	pageCount, err := c.pageCount(original)
	if err != nil {
		return nil, fmt.Errorf("failed to load original PDF: %w", err)
	}

	byPage := make(map[int][]field.Field)
	for _, f := range fields {
		if !f.HasValue() {
			continue
		}
		page := f.PageNumber
		if page < 1 {
			page = 1
		}
		if page > pageCount {
			c.log.Debug().Int("page", page).Int("pages", pageCount).
				Msg("skipping field on out-of-range page")
			continue
		}
		byPage[page] = append(byPage[page], f)
	}

	doc := fpdf.New("P", "pt", "", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(original))

	for page := 1; page <= pageCount; page++ {
		tpl, pageWidth, pageHeight, err := importPage(importer, doc, &rs, page)
		if err != nil {
			return nil, fmt.Errorf("failed to load original PDF: %w", err)
		}
		if pageWidth <= 0 || pageHeight <= 0 {
			// US Letter, matching the reader's fallback page geometry.
			pageWidth, pageHeight = 612.0, 792.0
		}

		doc.AddPageFormat("P", fpdf.SizeType{Wd: pageWidth, Ht: pageHeight})
		importer.UseImportedTemplate(doc, tpl, 0, 0, pageWidth, 0)

		for i, f := range byPage[page] {
			c.stamp(doc, f, i, pageWidth, pageHeight)
		}
	}

	if doc.Err() {
		return nil, fmt.Errorf("failed to compose PDF: %w", doc.Error())
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write composed PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// importPage brings one original page into the output document and returns
// its template id and media box size. The importer panics on constructs it
// cannot parse rather than returning errors, even on documents that pass
// the pdfcpu preflight; the recover converts that into a load failure.
func importPage(imp *gofpdi.Importer, doc *fpdf.Fpdf, rs *io.ReadSeeker, page int) (tpl int, w, h float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to import page %d: %v", page, r)
		}
	}()
	tpl = imp.ImportPageFromStream(doc, rs, page, "/MediaBox")
	box := imp.GetPageSizes()[page]["/MediaBox"]
	return tpl, box["w"], box["h"], nil
}

// pageCount loads the original through pdfcpu to validate it and count its
// pages before any drawing starts.
func (c *Composer) pageCount(original []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(original), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx.PageCount, nil
}

// stamp renders one field at its computed page rect. n disambiguates image
// resource names for multiple fields on the same page.
func (c *Composer) stamp(doc *fpdf.Fpdf, f field.Field, n int, pageWidth, pageHeight float64) {
	// Percentage position (top-left origin) to page coordinates. fpdf
	// shares the top-left origin, so only the dimensions need scaling.
	x := f.XPosition / 100 * pageWidth
	top := f.YPosition / 100 * pageHeight
	w := f.Width * c.scale
	h := f.Height * c.scale

	if f.Type == field.TypeSignature && signature.IsImageDataURI(f.Value) {
		if c.stampImage(doc, f.Value, fmt.Sprintf("sig-p%d-%d", f.PageNumber, n), x, top, w, h) {
			return
		}
		// A single bad field must not fail the whole document.
		c.log.Warn().Int("page", f.PageNumber).Msg("signature embed failed, drawing text fallback")
		doc.SetFont("Helvetica", "B", 10)
		doc.SetTextColor(0, 0, 0)
		doc.Text(x, top+h/2, signatureFallbackText)
		return
	}

	c.stampText(doc, f, x, top, w, h)
}

// stampImage embeds a signature image data URI at the rect, reporting
// success. The payload is decoded and verified up front so fpdf's sticky
// error state is never poisoned by a corrupt image.
func (c *Composer) stampImage(doc *fpdf.Fpdf, dataURI, name string, x, top, w, h float64) bool {
	data, format, err := signature.DecodeDataURI(dataURI)
	if err != nil {
		return false
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return false
	}

	opts := fpdf.ImageOptions{ImageType: string(format)}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if doc.Err() {
		doc.ClearError()
		return false
	}
	doc.ImageOptions(name, x, top, w, h, false, opts, 0, "")
	if doc.Err() {
		doc.ClearError()
		return false
	}
	return true
}

// stampText draws a value with a semi-opaque white backing rectangle and a
// thin border so it stays legible over page content. Text is clipped to
// the field box; wrapping is left to the underlying layout.
func (c *Composer) stampText(doc *fpdf.Fpdf, f field.Field, x, top, w, h float64) {
	fontSize := math.Min(h*0.6, 14)
	fontStyle := ""
	if f.Type == field.TypeSignature {
		fontStyle = "B"
	}

	doc.SetAlpha(0.8, "Normal")
	doc.SetFillColor(255, 255, 255)
	doc.Rect(x-2, top-2, w+4, h+4, "F")
	doc.SetAlpha(1.0, "Normal")

	doc.SetDrawColor(204, 204, 204)
	doc.SetLineWidth(1)
	doc.Rect(x-1, top-1, w+2, h+2, "D")

	doc.SetFont("Helvetica", fontStyle, fontSize)
	doc.SetTextColor(0, 0, 0)
	doc.ClipRect(x+4, top-2, w-8, h+4, false)
	doc.Text(x+4, top+h/2+fontSize/2, f.Value)
	doc.ClipEnd()
}
