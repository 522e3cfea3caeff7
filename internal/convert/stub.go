package convert

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// StubProvider emits placeholder output instead of performing real
// conversion: text payloads for PDF-to-Office and single-page notice
// documents for Office-to-PDF. It exists so the surrounding plumbing can
// be exercised end to end until a real backend replaces it.
type StubProvider struct{}

// NewStubProvider returns the placeholder conversion provider.
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

var (
	docExt  = regexp.MustCompile(`\.(doc|docx)$`)
	pptExt  = regexp.MustCompile(`\.(ppt|pptx)$`)
	xlsExt  = regexp.MustCompile(`\.(xls|xlsx)$`)
	editLoc = "points:12, position:tr, offset:-50 -25, fillcolor:#b3b3b3, rotation:0, scalefactor:1 abs"
)

func (p *StubProvider) PDFToWord(name string, _ []byte) (*Result, error) {
	text := fmt.Sprintf("Converted content from %s\n\n"+
		"This is a simulated conversion. In a real implementation, you would use "+
		"a PDF parsing library to extract text and formatting.", name)
	return &Result{
		Data:        []byte(text),
		Filename:    strings.TrimSuffix(name, ".pdf") + ".docx",
		ContentType: MIMEWord,
	}, nil
}

func (p *StubProvider) PDFToPowerPoint(name string, _ []byte) (*Result, error) {
	return &Result{
		Data:        []byte(fmt.Sprintf("Converted presentation from %s", name)),
		Filename:    strings.TrimSuffix(name, ".pdf") + ".pptx",
		ContentType: MIMEPowerPoint,
	}, nil
}

func (p *StubProvider) PDFToExcel(name string, _ []byte) (*Result, error) {
	csv := fmt.Sprintf("Data from %s\nColumn1,Column2,Column3\nValue1,Value2,Value3", name)
	return &Result{
		Data:        []byte(csv),
		Filename:    strings.TrimSuffix(name, ".pdf") + ".xlsx",
		ContentType: MIMEExcel,
	}, nil
}

func (p *StubProvider) WordToPDF(name string, _ []byte) (*Result, error) {
	return p.noticePDF(name, docExt, "Word")
}

func (p *StubProvider) PowerPointToPDF(name string, _ []byte) (*Result, error) {
	return p.noticePDF(name, pptExt, "PowerPoint")
}

func (p *StubProvider) ExcelToPDF(name string, _ []byte) (*Result, error) {
	return p.noticePDF(name, xlsExt, "Excel")
}

// noticePDF builds a one-page placeholder document naming the source file
// and format.
func (p *StubProvider) noticePDF(name string, ext *regexp.Regexp, format string) (*Result, error) {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Text(50, 92, fmt.Sprintf("Converted from %s", name))
	doc.SetFont("Helvetica", "", 10)
	doc.Text(50, 112, fmt.Sprintf("This is a simulated conversion from %s to PDF.", format))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to build placeholder PDF: %w", err)
	}
	return &Result{
		Data:        buf.Bytes(),
		Filename:    ext.ReplaceAllString(name, "") + ".pdf",
		ContentType: MIMEPDF,
	}, nil
}

// EditPDF stamps a gray "EDITED" marker in the top-right corner of every
// page using a pdfcpu text watermark.
func (p *StubProvider) EditPDF(name string, data []byte) (*Result, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	wm, err := api.TextWatermark("EDITED", editLoc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to create edit watermark: %w", err)
	}

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &buf, nil, wm, conf); err != nil {
		return nil, fmt.Errorf("failed to stamp PDF: %w", err)
	}
	return &Result{
		Data:        buf.Bytes(),
		Filename:    "edited-" + name,
		ContentType: MIMEPDF,
	}, nil
}
