// Package convert isolates document format conversion behind a provider
// interface so the placeholder implementation can be swapped for a real
// conversion backend without touching the compositor or field model.
package convert

// Result is one converted artifact.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Provider converts between PDF and Office formats. Implementations
// receive the raw input bytes and the original file name.
type Provider interface {
	PDFToWord(name string, data []byte) (*Result, error)
	PDFToPowerPoint(name string, data []byte) (*Result, error)
	PDFToExcel(name string, data []byte) (*Result, error)
	WordToPDF(name string, data []byte) (*Result, error)
	PowerPointToPDF(name string, data []byte) (*Result, error)
	ExcelToPDF(name string, data []byte) (*Result, error)

	// EditPDF applies a marker edit to an existing PDF.
	EditPDF(name string, data []byte) (*Result, error)
}

// Office MIME types used for converted artifacts.
const (
	MIMEWord       = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPowerPoint = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEExcel      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPDF        = "application/pdf"
)
