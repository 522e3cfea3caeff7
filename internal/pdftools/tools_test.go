package pdftools

import (
	"bytes"
	"fmt"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog"
)

func buildPDF(t *testing.T, pages int, marker string) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "Letter", "")
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 12)
		doc.Text(72, 72, fmt.Sprintf("%s page %d", marker, i+1))
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("Failed to build test PDF: %v", err)
	}
	return buf.Bytes()
}

func newTestService() *Service {
	return NewService(100*1024*1024, zerolog.Nop())
}

func TestValidate(t *testing.T) {
	svc := newTestService()

	if err := svc.Validate("good.pdf", buildPDF(t, 1, "doc")); err != nil {
		t.Errorf("Expected valid PDF to pass, got %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty.pdf", data: nil},
		{name: "notpdf.pdf", data: []byte("hello world")},
		{name: "truncated.pdf", data: []byte("%PDF-1.4 and nothing else")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Validate(tt.name, tt.data); err == nil {
				t.Errorf("Expected validation failure for %s", tt.name)
			}
		})
	}
}

func TestValidateFileSizeLimit(t *testing.T) {
	svc := NewService(16, zerolog.Nop())
	if err := svc.Validate("big.pdf", buildPDF(t, 1, "doc")); err == nil {
		t.Error("Expected size limit to reject the input")
	}
}

func TestPageCount(t *testing.T) {
	svc := newTestService()
	for _, pages := range []int{1, 3, 7} {
		got, err := svc.PageCount("doc.pdf", buildPDF(t, pages, "doc"))
		if err != nil {
			t.Fatalf("PageCount returned error: %v", err)
		}
		if got != pages {
			t.Errorf("Expected %d pages, got %d", pages, got)
		}
	}
}

func TestMerge(t *testing.T) {
	svc := newTestService()
	inputs := map[string][]byte{
		"a.pdf": buildPDF(t, 2, "first"),
		"b.pdf": buildPDF(t, 3, "second"),
	}

	result, err := svc.Merge(inputs, []string{"a.pdf", "b.pdf"})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if result.Filename != "merged-document.pdf" {
		t.Errorf("Expected filename merged-document.pdf, got %q", result.Filename)
	}

	pages, err := svc.PageCount(result.Filename, result.Data)
	if err != nil {
		t.Fatalf("Failed to count merged pages: %v", err)
	}
	if pages != 5 {
		t.Errorf("Expected 5 merged pages, got %d", pages)
	}
}

func TestMergeErrors(t *testing.T) {
	svc := newTestService()
	good := buildPDF(t, 1, "doc")

	tests := []struct {
		name   string
		inputs map[string][]byte
		order  []string
	}{
		{
			name:   "single input",
			inputs: map[string][]byte{"a.pdf": good},
			order:  []string{"a.pdf"},
		},
		{
			name:   "missing input",
			inputs: map[string][]byte{"a.pdf": good},
			order:  []string{"a.pdf", "missing.pdf"},
		},
		{
			name:   "non-PDF input",
			inputs: map[string][]byte{"a.pdf": good, "b.pdf": []byte("plain text")},
			order:  []string{"a.pdf", "b.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Merge(tt.inputs, tt.order); err == nil {
				t.Error("Expected merge to fail")
			}
		})
	}
}

func TestSplit(t *testing.T) {
	svc := newTestService()
	results, err := svc.Split("contract.pdf", buildPDF(t, 3, "doc"))
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 page artifacts, got %d", len(results))
	}

	for i, r := range results {
		want := fmt.Sprintf("contract-page-%d.pdf", i+1)
		if r.Filename != want {
			t.Errorf("Expected filename %q, got %q", want, r.Filename)
		}
		pages, err := svc.PageCount(r.Filename, r.Data)
		if err != nil {
			t.Fatalf("Failed to count pages of %s: %v", r.Filename, err)
		}
		if pages != 1 {
			t.Errorf("Expected single-page artifact, got %d pages", pages)
		}
	}
}

func TestCompress(t *testing.T) {
	svc := newTestService()
	original := buildPDF(t, 2, "doc")

	result, err := svc.Compress("report.pdf", original)
	if err != nil {
		t.Fatalf("Compress returned error: %v", err)
	}
	if result.Filename != "compressed-report.pdf" {
		t.Errorf("Expected filename compressed-report.pdf, got %q", result.Filename)
	}

	// The output must still be a readable document with the same pages.
	pages, err := svc.PageCount(result.Filename, result.Data)
	if err != nil {
		t.Fatalf("Compressed output unreadable: %v", err)
	}
	if pages != 2 {
		t.Errorf("Expected 2 pages after compression, got %d", pages)
	}
}

func TestCompressRejectsNonPDF(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Compress("x.pdf", []byte("nope")); err == nil {
		t.Error("Expected non-PDF input to be rejected")
	}
}
