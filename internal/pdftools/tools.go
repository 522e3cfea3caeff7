// Package pdftools bundles the standalone PDF utility operations: merge,
// split into single pages, and compression, all byte-in byte-out.
package pdftools

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

// Result is one produced artifact with its suggested download name.
type Result struct {
	Data     []byte
	Filename string
}

// Service runs the utility operations with a shared size limit and a
// relaxed-validation pdfcpu configuration.
type Service struct {
	maxFileSize int64
	log         zerolog.Logger
}

// NewService creates a tools service enforcing maxFileSize per input.
func NewService(maxFileSize int64, logger zerolog.Logger) *Service {
	return &Service{maxFileSize: maxFileSize, log: logger}
}

func (s *Service) conf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// checkInput applies the shared input constraints before any processing.
func (s *Service) checkInput(name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("file is empty: %s", name)
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("file too large: %s is %d bytes (max: %d bytes)",
			name, len(data), s.maxFileSize)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return fmt.Errorf("file is not a PDF: %s", name)
	}
	return nil
}

// Validate checks that the input parses as a PDF.
func (s *Service) Validate(name string, data []byte) error {
	if err := s.checkInput(name, data); err != nil {
		return err
	}
	if err := api.Validate(bytes.NewReader(data), s.conf()); err != nil {
		return fmt.Errorf("invalid PDF file %s: %w", name, err)
	}
	return nil
}

// PageCount returns the number of pages in the input.
func (s *Service) PageCount(name string, data []byte) (int, error) {
	if err := s.checkInput(name, data); err != nil {
		return 0, err
	}
	ctx, err := api.ReadContext(bytes.NewReader(data), s.conf())
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx.PageCount, nil
}

// Merge concatenates the inputs in order into a single document. Inputs
// that are not PDFs are rejected up front rather than silently dropped.
func (s *Service) Merge(inputs map[string][]byte, order []string) (*Result, error) {
	if len(order) < 2 {
		return nil, fmt.Errorf("merge requires at least two input files, got %d", len(order))
	}

	readers := make([]io.ReadSeeker, 0, len(order))
	for _, name := range order {
		data, ok := inputs[name]
		if !ok {
			return nil, fmt.Errorf("missing merge input: %s", name)
		}
		if err := s.checkInput(name, data); err != nil {
			return nil, err
		}
		readers = append(readers, bytes.NewReader(data))
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, s.conf()); err != nil {
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}

	s.log.Info().Int("count", len(order)).Msg("merged PDFs")
	return &Result{Data: buf.Bytes(), Filename: "merged-document.pdf"}, nil
}

// Split breaks the input into one artifact per page, named
// <base>-page-N.pdf after the source file.
func (s *Service) Split(name string, data []byte) ([]Result, error) {
	pageCount, err := s.PageCount(name, data)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(name, ".pdf")
	results := make([]Result, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		var buf bytes.Buffer
		selected := []string{strconv.Itoa(page)}
		if err := api.Trim(bytes.NewReader(data), &buf, selected, s.conf()); err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", page, err)
		}
		results = append(results, Result{
			Data:     buf.Bytes(),
			Filename: fmt.Sprintf("%s-page-%d.pdf", base, page),
		})
	}

	s.log.Info().Int("pages", pageCount).Msg("split PDF")
	return results, nil
}

// Compress rewrites the input through pdfcpu's optimizer, pruning unused
// objects and recompressing streams.
func (s *Service) Compress(name string, data []byte) (*Result, error) {
	if err := s.checkInput(name, data); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, s.conf()); err != nil {
		return nil, fmt.Errorf("failed to compress PDF: %w", err)
	}

	s.log.Info().
		Int("before", len(data)).
		Int("after", buf.Len()).
		Msg("compressed PDF")
	return &Result{Data: buf.Bytes(), Filename: "compressed-" + name}, nil
}
