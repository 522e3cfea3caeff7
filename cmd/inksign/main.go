package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/inksign/inksign/internal/compose"
	"github.com/inksign/inksign/internal/config"
	"github.com/inksign/inksign/internal/convert"
	"github.com/inksign/inksign/internal/field"
	"github.com/inksign/inksign/internal/pdftools"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the logger from the configured level.
func setupLogging(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		logger.Debug().Str("config", cfg.String()).Msg("starting")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("operation failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	switch cfg.Mode {
	case config.ModeStamp:
		return runStamp(cfg, logger)
	case config.ModeMerge:
		return runMerge(cfg, logger)
	case config.ModeSplit:
		return runSplit(cfg, logger)
	case config.ModeCompress:
		return runCompress(cfg, logger)
	case config.ModeConvert:
		return runConvert(cfg, logger)
	case config.ModeInfo:
		return runInfo(cfg, logger)
	default:
		return fmt.Errorf("unsupported mode: %s", cfg.Mode)
	}
}

// requireInputs checks the positional argument count for a mode.
func requireInputs(cfg *config.Config, min int) error {
	if len(cfg.Inputs) < min {
		return fmt.Errorf("mode %q needs at least %d input file(s), got %d", cfg.Mode, min, len(cfg.Inputs))
	}
	return nil
}

func runStamp(cfg *config.Config, logger zerolog.Logger) error {
	if err := requireInputs(cfg, 1); err != nil {
		return err
	}
	if cfg.FieldsSet == "" {
		return fmt.Errorf("stamp mode requires --fields")
	}

	original, err := os.ReadFile(cfg.Inputs[0])
	if err != nil {
		return fmt.Errorf("failed to read input PDF: %w", err)
	}
	rows, err := field.ReadRowsFile(cfg.FieldsSet)
	if err != nil {
		return fmt.Errorf("failed to read fields file: %w", err)
	}

	st := field.NewStore()
	st.LoadRows(rows)

	composer := compose.NewComposer(cfg.StampScale, logger)
	signed, err := composer.Compose(original, st.Fields())
	if err != nil {
		return fmt.Errorf("failed to compose signed document: %w", err)
	}

	out := cfg.Output
	if out == "" {
		out = "signed-" + filepath.Base(cfg.Inputs[0])
	}
	if err := os.WriteFile(out, signed, 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info().Str("output", out).Int("fields", st.Len()).Msg("stamped document written")
	return nil
}

func runMerge(cfg *config.Config, logger zerolog.Logger) error {
	if err := requireInputs(cfg, 2); err != nil {
		return err
	}

	svc := pdftools.NewService(cfg.MaxFileSize, logger)
	inputs := make(map[string][]byte, len(cfg.Inputs))
	order := make([]string, 0, len(cfg.Inputs))
	for _, path := range cfg.Inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		inputs[name] = data
		order = append(order, name)
	}

	result, err := svc.Merge(inputs, order)
	if err != nil {
		return err
	}
	return writeResult(cfg.Output, result.Filename, result.Data, logger)
}

func runSplit(cfg *config.Config, logger zerolog.Logger) error {
	if err := requireInputs(cfg, 1); err != nil {
		return err
	}

	svc := pdftools.NewService(cfg.MaxFileSize, logger)
	data, err := os.ReadFile(cfg.Inputs[0])
	if err != nil {
		return fmt.Errorf("failed to read input PDF: %w", err)
	}

	results, err := svc.Split(filepath.Base(cfg.Inputs[0]), data)
	if err != nil {
		return err
	}

	dir := cfg.Output
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, r := range results {
		path := filepath.Join(dir, r.Filename)
		if err := os.WriteFile(path, r.Data, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	logger.Info().Int("pages", len(results)).Str("dir", dir).Msg("split pages written")
	return nil
}

func runCompress(cfg *config.Config, logger zerolog.Logger) error {
	if err := requireInputs(cfg, 1); err != nil {
		return err
	}

	svc := pdftools.NewService(cfg.MaxFileSize, logger)
	data, err := os.ReadFile(cfg.Inputs[0])
	if err != nil {
		return fmt.Errorf("failed to read input PDF: %w", err)
	}

	result, err := svc.Compress(filepath.Base(cfg.Inputs[0]), data)
	if err != nil {
		return err
	}
	logger.Info().
		Int("original_bytes", len(data)).
		Int("compressed_bytes", len(result.Data)).
		Msg("compressed document")
	return writeResult(cfg.Output, result.Filename, result.Data, logger)
}

func runConvert(cfg *config.Config, logger zerolog.Logger) error {
	if err := requireInputs(cfg, 1); err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.Inputs[0])
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	name := filepath.Base(cfg.Inputs[0])

	provider := convert.NewStubProvider()
	var result *convert.Result
	switch strings.ToLower(cfg.Operation) {
	case "pdf2word":
		result, err = provider.PDFToWord(name, data)
	case "pdf2ppt":
		result, err = provider.PDFToPowerPoint(name, data)
	case "pdf2xls":
		result, err = provider.PDFToExcel(name, data)
	case "word2pdf":
		result, err = provider.WordToPDF(name, data)
	case "ppt2pdf":
		result, err = provider.PowerPointToPDF(name, data)
	case "xls2pdf":
		result, err = provider.ExcelToPDF(name, data)
	case "edit":
		result, err = provider.EditPDF(name, data)
	default:
		return fmt.Errorf("unsupported conversion operation: %q", cfg.Operation)
	}
	if err != nil {
		return err
	}
	return writeResult(cfg.Output, result.Filename, result.Data, logger)
}

func runInfo(cfg *config.Config, logger zerolog.Logger) error {
	if err := requireInputs(cfg, 1); err != nil {
		return err
	}

	svc := pdftools.NewService(cfg.MaxFileSize, logger)
	data, err := os.ReadFile(cfg.Inputs[0])
	if err != nil {
		return fmt.Errorf("failed to read input PDF: %w", err)
	}
	name := filepath.Base(cfg.Inputs[0])
	if err := svc.Validate(name, data); err != nil {
		return err
	}
	pages, err := svc.PageCount(name, data)
	if err != nil {
		return err
	}
	fmt.Printf("%s: valid PDF, %d page(s), %d bytes\n", name, pages, len(data))
	return nil
}

// writeResult writes data to the --output path, or to the service's
// suggested filename in the current directory when none was given.
func writeResult(output, suggested string, data []byte, logger zerolog.Logger) error {
	path := output
	if path == "" {
		path = suggested
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info().Str("output", path).Int("bytes", len(data)).Msg("output written")
	return nil
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("inksign\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
