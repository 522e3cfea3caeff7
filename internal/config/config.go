package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStamp    = "stamp"
	ModeMerge    = "merge"
	ModeSplit    = "split"
	ModeCompress = "compress"
	ModeConvert  = "convert"
	ModeInfo     = "info"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Viewer geometry defaults. The fallback page height and the page cap
	// are tuning constants with no derivation; keep them configurable.
	DefaultPageHeightFallback = 800.0
	DefaultMaxPageEstimate    = 20
	DefaultStampScale         = 0.75

	DefaultSignedURLTTL = time.Hour

	DefaultSurrealURL       = "ws://127.0.0.1:8000/rpc"
	DefaultSurrealNamespace = "inksign"
	DefaultSurrealDatabase  = "inksign"
)

// Config holds all configuration for the inksign CLI and services.
type Config struct {
	// Operation configuration
	Mode      string
	Operation string // convert mode only: pdf2word, word2pdf, ...
	Inputs    []string
	Output    string
	FieldsSet string // path to a JSON file with persisted field rows

	// Viewer geometry
	PageHeightFallback float64
	MaxPageEstimate    int
	StampScale         float64

	// Persistence configuration
	SurrealURL       string
	SurrealNamespace string
	SurrealDatabase  string
	SurrealUsername  string
	SurrealPassword  string
	StorageBaseURL   string
	ShareBaseURL     string
	SignedURLTTL     time.Duration

	// Application configuration
	Version     string
	LogLevel    string
	MaxFileSize int64
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:               ModeStamp,
		PageHeightFallback: DefaultPageHeightFallback,
		MaxPageEstimate:    DefaultMaxPageEstimate,
		StampScale:         DefaultStampScale,
		SurrealURL:         DefaultSurrealURL,
		SurrealNamespace:   DefaultSurrealNamespace,
		SurrealDatabase:    DefaultSurrealDatabase,
		SignedURLTTL:       DefaultSignedURLTTL,
		Version:            "1.0.0",
		LogLevel:           DefaultLogLevel,
		MaxFileSize:        DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.Inputs = pflag.Args()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("INKSIGN")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("operation", cfg.Operation)
	viper.SetDefault("output", cfg.Output)
	viper.SetDefault("fields", cfg.FieldsSet)
	viper.SetDefault("pageheight", cfg.PageHeightFallback)
	viper.SetDefault("maxpages", cfg.MaxPageEstimate)
	viper.SetDefault("stampscale", cfg.StampScale)
	viper.SetDefault("surrealurl", cfg.SurrealURL)
	viper.SetDefault("surrealns", cfg.SurrealNamespace)
	viper.SetDefault("surrealdb", cfg.SurrealDatabase)
	viper.SetDefault("surrealuser", cfg.SurrealUsername)
	viper.SetDefault("surrealpass", cfg.SurrealPassword)
	viper.SetDefault("storageurl", cfg.StorageBaseURL)
	viper.SetDefault("shareurl", cfg.ShareBaseURL)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Operation mode: stamp, merge, split, compress, convert, info")
	pflag.String("operation", cfg.Operation,
		"Conversion operation (convert mode): pdf2word, pdf2ppt, pdf2xls, word2pdf, ppt2pdf, xls2pdf, edit")
	pflag.String("output", cfg.Output, "Output file or directory")
	pflag.String("fields", cfg.FieldsSet, "JSON file with field rows to stamp (stamp mode)")
	pflag.Float64("pageheight", cfg.PageHeightFallback, "Fallback page height in pixels for page detection")
	pflag.Int("maxpages", cfg.MaxPageEstimate, "Safety cap for estimated page counts")
	pflag.Float64("stampscale", cfg.StampScale, "Pixel to PDF unit scale for stamped fields")
	pflag.String("surrealurl", cfg.SurrealURL, "SurrealDB RPC endpoint")
	pflag.String("surrealns", cfg.SurrealNamespace, "SurrealDB namespace")
	pflag.String("surrealdb", cfg.SurrealDatabase, "SurrealDB database")
	pflag.String("surrealuser", cfg.SurrealUsername, "SurrealDB username")
	pflag.String("surrealpass", cfg.SurrealPassword, "SurrealDB password")
	pflag.String("storageurl", cfg.StorageBaseURL, "Blob storage base URL for signed links")
	pflag.String("shareurl", cfg.ShareBaseURL, "Public application root for share links")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "operation", "output", "fields", "pageheight", "maxpages",
		"stampscale", "surrealurl", "surrealns", "surrealdb", "surrealuser",
		"surrealpass", "storageurl", "shareurl", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ninksign - e-signature field stamping and PDF utilities\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --mode=stamp --fields=fields.json --output=signed.pdf contract.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=merge --output=merged.pdf a.pdf b.pdf c.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=split --output=pages/ contract.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=compress --output=small.pdf contract.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=convert --operation=pdf2word contract.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  INKSIGN_MODE         Operation mode\n")
		fmt.Fprintf(os.Stderr, "  INKSIGN_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  INKSIGN_MAXFILESIZE  Maximum file size in bytes\n")
		fmt.Fprintf(os.Stderr, "  INKSIGN_SURREALURL   SurrealDB RPC endpoint\n")
		fmt.Fprintf(os.Stderr, "  INKSIGN_STORAGEURL   Blob storage base URL\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Operation = viper.GetString("operation")
	cfg.Output = viper.GetString("output")
	cfg.FieldsSet = viper.GetString("fields")
	cfg.PageHeightFallback = viper.GetFloat64("pageheight")
	cfg.MaxPageEstimate = viper.GetInt("maxpages")
	cfg.StampScale = viper.GetFloat64("stampscale")
	cfg.SurrealURL = viper.GetString("surrealurl")
	cfg.SurrealNamespace = viper.GetString("surrealns")
	cfg.SurrealDatabase = viper.GetString("surrealdb")
	cfg.SurrealUsername = viper.GetString("surrealuser")
	cfg.SurrealPassword = viper.GetString("surrealpass")
	cfg.StorageBaseURL = viper.GetString("storageurl")
	cfg.ShareBaseURL = viper.GetString("shareurl")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeStamp, ModeMerge, ModeSplit, ModeCompress, ModeConvert, ModeInfo:
	default:
		return fmt.Errorf("invalid mode: %q (must be one of: stamp, merge, split, compress, convert, info)", c.Mode)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.PageHeightFallback <= 0 {
		return errors.New("fallback page height must be positive")
	}
	if c.MaxPageEstimate < 1 {
		return errors.New("page estimate cap must be at least 1")
	}
	if c.StampScale <= 0 {
		return errors.New("stamp scale must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, LogLevel: %s, MaxFileSize: %d, StampScale: %g}",
		c.Mode, c.LogLevel, c.MaxFileSize, c.StampScale)
}
