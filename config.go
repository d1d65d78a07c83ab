package justlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Format selects the output representation of log records.
type Format int

const (
	FormatPlain Format = iota
	FormatJSON
)

// Defaults applied by DefaultConfig. Numeric zero values in a Config
// are meaningful (MaxBytes <= 0 disables rotation, BackupDays == 0
// keeps logs forever, BackupCount == 0 keeps no backups), so New never
// silently replaces them.
var (
	defaultName            = "app"
	defaultFileLevel       = INFO
	defaultMaxBytes        = int64(1_000_000)
	defaultBackupCount     = 5
	defaultTimestampFormat = "2006-01-02 15:04:05"
)

// Config holds every tunable of a logger. It is captured once by New
// and treated as read-only afterwards; reconfiguring a running process
// means building a new logger and swapping it in via Setup.
//
// Fields:
//   - FilePath: target of the rotating file sink; parent directories
//     are created if absent. Required by New.
//   - FileLevel: minimum severity written to the file sink.
//   - StderrLevel: minimum severity mirrored to stderr; Disabled (the
//     zero value) turns the stderr sink off.
//   - MaxBytes: rotation threshold; a value <= 0 disables rotation.
//   - BackupCount: rotated files to retain as .1 .. .N; 0 keeps none
//     (the active file is truncated on rotation).
//   - BackupDays: retention window in days for old log content; 0
//     keeps everything.
//   - Name: identifies this configuration instance; independent
//     configurations can coexist under different names.
//   - TimestampFormat: presentation only, no behavioral effect.
//   - Store/StoreLevel: optional structured sink and its threshold.
type Config struct {
	FilePath        string `json:"file_path"`
	FileLevel       Level  `json:"file_level"`
	StderrLevel     Level  `json:"stderr_level"`
	MaxBytes        int64  `json:"max_bytes"`
	BackupCount     int    `json:"backup_count"`
	BackupDays      int    `json:"backup_days"`
	Name            string `json:"name"`
	TimestampFormat string `json:"timestamp_format"`
	FormatStr       string `json:"format"`
	PrettyPrint     bool   `json:"pretty_print"`
	CompressBackups bool   `json:"compress_backups"`
	MaxLogRate      int    `json:"max_log_rate"`
	StoreLevel      Level  `json:"store_level"`
	EnableFallback  bool   `json:"enable_fallback"`

	Format       Format      `json:"-"`
	Store        Sink        `json:"-"`
	Outputs      []io.Writer `json:"-"`
	ErrorHandler func(error) `json:"-"`
}

// DefaultConfig returns a Config with the stock defaults: INFO to the
// file, stderr off, 1 MB rotation threshold, five backups, unlimited
// retention. FilePath must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		FileLevel:       defaultFileLevel,
		StderrLevel:     Disabled,
		MaxBytes:        defaultMaxBytes,
		BackupCount:     defaultBackupCount,
		Name:            defaultName,
		TimestampFormat: defaultTimestampFormat,
		EnableFallback:  true,
	}
}

// Validate reports configuration errors. These surface synchronously
// from New/Setup; they are never deferred to log time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FilePath) == "" {
		return fmt.Errorf("file path must not be empty")
	}
	if c.BackupCount < 0 {
		return fmt.Errorf("backup count cannot be negative")
	}
	if c.BackupDays < 0 {
		return fmt.Errorf("backup days cannot be negative")
	}
	if c.MaxLogRate < 0 {
		return fmt.Errorf("max log rate cannot be negative")
	}
	if c.FormatStr != "" {
		switch strings.ToUpper(c.FormatStr) {
		case "PLAIN", "JSON":
		default:
			return fmt.Errorf("invalid log format: %s", c.FormatStr)
		}
	}
	return nil
}

// normalize fills the presentational defaults and resolves FormatStr.
// Called by New after Validate.
func (c *Config) normalize() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.TimestampFormat == "" {
		c.TimestampFormat = defaultTimestampFormat
	}
	if c.FileLevel == Disabled {
		c.FileLevel = defaultFileLevel
	}
	if strings.EqualFold(c.FormatStr, "JSON") {
		c.Format = FormatJSON
	}
}

// ApplyEnvOverrides overlays recognized environment variables on the
// configuration. Unset or malformed values leave the field untouched.
//
// Recognized variables: LOG_FILE, LOG_LEVEL, LOG_STDERR_LEVEL,
// LOG_FORMAT, LOG_RATE, LOG_BACKUP_DAYS.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.FilePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if level, err := ParseLevel(v); err == nil {
			c.FileLevel = level
		}
	}
	if v := os.Getenv("LOG_STDERR_LEVEL"); v != "" {
		if level, err := ParseLevel(v); err == nil {
			c.StderrLevel = level
		}
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.FormatStr = v
	}
	if v := os.Getenv("LOG_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate >= 0 {
			c.MaxLogRate = rate
		}
	}
	if v := os.Getenv("LOG_BACKUP_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days >= 0 {
			c.BackupDays = days
		}
	}
}

// WithConfig builds a logger from a JSON configuration document.
// Fields absent from the document keep their DefaultConfig values.
func WithConfig(jsonConfig string) (*Logger, error) {
	config := DefaultConfig()
	decoder := json.NewDecoder(strings.NewReader(jsonConfig))
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}
	return New(config)
}
