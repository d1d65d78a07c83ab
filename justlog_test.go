package justlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// badWriter is a writer that always fails for testing sink isolation.
type badWriter struct{}

func (w *badWriter) Write(p []byte) (n int, err error) {
	return 0, fmt.Errorf("simulated write error")
}

// failingSink is a Sink that always fails.
type failingSink struct{}

func (s *failingSink) Emit(Entry) error {
	return fmt.Errorf("simulated store error")
}

func testConfig(t *testing.T) Config {
	t.Helper()
	config := DefaultConfig()
	config.FilePath = filepath.Join(t.TempDir(), "app.log")
	config.EnableFallback = false
	return config
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestBasicLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)
	config.FileLevel = DEBUG
	config.Outputs = []io.Writer{&buf}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	tests := []struct {
		name     string
		logFunc  func()
		contains string
	}{
		{"Debug", func() { logger.Debug("debug message") }, "DEBUG debug message"},
		{"Info", func() { logger.Info("info message") }, "INFO info message"},
		{"Warning", func() { logger.Warning("warning message") }, "WARNING warning message"},
		{"Error", func() { logger.Error("error message") }, "ERROR error message"},
		{"Critical", func() { logger.Critical("critical message") }, "CRITICAL critical message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestFileLevelFiltering(t *testing.T) {
	t.Parallel()

	config := testConfig(t)
	config.FileLevel = WARNING

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("below threshold")
	fi, err := os.Stat(config.FilePath)
	require.NoError(t, err)
	assert.Zero(t, fi.Size(), "a call below the file level must append no bytes")

	logger.Warning("at threshold")
	content := readLog(t, config.FilePath)
	assert.Equal(t, 1, strings.Count(content, "\n"), "expected exactly one line")
	assert.Contains(t, content, "WARNING at threshold")
}

func TestPerSinkThresholds(t *testing.T) {
	t.Parallel()

	var stderrBuf bytes.Buffer
	config := testConfig(t)
	config.FileLevel = DEBUG
	config.StderrLevel = ERROR

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()
	logger.stderr = &stderrBuf

	logger.Info("file only")
	logger.Error("both sinks")

	content := readLog(t, config.FilePath)
	assert.Contains(t, content, "file only")
	assert.Contains(t, content, "both sinks")
	assert.NotContains(t, stderrBuf.String(), "file only")
	assert.Contains(t, stderrBuf.String(), "both sinks")
}

func TestPlainFormatExtras(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)
	config.Outputs = []io.Writer{&buf}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.InfoWithFields(map[string]interface{}{"user": "alice"}, "login", 42, "extra")

	out := buf.String()
	line, extras, found := strings.Cut(out, "\n")
	require.True(t, found)
	assert.Contains(t, line, "INFO login")
	assert.Contains(t, extras, `"user": "alice"`)
	assert.Contains(t, extras, `"args"`)
	assert.Contains(t, extras, "42")
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)
	config.Format = FormatJSON
	config.Outputs = []io.Writer{&buf}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.InfoWithFields(map[string]interface{}{"key": "value"}, "test message")

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "INFO", data["level"])
	assert.Equal(t, "test message", data["message"])
	assert.Equal(t, "value", data["key"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestFormatErrorFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)
	config.Outputs = []io.Writer{&buf}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	// Channels cannot be JSON-encoded; the call must still produce a
	// line with a best-effort rendering.
	logger.InfoWithFields(map[string]interface{}{"ch": make(chan int)}, "unencodable field")

	out := buf.String()
	assert.Contains(t, out, "INFO unencodable field")
	assert.Contains(t, out, `"ch"`)

	buf.Reset()
	logger.Info("unencodable arg", make(chan int), "fine")
	out = buf.String()
	assert.Contains(t, out, "INFO unencodable arg")
	assert.Contains(t, out, "fine")
}

func TestSinkIsolation(t *testing.T) {
	t.Parallel()

	var handled bytes.Buffer
	config := testConfig(t)
	config.Outputs = []io.Writer{&badWriter{}}
	config.ErrorHandler = func(err error) {
		handled.WriteString("HANDLED: " + err.Error())
	}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("survives a failing sink")

	assert.Contains(t, handled.String(), "HANDLED:")
	assert.Contains(t, handled.String(), "simulated write error")

	// The failing extra output must not block the file sink.
	assert.Contains(t, readLog(t, config.FilePath), "survives a failing sink")
}

func TestStoreSink(t *testing.T) {
	t.Parallel()

	sink := &MemorySink{}
	config := testConfig(t)
	config.Store = sink
	config.StoreLevel = WARNING

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("below store threshold")
	logger.WarningWithFields(map[string]interface{}{"code": 7}, "stored", "pos")

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, WARNING, entries[0].Level)
	assert.Equal(t, "stored", entries[0].Message)
	assert.Equal(t, []interface{}{"pos"}, entries[0].Args)
	assert.Equal(t, map[string]interface{}{"code": 7}, entries[0].Fields)
}

func TestStoreFailureIsolated(t *testing.T) {
	t.Parallel()

	var handled bytes.Buffer
	config := testConfig(t)
	config.Store = &failingSink{}
	config.ErrorHandler = func(err error) {
		handled.WriteString(err.Error())
	}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("store is best-effort")

	assert.Contains(t, handled.String(), "simulated store error")
	assert.Contains(t, readLog(t, config.FilePath), "store is best-effort")
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"EmptyPath", func(c *Config) { c.FilePath = " " }},
		{"NegativeBackupCount", func(c *Config) { c.BackupCount = -1 }},
		{"NegativeBackupDays", func(c *Config) { c.BackupDays = -1 }},
		{"NegativeRate", func(c *Config) { c.MaxLogRate = -1 }},
		{"BadFormat", func(c *Config) { c.FormatStr = "XML" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.FilePath = filepath.Join(t.TempDir(), "app.log")
			tt.mutate(&config)
			_, err := New(config)
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"DEBUG", DEBUG, false},
		{"info", INFO, false},
		{"WARN", WARNING, false},
		{"WARNING", WARNING, false},
		{"Error", ERROR, false},
		{"CRITICAL", CRITICAL, false},
		{"FATAL", CRITICAL, false},
		{"OFF", Disabled, false},
		{"INVALID", Disabled, true},
		{"", Disabled, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, level)
			}
		})
	}
}

func TestWithConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name       string
		jsonConfig string
		verify     func(*Logger) bool
		expectErr  bool
	}{
		{
			name: "ValidConfig",
			jsonConfig: fmt.Sprintf(`{
				"file_path": %q,
				"file_level": "WARN",
				"format": "JSON",
				"max_bytes": 2048,
				"backup_count": 3
			}`, filepath.Join(dir, "valid.log")),
			verify: func(l *Logger) bool {
				return l.GetLevel() == WARNING && l.outputFormat == FormatJSON
			},
		},
		{
			name:       "InvalidLevel",
			jsonConfig: fmt.Sprintf(`{"file_path": %q, "file_level": "LOUD"}`, filepath.Join(dir, "x.log")),
			expectErr:  true,
		},
		{
			name:       "InvalidJSON",
			jsonConfig: `{`,
			expectErr:  true,
		},
		{
			name:       "MissingPath",
			jsonConfig: `{"file_level": "INFO"}`,
			expectErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := WithConfig(tt.jsonConfig)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer logger.Close()
			if tt.verify != nil {
				assert.True(t, tt.verify(logger))
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LOG_FILE", "env/app.log")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_STDERR_LEVEL", "CRITICAL")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_RATE", "100")
	t.Setenv("LOG_BACKUP_DAYS", "14")

	config := DefaultConfig()
	config.ApplyEnvOverrides()

	assert.Equal(t, "env/app.log", config.FilePath)
	assert.Equal(t, ERROR, config.FileLevel)
	assert.Equal(t, CRITICAL, config.StderrLevel)
	assert.Equal(t, "JSON", config.FormatStr)
	assert.Equal(t, 100, config.MaxLogRate)
	assert.Equal(t, 14, config.BackupDays)
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)
	config.Outputs = []io.Writer{&buf}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.SetLevel(ERROR)
	logger.Warning("should not appear")
	assert.Empty(t, buf.String())

	logger.SetLevel(DEBUG)
	logger.Debug("should appear")
	assert.Contains(t, buf.String(), "should appear")
	assert.Equal(t, DEBUG, logger.GetLevel())
}

func TestAddRemoveOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.AddOutput(&buf)
	logger.Info("mirrored")
	assert.Contains(t, buf.String(), "mirrored")

	logger.RemoveOutput(&buf)
	buf.Reset()
	logger.Info("not mirrored")
	assert.Empty(t, buf.String())
}

func TestRateLimiting(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)
	config.Outputs = []io.Writer{&buf}
	config.MaxLogRate = 5

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 50; i++ {
		logger.Info(fmt.Sprintf("message %d", i))
	}

	lines := strings.Count(buf.String(), "\n")
	assert.GreaterOrEqual(t, lines, 1, "burst should let some messages through")
	assert.LessOrEqual(t, lines, 10, "rate limit should drop most of the burst")
}

func TestCloseDropsLateWrites(t *testing.T) {
	t.Parallel()

	config := testConfig(t)
	logger, err := New(config)
	require.NoError(t, err)

	logger.Info("before close")
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close(), "Close must be idempotent")
	assert.True(t, logger.IsClosed())

	logger.Info("after close")
	content := readLog(t, config.FilePath)
	assert.Contains(t, content, "before close")
	assert.NotContains(t, content, "after close")
}

func TestLevelJSONRoundTrip(t *testing.T) {
	t.Parallel()

	for _, level := range []Level{Disabled, DEBUG, INFO, WARNING, ERROR, CRITICAL} {
		data, err := json.Marshal(level)
		require.NoError(t, err)

		var back Level
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, level, back)
	}

	var bad Level
	assert.Error(t, json.Unmarshal([]byte(`"LOUD"`), &bad))
}

func TestCustomTimestampFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	config := testConfig(t)
	config.TimestampFormat = time.RFC3339
	config.Outputs = []io.Writer{&buf}

	logger, err := New(config)
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("test message")

	tsPart := strings.SplitN(buf.String(), " ", 2)[0]
	_, err = time.Parse(time.RFC3339, tsPart)
	assert.NoError(t, err, "timestamp should match the configured format")
}
