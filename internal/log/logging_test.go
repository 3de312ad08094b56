package log_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/protobind/internal/log"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.LevelTrace, log.ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, log.ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, log.ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, log.ParseLevel(""))
	assert.Equal(t, slog.LevelWarn, log.ParseLevel("bogus"))
	assert.Equal(t, slog.LevelError, log.ParseLevel("error"))
}

func TestSetupLoggerSplitsStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := log.SetupLoggerTo(&stdout, &stderr, "info", "")
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("hidden")
	logger.Info("hello", "stage", "discover")
	logger.Error("boom")

	assert.Contains(t, stdout.String(), "msg=hello")
	assert.Contains(t, stdout.String(), "stage=discover")
	assert.NotContains(t, stdout.String(), "hidden")
	assert.NotContains(t, stdout.String(), "boom")
	assert.Contains(t, stderr.String(), "msg=boom")
	assert.NotContains(t, stderr.String(), "hello")
}

func TestSetupLoggerDefaultIsQuiet(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, _, err := log.SetupLoggerTo(&stdout, &stderr, "", "")
	require.NoError(t, err)

	logger.Info("progress")
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRawLoggerPrefixesLines(t *testing.T) {
	var buf bytes.Buffer
	raw := log.NewRaw(&buf)
	raw.Log("protoc", "stderr", []byte("a.proto:3:1: Expected \"message\".\nsecond\n"))

	out := buf.String()
	assert.Contains(t, out, "protoc stderr | a.proto:3:1: Expected \"message\".\n")
	assert.Contains(t, out, "protoc stderr | second\n")
}

func TestRawLoggerNilWriterIsNoop(t *testing.T) {
	raw := log.NewRaw(nil)
	assert.NotPanics(t, func() { raw.Log("git", "stdout", []byte("x")) })
}

func TestSetupRawRouting(t *testing.T) {
	tests := []struct {
		level  string
		stdout bool
	}{
		{"trace", true},
		{"debug", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run("level="+tt.level, func(t *testing.T) {
			var stdout bytes.Buffer
			raw, closer, err := log.SetupRaw(&stdout, tt.level, "")
			require.NoError(t, err)
			assert.Nil(t, closer)

			raw.Log("git", "stdout", []byte("generated/a.pb.go\n"))
			if tt.stdout {
				assert.Contains(t, stdout.String(), "git stdout | generated/a.pb.go")
			} else {
				assert.Empty(t, stdout.String())
			}
		})
	}
}

func TestSetupRawFileTakesToolOutput(t *testing.T) {
	var stdout bytes.Buffer
	path := filepath.Join(t.TempDir(), "raw.log")
	raw, closer, err := log.SetupRaw(&stdout, "trace", path)
	require.NoError(t, err)
	require.NotNil(t, closer)

	raw.Log("protoc", "stderr", []byte("a.proto:1:1: oops\n"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "protoc stderr | a.proto:1:1: oops")
	assert.Empty(t, stdout.String())
}

func TestSetupRawUnwritableFile(t *testing.T) {
	raw, closer, err := log.SetupRaw(nil, "warn", filepath.Join(t.TempDir(), "missing", "raw.log"))
	assert.Error(t, err)
	assert.Nil(t, closer)
	assert.NotPanics(t, func() { raw.Log("git", "stderr", []byte("x")) })
}
