package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextWithoutLogger(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	// A disabled logger must be safe to use.
	log.Info().Msg("dropped")
}

func TestWithComponentAndTrack(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), NewWriterLogger(&buf, zerolog.DebugLevel))
	ctx = WithComponent(ctx, "downloader")
	ctx = WithTrack(ctx, "resource")

	FromContext(ctx).Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"component":"downloader"`)
	assert.Contains(t, out, `"track":"resource"`)
	assert.Contains(t, out, `"message":"hello"`)
}

func TestNewWritesRollingFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "updsync.log")

	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Quiet = true
	cfg.File = file

	log := New(cfg)
	log.Debug().Str("k", "v").Msg("to file")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to file"))
}

func TestNewRespectsLevel(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "updsync.log")

	log := New(Config{Level: "warn", Quiet: true, File: file, MaxSizeMB: 1})
	log.Info().Msg("filtered")
	log.Warn().Msg("kept")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "filtered")
	assert.Contains(t, string(data), "kept")
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	log := New(Config{Level: "loud", Quiet: true})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
