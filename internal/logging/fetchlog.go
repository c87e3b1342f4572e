package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FetchLog appends one plain-text line per fetch warning or failure.
// Lines carry no timestamp or level so the file stays greppable.
type FetchLog struct {
	file   *os.File
	lines  *zap.Logger
	mirror *zap.Logger
}

// NewFetchLog truncates (or creates) path and returns a FetchLog writing to it.
// Every line is also mirrored to mirror at warn level with structured fields.
func NewFetchLog(path string, mirror *zap.Logger) (*FetchLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create fetch log dir %s: %w", dir, err)
		}
	}
	// #nosec G304 -- path comes from operator configuration.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open fetch log %s: %w", path, err)
	}
	if mirror == nil {
		mirror = zap.NewNop()
	}
	return &FetchLog{
		file:   f,
		lines:  zap.New(newLineCore(zapcore.Lock(f))),
		mirror: mirror,
	}, nil
}

func newLineCore(ws zapcore.WriteSyncer) zapcore.Core {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	})
	return zapcore.NewCore(enc, ws, zapcore.DebugLevel)
}

// BadStatus records a 4xx/5xx response.
func (l *FetchLog) BadStatus(url string, statusCode int) {
	l.lines.Warn(fmt.Sprintf("Fetched %s with status code: %d", url, statusCode))
	l.mirror.Warn("fetched with error status", zap.String("url", url), zap.Int("status_code", statusCode))
}

// Failure records a fetch that produced no document.
func (l *FetchLog) Failure(url string, err error) {
	l.lines.Warn(fmt.Sprintf("Failed to fetch %s: %v", url, err))
	l.mirror.Warn("fetch failed", zap.String("url", url), zap.Error(err))
}

// Close flushes and closes the underlying file.
func (l *FetchLog) Close() error {
	if err := l.lines.Sync(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("sync fetch log: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close fetch log: %w", err)
	}
	return nil
}
