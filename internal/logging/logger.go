// Package logging builds the per-session structured logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	SessionID string
	// Dir defaults to ~/.quill/logs.
	Dir   string
	Level string
	// Console mirrors log lines to stderr in a human-readable form.
	Console bool
}

// Logger is a zap logger writing to one file per session.
type Logger struct {
	*zap.Logger
	file     *os.File
	filePath string
}

// New creates the session log file and a JSON logger writing to it.
func New(opts Options) (*Logger, error) {
	dir := opts.Dir
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".quill", "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filePath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", timestamp, opts.SessionID))
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level),
	}
	if opts.Console {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(zap.String("session", opts.SessionID))
	logger.Info("session started")
	return &Logger{Logger: logger, file: file, filePath: filePath}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	l.Info("session completed")
	_ = l.Sync()
	return l.file.Close()
}

// FilePath returns the log file path, or "" for a Nop logger.
func (l *Logger) FilePath() string {
	return l.filePath
}

// ToolCall logs a tool execution with shortened input and output.
func ToolCall(logger *zap.Logger, tool, input, output string) {
	logger.Info("tool call",
		zap.String("tool", tool),
		zap.String("input", truncate(input, 100)),
		zap.String("output", truncate(output, 200)),
	)
}

// truncate shortens a string for logging
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
