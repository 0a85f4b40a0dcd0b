package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	level    zap.AtomicLevel
	sugar    *zap.SugaredLogger
	filePath string
	mu       sync.Mutex
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "ERROR":
		return zapcore.ErrorLevel
	case "WARN":
		return zapcore.WarnLevel
	case "DEBUG":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func New(level string) *Logger {
	atomic := zap.NewAtomicLevelAt(parseLevel(level))
	core := zapcore.NewCore(encoder(), zapcore.Lock(os.Stdout), atomic)
	return &Logger{
		level: atomic,
		sugar: zap.New(core).Sugar(),
	}
}

// NewWithCore wraps an existing zap core, e.g. zaptest/observer in tests.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{
		level: zap.NewAtomicLevelAt(zapcore.DebugLevel),
		sugar: zap.New(core).Sugar(),
	}
}

func NewNop() *Logger {
	return &Logger{
		level: zap.NewAtomicLevelAt(zapcore.FatalLevel),
		sugar: zap.NewNop().Sugar(),
	}
}

func NewFromEnv() *Logger {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "INFO"
	}

	logger := New(level)

	logFile := os.Getenv("LOG_FILE")
	if logFile != "" {
		if err := logger.SetLogFile(logFile); err != nil {
			logger.Warn("Log file disabled: %v", err)
		}
	}

	return logger
}

// SetLogFile tees output to stdout and the given file.
func (l *Logger) SetLogFile(filePath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	out := zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), zapcore.AddSync(file))
	core := zapcore.NewCore(encoder(), out, l.level)
	l.sugar = zap.New(core).Sugar()
	l.filePath = filePath

	return nil
}

func (l *Logger) base() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar
}

func (l *Logger) Sync() error {
	return l.base().Sync()
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.base().Errorf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.base().Warnf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.base().Infof(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.base().Debugf(format, args...)
}

func (l *Logger) WithFields(fields map[string]interface{}) *Entry {
	keysAndValues := make([]interface{}, 0, 2*len(fields))
	for key, value := range fields {
		keysAndValues = append(keysAndValues, key, value)
	}
	return &Entry{
		sugar: l.base().With(keysAndValues...),
	}
}

type Entry struct {
	sugar *zap.SugaredLogger
}

func (e *Entry) Error(format string, args ...interface{}) {
	e.sugar.Errorf(format, args...)
}

func (e *Entry) Warn(format string, args ...interface{}) {
	e.sugar.Warnf(format, args...)
}

func (e *Entry) Info(format string, args ...interface{}) {
	e.sugar.Infof(format, args...)
}

func (e *Entry) Debug(format string, args ...interface{}) {
	e.sugar.Debugf(format, args...)
}
