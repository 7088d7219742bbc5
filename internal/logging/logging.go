package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus with file rotation.
type Logger struct {
	*logrus.Logger
	rotator *lumberjack.Logger
}

// New creates a Logger writing to a rotated file under dir and to stdout.
func New(dir, level string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "datapact.log"),
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	l := logrus.New()
	l.SetOutput(io.MultiWriter(rotator, os.Stdout))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &Logger{Logger: l, rotator: rotator}, nil
}

// NewTest returns a logger for tests: debug level, no file output.
func NewTest() *Logger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	return &Logger{Logger: l}
}

// Close closes the underlying log file.
func (l *Logger) Close() {
	if l.rotator != nil {
		_ = l.rotator.Close()
	}
}
