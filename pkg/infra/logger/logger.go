package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const logsDir = "logs"

type Config struct {
	Level string `mapstructure:"level"`
	// File, relative to the logs directory. Empty logs to stdout only.
	File string `mapstructure:"file"`
}

// NewLogger builds the JSON logger shared by every component. The returned
// func flushes and closes any file output.
func NewLogger(cfg Config) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(parseLevel(cfg.Level))
	logger.SetOutput(os.Stdout)

	if cfg.File == "" {
		return logger, func() {}, nil
	}

	logFile := filepath.Clean(filepath.Join(logsDir, cfg.File))
	if !strings.HasPrefix(logFile, logsDir+string(filepath.Separator)) {
		return nil, nil, fmt.Errorf("invalid log file path %q: must be in %s directory", cfg.File, logsDir)
	}
	if err := os.MkdirAll(logsDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	fileWriter, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	consoleHook := NewAsyncConsoleHook(1000)

	logger.SetOutput(fileWriter)
	logger.AddHook(consoleHook)

	return logger, func() {
		consoleHook.Close()
		fileWriter.Close()
	}, nil
}

func parseLevel(level string) logrus.Level {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
