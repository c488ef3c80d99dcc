package logging

import (
	"io"
	"log/slog"
	"os"
)

// New initializes the structured diagnostics logger. When diagPath is
// non-empty the logger writes to both stdout and that file.
func New(diagPath string) (*slog.Logger, *os.File) {
	var logWriter io.Writer = os.Stdout
	var logFile *os.File

	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	if diagPath != "" {
		var err error
		logFile, err = os.OpenFile(diagPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			slog.Error("Failed to open diagnostics log file, continuing with stdout only", "error", err, "path", diagPath)
		} else {
			logWriter = io.MultiWriter(os.Stdout, logFile)
		}
	}

	logger := slog.New(slog.NewJSONHandler(logWriter, handlerOpts))
	slog.SetDefault(logger)

	return logger, logFile
}
