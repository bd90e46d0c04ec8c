package util

import (
	"log"
	"log/slog"
	"strings"
)

// SetupGlobalLogger replaces the standard log package logger so that
// libraries logging through log.Printf end up in the structured log.
func SetupGlobalLogger() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{logger: GetLogger()})
}

type logWriter struct {
	logger *slog.Logger
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
