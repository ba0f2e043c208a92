// Package logging builds the run logger and logs stage transitions.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"booking_automation/domain/entities"
	"booking_automation/domain/interfaces"
	"booking_automation/infrastructure/config"
)

// New creates a logger writing to stderr and, when cfg.File is set, to a rotating file.
// The returned closer releases the file.
func New(cfg config.LoggerConfig) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var closer io.Closer = nopCloser{}
	logger.SetOutput(os.Stderr)
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, file))
		closer = file
	}

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// EventLogger writes every stage transition as a structured log entry
type EventLogger struct {
	logger logrus.FieldLogger
}

// NewEventLogger creates an event sink over logger.
func NewEventLogger(logger logrus.FieldLogger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Emit implements interfaces.EventSink.
func (l *EventLogger) Emit(e entities.StageEvent) {
	entry := l.logger.WithFields(logrus.Fields{
		"run_id": e.RunID,
		"stage":  e.Stage,
		"from":   e.From,
		"to":     e.To,
	})
	if e.Value != "" {
		entry = entry.WithField("value", e.Value)
	}
	if e.Detail != "" {
		entry = entry.WithField("detail", e.Detail)
	}

	switch e.To {
	case entities.StateConfirmed:
		entry.Info("Stage confirmed")
	case entities.StateSimulated:
		entry.Warn("Stage simulated")
	case entities.StateSkipped:
		entry.Warn("Stage skipped")
	default:
		entry.Debug("Stage transition")
	}
}

var _ interfaces.EventSink = (*EventLogger)(nil)
