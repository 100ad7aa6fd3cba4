// Package logging builds the structured logger used by the services and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/prenatal-assay-engine/internal/domain"
)

// Standard log field names
const (
	FieldRecordID  = "record_id"
	FieldMarker    = "marker"
	FieldMethod    = "method"
	FieldErrorKind = "error_kind"
	FieldDuration  = "duration"
)

// New creates a logrus logger from configuration.
func New(cfg domain.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(parsed)

	switch cfg.Format {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	out, err := output(cfg.Output)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)

	return logger, nil
}

func output(name string) (io.Writer, error) {
	switch name {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		return nil, fmt.Errorf("invalid log output: %s", name)
	}
}

// WithError adds the error and, for calculation errors, its kind.
func WithError(entry *logrus.Entry, err error) *logrus.Entry {
	entry = entry.WithError(err)
	if kind, ok := domain.KindOf(err); ok {
		entry = entry.WithField(FieldErrorKind, string(kind))
	}
	return entry
}
