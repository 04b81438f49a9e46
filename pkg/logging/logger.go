package logging

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/carlosbarrancotena/practica5/pkg/config"
	"github.com/carlosbarrancotena/practica5/pkg/ctxkeys"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Entry is a logger with fields already attached
type Entry = *logrus.Entry

// Fields represents structured logging fields
type Fields = logrus.Fields

// serviceHook stamps every entry with the service name.
type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = h.service
	}
	return nil
}

// NewLogger creates a new configured logger instance
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithService creates a logger that adds a service field to all entries
func NewLoggerWithService(serviceName string) *logrus.Logger {
	logger := NewLogger()
	logger.AddHook(serviceHook{service: serviceName})
	return logger
}

// FromContext returns an entry carrying the request id found in ctx, if any.
func FromContext(ctx context.Context, logger Logger) Entry {
	entry := logrus.NewEntry(logger)
	if ctx == nil {
		return entry
	}
	if requestID, ok := ctx.Value(ctxkeys.KeyRequestID).(string); ok && requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}
