// Package logging configures structured logging for the router.
package logging

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger with a fixed set of base fields.
type Logger struct {
	*logrus.Logger
	fields logrus.Fields
}

// New builds a Logger from LOG_LEVEL/LOG_FORMAT-style settings.
// format == "json" emits structured JSON; anything else emits the
// human-readable text formatter. Always writes to stdout — this
// service has no long-running-daemon rotation requirement, so there
// is no file sink here.
func New(level, format string) (*Logger, error) {
	log := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", level, err)
	}
	log.SetLevel(parsed)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "@timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}
	log.SetOutput(os.Stdout)

	return &Logger{
		Logger: log,
		fields: logrus.Fields{"service": "leadrouter", "pid": os.Getpid()},
	}, nil
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying the given request id, so
// WithContext can pick it back up for logging.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithContext returns a Logger enriched with the request id carried
// on ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return l.WithFields(logrus.Fields{"request_id": id})
	}
	return l
}

// WithFields returns a Logger with fields merged on top of the base set.
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{Logger: l.Logger, fields: merged}
}

// WithError returns a Logger enriched with the error and its type.
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields(logrus.Fields{"error": err.Error(), "error_type": fmt.Sprintf("%T", err)})
}

// Entry materializes a *logrus.Entry carrying the accumulated fields,
// suitable for calling .Info/.Warn/.Error on.
func (l *Logger) Entry() *logrus.Entry {
	return l.Logger.WithFields(l.fields)
}
