package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kabro/accesscore/pkg/observability"
)

// Logger is the interface for audit sinks.
type Logger interface {
	// Record appends an entry. Implementations must never mutate
	// previously written entries.
	Record(ctx context.Context, entry *Entry) error

	// Close flushes and releases the sink.
	Close() error
}

// Stamp fills in the entry identifier and timestamp if the caller left them
// empty, and enriches the entry from context.
func Stamp(ctx context.Context, entry *Entry) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Severity == "" {
		entry.Severity = SeverityInfo
	}
	if entry.RequestID == "" {
		entry.RequestID = observability.GetRequestID(ctx)
	}
	if entry.IPAddress == "" || entry.UserAgent == "" {
		ip, userAgent := observability.GetClientInfo(ctx)
		if entry.IPAddress == "" {
			entry.IPAddress = ip
		}
		if entry.UserAgent == "" {
			entry.UserAgent = userAgent
		}
	}
}

// ConsoleLogger writes entries as JSON lines to a writer. It is the fallback
// sink used when the database sink is unavailable, and the default sink in
// development.
type ConsoleLogger struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleLogger creates a console logger writing to out.
func NewConsoleLogger(out io.Writer) *ConsoleLogger {
	return &ConsoleLogger{out: out}
}

// Record writes the entry as one JSON line.
func (l *ConsoleLogger) Record(ctx context.Context, entry *Entry) error {
	Stamp(ctx, entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// Close is a no-op for the console logger.
func (l *ConsoleLogger) Close() error {
	return nil
}

// MultiLogger fans out entries to several sinks. A failing sink does not stop
// the others; the first error is returned so callers can surface it.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a fan-out logger.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Record appends the entry to every sink.
func (m *MultiLogger) Record(ctx context.Context, entry *Entry) error {
	Stamp(ctx, entry)

	var firstErr error
	for _, l := range m.loggers {
		if err := l.Record(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink.
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FailSafe wraps a logger so that sink failures are logged at WARN and
// swallowed instead of propagating to the caller.
type FailSafe struct {
	inner   Logger
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewFailSafe wraps inner with swallow-and-warn semantics.
func NewFailSafe(inner Logger, log *observability.Logger) *FailSafe {
	return &FailSafe{inner: inner, log: log}
}

// WithMetrics attaches audit write metrics.
func (f *FailSafe) WithMetrics(m *observability.Metrics) *FailSafe {
	f.metrics = m
	return f
}

// Record appends the entry, swallowing any sink error after logging it.
func (f *FailSafe) Record(ctx context.Context, entry *Entry) error {
	if err := f.inner.Record(ctx, entry); err != nil {
		f.log.WithError(err).
			WithField("action", string(entry.Action)).
			Warn("audit sink write failed; entry dropped")
		if f.metrics != nil {
			f.metrics.ObserveAuditWriteFailure()
		}
		return nil
	}
	if f.metrics != nil {
		f.metrics.ObserveAuditEntry(string(entry.Severity))
	}
	return nil
}

// Close closes the wrapped sink.
func (f *FailSafe) Close() error {
	return f.inner.Close()
}

// noOpLogger discards entries; used when no sink is configured.
type noOpLogger struct{}

func (noOpLogger) Record(ctx context.Context, entry *Entry) error { return nil }
func (noOpLogger) Close() error                                   { return nil }

// NopLogger returns a logger that discards all entries.
func NopLogger() Logger {
	return noOpLogger{}
}
