package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabro/accesscore/pkg/observability"
)

// failingLogger always fails on Record.
type failingLogger struct {
	err   error
	calls int
}

func (f *failingLogger) Record(ctx context.Context, entry *Entry) error {
	f.calls++
	return f.err
}

func (f *failingLogger) Close() error { return nil }

// captureLogger keeps recorded entries in memory.
type captureLogger struct {
	entries []*Entry
}

func (c *captureLogger) Record(ctx context.Context, entry *Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureLogger) Close() error { return nil }

func TestStampFillsMissingFields(t *testing.T) {
	ctx := observability.WithRequestID(context.Background(), "req-123")
	ctx = observability.WithClientInfo(ctx, "203.0.113.7", "curl/8.5")

	entry := &Entry{Action: ActionFreeze}
	Stamp(ctx, entry)

	assert.NotEmpty(t, entry.EntryID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, SeverityInfo, entry.Severity)
	assert.Equal(t, "req-123", entry.RequestID)
	assert.Equal(t, "203.0.113.7", entry.IPAddress)
	assert.Equal(t, "curl/8.5", entry.UserAgent)
}

func TestStampPreservesCallerValues(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := &Entry{
		EntryID:   "fixed-id",
		Timestamp: ts,
		Severity:  SeverityCritical,
		RequestID: "caller-req",
		IPAddress: "198.51.100.9",
		UserAgent: "cli/1.0",
		Action:    ActionAccessDenied,
	}
	ctx := observability.WithClientInfo(context.Background(), "203.0.113.7", "curl/8.5")
	Stamp(ctx, entry)

	assert.Equal(t, "fixed-id", entry.EntryID)
	assert.Equal(t, ts, entry.Timestamp)
	assert.Equal(t, SeverityCritical, entry.Severity)
	assert.Equal(t, "caller-req", entry.RequestID)
	assert.Equal(t, "198.51.100.9", entry.IPAddress)
	assert.Equal(t, "cli/1.0", entry.UserAgent)
}

func TestConsoleLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf)

	actorID := int64(42)
	require.NoError(t, logger.Record(context.Background(), &Entry{
		ActorID:  &actorID,
		Action:   ActionDelegationCreate,
		Severity: SeverityInfo,
	}))
	require.NoError(t, logger.Record(context.Background(), &Entry{
		Action: ActionAccessDenied,
	}))
	require.NoError(t, logger.Close())

	scanner := bufio.NewScanner(&buf)
	var lines []Entry
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		lines = append(lines, e)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, ActionDelegationCreate, lines[0].Action)
	require.NotNil(t, lines[0].ActorID)
	assert.Equal(t, int64(42), *lines[0].ActorID)
	assert.NotEmpty(t, lines[0].EntryID)

	assert.Equal(t, ActionAccessDenied, lines[1].Action)
	assert.NotEqual(t, lines[0].EntryID, lines[1].EntryID)
}

func TestMultiLoggerFansOut(t *testing.T) {
	first := &captureLogger{}
	second := &captureLogger{}
	logger := NewMultiLogger(first, second)

	require.NoError(t, logger.Record(context.Background(), &Entry{Action: ActionMemberAdd}))

	require.Len(t, first.entries, 1)
	require.Len(t, second.entries, 1)
	assert.Equal(t, ActionMemberAdd, first.entries[0].Action)
}

func TestMultiLoggerReturnsFirstErrorButContinues(t *testing.T) {
	sinkErr := errors.New("disk full")
	failing := &failingLogger{err: sinkErr}
	healthy := &captureLogger{}
	logger := NewMultiLogger(failing, healthy)

	err := logger.Record(context.Background(), &Entry{Action: ActionUnfreeze})

	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, healthy.entries, 1)
}

func TestFailSafeSwallowsSinkErrors(t *testing.T) {
	var logBuf bytes.Buffer
	obs := observability.NewLogger(observability.WarnLevel, &logBuf)

	failing := &failingLogger{err: errors.New("connection refused")}
	logger := NewFailSafe(failing, obs)

	err := logger.Record(context.Background(), &Entry{Action: ActionAccessGranted})

	assert.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Contains(t, logBuf.String(), "audit sink write failed")
	assert.Contains(t, logBuf.String(), "connection refused")
}

func TestFailSafePassesThroughSuccess(t *testing.T) {
	var logBuf bytes.Buffer
	obs := observability.NewLogger(observability.WarnLevel, &logBuf)

	inner := &captureLogger{}
	logger := NewFailSafe(inner, obs)

	require.NoError(t, logger.Record(context.Background(), &Entry{Action: ActionInviteCreate}))

	assert.Len(t, inner.entries, 1)
	assert.Empty(t, logBuf.String())
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NopLogger()

	assert.NoError(t, logger.Record(context.Background(), &Entry{Action: ActionAccessGranted}))
	assert.NoError(t, logger.Close())
}
