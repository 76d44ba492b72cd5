package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDBLogger(t *testing.T) (*DBLogger, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	logger, err := NewDBLogger(db)
	require.NoError(t, err)

	return logger, mock, func() { db.Close() }
}

var entryColumns = []string{
	"id", "entry_id", "timestamp", "actor_id", "organization_id",
	"action", "resource_type", "resource_id", "description", "severity",
	"ip_address", "user_agent", "request_id", "metadata",
}

func TestNewDBLoggerRequiresConnection(t *testing.T) {
	_, err := NewDBLogger(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection is required")
}

func TestDBLoggerRecord(t *testing.T) {
	logger, mock, cleanup := newMockDBLogger(t)
	defer cleanup()

	actorID := int64(7)
	orgID := int64(3)
	entry := &Entry{
		ActorID:        &actorID,
		OrganizationID: &orgID,
		Action:         ActionAccessDenied,
		ResourceType:   ResourceCapability,
		ResourceID:     "VIEW_PROJECT",
		Severity:       SeverityCritical,
		Metadata:       map[string]interface{}{"reason": "PERMISSION_NOT_GRANTED"},
	}

	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), actorID, orgID,
			ActionAccessDenied, ResourceCapability, "VIEW_PROJECT", "", SeverityCritical,
			"", "", "", []byte(`{"reason":"PERMISSION_NOT_GRANTED"}`),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))

	require.NoError(t, logger.Record(context.Background(), entry))

	assert.Equal(t, int64(101), entry.ID)
	assert.NotEmpty(t, entry.EntryID)
	assert.False(t, entry.Timestamp.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLoggerRecordInsertFailure(t *testing.T) {
	logger, mock, cleanup := newMockDBLogger(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnError(sql.ErrConnDone)

	err := logger.Record(context.Background(), &Entry{Action: ActionFreeze})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert audit entry")
}

func TestDBLoggerSearchByActorAndSeverity(t *testing.T) {
	logger, mock, cleanup := newMockDBLogger(t)
	defer cleanup()

	now := time.Now().UTC()
	actorID := int64(7)
	severity := SeverityCritical

	rows := sqlmock.NewRows(entryColumns).
		AddRow(int64(2), "entry-2", now, actorID, nil,
			"access.denied", "capability", "EDIT_PROJECT", nil, "CRITICAL",
			nil, nil, nil, []byte(`{"reason":"ACCOUNT_FROZEN"}`)).
		AddRow(int64(1), "entry-1", now.Add(-time.Hour), actorID, int64(3),
			"access.denied", "capability", "VIEW_PROJECT", nil, "CRITICAL",
			nil, nil, nil, nil)

	mock.ExpectQuery(`FROM audit_logs\s+WHERE 1=1 AND actor_id = \$1 AND severity = \$2 ORDER BY timestamp DESC LIMIT \$3`).
		WithArgs(actorID, "CRITICAL", 50).
		WillReturnRows(rows)

	entries, err := logger.Search(context.Background(), SearchFilter{
		ActorID:  &actorID,
		Severity: &severity,
		Limit:    50,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "entry-2", entries[0].EntryID)
	assert.Equal(t, ActionAccessDenied, entries[0].Action)
	require.NotNil(t, entries[0].ActorID)
	assert.Equal(t, actorID, *entries[0].ActorID)
	assert.Nil(t, entries[0].OrganizationID)
	assert.Equal(t, "ACCOUNT_FROZEN", entries[0].Metadata["reason"])

	require.NotNil(t, entries[1].OrganizationID)
	assert.Equal(t, int64(3), *entries[1].OrganizationID)
	assert.Nil(t, entries[1].Metadata)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLoggerSearchByActions(t *testing.T) {
	logger, mock, cleanup := newMockDBLogger(t)
	defer cleanup()

	mock.ExpectQuery(`FROM audit_logs\s+WHERE 1=1 AND action = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(entryColumns))

	entries, err := logger.Search(context.Background(), SearchFilter{
		Actions: []Action{ActionFreeze, ActionUnfreeze},
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLoggerSearchTimeWindow(t *testing.T) {
	logger, mock, cleanup := newMockDBLogger(t)
	defer cleanup()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM audit_logs\s+WHERE 1=1 AND timestamp >= \$1 AND timestamp <= \$2`).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows(entryColumns))

	_, err := logger.Search(context.Background(), SearchFilter{
		StartTime: &start,
		EndTime:   &end,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLoggerGetStats(t *testing.T) {
	logger, mock, cleanup := newMockDBLogger(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(10)))
	mock.ExpectQuery(`SELECT action, COUNT\(\*\) FROM audit_logs .* GROUP BY action`).
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).
			AddRow("access.granted", int64(6)).
			AddRow("access.denied", int64(4)))
	mock.ExpectQuery(`SELECT severity, COUNT\(\*\) FROM audit_logs .* GROUP BY severity`).
		WillReturnRows(sqlmock.NewRows([]string{"severity", "count"}).
			AddRow("INFO", int64(6)).
			AddRow("CRITICAL", int64(4)))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT actor_id\) FROM audit_logs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs .* AND action = 'access\.denied'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	stats, err := logger.GetStats(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(10), stats.TotalEntries)
	assert.Equal(t, int64(6), stats.EntriesByAction[ActionAccessGranted])
	assert.Equal(t, int64(4), stats.EntriesByAction[ActionAccessDenied])
	assert.Equal(t, int64(6), stats.EntriesBySeverity[SeverityInfo])
	assert.Equal(t, int64(3), stats.UniqueActors)
	assert.Equal(t, int64(4), stats.AccessDenials)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDBLoggerPurgeOlderThan(t *testing.T) {
	logger, mock, cleanup := newMockDBLogger(t)
	defer cleanup()

	cutoff := time.Date(2023, 8, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM audit_logs WHERE timestamp < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	removed, err := logger.PurgeOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
