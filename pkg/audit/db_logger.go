package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DBLogger persists audit entries to PostgreSQL. The table is append-only:
// this type exposes no update or single-row delete path, only inserts,
// reads, and the retention sweep.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger.
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_logs table: %w", err)
	}
	return logger, nil
}

// ensureTable creates the audit_logs table if it doesn't exist.
func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		entry_id UUID NOT NULL UNIQUE,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		actor_id BIGINT,
		organization_id BIGINT,
		action VARCHAR(100) NOT NULL,
		resource_type VARCHAR(50),
		resource_id VARCHAR(255),
		description TEXT,
		severity VARCHAR(20) NOT NULL,
		ip_address VARCHAR(45),
		user_agent TEXT,
		request_id VARCHAR(100),
		metadata JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_id ON audit_logs(actor_id);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_organization_id ON audit_logs(organization_id);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_severity ON audit_logs(severity);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id);
	`

	_, err := l.db.Exec(query)
	return err
}

// Record inserts one entry.
func (l *DBLogger) Record(ctx context.Context, entry *Entry) error {
	Stamp(ctx, entry)

	var metadataJSON []byte
	var err error
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (
			entry_id, timestamp, actor_id, organization_id,
			action, resource_type, resource_id, description, severity,
			ip_address, user_agent, request_id, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err = l.db.QueryRowContext(ctx, query,
		entry.EntryID, entry.Timestamp, entry.ActorID, entry.OrganizationID,
		entry.Action, entry.ResourceType, entry.ResourceID, entry.Description, entry.Severity,
		entry.IPAddress, entry.UserAgent, entry.RequestID, metadataJSON,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Search returns entries matching the filter, newest first.
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	query := `
		SELECT id, entry_id, timestamp, actor_id, organization_id,
		       action, resource_type, resource_id, description, severity,
		       ip_address, user_agent, request_id, metadata
		FROM audit_logs
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *filter.StartTime)
		argCount++
	}
	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argCount)
		args = append(args, *filter.EndTime)
		argCount++
	}
	if filter.ActorID != nil {
		query += fmt.Sprintf(" AND actor_id = $%d", argCount)
		args = append(args, *filter.ActorID)
		argCount++
	}
	if filter.OrganizationID != nil {
		query += fmt.Sprintf(" AND organization_id = $%d", argCount)
		args = append(args, *filter.OrganizationID)
		argCount++
	}
	if len(filter.Actions) > 0 {
		actions := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			actions[i] = string(a)
		}
		query += fmt.Sprintf(" AND action = ANY($%d)", argCount)
		args = append(args, pq.Array(actions))
		argCount++
	}
	if filter.Severity != nil {
		query += fmt.Sprintf(" AND severity = $%d", argCount)
		args = append(args, string(*filter.Severity))
		argCount++
	}
	if filter.ResourceType != "" {
		query += fmt.Sprintf(" AND resource_type = $%d", argCount)
		args = append(args, string(filter.ResourceType))
		argCount++
	}
	if filter.ResourceID != "" {
		query += fmt.Sprintf(" AND resource_id = $%d", argCount)
		args = append(args, filter.ResourceID)
		argCount++
	}
	if filter.IPAddress != "" {
		query += fmt.Sprintf(" AND ip_address = $%d", argCount)
		args = append(args, filter.IPAddress)
		argCount++
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}
	return entries, nil
}

// GetStats aggregates entry counts in the given time range.
func (l *DBLogger) GetStats(ctx context.Context, startTime, endTime *time.Time) (*Stats, error) {
	stats := &Stats{
		EntriesByAction:   make(map[Action]int64),
		EntriesBySeverity: make(map[Severity]int64),
	}

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if startTime != nil {
		whereClause += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *startTime)
		argCount++
	}
	if endTime != nil {
		whereClause += fmt.Sprintf(" AND timestamp <= $%d", argCount)
		args = append(args, *endTime)
	}

	err := l.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", whereClause), args...,
	).Scan(&stats.TotalEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	rows, err := l.db.QueryContext(ctx,
		fmt.Sprintf("SELECT action, COUNT(*) FROM audit_logs %s GROUP BY action", whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries by action: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var action Action
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		stats.EntriesByAction[action] = count
	}

	rows, err = l.db.QueryContext(ctx,
		fmt.Sprintf("SELECT severity, COUNT(*) FROM audit_logs %s GROUP BY severity", whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries by severity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var severity Severity
		var count int64
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		stats.EntriesBySeverity[severity] = count
	}

	err = l.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(DISTINCT actor_id) FROM audit_logs %s AND actor_id IS NOT NULL", whereClause), args...,
	).Scan(&stats.UniqueActors)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique actors: %w", err)
	}

	deniedClause := whereClause + " AND action = 'access.denied'"
	err = l.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", deniedClause), args...,
	).Scan(&stats.AccessDenials)
	if err != nil {
		return nil, fmt.Errorf("failed to count access denials: %w", err)
	}

	return stats, nil
}

// PurgeOlderThan deletes entries whose timestamp predates cutoff and returns
// the number removed. Used only by the retention sweep.
func (l *DBLogger) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := l.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the logger. The shared database handle stays open.
func (l *DBLogger) Close() error {
	return nil
}

// scanEntry reads one row into an Entry.
func scanEntry(scanner interface {
	Scan(dest ...interface{}) error
}) (*Entry, error) {
	entry := &Entry{}
	var actorID, orgID sql.NullInt64
	var resourceType, resourceID, description sql.NullString
	var ipAddress, userAgent, requestID sql.NullString
	var metadataJSON []byte

	err := scanner.Scan(
		&entry.ID, &entry.EntryID, &entry.Timestamp, &actorID, &orgID,
		&entry.Action, &resourceType, &resourceID, &description, &entry.Severity,
		&ipAddress, &userAgent, &requestID, &metadataJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	if actorID.Valid {
		id := actorID.Int64
		entry.ActorID = &id
	}
	if orgID.Valid {
		id := orgID.Int64
		entry.OrganizationID = &id
	}
	entry.ResourceType = ResourceType(resourceType.String)
	entry.ResourceID = resourceID.String
	entry.Description = description.String
	entry.IPAddress = ipAddress.String
	entry.UserAgent = userAgent.String
	entry.RequestID = requestID.String

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return entry, nil
}
