// Package storage provides the PostgreSQL connection helper and the
// schema migration runner shared by the domain packages. Each domain
// package declares its own ordered migration list; the runner tracks
// applied versions per package in the schema_migrations table.
package storage
