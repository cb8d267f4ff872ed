// Package sqlstore provides SQL implementations of the storage interfaces
// defined in the internal/store package. The same store types run against
// PostgreSQL (through the pgx stdlib driver) and SQLite (through the pure Go
// modernc driver); queries are written with '?' placeholders and rebound for
// the active dialect.
//
// Schema migrations are embedded per dialect and applied with goose.
package sqlstore
