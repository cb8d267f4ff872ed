// Package testdb opens migrated databases for tests.
//
// SQLite databases are created in the test's temp directory and always
// available. PostgreSQL is used only when SCRY_TEST_DB_URL (or DATABASE_URL)
// points at a reachable server; otherwise those tests are skipped. Tests
// that share a PostgreSQL database isolate themselves with WithTx.
package testdb
