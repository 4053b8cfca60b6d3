// Package tracking implements the shot data lookups on a local SQLite
// database and keeps the blast history ledger.
//
// The schema is embedded and versioned; a database created by a different
// schema version is rejected with ErrSchemaMismatch. Writes retry with
// backoff while another blast process holds the database lock.
package tracking
