// Package database provides the SQLite connection behind the run journal.
//
// It opens the file with WAL mode and a busy timeout, limits the pool to the
// single writer SQLite supports, and applies embedded migrations in version
// order. Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
//
// The database records history only. Nothing read back from it drives the
// vehicle, so a lost or deleted file never changes behaviour after a restart.
package database
