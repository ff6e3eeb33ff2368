// Package database provides the TimescaleDB connection pool used by the
// optional quote mirror.
//
// The CSV store stays the system of record; the database only receives a
// copy of each appended batch.
package database
