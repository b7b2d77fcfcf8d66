// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are named {version}_{description}.sql and read from an
// fs.FS, normally an embedded directory. Applied versions are tracked in the
// schema_migrations table; each file runs in its own transaction together
// with its version record, so a failed file leaves no trace.
//
// Statements are split on semicolons, except inside CREATE TRIGGER ... END
// blocks whose bodies contain their own statement terminators.
package migration
