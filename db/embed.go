// Package db embeds the schema migrations so binaries carry their own schema.
package db

import "embed"

// Migrations holds one directory of golang-migrate files per SQL dialect:
// migrations/sqlite and migrations/postgres.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var Migrations embed.FS
