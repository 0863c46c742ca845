// Package db embeds the goose migrations so the binary can migrate without
// shipping the SQL files alongside it.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"
