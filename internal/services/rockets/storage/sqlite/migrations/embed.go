package migrations

import "embed"

// FS contains embedded SQLite migrations for rocket storage.
//
//go:embed *.sql
var FS embed.FS
