// Package migrations embeds the SQL schema migrations applied at startup.
package migrations

import "embed"

// FS holds all .up.sql migration files, applied in sorted filename order.
//
//go:embed *.up.sql
var FS embed.FS
