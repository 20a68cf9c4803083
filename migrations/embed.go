// Package migrations embeds the SQL migrations of the waypoint store and
// the audit log so the binary runs them without the files on disk.
package migrations

import "embed"

// FS holds every *.sql migration at its root. Pass it to
// database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
