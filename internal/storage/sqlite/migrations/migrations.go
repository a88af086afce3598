// Package migrations embeds the SQL migration files for the SQLite stores.
// The event journal and the view tables live in separate database files, so
// each gets its own migration root.
package migrations

import "embed"

// EventsFS holds migrations for the event journal database.
//
//go:embed events/*.sql
var EventsFS embed.FS

// ViewsFS holds migrations for the projection views database.
//
//go:embed views/*.sql
var ViewsFS embed.FS
