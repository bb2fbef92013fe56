// Package migrations embeds the SQL schema applied at startup.
package migrations

import "embed"

// FS holds the golang-migrate files, named NNNN_title.{up,down}.sql.
//
//go:embed *.sql
var FS embed.FS
