// Package migrations embeds the SQL schema migrations shipped with the bot.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
