// Package migrations embeds the chat.db schema subset used by test fixtures.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
