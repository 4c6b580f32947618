// Package migrations holds the store schema migrations applied by
// `silvasync migrate`.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file of this directory.
//
//go:embed *.sql
var FS embed.FS
