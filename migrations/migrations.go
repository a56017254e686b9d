// Package migrations embeds the SQL schema files. cmd/migrate applies
// them through golang-migrate's iofs driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Version is the schema version the application expects.
const Version = 1
