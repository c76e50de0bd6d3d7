// Package migrations holds the SQL schema for the pgvector backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
