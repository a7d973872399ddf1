// Package migrations embeds the goose SQL migrations so the migrate binary
// carries them.
package migrations

import "embed"

// FS holds the postgres migrations under the "postgres" directory
//
//go:embed postgres/*.sql
var FS embed.FS

// Dir is the directory inside FS goose reads from
const Dir = "postgres"
