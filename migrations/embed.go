// Package migrations embeds the goose SQL migrations so the server binary
// and the integration tests apply exactly the same schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
