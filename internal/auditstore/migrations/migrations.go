// Package migrations embeds the audit store's Postgres schema
// migrations, grounded on pkg/store/metadata/postgres/migrations'
// go:embed-plus-iofs.New wiring for golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
