// Package db embeds the SQL schema shipped with the binary. The bot server
// and cmd/menu-ingest both apply it on startup, so pointing either at a
// fresh database needs no separate migration step.
package db

import _ "embed"

// Schema holds the idempotent DDL for the menu catalog and the order
// archive.
//
//go:embed migrations/001_schema.sql
var Schema string
