// Package sitescope holds assets embedded at the repository root, currently
// the goose SQL migrations applied by the migrate subcommand and the storage
// test harness.
package sitescope

import "embed"

// Migrations contains the goose SQL migration files.
//
//go:embed migrations/*.sql
var Migrations embed.FS
