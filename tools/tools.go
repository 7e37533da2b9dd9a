//go:build tools

package tools

// Pinned CLIs. goose runs migrations from
// internal/adapters/postgres/migrations by hand; oapi-codegen is kept at the
// version matching the runtime used for parameter binding.
import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
	_ "github.com/pressly/goose/v3/cmd/goose"
)
