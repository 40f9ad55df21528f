package db

import (
	_ "embed"
	"strings"
)

//go:embed schema.sql
var Schema string

//go:embed schema.postgres.sql
var PostgresSchema string

// statements splits a schema file into its individual statements.
func statements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
