package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaEmbedded(t *testing.T) {
	require.NotEmpty(t, schemaSQL, "schema must be embedded")

	for _, table := range []string{
		"accounts",
		"wallet_balances",
		"withdrawals",
		"investments",
		"notifications",
		"idempotency_keys",
	} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table, "table %s", table)
	}
}

func TestSchemaStatementsAreIdempotent(t *testing.T) {
	// EnsureSchema runs on every startup, so nothing in the DDL may fail
	// when the objects already exist.
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if !strings.Contains(stmt, "CREATE TABLE") && !strings.Contains(stmt, "CREATE INDEX") {
			continue
		}
		assert.Contains(t, stmt, "IF NOT EXISTS", "statement: %.60s", strings.TrimSpace(stmt))
	}
}
