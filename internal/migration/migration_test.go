package migration

import (
	"context"
	"testing"

	"gopivot/domain/core"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	runner := NewRunner("")
	assert.Equal(t, "1.0.0", runner.Version())

	require.NoError(t, runner.Run(context.Background(), db))
	require.NoError(t, runner.Run(context.Background(), db))

	var tables []string
	require.NoError(t, db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"))
	assert.Equal(t, []string{"user_log", "user_log_selection"}, tables)
}

func TestCreateCubeTables(t *testing.T) {
	db := newTestDB(t)
	cube, err := core.ParseCubeID("health.sotkanet.population")
	require.NoError(t, err)

	require.NoError(t, NewRunner("").CreateCubeTables(context.Background(), db, cube, []string{"region", "time"}))

	rows, err := db.Queryx("SELECT * FROM " + cube.FactTable() + " WHERE 1 = 0")
	require.NoError(t, err)
	columns, err := rows.Columns()
	require.NoError(t, err)
	rows.Close()
	assert.Equal(t, []string{"region_key", "time_key", "val"}, columns)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+cube.TreeTable()))
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+cube.MetaTable()))
}

func TestQualifiedTables(t *testing.T) {
	assert.Equal(t, "user_log", NewRunner("").table("user_log"))
	assert.Equal(t, "amor_prod.user_log", NewRunner("amor_prod").table("user_log"))
}
