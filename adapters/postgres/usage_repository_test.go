package postgres

import (
	"context"
	"testing"

	"gopivot/domain/core"
	"gopivot/internal/migration"
	"gopivot/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDisplayEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, migration.NewRunner("").Run(ctx, db))

	cube, err := core.ParseCubeID("health.sotkanet.population.2020")
	require.NoError(t, err)
	repo := NewUsageRepository(db, "")

	err = repo.LogDisplayEvent(ctx, ports.DisplayEvent{
		Env:        "test",
		Cube:       cube,
		Host:       "127.0.0.1",
		IPAddr:     "10.0.0.1",
		SessionID:  "s-1",
		View:       "cube",
		FilterZero: true,
		Selections: []ports.UsageSelection{
			{Dimension: "region", Node: "finland", Usage: ports.UsageRow},
			{Dimension: "time", Node: "2020", Usage: ports.UsageColumn},
			{Dimension: "measure", Node: "all", Usage: ports.UsageFilter},
		},
	})
	require.NoError(t, err)

	var logged struct {
		LogID       string `db:"log_id"`
		Fact        string `db:"fact"`
		RunID       string `db:"run_id"`
		FilterZero  string `db:"filter_zero"`
		FilterEmpty string `db:"filter_empty"`
	}
	require.NoError(t, db.Get(&logged, "SELECT log_id, fact, run_id, filter_zero, filter_empty FROM user_log"))
	assert.NotEmpty(t, logged.LogID)
	assert.Equal(t, "population", logged.Fact)
	assert.Equal(t, "2020", logged.RunID)
	assert.Equal(t, "t", logged.FilterZero)
	assert.Equal(t, "f", logged.FilterEmpty)

	var usages []string
	require.NoError(t, db.Select(&usages, "SELECT usage FROM user_log_selection WHERE log_id = ? ORDER BY node", logged.LogID))
	assert.Equal(t, []string{"c", "f", "r"}, usages)
}

func TestLogDisplayEventWithoutSchema(t *testing.T) {
	db := newTestDB(t)
	repo := NewUsageRepository(db, "")

	err := repo.LogDisplayEvent(context.Background(), ports.DisplayEvent{ID: core.NewID()})
	assert.Error(t, err)
}

func TestSchemaForEnv(t *testing.T) {
	assert.Equal(t, "amor_prod", SchemaForEnv("prod"))
	assert.Equal(t, "amor_test", SchemaForEnv("TEST"))
	assert.Equal(t, "amor_test.user_log", qualify(SchemaForEnv("test"), "user_log"))
	assert.Equal(t, "user_log", qualify("", "user_log"))
}
