package migration

import (
	"context"
	"fmt"

	"gopivot/domain/core"
	"gopivot/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	schema  string
}

// NewRunner creates a migration runner for the tables of schema. An empty
// schema creates unqualified tables.
func NewRunner(schema string) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		schema:  schema,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run creates the usage log schema.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSchema(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}

	if err := r.createUserLogTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create user_log table")
	}

	if err := r.createUserLogSelectionTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create user_log_selection table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

// CreateCubeTables creates the tree, meta and fact tables of a cube. The fact
// table gets one <dimension>_key column per entry of dimensions.
func (r *MigrationRunner) CreateCubeTables(ctx context.Context, db *sqlx.DB, cube core.CubeParts, dimensions []string) error {
	if err := r.createSchema(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			dim VARCHAR(255) NOT NULL,
			stage VARCHAR(255) NOT NULL,
			key VARCHAR(255) NOT NULL,
			parent_key VARCHAR(255),
			ref VARCHAR(255),
			surrogate_id INTEGER
		)
	`, r.table(cube.TreeTable()))); err != nil {
		return errors.Wrap(err, "failed to create tree table")
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			ref VARCHAR(255) NOT NULL,
			tag VARCHAR(255) NOT NULL,
			lang VARCHAR(16),
			data TEXT
		)
	`, r.table(cube.MetaTable()))); err != nil {
		return errors.Wrap(err, "failed to create meta table")
	}

	columns := ""
	for _, d := range dimensions {
		columns += fmt.Sprintf("%s_key VARCHAR(255) NOT NULL,\n", d)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s
			val VARCHAR(255)
		)
	`, r.table(cube.FactTable()), columns)); err != nil {
		return errors.Wrap(err, "failed to create fact table")
	}

	return nil
}

func (r *MigrationRunner) table(name string) string {
	if r.schema == "" {
		return name
	}
	return r.schema + "." + name
}

func (r *MigrationRunner) createSchema(ctx context.Context, db *sqlx.DB) error {
	if r.schema == "" {
		return nil
	}
	_, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+r.schema)
	return err
}

func (r *MigrationRunner) createUserLogTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			log_id VARCHAR(64) PRIMARY KEY,
			subject VARCHAR(255) NOT NULL,
			hydra VARCHAR(255) NOT NULL,
			fact VARCHAR(255) NOT NULL,
			run_id VARCHAR(255) NOT NULL,
			host VARCHAR(255),
			ip_addr VARCHAR(64),
			session_id VARCHAR(255),
			"view" VARCHAR(64),
			filter_zero BOOLEAN,
			filter_empty BOOLEAN,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, r.table("user_log")))
	return err
}

func (r *MigrationRunner) createUserLogSelectionTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			log_id VARCHAR(64) NOT NULL REFERENCES %s(log_id) ON DELETE CASCADE,
			dimension VARCHAR(255) NOT NULL,
			node VARCHAR(255) NOT NULL,
			usage CHAR(1) NOT NULL
		)
	`, r.table("user_log_selection"), r.table("user_log")))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_user_log_cube ON %s(subject, hydra, fact)", r.table("user_log")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_user_log_selection_log_id ON %s(log_id)", r.table("user_log_selection")),
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
