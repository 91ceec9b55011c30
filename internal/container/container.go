package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"gopivot/adapters/excel"
	"gopivot/adapters/postgres"
	"gopivot/app"
	"gopivot/internal/config"
	"gopivot/internal/errors"
	"gopivot/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	Environments *postgres.Environments
	Cubes        *app.CubeService
	Exporter     *excel.Exporter
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// Open connects to the configured database and builds the services on top of it.
func (c *Container) Open(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if c.Config.Database.Driver == "sqlite" {
		// a single connection keeps in-memory databases alive
		db.SetMaxOpenConns(1)
	}
	return c.InitWithDatabase(db)
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("failed to ping database", err)
	}

	c.Environments = postgres.NewEnvironments(db, c.Config.Database.FetchSize)
	c.Cubes = app.NewCubeService(c.Environments, app.CubeServiceOptions{
		QueryTimeout:    c.Config.Database.QueryTimeout,
		UsageLogEnabled: c.Config.Pivot.UsageLogEnabled,
	})
	c.Exporter = excel.NewExporter()

	log.Printf("[Container] Initialized with %s database, environment %s", db.DriverName(), c.Config.Pivot.Env)
	return nil
}

// Migrate creates the usage log tables of env.
func (c *Container) Migrate(ctx context.Context, env string) error {
	schema, err := c.Environments.Schema(env)
	if err != nil {
		return err
	}
	return migration.NewRunner(schema).Run(ctx, c.DB)
}

// Close waits for pending usage log writes and closes the database.
func (c *Container) Close() error {
	if c.Cubes != nil {
		c.Cubes.Wait()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
