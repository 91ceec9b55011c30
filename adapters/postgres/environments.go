package postgres

import (
	"regexp"

	"gopivot/internal/errors"
	"gopivot/ports"

	"github.com/jmoiron/sqlx"
)

var envPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Environments serves every environment from one database, one schema per
// environment. Databases without schemas share unqualified tables.
type Environments struct {
	db        *sqlx.DB
	fetchSize int
}

// NewEnvironments creates the environment resolver for db.
func NewEnvironments(db *sqlx.DB, fetchSize int) *Environments {
	return &Environments{db: db, fetchSize: fetchSize}
}

var _ ports.Environments = (*Environments)(nil)

// Schema returns the schema holding the tables of env.
func (e *Environments) Schema(env string) (string, error) {
	if !envPattern.MatchString(env) {
		return "", errors.InvalidInput("invalid environment " + env)
	}
	if !isPostgres(e.db) {
		return "", nil
	}
	return SchemaForEnv(env), nil
}

// CubeSource returns the cube repository of env.
func (e *Environments) CubeSource(env string) (ports.CubeSource, error) {
	schema, err := e.Schema(env)
	if err != nil {
		return nil, err
	}
	return NewCubeRepository(e.db, schema, e.fetchSize), nil
}

// UsageLogger returns the usage repository of env.
func (e *Environments) UsageLogger(env string) (ports.UsageLogger, error) {
	schema, err := e.Schema(env)
	if err != nil {
		return nil, err
	}
	return NewUsageRepository(e.db, schema), nil
}
