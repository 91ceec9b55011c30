package postgres

import (
	"context"

	"gopivot/domain/core"
	"gopivot/internal/errors"
	"gopivot/ports"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// UsageRepositoryImpl writes display events to the user_log tables.
type UsageRepositoryImpl struct {
	db     *sqlx.DB
	schema string
	sq     squirrel.StatementBuilderType
}

// NewUsageRepository creates a usage log repository. An empty schema uses
// unqualified table names.
func NewUsageRepository(db *sqlx.DB, schema string) ports.UsageLogger {
	return &UsageRepositoryImpl{db: db, schema: schema, sq: statementBuilder(db)}
}

// LogDisplayEvent stores the event and its node selections in one transaction.
func (r *UsageRepositoryImpl) LogDisplayEvent(ctx context.Context, event ports.DisplayEvent) error {
	if event.ID.IsEmpty() {
		event.ID = core.NewID()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin usage log transaction", err)
	}
	defer tx.Rollback()

	query, args, err := r.sq.Insert(qualify(r.schema, "user_log")).
		Columns("log_id", "subject", "hydra", "fact", "run_id", "host", "ip_addr", "session_id", `"view"`, "filter_zero", "filter_empty").
		Values(event.ID.String(), event.Cube.Subject, event.Cube.Hydra, event.Cube.Fact, event.Cube.Run,
			event.Host, event.IPAddr, event.SessionID, event.View, flag(event.FilterZero), flag(event.FilterEmpty)).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build usage log insert")
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.DatabaseError("failed to insert usage log", err)
	}

	if len(event.Selections) > 0 {
		insert := r.sq.Insert(qualify(r.schema, "user_log_selection")).
			Columns("log_id", "dimension", "node", "usage")
		for _, s := range event.Selections {
			insert = insert.Values(event.ID.String(), s.Dimension, s.Node, string(s.Usage))
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return errors.Wrap(err, "failed to build usage selection insert")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.DatabaseError("failed to insert usage selections", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit usage log", err)
	}
	return nil
}

func flag(b bool) string {
	if b {
		return "t"
	}
	return "f"
}
