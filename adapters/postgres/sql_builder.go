package postgres

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// alwaysFalse is the fact predicate for a selection that admits nothing.
const alwaysFalse = "1 = 0"

// statementBuilder returns a squirrel builder using the bind style of db's driver.
func statementBuilder(db *sqlx.DB) squirrel.StatementBuilderType {
	if sqlx.BindType(db.DriverName()) == sqlx.DOLLAR {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// qualify prefixes table with schema when one is set.
func qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

// SchemaForEnv returns the schema holding the cubes of an environment.
func SchemaForEnv(env string) string {
	return "amor_" + strings.ToLower(env)
}

func keyColumn(dimension string) string {
	return dimension + "_key"
}

func isPostgres(db *sqlx.DB) bool {
	return sqlx.BindType(db.DriverName()) == sqlx.DOLLAR
}
