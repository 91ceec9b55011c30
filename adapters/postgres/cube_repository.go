package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gopivot/domain/core"
	"gopivot/domain/dimension"
	"gopivot/domain/pivot"
	"gopivot/domain/selection"
	"gopivot/internal"
	"gopivot/internal/errors"
	"gopivot/ports"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// DefaultFetchSize is the number of fact rows fetched per round trip.
const DefaultFetchSize = 2048

// treeRow is one record of a cube's tree table.
type treeRow struct {
	Dimension   string         `db:"dim"`
	Stage       string         `db:"stage"`
	Key         string         `db:"key"`
	ParentKey   sql.NullString `db:"parent_key"`
	Ref         sql.NullString `db:"ref"`
	SurrogateID sql.NullInt64  `db:"surrogate_id"`
}

// metaRow is one (ref, tag, lang, data) metadata triple.
type metaRow struct {
	Ref  string         `db:"ref"`
	Tag  string         `db:"tag"`
	Lang sql.NullString `db:"lang"`
	Data sql.NullString `db:"data"`
}

// CubeRepositoryImpl reads cube trees, metadata and facts from SQL tables.
type CubeRepositoryImpl struct {
	db        *sqlx.DB
	schema    string
	fetchSize int
	sq        squirrel.StatementBuilderType
	logger    *internal.Logger
}

// NewCubeRepository creates a repository over the tables of schema. An empty
// schema uses unqualified table names.
func NewCubeRepository(db *sqlx.DB, schema string, fetchSize int) *CubeRepositoryImpl {
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}
	return &CubeRepositoryImpl{
		db:        db,
		schema:    schema,
		fetchSize: fetchSize,
		sq:        statementBuilder(db),
		logger:    internal.NewComponentLogger("CubeRepository"),
	}
}

var _ ports.CubeSource = (*CubeRepositoryImpl)(nil)

// StreamTree walks every dimension tree breadth first.
func (r *CubeRepositoryImpl) StreamTree(ctx context.Context, cube core.CubeParts, fn func(dimension.TreeRecord) error) error {
	table := qualify(r.schema, cube.TreeTable())
	query := fmt.Sprintf(`
		WITH RECURSIVE bfs (dim, stage, key, parent_key, ref, surrogate_id, depth) AS (
			SELECT dim, stage, key, parent_key, ref, surrogate_id, 0
			FROM %[1]s
			WHERE parent_key IS NULL
			UNION ALL
			SELECT t.dim, t.stage, t.key, t.parent_key, t.ref, t.surrogate_id, bfs.depth + 1
			FROM %[1]s t
			JOIN bfs ON t.dim = bfs.dim AND t.parent_key = bfs.key
		)
		SELECT dim, stage, key, parent_key, ref, surrogate_id
		FROM bfs
		ORDER BY depth, dim, surrogate_id, key
	`, table)

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to read tree table %s", table), err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var row treeRow
		if err := rows.StructScan(&row); err != nil {
			return errors.DatabaseError("failed to scan tree row", err)
		}
		record := dimension.TreeRecord{
			Dimension: row.Dimension,
			Level:     row.Stage,
			NodeID:    row.Key,
			ParentID:  row.ParentKey.String,
			Ref:       row.Ref.String,
		}
		if row.SurrogateID.Valid {
			id := int(row.SurrogateID.Int64)
			record.SurrogateID = &id
		}
		if err := fn(record); err != nil {
			return err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return errors.DatabaseError("failed to iterate tree rows", err)
	}
	r.logger.Debug("Streamed %d tree records from %s", count, table)
	return nil
}

// LoadMetadata returns every property of the meta table grouped by reference.
func (r *CubeRepositoryImpl) LoadMetadata(ctx context.Context, cube core.CubeParts) (map[string][]dimension.Property, error) {
	query, args, err := r.sq.Select("ref", "tag", "lang", "data").
		From(qualify(r.schema, cube.MetaTable())).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build metadata query")
	}

	var rows []metaRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to read metadata", err)
	}

	byRef := make(map[string][]dimension.Property)
	for _, row := range rows {
		byRef[row.Ref] = append(byRef[row.Ref], dimension.Property{
			Predicate: row.Tag,
			Language:  row.Lang.String,
			Value:     row.Data.String,
		})
	}
	return byRef, nil
}

// LoadCubeName reads the name of the reference that "is" the cube's fact.
func (r *CubeRepositoryImpl) LoadCubeName(ctx context.Context, cube core.CubeParts) (dimension.Label, error) {
	table := qualify(r.schema, cube.MetaTable())
	query, args, err := r.sq.Select("lang", "data").
		From(table).
		Where(squirrel.Eq{"tag": dimension.PredicateName}).
		Where("ref IN (SELECT ref FROM "+table+" WHERE tag = ? AND data = ?)", "is", cube.Fact).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build cube name query")
	}

	var rows []metaRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to read cube name", err)
	}
	name := dimension.Label{}
	for _, row := range rows {
		name.Set(row.Lang.String, row.Data.String)
	}
	return name, nil
}

// FactColumns lists the dimensions of the fact table from its <dim>_key columns.
func (r *CubeRepositoryImpl) FactColumns(ctx context.Context, cube core.CubeParts) ([]string, error) {
	table := qualify(r.schema, cube.FactTable())
	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE %s", table, alwaysFalse))
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to inspect fact table %s", table), err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.DatabaseError("failed to read fact columns", err)
	}
	var columns []string
	for _, name := range names {
		name = strings.ToLower(name)
		if strings.HasSuffix(name, "_key") {
			r.logger.Trace("Column '%s' detected in fact table", name)
			columns = append(columns, strings.TrimSuffix(name, "_key"))
		}
	}
	if len(columns) == 0 {
		return nil, errors.CubeNotFound(cube.String())
	}
	return columns, nil
}

// LoadFacts reads the values whose keys lie in the admissible node sets.
func (r *CubeRepositoryImpl) LoadFacts(ctx context.Context, cube core.CubeParts, columns []string, catalog *dimension.Catalog, admissible *selection.AdmissibleNodes) (*pivot.Dataset, error) {
	query, args, err := r.buildFactQuery(cube, columns, admissible)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Loading subset of facts using: %s", query)

	ds := pivot.NewDataset(columns)
	scan := func(rows *sqlx.Rows) (int, error) {
		return r.scanFacts(rows, columns, catalog, ds)
	}
	if isPostgres(r.db) {
		err = r.queryWithCursor(ctx, query, args, scan)
	} else {
		err = r.query(ctx, query, args, scan)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Loaded %d facts from %s", ds.Len(), cube.FactTable())
	return ds, nil
}

func (r *CubeRepositoryImpl) buildFactQuery(cube core.CubeParts, columns []string, admissible *selection.AdmissibleNodes) (string, []interface{}, error) {
	selected := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		selected = append(selected, keyColumn(c))
	}
	selected = append(selected, "val")

	q := r.sq.Select(selected...).From(qualify(r.schema, cube.FactTable()))
	if admissible == nil || admissible.IsEmpty() {
		q = q.Where(alwaysFalse)
	} else {
		present := make(map[string]bool, len(columns))
		for _, c := range columns {
			present[c] = true
		}
		for _, dim := range admissible.Dimensions() {
			if !present[dim] {
				r.logger.Debug("Dimension %s has no column in %s", dim, cube.FactTable())
				continue
			}
			q = q.Where(squirrel.Eq{keyColumn(dim): admissible.IDs(dim)})
		}
	}
	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to build fact query")
	}
	return query, args, nil
}

func (r *CubeRepositoryImpl) query(ctx context.Context, query string, args []interface{}, scan func(*sqlx.Rows) (int, error)) error {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return errors.DatabaseError("failed to query facts", err)
	}
	defer rows.Close()
	if _, err := scan(rows); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return errors.DatabaseError("failed to iterate facts", err)
	}
	return nil
}

// queryWithCursor reads the fact rows through a server side cursor, one
// fetch window at a time.
func (r *CubeRepositoryImpl) queryWithCursor(ctx context.Context, query string, args []interface{}, scan func(*sqlx.Rows) (int, error)) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return errors.DatabaseError("failed to begin fact transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DECLARE fact_cursor NO SCROLL CURSOR FOR "+query, args...); err != nil {
		return errors.DatabaseError("failed to open fact cursor", err)
	}
	fetch := fmt.Sprintf("FETCH FORWARD %d FROM fact_cursor", r.fetchSize)
	err = readWindows(r.fetchSize, func() (*sqlx.Rows, error) {
		return tx.QueryxContext(ctx, fetch)
	}, scan)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "CLOSE fact_cursor"); err != nil {
		return errors.DatabaseError("failed to close fact cursor", err)
	}
	return tx.Commit()
}

// readWindows scans fetch windows until one comes back short. Scan errors
// keep their code; driver errors become database errors.
func readWindows(size int, fetch func() (*sqlx.Rows, error), scan func(*sqlx.Rows) (int, error)) error {
	for {
		rows, err := fetch()
		if err != nil {
			return errors.DatabaseError("failed to fetch facts", err)
		}
		n, err := scan(rows)
		if err != nil {
			rows.Close()
			return err
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return errors.DatabaseError("failed to read fact window", err)
		}
		if n < size {
			return nil
		}
	}
}

// scanFacts puts every row into ds and returns the number of rows read.
func (r *CubeRepositoryImpl) scanFacts(rows *sqlx.Rows, columns []string, catalog *dimension.Catalog, ds *pivot.Dataset) (int, error) {
	keys := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns)+1)
	for i := range keys {
		dest[i] = &keys[i]
	}
	var value sql.NullString
	dest[len(columns)] = &value

	n := 0
	for rows.Next() {
		n++
		if err := rows.Scan(dest...); err != nil {
			return n, errors.DatabaseError("failed to scan fact row", err)
		}
		if !value.Valid {
			continue
		}
		nodes := make([]*dimension.Node, len(columns))
		for i, dim := range columns {
			node, err := catalog.Node(dim, keys[i].String)
			if err != nil {
				return n, errors.Integrity("fact row references an unknown node", err)
			}
			nodes[i] = node
		}
		if err := ds.Put(value.String, nodes); err != nil {
			return n, errors.Integrity("fact row does not match the fact columns", err)
		}
	}
	return n, nil
}
