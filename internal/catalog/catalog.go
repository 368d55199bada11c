// Package catalog loads a read-only typed schema snapshot from a live
// PostgreSQL connection: the Catalog Loader of spec §4.1.
package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/schema"
)

// Querier is the subset of pgx connection/pool/tx behavior the loader
// needs, letting callers pass a pool, a single conn, or a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const columnsQuery = `
SELECT t.table_schema, t.table_name, c.column_name, c.udt_name, c.is_nullable, c.ordinal_position
FROM information_schema.tables t
JOIN information_schema.columns c
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE t.table_schema NOT IN ('pg_catalog', 'information_schema')
  AND t.table_type IN ('BASE TABLE', 'VIEW')
ORDER BY t.table_schema, t.table_name, c.ordinal_position`

type row struct {
	schema, table, column, udtName, isNullable string
}

// Load queries information_schema to materialize a typed schema snapshot,
// grouping rows by (schema, table) while preserving ordinal_position.
// A table's catalog key is its bare name (spec §3: Catalog is keyed by
// name, case-sensitive, unique) — callers that need schema-qualification
// must keep tables in one schema, the same constraint the type solver's
// two-part table.column resolution (§4.3.3) already assumes. A table name
// that appears in more than one schema is a fatal error.
func Load(ctx context.Context, q Querier, log *zap.Logger) (*schema.Catalog, error) {
	rows, err := q.Query(ctx, columnsQuery)
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.KindDatabase, err, "querying information_schema")
	}
	defer rows.Close()

	var scanned []row
	for rows.Next() {
		var r row
		var ordinal int
		if err := rows.Scan(&r.schema, &r.table, &r.column, &r.udtName, &r.isNullable, &ordinal); err != nil {
			return nil, diagnostic.Wrap(diagnostic.KindDatabase, err, "scanning information_schema row")
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, diagnostic.Wrap(diagnostic.KindDatabase, err, "iterating information_schema rows")
	}

	cat := schema.NewCatalog()
	type tableKey struct{ schema, table string }
	var tableOrder []tableKey
	tables := make(map[tableKey]*schema.Table)
	for _, r := range scanned {
		key := tableKey{r.schema, r.table}
		t, ok := tables[key]
		if !ok {
			t = &schema.Table{Name: r.table}
			tables[key] = t
			tableOrder = append(tableOrder, key)
		}
		ty, err := typeFromUDTName(r.udtName)
		if err != nil {
			return nil, err.WithStatement(r.schema + "." + r.table + "." + r.column)
		}
		t.Columns = append(t.Columns, schema.Column{
			Name: r.column,
			Data: schema.ColumnData{Type: ty, Nullable: r.isNullable == "YES"},
		})
	}

	for _, key := range tableOrder {
		if _, dup := cat.Table(key.table); dup {
			return nil, diagnostic.New(diagnostic.KindUnsupported, "table name %q appears in more than one schema", key.table)
		}
		cat.AddTable(tables[key])
	}

	if log != nil {
		log.Info("catalog loaded", zap.Int("tables", len(tableOrder)))
	}
	return cat, nil
}
