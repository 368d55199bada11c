package catalog

import (
	"context"

	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/schema"
)

// OIDTypeNames maps pg_type OIDs to their typname, for resolving the OIDs
// returned by pg_prepared_statements.parameter_types/result_types (§4.2
// step 7). Grounded on the same query_pg_types scan the original uses for
// its pg_type_map.
func OIDTypeNames(ctx context.Context, q Querier) (map[uint32]string, error) {
	rows, err := q.Query(ctx, "SELECT oid, typname FROM pg_catalog.pg_type")
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.KindDatabase, err, "querying pg_type")
	}
	defer rows.Close()

	out := make(map[uint32]string)
	for rows.Next() {
		var oid uint32
		var name string
		if err := rows.Scan(&oid, &name); err != nil {
			return nil, diagnostic.Wrap(diagnostic.KindDatabase, err, "scanning pg_type row")
		}
		out[oid] = name
	}
	if err := rows.Err(); err != nil {
		return nil, diagnostic.Wrap(diagnostic.KindDatabase, err, "iterating pg_type rows")
	}
	return out, nil
}

// TypeFromUDTName exposes the closed udt_name → Type mapping (§4.1) for
// callers outside this package, such as the distiller resolving parameter
// OIDs back to a Type.
func TypeFromUDTName(udtName string) (schema.Type, error) {
	t, diag := typeFromUDTName(udtName)
	if diag != nil {
		return 0, diag
	}
	return t, nil
}
