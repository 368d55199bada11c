// Package distiller implements the Prepared-Statement Distiller (spec
// §4.2): it parses a file of PREPARE statements, runs the type solver on
// each inner query, and distills a uniform PreparedFn record per
// statement.
package distiller

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/typedsqlgen/internal/catalog"
	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/schema"
	"github.com/zoravur/typedsqlgen/internal/solver"
)

// PreparedFn is the distiller's output: one uniform record per PREPARE
// statement found in an input file.
type PreparedFn struct {
	Name       string
	DeparsedSQL string
	Params     []schema.ColumnData
	Rows       []solver.CtxEntry
}

// Introspector runs a PREPARE against a live connection inside a
// transaction that is always rolled back, and reports back the
// parameter/result type OIDs PostgreSQL's own planner assigned. This is
// the live-introspection collaborator described in §4.2 step 7; the
// distiller is agnostic to how it is implemented (pgx transaction, pooled
// connection, …), which keeps this package testable against a fake.
type Introspector interface {
	Introspect(ctx context.Context, name, deparsedSQL string) (paramOIDs, resultOIDs []uint32, err error)
}

// Distill parses fileText into statements, requires every top-level
// statement be a PrepareStmt, and produces one PreparedFn per statement in
// source order.
func Distill(ctx context.Context, intro Introspector, oidNames map[uint32]string, cat *schema.Catalog, path, fileText string) ([]PreparedFn, error) {
	tree, err := pg_query.Parse(fileText)
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.KindParse, err, "parsing %s", path).WithPath(path)
	}

	systemCtx := solver.SystemCtx(cat)

	var out []PreparedFn
	for _, raw := range tree.GetStmts() {
		stmt := raw.GetStmt()
		prep := stmt.GetPrepareStmt()
		if prep == nil {
			return nil, diagnostic.New(diagnostic.KindUnsupported, "top-level statement is not a PREPARE").WithPath(path)
		}

		fn, err := distillOne(ctx, intro, oidNames, systemCtx, path, prep)
		if err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	return out, nil
}

func distillOne(ctx context.Context, intro Introspector, oidNames map[uint32]string, systemCtx solver.Ctx, path string, prep *pg_query.PrepareStmt) (PreparedFn, error) {
	name := prep.GetName()

	rowCtx, err := solver.Solve(systemCtx, prep.GetQuery())
	if err != nil {
		if d, ok := err.(*diagnostic.Diagnostic); ok {
			return PreparedFn{}, d.WithPath(path).WithStatement(name)
		}
		return PreparedFn{}, err
	}

	if err := validateProjectionShape(rowCtx); err != nil {
		return PreparedFn{}, err.WithPath(path).WithStatement(name)
	}

	deparsed, err := deparseInner(prep.GetQuery())
	if err != nil {
		return PreparedFn{}, diagnostic.Wrap(diagnostic.KindIO, err, "deparsing inner query").WithPath(path).WithStatement(name)
	}

	params, err := introspectParams(ctx, intro, oidNames, name, deparsed)
	if err != nil {
		if d, ok := err.(*diagnostic.Diagnostic); ok {
			return PreparedFn{}, d.WithPath(path).WithStatement(name)
		}
		return PreparedFn{}, err
	}

	rows := rowCtx
	if isRowCountCtx(rowCtx) {
		rows = nil
	}

	return PreparedFn{Name: name, DeparsedSQL: deparsed, Params: params, Rows: rows}, nil
}

// isRowCountCtx reports whether ctx is the single anonymous row-count
// entry, in which case the distilled PreparedFn has no row fields (§4.2
// step 5's carve-out).
func isRowCountCtx(ctx solver.Ctx) bool {
	if len(ctx) != 1 {
		return false
	}
	_, hasTable := ctx[0].TableName()
	_, hasColumn := ctx[0].ColumnName()
	return !hasTable && !hasColumn && ctx[0].Data.Type == schema.TypeInteger && !ctx[0].Data.Nullable
}

// validateProjectionShape enforces §4.2 step 5: every entry's column must
// be Some and names pairwise distinct, unless the whole Ctx is the
// anonymous row-count entry.
func validateProjectionShape(ctx solver.Ctx) *diagnostic.Diagnostic {
	if isRowCountCtx(ctx) {
		return nil
	}
	seen := make(map[string]struct{}, len(ctx))
	for _, e := range ctx {
		col, ok := e.ColumnName()
		if !ok {
			return diagnostic.New(diagnostic.KindProjectionShape, "anonymous column in row projection")
		}
		if _, dup := seen[col]; dup {
			return diagnostic.New(diagnostic.KindProjectionShape, "duplicated output column name %q", col)
		}
		seen[col] = struct{}{}
	}
	return nil
}

func deparseInner(query *pg_query.Node) (string, error) {
	result := &pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{Stmt: query}},
	}
	return pg_query.Deparse(result)
}

func introspectParams(ctx context.Context, intro Introspector, oidNames map[uint32]string, name, deparsedSQL string) ([]schema.ColumnData, error) {
	probeName := fmt.Sprintf("distill_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))
	paramOIDs, _, err := intro.Introspect(ctx, probeName, deparsedSQL)
	if err != nil {
		return nil, diagnostic.Wrap(diagnostic.KindDatabase, err, "introspecting PREPARE %s", name)
	}

	params := make([]schema.ColumnData, 0, len(paramOIDs))
	for _, oid := range paramOIDs {
		udt, ok := oidNames[oid]
		if !ok {
			return nil, diagnostic.New(diagnostic.KindTypeMapping, "unknown parameter type oid %d", oid)
		}
		ty, err := catalog.TypeFromUDTName(udt)
		if err != nil {
			return nil, err
		}
		// All parameters are treated as nullable in the generated API, to
		// allow optional binding (§4.2 step 7); the declared type's own
		// nullability never enters this decision.
		params = append(params, schema.ColumnData{Type: ty, Nullable: true})
	}
	return params, nil
}
