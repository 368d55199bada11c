package solver

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/zoravur/typedsqlgen/internal/diagnostic"
	"github.com/zoravur/typedsqlgen/internal/schema"
)

// Solve dispatches on the statement kind of node, computing the ordered
// type context it produces. node is the inner query of a PrepareStmt
// (SelectStmt, InsertStmt, UpdateStmt, or DeleteStmt). systemCtx is the
// catalog expanded into one CtxEntry per (table, column), see SystemCtx.
//
// Solve is pure: same inputs, same output, no shared state.
func Solve(systemCtx Ctx, node *pg_query.Node) (Ctx, error) {
	switch {
	case node.GetSelectStmt() != nil:
		sel := node.GetSelectStmt()
		scope, err := solveFrom(systemCtx, sel.GetFromClause())
		if err != nil {
			return nil, err
		}
		return solveTargets(scope, sel.GetTargetList())

	case node.GetInsertStmt() != nil:
		ins := node.GetInsertStmt()
		return solveReturning(systemCtx, ins.GetRelation(), ins.GetReturningList())

	case node.GetUpdateStmt() != nil:
		upd := node.GetUpdateStmt()
		return solveReturning(systemCtx, upd.GetRelation(), upd.GetReturningList())

	case node.GetDeleteStmt() != nil:
		del := node.GetDeleteStmt()
		return solveReturning(systemCtx, del.GetRelation(), del.GetReturningList())

	default:
		return nil, diagnostic.New(diagnostic.KindUnsupported, "unsupported statement kind")
	}
}

// rowCountCtx is the single anonymous entry representing an affected-row
// count, per spec §3's invariant for non-projecting statements.
func rowCountCtx() Ctx {
	return Ctx{NewAnonymousEntry(nil, schema.ColumnData{Type: schema.TypeInteger, Nullable: false})}
}

func solveReturning(systemCtx Ctx, relation *pg_query.RangeVar, returning []*pg_query.Node) (Ctx, error) {
	if len(returning) == 0 {
		return rowCountCtx(), nil
	}
	scope, err := solveFromTable(systemCtx, rangeVarNode(relation))
	if err != nil {
		return nil, err
	}
	return solveTargets(scope, returning)
}

func rangeVarNode(rv *pg_query.RangeVar) *pg_query.Node {
	return &pg_query.Node{Node: &pg_query.Node_RangeVar{RangeVar: rv}}
}

// solveFrom flat-maps solveFromTable over a FROM list, concatenating
// results in order. Multiple FROM items produce a cartesian-style flat
// scope; cross-product semantics are the caller's responsibility.
func solveFrom(systemCtx Ctx, from []*pg_query.Node) (Ctx, error) {
	var out Ctx
	for _, item := range from {
		sub, err := solveFromTable(systemCtx, item)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// solveFromTable resolves one source in a FROM clause or one side of a
// join against systemCtx.
func solveFromTable(systemCtx Ctx, node *pg_query.Node) (Ctx, error) {
	switch {
	case node.GetRangeVar() != nil:
		rv := node.GetRangeVar()
		var out Ctx
		for _, e := range systemCtx {
			table, ok := e.TableName()
			if ok && table == rv.GetRelname() {
				out = append(out, e)
			}
		}
		if alias := rv.GetAlias(); alias != nil && alias.GetAliasname() != "" {
			out = withTableRewritten(out, alias.GetAliasname())
		}
		return out, nil

	case node.GetJoinExpr() != nil:
		je := node.GetJoinExpr()
		left, err := solveFromTable(systemCtx, je.GetLarg())
		if err != nil {
			return nil, err
		}
		right, err := solveFromTable(systemCtx, je.GetRarg())
		if err != nil {
			return nil, err
		}
		switch je.GetJointype() {
		case pg_query.JoinType_JOIN_INNER:
			return append(append(Ctx{}, left...), right...), nil
		case pg_query.JoinType_JOIN_LEFT:
			return append(append(Ctx{}, left...), withNullableForced(right)...), nil
		case pg_query.JoinType_JOIN_RIGHT:
			return append(withNullableForced(left), right...), nil
		case pg_query.JoinType_JOIN_FULL:
			return append(withNullableForced(left), withNullableForced(right)...), nil
		default:
			return nil, diagnostic.New(diagnostic.KindUnsupported, "join type not supported: %s", je.GetJointype())
		}

	default:
		return nil, diagnostic.New(diagnostic.KindUnsupported, "unsupported from source")
	}
}

// solveTargets resolves each ResTarget in a projection or RETURNING list
// against scope, in order.
func solveTargets(scope Ctx, targets []*pg_query.Node) (Ctx, error) {
	out := make(Ctx, 0, len(targets))
	for _, t := range targets {
		rt := t.GetResTarget()
		entry, err := solveTarget(scope, rt)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func solveTarget(scope Ctx, rt *pg_query.ResTarget) (CtxEntry, error) {
	val := rt.GetVal()
	alias := rt.GetName()

	switch {
	case val.GetColumnRef() != nil:
		return solveColumnRef(scope, val.GetColumnRef(), alias)

	case val.GetAConst() != nil:
		return solveAConst(val.GetAConst(), alias), nil

	default:
		return CtxEntry{}, diagnostic.New(diagnostic.KindUnsupported, "unsupported expression in projection")
	}
}

func solveColumnRef(scope Ctx, ref *pg_query.ColumnRef, alias string) (CtxEntry, error) {
	fields := ref.GetFields()
	if len(fields) != 2 {
		return CtxEntry{}, diagnostic.New(diagnostic.KindUnsupported, "invalid name, use table.column")
	}
	table, ok1 := fields[0].GetString_().GetSval(), fields[0].GetString_() != nil
	column, ok2 := fields[1].GetString_().GetSval(), fields[1].GetString_() != nil
	if !ok1 || !ok2 {
		return CtxEntry{}, diagnostic.New(diagnostic.KindUnsupported, "invalid name, use table.column")
	}

	var match *CtxEntry
	matches := 0
	for i := range scope {
		t, hasTable := scope[i].TableName()
		c, hasColumn := scope[i].ColumnName()
		if hasTable && hasColumn && t == table && c == column {
			matches++
			match = &scope[i]
		}
	}
	switch matches {
	case 0:
		return CtxEntry{}, diagnostic.New(diagnostic.KindResolution, "selected table/name not found: %s.%s", table, column)
	case 1:
		// fallthrough below
	default:
		return CtxEntry{}, diagnostic.New(diagnostic.KindResolution, "ambiguous column: %s.%s", table, column)
	}

	if alias != "" {
		return NewAnonymousEntry(&alias, match.Data), nil
	}
	return *match, nil
}

func solveAConst(ac *pg_query.A_Const, alias string) CtxEntry {
	data := aConstData(ac)
	var col *string
	if alias != "" {
		col = &alias
	}
	return NewAnonymousEntry(col, data)
}

func aConstData(ac *pg_query.A_Const) schema.ColumnData {
	switch {
	case ac.GetIsnull():
		return schema.ColumnData{Type: schema.TypeNull, Nullable: false}
	case ac.GetIval() != nil:
		return schema.ColumnData{Type: schema.TypeInteger, Nullable: false}
	case ac.GetFval() != nil:
		return schema.ColumnData{Type: schema.TypeFloat, Nullable: false}
	case ac.GetBoolval() != nil:
		return schema.ColumnData{Type: schema.TypeBoolean, Nullable: false}
	case ac.GetSval() != nil:
		return schema.ColumnData{Type: schema.TypeText, Nullable: false}
	case ac.GetBsval() != nil:
		return schema.ColumnData{Type: schema.TypeBytes, Nullable: false}
	default:
		return schema.ColumnData{Type: schema.TypeNull, Nullable: false}
	}
}
