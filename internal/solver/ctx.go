// Package solver implements the type-resolution engine: given a catalog
// expanded into a flat scope and a parsed statement tree, it computes the
// ordered, named, typed, nullability-aware sequence of output columns the
// statement produces.
package solver

import "github.com/zoravur/typedsqlgen/internal/schema"

// CtxEntry is one resolvable column within a scope, or one column of a
// solved projection. Table == nil means the entry is an expression result
// (a literal, or an aliased projection); Column == nil means it is
// anonymous. A flat list, not a map, so duplicate qualified names are
// representable at scope-build time — uniqueness is enforced only at
// resolution time (§4.3.3), per spec.
type CtxEntry struct {
	Table  *string
	Column *string
	Data   schema.ColumnData
}

// NewEntry builds a fully-qualified entry belonging to (table, column).
func NewEntry(table, column string, data schema.ColumnData) CtxEntry {
	return CtxEntry{Table: &table, Column: &column, Data: data}
}

// NewAnonymousEntry builds an entry with no originating table and,
// optionally, no column name (used for literals and unaliased
// expressions).
func NewAnonymousEntry(column *string, data schema.ColumnData) CtxEntry {
	return CtxEntry{Table: nil, Column: column, Data: data}
}

// TableName reports the entry's originating table name and whether it has
// one.
func (e CtxEntry) TableName() (string, bool) {
	if e.Table == nil {
		return "", false
	}
	return *e.Table, true
}

// ColumnName reports the entry's column name and whether it has one.
func (e CtxEntry) ColumnName() (string, bool) {
	if e.Column == nil {
		return "", false
	}
	return *e.Column, true
}

// Ctx is an ordered sequence of CtxEntry. Order is significant: when
// produced by a projection it is the output column order; when used as a
// scope it is resolution-irrelevant but kept stable for determinism.
type Ctx []CtxEntry

// SystemCtx expands a catalog into one CtxEntry per (table, column),
// preserving catalog and column order. This is the system_ctx input to
// Solve.
func SystemCtx(cat *schema.Catalog) Ctx {
	var out Ctx
	for _, t := range cat.Tables() {
		for _, c := range t.Columns {
			out = append(out, NewEntry(t.Name, c.Name, c.Data))
		}
	}
	return out
}

func withNullableForced(c Ctx) Ctx {
	out := make(Ctx, len(c))
	for i, e := range c {
		e.Data.Nullable = true
		out[i] = e
	}
	return out
}

func withTableRewritten(c Ctx, alias string) Ctx {
	out := make(Ctx, len(c))
	for i, e := range c {
		e.Table = &alias
		out[i] = e
	}
	return out
}
