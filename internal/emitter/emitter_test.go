package emitter

import (
	"strings"
	"testing"

	"github.com/zoravur/typedsqlgen/internal/distiller"
	"github.com/zoravur/typedsqlgen/internal/schema"
	"github.com/zoravur/typedsqlgen/internal/solver"
)

func TestEmit_SelectWithParamsAndRows(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	fn := distiller.PreparedFn{
		Name:        "get_x",
		DeparsedSQL: "SELECT a, b FROM x WHERE b = $1",
		Params:      []schema.ColumnData{{Type: schema.TypeInteger, Nullable: true}},
		Rows: []solver.CtxEntry{
			solver.NewEntry("x", "a", schema.ColumnData{Type: schema.TypeText, Nullable: false}),
			solver.NewEntry("x", "b", schema.ColumnData{Type: schema.TypeInteger, Nullable: true}),
		},
	}

	out, err := gen.Emit(fn)
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	for _, want := range []string{
		"pub struct GetXParams {",
		"pub param_0: Option<i32>,",
		"pub struct GetXRows {",
		"pub a: String,",
		"pub b: Option<i32>,",
		"pub async fn get_x(c: impl tokio_postgres::GenericClient, p: GetXParams) -> Result<Vec<GetXRows>, tokio_postgres::Error> {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestEmit_NoParamsOmitsParamsStruct(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	fn := distiller.PreparedFn{
		Name:        "list_x",
		DeparsedSQL: "SELECT a FROM x",
		Rows: []solver.CtxEntry{
			solver.NewEntry("x", "a", schema.ColumnData{Type: schema.TypeText, Nullable: false}),
		},
	}

	out, err := gen.Emit(fn)
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if strings.Contains(out, "Params {") {
		t.Errorf("expected no params struct, got:\n%s", out)
	}
	if !strings.Contains(out, "pub async fn list_x(c: impl tokio_postgres::GenericClient) -> Result<Vec<ListXRows>, tokio_postgres::Error> {") {
		t.Errorf("expected a param-less function signature, got:\n%s", out)
	}
}

func TestEmit_AffectedRowCountHasNoRowsStruct(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	fn := distiller.PreparedFn{
		Name:        "del_x",
		DeparsedSQL: "DELETE FROM x WHERE b = $1",
		Params:      []schema.ColumnData{{Type: schema.TypeInteger, Nullable: true}},
	}

	out, err := gen.Emit(fn)
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if strings.Contains(out, "Rows {") {
		t.Errorf("expected no rows struct for an affected-row-count signature, got:\n%s", out)
	}
	if !strings.Contains(out, "Result<u64, tokio_postgres::Error>") {
		t.Errorf("expected an affected-row-count return type, got:\n%s", out)
	}
}

func TestEmit_IsDeterministic(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	fn := distiller.PreparedFn{
		Name:        "list_x",
		DeparsedSQL: "SELECT a FROM x",
		Rows: []solver.CtxEntry{
			solver.NewEntry("x", "a", schema.ColumnData{Type: schema.TypeText, Nullable: false}),
		},
	}
	first, err := gen.Emit(fn)
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	second, err := gen.Emit(fn)
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if first != second {
		t.Errorf("expected idempotent output, got:\n%s\n---\n%s", first, second)
	}
}

func TestEmit_NullTypeInNamedFieldIsFatal(t *testing.T) {
	gen, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	fn := distiller.PreparedFn{
		Name:        "bad",
		DeparsedSQL: "SELECT NULL AS x FROM t",
		Rows: []solver.CtxEntry{
			solver.NewAnonymousEntry(strPtr("x"), schema.ColumnData{Type: schema.TypeNull, Nullable: false}),
		},
	}
	if _, err := gen.Emit(fn); err == nil {
		t.Fatal("expected an error emitting a named NULL-typed field")
	}
}

func strPtr(s string) *string { return &s }
